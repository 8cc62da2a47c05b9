package main

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"slices"
	"time"

	"github.com/delaneyj/rowsignal/pkg/dom"
	"github.com/delaneyj/rowsignal/pkg/keyed"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
)

func main() {
	log.Print("Starting keyed reconcile benchmark, please wait...")
	defer log.Print("Finished keyed reconcile benchmark")

	perfTestCfgs := []benchmarkTestConfig{
		{name: "append", size: 1_000, iterations: 1_000, mutate: appendRows},
		{name: "prepend", size: 1_000, iterations: 1_000, mutate: prependRows},
		{name: "swap rows", size: 1_000, iterations: 5_000, mutate: swapRows},
		{name: "reverse", size: 1_000, iterations: 1_000, mutate: reverseRows},
		{name: "shuffle", size: 1_000, iterations: 500, mutate: shuffleRows},
		{name: "remove every 10th", size: 10_000, iterations: 20, mutate: removeEveryTenth},
		{name: "replace all", size: 1_000, iterations: 500, mutate: replaceAll},
	}

	type results struct {
		stats    keyed.Stats
		duration time.Duration
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{
		"test", "size", "nTimes", "time",
		"created", "moved", "removed", "rowsPerMs",
	})

	testRepeats := 5
	for _, cfg := range perfTestCfgs {
		log.Printf("Running '%s' config", cfg.name)

		// run once to warm up
		benchmarkRun(cfg)

		bestResult := &results{
			duration: time.Hour,
		}
		for i := 0; i < testRepeats; i++ {
			log.Printf("Running '%s' config, iteration %d/%d %d%%", cfg.name, i+1, testRepeats, (i+1)*100/testRepeats)
			start := time.Now()
			stats := benchmarkRun(cfg)
			duration := time.Since(start)
			if duration < bestResult.duration {
				bestResult.duration = duration
				bestResult.stats = stats
			}
		}

		s := bestResult.stats
		touched := s.Created + s.Updated + s.Removed
		rowsPerMs := float64(touched) / (float64(bestResult.duration) / float64(time.Millisecond))

		table.Append([]string{
			cfg.name,
			humanize.Comma(int64(cfg.size)),
			humanize.Comma(int64(cfg.iterations)),
			fmt.Sprint(bestResult.duration),
			humanize.Comma(int64(s.Created)),
			humanize.Comma(int64(s.Moved)),
			humanize.Comma(int64(s.Removed)),
			humanize.Comma(int64(rowsPerMs)),
		})
	}
	table.Render()
}

type benchmarkTestConfig struct {
	name       string
	size       int
	iterations int
	// mutate returns the next item sequence; fresh is a source of unused keys.
	mutate func(items []int, fresh func() int, rnd *rand.Rand) []int
}

// benchmarkRun reconciles a list of cfg.size rows through cfg.iterations
// mutations, checks the rendered order matches the final items and returns
// the summed stats.
func benchmarkRun(cfg benchmarkTestConfig) keyed.Stats {
	doc := dom.NewDocument()
	ul := doc.Element("ul")
	next := 0
	fresh := func() int {
		next++
		return next
	}
	cb := keyed.Callbacks[int, *dom.Node]{
		Key: func(item int, _ int) any {
			return item
		},
		Create: func(item int, _ int) (*dom.Node, error) {
			return doc.Element("li", doc.Text(fmt.Sprint(item))), nil
		},
		Update: func(*dom.Node, int, int) error {
			return nil
		},
		Remove: func(n *dom.Node) error {
			if n.Parent != ul {
				return nil
			}
			return ul.RemoveChild(n)
		},
		Insert: func(n, before *dom.Node) error {
			return ul.InsertBefore(n, before)
		},
		Move: func(n, before *dom.Node) error {
			return ul.InsertBefore(n, before)
		},
		OnError: func(err error) {
			log.Panic(err)
		},
	}

	items := make([]int, cfg.size)
	for i := range items {
		items[i] = fresh()
	}
	res := keyed.Reconcile[int, *dom.Node](nil, nil, items, cb)

	rnd := rand.New(rand.NewSource(0))
	var total keyed.Stats
	for i := 0; i < cfg.iterations; i++ {
		items = cfg.mutate(slices.Clone(items), fresh, rnd)
		res = keyed.Reconcile(res.Keys, res.Rows, items, cb)
		total.Created += res.Stats.Created
		total.Updated += res.Stats.Updated
		total.Moved += res.Stats.Moved
		total.Removed += res.Stats.Removed
	}

	if len(ul.Children) != len(items) {
		log.Fatalf("%s: rendered %d rows, want %d", cfg.name, len(ul.Children), len(items))
	}
	for i, n := range ul.Children {
		if want := fmt.Sprint(items[i]); n.TextContent() != want {
			log.Fatalf("%s: row %d is %s, want %s", cfg.name, i, n.TextContent(), want)
		}
	}
	return total
}

func appendRows(items []int, fresh func() int, _ *rand.Rand) []int {
	return append(items[1:], fresh())
}

func prependRows(items []int, fresh func() int, _ *rand.Rand) []int {
	return append([]int{fresh()}, items[:len(items)-1]...)
}

func swapRows(items []int, _ func() int, rnd *rand.Rand) []int {
	a, b := rnd.Intn(len(items)), rnd.Intn(len(items))
	items[a], items[b] = items[b], items[a]
	return items
}

func reverseRows(items []int, _ func() int, _ *rand.Rand) []int {
	slices.Reverse(items)
	return items
}

func shuffleRows(items []int, _ func() int, rnd *rand.Rand) []int {
	rnd.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
	return items
}

// removeEveryTenth drops every tenth row and refills the tail so the size
// stays constant.
func removeEveryTenth(items []int, fresh func() int, _ *rand.Rand) []int {
	n := len(items)
	kept := items[:0]
	for i, item := range items {
		if i%10 != 0 {
			kept = append(kept, item)
		}
	}
	for len(kept) < n {
		kept = append(kept, fresh())
	}
	return kept
}

func replaceAll(items []int, fresh func() int, _ *rand.Rand) []int {
	for i := range items {
		items[i] = fresh()
	}
	return items
}
