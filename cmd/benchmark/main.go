package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"runtime/pprof"
	"time"

	"github.com/delaneyj/rowsignal/pkg/arena"
	"github.com/delaneyj/rowsignal/pkg/directive"
	"github.com/delaneyj/rowsignal/pkg/dom"
	"github.com/delaneyj/rowsignal/pkg/reactive"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"
)

const (
	itersKey   = "iters"
	profileKey = "profile"
	quietKey   = "quiet"
)

var (
	ww    = []int{1, 10, 100, 1_000}
	hh    = []int{1, 10, 100}
	sizes = []int{10, 100, 1_000, 10_000}
)

func main() {
	cmd := &cli.Command{
		Name:  "benchmark",
		Usage: "Latency of signal propagation and keyed list patches",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:  itersKey,
				Usage: "Samples per benchmark",
				Value: 100,
			},
			&cli.StringFlag{
				Name:  profileKey,
				Usage: "Write a CPU profile to this file",
				Value: "default.pgo",
			},
			&cli.BoolFlag{
				Name:  quietKey,
				Usage: "Run without printing tables",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if path := cmd.String(profileKey); path != "" {
				f, err := os.Create(path)
				if err != nil {
					return err
				}
				defer f.Close()
				if err := pprof.StartCPUProfile(f); err != nil {
					return err
				}
				defer pprof.StopCPUProfile()
			}

			iters := int(cmd.Uint(itersKey))
			render := !cmd.Bool(quietKey)

			log.Printf("warming up")
			benchmarkPropagation(iters, render)
			benchmarkList(iters, render)
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newTable(title string) table.Writer {
	tbl := table.NewWriter()
	tbl.SetTitle(title)
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})
	return tbl
}

func appendCalc(tbl table.Writer, name string, tach *tachymeter.Tachymeter) {
	calc := tach.Calc()
	tbl.AppendRows([]table.Row{
		{
			name,
			calc.Time.Avg,
			calc.Time.Min,
			calc.Time.P75,
			calc.Time.P99,
			calc.Time.Max,
		},
	})
}

// benchmarkPropagation builds w chains of h effects, each effect copying the
// previous signal into the next one, and times a write to the shared source.
func benchmarkPropagation(iters int, shouldRender bool) {
	tbl := newTable("Propagation")

	for _, w := range ww {
		for _, h := range hh {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			rt := reactive.CreateRuntime(
				reactive.WithMaxFlushRuns(0),
				reactive.WithErrorHandler(func(from any, err error) {
					log.Panic(err)
				}),
			)
			src := reactive.Signal(rt, 1)
			for i := 0; i < w; i++ {
				last := src
				for j := 0; j < h; j++ {
					prev := last
					next := reactive.Signal(rt, 0)
					rt.CreateEffect(func() error {
						next.SetValue(prev.Value() + 1)
						return nil
					})
					last = next
				}
				tail := last
				rt.CreateEffect(func() error {
					tail.Value()
					return nil
				})
			}

			for i := 0; i < iters; i++ {
				start := time.Now()
				src.SetValue(src.Peek() + 1)
				tach.AddTime(time.Since(start))
			}

			appendCalc(tbl, fmt.Sprintf("propagate: %d * %d", w, h), tach)
		}
	}

	if shouldRender {
		tbl.Render()
	}
}

// benchmarkList times one reactive write that makes a bound list shuffle a
// handful of rows and rewrite one row's text.
func benchmarkList(iters int, shouldRender bool) {
	tbl := newTable("Keyed list")

	for _, size := range sizes {
		tach := tachymeter.New(&tachymeter.Config{Size: iters})

		rt := reactive.CreateRuntime(
			reactive.WithMaxFlushRuns(0),
			reactive.WithErrorHandler(func(from any, err error) {
				log.Panic(err)
			}),
		)
		ar := arena.New()
		doc := dom.NewDocument()
		r := directive.NewRenderer(rt, ar, doc)

		items := reactive.List[int](rt)
		ul := doc.Element("ul")
		_, err := directive.NewList(r, ul, nil, directive.ListOptions[int]{
			Source: items.Items,
			Key: func(item int, _ int, _ *arena.FlatScope) any {
				return item
			},
			Render: func(*arena.FlatScope) (*dom.Node, error) {
				li := doc.Element("li")
				li.SetAttr("x-text", "item")
				return li, nil
			},
		})
		if err != nil {
			log.Panic(err)
		}

		seed := make([]int, size)
		for i := range seed {
			seed[i] = i
		}
		items.Replace(seed)

		rnd := rand.New(rand.NewSource(int64(size)))
		for i := 0; i < iters; i++ {
			next := items.Peek()
			a, b := rnd.Intn(size), rnd.Intn(size)
			next[a], next[b] = next[b], next[a]
			next[rnd.Intn(size)] = size + i

			start := time.Now()
			items.Replace(next)
			tach.AddTime(time.Since(start))
		}

		appendCalc(tbl, fmt.Sprintf("swap+replace: %d rows", size), tach)
	}

	if shouldRender {
		tbl.Render()
	}
}
