package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/delaneyj/rowsignal/cmd/trace/templates"
	"github.com/delaneyj/rowsignal/pkg/dom"
	"github.com/delaneyj/rowsignal/pkg/keyed"
	"github.com/urfave/cli/v3"
)

const (
	oldKey  = "old"
	newKey  = "new"
	hideKey = "hide"
	outKey  = "out"
)

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "trace",
		Usage: "Print the patch a keyed reconcile makes between two key sequences",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  oldKey,
				Usage: "Comma separated keys currently rendered",
			},
			&cli.StringFlag{
				Name:     newKey,
				Usage:    "Comma separated keys to render",
				Required: true,
			},
			&cli.StringFlag{
				Name:  hideKey,
				Usage: "Comma separated keys to hide from the new sequence",
			},
			&cli.StringFlag{
				Name:  outKey,
				Usage: "Write the trace to this file instead of stdout",
			},
		},
		Action: traceAction,
	}
}

func traceAction(ctx context.Context, cmd *cli.Command) error {
	hidden := map[string]bool{}
	for _, k := range split(cmd.String(hideKey)) {
		hidden[k] = true
	}

	report := Trace(split(cmd.String(oldKey)), split(cmd.String(newKey)), hidden)

	var w io.Writer = os.Stdout
	if out := cmd.String(outKey); out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", out, err)
		}
		defer f.Close()
		w = f
	}
	templates.WritePatchTrace(w, report)
	return nil
}

func split(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// Trace renders oldItems into a list, then reconciles it to newItems and
// records every renderer call the second pass makes.
func Trace(oldItems, newItems []string, hidden map[string]bool) *templates.Report {
	doc := dom.NewDocument()
	ul := doc.Element("ul")
	report := &templates.Report{Old: oldItems, New: newItems}

	recording := false
	record := func(op string, n, before *dom.Node) {
		if !recording {
			return
		}
		s := templates.Step{Op: op, Key: n.TextContent()}
		if before != nil {
			s.Before = before.TextContent()
		}
		report.Steps = append(report.Steps, s)
	}

	cb := keyed.Callbacks[string, *dom.Node]{
		Key: func(item string, _ int) any {
			return item
		},
		Keep: func(item string, _ int) bool {
			return !recording || !hidden[item]
		},
		Create: func(item string, _ int) (*dom.Node, error) {
			return doc.Element("li", doc.Text(item)), nil
		},
		Update: func(*dom.Node, string, int) error {
			return nil
		},
		Remove: func(n *dom.Node) error {
			if n.Parent != ul {
				return nil
			}
			record("remove", n, nil)
			return ul.RemoveChild(n)
		},
		Insert: func(n, before *dom.Node) error {
			record("insert", n, before)
			return ul.InsertBefore(n, before)
		},
		Move: func(n, before *dom.Node) error {
			record("move", n, before)
			return ul.InsertBefore(n, before)
		},
		OnError: func(err error) {
			report.Errors = append(report.Errors, err.Error())
		},
	}

	base := keyed.Reconcile[string, *dom.Node](nil, nil, oldItems, cb)
	recording = true
	res := keyed.Reconcile(base.Keys, base.Rows, newItems, cb)

	report.Stats = res.Stats.String()
	report.Stable = stable(base.Keys, res.Keys)
	report.Result = ul.String()
	return report
}

// stable lists the surviving keys that kept their relative order and so were
// never moved.
func stable(oldKeys, newKeys []any) []string {
	oldPos := make(map[any]int, len(oldKeys))
	for i, k := range oldKeys {
		oldPos[k] = i
	}
	seq := make([]int, len(newKeys))
	for i, k := range newKeys {
		seq[i] = -1
		if p, ok := oldPos[k]; ok {
			seq[i] = p
		}
	}
	var out []string
	for _, i := range keyed.LIS(seq) {
		out = append(out, fmt.Sprint(newKeys[i]))
	}
	return out
}
