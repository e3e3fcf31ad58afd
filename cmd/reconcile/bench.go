package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/reconciler/internal/errors"
	"github.com/vango-dev/reconciler/pkg/element"
	"github.com/vango-dev/reconciler/pkg/host/memhost"
)

type benchOptions struct {
	items      int
	iterations int
	roots      int
}

// benchResult is the outcome of one root's run.
type benchResult struct {
	root    int
	calc    *tachymeter.Metrics
	moves   int
	created int
	ops     int
}

func benchCmd(e *env) *cobra.Command {
	opts := benchOptions{}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark keyed list reorders",
		Long: `Mount a keyed list and reorder it repeatedly, timing each update from
UpdateContainer until the scheduler is idle. Every root runs on its own
goroutine with its own scheduler loop and host.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := cmd.Flags()
			if !fs.Changed("items") {
				opts.items = e.cfg.Bench.Items
			}
			if !fs.Changed("iterations") {
				opts.iterations = e.cfg.Bench.Iterations
			}
			if !fs.Changed("roots") {
				opts.roots = e.cfg.Bench.Roots
			}
			return runBench(cmd.Context(), cmd.OutOrStdout(), e, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.items, "items", "n", 1000, "length of the keyed list")
	cmd.Flags().IntVarP(&opts.iterations, "iterations", "i", 200, "reorders per root")
	cmd.Flags().IntVarP(&opts.roots, "roots", "r", 1, "independent roots run in parallel")

	return cmd
}

func runBench(ctx context.Context, out io.Writer, e *env, opts benchOptions) error {
	if opts.items < 2 || opts.iterations < 1 || opts.roots < 1 {
		return errors.New(errors.CodeInvalidConfigValue).
			WithDetail("bench needs at least 2 items, 1 iteration and 1 root")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	results := make([]benchResult, opts.roots)
	g, ctx := errgroup.WithContext(ctx)
	for i := range results {
		i := i
		g.Go(func() error {
			res, err := benchRoot(ctx, e, opts)
			if err != nil {
				return err
			}
			res.root = i
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	tbl := table.NewWriter()
	tbl.SetTitle(fmt.Sprintf("Keyed reorder: %s items × %s iterations",
		humanize.Comma(int64(opts.items)), humanize.Comma(int64(opts.iterations))))
	tbl.SetOutputMirror(out)
	tbl.AppendHeader(table.Row{"root", "avg", "min", "p75", "p99", "max", "moves", "ops"})
	for _, res := range results {
		tbl.AppendRow(table.Row{
			res.root,
			res.calc.Time.Avg,
			res.calc.Time.Min,
			res.calc.Time.P75,
			res.calc.Time.P99,
			res.calc.Time.Max,
			humanize.Comma(int64(res.moves)),
			humanize.Comma(int64(res.ops)),
		})
	}
	tbl.Render()

	for _, res := range results {
		if res.created != 0 {
			warn(out, "root %d created %d nodes while reordering", res.root, res.created)
		}
	}
	return nil
}

func benchRoot(ctx context.Context, e *env, opts benchOptions) (benchResult, error) {
	s := newSession(e, nil)

	keys := make([]int, opts.items)
	for i := range keys {
		keys[i] = i
	}
	s.rec.UpdateContainer(benchList(keys), s.root)
	s.loop.RunUntilIdle()
	if err := s.root.LastError(); err != nil {
		return benchResult{}, err
	}

	created := s.host.Stats().Created
	s.host.ResetLog()

	tach := tachymeter.New(&tachymeter.Config{Size: opts.iterations})
	for i := 0; i < opts.iterations; i++ {
		if err := ctx.Err(); err != nil {
			return benchResult{}, err
		}
		reorder(keys, i)
		el := benchList(keys)

		start := time.Now()
		s.rec.UpdateContainer(el, s.root)
		s.loop.RunUntilIdle()
		tach.AddTime(time.Since(start))

		if err := s.root.LastError(); err != nil {
			return benchResult{}, err
		}
	}

	stats := s.host.Stats()
	return benchResult{
		calc:    tach.Calc(),
		moves:   s.host.Count(memhost.OpInsert) + s.host.Count(memhost.OpAppend),
		created: stats.Created - created,
		ops:     stats.Mutations,
	}, nil
}

func benchList(keys []int) *element.Element {
	return element.Ul(element.Range(keys, func(k int, _ int) *element.Element {
		return element.Li(element.Key(k), strconv.Itoa(k))
	}))
}

// reorder permutes keys in place, cycling through a reverse, a rotation
// and a swap of the second and second to last entries.
func reorder(keys []int, i int) {
	n := len(keys)
	switch i % 3 {
	case 0:
		for l, r := 0, n-1; l < r; l, r = l+1, r-1 {
			keys[l], keys[r] = keys[r], keys[l]
		}
	case 1:
		first := keys[0]
		copy(keys, keys[1:])
		keys[n-1] = first
	default:
		keys[1], keys[n-2] = keys[n-2], keys[1]
	}
}
