package main

import (
	"context"
	stderrors "errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/reconciler/pkg/devtools"
	"github.com/vango-dev/reconciler/pkg/element"
	"github.com/vango-dev/reconciler/pkg/reconciler"
)

func serveCmd(e *env) *cobra.Command {
	var (
		host string
		port int
		tick time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the demo app with the devtools server",
		Long: `Mount the demo app and serve the devtools inspection API:

  GET /roots                  mounted roots and their pending lanes
  GET /roots/{id}/tree        fiber tree snapshot
  GET /roots/{id}/host        host tree as HTML
  GET /roots/{id}/host.json   host tree as JSON
  GET /metrics                Prometheus metrics
  GET /ws                     live commit stream

With --tick the counter is clicked on an interval so the stream has
something to show.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := cmd.Flags()
			if fs.Changed("host") {
				e.cfg.Devtools.Host = host
			}
			if fs.Changed("port") {
				e.cfg.Devtools.Port = port
			}
			if err := e.cfg.Validate(); err != nil {
				return err
			}
			return runServe(cmd, e, tick)
		},
	}

	cmd.Flags().StringVar(&host, "host", "localhost", "host to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", 7070, "port to listen on")
	cmd.Flags().DurationVar(&tick, "tick", 0, "click the counter on this interval (0 disables)")

	return cmd
}

func runServe(cmd *cobra.Command, e *env, tick time.Duration) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := reconciler.NewMetrics(reconciler.WithRegistry(registry))

	var srv *devtools.Server
	s := newSession(e, nil,
		reconciler.WithMetrics(metrics),
		reconciler.WithOnCommit(func(info reconciler.CommitInfo) { srv.Publish(info) }),
		reconciler.WithOnRenderError(func(re reconciler.RenderError) {
			e.log.Error("render failed", "lane", re.Lane, "error", re.Err)
		}),
	)
	srv = devtools.New(s.loop, s.host, &devtools.Config{
		Address:    e.cfg.DevtoolsAddress(),
		Logger:     e.log.Logger,
		Gatherer:   registry,
		Registerer: registry,
		TracerName: e.cfg.Reconciler.TracerName + "/devtools",
	})
	srv.SetReconciler(s.rec)

	s.rec.UpdateContainer(element.New(demoApp), s.root)

	out := cmd.OutOrStdout()
	printBanner(out)
	success(out, "devtools on http://%s", e.cfg.DevtoolsAddress())
	info(out, "fiber tree  http://%s/roots/0/tree", e.cfg.DevtoolsAddress())
	info(out, "host tree   http://%s/roots/0/host", e.cfg.DevtoolsAddress())
	info(out, "commits     ws://%s/ws", e.cfg.DevtoolsAddress())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.loop.Run(ctx)
	})
	g.Go(func() error {
		return srv.ListenAndServe(ctx)
	})
	if tick > 0 {
		g.Go(func() error {
			t := time.NewTicker(tick)
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-t.C:
					s.loop.Submit(func() {
						if err := s.click("inc"); err != nil {
							e.log.Warn("tick", "error", err)
						}
					})
				}
			}
		})
	}

	err := g.Wait()
	if stderrors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
