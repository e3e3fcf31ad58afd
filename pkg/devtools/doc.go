// Package devtools serves a read-only inspection API for a running
// reconciler.
//
// Routes:
//
//	GET /roots                 pending lanes and last error of every root
//	GET /roots/{id}/tree       committed fiber tree as JSON
//	GET /roots/{id}/host       host tree as HTML (memhost only)
//	GET /roots/{id}/host.json  host tree as JSON (memhost only)
//	GET /metrics               Prometheus metrics
//	GET /ws                    stream of commit summaries
//
// Every request is traced with OpenTelemetry and, when Config.Registerer
// is set, counted by route and status class.
//
// Fiber trees are owned by the goroutine driving the scheduler, so tree
// snapshots are taken by submitting a task to that goroutine and waiting
// for it.
//
// Wire Publish as the reconciler's commit callback:
//
//	srv := devtools.New(loop, host, nil)
//	r := reconciler.New(host, loop, reconciler.WithOnCommit(srv.Publish))
//	srv.SetReconciler(r)
package devtools
