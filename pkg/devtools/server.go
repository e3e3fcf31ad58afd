package devtools

import (
	"context"
	stderrors "errors"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/reconciler/pkg/host/memhost"
	"github.com/vango-dev/reconciler/pkg/reconciler"
	"github.com/vango-dev/reconciler/pkg/scheduler"
)

// ErrSnapshotTimeout is returned when the scheduler goroutine did not take
// a snapshot in time.
var ErrSnapshotTimeout = stderrors.New("devtools: snapshot timed out")

// Runner runs fn on the goroutine that drives the reconciler.
type Runner interface {
	Submit(fn func()) *scheduler.Task
}

// RootInfo describes one root in /roots.
type RootInfo struct {
	ID           int    `json:"id"`
	PendingLanes string `json:"pendingLanes"`
	LastError    string `json:"lastError,omitempty"`
}

// CommitEvent is the message streamed on /ws after each commit.
type CommitEvent struct {
	Root      int       `json:"root"`
	Lane      string    `json:"lane"`
	Fibers    int       `json:"fibers"`
	Mutations int       `json:"mutations"`
	Deletions int       `json:"deletions"`
	Time      time.Time `json:"time"`
}

// Server is the devtools HTTP server.
type Server struct {
	config   *Config
	runner   Runner
	host     *memhost.Host
	upgrader websocket.Upgrader
	router   chi.Router

	rec atomic.Pointer[reconciler.Reconciler]

	mu      sync.Mutex
	clients map[*client]struct{}
	dropped atomic.Uint64

	metrics *httpMetrics
}

// New creates a devtools server. host may be nil, in which case the host
// routes answer 404.
func New(runner Runner, host *memhost.Host, config *Config) *Server {
	config = config.withDefaults()
	s := &Server{
		config: config,
		runner: runner,
		host:   host,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		clients: make(map[*client]struct{}),
		metrics: newHTTPMetrics(config.Registerer),
	}
	s.router = s.routes()
	return s
}

// SetReconciler sets the reconciler whose roots are inspected.
func (s *Server) SetReconciler(r *reconciler.Reconciler) {
	s.rec.Store(r)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)

	r.Get("/roots", s.handleRoots)
	r.Route("/roots/{id}", func(r chi.Router) {
		r.Get("/tree", s.handleTree)
		r.Get("/host", s.handleHostHTML)
		r.Get("/host.json", s.handleHostJSON)
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{}))
	r.Get("/ws", s.handleWebSocket)
	return r
}

func (s *Server) handleRoots(w http.ResponseWriter, r *http.Request) {
	rec := s.rec.Load()
	if rec == nil {
		writeJSON(w, http.StatusOK, []RootInfo{})
		return
	}
	roots := rec.Roots()
	out := make([]RootInfo, len(roots))
	for i, root := range roots {
		out[i] = RootInfo{ID: i, PendingLanes: root.PendingLanes().String()}
		if err := root.LastError(); err != nil {
			out[i].LastError = err.Error()
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// root resolves the {id} URL parameter, writing a 404 when it is unknown.
func (s *Server) root(w http.ResponseWriter, r *http.Request) (*reconciler.FiberRoot, bool) {
	rec := s.rec.Load()
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if rec == nil || err != nil {
		http.NotFound(w, r)
		return nil, false
	}
	roots := rec.Roots()
	if id < 0 || id >= len(roots) {
		http.NotFound(w, r)
		return nil, false
	}
	return roots[id], true
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	root, ok := s.root(w, r)
	if !ok {
		return
	}
	tree, err := s.Snapshot(r.Context(), root)
	if err != nil {
		s.config.Logger.Warn("tree snapshot failed", "error", err)
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

// Snapshot takes a snapshot of root's committed tree on the scheduler
// goroutine.
func (s *Server) Snapshot(ctx context.Context, root *reconciler.FiberRoot) (*reconciler.FiberNode, error) {
	done := make(chan *reconciler.FiberNode, 1)
	s.runner.Submit(func() {
		done <- root.Snapshot()
	})

	timer := time.NewTimer(s.config.SnapshotTimeout)
	defer timer.Stop()
	select {
	case tree := <-done:
		return tree, nil
	case <-timer.C:
		return nil, ErrSnapshotTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Server) hostNode(w http.ResponseWriter, r *http.Request) (*memhost.Node, bool) {
	root, ok := s.root(w, r)
	if !ok {
		return nil, false
	}
	node, isNode := root.Container.(*memhost.Node)
	if s.host == nil || !isNode {
		http.NotFound(w, r)
		return nil, false
	}
	return node, true
}

func (s *Server) handleHostHTML(w http.ResponseWriter, r *http.Request) {
	node, ok := s.hostNode(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(s.host.HTML(node)))
}

func (s *Server) handleHostJSON(w http.ResponseWriter, r *http.Request) {
	node, ok := s.hostNode(w, r)
	if !ok {
		return
	}
	data, err := s.host.JSON(node)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// ListenAndServe serves on Config.Address until ctx is done, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Address,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.config.Logger.Info("devtools listening", "address", s.config.Address)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	s.closeClients()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
