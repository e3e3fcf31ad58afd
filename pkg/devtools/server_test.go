package devtools

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/reconciler/pkg/element"
	"github.com/vango-dev/reconciler/pkg/host/memhost"
	"github.com/vango-dev/reconciler/pkg/reconciler"
	"github.com/vango-dev/reconciler/pkg/scheduler"
)

type fixture struct {
	reg  *prometheus.Registry
	srv  *Server
	http *httptest.Server
	rec  *reconciler.Reconciler
	host *memhost.Host
	root *reconciler.FiberRoot
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()

	loop := scheduler.New(scheduler.WithLogger(logger))
	h := memhost.New(memhost.WithMicrotasks(loop.QueueMicrotask), memhost.WithLogger(logger))
	srv := New(loop, h, &Config{Logger: logger, Gatherer: reg, Registerer: reg})
	rec := reconciler.New(h, loop,
		reconciler.WithLogger(logger),
		reconciler.WithMetrics(reconciler.NewMetrics(reconciler.WithRegistry(reg))),
		reconciler.WithOnCommit(srv.Publish),
	)
	srv.SetReconciler(rec)
	root := rec.CreateContainer(h.NewContainer())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = loop.Run(ctx)
	}()

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.closeClients()
		ts.Close()
		cancel()
		<-done
	})
	return &fixture{reg: reg, srv: srv, http: ts, rec: rec, host: h, root: root}
}

func (f *fixture) get(t *testing.T, path string) (int, string) {
	t.Helper()
	resp, err := http.Get(f.http.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func (f *fixture) renderAndWait(t *testing.T, el *element.Element, wantHTML string) {
	t.Helper()
	f.rec.UpdateContainer(el, f.root)
	require.Eventually(t, func() bool {
		_, body := f.get(t, "/roots/0/host")
		return body == wantHTML
	}, 2*time.Second, 5*time.Millisecond)
}

func TestRootsEndpoint(t *testing.T) {
	f := newFixture(t)
	f.renderAndWait(t, element.P("hello"), "<p>hello</p>")

	status, body := f.get(t, "/roots")
	require.Equal(t, http.StatusOK, status)

	var roots []RootInfo
	require.NoError(t, json.Unmarshal([]byte(body), &roots))
	require.Len(t, roots, 1)
	assert.Equal(t, 0, roots[0].ID)
	assert.Equal(t, "NoLane", roots[0].PendingLanes)
	assert.Empty(t, roots[0].LastError)
}

func TestTreeEndpoint(t *testing.T) {
	f := newFixture(t)
	f.renderAndWait(t, element.Ul(element.Li(element.Key("a"), "A")), "<ul><li>A</li></ul>")

	status, body := f.get(t, "/roots/0/tree")
	require.Equal(t, http.StatusOK, status)

	var tree reconciler.FiberNode
	require.NoError(t, json.Unmarshal([]byte(body), &tree))
	assert.Equal(t, "HostRoot", tree.Tag)
	require.Len(t, tree.Children, 1)
	ul := tree.Children[0]
	assert.Equal(t, "ul", ul.Type)
	require.Len(t, ul.Children, 1)
	assert.Equal(t, "a", ul.Children[0].Key)
}

func TestUnknownRoot(t *testing.T) {
	f := newFixture(t)

	for _, path := range []string{"/roots/7/tree", "/roots/x/host", "/roots/-1/host.json"} {
		status, _ := f.get(t, path)
		assert.Equal(t, http.StatusNotFound, status, path)
	}
}

func TestHostJSON(t *testing.T) {
	f := newFixture(t)
	f.renderAndWait(t, element.Div(element.ID("x")), `<div id="x"></div>`)

	status, body := f.get(t, "/roots/0/host.json")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"div"`)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	f.renderAndWait(t, element.Span("m"), "<span>m</span>")

	status, body := f.get(t, "/metrics")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "reconciler_commits_total")
}

// requestCount returns reconciler_devtools_requests_total for a route and
// status class.
func (f *fixture) requestCount(t *testing.T, route, status string) float64 {
	t.Helper()
	families, err := f.reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "reconciler_devtools_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["route"] == route && labels["status"] == status {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestRequestMetrics(t *testing.T) {
	f := newFixture(t)

	f.get(t, "/roots")
	f.get(t, "/roots")
	f.get(t, "/roots/9/tree")
	f.get(t, "/nope")

	require.Eventually(t, func() bool {
		return f.requestCount(t, "/roots", "2xx") == 2 &&
			f.requestCount(t, "/roots/{id}/tree", "4xx") == 1 &&
			f.requestCount(t, "unmatched", "4xx") == 1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestStatusClass(t *testing.T) {
	tests := map[int]string{
		200: "2xx",
		101: "1xx",
		404: "4xx",
		503: "5xx",
		0:   "unknown",
		700: "unknown",
	}
	for code, want := range tests {
		if got := statusClass(code); got != want {
			t.Errorf("statusClass(%d) = %q, want %q", code, got, want)
		}
	}
}

func TestCommitStream(t *testing.T) {
	f := newFixture(t)

	url := "ws" + strings.TrimPrefix(f.http.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return f.srv.Clients() == 1 }, time.Second, 5*time.Millisecond)

	f.rec.UpdateContainer(element.Em("live"), f.root)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev CommitEvent
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, 0, ev.Root)
	assert.Equal(t, "Default", ev.Lane)
	assert.Equal(t, 1, ev.Mutations)
}

func TestSameOriginCheck(t *testing.T) {
	tests := []struct {
		name   string
		origin string
		host   string
		want   bool
	}{
		{"no origin", "", "localhost:7070", true},
		{"same host", "http://localhost:7070", "localhost:7070", true},
		{"other host", "http://evil.example", "localhost:7070", false},
		{"bad origin", "://", "localhost:7070", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/ws", nil)
			r.Host = tt.host
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			if got := SameOriginCheck(r); got != tt.want {
				t.Errorf("SameOriginCheck = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSnapshotTimeout(t *testing.T) {
	// A loop that is never driven cannot take the snapshot.
	loop := scheduler.New()
	srv := New(loop, nil, &Config{SnapshotTimeout: 10 * time.Millisecond})
	rec := reconciler.New(memhost.New(), loop)
	root := rec.CreateContainer(nil)

	_, err := srv.Snapshot(context.Background(), root)
	assert.ErrorIs(t, err, ErrSnapshotTimeout)
}
