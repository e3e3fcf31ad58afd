package devtools

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTracerName is the tracer used for request spans when none is
// configured.
const DefaultTracerName = "github.com/vango-dev/reconciler/devtools"

// httpMetrics holds the devtools server collectors.
type httpMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	streamClients   prometheus.Gauge
	droppedEvents   prometheus.Counter
}

func newHTTPMetrics(reg prometheus.Registerer) *httpMetrics {
	if reg == nil {
		return nil
	}
	factory := promauto.With(reg)

	return &httpMetrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reconciler",
			Subsystem: "devtools",
			Name:      "requests_total",
			Help:      "Devtools HTTP requests by route and status class",
		}, []string{"route", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "reconciler",
			Subsystem: "devtools",
			Name:      "request_duration_seconds",
			Help:      "Devtools HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),

		streamClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "reconciler",
			Subsystem: "devtools",
			Name:      "stream_clients",
			Help:      "Connected commit stream clients",
		}),

		droppedEvents: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "reconciler",
			Subsystem: "devtools",
			Name:      "stream_dropped_events_total",
			Help:      "Commit events dropped for slow stream clients",
		}),
	}
}

func (m *httpMetrics) request(route string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(route).Observe(seconds)
	m.requestsTotal.WithLabelValues(route, statusClass(status)).Inc()
}

func (m *httpMetrics) clients(delta int) {
	if m == nil {
		return
	}
	m.streamClients.Add(float64(delta))
}

func (m *httpMetrics) dropped() {
	if m == nil {
		return
	}
	m.droppedEvents.Inc()
}

// statusClass maps a status code to 2xx, 4xx and so on, keeping label
// cardinality bounded.
func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return fmt.Sprintf("%dxx", status/100)
}

// routePattern returns the chi pattern that served r. It is only complete
// once routing has finished.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// instrument traces and measures every request, then logs it at debug
// level.
func (s *Server) instrument(next http.Handler) http.Handler {
	tracer := otel.Tracer(s.config.TracerName)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx, span := tracer.Start(r.Context(), "devtools "+r.Method,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.target", r.URL.Path),
			),
		)
		defer span.End()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		r = r.WithContext(ctx)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			// Hijacked websocket connections never write a status.
			status = http.StatusSwitchingProtocols
		}
		route := routePattern(r)
		elapsed := time.Since(start)

		span.SetName("devtools " + r.Method + " " + route)
		span.SetAttributes(
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
		)
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}

		s.metrics.request(route, status, elapsed.Seconds())
		s.config.Logger.Debug("devtools request",
			"method", r.Method,
			"route", route,
			"status", status,
			"duration", elapsed,
		)
	})
}
