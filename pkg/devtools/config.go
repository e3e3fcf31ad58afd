package devtools

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config holds configuration for the devtools server.
type Config struct {
	// Address is the listen address for ListenAndServe.
	// Default: "localhost:7070".
	Address string

	// Logger receives connection and request diagnostics.
	// Default: slog.Default().
	Logger *slog.Logger

	// Gatherer backs /metrics.
	// Default: prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer

	// Registerer receives the server's own request and stream collectors.
	// Nil disables them.
	Registerer prometheus.Registerer

	// TracerName is the OpenTelemetry tracer used for request spans.
	// Default: DefaultTracerName.
	TracerName string

	// CheckOrigin validates websocket origins.
	// Default: SameOriginCheck.
	CheckOrigin func(r *http.Request) bool

	// ReadBufferSize and WriteBufferSize size the websocket buffers.
	ReadBufferSize  int
	WriteBufferSize int

	// WriteTimeout bounds one websocket write.
	// Default: 10s.
	WriteTimeout time.Duration

	// SnapshotTimeout bounds the wait for the scheduler goroutine to take a
	// tree snapshot.
	// Default: 2s.
	SnapshotTimeout time.Duration

	// ClientBuffer is the number of commit events queued per websocket
	// client before events are dropped for it.
	// Default: 64.
	ClientBuffer int

	// ShutdownTimeout bounds graceful shutdown in ListenAndServe.
	// Default: 5s.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Address:         "localhost:7070",
		Logger:          slog.Default(),
		Gatherer:        prometheus.DefaultGatherer,
		TracerName:      DefaultTracerName,
		CheckOrigin:     SameOriginCheck,
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		WriteTimeout:    10 * time.Second,
		SnapshotTimeout: 2 * time.Second,
		ClientBuffer:    64,
		ShutdownTimeout: 5 * time.Second,
	}
}

// withDefaults fills the zero fields of c from DefaultConfig.
func (c *Config) withDefaults() *Config {
	d := DefaultConfig()
	if c == nil {
		return d
	}
	out := *c
	if out.Address == "" {
		out.Address = d.Address
	}
	if out.Logger == nil {
		out.Logger = d.Logger
	}
	if out.Gatherer == nil {
		out.Gatherer = d.Gatherer
	}
	if out.TracerName == "" {
		out.TracerName = d.TracerName
	}
	if out.CheckOrigin == nil {
		out.CheckOrigin = d.CheckOrigin
	}
	if out.ReadBufferSize == 0 {
		out.ReadBufferSize = d.ReadBufferSize
	}
	if out.WriteBufferSize == 0 {
		out.WriteBufferSize = d.WriteBufferSize
	}
	if out.WriteTimeout == 0 {
		out.WriteTimeout = d.WriteTimeout
	}
	if out.SnapshotTimeout == 0 {
		out.SnapshotTimeout = d.SnapshotTimeout
	}
	if out.ClientBuffer == 0 {
		out.ClientBuffer = d.ClientBuffer
	}
	if out.ShutdownTimeout == 0 {
		out.ShutdownTimeout = d.ShutdownTimeout
	}
	return &out
}

// SameOriginCheck accepts websocket requests without an Origin header or
// whose Origin host matches the request host.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return r.Host != "" && originURL.Host == r.Host
}
