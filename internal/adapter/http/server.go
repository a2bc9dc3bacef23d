package http

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessChecker reports whether a component is ready to serve traffic.
type ReadinessChecker = sharedobs.ReadinessChecker

// Checks aggregates named readiness checkers. It is ready when all of them are.
type Checks map[string]ReadinessChecker

// CheckReadiness runs every check and returns the first failure by name order.
func (c Checks) CheckReadiness(ctx context.Context) error {
	for _, name := range c.names() {
		if err := c[name].CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (c Checks) names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c Checks) report(ctx context.Context) (map[string]string, bool) {
	out := make(map[string]string, len(c))
	ok := true
	for _, name := range c.names() {
		if err := c[name].CheckReadiness(ctx); err != nil {
			out[name] = err.Error()
			ok = false
			continue
		}
		out[name] = "ok"
	}
	return out, ok
}

// Server exposes health, readiness and metrics endpoints and mounts the
// calculation API under /api/.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates the HTTP server. api may be nil when only ops routes are wanted.
func NewServer(addr string, checks Checks, api http.Handler, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", handleReady(checks))
	mux.Handle("GET /metrics", promhttp.Handler())
	if api != nil {
		mux.Handle("/api/", api)
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func handleReady(checks Checks) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		report, ok := checks.report(ctx)
		if !ok {
			sharedobs.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status": "not ready",
				"checks": report,
			})
			return
		}
		sharedobs.WriteJSON(w, http.StatusOK, map[string]any{"status": "ready", "checks": report})
	}
}
