// Package httpadapter serves the ops endpoints: liveness, readiness, metrics,
// a summary of the current dataset and a manual reload trigger. It never
// serves records.
package httpadapter

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/fishing-map-etl/internal/domain"
	"github.com/couchcryptid/fishing-map-etl/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Loader is the part of pipeline.Loader the server needs.
type Loader interface {
	sharedobs.ReadinessChecker
	Current() (domain.Dataset, bool)
	Load(ctx context.Context) (domain.Dataset, error)
}

// Status summarizes the current dataset.
type Status struct {
	Loaded   bool       `json:"loaded"`
	Source   string     `json:"source,omitempty"`
	Fallback string     `json:"fallback,omitempty"`
	Records  int        `json:"records"`
	Caught   int        `json:"caught"`
	LoadedAt *time.Time `json:"loaded_at,omitempty"`
}

// Server exposes ops HTTP endpoints.
type Server struct {
	httpServer *http.Server
	loader     Loader
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, /status
// and /reload routes.
func NewServer(addr string, loader Loader, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			// A reload may run every fetch attempt before it answers.
			WriteTimeout: 90 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		loader: loader,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(loader))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("POST /reload", s.handleReload)

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

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	ds, ok := s.loader.Current()
	sharedobs.WriteJSON(w, http.StatusOK, statusOf(ds, ok))
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	ds, err := s.loader.Load(r.Context())
	switch {
	case errors.Is(err, pipeline.ErrLoadInProgress):
		sharedobs.WriteJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	case err != nil:
		s.logger.Warn("manual reload aborted", "error", err)
		sharedobs.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	s.logger.Info("manual reload", "source", ds.Source, "records", len(ds.Records))
	sharedobs.WriteJSON(w, http.StatusOK, statusOf(ds, true))
}

func statusOf(ds domain.Dataset, loaded bool) Status {
	if !loaded {
		return Status{}
	}
	loadedAt := ds.LoadedAt
	return Status{
		Loaded:   true,
		Source:   ds.Source,
		Fallback: ds.Fallback,
		Records:  len(ds.Records),
		Caught:   ds.Caught,
		LoadedAt: &loadedAt,
	}
}
