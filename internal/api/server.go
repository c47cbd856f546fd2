package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/meetscribe/ms-engine/internal/config"
	"github.com/meetscribe/ms-engine/internal/database"
	"github.com/meetscribe/ms-engine/internal/events"
	"github.com/meetscribe/ms-engine/internal/gateway"
	"github.com/meetscribe/ms-engine/internal/metrics"
	"github.com/meetscribe/ms-engine/internal/storage"
)

type Server struct {
	http *http.Server
	log  zerolog.Logger
}

// Deps carries the wired components the server exposes over HTTP.
type Deps struct {
	DB       *database.DB
	Store    storage.ObjectStore
	Gateway  *gateway.Gateway
	Bus      *events.EventBus
	Provider string
	Version  string
}

func NewServer(cfg *config.Config, deps Deps, startTime time.Time, log zerolog.Logger) *Server {
	r := chi.NewRouter()

	// Global middleware
	r.Use(RequestID)
	r.Use(Recoverer)
	r.Use(Logger(log))
	r.Use(CORS)
	r.Use(metrics.InstrumentHandler)

	// Health and metrics — no auth
	health := NewHealthHandler(deps.DB, deps.Store, deps.Provider, deps.Version, startTime)
	r.Get("/api/v1/health", health.ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())

	// Authenticated routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(BearerAuth(cfg.AuthToken))

		NewProcessHandler(deps.Gateway).Routes(r)
		if deps.DB != nil {
			NewTranscriptionsHandler(deps.DB).Routes(r)
		}
		if deps.Bus != nil {
			NewEventsHandler(deps.Bus).Routes(r)
		}
	})

	return &Server{
		http: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      r,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		log: log,
	}
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("http server starting")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http server shutting down")
	return s.http.Shutdown(ctx)
}
