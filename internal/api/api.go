package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"chatbot-backend/internal/api/middleware"
	"chatbot-backend/internal/database"
	"chatbot-backend/internal/lib/sl"
	"chatbot-backend/internal/queue"

	"github.com/prometheus/client_golang/prometheus"
)

type RouteRegistrar func(mux *http.ServeMux, s *APIServer)

type APIServer struct {
	listenAddr          string
	requestQueueManager *queue.RequestQueueManager
	db                  *database.Database
	routeRegistrars     []RouteRegistrar
	log                 *slog.Logger
	cors                middleware.CORSConfig
	metrics             *httpMetrics
}

type Option func(*APIServer)

func WithLogger(log *slog.Logger) Option {
	return func(s *APIServer) {
		if log != nil {
			s.log = log
		}
	}
}

func WithAllowedOrigins(origins ...string) Option {
	return func(s *APIServer) {
		if len(origins) > 0 {
			s.cors.AllowedOrigins = origins
		}
	}
}

func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *APIServer) {
		s.metrics = newMetrics(reg, s.listenAddr, s.requestQueueManager)
	}
}

func NewAPIServer(listenAddr string, rqm *queue.RequestQueueManager, db *database.Database, registrars []RouteRegistrar, opts ...Option) *APIServer {
	s := &APIServer{
		listenAddr:          listenAddr,
		requestQueueManager: rqm,
		db:                  db,
		routeRegistrars:     registrars,
		log:                 slog.Default(),
		cors: middleware.CORSConfig{
			AllowedOrigins:   []string{"http://localhost:3000"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS", "DELETE"},
			AllowedHeaders:   []string{"Content-Type", "X-Requested-With", "Authorization", "X-Request-ID"},
			AllowCredentials: true,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = newMetrics(prometheus.DefaultRegisterer, listenAddr, rqm)
	}
	s.log = s.log.With(sl.Module("api"), slog.String("listen_addr", listenAddr))
	return s
}

// Handler builds the instrumented mux with every registered route.
func (s *APIServer) Handler() http.Handler {
	mux := http.NewServeMux()

	for _, reg := range s.routeRegistrars {
		reg(mux, s)
	}

	mux.Handle("/metrics", s.metrics.handler())

	return s.metrics.instrument(mux)
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *APIServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.listenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("server listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("server stopped")
	return nil
}

func (s *APIServer) Database() *database.Database {
	return s.db
}

func (s *APIServer) Logger() *slog.Logger {
	return s.log
}
