package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/adfharrison1/go-db-index/pkg/api"
	"github.com/adfharrison1/go-db-index/pkg/config"
	"github.com/adfharrison1/go-db-index/pkg/indexing"
	"github.com/adfharrison1/go-db-index/pkg/logger"
	"github.com/adfharrison1/go-db-index/pkg/metrics"
	"github.com/adfharrison1/go-db-index/pkg/storage"
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

// Server holds references to storage, router, etc.
type Server struct {
	cfg        *config.Config
	router     *mux.Router
	engine     *storage.Engine
	registry   *indexing.Registry
	logger     logger.Logger
	metrics    *metrics.Metrics
	httpServer *http.Server
}

// NewServer opens the store described by cfg and wires the HTTP API over it
func NewServer(cfg *config.Config, log logger.Logger) (*Server, error) {
	if log == nil {
		log = logger.NewNop()
	}

	storageOptions, err := cfg.StorageOptions()
	if err != nil {
		return nil, err
	}
	storageOptions = append(storageOptions, storage.WithLogger(log.With(logger.String("component", "storage"))))

	engine, err := storage.NewEngine(storageOptions...)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	for _, db := range cfg.Storage.Databases {
		if engine.DatabaseExists(db) {
			continue
		}
		if err := engine.CreateDatabase(context.Background(), db); err != nil {
			engine.Close()
			return nil, fmt.Errorf("create database %s: %w", db, err)
		}
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(promRegistry)

	registry := indexing.NewRegistry(engine,
		indexing.WithLogger(log.With(logger.String("component", "indexing"))),
		indexing.WithMetrics(m),
		indexing.WithBulkConcurrency(cfg.Index.BulkConcurrency),
		indexing.WithMaxBulkDelete(cfg.Index.MaxBulkDelete),
	)

	s := &Server{
		cfg:      cfg,
		router:   mux.NewRouter().UseEncodedPath(),
		engine:   engine,
		registry: registry,
		logger:   log,
		metrics:  m,
	}
	s.httpServer = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	s.router.Handle("/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})).Methods("GET")
	api.NewHandler(registry, engine, log.With(logger.String("component", "api"))).RegisterRoutes(s.router)

	// Use the logging middleware for all routes
	s.router.Use(s.requestLoggerMiddleware)

	// Customize NotFoundHandler to log 404s
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Warn("No route found",
			logger.String("method", r.Method),
			logger.String("path", r.URL.EscapedPath()))
		api.WriteJSONError(w, http.StatusNotFound, "no route for "+r.Method+" "+r.URL.EscapedPath())
	})

	engine.StartBackgroundWorkers()
	return s, nil
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// requestLoggerMiddleware logs the method, path, status and duration of each
// request under a request id, and records the latency per route template.
func (s *Server) requestLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		route := "unmatched"
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		s.metrics.ObserveRequest(r.Method, route, strconv.Itoa(rec.status), elapsed)

		s.logger.Info("Request completed",
			logger.String("request_id", requestID),
			logger.String("method", r.Method),
			logger.String("path", r.URL.EscapedPath()),
			logger.String("route", route),
			logger.Int("status", rec.status),
			logger.Duration("duration", elapsed))
	})
}

// Router exposes the internal mux.Router.
func (s *Server) Router() http.Handler {
	return s.router
}

// Engine exposes the underlying store
func (s *Server) Engine() *storage.Engine {
	return s.engine
}

// Registry exposes the index registry
func (s *Server) Registry() *indexing.Registry {
	return s.registry
}

// ListenAndServe serves HTTP on the configured address until Shutdown is
// called, after which it returns http.ErrServerClosed. Calling it after
// Shutdown returns http.ErrServerClosed without listening.
func (s *Server) ListenAndServe() error {
	s.logger.Info("Starting go-db-index server",
		logger.String("addr", s.httpServer.Addr),
		logger.Bool("persistent", s.engine.Persistent()))
	return s.httpServer.ListenAndServe()
}

// Serve serves HTTP on an existing listener, with the same shutdown
// semantics as ListenAndServe
func (s *Server) Serve(l net.Listener) error {
	s.logger.Info("Starting go-db-index server",
		logger.String("addr", l.Addr().String()),
		logger.Bool("persistent", s.engine.Persistent()))
	return s.httpServer.Serve(l)
}

// Shutdown drains in-flight requests, then closes the store with a final
// checkpoint
func (s *Server) Shutdown(ctx context.Context) error {
	return errors.Join(s.httpServer.Shutdown(ctx), s.Close())
}

// Close closes the store without touching the HTTP listener
func (s *Server) Close() error {
	if err := s.engine.Close(); err != nil {
		s.logger.Error("Could not close storage", logger.Error(err))
		return err
	}
	stats := s.engine.GetStats()
	s.logger.Info("Storage closed",
		logger.Int64("checkpoints", stats.Checkpoints),
		logger.Int64("journal_entries", stats.JournalEntriesWritten))
	return nil
}
