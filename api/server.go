// Package api exposes liveness, readiness and Prometheus metrics over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"streamingapp/storage"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// ReadinessReporter reports the state of the shared database connection
type ReadinessReporter interface {
	State() storage.ReadyState
}

// Server holds the health and metrics HTTP server
type Server struct {
	router    *mux.Router
	addr      string
	readiness ReadinessReporter
	logger    *zap.SugaredLogger

	mu     sync.Mutex
	server *http.Server
}

// NewServer creates a new Server listening on addr once started
func NewServer(addr string, readiness ReadinessReporter, logger *zap.SugaredLogger) *Server {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	s := &Server{
		router:    mux.NewRouter(),
		addr:      addr,
		readiness: readiness,
		logger:    logger,
	}
	s.setupRoutes()
	return s
}

// setupRoutes sets up the server routes
func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.HandleFunc("/health", s.healthCheck).Methods("GET")
	s.router.HandleFunc("/health/ready", s.readinessCheck).Methods("GET")
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
}

// Handler returns the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Stop is called. It returns nil after a clean shutdown.
func (s *Server) Start() error {
	s.mu.Lock()
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	server := s.server
	s.mu.Unlock()

	s.logger.Infow("Health server listening", "addr", s.addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	server := s.server
	s.mu.Unlock()
	if server != nil {
		return server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// readinessCheck reports 200 only while the database connection is established
func (s *Server) readinessCheck(w http.ResponseWriter, r *http.Request) {
	state := storage.StateDisconnected
	if s.readiness != nil {
		state = s.readiness.State()
	}

	status := http.StatusOK
	if !state.IsReady() {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"state": state.String(),
		"ready": state.IsReady(),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
