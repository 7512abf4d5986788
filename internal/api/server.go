package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"grindvault/internal/backup"
	"grindvault/internal/config"
	"grindvault/internal/database"
)

// Server exposes the operational HTTP surface: manual backup trigger,
// snapshot restore upload, remote snapshot listing, health and metrics.
// Inbound authentication is out of scope and left to the deployment.
type Server struct {
	logger   *zap.Logger
	config   config.APIConfig
	router   *mux.Router
	server   *http.Server
	backup   *backup.Service
	remote   backup.RemoteStore
	store    *database.Store
	gatherer prometheus.Gatherer
}

// Response is the JSON envelope for every API reply.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Time    time.Time   `json:"time"`
}

// NewServer creates a new ops API server.
func NewServer(
	logger *zap.Logger,
	cfg config.APIConfig,
	service *backup.Service,
	remote backup.RemoteStore,
	store *database.Store,
	gatherer prometheus.Gatherer,
) *Server {
	s := &Server{
		logger:   logger,
		config:   cfg,
		backup:   service,
		remote:   remote,
		store:    store,
		gatherer: gatherer,
	}

	s.setupRoutes()
	return s
}

// Start begins serving; it returns immediately and logs serve errors.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.config.ListenAddr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting API server", zap.String("listen_addr", s.config.ListenAddr))

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("API server error", zap.Error(err))
		}
	}()

	return nil
}

// Shutdown gracefully stops the API server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")

	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Handler returns the root handler, used directly by tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.Use(s.loggingMiddleware)

	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/ops/backup", s.handleBackup).Methods(http.MethodGet)
	api.HandleFunc("/ops/restore", s.handleRestore).Methods(http.MethodPost)
	api.HandleFunc("/ops/snapshots", s.handleSnapshots).Methods(http.MethodGet)

	if s.gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
}

func (s *Server) respond(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{
		Success: true,
		Data:    data,
		Time:    time.Now().UTC(),
	})
}

func (s *Server) respondError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{
		Success: false,
		Error:   err.Error(),
		Time:    time.Now().UTC(),
	})
}
