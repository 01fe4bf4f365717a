// Package health exposes lightweight HTTP endpoints for container probes.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"repost_cleaner_bot/internal/logging"
)

const (
	storagePingTimeout = 2 * time.Second
	readHeaderTimeout  = 2 * time.Second
	healthListenPrefix = ":"
)

// StorageChecker reports whether the document storage is reachable.
type StorageChecker interface {
	Ping(ctx context.Context) error
}

// Server hosts the health endpoints and owns the underlying HTTP server.
type Server struct {
	server  *http.Server
	logger  *logrus.Entry
	storage StorageChecker
}

type response struct {
	Status  string `json:"status"`
	Storage string `json:"storage,omitempty"`
}

// NewServer constructs a health server that exposes GET /healthz and GET /ping
// on the provided port.
func NewServer(port int, storage StorageChecker, logger *logrus.Entry) *Server {
	if logger == nil {
		logger = logging.Logger()
	}

	srv := &Server{
		logger:  logger,
		storage: storage,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", srv.handleHealth)
	mux.HandleFunc("GET /ping", srv.handlePing)

	srv.server = &http.Server{
		Addr:              fmt.Sprintf("%s%d", healthListenPrefix, port),
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	return srv
}

// ListenAndServe starts the health server and blocks until shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.WithFields(logging.Fields{
		"event": "health_listen",
		"addr":  s.server.Addr,
	}).Info("starting health server")

	if err := s.server.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			s.logger.WithField("event", "health_stopped").Info("health server stopped")
			return nil
		}

		return fmt.Errorf("health server listen: %w", err)
	}

	s.logger.WithField("event", "health_stopped").Info("health server stopped")
	return nil
}

// Shutdown gracefully stops the health server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}

	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := response{Status: "ok"}

	if s.storage == nil {
		resp.Status = "degraded"
		resp.Storage = "error"
		s.logger.WithField("event", "health_storage_missing").Warn("storage checker is not configured for health endpoint")
	} else {
		pingCtx, cancel := context.WithTimeout(r.Context(), storagePingTimeout)
		err := s.storage.Ping(pingCtx)
		cancel()

		if err != nil {
			resp.Status = "degraded"
			resp.Storage = "error"
			s.logger.WithField("event", "health_storage_error").WithError(err).Warn("storage ping failed during health check")
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.WithField("event", "health_write_error").WithError(err).Error("failed to encode health response")
	}
}

func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := io.WriteString(w, "pong"); err != nil {
		s.logger.WithField("event", "health_write_error").WithError(err).Error("failed to write ping response")
	}
}
