package api

import (
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"grindvault/internal/backup"
)

// maxRestoreUpload caps the accepted snapshot upload size.
const maxRestoreUpload = 32 << 20 // 32 MiB

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.respondError(w, http.StatusServiceUnavailable, fmt.Errorf("database unreachable: %w", err))
		return
	}

	s.respond(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"backup_enabled": s.backup.Enabled(),
	})
}

func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("Manual backup triggered via API")

	s.backup.RunCycle(r.Context(), backup.ReasonManualAPI)

	// The cycle swallows its own failures; the outcome lives in the logs.
	s.respond(w, http.StatusOK, "Backup triggered successfully")
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRestoreUpload)

	if err := r.ParseMultipartForm(maxRestoreUpload); err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Errorf("invalid multipart upload: %w", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Errorf("missing snapshot file: %w", err))
		return
	}
	defer file.Close()

	s.logger.Info("JSON restore requested",
		zap.String("file", header.Filename),
		zap.Int64("size", header.Size),
	)

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Errorf("failed to read upload: %w", err))
		return
	}

	result, err := s.backup.Restore(r.Context(), data)
	if err != nil {
		s.respondError(w, http.StatusUnprocessableEntity, fmt.Errorf("restore failed: %w", err))
		return
	}

	s.respond(w, http.StatusOK, result.Message())
}

func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	snapshots, err := s.remote.ListSnapshots(r.Context())
	if err != nil {
		s.respondError(w, http.StatusBadGateway, fmt.Errorf("failed to list snapshots: %w", err))
		return
	}

	s.respond(w, http.StatusOK, snapshots)
}
