package handler

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/iho/networth/internal/adapter/http/middleware"
	"github.com/iho/networth/internal/backup"
	"github.com/iho/networth/internal/domain"
	"github.com/iho/networth/internal/infrastructure/metrics"
)

// BackupRepository stores each user's latest backup document.
type BackupRepository interface {
	Put(ctx context.Context, userID string, document []byte, updatedAt time.Time) error
	Get(ctx context.Context, userID string) (*domain.StoredBackup, error)
}

// BackupHandler serves GET/PUT /api/backup.
type BackupHandler struct {
	backups  BackupRepository
	maxBytes int64
	metrics  *metrics.Metrics
}

// NewBackupHandler creates a new backup handler.
func NewBackupHandler(backups BackupRepository, maxBytes int64, m *metrics.Metrics) *BackupHandler {
	return &BackupHandler{backups: backups, maxBytes: maxBytes, metrics: m}
}

// Get returns the caller's stored backup document verbatim.
func (h *BackupHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	stored, err := h.backups.Get(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, mapDomainError(err), err.Error())
		return
	}

	if h.metrics != nil {
		h.metrics.BackupsDownloaded.Inc()
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Last-Modified", stored.UpdatedAt.UTC().Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)
	w.Write(stored.Document)
}

// Put stores the caller's backup document. The body must be a valid backup
// document: the schema tag is validated before anything is written, so a
// client cannot overwrite a good backup with garbage.
func (h *BackupHandler) Put(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, h.maxBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	if int64(len(body)) > h.maxBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "backup document too large")
		return
	}

	if _, err := backup.Decode(body); err != nil {
		writeError(w, mapDomainError(err), err.Error())
		return
	}

	if err := h.backups.Put(r.Context(), claims.UserID, body, time.Now().UTC()); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store backup")
		return
	}

	if h.metrics != nil {
		h.metrics.BackupsStored.Inc()
		h.metrics.BackupBytes.Observe(float64(len(body)))
	}
	w.WriteHeader(http.StatusNoContent)
}
