package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/focuspal/internal/backup"
	"github.com/dukerupert/focuspal/internal/model"
	"github.com/dukerupert/focuspal/internal/websocket"
)

const defaultBackupListLimit = 20

type BackupHandler struct {
	manager *backup.Manager
	events  Publisher
	logger  *slog.Logger
}

func NewBackupHandler(m *backup.Manager, events Publisher, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{manager: m, events: events, logger: logger}
}

// List handles GET /api/backups?limit=N
func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultBackupListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}
	list, err := h.manager.List(limit)
	if err != nil {
		handleError(w, h.logger, err, "failed to list backups")
		return
	}
	if list == nil {
		list = []model.Backup{}
	}
	writeJSON(w, http.StatusOK, list)
}

// Status handles GET /api/backups/status
func (h *BackupHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.Status())
}

// Create handles POST /api/backups and runs a backup immediately.
func (h *BackupHandler) Create(w http.ResponseWriter, r *http.Request) {
	rec, err := h.manager.RunNow(r.Context())
	if err != nil {
		handleError(w, h.logger, err, "backup failed")
		return
	}
	h.events.Publish(websocket.EntityBackup, websocket.ActionCreated, "", strconv.FormatInt(rec.ID, 10), nil)
	writeJSON(w, http.StatusCreated, rec)
}

// Restore handles POST /api/backups/{id}/restore. The downloaded database
// is staged and replaces the live one on the next start.
func (h *BackupHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.manager.Restore(r.Context(), id); err != nil {
		handleError(w, h.logger, err, "restore failed")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":  "staged",
		"message": "restart FocusPal to finish restoring",
	})
}
