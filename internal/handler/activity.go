package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/focuspal/internal/daily"
	"github.com/dukerupert/focuspal/internal/model"
	"github.com/dukerupert/focuspal/internal/store"
	"github.com/dukerupert/focuspal/internal/tracker"
)

type ActivityHandler struct {
	tracker    *tracker.Service
	activities *store.ActivityStore
	logger     *slog.Logger
}

func NewActivityHandler(t *tracker.Service, as *store.ActivityStore, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{tracker: t, activities: as, logger: logger}
}

type activityRequest struct {
	CategoryID    string     `json:"category_id" validate:"required"`
	StartTime     time.Time  `json:"start_time" validate:"required"`
	EndTime       time.Time  `json:"end_time" validate:"required"`
	Notes         string     `json:"notes" validate:"max=500"`
	Mood          model.Mood `json:"mood" validate:"min=0,max=5"`
	IsManualEntry bool       `json:"is_manual_entry"`
	IsComplete    *bool      `json:"is_complete"`
}

func (req activityRequest) activity() model.Activity {
	return model.Activity{
		CategoryID:    req.CategoryID,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Notes:         req.Notes,
		Mood:          req.Mood,
		IsManualEntry: req.IsManualEntry,
		IsComplete:    req.IsComplete == nil || *req.IsComplete,
	}
}

// List returns a child's activities for ?date=YYYY-MM-DD, or for the
// half-open range ?from&to. Without parameters it lists today.
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	loc := h.tracker.Location()
	now := h.tracker.Now()

	var from, to time.Time
	q := r.URL.Query()
	if q.Get("from") != "" || q.Get("to") != "" {
		var err error
		if from, err = dateParam(r, "from", loc, now.AddDate(0, 0, -6)); err != nil {
			writeError(w, http.StatusBadRequest, "invalid from date, use YYYY-MM-DD")
			return
		}
		if to, err = dateParam(r, "to", loc, now); err != nil {
			writeError(w, http.StatusBadRequest, "invalid to date, use YYYY-MM-DD")
			return
		}
		from, _ = daily.Bounds(from)
		_, to = daily.Bounds(to)
	} else {
		day, err := dateParam(r, "date", loc, now)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date, use YYYY-MM-DD")
			return
		}
		from, to = daily.Bounds(day)
	}
	if !to.After(from) {
		writeError(w, http.StatusBadRequest, "to must not be before from")
		return
	}

	if _, err := h.tracker.Child(r.PathValue("id")); err != nil {
		handleError(w, h.logger, err, "failed to list activities")
		return
	}
	acts, err := h.activities.ListByChild(r.PathValue("id"), from, to)
	if err != nil {
		handleError(w, h.logger, err, "failed to list activities")
		return
	}
	if acts == nil {
		acts = []model.Activity{}
	}
	writeJSON(w, http.StatusOK, acts)
}

// Create records a finished or abandoned focus session and returns the
// points it earned along with any unlocks.
func (h *ActivityHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req activityRequest
	if !decodeValid(w, r, &req) {
		return
	}
	a := req.activity()
	a.ChildID = r.PathValue("id")

	res, err := h.tracker.RecordActivity(r.Context(), a)
	if err != nil {
		handleError(w, h.logger, err, "failed to record activity")
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *ActivityHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req activityRequest
	if !decodeValid(w, r, &req) {
		return
	}
	a := req.activity()
	a.ID = r.PathValue("id")
	a.SyncStatus = model.SyncStatusPending

	res, err := h.tracker.UpdateActivity(r.Context(), a)
	if err != nil {
		handleError(w, h.logger, err, "failed to update activity")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *ActivityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.tracker.DeleteActivity(r.Context(), r.PathValue("id")); err != nil {
		handleError(w, h.logger, err, "failed to delete activity")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
