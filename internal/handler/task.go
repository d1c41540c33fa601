package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/focuspal/internal/catalog"
	"github.com/dukerupert/focuspal/internal/model"
	"github.com/dukerupert/focuspal/internal/recurrence"
	"github.com/dukerupert/focuspal/internal/schedule"
	"github.com/dukerupert/focuspal/internal/store"
	"github.com/dukerupert/focuspal/internal/tracker"
	"github.com/dukerupert/focuspal/internal/websocket"
)

// defaultReminderMinutes applies when a new task omits its reminder.
const defaultReminderMinutes = 5

type TaskHandler struct {
	tracker    *tracker.Service
	tasks      *store.TaskStore
	categories *store.CategoryStore
	events     Publisher
	logger     *slog.Logger
}

func NewTaskHandler(t *tracker.Service, ts *store.TaskStore, cats *store.CategoryStore, events Publisher, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tracker: t, tasks: ts, categories: cats, events: events, logger: logger}
}

type taskRequest struct {
	CategoryID            string               `json:"category_id"`
	Title                 string               `json:"title" validate:"required,max=100"`
	ScheduledDate         time.Time            `json:"scheduled_date" validate:"required"`
	DurationMinutes       int                  `json:"duration_minutes" validate:"min=0,max=1440"`
	RecurrenceRule        string               `json:"recurrence_rule"`
	ReminderMinutesBefore *int                 `json:"reminder_minutes_before" validate:"omitempty,min=0,max=1440"`
	CalendarSource        model.CalendarSource `json:"calendar_source" validate:"omitempty,oneof=app ios google"`
	ExternalCalendarID    string               `json:"external_calendar_id"`
	Notes                 string               `json:"notes" validate:"max=500"`
}

// apply copies the request onto t. The reminder is only changed when sent.
func (req taskRequest) apply(t *model.ScheduledTask) {
	t.CategoryID = req.CategoryID
	t.Title = strings.TrimSpace(req.Title)
	t.ScheduledDate = req.ScheduledDate
	t.DurationSeconds = int64(req.DurationMinutes) * 60
	t.RecurrenceRule = req.RecurrenceRule
	if req.ReminderMinutesBefore != nil {
		t.ReminderMinutesBefore = *req.ReminderMinutesBefore
	}
	t.CalendarSource = req.CalendarSource
	t.ExternalCalendarID = req.ExternalCalendarID
	t.Notes = req.Notes
}

// check validates the recurrence rule and that the category belongs to the
// child, writing the error response when it fails. A missing category is
// suggested from the title.
func (h *TaskHandler) check(w http.ResponseWriter, req *taskRequest, childID string) bool {
	if req.RecurrenceRule != "" {
		if _, err := recurrence.Parse(req.RecurrenceRule); err != nil {
			writeError(w, http.StatusBadRequest, "invalid recurrence_rule: "+err.Error())
			return false
		}
	}
	if req.CategoryID == "" {
		cats, err := h.categories.ListByChild(childID)
		if err != nil {
			h.logger.Error("list categories", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to save task")
			return false
		}
		c, ok := catalog.Suggest(req.Title, cats)
		if !ok {
			writeError(w, http.StatusBadRequest, "category_id is required")
			return false
		}
		req.CategoryID = c.ID
		return true
	}
	cat, err := h.categories.GetByID(req.CategoryID)
	if err != nil {
		h.logger.Error("get category", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save task")
		return false
	}
	if cat == nil || cat.ChildID != childID {
		writeError(w, http.StatusNotFound, "category not found")
		return false
	}
	return true
}

// List returns the child's task occurrences on ?date, or every task when
// no date is given.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	childID := r.PathValue("id")
	if r.URL.Query().Get("date") != "" {
		day, err := dateParam(r, "date", h.tracker.Location(), h.tracker.Now())
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date, use YYYY-MM-DD")
			return
		}
		occ, err := h.tracker.TasksForDate(childID, day)
		if err != nil {
			handleError(w, h.logger, err, "failed to list tasks")
			return
		}
		if occ == nil {
			occ = []schedule.Occurrence{}
		}
		writeJSON(w, http.StatusOK, occ)
		return
	}

	if _, err := h.tracker.Child(childID); err != nil {
		handleError(w, h.logger, err, "failed to list tasks")
		return
	}
	tasks, err := h.tasks.ListByChild(childID)
	if err != nil {
		handleError(w, h.logger, err, "failed to list tasks")
		return
	}
	if tasks == nil {
		tasks = []model.ScheduledTask{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	childID := r.PathValue("id")
	if _, err := h.tracker.Child(childID); err != nil {
		handleError(w, h.logger, err, "failed to create task")
		return
	}
	var req taskRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if !h.check(w, &req, childID) {
		return
	}

	t := model.ScheduledTask{ChildID: childID, ReminderMinutesBefore: defaultReminderMinutes}
	req.apply(&t)
	created, err := h.tasks.Create(t)
	if err != nil {
		handleError(w, h.logger, err, "failed to create task")
		return
	}

	h.events.Publish(websocket.EntityTask, websocket.ActionCreated, childID, created.ID, nil)
	writeJSON(w, http.StatusCreated, created)
}

func (h *TaskHandler) find(w http.ResponseWriter, r *http.Request) (*model.ScheduledTask, bool) {
	t, err := h.tasks.GetByID(r.PathValue("id"))
	if err != nil {
		h.logger.Error("get task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get task")
		return nil, false
	}
	if t == nil {
		writeError(w, http.StatusNotFound, "task not found")
		return nil, false
	}
	return t, true
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.find(w, r)
	if !ok {
		return
	}
	var req taskRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if !h.check(w, &req, existing.ChildID) {
		return
	}

	t := *existing
	req.apply(&t)
	updated, err := h.tasks.Update(t)
	if err != nil {
		handleError(w, h.logger, err, "failed to update task")
		return
	}

	h.events.Publish(websocket.EntityTask, websocket.ActionUpdated, updated.ChildID, updated.ID, nil)
	writeJSON(w, http.StatusOK, updated)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	t, ok := h.find(w, r)
	if !ok {
		return
	}
	if err := h.tasks.Delete(t.ID); err != nil {
		handleError(w, h.logger, err, "failed to delete task")
		return
	}

	h.events.Publish(websocket.EntityTask, websocket.ActionDeleted, t.ChildID, t.ID, nil)
	w.WriteHeader(http.StatusNoContent)
}

type completeRequest struct {
	Date      string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Completed *bool  `json:"completed"`
}

// Complete marks a task done, or undone with "completed": false. Recurring
// tasks are completed for the occurrence on date, defaulting to today.
func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if !decodeValid(w, r, &req) {
		return
	}
	day := h.tracker.Now()
	if req.Date != "" {
		var err error
		if day, err = time.ParseInLocation(dateLayout, req.Date, h.tracker.Location()); err != nil {
			writeError(w, http.StatusBadRequest, "invalid date, use YYYY-MM-DD")
			return
		}
	}

	t, err := h.tracker.CompleteTask(r.Context(), r.PathValue("id"), day, req.Completed == nil || *req.Completed)
	if err != nil {
		handleError(w, h.logger, err, "failed to complete task")
		return
	}
	writeJSON(w, http.StatusOK, t)
}
