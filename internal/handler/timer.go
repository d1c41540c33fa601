package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/focuspal/internal/timer"
)

type TimerHandler struct {
	timers *timer.Service
	logger *slog.Logger
}

func NewTimerHandler(t *timer.Service, logger *slog.Logger) *TimerHandler {
	return &TimerHandler{timers: t, logger: logger}
}

type startTimerRequest struct {
	CategoryID string `json:"category_id" validate:"required"`
	Minutes    int    `json:"minutes" validate:"min=0,max=240"`
}

type addTimeRequest struct {
	Minutes int `json:"minutes" validate:"required,min=1,max=120"`
}

type finishTimerRequest struct {
	IsComplete *bool `json:"is_complete"`
}

// List returns every child's active timer.
func (h *TimerHandler) List(w http.ResponseWriter, r *http.Request) {
	views, err := h.timers.List()
	if err != nil {
		handleError(w, h.logger, err, "failed to list timers")
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *TimerHandler) Get(w http.ResponseWriter, r *http.Request) {
	v, err := h.timers.Get(r.PathValue("id"))
	if err != nil {
		handleError(w, h.logger, err, "failed to load timer")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Start begins a countdown. Omitting minutes uses the category's
// recommended duration.
func (h *TimerHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startTimerRequest
	if !decodeValid(w, r, &req) {
		return
	}
	v, err := h.timers.Start(r.PathValue("id"), req.CategoryID, time.Duration(req.Minutes)*time.Minute)
	if err != nil {
		handleError(w, h.logger, err, "failed to start timer")
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (h *TimerHandler) Pause(w http.ResponseWriter, r *http.Request) {
	v, err := h.timers.Pause(r.PathValue("id"))
	if err != nil {
		handleError(w, h.logger, err, "failed to pause timer")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *TimerHandler) Resume(w http.ResponseWriter, r *http.Request) {
	v, err := h.timers.Resume(r.PathValue("id"))
	if err != nil {
		handleError(w, h.logger, err, "failed to resume timer")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *TimerHandler) AddTime(w http.ResponseWriter, r *http.Request) {
	var req addTimeRequest
	if !decodeValid(w, r, &req) {
		return
	}
	v, err := h.timers.AddTime(r.PathValue("id"), time.Duration(req.Minutes)*time.Minute)
	if err != nil {
		handleError(w, h.logger, err, "failed to extend timer")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Stop cancels the timer without logging an activity.
func (h *TimerHandler) Stop(w http.ResponseWriter, r *http.Request) {
	if err := h.timers.Stop(r.PathValue("id")); err != nil {
		handleError(w, h.logger, err, "failed to stop timer")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Finish ends the timer and logs it as an activity. is_complete defaults
// to true.
func (h *TimerHandler) Finish(w http.ResponseWriter, r *http.Request) {
	var req finishTimerRequest
	if !decodeValid(w, r, &req) {
		return
	}
	res, err := h.timers.Finish(r.Context(), r.PathValue("id"), req.IsComplete == nil || *req.IsComplete)
	if err != nil {
		handleError(w, h.logger, err, "failed to finish timer")
		return
	}
	writeJSON(w, http.StatusCreated, res)
}
