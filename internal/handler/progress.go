package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/focuspal/internal/daily"
	"github.com/dukerupert/focuspal/internal/model"
	"github.com/dukerupert/focuspal/internal/store"
	"github.com/dukerupert/focuspal/internal/timegoal"
	"github.com/dukerupert/focuspal/internal/tracker"
	"github.com/dukerupert/focuspal/internal/websocket"
)

// ProgressHandler serves the read models derived from activities: day
// views, streaks, points, achievements, goals, rewards and summaries.
type ProgressHandler struct {
	tracker    *tracker.Service
	goals      *store.TimeGoalStore
	categories *store.CategoryStore
	events     Publisher
	logger     *slog.Logger
}

func NewProgressHandler(t *tracker.Service, goals *store.TimeGoalStore, cats *store.CategoryStore, events Publisher, logger *slog.Logger) *ProgressHandler {
	return &ProgressHandler{tracker: t, goals: goals, categories: cats, events: events, logger: logger}
}

// Today returns the day view for ?date, defaulting to today.
func (h *ProgressHandler) Today(w http.ResponseWriter, r *http.Request) {
	day, err := dateParam(r, "date", h.tracker.Location(), h.tracker.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, use YYYY-MM-DD")
		return
	}
	sum, err := h.tracker.Day(r.PathValue("id"), day)
	if err != nil {
		handleError(w, h.logger, err, "failed to load day")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// Balance scores how evenly ?date's minutes are spread across categories.
func (h *ProgressHandler) Balance(w http.ResponseWriter, r *http.Request) {
	day, err := dateParam(r, "date", h.tracker.Location(), h.tracker.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, use YYYY-MM-DD")
		return
	}
	sum, err := h.tracker.Day(r.PathValue("id"), day)
	if err != nil {
		handleError(w, h.logger, err, "failed to load day")
		return
	}
	writeJSON(w, http.StatusOK, daily.BalanceScore(sum))
}

func (h *ProgressHandler) Streak(w http.ResponseWriter, r *http.Request) {
	st, err := h.tracker.Streak(r.PathValue("id"))
	if err != nil {
		handleError(w, h.logger, err, "failed to compute streak")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *ProgressHandler) FamilyStreak(w http.ResponseWriter, r *http.Request) {
	st, err := h.tracker.FamilyStreak()
	if err != nil {
		handleError(w, h.logger, err, "failed to compute streak")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *ProgressHandler) Points(w http.ResponseWriter, r *http.Request) {
	o, err := h.tracker.Points(r.PathValue("id"))
	if err != nil {
		handleError(w, h.logger, err, "failed to load points")
		return
	}
	if o.Transactions == nil {
		o.Transactions = []model.PointsTransaction{}
	}
	writeJSON(w, http.StatusOK, o)
}

type adjustRequest struct {
	Amount int                `json:"amount" validate:"required,ne=0"`
	Reason model.PointsReason `json:"reason" validate:"required,oneof=beat_average_bonus early_finish_bonus weekly_reward three_strike_penalty"`
}

// Adjust awards (positive amount) or deducts (negative amount) points
// outside of an activity.
func (h *ProgressHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if !decodeValid(w, r, &req) {
		return
	}
	childID := r.PathValue("id")

	var (
		day *model.ChildPoints
		err error
	)
	if req.Amount > 0 {
		day, err = h.tracker.Award(r.Context(), childID, req.Amount, req.Reason)
	} else {
		day, err = h.tracker.Deduct(r.Context(), childID, -req.Amount, req.Reason)
	}
	if err != nil {
		handleError(w, h.logger, err, "failed to adjust points")
		return
	}
	writeJSON(w, http.StatusOK, day)
}

func (h *ProgressHandler) Achievements(w http.ResponseWriter, r *http.Request) {
	results, err := h.tracker.Achievements(r.PathValue("id"))
	if err != nil {
		handleError(w, h.logger, err, "failed to load achievements")
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *ProgressHandler) TimeGoals(w http.ResponseWriter, r *http.Request) {
	childID := r.PathValue("id")
	if _, err := h.tracker.Child(childID); err != nil {
		handleError(w, h.logger, err, "failed to list time goals")
		return
	}
	goals, err := h.goals.ListByChild(childID)
	if err != nil {
		handleError(w, h.logger, err, "failed to list time goals")
		return
	}
	if goals == nil {
		goals = []model.TimeGoal{}
	}
	writeJSON(w, http.StatusOK, goals)
}

type timeGoalRequest struct {
	CategoryID         string `json:"category_id" validate:"required"`
	RecommendedMinutes int    `json:"recommended_minutes" validate:"required,min=1,max=1440"`
	WarningThreshold   int    `json:"warning_threshold" validate:"omitempty,min=1,max=100"`
	IsActive           *bool  `json:"is_active"`
}

// PutTimeGoal creates or replaces the goal for one of the child's categories.
func (h *ProgressHandler) PutTimeGoal(w http.ResponseWriter, r *http.Request) {
	childID := r.PathValue("id")
	if _, err := h.tracker.Child(childID); err != nil {
		handleError(w, h.logger, err, "failed to save time goal")
		return
	}
	var req timeGoalRequest
	if !decodeValid(w, r, &req) {
		return
	}
	cat, err := h.categories.GetByID(req.CategoryID)
	if err != nil {
		handleError(w, h.logger, err, "failed to save time goal")
		return
	}
	if cat == nil || cat.ChildID != childID {
		writeError(w, http.StatusNotFound, "category not found")
		return
	}

	goal, err := h.goals.Upsert(model.TimeGoal{
		ChildID:            childID,
		CategoryID:         cat.ID,
		RecommendedMinutes: req.RecommendedMinutes,
		WarningThreshold:   req.WarningThreshold,
		IsActive:           req.IsActive == nil || *req.IsActive,
	})
	if err != nil {
		handleError(w, h.logger, err, "failed to save time goal")
		return
	}

	h.events.Publish(websocket.EntityTimeGoal, websocket.ActionUpdated, childID, goal.ID, nil)
	writeJSON(w, http.StatusOK, goal)
}

func (h *ProgressHandler) TimeGoalStatus(w http.ResponseWriter, r *http.Request) {
	evals, err := h.tracker.TimeGoalStatus(r.PathValue("id"))
	if err != nil {
		handleError(w, h.logger, err, "failed to evaluate time goals")
		return
	}
	if evals == nil {
		evals = []timegoal.Evaluation{}
	}
	writeJSON(w, http.StatusOK, evals)
}

func (h *ProgressHandler) Rewards(w http.ResponseWriter, r *http.Request) {
	o, err := h.tracker.Rewards(r.PathValue("id"))
	if err != nil {
		handleError(w, h.logger, err, "failed to load rewards")
		return
	}
	if o.Weeks == nil {
		o.Weeks = []model.WeeklyReward{}
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *ProgressHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	rw, err := h.tracker.Redeem(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, h.logger, err, "failed to redeem reward")
		return
	}
	writeJSON(w, http.StatusOK, rw)
}

// WeeklySummary summarizes the week containing ?week, defaulting to this week.
func (h *ProgressHandler) WeeklySummary(w http.ResponseWriter, r *http.Request) {
	weekOf, err := dateParam(r, "week", h.tracker.Location(), h.tracker.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid week, use YYYY-MM-DD")
		return
	}
	sum, err := h.tracker.WeeklySummary(r.PathValue("id"), weekOf)
	if err != nil {
		handleError(w, h.logger, err, "failed to build weekly summary")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// Widget serves the home-screen snapshot. Without a child in the path it
// uses ?child, falling back to the first profile.
func (h *ProgressHandler) Widget(w http.ResponseWriter, r *http.Request) {
	childID := r.PathValue("id")
	if childID == "" {
		childID = r.URL.Query().Get("child")
	}
	snap, err := h.tracker.Widget(childID)
	if err != nil {
		handleError(w, h.logger, err, "failed to build widget")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
