package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/focuspal/internal/speech"
	"github.com/dukerupert/focuspal/internal/store"
	"github.com/dukerupert/focuspal/internal/tracker"
)

// SpeechHandler answers voice-assistant queries with a sentence to read aloud.
type SpeechHandler struct {
	tracker  *tracker.Service
	children *store.ChildStore
	logger   *slog.Logger
}

func NewSpeechHandler(t *tracker.Service, cs *store.ChildStore, logger *slog.Logger) *SpeechHandler {
	return &SpeechHandler{tracker: t, children: cs, logger: logger}
}

type speechResponse struct {
	Text string `json:"text"`
}

// Streak speaks ?child's streak, or the household streak without one.
func (h *SpeechHandler) Streak(w http.ResponseWriter, r *http.Request) {
	childID := r.URL.Query().Get("child")
	if childID == "" {
		st, err := h.tracker.FamilyStreak()
		if err != nil {
			handleError(w, h.logger, err, "failed to compute streak")
			return
		}
		writeJSON(w, http.StatusOK, speechResponse{Text: speech.StreakDialog("", st.Current)})
		return
	}

	child, err := h.tracker.Child(childID)
	if err != nil {
		handleError(w, h.logger, err, "failed to compute streak")
		return
	}
	st, err := h.tracker.Streak(child.ID)
	if err != nil {
		handleError(w, h.logger, err, "failed to compute streak")
		return
	}
	writeJSON(w, http.StatusOK, speechResponse{Text: speech.StreakDialog(child.Name, st.Current)})
}

// Today speaks ?child's focus time today, or the household total.
func (h *SpeechHandler) Today(w http.ResponseWriter, r *http.Request) {
	childID := r.URL.Query().Get("child")
	if childID != "" {
		child, err := h.tracker.Child(childID)
		if err != nil {
			handleError(w, h.logger, err, "failed to load today")
			return
		}
		sum, err := h.tracker.Today(child.ID)
		if err != nil {
			handleError(w, h.logger, err, "failed to load today")
			return
		}
		total := time.Duration(sum.TotalMinutes) * time.Minute
		writeJSON(w, http.StatusOK, speechResponse{Text: speech.TodayTimeDialog(child.Name, total)})
		return
	}

	children, err := h.children.List()
	if err != nil {
		handleError(w, h.logger, err, "failed to load today")
		return
	}
	var total time.Duration
	for _, c := range children {
		sum, err := h.tracker.Today(c.ID)
		if err != nil {
			handleError(w, h.logger, err, "failed to load today")
			return
		}
		total += time.Duration(sum.TotalMinutes) * time.Minute
	}
	writeJSON(w, http.StatusOK, speechResponse{Text: speech.TodayTimeDialog("", total)})
}
