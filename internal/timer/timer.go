// Package timer runs per-child countdown timers. A finished timer becomes a
// logged activity.
package timer

import (
	"errors"
	"time"

	"github.com/dukerupert/focuspal/internal/model"
)

var (
	ErrNoTimer     = errors.New("no active timer")
	ErrNotRunning  = errors.New("timer is not running")
	ErrNotPaused   = errors.New("timer is not paused")
	ErrExpired     = errors.New("timer has run out")
	ErrInvalidTime = errors.New("minutes must be positive")
)

type State string

const (
	StateRunning State = "running"
	StatePaused  State = "paused"
	StateExpired State = "expired"
)

// New starts a countdown of d at now.
func New(childID, categoryID string, d time.Duration, now time.Time) model.TimerSession {
	now = now.UTC().Truncate(time.Second)
	return model.TimerSession{
		ChildID:         childID,
		CategoryID:      categoryID,
		DurationSeconds: int(d / time.Second),
		StartedAt:       now,
		RunningSince:    &now,
	}
}

func total(s model.TimerSession) time.Duration {
	return time.Duration(s.DurationSeconds) * time.Second
}

// Elapsed is the run time so far, excluding pauses. It never exceeds the
// timer's duration.
func Elapsed(s model.TimerSession, now time.Time) time.Duration {
	e := time.Duration(s.BankedSeconds) * time.Second
	if s.RunningSince != nil && now.After(*s.RunningSince) {
		e += now.Sub(*s.RunningSince)
	}
	return min(e, total(s))
}

func Remaining(s model.TimerSession, now time.Time) time.Duration {
	return total(s) - Elapsed(s, now)
}

// Expired reports whether a running timer has counted down to zero.
func Expired(s model.TimerSession, now time.Time) bool {
	return !s.IsPaused() && Remaining(s, now) <= 0
}

func StateOf(s model.TimerSession, now time.Time) State {
	switch {
	case s.IsPaused():
		return StatePaused
	case Expired(s, now):
		return StateExpired
	default:
		return StateRunning
	}
}

// Pause banks the current run segment.
func Pause(s *model.TimerSession, now time.Time) error {
	if s.IsPaused() {
		return ErrNotRunning
	}
	if Expired(*s, now) {
		return ErrExpired
	}
	s.BankedSeconds = int(Elapsed(*s, now) / time.Second)
	s.RunningSince = nil
	return nil
}

func Resume(s *model.TimerSession, now time.Time) error {
	if !s.IsPaused() {
		return ErrNotPaused
	}
	now = now.UTC().Truncate(time.Second)
	s.RunningSince = &now
	return nil
}

// AddTime extends the countdown. An expired timer runs again.
func AddTime(s *model.TimerSession, d time.Duration, now time.Time) error {
	if d <= 0 {
		return ErrInvalidTime
	}
	if Expired(*s, now) {
		// Extra time counts from now.
		s.BankedSeconds = s.DurationSeconds
		t := now.UTC().Truncate(time.Second)
		s.RunningSince = &t
	}
	s.DurationSeconds += int(d / time.Second)
	s.ExpiryNotified = false
	return nil
}

// View is a timer as clients see it.
type View struct {
	model.TimerSession
	State            State   `json:"state"`
	ElapsedSeconds   int     `json:"elapsed_seconds"`
	RemainingSeconds int     `json:"remaining_seconds"`
	Progress         float64 `json:"progress"`
	CategoryName     string  `json:"category_name"`
	CategoryIcon     string  `json:"category_icon"`
	CategoryColor    string  `json:"category_color"`
}

// ViewOf reports s at now. Progress is the share of time remaining, from 1
// down to 0.
func ViewOf(s model.TimerSession, cat *model.Category, now time.Time) View {
	v := View{
		TimerSession:     s,
		State:            StateOf(s, now),
		ElapsedSeconds:   int(Elapsed(s, now) / time.Second),
		RemainingSeconds: int(Remaining(s, now) / time.Second),
	}
	if s.DurationSeconds > 0 {
		v.Progress = float64(v.RemainingSeconds) / float64(s.DurationSeconds)
	}
	if cat != nil {
		v.CategoryName = cat.Name
		v.CategoryIcon = cat.Icon
		v.CategoryColor = cat.ColorHex
	}
	return v
}
