package model

import "time"

// TimerSession is a child's running or paused countdown. A child has at most
// one. BankedSeconds holds run time from before the current run segment;
// RunningSince is nil while paused.
type TimerSession struct {
	ChildID         string     `json:"child_id"`
	CategoryID      string     `json:"category_id"`
	DurationSeconds int        `json:"duration_seconds"`
	BankedSeconds   int        `json:"banked_seconds"`
	StartedAt       time.Time  `json:"started_at"`
	RunningSince    *time.Time `json:"running_since"`
	ExpiryNotified  bool       `json:"expiry_notified"`
}

func (s TimerSession) IsPaused() bool {
	return s.RunningSince == nil
}
