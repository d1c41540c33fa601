package model

import "time"

type Mood int

const (
	MoodNone Mood = iota
	MoodVerySad
	MoodSad
	MoodNeutral
	MoodHappy
	MoodVeryHappy
)

func (m Mood) Valid() bool {
	return m >= MoodNone && m <= MoodVeryHappy
}

func (m Mood) Emoji() string {
	switch m {
	case MoodVerySad:
		return "😢"
	case MoodSad:
		return "😕"
	case MoodNeutral:
		return "😐"
	case MoodHappy:
		return "🙂"
	case MoodVeryHappy:
		return "😄"
	default:
		return ""
	}
}

type SyncStatus string

const (
	SyncStatusSynced   SyncStatus = "synced"
	SyncStatusPending  SyncStatus = "pending"
	SyncStatusConflict SyncStatus = "conflict"
)

// Activity is one logged focus session.
type Activity struct {
	ID            string     `json:"id"`
	ChildID       string     `json:"child_id"`
	CategoryID    string     `json:"category_id"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       time.Time  `json:"end_time"`
	Notes         string     `json:"notes"`
	Mood          Mood       `json:"mood"`
	IsManualEntry bool       `json:"is_manual_entry"`
	IsComplete    bool       `json:"is_complete"`
	CreatedAt     time.Time  `json:"created_at"`
	SyncStatus    SyncStatus `json:"sync_status"`
}

func (a Activity) Duration() time.Duration {
	return a.EndTime.Sub(a.StartTime)
}

// DurationMinutes truncates to whole minutes.
func (a Activity) DurationMinutes() int {
	return int(a.Duration() / time.Minute)
}
