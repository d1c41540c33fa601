package model

import "time"

type CalendarSource string

const (
	CalendarSourceApp    CalendarSource = "app"
	CalendarSourceIOS    CalendarSource = "ios"
	CalendarSourceGoogle CalendarSource = "google"
)

// CompletedDateLayout is the key format for per-occurrence completion.
const CompletedDateLayout = "2006-01-02"

// ScheduledTask is a planned activity. RecurrenceRule is empty for one-off tasks;
// recurring tasks track completion per occurrence in CompletedDates.
type ScheduledTask struct {
	ID                    string         `json:"id"`
	ChildID               string         `json:"child_id"`
	CategoryID            string         `json:"category_id"`
	Title                 string         `json:"title"`
	ScheduledDate         time.Time      `json:"scheduled_date"`
	DurationSeconds       int64          `json:"duration_seconds"`
	RecurrenceRule        string         `json:"recurrence_rule"`
	ReminderMinutesBefore int            `json:"reminder_minutes_before"`
	IsCompleted           bool           `json:"is_completed"`
	CompletedDates        []string       `json:"completed_dates"`
	CalendarSource        CalendarSource `json:"calendar_source"`
	ExternalCalendarID    string         `json:"external_calendar_id,omitempty"`
	Notes                 string         `json:"notes"`
	CreatedAt             time.Time      `json:"created_at"`
}

func (t ScheduledTask) IsRecurring() bool {
	return t.RecurrenceRule != ""
}

func (t ScheduledTask) Duration() time.Duration {
	if t.DurationSeconds <= 0 {
		return DefaultRecommendedDuration
	}
	return time.Duration(t.DurationSeconds) * time.Second
}
