package schedule

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dukerupert/focuspal/internal/model"
	"github.com/dukerupert/focuspal/internal/recurrence"
)

// ErrInvalidRule marks a stored task whose recurrence rule does not parse.
var ErrInvalidRule = errors.New("invalid recurrence rule")

type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusActive    Status = "active"
	StatusOverdue   Status = "overdue"
	StatusCompleted Status = "completed"
)

// Occurrence is one concrete instance of a scheduled task.
type Occurrence struct {
	Task        model.ScheduledTask `json:"task"`
	Start       time.Time           `json:"start"`
	End         time.Time           `json:"end"`
	IsCompleted bool                `json:"is_completed"`
	Status      Status              `json:"status"`
	CanComplete bool                `json:"can_complete"`
}

func DateKey(t time.Time) string {
	return t.Format(model.CompletedDateLayout)
}

// IsInstanceCompleted reports completion of the occurrence starting at start.
// Recurring tasks track it per date; one-off tasks use the task flag.
func IsInstanceCompleted(task model.ScheduledTask, start time.Time) bool {
	if !task.IsRecurring() {
		return task.IsCompleted
	}
	key := DateKey(start)
	for _, d := range task.CompletedDates {
		if d == key {
			return true
		}
	}
	return false
}

func newOccurrence(task model.ScheduledTask, start, now time.Time) Occurrence {
	o := Occurrence{
		Task:        task,
		Start:       start,
		End:         start.Add(task.Duration()),
		IsCompleted: IsInstanceCompleted(task, start),
	}
	switch {
	case o.IsCompleted:
		o.Status = StatusCompleted
	case o.End.Before(now):
		o.Status = StatusOverdue
	case !o.Start.After(now):
		o.Status = StatusActive
	default:
		o.Status = StatusUpcoming
	}
	o.CanComplete = o.Status == StatusActive || o.Status == StatusOverdue
	return o
}

// rule parses the task's recurrence. ok is false for one-off tasks and for
// rules that do not parse, which also return an ErrInvalidRule error.
func rule(task model.ScheduledTask) (r recurrence.Rule, ok bool, err error) {
	if !task.IsRecurring() {
		return recurrence.Rule{}, false, nil
	}
	r, err = recurrence.Parse(task.RecurrenceRule)
	if err != nil {
		return recurrence.Rule{}, false, fmt.Errorf("task %s: %w: %w", task.ID, ErrInvalidRule, err)
	}
	return r, true, nil
}

// Between expands a task into occurrences starting in [from, to). A task
// whose rule does not parse is expanded as a one-off and the parse error is
// returned alongside.
func Between(task model.ScheduledTask, from, to, now time.Time) ([]Occurrence, error) {
	r, ok, err := rule(task)
	if !ok {
		if task.ScheduledDate.Before(from) || !task.ScheduledDate.Before(to) {
			return nil, err
		}
		return []Occurrence{newOccurrence(task, task.ScheduledDate, now)}, err
	}

	starts := recurrence.Between(r, task.ScheduledDate, from, to)
	out := make([]Occurrence, 0, len(starts))
	for _, s := range starts {
		out = append(out, newOccurrence(task, s, now))
	}
	return out, nil
}

// ForDate lists every task occurrence on day's calendar date, earliest first.
// Tasks with invalid rules are listed as one-offs and reported in the error.
func ForDate(tasks []model.ScheduledTask, day, now time.Time) ([]Occurrence, error) {
	start := startOfDay(day)
	end := start.AddDate(0, 0, 1)

	var (
		out  []Occurrence
		errs []error
	)
	for _, t := range tasks {
		occ, err := Between(t, start, end, now)
		if err != nil {
			errs = append(errs, err)
		}
		out = append(out, occ...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, errors.Join(errs...)
}

// NextOccurrence returns the first occurrence starting at or after after.
func NextOccurrence(task model.ScheduledTask, after, now time.Time) (Occurrence, bool, error) {
	r, ok, err := rule(task)
	if err != nil {
		return Occurrence{}, false, err
	}
	if !ok {
		if task.ScheduledDate.Before(after) {
			return Occurrence{}, false, nil
		}
		return newOccurrence(task, task.ScheduledDate, now), true, nil
	}
	next, ok := recurrence.Next(r, task.ScheduledDate, after)
	if !ok {
		return Occurrence{}, false, nil
	}
	return newOccurrence(task, next, now), true, nil
}

// SetCompleted marks the occurrence on day complete or incomplete. For
// one-off tasks day is ignored.
func SetCompleted(task *model.ScheduledTask, day time.Time, completed bool) {
	if !task.IsRecurring() {
		task.IsCompleted = completed
		return
	}

	key := DateKey(day)
	dates := make([]string, 0, len(task.CompletedDates)+1)
	for _, d := range task.CompletedDates {
		if d != key {
			dates = append(dates, d)
		}
	}
	if completed {
		dates = append(dates, key)
	}
	sort.Strings(dates)
	task.CompletedDates = dates
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
