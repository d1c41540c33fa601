package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/focuspal/internal/model"
)

type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

const taskCols = `id, child_id, category_id, title, scheduled_date, duration_seconds, recurrence_rule,
	reminder_minutes_before, is_completed, calendar_source, external_calendar_id, notes, created_at`

func scanTask(scanner interface{ Scan(...any) error }) (*model.ScheduledTask, error) {
	var t model.ScheduledTask
	var completed int
	err := scanner.Scan(&t.ID, &t.ChildID, &t.CategoryID, &t.Title, &t.ScheduledDate, &t.DurationSeconds, &t.RecurrenceRule,
		&t.ReminderMinutesBefore, &completed, &t.CalendarSource, &t.ExternalCalendarID, &t.Notes, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	t.IsCompleted = completed != 0
	return &t, nil
}

func normalizeTask(t *model.ScheduledTask) error {
	if t.DurationSeconds < 0 {
		return ErrInvalidDuration
	}
	if t.DurationSeconds == 0 {
		t.DurationSeconds = int64(model.DefaultRecommendedDuration / time.Second)
	}
	if t.CalendarSource == "" {
		t.CalendarSource = model.CalendarSourceApp
	}
	t.ScheduledDate = t.ScheduledDate.UTC().Truncate(time.Second)
	return nil
}

func (s *TaskStore) Create(t model.ScheduledTask) (*model.ScheduledTask, error) {
	if err := normalizeTask(&t); err != nil {
		return nil, err
	}
	if t.ID == "" {
		t.ID = newID()
	}
	_, err := s.db.Exec(
		`INSERT INTO scheduled_tasks (id, child_id, category_id, title, scheduled_date, duration_seconds, recurrence_rule,
			reminder_minutes_before, is_completed, calendar_source, external_calendar_id, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.ChildID, t.CategoryID, t.Title, t.ScheduledDate, t.DurationSeconds, t.RecurrenceRule,
		t.ReminderMinutesBefore, boolToInt(t.IsCompleted), t.CalendarSource, t.ExternalCalendarID, t.Notes, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert scheduled task: %w", err)
	}
	return s.GetByID(t.ID)
}

func (s *TaskStore) GetByID(id string) (*model.ScheduledTask, error) {
	t, err := scanTask(s.db.QueryRow(`SELECT `+taskCols+` FROM scheduled_tasks WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get scheduled task %s: %w", id, err)
	}
	if t.CompletedDates, err = s.completions(id); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TaskStore) completions(taskID string) ([]string, error) {
	rows, err := s.db.Query(`SELECT day FROM task_completions WHERE task_id = ? ORDER BY day`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list task completions: %w", err)
	}
	defer rows.Close()

	days := []string{}
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("scan task completion: %w", err)
		}
		days = append(days, day)
	}
	return days, rows.Err()
}

func (s *TaskStore) list(query string, args ...any) ([]model.ScheduledTask, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list scheduled tasks: %w", err)
	}

	var tasks []model.ScheduledTask
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan scheduled task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, err
	}

	for i := range tasks {
		if tasks[i].CompletedDates, err = s.completions(tasks[i].ID); err != nil {
			return nil, err
		}
	}
	return tasks, nil
}

func (s *TaskStore) ListByChild(childID string) ([]model.ScheduledTask, error) {
	return s.list(`SELECT `+taskCols+` FROM scheduled_tasks WHERE child_id = ? ORDER BY scheduled_date`, childID)
}

// ListAll returns every child's tasks. The reminder scheduler scans these.
func (s *TaskStore) ListAll() ([]model.ScheduledTask, error) {
	return s.list(`SELECT ` + taskCols + ` FROM scheduled_tasks ORDER BY scheduled_date`)
}

func (s *TaskStore) Update(t model.ScheduledTask) (*model.ScheduledTask, error) {
	if err := normalizeTask(&t); err != nil {
		return nil, err
	}
	_, err := s.db.Exec(
		`UPDATE scheduled_tasks SET category_id = ?, title = ?, scheduled_date = ?, duration_seconds = ?,
			recurrence_rule = ?, reminder_minutes_before = ?, calendar_source = ?, external_calendar_id = ?, notes = ?
		 WHERE id = ?`,
		t.CategoryID, t.Title, t.ScheduledDate, t.DurationSeconds,
		t.RecurrenceRule, t.ReminderMinutesBefore, t.CalendarSource, t.ExternalCalendarID, t.Notes, t.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update scheduled task %s: %w", t.ID, err)
	}
	return s.GetByID(t.ID)
}

// SetCompleted flips the completion flag of a one-off task.
func (s *TaskStore) SetCompleted(id string, completed bool) error {
	_, err := s.db.Exec(`UPDATE scheduled_tasks SET is_completed = ? WHERE id = ?`, boolToInt(completed), id)
	if err != nil {
		return fmt.Errorf("set task completed %s: %w", id, err)
	}
	return nil
}

// SetOccurrenceCompleted marks or clears one occurrence of a recurring task.
// day is a model.CompletedDateLayout key.
func (s *TaskStore) SetOccurrenceCompleted(id, day string, completed bool) error {
	var err error
	if completed {
		_, err = s.db.Exec(
			`INSERT OR IGNORE INTO task_completions (task_id, day, completed_at) VALUES (?, ?, ?)`,
			id, day, time.Now().UTC(),
		)
	} else {
		_, err = s.db.Exec(`DELETE FROM task_completions WHERE task_id = ? AND day = ?`, id, day)
	}
	if err != nil {
		return fmt.Errorf("set occurrence completed %s %s: %w", id, day, err)
	}
	return nil
}

func (s *TaskStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM scheduled_tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete scheduled task %s: %w", id, err)
	}
	return nil
}
