package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/focuspal/internal/model"
)

type TimerStore struct {
	db *sql.DB
}

func NewTimerStore(db *sql.DB) *TimerStore {
	return &TimerStore{db: db}
}

const timerCols = `child_id, category_id, duration_seconds, banked_seconds, started_at, running_since, expiry_notified`

func scanTimer(scanner interface{ Scan(...any) error }) (*model.TimerSession, error) {
	var ts model.TimerSession
	var running sql.NullTime
	var notified int
	err := scanner.Scan(&ts.ChildID, &ts.CategoryID, &ts.DurationSeconds, &ts.BankedSeconds, &ts.StartedAt, &running, &notified)
	if err != nil {
		return nil, err
	}
	if running.Valid {
		ts.RunningSince = &running.Time
	}
	ts.ExpiryNotified = notified != 0
	return &ts, nil
}

// Get returns the child's timer, or nil when none is active.
func (s *TimerStore) Get(childID string) (*model.TimerSession, error) {
	ts, err := scanTimer(s.db.QueryRow(`SELECT `+timerCols+` FROM timer_sessions WHERE child_id = ?`, childID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get timer: %w", err)
	}
	return ts, nil
}

func (s *TimerStore) List() ([]model.TimerSession, error) {
	rows, err := s.db.Query(`SELECT ` + timerCols + ` FROM timer_sessions ORDER BY started_at`)
	if err != nil {
		return nil, fmt.Errorf("list timers: %w", err)
	}
	defer rows.Close()

	var out []model.TimerSession
	for rows.Next() {
		ts, err := scanTimer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan timer: %w", err)
		}
		out = append(out, *ts)
	}
	return out, rows.Err()
}

// Save creates or replaces the child's timer.
func (s *TimerStore) Save(ts model.TimerSession) error {
	if ts.DurationSeconds <= 0 {
		return ErrInvalidDuration
	}
	var running any
	if ts.RunningSince != nil {
		running = ts.RunningSince.UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO timer_sessions (`+timerCols+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(child_id) DO UPDATE SET
			category_id = excluded.category_id,
			duration_seconds = excluded.duration_seconds,
			banked_seconds = excluded.banked_seconds,
			started_at = excluded.started_at,
			running_since = excluded.running_since,
			expiry_notified = excluded.expiry_notified`,
		ts.ChildID, ts.CategoryID, ts.DurationSeconds, ts.BankedSeconds, ts.StartedAt.UTC(), running, boolToInt(ts.ExpiryNotified),
	)
	if err != nil {
		return fmt.Errorf("save timer: %w", err)
	}
	return nil
}

// Delete removes the child's timer and reports whether one existed.
func (s *TimerStore) Delete(childID string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM timer_sessions WHERE child_id = ?`, childID)
	if err != nil {
		return false, fmt.Errorf("delete timer: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete timer: %w", err)
	}
	return n > 0, nil
}

// MarkExpiryNotified flags the timer so its expiry is announced once. It
// reports false when the flag was already set or the timer is gone.
func (s *TimerStore) MarkExpiryNotified(childID string) (bool, error) {
	res, err := s.db.Exec(`UPDATE timer_sessions SET expiry_notified = 1 WHERE child_id = ? AND expiry_notified = 0`, childID)
	if err != nil {
		return false, fmt.Errorf("mark timer notified: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark timer notified: %w", err)
	}
	return n > 0, nil
}
