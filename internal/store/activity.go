package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/focuspal/internal/model"
)

type ActivityStore struct {
	db *sql.DB
}

func NewActivityStore(db *sql.DB) *ActivityStore {
	return &ActivityStore{db: db}
}

const activityCols = `id, child_id, category_id, start_time, end_time, notes, mood,
	is_manual_entry, is_complete, sync_status, created_at`

func scanActivity(scanner interface{ Scan(...any) error }) (*model.Activity, error) {
	var a model.Activity
	var manual, complete int
	err := scanner.Scan(&a.ID, &a.ChildID, &a.CategoryID, &a.StartTime, &a.EndTime, &a.Notes, &a.Mood,
		&manual, &complete, &a.SyncStatus, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.IsManualEntry = manual != 0
	a.IsComplete = complete != 0
	return &a, nil
}

func validateActivity(a *model.Activity) error {
	a.StartTime = a.StartTime.UTC().Truncate(time.Second)
	a.EndTime = a.EndTime.UTC().Truncate(time.Second)
	if a.EndTime.Before(a.StartTime) {
		return ErrInvalidTimeRange
	}
	if !a.Mood.Valid() {
		return ErrInvalidMood
	}
	if a.SyncStatus == "" {
		a.SyncStatus = model.SyncStatusPending
	}
	return nil
}

func (s *ActivityStore) Create(a model.Activity) (*model.Activity, error) {
	if err := validateActivity(&a); err != nil {
		return nil, err
	}
	if a.ID == "" {
		a.ID = newID()
	}
	_, err := s.db.Exec(
		`INSERT INTO activities (id, child_id, category_id, start_time, end_time, notes, mood,
			is_manual_entry, is_complete, sync_status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.ChildID, a.CategoryID, a.StartTime, a.EndTime, a.Notes, a.Mood,
		boolToInt(a.IsManualEntry), boolToInt(a.IsComplete), a.SyncStatus, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert activity: %w", err)
	}
	return s.GetByID(a.ID)
}

func (s *ActivityStore) GetByID(id string) (*model.Activity, error) {
	a, err := scanActivity(s.db.QueryRow(`SELECT `+activityCols+` FROM activities WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get activity %s: %w", id, err)
	}
	return a, nil
}

func (s *ActivityStore) list(query string, args ...any) ([]model.Activity, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	var acts []model.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		acts = append(acts, *a)
	}
	return acts, rows.Err()
}

// ListByChild returns a child's activities that started in [from, to).
func (s *ActivityStore) ListByChild(childID string, from, to time.Time) ([]model.Activity, error) {
	return s.list(
		`SELECT `+activityCols+` FROM activities
		 WHERE child_id = ? AND start_time >= ? AND start_time < ?
		 ORDER BY start_time`,
		childID, from.UTC(), to.UTC(),
	)
}

// ListAllByChild returns a child's full history, oldest first.
func (s *ActivityStore) ListAllByChild(childID string) ([]model.Activity, error) {
	return s.list(`SELECT `+activityCols+` FROM activities WHERE child_id = ? ORDER BY start_time`, childID)
}

// ListRecent returns a child's newest activities.
func (s *ActivityStore) ListRecent(childID string, limit int) ([]model.Activity, error) {
	return s.list(
		`SELECT `+activityCols+` FROM activities WHERE child_id = ? ORDER BY start_time DESC LIMIT ?`,
		childID, limit,
	)
}

// ListRange returns every child's activities that started in [from, to).
func (s *ActivityStore) ListRange(from, to time.Time) ([]model.Activity, error) {
	return s.list(
		`SELECT `+activityCols+` FROM activities WHERE start_time >= ? AND start_time < ? ORDER BY start_time`,
		from.UTC(), to.UTC(),
	)
}

func (s *ActivityStore) Update(a model.Activity) (*model.Activity, error) {
	if err := validateActivity(&a); err != nil {
		return nil, err
	}
	_, err := s.db.Exec(
		`UPDATE activities SET category_id = ?, start_time = ?, end_time = ?, notes = ?, mood = ?,
			is_manual_entry = ?, is_complete = ?, sync_status = ?
		 WHERE id = ?`,
		a.CategoryID, a.StartTime, a.EndTime, a.Notes, a.Mood,
		boolToInt(a.IsManualEntry), boolToInt(a.IsComplete), a.SyncStatus, a.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update activity %s: %w", a.ID, err)
	}
	return s.GetByID(a.ID)
}

func (s *ActivityStore) SetSyncStatus(id string, status model.SyncStatus) error {
	_, err := s.db.Exec(`UPDATE activities SET sync_status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("set sync status %s: %w", id, err)
	}
	return nil
}

func (s *ActivityStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM activities WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete activity %s: %w", id, err)
	}
	return nil
}
