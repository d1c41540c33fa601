package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/focuspal/internal/model"
)

var ErrInvalidThreshold = errors.New("warning threshold must be between 1 and 100")

type TimeGoalStore struct {
	db *sql.DB
}

func NewTimeGoalStore(db *sql.DB) *TimeGoalStore {
	return &TimeGoalStore{db: db}
}

const timeGoalCols = `id, child_id, category_id, recommended_minutes, warning_threshold, is_active, created_at`

func scanTimeGoal(scanner interface{ Scan(...any) error }) (*model.TimeGoal, error) {
	var g model.TimeGoal
	var active int
	err := scanner.Scan(&g.ID, &g.ChildID, &g.CategoryID, &g.RecommendedMinutes, &g.WarningThreshold, &active, &g.CreatedAt)
	if err != nil {
		return nil, err
	}
	g.IsActive = active != 0
	return &g, nil
}

// Upsert creates or replaces the goal for a child and category.
func (s *TimeGoalStore) Upsert(g model.TimeGoal) (*model.TimeGoal, error) {
	if g.RecommendedMinutes <= 0 {
		return nil, ErrInvalidDuration
	}
	if g.WarningThreshold == 0 {
		g.WarningThreshold = model.DefaultWarningThreshold
	}
	if g.WarningThreshold < 1 || g.WarningThreshold > 100 {
		return nil, ErrInvalidThreshold
	}
	if g.ID == "" {
		g.ID = newID()
	}
	_, err := s.db.Exec(
		`INSERT INTO time_goals (id, child_id, category_id, recommended_minutes, warning_threshold, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(child_id, category_id) DO UPDATE SET
			recommended_minutes = excluded.recommended_minutes,
			warning_threshold = excluded.warning_threshold,
			is_active = excluded.is_active`,
		g.ID, g.ChildID, g.CategoryID, g.RecommendedMinutes, g.WarningThreshold, boolToInt(g.IsActive), time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("upsert time goal: %w", err)
	}
	return s.get(`child_id = ? AND category_id = ?`, g.ChildID, g.CategoryID)
}

func (s *TimeGoalStore) GetByID(id string) (*model.TimeGoal, error) {
	return s.get(`id = ?`, id)
}

func (s *TimeGoalStore) get(where string, args ...any) (*model.TimeGoal, error) {
	g, err := scanTimeGoal(s.db.QueryRow(`SELECT `+timeGoalCols+` FROM time_goals WHERE `+where, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get time goal: %w", err)
	}
	return g, nil
}

func (s *TimeGoalStore) list(where string, args ...any) ([]model.TimeGoal, error) {
	rows, err := s.db.Query(`SELECT `+timeGoalCols+` FROM time_goals WHERE `+where+` ORDER BY created_at`, args...)
	if err != nil {
		return nil, fmt.Errorf("list time goals: %w", err)
	}
	defer rows.Close()

	var goals []model.TimeGoal
	for rows.Next() {
		g, err := scanTimeGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan time goal: %w", err)
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

func (s *TimeGoalStore) ListByChild(childID string) ([]model.TimeGoal, error) {
	return s.list(`child_id = ?`, childID)
}

// ListActive returns active goals across all children.
func (s *TimeGoalStore) ListActive() ([]model.TimeGoal, error) {
	return s.list(`is_active = 1`)
}

func (s *TimeGoalStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM time_goals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete time goal %s: %w", id, err)
	}
	return nil
}
