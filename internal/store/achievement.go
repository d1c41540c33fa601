package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/focuspal/internal/model"
)

type AchievementStore struct {
	db *sql.DB
}

func NewAchievementStore(db *sql.DB) *AchievementStore {
	return &AchievementStore{db: db}
}

const achievementCols = `id, child_id, type_key, progress, target_value, unlocked_date`

func scanAchievement(scanner interface{ Scan(...any) error }) (*model.Achievement, error) {
	var a model.Achievement
	var unlocked sql.NullTime
	if err := scanner.Scan(&a.ID, &a.ChildID, &a.TypeKey, &a.Progress, &a.TargetValue, &unlocked); err != nil {
		return nil, err
	}
	if unlocked.Valid {
		a.UnlockedDate = &unlocked.Time
	}
	return &a, nil
}

func (s *AchievementStore) ListByChild(childID string) ([]model.Achievement, error) {
	rows, err := s.db.Query(
		`SELECT `+achievementCols+` FROM achievements WHERE child_id = ? ORDER BY type_key`, childID,
	)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	defer rows.Close()

	var list []model.Achievement
	for rows.Next() {
		a, err := scanAchievement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan achievement: %w", err)
		}
		list = append(list, *a)
	}
	return list, rows.Err()
}

func (s *AchievementStore) Get(childID, typeKey string) (*model.Achievement, error) {
	a, err := scanAchievement(s.db.QueryRow(
		`SELECT `+achievementCols+` FROM achievements WHERE child_id = ? AND type_key = ?`, childID, typeKey,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get achievement %s: %w", typeKey, err)
	}
	return a, nil
}

// Upsert writes progress for a child's achievement. An existing unlock date
// is never cleared or moved.
func (s *AchievementStore) Upsert(a model.Achievement) (*model.Achievement, error) {
	if a.ID == "" {
		a.ID = newID()
	}
	var unlocked any
	if a.UnlockedDate != nil {
		unlocked = a.UnlockedDate.UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO achievements (id, child_id, type_key, progress, target_value, unlocked_date)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(child_id, type_key) DO UPDATE SET
			progress = excluded.progress,
			target_value = excluded.target_value,
			unlocked_date = COALESCE(achievements.unlocked_date, excluded.unlocked_date)`,
		a.ID, a.ChildID, a.TypeKey, a.Progress, a.TargetValue, unlocked,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert achievement %s: %w", a.TypeKey, err)
	}
	return s.Get(a.ChildID, a.TypeKey)
}
