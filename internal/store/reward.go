package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/focuspal/internal/model"
)

type RewardStore struct {
	db *sql.DB
}

func NewRewardStore(db *sql.DB) *RewardStore {
	return &RewardStore{db: db}
}

const weeklyRewardCols = `id, child_id, week_start, week_end, total_points, tier, is_redeemed, redeemed_date`

func scanWeeklyReward(scanner interface{ Scan(...any) error }) (*model.WeeklyReward, error) {
	var r model.WeeklyReward
	var redeemed int
	var redeemedDate sql.NullTime
	err := scanner.Scan(&r.ID, &r.ChildID, &r.WeekStart, &r.WeekEnd, &r.TotalPoints, &r.Tier, &redeemed, &redeemedDate)
	if err != nil {
		return nil, err
	}
	r.IsRedeemed = redeemed != 0
	if redeemedDate.Valid {
		r.RedeemedDate = &redeemedDate.Time
	}
	return &r, nil
}

func (s *RewardStore) GetByID(id string) (*model.WeeklyReward, error) {
	return s.get(`id = ?`, id)
}

// GetByWeek returns the reward row whose week begins at weekStart.
func (s *RewardStore) GetByWeek(childID string, weekStart time.Time) (*model.WeeklyReward, error) {
	return s.get(`child_id = ? AND week_start = ?`, childID, weekStart.UTC())
}

func (s *RewardStore) get(where string, args ...any) (*model.WeeklyReward, error) {
	r, err := scanWeeklyReward(s.db.QueryRow(`SELECT `+weeklyRewardCols+` FROM weekly_rewards WHERE `+where, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get weekly reward: %w", err)
	}
	return r, nil
}

// SaveTotals writes the week's total and tier. Redemption state is left as is.
func (s *RewardStore) SaveTotals(r model.WeeklyReward) (*model.WeeklyReward, error) {
	if r.ID == "" {
		r.ID = newID()
	}
	_, err := s.db.Exec(
		`INSERT INTO weekly_rewards (id, child_id, week_start, week_end, total_points, tier)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(child_id, week_start) DO UPDATE SET
			total_points = excluded.total_points,
			tier = excluded.tier`,
		r.ID, r.ChildID, r.WeekStart.UTC(), r.WeekEnd.UTC(), r.TotalPoints, r.Tier,
	)
	if err != nil {
		return nil, fmt.Errorf("save weekly reward: %w", err)
	}
	return s.GetByWeek(r.ChildID, r.WeekStart)
}

func (s *RewardStore) ListByChild(childID string) ([]model.WeeklyReward, error) {
	rows, err := s.db.Query(
		`SELECT `+weeklyRewardCols+` FROM weekly_rewards WHERE child_id = ? ORDER BY week_start DESC`, childID,
	)
	if err != nil {
		return nil, fmt.Errorf("list weekly rewards: %w", err)
	}
	defer rows.Close()

	var rewards []model.WeeklyReward
	for rows.Next() {
		r, err := scanWeeklyReward(rows)
		if err != nil {
			return nil, fmt.Errorf("scan weekly reward: %w", err)
		}
		rewards = append(rewards, *r)
	}
	return rewards, rows.Err()
}

func (s *RewardStore) MarkRedeemed(id string, at time.Time) error {
	_, err := s.db.Exec(
		`UPDATE weekly_rewards SET is_redeemed = 1, redeemed_date = ? WHERE id = ?`,
		at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("redeem weekly reward %s: %w", id, err)
	}
	return nil
}
