package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/focuspal/internal/model"
)

type PointsStore struct {
	db *sql.DB
}

func NewPointsStore(db *sql.DB) *PointsStore {
	return &PointsStore{db: db}
}

const childPointsCols = `id, child_id, day, points_earned, points_deducted, bonus_points`

func scanChildPoints(scanner interface{ Scan(...any) error }, loc *time.Location) (*model.ChildPoints, error) {
	var p model.ChildPoints
	var day string
	if err := scanner.Scan(&p.ID, &p.ChildID, &day, &p.PointsEarned, &p.PointsDeducted, &p.BonusPoints); err != nil {
		return nil, err
	}
	d, err := time.ParseInLocation(dayLayout, day, loc)
	if err != nil {
		return nil, fmt.Errorf("parse day %q: %w", day, err)
	}
	p.Date = d
	return &p, nil
}

// SaveDay writes the record for p's calendar day, replacing any previous
// values for that child and day.
func (s *PointsStore) SaveDay(p model.ChildPoints) (*model.ChildPoints, error) {
	day := p.Date.Format(dayLayout)
	p.ID = DayPointsID(p.ChildID, day)
	_, err := s.db.Exec(
		`INSERT INTO child_points (id, child_id, day, points_earned, points_deducted, bonus_points)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(child_id, day) DO UPDATE SET
			points_earned = excluded.points_earned,
			points_deducted = excluded.points_deducted,
			bonus_points = excluded.bonus_points`,
		p.ID, p.ChildID, day, p.PointsEarned, p.PointsDeducted, p.BonusPoints,
	)
	if err != nil {
		return nil, fmt.Errorf("save child points: %w", err)
	}
	return s.GetDay(p.ChildID, p.Date)
}

func (s *PointsStore) GetDay(childID string, date time.Time) (*model.ChildPoints, error) {
	p, err := scanChildPoints(s.db.QueryRow(
		`SELECT `+childPointsCols+` FROM child_points WHERE child_id = ? AND day = ?`,
		childID, date.Format(dayLayout),
	), date.Location())
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get child points: %w", err)
	}
	return p, nil
}

// ListDays returns records for calendar days in [from, to).
func (s *PointsStore) ListDays(childID string, from, to time.Time) ([]model.ChildPoints, error) {
	rows, err := s.db.Query(
		`SELECT `+childPointsCols+` FROM child_points
		 WHERE child_id = ? AND day >= ? AND day < ? ORDER BY day`,
		childID, from.Format(dayLayout), to.Format(dayLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("list child points: %w", err)
	}
	defer rows.Close()

	var days []model.ChildPoints
	for rows.Next() {
		p, err := scanChildPoints(rows, from.Location())
		if err != nil {
			return nil, fmt.Errorf("scan child points: %w", err)
		}
		days = append(days, *p)
	}
	return days, rows.Err()
}

// Total sums a child's net points across all days.
func (s *PointsStore) Total(childID string) (int, error) {
	var total int
	err := s.db.QueryRow(
		`SELECT COALESCE(SUM(points_earned + bonus_points - points_deducted), 0) FROM child_points WHERE child_id = ?`,
		childID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total points: %w", err)
	}
	return total, nil
}

const transactionCols = `id, child_id, activity_id, amount, reason, timestamp`

func scanTransaction(scanner interface{ Scan(...any) error }) (*model.PointsTransaction, error) {
	var tx model.PointsTransaction
	var activityID sql.NullString
	if err := scanner.Scan(&tx.ID, &tx.ChildID, &activityID, &tx.Amount, &tx.Reason, &tx.Timestamp); err != nil {
		return nil, err
	}
	if activityID.Valid {
		tx.ActivityID = &activityID.String
	}
	return &tx, nil
}

func (s *PointsStore) AddTransaction(tx model.PointsTransaction) (*model.PointsTransaction, error) {
	if tx.ID == "" {
		tx.ID = newID()
	}
	if tx.Timestamp.IsZero() {
		tx.Timestamp = time.Now()
	}
	tx.Timestamp = tx.Timestamp.UTC()
	var activityID any
	if tx.ActivityID != nil {
		activityID = *tx.ActivityID
	}
	_, err := s.db.Exec(
		`INSERT INTO points_transactions (id, child_id, activity_id, amount, reason, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.ChildID, activityID, tx.Amount, tx.Reason, tx.Timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert points transaction: %w", err)
	}
	return &tx, nil
}

func (s *PointsStore) listTransactions(query string, args ...any) ([]model.PointsTransaction, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list points transactions: %w", err)
	}
	defer rows.Close()

	var txs []model.PointsTransaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan points transaction: %w", err)
		}
		txs = append(txs, *tx)
	}
	return txs, rows.Err()
}

// ListTransactions returns a child's newest ledger entries.
func (s *PointsStore) ListTransactions(childID string, limit int) ([]model.PointsTransaction, error) {
	return s.listTransactions(
		`SELECT `+transactionCols+` FROM points_transactions
		 WHERE child_id = ? ORDER BY timestamp DESC, rowid DESC LIMIT ?`,
		childID, limit,
	)
}

// ListAdjustments returns ledger entries in [from, to) that are not tied to
// an activity, such as achievement bonuses and penalties.
func (s *PointsStore) ListAdjustments(childID string, from, to time.Time) ([]model.PointsTransaction, error) {
	return s.listTransactions(
		`SELECT `+transactionCols+` FROM points_transactions
		 WHERE child_id = ? AND activity_id IS NULL AND timestamp >= ? AND timestamp < ?
		 ORDER BY timestamp`,
		childID, from.UTC(), to.UTC(),
	)
}

// StrikeCharge returns the three-strike penalty currently charged by the
// tracker for [from, to): penalty lines tied to an activity, net of their
// reversals. Manual deductions with the same reason are not included.
func (s *PointsStore) StrikeCharge(childID string, from, to time.Time) (int, error) {
	var charged int
	err := s.db.QueryRow(
		`SELECT COALESCE(-SUM(amount), 0) FROM points_transactions
		 WHERE child_id = ? AND activity_id IS NOT NULL AND reason = ?
		   AND timestamp >= ? AND timestamp < ?`,
		childID, model.ReasonThreeStrikePenalty, from.UTC(), to.UTC(),
	).Scan(&charged)
	if err != nil {
		return 0, fmt.Errorf("strike charge: %w", err)
	}
	return charged, nil
}

// ListForActivity returns every ledger entry recorded for an activity.
func (s *PointsStore) ListForActivity(activityID string) ([]model.PointsTransaction, error) {
	return s.listTransactions(
		`SELECT `+transactionCols+` FROM points_transactions WHERE activity_id = ? ORDER BY timestamp, rowid`,
		activityID,
	)
}
