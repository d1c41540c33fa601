package model

import "time"

// ChildPoints is the per-day points record for a child. It is recomputed
// from that day's activities.
type ChildPoints struct {
	ID             string    `json:"id"`
	ChildID        string    `json:"child_id"`
	Date           time.Time `json:"date"`
	PointsEarned   int       `json:"points_earned"`
	PointsDeducted int       `json:"points_deducted"`
	BonusPoints    int       `json:"bonus_points"`
}

func (p ChildPoints) Total() int {
	return p.PointsEarned + p.BonusPoints - p.PointsDeducted
}

type PointsReason string

const (
	ReasonActivityComplete   PointsReason = "activity_complete"
	ReasonActivityIncomplete PointsReason = "activity_incomplete"
	ReasonEarlyFinishBonus   PointsReason = "early_finish_bonus"
	ReasonBeatAverageBonus   PointsReason = "beat_average_bonus"
	ReasonThreeStrikePenalty PointsReason = "three_strike_penalty"
	ReasonWeeklyReward       PointsReason = "weekly_reward"
	ReasonAchievementUnlock  PointsReason = "achievement_unlock"
)

func (r PointsReason) DisplayName() string {
	switch r {
	case ReasonActivityComplete:
		return "Activity Completed"
	case ReasonActivityIncomplete:
		return "Activity Incomplete"
	case ReasonEarlyFinishBonus:
		return "Early Finish Bonus"
	case ReasonBeatAverageBonus:
		return "Beat Average Bonus"
	case ReasonThreeStrikePenalty:
		return "Three Strike Penalty"
	case ReasonWeeklyReward:
		return "Weekly Reward"
	case ReasonAchievementUnlock:
		return "Achievement Unlocked"
	default:
		return string(r)
	}
}

// IsBonus reports whether an award for this reason counts toward bonus points
// rather than earned points.
func (r PointsReason) IsBonus() bool {
	switch r {
	case ReasonEarlyFinishBonus, ReasonBeatAverageBonus, ReasonAchievementUnlock, ReasonWeeklyReward:
		return true
	}
	return false
}

// PointsTransaction is one entry of the append-only points audit trail.
// Amount is negative for deductions.
type PointsTransaction struct {
	ID         string       `json:"id"`
	ChildID    string       `json:"child_id"`
	ActivityID *string      `json:"activity_id"`
	Amount     int          `json:"amount"`
	Reason     PointsReason `json:"reason"`
	Timestamp  time.Time    `json:"timestamp"`
}
