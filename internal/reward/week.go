package reward

import (
	"errors"
	"sort"
	"time"

	"github.com/dukerupert/focuspal/internal/model"
)

var (
	ErrRewardNotFound  = errors.New("reward not found")
	ErrAlreadyRedeemed = errors.New("reward already redeemed")
	ErrNoTier          = errors.New("week has not reached a reward tier")
)

// WeekBounds returns the Monday 00:00 starting the week containing t and the
// last instant of the following Sunday.
func WeekBounds(t time.Time) (time.Time, time.Time) {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) + 6) % 7
	start := day.AddDate(0, 0, -offset)
	end := start.AddDate(0, 0, 7).Add(-time.Nanosecond)
	return start, end
}

// SetTotal replaces the week total and re-derives the tier. Negative totals
// count as zero.
func SetTotal(r *model.WeeklyReward, total int) {
	r.TotalPoints = max(0, total)
	r.Tier = TierFor(r.TotalPoints)
}

// Redeem marks a tiered week as redeemed. Weeks without a tier have nothing
// to redeem.
func Redeem(r *model.WeeklyReward, now time.Time) error {
	if r == nil {
		return ErrRewardNotFound
	}
	if r.Tier == "" {
		return ErrNoTier
	}
	if r.IsRedeemed {
		return ErrAlreadyRedeemed
	}
	r.IsRedeemed = true
	r.RedeemedDate = &now
	return nil
}

type History struct {
	TotalPointsAllTime  int        `json:"total_points_all_time"`
	TotalWeeksCompleted int        `json:"total_weeks_completed"`
	BronzeTiersEarned   int        `json:"bronze_tiers_earned"`
	SilverTiersEarned   int        `json:"silver_tiers_earned"`
	GoldTiersEarned     int        `json:"gold_tiers_earned"`
	PlatinumTiersEarned int        `json:"platinum_tiers_earned"`
	LongestStreak       int        `json:"longest_streak"`
	CurrentStreak       int        `json:"current_streak"`
	LastWeekWithTier    *time.Time `json:"last_week_with_tier,omitempty"`
}

// HistoryFor summarizes weekly rewards. A tier streak counts consecutive
// tiered weeks; it is current only if the latest tiered week is this week or
// last week.
func HistoryFor(rewards []model.WeeklyReward, now time.Time) History {
	var h History
	var tiered []time.Time
	for _, r := range rewards {
		h.TotalPointsAllTime += r.TotalPoints
		if r.WeekEnd.Before(now) {
			h.TotalWeeksCompleted++
		}
		switch r.Tier {
		case model.TierBronze:
			h.BronzeTiersEarned++
		case model.TierSilver:
			h.SilverTiersEarned++
		case model.TierGold:
			h.GoldTiersEarned++
		case model.TierPlatinum:
			h.PlatinumTiersEarned++
		default:
			continue
		}
		tiered = append(tiered, r.WeekStart)
	}
	if len(tiered) == 0 {
		return h
	}

	sort.Slice(tiered, func(i, j int) bool { return tiered[i].Before(tiered[j]) })
	run := 1
	h.LongestStreak = 1
	for i := 1; i < len(tiered); i++ {
		if consecutiveWeeks(tiered[i-1], tiered[i]) {
			run++
		} else {
			run = 1
		}
		h.LongestStreak = max(h.LongestStreak, run)
	}

	last := tiered[len(tiered)-1]
	h.LastWeekWithTier = &last
	thisWeek, _ := WeekBounds(now)
	if !last.Before(thisWeek.AddDate(0, 0, -7)) {
		h.CurrentStreak = run
	}
	return h
}

// consecutiveWeeks compares calendar dates so DST shifts do not matter.
func consecutiveWeeks(a, b time.Time) bool {
	next := a.AddDate(0, 0, 7)
	return next.Year() == b.Year() && next.YearDay() == b.YearDay()
}
