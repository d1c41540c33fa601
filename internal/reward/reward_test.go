package reward

import (
	"errors"
	"testing"
	"time"

	"github.com/dukerupert/focuspal/internal/model"
)

func TestTierFor(t *testing.T) {
	tests := []struct {
		points int
		want   model.RewardTier
	}{
		{0, ""},
		{99, ""},
		{100, model.TierBronze},
		{249, model.TierBronze},
		{250, model.TierSilver},
		{500, model.TierGold},
		{999, model.TierGold},
		{1000, model.TierPlatinum},
		{5000, model.TierPlatinum},
	}
	for _, tt := range tests {
		if got := TierFor(tt.points); got != tt.want {
			t.Errorf("TierFor(%d) = %q, want %q", tt.points, got, tt.want)
		}
	}
}

func TestProgressFor(t *testing.T) {
	tests := []struct {
		name    string
		points  int
		next    model.RewardTier
		toNext  int
		wantPct float64
	}{
		{"no tier", 50, model.TierBronze, 50, 50},
		{"bronze", 175, model.TierSilver, 75, 50},
		{"gold", 750, model.TierPlatinum, 250, 50},
		{"platinum", 1200, "", 0, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := model.WeeklyReward{TotalPoints: tt.points, Tier: TierFor(tt.points)}
			p := ProgressFor(r)
			if p.NextTier != tt.next || p.PointsToNextTier != tt.toNext || p.Percentage != tt.wantPct {
				t.Errorf("ProgressFor(%d) = %+v", tt.points, p)
			}
		})
	}
}

func TestWeekBounds(t *testing.T) {
	// 2026-03-11 is a Wednesday.
	start, end := WeekBounds(time.Date(2026, 3, 11, 15, 30, 0, 0, time.UTC))
	if !start.Equal(time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v, want Monday 2026-03-09", start)
	}
	if end.Weekday() != time.Sunday || end.Day() != 15 {
		t.Errorf("end = %v, want Sunday 2026-03-15", end)
	}

	// Sunday belongs to the week that started the previous Monday.
	start, _ = WeekBounds(time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC))
	if start.Day() != 9 {
		t.Errorf("Sunday start = %v, want 2026-03-09", start)
	}
}

func TestSetTotal(t *testing.T) {
	r := model.WeeklyReward{TotalPoints: 90}
	SetTotal(&r, 105)
	if r.TotalPoints != 105 || r.Tier != model.TierBronze {
		t.Errorf("reward = %+v", r)
	}
	SetTotal(&r, -20)
	if r.TotalPoints != 0 || r.Tier != "" {
		t.Errorf("negative total reward = %+v", r)
	}
}

func TestRedeem(t *testing.T) {
	now := time.Date(2026, 3, 16, 8, 0, 0, 0, time.UTC)
	if err := Redeem(nil, now); !errors.Is(err, ErrRewardNotFound) {
		t.Errorf("Redeem(nil) err = %v", err)
	}

	r := &model.WeeklyReward{TotalPoints: 300, Tier: model.TierSilver}
	if err := Redeem(r, now); err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	if !r.IsRedeemed || r.RedeemedDate == nil {
		t.Errorf("reward = %+v", r)
	}
	if err := Redeem(r, now); !errors.Is(err, ErrAlreadyRedeemed) {
		t.Errorf("second Redeem err = %v", err)
	}

	untiered := &model.WeeklyReward{TotalPoints: 60}
	if err := Redeem(untiered, now); !errors.Is(err, ErrNoTier) {
		t.Errorf("Redeem(no tier) err = %v, want ErrNoTier", err)
	}
	if untiered.IsRedeemed || untiered.RedeemedDate != nil {
		t.Errorf("untiered week was redeemed: %+v", untiered)
	}
}

func week(monday time.Time, pts int) model.WeeklyReward {
	start, end := WeekBounds(monday)
	return model.WeeklyReward{WeekStart: start, WeekEnd: end, TotalPoints: pts, Tier: TierFor(pts)}
}

func TestHistoryFor(t *testing.T) {
	mon := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	now := mon.AddDate(0, 0, 2)
	rewards := []model.WeeklyReward{
		week(mon.AddDate(0, 0, -35), 120), // bronze, isolated
		week(mon.AddDate(0, 0, -21), 50),  // no tier
		week(mon.AddDate(0, 0, -14), 300), // silver
		week(mon.AddDate(0, 0, -7), 600),  // gold
		week(mon, 1100),                   // platinum, this week
	}

	h := HistoryFor(rewards, now)
	if h.BronzeTiersEarned != 1 || h.SilverTiersEarned != 1 || h.GoldTiersEarned != 1 || h.PlatinumTiersEarned != 1 {
		t.Errorf("tier counts = %+v", h)
	}
	if h.TotalPointsAllTime != 2170 {
		t.Errorf("TotalPointsAllTime = %d, want 2170", h.TotalPointsAllTime)
	}
	if h.TotalWeeksCompleted != 4 {
		t.Errorf("TotalWeeksCompleted = %d, want 4", h.TotalWeeksCompleted)
	}
	if h.LongestStreak != 3 || h.CurrentStreak != 3 {
		t.Errorf("streaks = longest %d current %d, want 3/3", h.LongestStreak, h.CurrentStreak)
	}
}

func TestHistoryStreakLapses(t *testing.T) {
	mon := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	rewards := []model.WeeklyReward{
		week(mon.AddDate(0, 0, -28), 300),
		week(mon.AddDate(0, 0, -21), 300),
	}
	h := HistoryFor(rewards, mon.AddDate(0, 0, 1))
	if h.LongestStreak != 2 {
		t.Errorf("LongestStreak = %d, want 2", h.LongestStreak)
	}
	if h.CurrentStreak != 0 {
		t.Errorf("CurrentStreak = %d, want 0", h.CurrentStreak)
	}
}
