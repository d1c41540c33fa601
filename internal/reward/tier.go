package reward

import (
	"math"

	"github.com/dukerupert/focuspal/internal/model"
)

type TierInfo struct {
	Tier           model.RewardTier `json:"tier"`
	Name           string           `json:"name"`
	PointsRequired int              `json:"points_required"`
	Emoji          string           `json:"emoji"`
	ColorHex       string           `json:"color_hex"`
	Description    string           `json:"description"`
}

// Tiers is ordered by ascending threshold.
var Tiers = []TierInfo{
	{model.TierBronze, "Bronze", 100, "🥉", "#CD7F32", "Great start! Keep building your focus habits."},
	{model.TierSilver, "Silver", 250, "🥈", "#C0C0C0", "Impressive focus! You're developing strong habits."},
	{model.TierGold, "Gold", 500, "🥇", "#FFD700", "Outstanding achievement! Your dedication is shining."},
	{model.TierPlatinum, "Platinum", 1000, "💎", "#E5E4E2", "Elite performer! You've mastered the art of focus."},
}

// TierFor returns the highest tier reached by points, or "" when below bronze.
func TierFor(points int) model.RewardTier {
	var tier model.RewardTier
	for _, t := range Tiers {
		if points >= t.PointsRequired {
			tier = t.Tier
		}
	}
	return tier
}

func Info(tier model.RewardTier) (TierInfo, bool) {
	for _, t := range Tiers {
		if t.Tier == tier {
			return t, true
		}
	}
	return TierInfo{}, false
}

// Next returns the tier after tier. The tier after "" is bronze; platinum has none.
func Next(tier model.RewardTier) (TierInfo, bool) {
	if tier == "" {
		return Tiers[0], true
	}
	for i, t := range Tiers {
		if t.Tier == tier && i+1 < len(Tiers) {
			return Tiers[i+1], true
		}
	}
	return TierInfo{}, false
}

type Progress struct {
	NextTier         model.RewardTier `json:"next_tier,omitempty"`
	PointsToNextTier int              `json:"points_to_next_tier"`
	Percentage       float64          `json:"percentage"`
}

// ProgressFor measures a week's progress from its current tier threshold to
// the next one. At platinum the percentage is 100.
func ProgressFor(r model.WeeklyReward) Progress {
	next, ok := Next(r.Tier)
	if !ok {
		return Progress{Percentage: 100}
	}
	prev := 0
	if info, ok := Info(r.Tier); ok {
		prev = info.PointsRequired
	}
	span := next.PointsRequired - prev
	pct := float64(r.TotalPoints-prev) / float64(span) * 100
	return Progress{
		NextTier:         next.Tier,
		PointsToNextTier: max(0, next.PointsRequired-r.TotalPoints),
		Percentage:       math.Max(0, math.Min(100, pct)),
	}
}
