package model

import "time"

type RewardTier string

const (
	TierBronze   RewardTier = "bronze"
	TierSilver   RewardTier = "silver"
	TierGold     RewardTier = "gold"
	TierPlatinum RewardTier = "platinum"
)

// WeeklyReward tracks points for one Monday-to-Sunday week. Tier is empty
// until the bronze threshold is reached.
type WeeklyReward struct {
	ID           string     `json:"id"`
	ChildID      string     `json:"child_id"`
	WeekStart    time.Time  `json:"week_start"`
	WeekEnd      time.Time  `json:"week_end"`
	TotalPoints  int        `json:"total_points"`
	Tier         RewardTier `json:"tier,omitempty"`
	IsRedeemed   bool       `json:"is_redeemed"`
	RedeemedDate *time.Time `json:"redeemed_date,omitempty"`
}
