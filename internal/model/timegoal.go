package model

import "time"

// DefaultWarningThreshold is the percentage of the recommended time at which
// a warning is raised.
const DefaultWarningThreshold = 80

type TimeGoal struct {
	ID                 string    `json:"id"`
	ChildID            string    `json:"child_id"`
	CategoryID         string    `json:"category_id"`
	RecommendedMinutes int       `json:"recommended_minutes"`
	WarningThreshold   int       `json:"warning_threshold"`
	IsActive           bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
}
