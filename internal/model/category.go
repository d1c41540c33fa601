package model

import "time"

type CategoryType string

const (
	CategoryTypeTask   CategoryType = "task"
	CategoryTypeReward CategoryType = "reward"
)

// DefaultRecommendedDuration applies when a category is missing or has none set.
const DefaultRecommendedDuration = 25 * time.Minute

type Category struct {
	ID                 string       `json:"id"`
	Name               string       `json:"name"`
	Icon               string       `json:"icon"`
	ColorHex           string       `json:"color_hex"`
	IsActive           bool         `json:"is_active"`
	SortOrder          int          `json:"sort_order"`
	IsSystem           bool         `json:"is_system"`
	ChildID            string       `json:"child_id"`
	RecommendedSeconds int64        `json:"recommended_seconds"`
	CategoryType       CategoryType `json:"category_type"`
	PointsMultiplier   float64      `json:"points_multiplier"`
	ParentCategoryID   *string      `json:"parent_category_id"`
}

func (c Category) RecommendedDuration() time.Duration {
	if c.RecommendedSeconds <= 0 {
		return DefaultRecommendedDuration
	}
	return time.Duration(c.RecommendedSeconds) * time.Second
}
