package timegoal

import (
	"math"

	"github.com/dukerupert/focuspal/internal/model"
)

type Status string

const (
	StatusNormal   Status = "normal"
	StatusWarning  Status = "warning"
	StatusExceeded Status = "exceeded"
)

// ShouldWarn reports whether current has reached threshold percent of
// recommended. The comparison is inclusive.
func ShouldWarn(recommended, threshold, current int) bool {
	return current*100 >= recommended*threshold
}

// IsExceeded reports whether current has reached recommended.
func IsExceeded(recommended, current int) bool {
	return current >= recommended
}

// ProgressPercentage is current over recommended capped at 100. A zero
// recommendation yields 0.
func ProgressPercentage(recommended, current int) float64 {
	if recommended <= 0 {
		return 0
	}
	return math.Min(100, float64(current)/float64(recommended)*100)
}

type Evaluation struct {
	Goal           model.TimeGoal `json:"goal"`
	CurrentMinutes int            `json:"current_minutes"`
	ShouldWarn     bool           `json:"should_warn"`
	IsExceeded     bool           `json:"is_exceeded"`
	Percentage     float64        `json:"percentage"`
	Status         Status         `json:"status"`
}

// Evaluate applies the goal to the minutes used so far today.
func Evaluate(goal model.TimeGoal, currentMinutes int) Evaluation {
	threshold := goal.WarningThreshold
	if threshold <= 0 {
		threshold = model.DefaultWarningThreshold
	}

	e := Evaluation{
		Goal:           goal,
		CurrentMinutes: currentMinutes,
		ShouldWarn:     ShouldWarn(goal.RecommendedMinutes, threshold, currentMinutes),
		IsExceeded:     IsExceeded(goal.RecommendedMinutes, currentMinutes),
		Percentage:     ProgressPercentage(goal.RecommendedMinutes, currentMinutes),
		Status:         StatusNormal,
	}
	switch {
	case e.IsExceeded:
		e.Status = StatusExceeded
	case e.ShouldWarn:
		e.Status = StatusWarning
	}
	return e
}

// MinutesByCategory sums activity minutes per category ID.
func MinutesByCategory(activities []model.Activity) map[string]int {
	out := make(map[string]int)
	for _, a := range activities {
		out[a.CategoryID] += a.DurationMinutes()
	}
	return out
}
