package daily

import "math"

type BalanceLevel string

const (
	BalanceExcellent        BalanceLevel = "excellent"
	BalanceGood             BalanceLevel = "good"
	BalanceFair             BalanceLevel = "fair"
	BalanceNeedsImprovement BalanceLevel = "needs_improvement"
)

// LevelFor buckets a 0-100 score.
func LevelFor(score int) BalanceLevel {
	switch {
	case score >= 80:
		return BalanceExcellent
	case score >= 60:
		return BalanceGood
	case score >= 40:
		return BalanceFair
	default:
		return BalanceNeedsImprovement
	}
}

func (l BalanceLevel) Label() string {
	switch l {
	case BalanceExcellent:
		return "Excellent"
	case BalanceGood:
		return "Good"
	case BalanceFair:
		return "Fair"
	default:
		return "Needs Improvement"
	}
}

func (l BalanceLevel) Color() string {
	switch l {
	case BalanceExcellent:
		return "#4CAF50"
	case BalanceGood:
		return "#8BC34A"
	case BalanceFair:
		return "#FFC107"
	default:
		return "#FF5722"
	}
}

// Balance rates how evenly a day's minutes are spread across categories.
type Balance struct {
	Score     int            `json:"score"`
	Level     BalanceLevel   `json:"level"`
	Label     string         `json:"label"`
	Color     string         `json:"color"`
	Breakdown map[string]int `json:"breakdown"`
}

// BalanceScore scores the day as 100 * (1 - cv) clamped to 0..100, where cv
// is the coefficient of variation of minutes per category. A day with no
// logged minutes scores 0.
func BalanceScore(s Summary) Balance {
	minutes := make(map[string]int)
	var order []string
	for _, it := range s.Items {
		id := it.Activity.CategoryID
		if _, seen := minutes[id]; !seen {
			order = append(order, id)
		}
		minutes[id] += it.Activity.DurationMinutes()
	}

	total := 0
	for _, m := range minutes {
		total += m
	}
	if len(order) == 0 || total == 0 {
		return newBalance(0, map[string]int{})
	}

	avg := float64(total) / float64(len(order))
	variance := 0.0
	for _, id := range order {
		d := float64(minutes[id]) - avg
		variance += d * d
	}
	variance /= float64(len(order))
	cv := math.Sqrt(variance) / avg

	score := int(100 * (1 - cv))
	score = max(0, min(100, score))

	breakdown := make(map[string]int, len(order))
	for _, it := range s.Items {
		breakdown[it.CategoryName] += it.Activity.DurationMinutes()
	}
	return newBalance(score, breakdown)
}

func newBalance(score int, breakdown map[string]int) Balance {
	level := LevelFor(score)
	return Balance{
		Score:     score,
		Level:     level,
		Label:     level.Label(),
		Color:     level.Color(),
		Breakdown: breakdown,
	}
}
