package daily

import (
	"sort"
	"time"

	"github.com/dukerupert/focuspal/internal/model"
	"github.com/dukerupert/focuspal/internal/points"
)

// Placeholder display values for activities whose category is not in the catalog.
const (
	UnknownCategoryName  = "Unknown"
	UnknownCategoryIcon  = "circle.fill"
	UnknownCategoryColor = "#888888"
)

// Item is one activity as shown on the daily task list.
type Item struct {
	Activity          model.Activity   `json:"activity"`
	CategoryName      string           `json:"category_name"`
	CategoryIcon      string           `json:"category_icon"`
	CategoryColor     string           `json:"category_color"`
	Points            points.Breakdown `json:"points"`
	NetPoints         int              `json:"net_points"`
	PointsDescription string           `json:"points_description"`
}

type Summary struct {
	Items           []Item `json:"items"`
	TotalEarned     int    `json:"total_earned"`
	TotalDeducted   int    `json:"total_deducted"`
	TotalBonus      int    `json:"total_bonus"`
	NetPoints       int    `json:"net_points"`
	IsPositiveDay   bool   `json:"is_positive_day"`
	CompletedCount  int    `json:"completed_count"`
	IncompleteCount int    `json:"incomplete_count"`
	TotalMinutes    int    `json:"total_minutes"`
}

// Aggregate builds the day view for a set of activities. Items are ordered
// newest first.
func Aggregate(activities []model.Activity, categories []model.Category) Summary {
	byID := make(map[string]model.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	s := Summary{Items: make([]Item, 0, len(activities))}
	for _, a := range activities {
		item := Item{
			Activity:      a,
			CategoryName:  UnknownCategoryName,
			CategoryIcon:  UnknownCategoryIcon,
			CategoryColor: UnknownCategoryColor,
		}

		var cat *model.Category
		if c, ok := byID[a.CategoryID]; ok {
			cat = &c
			item.CategoryName = c.Name
			item.CategoryIcon = c.Icon
			item.CategoryColor = c.ColorHex
		}

		item.Points = points.ForActivity(a, cat)
		item.NetPoints = item.Points.Net()
		item.PointsDescription = item.Points.Describe()

		s.TotalEarned += item.Points.Earned
		s.TotalBonus += item.Points.Bonus
		s.TotalDeducted += item.Points.Deducted
		s.TotalMinutes += a.DurationMinutes()
		if a.IsComplete {
			s.CompletedCount++
		} else {
			s.IncompleteCount++
		}

		s.Items = append(s.Items, item)
	}

	sort.SliceStable(s.Items, func(i, j int) bool {
		return s.Items[i].Activity.StartTime.After(s.Items[j].Activity.StartTime)
	})

	s.NetPoints = s.TotalEarned + s.TotalBonus - s.TotalDeducted
	s.IsPositiveDay = s.NetPoints > 0
	return s
}

// Bounds returns the start of day and start of the next day for t in its location.
func Bounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}
