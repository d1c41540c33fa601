package summary

import (
	"sort"
	"time"

	"github.com/dukerupert/focuspal/internal/achievement"
	"github.com/dukerupert/focuspal/internal/model"
	"github.com/dukerupert/focuspal/internal/points"
	"github.com/dukerupert/focuspal/internal/reward"
)

const topCategoryCount = 3

type CategoryMinutes struct {
	CategoryID string `json:"category_id"`
	Name       string `json:"name"`
	Icon       string `json:"icon"`
	ColorHex   string `json:"color_hex"`
	Minutes    int    `json:"minutes"`
}

type Weekly struct {
	ChildID              string             `json:"child_id"`
	ChildName            string             `json:"child_name"`
	WeekStart            time.Time          `json:"week_start"`
	WeekEnd              time.Time          `json:"week_end"`
	TotalActivities      int                `json:"total_activities"`
	CompletedActivities  int                `json:"completed_activities"`
	IncompleteActivities int                `json:"incomplete_activities"`
	TotalMinutes         int                `json:"total_minutes"`
	PointsEarned         int                `json:"points_earned"`
	PointsDeducted       int                `json:"points_deducted"`
	NetPoints            int                `json:"net_points"`
	Tier                 model.RewardTier   `json:"tier,omitempty"`
	TopCategories        []CategoryMinutes  `json:"top_categories"`
	AchievementsUnlocked []achievement.Type `json:"achievements_unlocked"`
	CurrentStreak        int                `json:"current_streak"`
}

// CompletionRate is the completed share of activities in percent.
func (w Weekly) CompletionRate() float64 {
	if w.TotalActivities == 0 {
		return 0
	}
	return float64(w.CompletedActivities) / float64(w.TotalActivities) * 100
}

func (w Weekly) AverageMinutesPerActivity() int {
	if w.TotalActivities == 0 {
		return 0
	}
	return w.TotalMinutes / w.TotalActivities
}

// BuildWeekly summarizes the week containing weekOf. activities may include
// entries outside the week; they are ignored.
func BuildWeekly(child model.Child, weekOf time.Time, activities []model.Activity, categories []model.Category, achievements []model.Achievement, currentStreak int) Weekly {
	start, end := reward.WeekBounds(weekOf)
	w := Weekly{
		ChildID:       child.ID,
		ChildName:     child.Name,
		WeekStart:     start,
		WeekEnd:       end,
		CurrentStreak: currentStreak,
	}

	byID := make(map[string]model.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	var inWeek []model.Activity
	for _, a := range activities {
		if a.StartTime.Before(start) || a.StartTime.After(end) {
			continue
		}
		inWeek = append(inWeek, a)
		w.TotalActivities++
		w.TotalMinutes += a.DurationMinutes()
		if a.IsComplete {
			w.CompletedActivities++
		} else {
			w.IncompleteActivities++
		}
	}

	pts := points.ForActivities(inWeek, byID)
	w.PointsEarned = pts.Earned + pts.Bonus
	w.PointsDeducted = pts.Deducted
	w.NetPoints = pts.Net()
	w.Tier = reward.TierFor(w.NetPoints)
	w.TopCategories = topCategories(inWeek, byID, topCategoryCount)

	for _, a := range achievements {
		if a.UnlockedDate == nil || a.UnlockedDate.Before(start) || a.UnlockedDate.After(end) {
			continue
		}
		if t, ok := achievement.Lookup(a.TypeKey); ok {
			w.AchievementsUnlocked = append(w.AchievementsUnlocked, t)
		}
	}
	return w
}

func topCategories(activities []model.Activity, byID map[string]model.Category, n int) []CategoryMinutes {
	minutes := make(map[string]int)
	for _, a := range activities {
		minutes[a.CategoryID] += a.DurationMinutes()
	}

	out := make([]CategoryMinutes, 0, len(minutes))
	for id, m := range minutes {
		cm := CategoryMinutes{CategoryID: id, Name: "Unknown", Minutes: m}
		if c, ok := byID[id]; ok {
			cm.Name, cm.Icon, cm.ColorHex = c.Name, c.Icon, c.ColorHex
		}
		out = append(out, cm)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Minutes != out[j].Minutes {
			return out[i].Minutes > out[j].Minutes
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
