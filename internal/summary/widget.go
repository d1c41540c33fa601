package summary

import (
	"sort"
	"time"

	"github.com/dukerupert/focuspal/internal/model"
)

const (
	recentActivityCount = 5
	quickStartCount     = 3
)

type QuickStart struct {
	CategoryID         string `json:"category_id"`
	Name               string `json:"name"`
	Icon               string `json:"icon"`
	ColorHex           string `json:"color_hex"`
	RecommendedMinutes int    `json:"recommended_minutes"`
}

type RecentActivity struct {
	ID           string    `json:"id"`
	CategoryName string    `json:"category_name"`
	Icon         string    `json:"icon"`
	ColorHex     string    `json:"color_hex"`
	Minutes      int       `json:"minutes"`
	StartTime    time.Time `json:"start_time"`
	IsComplete   bool      `json:"is_complete"`
}

// Snapshot is the flattened view served to home screen widgets.
type Snapshot struct {
	ChildName         string            `json:"child_name"`
	ChildID           string            `json:"child_id,omitempty"`
	CurrentStreak     int               `json:"current_streak"`
	TodayTotalMinutes int               `json:"today_total_minutes"`
	TodayCategories   []CategoryMinutes `json:"today_categories"`
	QuickStart        []QuickStart      `json:"quick_start"`
	WeeklyMinutes     [7]int            `json:"weekly_minutes"`
	RecentActivities  []RecentActivity  `json:"recent_activities"`
	TotalPoints       int               `json:"total_points"`
	LastUpdated       time.Time         `json:"last_updated"`
}

// EmptySnapshot is served when no child profile exists.
func EmptySnapshot(now time.Time) Snapshot {
	return Snapshot{ChildName: "No Profile", LastUpdated: now}
}

// BuildSnapshot projects a child's recent activities into a widget snapshot.
// WeeklyMinutes[0] is six days before now and WeeklyMinutes[6] is today.
func BuildSnapshot(child model.Child, activities []model.Activity, categories []model.Category, currentStreak, totalPoints int, now time.Time) Snapshot {
	s := Snapshot{
		ChildName:     child.Name,
		ChildID:       child.ID,
		CurrentStreak: currentStreak,
		TotalPoints:   totalPoints,
		LastUpdated:   now,
	}

	byID := make(map[string]model.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	var todays []model.Activity
	for _, a := range activities {
		start := a.StartTime.In(loc)
		day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
		offset := int(today.Sub(day).Hours()+12) / 24
		if offset < 0 || offset > 6 {
			continue
		}
		s.WeeklyMinutes[6-offset] += a.DurationMinutes()
		if offset == 0 {
			todays = append(todays, a)
			s.TodayTotalMinutes += a.DurationMinutes()
		}
	}

	for _, cm := range topCategories(todays, byID, len(todays)) {
		if cm.Minutes > 0 {
			s.TodayCategories = append(s.TodayCategories, cm)
		}
	}

	active := make([]model.Category, 0, len(categories))
	for _, c := range categories {
		if c.IsActive {
			active = append(active, c)
		}
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].SortOrder < active[j].SortOrder })
	for i, c := range active {
		if i == quickStartCount {
			break
		}
		s.QuickStart = append(s.QuickStart, QuickStart{
			CategoryID:         c.ID,
			Name:               c.Name,
			Icon:               c.Icon,
			ColorHex:           c.ColorHex,
			RecommendedMinutes: int(c.RecommendedDuration() / time.Minute),
		})
	}

	recent := append([]model.Activity(nil), activities...)
	sort.Slice(recent, func(i, j int) bool { return recent[i].StartTime.After(recent[j].StartTime) })
	for i, a := range recent {
		if i == recentActivityCount {
			break
		}
		ra := RecentActivity{
			ID:           a.ID,
			CategoryName: "Unknown",
			Minutes:      a.DurationMinutes(),
			StartTime:    a.StartTime,
			IsComplete:   a.IsComplete,
		}
		if c, ok := byID[a.CategoryID]; ok {
			ra.CategoryName, ra.Icon, ra.ColorHex = c.Name, c.Icon, c.ColorHex
		}
		s.RecentActivities = append(s.RecentActivities, ra)
	}
	return s
}
