package achievement

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dukerupert/focuspal/internal/model"
	"github.com/dukerupert/focuspal/internal/streak"
)

// EarlyBirdHour is the local hour before which a start counts as early.
const EarlyBirdHour = 8

// Stats holds a child's cumulative counters.
type Stats struct {
	CurrentStreak       int            `json:"current_streak"`
	CategoryMinutes     map[string]int `json:"category_minutes"`
	BalancedDays        int            `json:"balanced_days"`
	EarlyStarts         int            `json:"early_starts"`
	CompletedActivities int            `json:"completed_activities"`
}

// Value returns the counter's current value. Category minute counters match
// on category names containing the keyword, case-insensitively.
func (s Stats) Value(c Counter) int {
	switch c {
	case CounterStreakDays:
		return s.CurrentStreak
	case CounterHomeworkMinutes:
		return s.minutesMatching("homework")
	case CounterReadingMinutes:
		return s.minutesMatching("reading")
	case CounterBalancedDays:
		return s.BalancedDays
	case CounterEarlyStarts:
		return s.EarlyStarts
	case CounterTimedActivities:
		return s.CompletedActivities
	}
	return 0
}

func (s Stats) minutesMatching(keyword string) int {
	total := 0
	for name, minutes := range s.CategoryMinutes {
		if strings.Contains(strings.ToLower(name), keyword) {
			total += minutes
		}
	}
	return total
}

// StatsFrom derives counters from a child's full activity history. today
// fixes both the streak end and the location used for calendar days.
func StatsFrom(activities []model.Activity, categories []model.Category, today time.Time) Stats {
	loc := today.Location()
	byID := make(map[string]model.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	s := Stats{
		CurrentStreak:   streak.Current(streak.ActivityDays(activities, loc), today),
		CategoryMinutes: make(map[string]int),
	}

	weekStart := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, -6)
	taskDays := make(map[string]bool)
	rewardDays := make(map[string]bool)

	for _, a := range activities {
		start := a.StartTime.In(loc)
		if start.Hour() < EarlyBirdHour {
			s.EarlyStarts++
		}
		if !a.IsComplete {
			continue
		}
		if !a.IsManualEntry {
			s.CompletedActivities++
		}

		cat, ok := byID[a.CategoryID]
		if !ok {
			continue
		}
		s.CategoryMinutes[cat.Name] += a.DurationMinutes()

		if start.Before(weekStart) {
			continue
		}
		day := start.Format(model.CompletedDateLayout)
		if cat.CategoryType == model.CategoryTypeReward {
			rewardDays[day] = true
		} else {
			taskDays[day] = true
		}
	}

	// A balanced day has at least one completed task and one completed reward.
	for day := range taskDays {
		if rewardDays[day] {
			s.BalancedDays++
		}
	}
	return s
}

// ProgressPercentage is progress over target capped at 100. A zero target
// yields 0.
func ProgressPercentage(progress, target int) float64 {
	if target <= 0 {
		return 0
	}
	return math.Min(100, float64(progress)/float64(target)*100)
}

type Result struct {
	Achievement   model.Achievement `json:"achievement"`
	Type          Type              `json:"type"`
	Percentage    float64           `json:"percentage"`
	NewlyUnlocked bool              `json:"newly_unlocked"`
}

// Evaluate computes progress for every catalog type. Existing unlocks are
// never cleared and their progress never decreases. New unlocks are stamped
// with now.
func Evaluate(childID string, stats Stats, existing []model.Achievement, now time.Time) []Result {
	byKey := make(map[string]model.Achievement, len(existing))
	for _, a := range existing {
		byKey[a.TypeKey] = a
	}

	results := make([]Result, 0, len(Catalog))
	for _, t := range Catalog {
		a, ok := byKey[t.Key]
		if !ok {
			a = model.Achievement{ChildID: childID, TypeKey: t.Key}
		}
		if a.TargetValue == 0 {
			a.TargetValue = t.Target
		}

		value := stats.Value(t.Counter)
		newly := false
		if a.IsUnlocked() {
			if value > a.Progress {
				a.Progress = value
			}
		} else {
			a.Progress = value
			if a.Progress >= a.TargetValue {
				unlocked := now
				a.UnlockedDate = &unlocked
				newly = true
			}
		}

		results = append(results, Result{
			Achievement:   a,
			Type:          t,
			Percentage:    ProgressPercentage(a.Progress, a.TargetValue),
			NewlyUnlocked: newly,
		})
	}
	return results
}

// UnlockMessage is the notification body announcing an unlock.
func UnlockMessage(childName string, t Type) string {
	return fmt.Sprintf("%s earned '%s': %s", childName, t.Name, t.Description)
}
