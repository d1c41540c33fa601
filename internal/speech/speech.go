// Package speech renders streak and focus-time totals as short spoken
// responses for voice assistants.
package speech

import (
	"fmt"
	"time"
)

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// FormatDuration renders whole minutes, e.g. "1 hour and 5 minutes".
func FormatDuration(d time.Duration) string {
	total := int(d / time.Minute)
	hours, minutes := total/60, total%60
	switch {
	case hours > 0 && minutes > 0:
		return plural(hours, "hour") + " and " + plural(minutes, "minute")
	case hours > 0:
		return plural(hours, "hour")
	case minutes > 0:
		return plural(minutes, "minute")
	default:
		return "0 minutes"
	}
}

func FormatStreak(days int) string {
	if days <= 0 {
		return "no streak yet"
	}
	return plural(days, "day")
}

// StreakDialog answers "what's my streak". An empty name addresses the
// household as a whole.
func StreakDialog(name string, days int) string {
	if days <= 0 {
		if name != "" {
			return name + " doesn't have a streak yet. Log an activity today to start one!"
		}
		return "No streak yet. Log an activity today to start one!"
	}

	subject := "Your"
	if name != "" {
		subject = name + "'s"
	}
	streak := FormatStreak(days)
	switch {
	case days >= 7:
		return fmt.Sprintf("Amazing! %s current streak is %s! Keep up the great work!", subject, streak)
	case days >= 3:
		return fmt.Sprintf("Nice! %s current streak is %s. Keep going!", subject, streak)
	default:
		return fmt.Sprintf("%s current streak is %s. Great start!", subject, streak)
	}
}

// TodayTimeDialog answers "how long did I focus today".
func TodayTimeDialog(name string, total time.Duration) string {
	if total < time.Minute {
		if name != "" {
			return name + " hasn't logged any focus time today. Start a timer to begin!"
		}
		return "No focus time logged today. Start a timer to begin!"
	}
	if name != "" {
		return fmt.Sprintf("%s has focused for %s today. Great job!", name, FormatDuration(total))
	}
	return fmt.Sprintf("Total focus time today is %s. Keep it up!", FormatDuration(total))
}
