package streak

import (
	"time"

	"github.com/dukerupert/focuspal/internal/model"
)

// MaxLookback bounds how many days Current walks back from today.
const MaxLookback = 365

const dayLayout = "2006-01-02"

// Days is a set of calendar days. Membership is by the wall-clock date of the
// time in its own location.
type Days map[string]struct{}

func (d Days) Add(t time.Time) {
	d[t.Format(dayLayout)] = struct{}{}
}

func (d Days) Has(t time.Time) bool {
	_, ok := d[t.Format(dayLayout)]
	return ok
}

// ActivityDays collects the days, in loc, on which the activities started.
func ActivityDays(activities []model.Activity, loc *time.Location) Days {
	days := make(Days, len(activities))
	for _, a := range activities {
		days.Add(a.StartTime.In(loc))
	}
	return days
}

// Combine unions day sets, e.g. across several children.
func Combine(sets ...Days) Days {
	out := make(Days)
	for _, s := range sets {
		for k := range s {
			out[k] = struct{}{}
		}
	}
	return out
}

// Current counts consecutive days present in days, ending with today.
// It is zero when today is absent.
func Current(days Days, today time.Time) int {
	count := 0
	for offset := 0; offset < MaxLookback; offset++ {
		if !days.Has(today.AddDate(0, 0, -offset)) {
			break
		}
		count++
	}
	return count
}

// Longest returns the longest run of consecutive days in the set.
func Longest(days Days) int {
	longest := 0
	for k := range days {
		day, err := time.Parse(dayLayout, k)
		if err != nil {
			continue
		}
		// Only start counting at the first day of a run.
		if days.Has(day.AddDate(0, 0, -1)) {
			continue
		}
		run := 1
		for days.Has(day.AddDate(0, 0, run)) {
			run++
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}
