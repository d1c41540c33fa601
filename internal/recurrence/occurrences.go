package recurrence

import "time"

// maxSteps bounds every walk over a rule.
const maxSteps = 10000

// walk calls fn with each occurrence start in order, beginning with first,
// until fn returns false, the rule ends, or maxSteps is reached.
func walk(r Rule, first time.Time, fn func(time.Time) bool) {
	interval := max(r.Interval, 1)
	var until time.Time
	if r.Until != nil {
		u := *r.Until
		until = time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, first.Location()).AddDate(0, 0, 1)
	}
	emit := func(t time.Time) bool {
		if !until.IsZero() && !t.Before(until) {
			return false
		}
		return fn(t)
	}

	switch {
	case r.Freq == Weekly && len(r.Days) > 0:
		monday := first.AddDate(0, 0, -mondayOffset(first.Weekday()))
		steps := 0
		for week := 0; steps < maxSteps; week += interval {
			base := monday.AddDate(0, 0, 7*week)
			for _, d := range r.Days {
				steps++
				t := base.AddDate(0, 0, mondayOffset(d))
				if t.Before(first) {
					continue
				}
				if !emit(t) {
					return
				}
			}
		}

	case r.Freq == Monthly:
		for n := 0; n < maxSteps; n++ {
			if !emit(addMonthsClamped(first, n*interval)) {
				return
			}
		}

	default:
		step := interval
		if r.Freq == Weekly {
			step = 7 * interval
		}
		for n := 0; n < maxSteps; n++ {
			if !emit(first.AddDate(0, 0, n*step)) {
				return
			}
		}
	}
}

// addMonthsClamped keeps the day of month, using the last day when the
// target month is shorter.
func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	target := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysIn(target.Year(), target.Month()); d > last {
		d = last
	}
	return time.Date(target.Year(), target.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Between returns occurrence starts in [from, to).
func Between(r Rule, first, from, to time.Time) []time.Time {
	var out []time.Time
	walk(r, first, func(t time.Time) bool {
		if !t.Before(to) {
			return false
		}
		if !t.Before(from) {
			out = append(out, t)
		}
		return true
	})
	return out
}

// OccursOn reports whether an occurrence falls on the calendar day of day.
func OccursOn(r Rule, first, day time.Time) bool {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return len(Between(r, first, start, start.AddDate(0, 0, 1))) > 0
}

// Next returns the first occurrence at or after after.
func Next(r Rule, first, after time.Time) (time.Time, bool) {
	var next time.Time
	walk(r, first, func(t time.Time) bool {
		if t.Before(after) {
			return true
		}
		next = t
		return false
	})
	return next, !next.IsZero()
}
