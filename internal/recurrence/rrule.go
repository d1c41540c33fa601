package recurrence

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

type Freq int

const (
	Daily Freq = iota
	Weekly
	Monthly
)

var freqNames = map[Freq]string{
	Daily:   "DAILY",
	Weekly:  "WEEKLY",
	Monthly: "MONTHLY",
}

var freqFromName = map[string]Freq{
	"DAILY":   Daily,
	"WEEKLY":  Weekly,
	"MONTHLY": Monthly,
}

var dayNames = map[string]time.Weekday{
	"SU": time.Sunday,
	"MO": time.Monday,
	"TU": time.Tuesday,
	"WE": time.Wednesday,
	"TH": time.Thursday,
	"FR": time.Friday,
	"SA": time.Saturday,
}

var dayAbbrev = map[time.Weekday]string{
	time.Sunday:    "SU",
	time.Monday:    "MO",
	time.Tuesday:   "TU",
	time.Wednesday: "WE",
	time.Thursday:  "TH",
	time.Friday:    "FR",
	time.Saturday:  "SA",
}

const untilLayout = "20060102"

// Rule is how a scheduled task repeats. It is stored as an RRULE subset,
// e.g. "FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,WE;UNTIL=20260630".
type Rule struct {
	Freq     Freq
	Interval int            // default 1
	Days     []time.Weekday // weekly only; empty means the first occurrence's weekday
	Until    *time.Time     // last day with an occurrence, inclusive
}

func Parse(rule string) (Rule, error) {
	if rule == "" {
		return Rule{}, fmt.Errorf("empty rule")
	}

	r := Rule{Interval: 1}
	var hasFreq bool
	for _, part := range strings.Split(rule, ";") {
		key, val, ok := strings.Cut(part, "=")
		if !ok {
			return Rule{}, fmt.Errorf("invalid rule part: %q", part)
		}

		switch key {
		case "FREQ":
			f, ok := freqFromName[val]
			if !ok {
				return Rule{}, fmt.Errorf("unknown frequency: %q", val)
			}
			r.Freq = f
			hasFreq = true

		case "INTERVAL":
			n, err := strconv.Atoi(val)
			if err != nil || n < 1 {
				return Rule{}, fmt.Errorf("invalid interval: %q", val)
			}
			r.Interval = n

		case "BYDAY":
			seen := make(map[time.Weekday]bool)
			for _, d := range strings.Split(val, ",") {
				wd, ok := dayNames[strings.TrimSpace(d)]
				if !ok {
					return Rule{}, fmt.Errorf("unknown day: %q", d)
				}
				if !seen[wd] {
					seen[wd] = true
					r.Days = append(r.Days, wd)
				}
			}
			sortMondayFirst(r.Days)

		case "UNTIL":
			t, err := time.Parse(untilLayout, val)
			if err != nil {
				return Rule{}, fmt.Errorf("invalid UNTIL: %q", val)
			}
			r.Until = &t

		default:
			return Rule{}, fmt.Errorf("unsupported rule key: %q", key)
		}
	}

	if !hasFreq {
		return Rule{}, fmt.Errorf("FREQ is required")
	}
	if len(r.Days) > 0 && r.Freq != Weekly {
		return Rule{}, fmt.Errorf("BYDAY requires FREQ=WEEKLY")
	}
	return r, nil
}

func (r Rule) String() string {
	parts := []string{"FREQ=" + freqNames[r.Freq]}
	if r.Interval > 1 {
		parts = append(parts, fmt.Sprintf("INTERVAL=%d", r.Interval))
	}
	if len(r.Days) > 0 {
		days := make([]string, len(r.Days))
		for i, d := range r.Days {
			days[i] = dayAbbrev[d]
		}
		parts = append(parts, "BYDAY="+strings.Join(days, ","))
	}
	if r.Until != nil {
		parts = append(parts, "UNTIL="+r.Until.Format(untilLayout))
	}
	return strings.Join(parts, ";")
}

// Describe returns the label shown next to a recurring task.
func (r Rule) Describe() string {
	switch r.Freq {
	case Daily:
		if r.Interval > 1 {
			return fmt.Sprintf("Every %d days", r.Interval)
		}
		return "Daily"
	case Weekly:
		if len(r.Days) > 0 {
			names := make([]string, len(r.Days))
			for i, d := range r.Days {
				names[i] = d.String()[:3]
			}
			return "Weekly on " + strings.Join(names, ", ")
		}
		if r.Interval > 1 {
			return fmt.Sprintf("Every %d weeks", r.Interval)
		}
		return "Weekly"
	case Monthly:
		if r.Interval > 1 {
			return fmt.Sprintf("Every %d months", r.Interval)
		}
		return "Monthly"
	}
	return ""
}

func sortMondayFirst(days []time.Weekday) {
	sort.Slice(days, func(i, j int) bool { return mondayOffset(days[i]) < mondayOffset(days[j]) })
}

func mondayOffset(d time.Weekday) int {
	return (int(d) + 6) % 7
}
