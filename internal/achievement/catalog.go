package achievement

// Counter names the cumulative statistic an achievement type tracks.
type Counter string

const (
	CounterStreakDays      Counter = "streak_days"
	CounterHomeworkMinutes Counter = "homework_minutes"
	CounterReadingMinutes  Counter = "reading_minutes"
	CounterBalancedDays    Counter = "balanced_days"
	CounterEarlyStarts     Counter = "early_starts"
	CounterTimedActivities Counter = "timed_activities"
)

type Type struct {
	Key         string  `json:"key"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	Emoji       string  `json:"emoji"`
	Target      int     `json:"target"`
	Counter     Counter `json:"counter"`
}

var Catalog = []Type{
	{Key: "streak_3day", Name: "3-Day Streak", Description: "Log activities for 3 days in a row", Icon: "flame.fill", Emoji: "🔥", Target: 3, Counter: CounterStreakDays},
	{Key: "streak_7day", Name: "Week Warrior", Description: "Log activities for 7 days in a row", Icon: "flame.circle.fill", Emoji: "⚔️", Target: 7, Counter: CounterStreakDays},
	{Key: "streak_30day", Name: "Monthly Master", Description: "Log activities for 30 days in a row", Icon: "star.circle.fill", Emoji: "👑", Target: 30, Counter: CounterStreakDays},
	{Key: "homework_hero", Name: "Homework Hero", Description: "Complete 10 hours of homework", Icon: "book.circle.fill", Emoji: "📚", Target: 600, Counter: CounterHomeworkMinutes},
	{Key: "reading_champion", Name: "Reading Champion", Description: "Read for 20 hours total", Icon: "text.book.closed.fill", Emoji: "📖", Target: 1200, Counter: CounterReadingMinutes},
	{Key: "balance_master", Name: "Balance Master", Description: "Stay balanced for a week", Icon: "scale.3d", Emoji: "⚖️", Target: 7, Counter: CounterBalancedDays},
	{Key: "early_bird", Name: "Early Bird", Description: "Start logging before 8 AM", Icon: "sunrise.fill", Emoji: "🌅", Target: 1, Counter: CounterEarlyStarts},
	{Key: "first_timer", Name: "First Timer", Description: "Complete your first timed activity", Icon: "timer.circle.fill", Emoji: "🎯", Target: 1, Counter: CounterTimedActivities},
}

func Lookup(key string) (Type, bool) {
	for _, t := range Catalog {
		if t.Key == key {
			return t, true
		}
	}
	return Type{}, false
}
