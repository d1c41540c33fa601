package tracker

import (
	"context"
	"time"

	"github.com/dukerupert/focuspal/internal/achievement"
	"github.com/dukerupert/focuspal/internal/daily"
	"github.com/dukerupert/focuspal/internal/model"
	"github.com/dukerupert/focuspal/internal/reward"
	"github.com/dukerupert/focuspal/internal/schedule"
	"github.com/dukerupert/focuspal/internal/streak"
	"github.com/dukerupert/focuspal/internal/summary"
	"github.com/dukerupert/focuspal/internal/timegoal"
	"github.com/dukerupert/focuspal/internal/websocket"
)

const transactionHistoryLimit = 50

// Today returns the daily aggregate for the child's current day.
func (s *Service) Today(childID string) (daily.Summary, error) {
	return s.Day(childID, s.today())
}

// Day returns the daily aggregate for the calendar day containing day.
func (s *Service) Day(childID string, day time.Time) (daily.Summary, error) {
	if _, err := s.child(childID); err != nil {
		return daily.Summary{}, err
	}
	cats, err := s.catalog.Load(childID)
	if err != nil {
		return daily.Summary{}, err
	}
	start, next := daily.Bounds(day.In(s.loc))
	acts, err := s.activities.ListByChild(childID, start, next)
	if err != nil {
		return daily.Summary{}, err
	}
	return daily.Aggregate(acts, cats), nil
}

func (s *Service) days(childID string) (streak.Days, error) {
	acts, err := s.activities.ListAllByChild(childID)
	if err != nil {
		return nil, err
	}
	return streak.ActivityDays(acts, s.loc), nil
}

type StreakInfo struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}

func (s *Service) Streak(childID string) (StreakInfo, error) {
	if _, err := s.child(childID); err != nil {
		return StreakInfo{}, err
	}
	days, err := s.days(childID)
	if err != nil {
		return StreakInfo{}, err
	}
	return StreakInfo{Current: streak.Current(days, s.today()), Longest: streak.Longest(days)}, nil
}

// FamilyStreak counts days on which any child logged an activity.
func (s *Service) FamilyStreak() (StreakInfo, error) {
	children, err := s.children.List()
	if err != nil {
		return StreakInfo{}, err
	}
	sets := make([]streak.Days, 0, len(children))
	for _, c := range children {
		d, err := s.days(c.ID)
		if err != nil {
			return StreakInfo{}, err
		}
		sets = append(sets, d)
	}
	all := streak.Combine(sets...)
	return StreakInfo{Current: streak.Current(all, s.today()), Longest: streak.Longest(all)}, nil
}

type PointsOverview struct {
	Today        model.ChildPoints         `json:"today"`
	Week         int                       `json:"week"`
	Total        int                       `json:"total"`
	Transactions []model.PointsTransaction `json:"transactions"`
}

func (s *Service) Points(childID string) (PointsOverview, error) {
	if _, err := s.child(childID); err != nil {
		return PointsOverview{}, err
	}
	now := s.today()
	dayStart, _ := daily.Bounds(now)
	o := PointsOverview{Today: model.ChildPoints{ChildID: childID, Date: dayStart}}

	today, err := s.points.GetDay(childID, dayStart)
	if err != nil {
		return o, err
	}
	if today != nil {
		o.Today = *today
	}

	weekStart, _ := reward.WeekBounds(now)
	days, err := s.points.ListDays(childID, weekStart, weekStart.AddDate(0, 0, 7))
	if err != nil {
		return o, err
	}
	for _, d := range days {
		o.Week += d.Total()
	}

	if o.Total, err = s.points.Total(childID); err != nil {
		return o, err
	}
	if o.Transactions, err = s.points.ListTransactions(childID, transactionHistoryLimit); err != nil {
		return o, err
	}
	return o, nil
}

// Achievements lists the full catalog with the child's stored progress.
func (s *Service) Achievements(childID string) ([]achievement.Result, error) {
	if _, err := s.child(childID); err != nil {
		return nil, err
	}
	stored, err := s.achievements.ListByChild(childID)
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]model.Achievement, len(stored))
	for _, a := range stored {
		byKey[a.TypeKey] = a
	}

	results := make([]achievement.Result, 0, len(achievement.Catalog))
	for _, t := range achievement.Catalog {
		a, ok := byKey[t.Key]
		if !ok {
			a = model.Achievement{ChildID: childID, TypeKey: t.Key, TargetValue: t.Target}
		}
		results = append(results, achievement.Result{
			Achievement: a,
			Type:        t,
			Percentage:  achievement.ProgressPercentage(a.Progress, a.TargetValue),
		})
	}
	return results, nil
}

// TimeGoalStatus evaluates every active goal against today's minutes.
func (s *Service) TimeGoalStatus(childID string) ([]timegoal.Evaluation, error) {
	if _, err := s.child(childID); err != nil {
		return nil, err
	}
	goals, err := s.goals.ListByChild(childID)
	if err != nil {
		return nil, err
	}
	start, next := daily.Bounds(s.today())
	acts, err := s.activities.ListByChild(childID, start, next)
	if err != nil {
		return nil, err
	}
	minutes := timegoal.MinutesByCategory(acts)

	var out []timegoal.Evaluation
	for _, g := range goals {
		if g.IsActive {
			out = append(out, timegoal.Evaluate(g, minutes[g.CategoryID]))
		}
	}
	return out, nil
}

type RewardOverview struct {
	Current  model.WeeklyReward   `json:"current"`
	Progress reward.Progress      `json:"progress"`
	History  reward.History       `json:"history"`
	Weeks    []model.WeeklyReward `json:"weeks"`
}

func (s *Service) Rewards(childID string) (RewardOverview, error) {
	if _, err := s.child(childID); err != nil {
		return RewardOverview{}, err
	}
	now := s.today()
	start, end := reward.WeekBounds(now)
	o := RewardOverview{Current: model.WeeklyReward{ChildID: childID, WeekStart: start, WeekEnd: end}}

	current, err := s.rewards.GetByWeek(childID, start)
	if err != nil {
		return o, err
	}
	if current != nil {
		o.Current = *current
	}
	o.Progress = reward.ProgressFor(o.Current)

	if o.Weeks, err = s.rewards.ListByChild(childID); err != nil {
		return o, err
	}
	o.History = reward.HistoryFor(o.Weeks, now)
	return o, nil
}

// Redeem marks a weekly reward as redeemed.
func (s *Service) Redeem(ctx context.Context, rewardID string) (*model.WeeklyReward, error) {
	r, err := s.rewards.GetByID(rewardID)
	if err != nil {
		return nil, err
	}
	if err := reward.Redeem(r, s.now()); err != nil {
		return nil, err
	}
	if err := s.rewards.MarkRedeemed(r.ID, *r.RedeemedDate); err != nil {
		return nil, err
	}
	s.logger.Info("weekly reward redeemed", "child_id", r.ChildID, "reward_id", r.ID, "tier", r.Tier)
	s.publish(websocket.EntityReward, websocket.ActionRedeemed, r.ChildID, r.ID, map[string]any{"tier": r.Tier})
	return s.rewards.GetByID(r.ID)
}

// WeeklySummary summarizes the week containing weekOf.
func (s *Service) WeeklySummary(childID string, weekOf time.Time) (summary.Weekly, error) {
	child, err := s.child(childID)
	if err != nil {
		return summary.Weekly{}, err
	}
	cats, err := s.catalog.Load(childID)
	if err != nil {
		return summary.Weekly{}, err
	}
	start, _ := reward.WeekBounds(weekOf.In(s.loc))
	acts, err := s.activities.ListByChild(childID, start, start.AddDate(0, 0, 7))
	if err != nil {
		return summary.Weekly{}, err
	}
	achievements, err := s.achievements.ListByChild(childID)
	if err != nil {
		return summary.Weekly{}, err
	}
	st, err := s.Streak(childID)
	if err != nil {
		return summary.Weekly{}, err
	}
	return summary.BuildWeekly(*child, start, acts, cats, achievements, st.Current), nil
}

// Widget builds the widget snapshot. An empty childID selects the first child.
func (s *Service) Widget(childID string) (summary.Snapshot, error) {
	now := s.today()
	var child *model.Child
	if childID == "" {
		children, err := s.children.List()
		if err != nil {
			return summary.Snapshot{}, err
		}
		if len(children) == 0 {
			return summary.EmptySnapshot(now), nil
		}
		child = &children[0]
	} else {
		c, err := s.child(childID)
		if err != nil {
			return summary.Snapshot{}, err
		}
		child = c
	}

	cats, err := s.catalog.Load(child.ID)
	if err != nil {
		return summary.Snapshot{}, err
	}
	today, _ := daily.Bounds(now)
	acts, err := s.activities.ListByChild(child.ID, today.AddDate(0, 0, -6), today.AddDate(0, 0, 1))
	if err != nil {
		return summary.Snapshot{}, err
	}
	if len(acts) == 0 {
		if acts, err = s.activities.ListRecent(child.ID, 5); err != nil {
			return summary.Snapshot{}, err
		}
	}
	st, err := s.Streak(child.ID)
	if err != nil {
		return summary.Snapshot{}, err
	}
	total, err := s.points.Total(child.ID)
	if err != nil {
		return summary.Snapshot{}, err
	}
	return summary.BuildSnapshot(*child, acts, cats, st.Current, total, now), nil
}

// TasksForDate returns the child's task occurrences on day.
func (s *Service) TasksForDate(childID string, day time.Time) ([]schedule.Occurrence, error) {
	if _, err := s.child(childID); err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListByChild(childID)
	if err != nil {
		return nil, err
	}
	occ, err := schedule.ForDate(s.localTasks(tasks), day.In(s.loc), s.today())
	if err != nil {
		s.logger.Warn("tasks listed as one-off", "child_id", childID, "error", err)
	}
	return occ, nil
}

// localTasks moves scheduled dates into the service location so occurrences
// and completion keys follow local calendar days.
func (s *Service) localTasks(tasks []model.ScheduledTask) []model.ScheduledTask {
	out := make([]model.ScheduledTask, len(tasks))
	for i, t := range tasks {
		t.ScheduledDate = t.ScheduledDate.In(s.loc)
		out[i] = t
	}
	return out
}

// CompleteTask marks a task done. Recurring tasks are completed for the
// occurrence on day only.
func (s *Service) CompleteTask(ctx context.Context, taskID string, day time.Time, completed bool) (*model.ScheduledTask, error) {
	task, err := s.tasks.GetByID(taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}
	if task.IsRecurring() {
		err = s.tasks.SetOccurrenceCompleted(task.ID, schedule.DateKey(day.In(s.loc)), completed)
	} else {
		err = s.tasks.SetCompleted(task.ID, completed)
	}
	if err != nil {
		return nil, err
	}
	s.publish(websocket.EntityTask, websocket.ActionCompleted, task.ChildID, task.ID, map[string]any{"completed": completed})
	return s.tasks.GetByID(task.ID)
}
