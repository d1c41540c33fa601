// Package tracker applies activity changes and keeps the derived records
// (day points, achievements, weekly rewards) in step with them.
package tracker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/focuspal/internal/achievement"
	"github.com/dukerupert/focuspal/internal/catalog"
	"github.com/dukerupert/focuspal/internal/daily"
	"github.com/dukerupert/focuspal/internal/model"
	"github.com/dukerupert/focuspal/internal/points"
	"github.com/dukerupert/focuspal/internal/reward"
	"github.com/dukerupert/focuspal/internal/store"
	"github.com/dukerupert/focuspal/internal/timegoal"
	"github.com/dukerupert/focuspal/internal/websocket"
)

var (
	ErrChildNotFound    = errors.New("child not found")
	ErrActivityNotFound = errors.New("activity not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrTaskNotFound     = errors.New("task not found")
)

// Publisher receives change events.
type Publisher interface {
	Publish(entity, action, childID, id string, extra map[string]any)
}

// UnlockNotifier is told about newly unlocked achievements.
type UnlockNotifier interface {
	NotifyAchievement(ctx context.Context, child model.Child, t achievement.Type) error
}

type Service struct {
	children     *store.ChildStore
	categories   *store.CategoryStore
	catalog      *catalog.Service
	activities   *store.ActivityStore
	points       *store.PointsStore
	achievements *store.AchievementStore
	rewards      *store.RewardStore
	goals        *store.TimeGoalStore
	tasks        *store.TaskStore

	events   Publisher
	notifier UnlockNotifier
	loc      *time.Location
	now      func() time.Time
	logger   *slog.Logger
}

func New(db *sql.DB, events Publisher, loc *time.Location, logger *slog.Logger) *Service {
	logger = logger.With("component", "tracker")
	categories := store.NewCategoryStore(db)
	return &Service{
		children:     store.NewChildStore(db),
		categories:   categories,
		catalog:      catalog.NewService(categories, logger),
		activities:   store.NewActivityStore(db),
		points:       store.NewPointsStore(db),
		achievements: store.NewAchievementStore(db),
		rewards:      store.NewRewardStore(db),
		goals:        store.NewTimeGoalStore(db),
		tasks:        store.NewTaskStore(db),
		events:       events,
		loc:          loc,
		now:          time.Now,
		logger:       logger,
	}
}

// SetNotifier installs the achievement unlock notifier.
func (s *Service) SetNotifier(n UnlockNotifier) {
	s.notifier = n
}

// Location is the zone calendar days are computed in.
func (s *Service) Location() *time.Location {
	return s.loc
}

func (s *Service) today() time.Time {
	return s.now().In(s.loc)
}

// Now is the current time in the service location.
func (s *Service) Now() time.Time {
	return s.today()
}

func (s *Service) publish(entity, action, childID, id string, extra map[string]any) {
	if s.events != nil {
		s.events.Publish(entity, action, childID, id, extra)
	}
}

func (s *Service) child(childID string) (*model.Child, error) {
	c, err := s.children.GetByID(childID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrChildNotFound
	}
	return c, nil
}

// Child loads a child, returning ErrChildNotFound when absent.
func (s *Service) Child(childID string) (*model.Child, error) {
	return s.child(childID)
}

// ActivityResult reports what recording or changing an activity did.
type ActivityResult struct {
	Activity          model.Activity       `json:"activity"`
	Points            points.Breakdown     `json:"points"`
	PointsDescription string               `json:"points_description"`
	Penalty           int                  `json:"penalty,omitempty"`
	Day               model.ChildPoints    `json:"day"`
	Unlocked          []achievement.Type   `json:"unlocked,omitempty"`
	TimeGoal          *timegoal.Evaluation `json:"time_goal,omitempty"`
}

// RecordActivity stores a new activity, writes its ledger entries and
// refreshes everything derived from it.
func (s *Service) RecordActivity(ctx context.Context, a model.Activity) (*ActivityResult, error) {
	child, err := s.child(a.ChildID)
	if err != nil {
		return nil, err
	}
	cats, err := s.catalog.Load(child.ID)
	if err != nil {
		return nil, err
	}
	cat, ok := catalog.ByID(cats)[a.CategoryID]
	if !ok {
		return nil, ErrCategoryNotFound
	}

	created, err := s.activities.Create(a)
	if err != nil {
		return nil, err
	}

	b := points.ForActivity(*created, &cat)
	if err := s.writeEntries(child.ID, created.ID, points.Entries(b), 1); err != nil {
		return nil, err
	}

	res := &ActivityResult{Activity: *created, Points: b, PointsDescription: b.Describe()}
	if res.Penalty, err = s.syncStrikes(child.ID, created.ID, created.StartTime); err != nil {
		return nil, err
	}

	day, unlocked, err := s.refresh(ctx, child, cats, created.StartTime)
	if err != nil {
		return nil, err
	}
	res.Day = *day
	res.Unlocked = unlocked
	res.TimeGoal, err = s.checkTimeGoal(child.ID, created.CategoryID, created.StartTime)
	if err != nil {
		return nil, err
	}

	s.logger.Info("activity recorded", "child_id", child.ID, "activity_id", created.ID,
		"complete", created.IsComplete, "net_points", b.Net(), "penalty", res.Penalty)
	s.publish(websocket.EntityActivity, websocket.ActionCreated, child.ID, created.ID,
		map[string]any{"net_points": b.Net()})
	return res, nil
}

// UpdateActivity replaces an activity's editable fields. When its points
// change, the ledger gets a reversal of the old entries and the new ones.
func (s *Service) UpdateActivity(ctx context.Context, a model.Activity) (*ActivityResult, error) {
	old, err := s.activities.GetByID(a.ID)
	if err != nil {
		return nil, err
	}
	if old == nil {
		return nil, ErrActivityNotFound
	}
	child, err := s.child(old.ChildID)
	if err != nil {
		return nil, err
	}
	cats, err := s.catalog.Load(child.ID)
	if err != nil {
		return nil, err
	}
	byID := catalog.ByID(cats)
	if _, ok := byID[a.CategoryID]; !ok {
		return nil, ErrCategoryNotFound
	}

	a.ChildID = old.ChildID
	updated, err := s.activities.Update(a)
	if err != nil {
		return nil, err
	}

	before := points.ForActivities([]model.Activity{*old}, byID)
	after := points.ForActivities([]model.Activity{*updated}, byID)
	if before != after {
		if err := s.writeEntries(child.ID, updated.ID, points.Entries(before), -1); err != nil {
			return nil, err
		}
		if err := s.writeEntries(child.ID, updated.ID, points.Entries(after), 1); err != nil {
			return nil, err
		}
	}

	penalty, err := s.syncStrikes(child.ID, updated.ID, updated.StartTime)
	if err != nil {
		return nil, err
	}
	if !sameDay(old.StartTime.In(s.loc), updated.StartTime.In(s.loc)) {
		moved, err := s.syncStrikes(child.ID, updated.ID, old.StartTime)
		if err != nil {
			return nil, err
		}
		penalty += moved
	}

	day, unlocked, err := s.refresh(ctx, child, cats, updated.StartTime, old.StartTime)
	if err != nil {
		return nil, err
	}
	s.publish(websocket.EntityActivity, websocket.ActionUpdated, child.ID, updated.ID,
		map[string]any{"net_points": after.Net()})
	return &ActivityResult{
		Activity:          *updated,
		Points:            after,
		PointsDescription: after.Describe(),
		Penalty:           penalty,
		Day:               *day,
		Unlocked:          unlocked,
	}, nil
}

// DeleteActivity removes an activity and reverses its ledger entries.
func (s *Service) DeleteActivity(ctx context.Context, id string) error {
	old, err := s.activities.GetByID(id)
	if err != nil {
		return err
	}
	if old == nil {
		return ErrActivityNotFound
	}
	child, err := s.child(old.ChildID)
	if err != nil {
		return err
	}
	cats, err := s.catalog.Load(child.ID)
	if err != nil {
		return err
	}

	b := points.ForActivities([]model.Activity{*old}, catalog.ByID(cats))
	if err := s.writeEntries(child.ID, old.ID, points.Entries(b), -1); err != nil {
		return err
	}
	if err := s.activities.Delete(id); err != nil {
		return err
	}
	if _, err := s.syncStrikes(child.ID, old.ID, old.StartTime); err != nil {
		return err
	}
	if _, _, err := s.refresh(ctx, child, cats, old.StartTime); err != nil {
		return err
	}
	s.publish(websocket.EntityActivity, websocket.ActionDeleted, child.ID, id, nil)
	return nil
}

// Award grants points outside of an activity, such as a beat-average bonus.
func (s *Service) Award(ctx context.Context, childID string, amount int, reason model.PointsReason) (*model.ChildPoints, error) {
	if amount <= 0 {
		return nil, points.ErrInvalidAmount
	}
	return s.adjust(ctx, childID, amount, reason)
}

// Deduct removes points outside of an activity.
func (s *Service) Deduct(ctx context.Context, childID string, amount int, reason model.PointsReason) (*model.ChildPoints, error) {
	if amount <= 0 {
		return nil, points.ErrInvalidAmount
	}
	return s.adjust(ctx, childID, -amount, reason)
}

func (s *Service) adjust(ctx context.Context, childID string, amount int, reason model.PointsReason) (*model.ChildPoints, error) {
	child, err := s.child(childID)
	if err != nil {
		return nil, err
	}
	cats, err := s.catalog.Load(child.ID)
	if err != nil {
		return nil, err
	}
	_, err = s.points.AddTransaction(model.PointsTransaction{
		ChildID:   child.ID,
		Amount:    amount,
		Reason:    reason,
		Timestamp: s.now(),
	})
	if err != nil {
		return nil, err
	}
	day, _, err := s.refresh(ctx, child, cats, s.today())
	if err != nil {
		return nil, err
	}
	s.logger.Info("points adjusted", "child_id", child.ID, "amount", amount, "reason", reason)
	return day, nil
}

// writeEntries appends ledger lines for an activity. sign -1 writes reversals.
func (s *Service) writeEntries(childID, activityID string, entries []points.Entry, sign int) error {
	now := s.now()
	for _, e := range entries {
		id := activityID
		_, err := s.points.AddTransaction(model.PointsTransaction{
			ChildID:    childID,
			ActivityID: &id,
			Amount:     sign * e.Amount,
			Reason:     e.Reason,
			Timestamp:  now,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// syncStrikes makes the ledger's three-strike penalty for the day of at match
// the day's activities, charging or reversing it against activityID. It
// returns the change: ThreeStrikePenalty when charged, its negation when
// reversed, 0 otherwise.
func (s *Service) syncStrikes(childID, activityID string, at time.Time) (int, error) {
	start, next := daily.Bounds(at.In(s.loc))
	acts, err := s.activities.ListByChild(childID, start, next)
	if err != nil {
		return 0, err
	}
	want := 0
	if points.StrikeDue(acts) {
		want = points.ThreeStrikePenalty
	}
	charged, err := s.points.StrikeCharge(childID, start, next)
	if err != nil {
		return 0, err
	}
	delta := want - charged
	if delta == 0 {
		return 0, nil
	}

	id := activityID
	_, err = s.points.AddTransaction(model.PointsTransaction{
		ChildID:    childID,
		ActivityID: &id,
		Amount:     -delta,
		Reason:     model.ReasonThreeStrikePenalty,
		Timestamp:  start,
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("strike penalty changed", "child_id", childID, "day", start.Format(model.CompletedDateLayout), "change", delta)
	return delta, nil
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// refresh re-evaluates achievements and recomputes the day and week records
// touched by days. It returns the record for the first day.
func (s *Service) refresh(ctx context.Context, child *model.Child, cats []model.Category, days ...time.Time) (*model.ChildPoints, []achievement.Type, error) {
	unlocked, err := s.evaluateAchievements(ctx, child, cats)
	if err != nil {
		return nil, nil, err
	}
	if len(unlocked) > 0 {
		days = append(days, s.today())
	}

	var first *model.ChildPoints
	seenDay := make(map[string]bool)
	seenWeek := make(map[string]bool)
	for _, d := range days {
		d = d.In(s.loc)
		key := d.Format(model.CompletedDateLayout)
		if seenDay[key] {
			continue
		}
		seenDay[key] = true

		p, err := s.recomputeDay(child.ID, d, cats)
		if err != nil {
			return nil, nil, err
		}
		if first == nil {
			first = p
		}

		ws, _ := reward.WeekBounds(d)
		wk := ws.Format(model.CompletedDateLayout)
		if seenWeek[wk] {
			continue
		}
		seenWeek[wk] = true
		if err := s.recomputeWeek(child.ID, d); err != nil {
			return nil, nil, err
		}
	}
	s.publish(websocket.EntityPoints, websocket.ActionUpdated, child.ID, "", nil)
	return first, unlocked, nil
}

// recomputeDay rebuilds a day record from that day's activities plus ledger
// adjustments not tied to an activity.
func (s *Service) recomputeDay(childID string, day time.Time, cats []model.Category) (*model.ChildPoints, error) {
	start, next := daily.Bounds(day)
	acts, err := s.activities.ListByChild(childID, start, next)
	if err != nil {
		return nil, err
	}
	b := points.ForActivities(acts, catalog.ByID(cats))
	p := model.ChildPoints{
		ChildID:        childID,
		Date:           start,
		PointsEarned:   b.Earned,
		BonusPoints:    b.Bonus,
		PointsDeducted: b.Deducted,
	}
	if points.StrikeDue(acts) {
		p.PointsDeducted += points.ThreeStrikePenalty
	}

	adjustments, err := s.points.ListAdjustments(childID, start, next)
	if err != nil {
		return nil, err
	}
	for _, tx := range adjustments {
		if tx.Amount == 0 {
			continue
		}
		if err := points.Apply(&p, points.Entry{Amount: tx.Amount, Reason: tx.Reason}); err != nil {
			return nil, fmt.Errorf("apply transaction %s: %w", tx.ID, err)
		}
	}
	return s.points.SaveDay(p)
}

// recomputeWeek sums the week's day records into its weekly reward.
func (s *Service) recomputeWeek(childID string, day time.Time) error {
	start, end := reward.WeekBounds(day)
	days, err := s.points.ListDays(childID, start, start.AddDate(0, 0, 7))
	if err != nil {
		return err
	}
	total := 0
	for _, d := range days {
		total += d.Total()
	}

	existing, err := s.rewards.GetByWeek(childID, start)
	if err != nil {
		return err
	}
	r := model.WeeklyReward{ChildID: childID, WeekStart: start, WeekEnd: end}
	if existing != nil {
		r = *existing
	}
	prevTier := r.Tier
	reward.SetTotal(&r, total)
	saved, err := s.rewards.SaveTotals(r)
	if err != nil {
		return err
	}
	if saved.Tier != prevTier {
		s.logger.Info("weekly tier changed", "child_id", childID, "week_start", start.Format(model.CompletedDateLayout),
			"from", prevTier, "to", saved.Tier)
		s.publish(websocket.EntityReward, websocket.ActionUpdated, childID, saved.ID,
			map[string]any{"tier": saved.Tier, "total_points": saved.TotalPoints})
	}
	return nil
}

// evaluateAchievements stores fresh progress for every achievement and pays
// the unlock bonus for new ones.
func (s *Service) evaluateAchievements(ctx context.Context, child *model.Child, cats []model.Category) ([]achievement.Type, error) {
	all, err := s.activities.ListAllByChild(child.ID)
	if err != nil {
		return nil, err
	}
	existing, err := s.achievements.ListByChild(child.ID)
	if err != nil {
		return nil, err
	}
	now := s.today()
	stats := achievement.StatsFrom(all, cats, now)

	var unlocked []achievement.Type
	for _, r := range achievement.Evaluate(child.ID, stats, existing, now) {
		saved, err := s.achievements.Upsert(r.Achievement)
		if err != nil {
			return nil, err
		}
		if !r.NewlyUnlocked {
			continue
		}
		unlocked = append(unlocked, r.Type)
		_, err = s.points.AddTransaction(model.PointsTransaction{
			ChildID:   child.ID,
			Amount:    points.AchievementUnlock,
			Reason:    model.ReasonAchievementUnlock,
			Timestamp: s.now(),
		})
		if err != nil {
			return nil, err
		}
		s.logger.Info("achievement unlocked", "child_id", child.ID, "type", r.Type.Key)
		s.publish(websocket.EntityAchievement, websocket.ActionUnlocked, child.ID, saved.ID,
			map[string]any{"type_key": r.Type.Key, "message": achievement.UnlockMessage(child.Name, r.Type)})
		if s.notifier != nil {
			if err := s.notifier.NotifyAchievement(ctx, *child, r.Type); err != nil {
				s.logger.Warn("notify achievement", "child_id", child.ID, "type", r.Type.Key, "error", err)
			}
		}
	}
	return unlocked, nil
}

// checkTimeGoal evaluates the goal for category on the day of at, if any, and
// publishes warnings.
func (s *Service) checkTimeGoal(childID, categoryID string, at time.Time) (*timegoal.Evaluation, error) {
	goals, err := s.goals.ListByChild(childID)
	if err != nil {
		return nil, err
	}
	for _, g := range goals {
		if !g.IsActive || g.CategoryID != categoryID {
			continue
		}
		start, next := daily.Bounds(at.In(s.loc))
		acts, err := s.activities.ListByChild(childID, start, next)
		if err != nil {
			return nil, err
		}
		e := timegoal.Evaluate(g, timegoal.MinutesByCategory(acts)[categoryID])
		switch e.Status {
		case timegoal.StatusExceeded:
			s.publish(websocket.EntityTimeGoal, websocket.ActionExceeded, childID, g.ID, map[string]any{"minutes": e.CurrentMinutes})
		case timegoal.StatusWarning:
			s.publish(websocket.EntityTimeGoal, websocket.ActionWarning, childID, g.ID, map[string]any{"minutes": e.CurrentMinutes})
		}
		return &e, nil
	}
	return nil, nil
}
