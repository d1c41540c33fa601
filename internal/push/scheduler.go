package push

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/focuspal/internal/daily"
	"github.com/dukerupert/focuspal/internal/model"
	"github.com/dukerupert/focuspal/internal/schedule"
	"github.com/dukerupert/focuspal/internal/store"
	"github.com/dukerupert/focuspal/internal/timegoal"
)

// sentRetention bounds how long dedupe records are kept.
const sentRetention = 14 * 24 * time.Hour

// Scheduler periodically checks for notifications to send.
type Scheduler struct {
	mu         sync.RWMutex
	service    *Service
	push       *store.PushStore
	children   *store.ChildStore
	categories *store.CategoryStore
	activities *store.ActivityStore
	goals      *store.TimeGoalStore
	tasks      *store.TaskStore
	loc        *time.Location
	now        func() time.Time
	interval   time.Duration
	logger     *slog.Logger
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewScheduler creates a notification scheduler. Calendar days are evaluated in loc.
func NewScheduler(svc *Service, db *sql.DB, loc *time.Location, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		service:    svc,
		push:       store.NewPushStore(db),
		children:   store.NewChildStore(db),
		categories: store.NewCategoryStore(db),
		activities: store.NewActivityStore(db),
		goals:      store.NewTimeGoalStore(db),
		tasks:      store.NewTaskStore(db),
		loc:        loc,
		now:        time.Now,
		interval:   60 * time.Second,
		logger:     logger,
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	now := s.now().In(s.loc)
	s.checkTimeGoals(ctx, now)
	s.checkTaskReminders(ctx, now)

	if err := s.push.CleanupSent(now.Add(-sentRetention)); err != nil {
		s.logger.Error("cleanup sent notifications", "error", err)
	}
}

// claim records a notification as sent. It reports false when another tick
// already delivered it.
func (s *Scheduler) claim(notifType, ref string) bool {
	fresh, err := s.push.RecordSent(notifType, ref)
	if err != nil {
		s.logger.Error("record sent notification", "type", notifType, "ref", ref, "error", err)
		return false
	}
	return fresh
}

func (s *Scheduler) checkTimeGoals(ctx context.Context, now time.Time) {
	goals, err := s.goals.ListActive()
	if err != nil {
		s.logger.Error("list active time goals", "error", err)
		return
	}

	start, next := daily.Bounds(now)
	minutes := make(map[string]map[string]int)
	for _, g := range goals {
		byCategory, ok := minutes[g.ChildID]
		if !ok {
			acts, err := s.activities.ListByChild(g.ChildID, start, next)
			if err != nil {
				s.logger.Error("list activities for time goal", "child_id", g.ChildID, "error", err)
				continue
			}
			byCategory = timegoal.MinutesByCategory(acts)
			minutes[g.ChildID] = byCategory
		}

		e := timegoal.Evaluate(g, byCategory[g.CategoryID])
		var notifType string
		switch e.Status {
		case timegoal.StatusExceeded:
			notifType = model.NotifTypeTimeGoalExceeded
		case timegoal.StatusWarning:
			notifType = model.NotifTypeTimeGoalWarning
		default:
			continue
		}

		ref := fmt.Sprintf("%s:%s:%s", g.ChildID, g.CategoryID, schedule.DateKey(now))
		if !s.claim(notifType, ref) {
			continue
		}
		payload, err := s.timeGoalPayload(g, e)
		if err != nil {
			s.logger.Error("build time goal notification", "goal_id", g.ID, "error", err)
			continue
		}
		if _, err := s.service.Broadcast(ctx, notifType, payload); err != nil {
			s.logger.Error("send time goal notification", "goal_id", g.ID, "error", err)
		}
	}
}

func (s *Scheduler) timeGoalPayload(g model.TimeGoal, e timegoal.Evaluation) (Payload, error) {
	child, err := s.children.GetByID(g.ChildID)
	if err != nil {
		return Payload{}, err
	}
	cat, err := s.categories.GetByID(g.CategoryID)
	if err != nil {
		return Payload{}, err
	}
	childName, catName := "Your child", "this category"
	if child != nil {
		childName = child.Name
	}
	if cat != nil {
		catName = cat.Name
	}

	p := Payload{
		URL: "/children/" + g.ChildID + "/time-goals",
		Tag: "time-goal-" + g.ID,
	}
	if e.Status == timegoal.StatusExceeded {
		p.Title = "Time Goal Reached"
		p.Body = fmt.Sprintf("%s has spent %d of %d minutes on %s today", childName, e.CurrentMinutes, g.RecommendedMinutes, catName)
	} else {
		p.Title = "Almost at Time Goal"
		p.Body = fmt.Sprintf("%s has %d minutes of %s left today", childName, g.RecommendedMinutes-e.CurrentMinutes, catName)
	}
	return p, nil
}

func (s *Scheduler) checkTaskReminders(ctx context.Context, now time.Time) {
	tasks, err := s.tasks.ListAll()
	if err != nil {
		s.logger.Error("list scheduled tasks", "error", err)
		return
	}

	for _, task := range tasks {
		if task.ReminderMinutesBefore <= 0 {
			continue
		}
		task.ScheduledDate = task.ScheduledDate.In(s.loc)

		occ, ok, err := schedule.NextOccurrence(task, now, now)
		if err != nil {
			s.logger.Warn("skip task reminder", "task_id", task.ID, "error", err)
			continue
		}
		if !ok || occ.IsCompleted {
			continue
		}
		lead := time.Duration(task.ReminderMinutesBefore) * time.Minute
		if now.Before(occ.Start.Add(-lead)) {
			continue
		}

		if !s.claim(model.NotifTypeTaskReminder, task.ID+":"+schedule.DateKey(occ.Start)) {
			continue
		}
		mins := int(occ.Start.Sub(now).Round(time.Minute) / time.Minute)
		body := fmt.Sprintf("%s starts in %d minutes", task.Title, mins)
		if mins <= 1 {
			body = fmt.Sprintf("%s starts now", task.Title)
		}
		_, err = s.service.Broadcast(ctx, model.NotifTypeTaskReminder, Payload{
			Title: "Upcoming Task",
			Body:  body,
			URL:   "/children/" + task.ChildID + "/tasks",
			Tag:   "task-" + task.ID,
		})
		if err != nil {
			s.logger.Error("send task reminder", "task_id", task.ID, "error", err)
		}
	}
}
