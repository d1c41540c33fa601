package timer

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/focuspal/internal/model"
	"github.com/dukerupert/focuspal/internal/store"
	"github.com/dukerupert/focuspal/internal/tracker"
	"github.com/dukerupert/focuspal/internal/websocket"
)

// Publisher receives change events.
type Publisher interface {
	Publish(entity, action, childID, id string, extra map[string]any)
}

// ExpiryNotifier is told when a running timer reaches zero.
type ExpiryNotifier interface {
	NotifyTimerExpired(ctx context.Context, child model.Child, categoryName string) error
}

// Service keeps one timer per child. Timer changes are serialized.
type Service struct {
	mu         sync.Mutex
	sessions   *store.TimerStore
	categories *store.CategoryStore
	tracker    *tracker.Service
	events     Publisher
	notifier   ExpiryNotifier
	now        func() time.Time
	logger     *slog.Logger
}

func NewService(db *sql.DB, t *tracker.Service, events Publisher, logger *slog.Logger) *Service {
	return &Service{
		sessions:   store.NewTimerStore(db),
		categories: store.NewCategoryStore(db),
		tracker:    t,
		events:     events,
		now:        time.Now,
		logger:     logger,
	}
}

// SetNotifier installs the expiry notifier.
func (s *Service) SetNotifier(n ExpiryNotifier) {
	s.notifier = n
}

func (s *Service) publish(action, childID string, extra map[string]any) {
	if s.events != nil {
		s.events.Publish(websocket.EntityTimer, action, childID, childID, extra)
	}
}

func (s *Service) category(childID, categoryID string) (*model.Category, error) {
	c, err := s.categories.GetByID(categoryID)
	if err != nil {
		return nil, err
	}
	if c == nil || c.ChildID != childID {
		return nil, tracker.ErrCategoryNotFound
	}
	return c, nil
}

func (s *Service) load(childID string) (*model.TimerSession, error) {
	if _, err := s.tracker.Child(childID); err != nil {
		return nil, err
	}
	ts, err := s.sessions.Get(childID)
	if err != nil {
		return nil, err
	}
	if ts == nil {
		return nil, ErrNoTimer
	}
	return ts, nil
}

func (s *Service) view(ts model.TimerSession, now time.Time) (View, error) {
	c, err := s.categories.GetByID(ts.CategoryID)
	if err != nil {
		return View{}, err
	}
	return ViewOf(ts, c, now), nil
}

// Get returns the child's timer or ErrNoTimer.
func (s *Service) Get(childID string) (View, error) {
	ts, err := s.load(childID)
	if err != nil {
		return View{}, err
	}
	return s.view(*ts, s.now())
}

// List returns every active timer, oldest first.
func (s *Service) List() ([]View, error) {
	sessions, err := s.sessions.List()
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]View, 0, len(sessions))
	for _, ts := range sessions {
		v, err := s.view(ts, now)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Start begins a countdown for the child, replacing any timer it already
// has. A zero d uses the category's recommended duration.
func (s *Service) Start(childID, categoryID string, d time.Duration) (View, error) {
	if d < 0 || (d > 0 && d < time.Second) {
		return View{}, ErrInvalidTime
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.tracker.Child(childID); err != nil {
		return View{}, err
	}
	cat, err := s.category(childID, categoryID)
	if err != nil {
		return View{}, err
	}
	if d == 0 {
		d = cat.RecommendedDuration()
	}

	prev, err := s.sessions.Get(childID)
	if err != nil {
		return View{}, err
	}
	if prev != nil {
		s.logger.Info("timer replaced", "child_id", childID, "category_id", prev.CategoryID)
	}

	now := s.now()
	ts := New(childID, cat.ID, d, now)
	if err := s.sessions.Save(ts); err != nil {
		return View{}, err
	}

	s.logger.Info("timer started", "child_id", childID, "category_id", cat.ID, "seconds", ts.DurationSeconds)
	s.publish(websocket.ActionCreated, childID, map[string]any{"category_id": cat.ID, "duration_seconds": ts.DurationSeconds})
	return ViewOf(ts, cat, now), nil
}

func (s *Service) change(childID, action string, fn func(*model.TimerSession, time.Time) error) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts, err := s.load(childID)
	if err != nil {
		return View{}, err
	}
	now := s.now()
	if err := fn(ts, now); err != nil {
		return View{}, err
	}
	if err := s.sessions.Save(*ts); err != nil {
		return View{}, err
	}

	s.logger.Info("timer "+action, "child_id", childID, "remaining", Remaining(*ts, now))
	s.publish(action, childID, nil)
	return s.view(*ts, now)
}

func (s *Service) Pause(childID string) (View, error) {
	return s.change(childID, websocket.ActionPaused, Pause)
}

func (s *Service) Resume(childID string) (View, error) {
	return s.change(childID, websocket.ActionResumed, Resume)
}

// AddTime extends the child's countdown by d.
func (s *Service) AddTime(childID string, d time.Duration) (View, error) {
	return s.change(childID, websocket.ActionUpdated, func(ts *model.TimerSession, now time.Time) error {
		return AddTime(ts, d, now)
	})
}

// Stop discards the child's timer without logging anything.
func (s *Service) Stop(childID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.load(childID); err != nil {
		return err
	}
	if _, err := s.sessions.Delete(childID); err != nil {
		return err
	}
	s.logger.Info("timer stopped", "child_id", childID)
	s.publish(websocket.ActionDeleted, childID, nil)
	return nil
}

// Finish ends the child's timer and records its run time as an activity
// ending now. complete says whether the child finished what they set out to do.
func (s *Service) Finish(ctx context.Context, childID string, complete bool) (*tracker.ActivityResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts, err := s.load(childID)
	if err != nil {
		return nil, err
	}

	end := s.now().UTC().Truncate(time.Second)
	elapsed := Elapsed(*ts, end).Truncate(time.Second)
	res, err := s.tracker.RecordActivity(ctx, model.Activity{
		ChildID:    childID,
		CategoryID: ts.CategoryID,
		StartTime:  end.Add(-elapsed),
		EndTime:    end,
		IsComplete: complete,
	})
	if err != nil {
		return nil, err
	}
	if _, err := s.sessions.Delete(childID); err != nil {
		return nil, err
	}

	s.logger.Info("timer finished", "child_id", childID, "activity_id", res.Activity.ID,
		"complete", complete, "elapsed", elapsed)
	s.publish(websocket.ActionCompleted, childID, map[string]any{"activity_id": res.Activity.ID, "complete": complete})
	return res, nil
}

// CheckExpired announces each running timer that has reached zero, once per
// expiry. It returns how many were announced.
func (s *Service) CheckExpired(ctx context.Context) int {
	expired := s.claimExpired()
	for _, ts := range expired {
		s.logger.Info("timer expired", "child_id", ts.ChildID, "category_id", ts.CategoryID)
		s.publish(websocket.ActionExpired, ts.ChildID, map[string]any{"category_id": ts.CategoryID})
		s.notifyExpired(ctx, ts)
	}
	return len(expired)
}

func (s *Service) claimExpired() []model.TimerSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.sessions.List()
	if err != nil {
		s.logger.Error("list timers", "error", err)
		return nil
	}

	now := s.now()
	var out []model.TimerSession
	for _, ts := range sessions {
		if ts.ExpiryNotified || !Expired(ts, now) {
			continue
		}
		fresh, err := s.sessions.MarkExpiryNotified(ts.ChildID)
		if err != nil {
			s.logger.Error("mark timer expired", "child_id", ts.ChildID, "error", err)
			continue
		}
		if fresh {
			out = append(out, ts)
		}
	}
	return out
}

func (s *Service) notifyExpired(ctx context.Context, ts model.TimerSession) {
	if s.notifier == nil {
		return
	}
	child, err := s.tracker.Child(ts.ChildID)
	if err != nil {
		s.logger.Error("load child for timer notification", "child_id", ts.ChildID, "error", err)
		return
	}
	name := "focus"
	if c, err := s.categories.GetByID(ts.CategoryID); err == nil && c != nil {
		name = c.Name
	}
	if err := s.notifier.NotifyTimerExpired(ctx, *child, name); err != nil {
		s.logger.Warn("send timer notification", "child_id", ts.ChildID, "error", err)
	}
}
