package timer

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/focuspal/internal/catalog"
	"github.com/dukerupert/focuspal/internal/database"
	"github.com/dukerupert/focuspal/internal/logging"
	"github.com/dukerupert/focuspal/internal/model"
	"github.com/dukerupert/focuspal/internal/store"
	"github.com/dukerupert/focuspal/internal/tracker"
	"github.com/dukerupert/focuspal/internal/websocket"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) Publish(entity, action, childID, id string, extra map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, entity+"."+action)
}

func (r *recorder) count(entity, action string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == entity+"."+action {
			n++
		}
	}
	return n
}

type expiryNotifier struct {
	sent []string
}

func (n *expiryNotifier) NotifyTimerExpired(ctx context.Context, child model.Child, categoryName string) error {
	n.sent = append(n.sent, child.Name+":"+categoryName)
	return nil
}

type fixture struct {
	svc      *Service
	events   *recorder
	notifier *expiryNotifier
	db       *sql.DB
	clock    time.Time
	child    *model.Child
	homework string
	reading  string
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		db:       db,
		events:   &recorder{},
		notifier: &expiryNotifier{},
		clock:    time.Now().UTC().Add(-time.Hour).Truncate(time.Second),
	}
	f.child = f.addChild(t, "Ava")
	f.homework = store.CategoryIDFor(f.child.ID, "Homework")
	f.reading = store.CategoryIDFor(f.child.ID, "Reading")

	logger := logging.Discard()
	f.svc = NewService(db, tracker.New(db, f.events, time.UTC, logger), f.events, logger)
	f.svc.now = func() time.Time { return f.clock }
	f.svc.SetNotifier(f.notifier)
	return f
}

func (f *fixture) addChild(t *testing.T, name string) *model.Child {
	t.Helper()
	child, err := store.NewChildStore(f.db).Create(name, "🦊", "")
	if err != nil {
		t.Fatalf("create child: %v", err)
	}
	if err := catalog.NewService(store.NewCategoryStore(f.db), logging.Discard()).EnsureDefaults(child.ID); err != nil {
		t.Fatalf("seed categories: %v", err)
	}
	return child
}

func (f *fixture) advance(d time.Duration) {
	f.clock = f.clock.Add(d)
}

func TestStartUsesRecommendedDuration(t *testing.T) {
	f := setup(t)

	v, err := f.svc.Start(f.child.ID, f.homework, 0)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if v.DurationSeconds != 1500 || v.RemainingSeconds != 1500 || v.State != StateRunning {
		t.Errorf("view = %+v", v)
	}
	if v.CategoryName != "Homework" {
		t.Errorf("category name = %q", v.CategoryName)
	}
	if f.events.count(websocket.EntityTimer, websocket.ActionCreated) != 1 {
		t.Error("expected a timer created event")
	}
}

func TestFinishRecordsTimedActivity(t *testing.T) {
	f := setup(t)
	start := f.clock

	if _, err := f.svc.Start(f.child.ID, f.homework, 30*time.Minute); err != nil {
		t.Fatalf("start: %v", err)
	}
	f.advance(20 * time.Minute)

	res, err := f.svc.Finish(context.Background(), f.child.ID, true)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	a := res.Activity
	if a.IsManualEntry || !a.IsComplete {
		t.Errorf("activity flags = manual %v complete %v", a.IsManualEntry, a.IsComplete)
	}
	if !a.StartTime.Equal(start) || !a.EndTime.Equal(start.Add(20*time.Minute)) {
		t.Errorf("activity span = %v to %v", a.StartTime, a.EndTime)
	}
	if res.Points.Earned != 10 {
		t.Errorf("earned = %d, want 10", res.Points.Earned)
	}

	if _, err := f.svc.Get(f.child.ID); !errors.Is(err, ErrNoTimer) {
		t.Errorf("get after finish err = %v, want ErrNoTimer", err)
	}
	if f.events.count(websocket.EntityTimer, websocket.ActionCompleted) != 1 ||
		f.events.count(websocket.EntityActivity, websocket.ActionCreated) != 1 {
		t.Errorf("events = %v", f.events.events)
	}
}

func TestFinishExcludesPausedTime(t *testing.T) {
	f := setup(t)

	f.svc.Start(f.child.ID, f.reading, 30*time.Minute)
	f.advance(5 * time.Minute)
	if v, err := f.svc.Pause(f.child.ID); err != nil || v.State != StatePaused {
		t.Fatalf("pause = %+v, %v", v, err)
	}
	f.advance(10 * time.Minute)
	if _, err := f.svc.Pause(f.child.ID); !errors.Is(err, ErrNotRunning) {
		t.Errorf("pause twice err = %v, want ErrNotRunning", err)
	}
	if _, err := f.svc.Resume(f.child.ID); err != nil {
		t.Fatalf("resume: %v", err)
	}
	f.advance(5 * time.Minute)

	res, err := f.svc.Finish(context.Background(), f.child.ID, false)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if got := res.Activity.Duration(); got != 10*time.Minute {
		t.Errorf("duration = %v, want 10m", got)
	}
	if res.Activity.IsComplete || res.Points.Deducted != 5 {
		t.Errorf("incomplete activity = %+v points %+v", res.Activity, res.Points)
	}
}

func TestStopLogsNothing(t *testing.T) {
	f := setup(t)

	f.svc.Start(f.child.ID, f.homework, 0)
	f.advance(10 * time.Minute)
	if err := f.svc.Stop(f.child.ID); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := f.svc.Stop(f.child.ID); !errors.Is(err, ErrNoTimer) {
		t.Errorf("stop twice err = %v, want ErrNoTimer", err)
	}

	acts, err := store.NewActivityStore(f.db).ListByChild(f.child.ID, f.clock.Add(-24*time.Hour), f.clock.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("list activities: %v", err)
	}
	if len(acts) != 0 {
		t.Errorf("activities = %d, want 0", len(acts))
	}
}

func TestStartValidation(t *testing.T) {
	f := setup(t)
	other := f.addChild(t, "Ben")

	tests := []struct {
		name     string
		childID  string
		category string
		d        time.Duration
		want     error
	}{
		{"unknown child", "nobody", f.homework, 0, tracker.ErrChildNotFound},
		{"unknown category", f.child.ID, "nope", 0, tracker.ErrCategoryNotFound},
		{"another child's category", f.child.ID, store.CategoryIDFor(other.ID, "Homework"), 0, tracker.ErrCategoryNotFound},
		{"negative duration", f.child.ID, f.homework, -time.Minute, ErrInvalidTime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.Start(tt.childID, tt.category, tt.d); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestStartReplacesTimer(t *testing.T) {
	f := setup(t)

	f.svc.Start(f.child.ID, f.homework, 0)
	f.advance(time.Minute)
	f.svc.Start(f.child.ID, f.reading, 0)

	v, err := f.svc.Get(f.child.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v.CategoryID != f.reading || v.ElapsedSeconds != 0 {
		t.Errorf("timer = %+v", v)
	}
}

func TestTimersAreIndependentPerChild(t *testing.T) {
	f := setup(t)
	ben := f.addChild(t, "Ben")

	f.svc.Start(f.child.ID, f.homework, 25*time.Minute)
	f.svc.Start(ben.ID, store.CategoryIDFor(ben.ID, "Reading"), 25*time.Minute)
	f.advance(5 * time.Minute)
	f.svc.Pause(f.child.ID)
	f.advance(5 * time.Minute)

	views, err := f.svc.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("timers = %d, want 2", len(views))
	}
	byChild := map[string]View{}
	for _, v := range views {
		byChild[v.ChildID] = v
	}
	if v := byChild[f.child.ID]; v.State != StatePaused || v.ElapsedSeconds != 300 {
		t.Errorf("paused timer = %+v", v)
	}
	if v := byChild[ben.ID]; v.State != StateRunning || v.ElapsedSeconds != 600 {
		t.Errorf("running timer = %+v", v)
	}
}

func TestCheckExpiredAnnouncesOnce(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.svc.Start(f.child.ID, f.homework, time.Minute)
	if n := f.svc.CheckExpired(ctx); n != 0 {
		t.Errorf("announced %d before expiry", n)
	}

	f.advance(2 * time.Minute)
	if n := f.svc.CheckExpired(ctx); n != 1 {
		t.Fatalf("announced %d, want 1", n)
	}
	if len(f.notifier.sent) != 1 || f.notifier.sent[0] != "Ava:Homework" {
		t.Errorf("notifications = %v", f.notifier.sent)
	}
	if n := f.svc.CheckExpired(ctx); n != 0 {
		t.Errorf("announced again: %d", n)
	}

	v, err := f.svc.AddTime(f.child.ID, 5*time.Minute)
	if err != nil {
		t.Fatalf("add time: %v", err)
	}
	if v.State != StateRunning || v.RemainingSeconds != 300 {
		t.Errorf("extended timer = %+v", v)
	}
	f.advance(6 * time.Minute)
	if n := f.svc.CheckExpired(ctx); n != 1 {
		t.Errorf("announced %d after extension, want 1", n)
	}
	if f.events.count(websocket.EntityTimer, websocket.ActionExpired) != 2 {
		t.Errorf("expired events = %d, want 2", f.events.count(websocket.EntityTimer, websocket.ActionExpired))
	}
}

func TestPausedTimerDoesNotExpire(t *testing.T) {
	f := setup(t)

	f.svc.Start(f.child.ID, f.homework, time.Minute)
	f.advance(30 * time.Second)
	f.svc.Pause(f.child.ID)
	f.advance(time.Hour)

	if n := f.svc.CheckExpired(context.Background()); n != 0 {
		t.Errorf("paused timer announced %d", n)
	}
}
