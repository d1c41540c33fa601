package handler

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/focuspal/internal/backup"
	"github.com/dukerupert/focuspal/internal/catalog"
	"github.com/dukerupert/focuspal/internal/daily"
	"github.com/dukerupert/focuspal/internal/database"
	"github.com/dukerupert/focuspal/internal/logging"
	"github.com/dukerupert/focuspal/internal/model"
	"github.com/dukerupert/focuspal/internal/points"
	"github.com/dukerupert/focuspal/internal/push"
	"github.com/dukerupert/focuspal/internal/reward"
	"github.com/dukerupert/focuspal/internal/store"
	"github.com/dukerupert/focuspal/internal/timer"
	"github.com/dukerupert/focuspal/internal/tracker"
	"github.com/dukerupert/focuspal/internal/websocket"
)

type published struct {
	entity, action, childID, id string
}

type recorder struct {
	mu     sync.Mutex
	events []published
}

func (r *recorder) Publish(entity, action, childID, id string, extra map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, published{entity, action, childID, id})
}

func (r *recorder) has(entity, action string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.entity == entity && e.action == action {
			return true
		}
	}
	return false
}

type fixture struct {
	db       *sql.DB
	events   *recorder
	tracker  *tracker.Service
	child    *ChildHandler
	category *CategoryHandler
	activity *ActivityHandler
	progress *ProgressHandler
	task     *TaskHandler
	speech   *SpeechHandler
	push     *PushHandler
	backup   *BackupHandler
	timer    *TimerHandler
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := logging.Discard()
	events := &recorder{}
	children := store.NewChildStore(db)
	categories := store.NewCategoryStore(db)
	pushStore := store.NewPushStore(db)
	cat := catalog.NewService(categories, logger)
	svc := tracker.New(db, events, time.UTC, logger)

	return &fixture{
		db:       db,
		events:   events,
		tracker:  svc,
		child:    NewChildHandler(children, cat, events, logger),
		category: NewCategoryHandler(categories, children, cat, events, logger),
		activity: NewActivityHandler(svc, store.NewActivityStore(db), logger),
		progress: NewProgressHandler(svc, store.NewTimeGoalStore(db), categories, events, logger),
		task:     NewTaskHandler(svc, store.NewTaskStore(db), categories, events, logger),
		speech:   NewSpeechHandler(svc, children, logger),
		push:     NewPushHandler(pushStore, push.NewService(push.Config{}, pushStore, logger), logger),
		backup:   NewBackupHandler(backup.NewManager(backup.Config{}, db, nil, logger), events, logger),
		timer:    NewTimerHandler(timer.NewService(db, svc, events, logger), logger),
	}
}

// call invokes h with an optional JSON body and {id} path value.
func call(t *testing.T, h http.HandlerFunc, method, target, id string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	if id != "" {
		req.SetPathValue("id", id)
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, want, rec.Body.String())
	}
}

func (f *fixture) createChild(t *testing.T, name string) model.Child {
	t.Helper()
	rec := call(t, f.child.Create, "POST", "/api/children", "", map[string]string{"name": name, "avatar": "🦊"})
	expectStatus(t, rec, http.StatusCreated)
	return decode[model.Child](t, rec)
}

func TestChildLifecycle(t *testing.T) {
	f := setup(t)

	child := f.createChild(t, "  Ava ")
	if child.Name != "Ava" {
		t.Errorf("name = %q, want trimmed", child.Name)
	}
	if !f.events.has(websocket.EntityChild, websocket.ActionCreated) {
		t.Error("expected child created event")
	}

	rec := call(t, f.category.List, "GET", "/api/children/x/categories", child.ID, nil)
	expectStatus(t, rec, http.StatusOK)
	if cats := decode[[]model.Category](t, rec); len(cats) != 6 {
		t.Errorf("categories = %d, want 6 defaults", len(cats))
	}

	rec = call(t, f.child.List, "GET", "/api/children", "", nil)
	expectStatus(t, rec, http.StatusOK)
	if list := decode[[]model.Child](t, rec); len(list) != 1 {
		t.Errorf("children = %d, want 1", len(list))
	}

	rec = call(t, f.child.Delete, "DELETE", "/api/children/x", child.ID, nil)
	expectStatus(t, rec, http.StatusNoContent)
	rec = call(t, f.child.Get, "GET", "/api/children/x", child.ID, nil)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestChildValidation(t *testing.T) {
	f := setup(t)

	tests := []struct {
		name string
		body any
		want string
	}{
		{"missing name", map[string]string{"avatar": "🦊"}, "name is required"},
		{"bad email", map[string]string{"name": "Ava", "parent_email": "nope"}, "parent_email is invalid (email)"},
		{"long name", map[string]string{"name": strings.Repeat("a", 51)}, "name is invalid (max)"},
		{"malformed", "{not json", "invalid JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := call(t, f.child.Create, "POST", "/api/children", "", tt.body)
			expectStatus(t, rec, http.StatusBadRequest)
			if got := decode[map[string]string](t, rec)["error"]; got != tt.want {
				t.Errorf("error = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCategorySystemAndCustom(t *testing.T) {
	f := setup(t)
	child := f.createChild(t, "Ava")
	homework := store.CategoryIDFor(child.ID, "Homework")

	rec := call(t, f.category.Delete, "DELETE", "/api/categories/x", homework, nil)
	expectStatus(t, rec, http.StatusConflict)

	rec = call(t, f.category.Deactivate, "POST", "/api/categories/x/deactivate", homework, nil)
	expectStatus(t, rec, http.StatusOK)
	if decode[model.Category](t, rec).IsActive {
		t.Error("category should be inactive")
	}

	rec = call(t, f.category.List, "GET", "/api/children/x/categories?active=true", child.ID, nil)
	expectStatus(t, rec, http.StatusOK)
	if cats := decode[[]model.Category](t, rec); len(cats) != 5 {
		t.Errorf("active categories = %d, want 5", len(cats))
	}

	rec = call(t, f.category.Create, "POST", "/api/children/x/categories", child.ID, map[string]any{
		"name": "Chess", "icon": "crown.fill", "color_hex": "#112233", "recommended_minutes": 40,
	})
	expectStatus(t, rec, http.StatusCreated)
	chess := decode[model.Category](t, rec)
	if chess.RecommendedSeconds != 2400 || chess.IsSystem || !chess.IsActive {
		t.Errorf("created category = %+v", chess)
	}

	rec = call(t, f.category.Update, "PUT", "/api/categories/x", chess.ID, map[string]any{
		"name": "Chess Club", "color_hex": "#112233", "recommended_minutes": 50, "category_type": "reward",
	})
	expectStatus(t, rec, http.StatusOK)
	if got := decode[model.Category](t, rec); got.Name != "Chess Club" || got.CategoryType != model.CategoryTypeReward {
		t.Errorf("updated category = %+v", got)
	}

	rec = call(t, f.category.Create, "POST", "/api/children/x/categories", child.ID, map[string]any{
		"name": "Bad", "color_hex": "red", "recommended_minutes": 10,
	})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = call(t, f.category.Delete, "DELETE", "/api/categories/x", chess.ID, nil)
	expectStatus(t, rec, http.StatusNoContent)
	if !f.events.has(websocket.EntityCategory, websocket.ActionDeleted) {
		t.Error("expected category deleted event")
	}
}

type activityResponse struct {
	Activity model.Activity    `json:"activity"`
	Points   points.Breakdown  `json:"points"`
	Day      model.ChildPoints `json:"day"`
}

func TestActivityFlow(t *testing.T) {
	f := setup(t)
	child := f.createChild(t, "Ava")
	homework := store.CategoryIDFor(child.ID, "Homework")

	end := time.Now().UTC().Truncate(time.Second)
	start := end.Add(-10 * time.Minute)
	date := start.Format(dateLayout)

	rec := call(t, f.activity.Create, "POST", "/api/children/x/activities", child.ID, map[string]any{
		"category_id": homework, "start_time": start, "end_time": end, "mood": 4,
	})
	expectStatus(t, rec, http.StatusCreated)
	res := decode[activityResponse](t, rec)
	if res.Points != (points.Breakdown{Earned: 10, Bonus: 5}) {
		t.Errorf("points = %+v, want 10 earned + 5 bonus", res.Points)
	}
	if !res.Activity.IsComplete {
		t.Error("activity should default to complete")
	}

	rec = call(t, f.progress.Today, "GET", "/api/children/x/today?date="+date, child.ID, nil)
	expectStatus(t, rec, http.StatusOK)
	sum := decode[daily.Summary](t, rec)
	if sum.NetPoints != 15 || sum.TotalMinutes != 10 || sum.CompletedCount != 1 {
		t.Errorf("today = %+v", sum)
	}

	rec = call(t, f.progress.Balance, "GET", "/api/children/x/balance?date="+date, child.ID, nil)
	expectStatus(t, rec, http.StatusOK)
	bal := decode[daily.Balance](t, rec)
	if bal.Score != 100 || bal.Level != daily.BalanceExcellent || bal.Breakdown["Homework"] != 10 {
		t.Errorf("balance = %+v", bal)
	}
	rec = call(t, f.progress.Balance, "GET", "/api/children/x/balance?date=yesterday", child.ID, nil)
	expectStatus(t, rec, http.StatusBadRequest)

	rec = call(t, f.activity.Update, "PATCH", "/api/activities/x", res.Activity.ID, map[string]any{
		"category_id": homework, "start_time": start, "end_time": end, "is_complete": false,
	})
	expectStatus(t, rec, http.StatusOK)
	if got := decode[activityResponse](t, rec).Points; got != (points.Breakdown{Deducted: 5}) {
		t.Errorf("updated points = %+v, want 5 deducted", got)
	}

	rec = call(t, f.activity.List, "GET", "/api/children/x/activities?date="+date, child.ID, nil)
	expectStatus(t, rec, http.StatusOK)
	if acts := decode[[]model.Activity](t, rec); len(acts) != 1 || acts[0].IsComplete {
		t.Errorf("activities = %+v", acts)
	}

	rec = call(t, f.activity.Delete, "DELETE", "/api/activities/x", res.Activity.ID, nil)
	expectStatus(t, rec, http.StatusNoContent)
	rec = call(t, f.activity.Delete, "DELETE", "/api/activities/x", res.Activity.ID, nil)
	expectStatus(t, rec, http.StatusNotFound)

	rec = call(t, f.activity.List, "GET", "/api/children/x/activities?date="+date, child.ID, nil)
	expectStatus(t, rec, http.StatusOK)
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("activities after delete = %s, want []", body)
	}
}

func TestActivityErrors(t *testing.T) {
	f := setup(t)
	child := f.createChild(t, "Ava")
	homework := store.CategoryIDFor(child.ID, "Homework")
	now := time.Now().UTC().Truncate(time.Second)

	tests := []struct {
		name    string
		childID string
		body    map[string]any
		want    int
	}{
		{"end before start", child.ID, map[string]any{"category_id": homework, "start_time": now, "end_time": now.Add(-time.Minute)}, http.StatusBadRequest},
		{"unknown category", child.ID, map[string]any{"category_id": "nope", "start_time": now.Add(-time.Minute), "end_time": now}, http.StatusNotFound},
		{"unknown child", "nobody", map[string]any{"category_id": homework, "start_time": now.Add(-time.Minute), "end_time": now}, http.StatusNotFound},
		{"bad mood", child.ID, map[string]any{"category_id": homework, "start_time": now.Add(-time.Minute), "end_time": now, "mood": 9}, http.StatusBadRequest},
		{"missing start", child.ID, map[string]any{"category_id": homework, "end_time": now}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := call(t, f.activity.Create, "POST", "/api/children/x/activities", tt.childID, tt.body)
			expectStatus(t, rec, tt.want)
		})
	}

	rec := call(t, f.activity.List, "GET", "/api/children/x/activities?date=03/06/2024", child.ID, nil)
	expectStatus(t, rec, http.StatusBadRequest)
	rec = call(t, f.activity.List, "GET", "/api/children/x/activities?from=2024-03-06&to=2024-03-01", child.ID, nil)
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestPointsAdjust(t *testing.T) {
	f := setup(t)
	child := f.createChild(t, "Ava")

	rec := call(t, f.progress.Adjust, "POST", "/api/children/x/points", child.ID, map[string]any{"amount": 0, "reason": "beat_average_bonus"})
	expectStatus(t, rec, http.StatusBadRequest)
	rec = call(t, f.progress.Adjust, "POST", "/api/children/x/points", child.ID, map[string]any{"amount": 5, "reason": "activity_complete"})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = call(t, f.progress.Adjust, "POST", "/api/children/x/points", child.ID, map[string]any{"amount": 10, "reason": "beat_average_bonus"})
	expectStatus(t, rec, http.StatusOK)
	if day := decode[model.ChildPoints](t, rec); day.BonusPoints != 10 || day.Total() != 10 {
		t.Errorf("day = %+v, want 10 bonus", day)
	}

	rec = call(t, f.progress.Points, "GET", "/api/children/x/points", child.ID, nil)
	expectStatus(t, rec, http.StatusOK)
	o := decode[tracker.PointsOverview](t, rec)
	if o.Total != 10 || len(o.Transactions) != 1 {
		t.Errorf("overview = %+v", o)
	}
	if o.Transactions[0].Reason != model.ReasonBeatAverageBonus {
		t.Errorf("reason = %q", o.Transactions[0].Reason)
	}

	rec = call(t, f.progress.Adjust, "POST", "/api/children/x/points", "nobody", map[string]any{"amount": 10, "reason": "beat_average_bonus"})
	expectStatus(t, rec, http.StatusNotFound)
}

func TestTimeGoals(t *testing.T) {
	f := setup(t)
	ava := f.createChild(t, "Ava")
	ben := f.createChild(t, "Ben")
	screen := store.CategoryIDFor(ava.ID, "Screen Time")

	rec := call(t, f.progress.PutTimeGoal, "PUT", "/api/children/x/time-goals", ben.ID, map[string]any{
		"category_id": screen, "recommended_minutes": 60,
	})
	expectStatus(t, rec, http.StatusNotFound)

	rec = call(t, f.progress.PutTimeGoal, "PUT", "/api/children/x/time-goals", ava.ID, map[string]any{
		"category_id": screen, "recommended_minutes": 60, "warning_threshold": 150,
	})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = call(t, f.progress.PutTimeGoal, "PUT", "/api/children/x/time-goals", ava.ID, map[string]any{
		"category_id": screen, "recommended_minutes": 60,
	})
	expectStatus(t, rec, http.StatusOK)
	goal := decode[model.TimeGoal](t, rec)
	if goal.WarningThreshold != model.DefaultWarningThreshold || !goal.IsActive {
		t.Errorf("goal = %+v", goal)
	}

	rec = call(t, f.progress.TimeGoals, "GET", "/api/children/x/time-goals", ava.ID, nil)
	expectStatus(t, rec, http.StatusOK)
	if goals := decode[[]model.TimeGoal](t, rec); len(goals) != 1 {
		t.Errorf("goals = %d, want 1", len(goals))
	}

	rec = call(t, f.progress.TimeGoalStatus, "GET", "/api/children/x/time-goals/status", ava.ID, nil)
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), `"status":"normal"`) {
		t.Errorf("status body = %s", rec.Body.String())
	}
}

func TestTasks(t *testing.T) {
	f := setup(t)
	child := f.createChild(t, "Ava")
	reading := store.CategoryIDFor(child.ID, "Reading")
	at := time.Now().UTC().Add(2 * time.Hour).Truncate(time.Second)

	rec := call(t, f.task.Create, "POST", "/api/children/x/tasks", child.ID, map[string]any{
		"category_id": reading, "title": "Library book", "scheduled_date": at,
	})
	expectStatus(t, rec, http.StatusCreated)
	task := decode[model.ScheduledTask](t, rec)
	if task.ReminderMinutesBefore != defaultReminderMinutes {
		t.Errorf("reminder = %d, want default %d", task.ReminderMinutesBefore, defaultReminderMinutes)
	}
	if task.CalendarSource != model.CalendarSourceApp {
		t.Errorf("calendar source = %q", task.CalendarSource)
	}

	rec = call(t, f.task.Create, "POST", "/api/children/x/tasks", child.ID, map[string]any{
		"category_id": reading, "title": "Quiet reading", "scheduled_date": at, "reminder_minutes_before": 0,
		"recurrence_rule": "FREQ=DAILY",
	})
	expectStatus(t, rec, http.StatusCreated)
	recurring := decode[model.ScheduledTask](t, rec)
	if recurring.ReminderMinutesBefore != 0 {
		t.Errorf("explicit zero reminder = %d", recurring.ReminderMinutesBefore)
	}

	rec = call(t, f.task.Create, "POST", "/api/children/x/tasks", child.ID, map[string]any{
		"category_id": reading, "title": "Bad", "scheduled_date": at, "recurrence_rule": "FREQ=HOURLY",
	})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = call(t, f.task.Create, "POST", "/api/children/x/tasks", child.ID, map[string]any{
		"title": "Piano lesson", "scheduled_date": at,
	})
	expectStatus(t, rec, http.StatusCreated)
	piano := decode[model.ScheduledTask](t, rec)
	if piano.CategoryID != store.CategoryIDFor(child.ID, "Music") {
		t.Errorf("suggested category = %s, want Music", piano.CategoryID)
	}

	rec = call(t, f.task.Create, "POST", "/api/children/x/tasks", child.ID, map[string]any{
		"title": "Dentist", "scheduled_date": at,
	})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = call(t, f.task.List, "GET", "/api/children/x/tasks", child.ID, nil)
	expectStatus(t, rec, http.StatusOK)
	if tasks := decode[[]model.ScheduledTask](t, rec); len(tasks) != 3 {
		t.Errorf("tasks = %d, want 3", len(tasks))
	}

	rec = call(t, f.task.Complete, "POST", "/api/tasks/x/complete", task.ID, map[string]any{})
	expectStatus(t, rec, http.StatusOK)
	if !decode[model.ScheduledTask](t, rec).IsCompleted {
		t.Error("one-off task should be completed")
	}

	day := at.Format(dateLayout)
	rec = call(t, f.task.Complete, "POST", "/api/tasks/x/complete", recurring.ID, map[string]any{"date": day})
	expectStatus(t, rec, http.StatusOK)
	got := decode[model.ScheduledTask](t, rec)
	if len(got.CompletedDates) != 1 || got.CompletedDates[0] != day || got.IsCompleted {
		t.Errorf("recurring task = %+v, want only %s completed", got, day)
	}

	rec = call(t, f.task.Delete, "DELETE", "/api/tasks/x", task.ID, nil)
	expectStatus(t, rec, http.StatusNoContent)
	rec = call(t, f.task.Complete, "POST", "/api/tasks/x/complete", task.ID, map[string]any{})
	expectStatus(t, rec, http.StatusNotFound)
}

func TestSpeech(t *testing.T) {
	f := setup(t)

	rec := call(t, f.speech.Streak, "GET", "/api/speech/streak", "", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[speechResponse](t, rec).Text; got != "No streak yet. Log an activity today to start one!" {
		t.Errorf("family streak = %q", got)
	}

	child := f.createChild(t, "Ava")
	rec = call(t, f.speech.Today, "GET", "/api/speech/today?child="+child.ID, "", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[speechResponse](t, rec).Text; got != "Ava hasn't logged any focus time today. Start a timer to begin!" {
		t.Errorf("today = %q", got)
	}

	rec = call(t, f.speech.Streak, "GET", "/api/speech/streak?child=nobody", "", nil)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestSuggestCategory(t *testing.T) {
	f := setup(t)
	child := f.createChild(t, "Ava")

	rec := call(t, f.category.Suggest, "GET", "/api/children/x/categories/suggest?title=Math+worksheet", child.ID, nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[model.Category](t, rec).Name; got != "Homework" {
		t.Errorf("suggested %q, want Homework", got)
	}

	rec = call(t, f.category.Suggest, "GET", "/api/children/x/categories/suggest?title=Dentist", child.ID, nil)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestTimerFlow(t *testing.T) {
	f := setup(t)
	child := f.createChild(t, "Ava")
	reading := store.CategoryIDFor(child.ID, "Reading")

	rec := call(t, f.timer.Get, "GET", "/api/children/x/timer", child.ID, nil)
	expectStatus(t, rec, http.StatusNotFound)

	rec = call(t, f.timer.Start, "POST", "/api/children/x/timer", child.ID, map[string]any{"category_id": reading})
	expectStatus(t, rec, http.StatusCreated)
	v := decode[timer.View](t, rec)
	if v.DurationSeconds != 1800 || v.State != timer.StateRunning || v.CategoryName != "Reading" {
		t.Errorf("started = %+v", v)
	}
	if !f.events.has(websocket.EntityTimer, websocket.ActionCreated) {
		t.Error("expected timer created event")
	}

	rec = call(t, f.timer.Resume, "POST", "/api/children/x/timer/resume", child.ID, nil)
	expectStatus(t, rec, http.StatusConflict)
	rec = call(t, f.timer.Pause, "POST", "/api/children/x/timer/pause", child.ID, nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[timer.View](t, rec).State; got != timer.StatePaused {
		t.Errorf("state = %s, want paused", got)
	}

	rec = call(t, f.timer.List, "GET", "/api/timers", "", nil)
	expectStatus(t, rec, http.StatusOK)
	if views := decode[[]timer.View](t, rec); len(views) != 1 || views[0].ChildID != child.ID {
		t.Errorf("timers = %+v", views)
	}

	rec = call(t, f.timer.Finish, "POST", "/api/children/x/timer/finish", child.ID, map[string]any{"is_complete": false})
	expectStatus(t, rec, http.StatusCreated)
	res := decode[activityResponse](t, rec)
	if res.Activity.IsManualEntry || res.Activity.IsComplete || res.Activity.CategoryID != reading {
		t.Errorf("logged activity = %+v", res.Activity)
	}

	rec = call(t, f.timer.Stop, "DELETE", "/api/children/x/timer", child.ID, nil)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestTimerValidation(t *testing.T) {
	f := setup(t)
	child := f.createChild(t, "Ava")
	homework := store.CategoryIDFor(child.ID, "Homework")

	tests := []struct {
		name    string
		childID string
		body    any
		want    int
	}{
		{"missing category", child.ID, map[string]any{"minutes": 10}, http.StatusBadRequest},
		{"too long", child.ID, map[string]any{"category_id": homework, "minutes": 600}, http.StatusBadRequest},
		{"unknown category", child.ID, map[string]any{"category_id": "nope"}, http.StatusNotFound},
		{"unknown child", "nobody", map[string]any{"category_id": homework}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := call(t, f.timer.Start, "POST", "/api/children/x/timer", tt.childID, tt.body)
			expectStatus(t, rec, tt.want)
		})
	}

	rec := call(t, f.timer.AddTime, "POST", "/api/children/x/timer/add-time", child.ID, map[string]any{"minutes": 5})
	expectStatus(t, rec, http.StatusNotFound)
}

func TestRedeemUnknownReward(t *testing.T) {
	f := setup(t)
	rec := call(t, f.progress.Redeem, "POST", "/api/rewards/x/redeem", "missing", nil)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestPushPreferences(t *testing.T) {
	f := setup(t)

	rec := call(t, f.push.GetPreferences, "GET", "/api/push/preferences", "", nil)
	expectStatus(t, rec, http.StatusOK)
	prefs := decode[[]model.NotificationPreference](t, rec)
	if len(prefs) != len(notificationTypes) {
		t.Fatalf("preferences = %d, want %d", len(prefs), len(notificationTypes))
	}
	for _, p := range prefs {
		if !p.Enabled {
			t.Errorf("%s should default to enabled", p.NotificationType)
		}
	}

	rec = call(t, f.push.UpdatePreferences, "PUT", "/api/push/preferences", "", map[string]any{
		"preferences": []map[string]any{{"type": "task_reminder", "enabled": false}},
	})
	expectStatus(t, rec, http.StatusOK)
	for _, p := range decode[[]model.NotificationPreference](t, rec) {
		if want := p.NotificationType != model.NotifTypeTaskReminder; p.Enabled != want {
			t.Errorf("%s enabled = %v, want %v", p.NotificationType, p.Enabled, want)
		}
	}

	rec = call(t, f.push.UpdatePreferences, "PUT", "/api/push/preferences", "", map[string]any{
		"preferences": []map[string]any{{"type": "bogus", "enabled": false}},
	})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = call(t, f.push.GetVAPIDKey, "GET", "/api/push/vapid-key", "", nil)
	expectStatus(t, rec, http.StatusServiceUnavailable)
}

func TestPushSubscribe(t *testing.T) {
	f := setup(t)
	sub := map[string]string{"endpoint": "https://push.example.com/abc", "p256dh": "key", "auth": "secret", "device_name": "Kitchen tablet"}

	rec := call(t, f.push.Subscribe, "POST", "/api/push/subscribe", "", sub)
	expectStatus(t, rec, http.StatusCreated)

	rec = call(t, f.push.Subscribe, "POST", "/api/push/subscribe", "", map[string]string{"endpoint": "not a url", "p256dh": "k", "auth": "a"})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = call(t, f.push.Unsubscribe, "DELETE", "/api/push/subscribe", "", map[string]string{"endpoint": sub["endpoint"]})
	expectStatus(t, rec, http.StatusNoContent)

	subs, err := store.NewPushStore(f.db).ListSubscriptions()
	if err != nil {
		t.Fatalf("list subscriptions: %v", err)
	}
	if len(subs) != 0 {
		t.Errorf("subscriptions = %d, want 0", len(subs))
	}
}

func TestBackupNotConfigured(t *testing.T) {
	f := setup(t)

	rec := call(t, f.backup.Create, "POST", "/api/backups", "", nil)
	expectStatus(t, rec, http.StatusServiceUnavailable)

	rec = call(t, f.backup.List, "GET", "/api/backups", "", nil)
	expectStatus(t, rec, http.StatusOK)
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("backups = %s, want []", body)
	}

	rec = call(t, f.backup.List, "GET", "/api/backups?limit=0", "", nil)
	expectStatus(t, rec, http.StatusBadRequest)

	rec = call(t, f.backup.Status, "GET", "/api/backups/status", "", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[backup.Status](t, rec).State; got != backup.StateDisabled {
		t.Errorf("state = %q, want disabled", got)
	}

	rec = call(t, f.backup.Restore, "POST", "/api/backups/x/restore", "abc", nil)
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{tracker.ErrChildNotFound, http.StatusNotFound},
		{fmt.Errorf("load: %w", reward.ErrRewardNotFound), http.StatusNotFound},
		{store.ErrInvalidTimeRange, http.StatusBadRequest},
		{points.ErrInvalidAmount, http.StatusBadRequest},
		{store.ErrSystemCategory, http.StatusConflict},
		{reward.ErrAlreadyRedeemed, http.StatusConflict},
		{reward.ErrNoTier, http.StatusConflict},
		{timer.ErrNoTimer, http.StatusNotFound},
		{timer.ErrNotPaused, http.StatusConflict},
		{timer.ErrInvalidTime, http.StatusBadRequest},
		{backup.ErrInProgress, http.StatusConflict},
		{backup.ErrDecrypt, http.StatusUnprocessableEntity},
		{backup.ErrNotConfigured, http.StatusServiceUnavailable},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := errorStatus(tt.err); got != tt.want {
				t.Errorf("errorStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestHandleErrorHidesInternalErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	handleError(rec, logging.Discard(), errors.New("sql: connection reset"), "failed to load")
	expectStatus(t, rec, http.StatusInternalServerError)
	if got := decode[map[string]string](t, rec)["error"]; got != "failed to load" {
		t.Errorf("error = %q", got)
	}
}
