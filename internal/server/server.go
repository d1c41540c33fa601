// Package server wires stores, services and handlers into the HTTP router.
package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/focuspal/internal/backup"
	"github.com/dukerupert/focuspal/internal/catalog"
	"github.com/dukerupert/focuspal/internal/email"
	"github.com/dukerupert/focuspal/internal/handler"
	"github.com/dukerupert/focuspal/internal/middleware"
	"github.com/dukerupert/focuspal/internal/push"
	"github.com/dukerupert/focuspal/internal/store"
	"github.com/dukerupert/focuspal/internal/timer"
	"github.com/dukerupert/focuspal/internal/tracker"
	ws "github.com/dukerupert/focuspal/internal/websocket"
)

// Limits for endpoints that reach external services.
var (
	backupLimit = middleware.Limit{Requests: 5, Window: time.Hour}
	pushLimit   = middleware.Limit{Requests: 30, Window: time.Minute}
)

// Config carries the settings the server's services need.
type Config struct {
	Location      *time.Location
	Push          push.Config
	Backup        backup.Config
	PostmarkToken string
	PostmarkFrom  string
}

type Server struct {
	db        *sql.DB
	hub       *ws.Hub
	tracker   *tracker.Service
	childH    *handler.ChildHandler
	categoryH *handler.CategoryHandler
	activityH *handler.ActivityHandler
	progressH *handler.ProgressHandler
	taskH     *handler.TaskHandler
	speechH   *handler.SpeechHandler
	pushH     *handler.PushHandler
	backupH   *handler.BackupHandler
	timerH    *handler.TimerHandler

	rateLimiter   *middleware.RateLimiter
	backupManager *backup.Manager
	pushScheduler *push.Scheduler
	timerWatcher  *timer.Watcher
	digest        *email.Digest
	logger        *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	hub := ws.NewHub(logger)

	childStore := store.NewChildStore(db)
	categoryStore := store.NewCategoryStore(db)
	pushStore := store.NewPushStore(db)
	cat := catalog.NewService(categoryStore, logger.With("component", "catalog"))

	svc := tracker.New(db, hub, cfg.Location, logger)
	timerLogger := logger.With("component", "timer")
	timers := timer.NewService(db, svc, hub, timerLogger)

	pushLogger := logger.With("component", "push")
	pushSvc := push.NewService(cfg.Push, pushStore, pushLogger)
	var pushSched *push.Scheduler
	if pushSvc.Enabled() {
		svc.SetNotifier(pushSvc)
		timers.SetNotifier(pushSvc)
		pushSched = push.NewScheduler(pushSvc, db, cfg.Location, pushLogger)
	}

	emailClient := email.NewClient(cfg.PostmarkToken, cfg.PostmarkFrom)
	digest := email.NewDigest(emailClient, svc, childStore, pushStore, cfg.Location, logger.With("component", "email"))

	if cfg.Backup.Location == nil {
		cfg.Backup.Location = cfg.Location
	}
	backupMgr := backup.NewManager(cfg.Backup, db, func(s backup.Status) {
		hub.Publish(ws.EntityBackup, string(s.State), "", "", map[string]any{
			"in_progress": s.InProgress,
			"error":       s.Error,
		})
	}, logger.With("component", "backup"))

	return &Server{
		db:            db,
		hub:           hub,
		tracker:       svc,
		childH:        handler.NewChildHandler(childStore, cat, hub, logger.With("component", "child")),
		categoryH:     handler.NewCategoryHandler(categoryStore, childStore, cat, hub, logger.With("component", "category")),
		activityH:     handler.NewActivityHandler(svc, store.NewActivityStore(db), logger.With("component", "activity")),
		progressH:     handler.NewProgressHandler(svc, store.NewTimeGoalStore(db), categoryStore, hub, logger.With("component", "progress")),
		taskH:         handler.NewTaskHandler(svc, store.NewTaskStore(db), categoryStore, hub, logger.With("component", "task")),
		speechH:       handler.NewSpeechHandler(svc, childStore, logger.With("component", "speech")),
		pushH:         handler.NewPushHandler(pushStore, pushSvc, logger.With("component", "push_handler")),
		backupH:       handler.NewBackupHandler(backupMgr, hub, logger.With("component", "backup_handler")),
		timerH:        handler.NewTimerHandler(timers, logger.With("component", "timer_handler")),
		rateLimiter:   middleware.NewRateLimiter(),
		backupManager: backupMgr,
		pushScheduler: pushSched,
		timerWatcher:  timer.NewWatcher(timers, timerLogger),
		digest:        digest,
		logger:        logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// BackupManager returns the backup manager.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

// PushScheduler returns the push notification scheduler, or nil when push
// is not configured.
func (s *Server) PushScheduler() *push.Scheduler {
	return s.pushScheduler
}

// TimerWatcher returns the loop that announces expired timers.
func (s *Server) TimerWatcher() *timer.Watcher {
	return s.timerWatcher
}

// Digest returns the weekly summary email sender.
func (s *Server) Digest() *email.Digest {
	return s.digest
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.healthHandler)
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))

	// Children
	mux.HandleFunc("GET /api/children", s.childH.List)
	mux.HandleFunc("POST /api/children", s.childH.Create)
	mux.HandleFunc("GET /api/children/{id}", s.childH.Get)
	mux.HandleFunc("PUT /api/children/{id}", s.childH.Update)
	mux.HandleFunc("DELETE /api/children/{id}", s.childH.Delete)

	// Categories
	mux.HandleFunc("GET /api/children/{id}/categories", s.categoryH.List)
	mux.HandleFunc("POST /api/children/{id}/categories", s.categoryH.Create)
	mux.HandleFunc("GET /api/children/{id}/categories/suggest", s.categoryH.Suggest)
	mux.HandleFunc("PUT /api/categories/{id}", s.categoryH.Update)
	mux.HandleFunc("POST /api/categories/{id}/deactivate", s.categoryH.Deactivate)
	mux.HandleFunc("DELETE /api/categories/{id}", s.categoryH.Delete)

	// Activities
	mux.HandleFunc("GET /api/children/{id}/activities", s.activityH.List)
	mux.HandleFunc("POST /api/children/{id}/activities", s.activityH.Create)
	mux.HandleFunc("PATCH /api/activities/{id}", s.activityH.Update)
	mux.HandleFunc("DELETE /api/activities/{id}", s.activityH.Delete)

	// Progress
	mux.HandleFunc("GET /api/children/{id}/today", s.progressH.Today)
	mux.HandleFunc("GET /api/children/{id}/balance", s.progressH.Balance)
	mux.HandleFunc("GET /api/children/{id}/streak", s.progressH.Streak)
	mux.HandleFunc("GET /api/streak", s.progressH.FamilyStreak)
	mux.HandleFunc("GET /api/children/{id}/points", s.progressH.Points)
	mux.HandleFunc("POST /api/children/{id}/points", s.progressH.Adjust)
	mux.HandleFunc("GET /api/children/{id}/achievements", s.progressH.Achievements)
	mux.HandleFunc("GET /api/children/{id}/time-goals", s.progressH.TimeGoals)
	mux.HandleFunc("PUT /api/children/{id}/time-goals", s.progressH.PutTimeGoal)
	mux.HandleFunc("GET /api/children/{id}/time-goals/status", s.progressH.TimeGoalStatus)
	mux.HandleFunc("GET /api/children/{id}/rewards", s.progressH.Rewards)
	mux.HandleFunc("POST /api/rewards/{id}/redeem", s.progressH.Redeem)
	mux.HandleFunc("GET /api/children/{id}/summary/weekly", s.progressH.WeeklySummary)
	mux.HandleFunc("GET /api/children/{id}/widget", s.progressH.Widget)
	mux.HandleFunc("GET /api/widget", s.progressH.Widget)

	// Timers
	mux.HandleFunc("GET /api/timers", s.timerH.List)
	mux.HandleFunc("GET /api/children/{id}/timer", s.timerH.Get)
	mux.HandleFunc("POST /api/children/{id}/timer", s.timerH.Start)
	mux.HandleFunc("DELETE /api/children/{id}/timer", s.timerH.Stop)
	mux.HandleFunc("POST /api/children/{id}/timer/pause", s.timerH.Pause)
	mux.HandleFunc("POST /api/children/{id}/timer/resume", s.timerH.Resume)
	mux.HandleFunc("POST /api/children/{id}/timer/add-time", s.timerH.AddTime)
	mux.HandleFunc("POST /api/children/{id}/timer/finish", s.timerH.Finish)

	// Scheduled tasks
	mux.HandleFunc("GET /api/children/{id}/tasks", s.taskH.List)
	mux.HandleFunc("POST /api/children/{id}/tasks", s.taskH.Create)
	mux.HandleFunc("PATCH /api/tasks/{id}", s.taskH.Update)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.taskH.Delete)
	mux.HandleFunc("POST /api/tasks/{id}/complete", s.taskH.Complete)

	// Voice assistant
	mux.HandleFunc("GET /api/speech/streak", s.speechH.Streak)
	mux.HandleFunc("GET /api/speech/today", s.speechH.Today)

	// Push notifications
	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.GetVAPIDKey)
	mux.Handle("POST /api/push/subscribe", s.limited(pushLimit, s.pushH.Subscribe))
	mux.Handle("DELETE /api/push/subscribe", s.limited(pushLimit, s.pushH.Unsubscribe))
	mux.HandleFunc("GET /api/push/preferences", s.pushH.GetPreferences)
	mux.HandleFunc("PUT /api/push/preferences", s.pushH.UpdatePreferences)
	mux.Handle("POST /api/push/test", s.limited(pushLimit, s.pushH.TestNotification))

	// Backups
	mux.HandleFunc("GET /api/backups", s.backupH.List)
	mux.HandleFunc("GET /api/backups/status", s.backupH.Status)
	mux.Handle("POST /api/backups", s.limited(backupLimit, s.backupH.Create))
	mux.Handle("POST /api/backups/{id}/restore", s.limited(backupLimit, s.backupH.Restore))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check", "error", err)
		status = "unavailable"
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{"status": status, "clients": s.hub.ClientCount()})
}

func (s *Server) limited(l middleware.Limit, h http.HandlerFunc) http.Handler {
	return middleware.RateLimit(s.rateLimiter, l)(h)
}
