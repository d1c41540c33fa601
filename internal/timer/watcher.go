package timer

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Watcher polls for timers that have run out.
type Watcher struct {
	mu       sync.RWMutex
	service  *Service
	interval time.Duration
	logger   *slog.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewWatcher(svc *Service, logger *slog.Logger) *Watcher {
	return &Watcher{
		service:  svc,
		interval: time.Second,
		logger:   logger,
	}
}

// Start begins the polling loop.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	w.mu.Unlock()

	go func() {
		defer close(w.done)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := w.service.CheckExpired(ctx); n > 0 {
					w.logger.Debug("timers expired", "count", n)
				}
			}
		}
	}()
}

// Stop ends the loop and waits for it to exit.
func (w *Watcher) Stop() {
	w.mu.RLock()
	cancel := w.cancel
	done := w.done
	w.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}
