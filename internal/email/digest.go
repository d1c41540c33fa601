package email

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/focuspal/internal/model"
	"github.com/dukerupert/focuspal/internal/reward"
	"github.com/dukerupert/focuspal/internal/summary"
)

// digestHour is the local hour on Sunday after which weekly reports go out.
const digestHour = 18

type SummaryBuilder interface {
	WeeklySummary(childID string, weekOf time.Time) (summary.Weekly, error)
}

type ChildLister interface {
	List() ([]model.Child, error)
}

type SentLog interface {
	WasSent(notifType, refID string) (bool, error)
	RecordSent(notifType, refID string) (bool, error)
}

// Digest sends each child's weekly summary to the parent email once per week.
type Digest struct {
	mu       sync.RWMutex
	client   *Client
	builder  SummaryBuilder
	children ChildLister
	sent     SentLog
	loc      *time.Location
	now      func() time.Time
	interval time.Duration
	logger   *slog.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewDigest(client *Client, builder SummaryBuilder, children ChildLister, sent SentLog, loc *time.Location, logger *slog.Logger) *Digest {
	return &Digest{
		client:   client,
		builder:  builder,
		children: children,
		sent:     sent,
		loc:      loc,
		now:      time.Now,
		interval: 15 * time.Minute,
		logger:   logger,
	}
}

// Start begins the digest loop.
func (d *Digest) Start(ctx context.Context) {
	d.mu.Lock()
	ctx, d.cancel = context.WithCancel(ctx)
	d.done = make(chan struct{})
	d.mu.Unlock()

	go func() {
		defer close(d.done)
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := d.RunIfDue(ctx); err != nil {
					d.logger.Error("weekly digest", "error", err)
				}
			}
		}
	}()
}

// Stop gracefully stops the digest loop.
func (d *Digest) Stop() {
	d.mu.RLock()
	cancel := d.cancel
	done := d.done
	d.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// RunIfDue sends any outstanding summaries for the current week once it is
// Sunday evening. It returns the number of emails sent.
func (d *Digest) RunIfDue(ctx context.Context) (int, error) {
	now := d.now().In(d.loc)
	if now.Weekday() != time.Sunday || now.Hour() < digestHour {
		return 0, nil
	}
	return d.Send(ctx, now)
}

// Send emails the summary of the week containing weekOf to every child with
// a parent email, skipping children already sent for that week.
func (d *Digest) Send(ctx context.Context, weekOf time.Time) (int, error) {
	if !d.client.Configured() {
		return 0, nil
	}
	children, err := d.children.List()
	if err != nil {
		return 0, err
	}

	weekStart, _ := reward.WeekBounds(weekOf)
	sent := 0
	for _, child := range children {
		if child.ParentEmail == "" {
			continue
		}
		ref := child.ID + ":" + weekStart.Format(model.CompletedDateLayout)
		done, err := d.sent.WasSent(model.NotifTypeWeeklySummary, ref)
		if err != nil {
			return sent, err
		}
		if done {
			continue
		}

		w, err := d.builder.WeeklySummary(child.ID, weekOf)
		if err != nil {
			d.logger.Error("build weekly summary", "child_id", child.ID, "error", err)
			continue
		}
		if err := d.client.SendWeeklySummary(ctx, child.ParentEmail, w); err != nil {
			d.logger.Error("send weekly summary", "child_id", child.ID, "error", err)
			continue
		}
		if _, err := d.sent.RecordSent(model.NotifTypeWeeklySummary, ref); err != nil {
			return sent, err
		}
		d.logger.Info("weekly summary sent", "child_id", child.ID, "week_start", weekStart.Format(model.CompletedDateLayout))
		sent++
	}
	return sent, nil
}
