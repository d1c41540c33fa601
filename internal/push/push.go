package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dukerupert/focuspal/internal/achievement"
	"github.com/dukerupert/focuspal/internal/model"
	"github.com/dukerupert/focuspal/internal/store"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// ErrExpired is returned when a push subscription is no longer valid (410 Gone or 404).
var ErrExpired = errors.New("push subscription expired")

const defaultSubject = "mailto:noreply@focuspal.app"

// Payload is the JSON sent to the push service.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
	Tag   string `json:"tag,omitempty"`
}

// Config holds VAPID configuration.
type Config struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	Subject         string
}

func (c Config) Enabled() bool {
	return c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != ""
}

// Service sends web push notifications to every registered device.
type Service struct {
	cfg    Config
	store  *store.PushStore
	client webpush.HTTPClient
	logger *slog.Logger
}

func NewService(cfg Config, pushStore *store.PushStore, logger *slog.Logger) *Service {
	if cfg.Subject == "" {
		cfg.Subject = defaultSubject
	}
	return &Service{
		cfg:    cfg,
		store:  pushStore,
		client: http.DefaultClient,
		logger: logger,
	}
}

// Enabled reports whether VAPID keys are configured.
func (s *Service) Enabled() bool {
	return s.cfg.Enabled()
}

// VAPIDPublicKey returns the VAPID public key for client-side subscription.
func (s *Service) VAPIDPublicKey() string {
	return s.cfg.VAPIDPublicKey
}

// Send sends a push notification to a subscription.
func (s *Service) Send(ctx context.Context, sub *model.PushSubscription, payload Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	resp, err := webpush.SendNotificationWithContext(ctx, data, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dhKey,
			Auth:   sub.AuthKey,
		},
	}, &webpush.Options{
		HTTPClient:      s.client,
		VAPIDPublicKey:  s.cfg.VAPIDPublicKey,
		VAPIDPrivateKey: s.cfg.VAPIDPrivateKey,
		Subscriber:      s.cfg.Subject,
		TTL:             86400,
		Urgency:         webpush.UrgencyNormal,
	})
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
		return ErrExpired
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("push service returned %d", resp.StatusCode)
	}

	return nil
}

// Broadcast delivers payload to every subscription when notifType is enabled.
// Expired subscriptions are removed. It returns the number of devices reached.
func (s *Service) Broadcast(ctx context.Context, notifType string, payload Payload) (int, error) {
	enabled, err := s.store.IsPreferenceEnabled(notifType)
	if err != nil {
		return 0, err
	}
	if !enabled {
		return 0, nil
	}

	subs, err := s.store.ListSubscriptions()
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, sub := range subs {
		if err := s.Send(ctx, &sub, payload); err != nil {
			if errors.Is(err, ErrExpired) {
				s.logger.Info("removing expired push subscription", "endpoint", sub.Endpoint)
				if err := s.store.DeleteByEndpoint(sub.Endpoint); err != nil {
					s.logger.Error("delete expired subscription", "error", err)
				}
				continue
			}
			s.logger.Warn("send push notification", "type", notifType, "device", sub.DeviceName, "error", err)
			continue
		}
		sent++
	}
	return sent, nil
}

// NotifyAchievement announces a newly unlocked achievement.
func (s *Service) NotifyAchievement(ctx context.Context, child model.Child, t achievement.Type) error {
	_, err := s.Broadcast(ctx, model.NotifTypeAchievement, Payload{
		Title: "Achievement Unlocked!",
		Body:  achievement.UnlockMessage(child.Name, t),
		URL:   "/children/" + child.ID + "/achievements",
		Tag:   "achievement-" + child.ID + "-" + t.Key,
	})
	return err
}

// NotifyTimerExpired announces that a child's countdown reached zero.
func (s *Service) NotifyTimerExpired(ctx context.Context, child model.Child, categoryName string) error {
	_, err := s.Broadcast(ctx, model.NotifTypeTimerExpired, Payload{
		Title: "Timer Complete!",
		Body:  fmt.Sprintf("%s's %s session has ended.", child.Name, categoryName),
		URL:   "/children/" + child.ID + "/timer",
		Tag:   "timer-" + child.ID,
	})
	return err
}

// GenerateVAPIDKeys generates a new VAPID key pair, base64url encoded.
func GenerateVAPIDKeys() (publicKey, privateKey string, err error) {
	privateKey, publicKey, err = webpush.GenerateVAPIDKeys()
	if err != nil {
		return "", "", fmt.Errorf("generate VAPID keys: %w", err)
	}
	return publicKey, privateKey, nil
}
