package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/focuspal/internal/model"
	"github.com/dukerupert/focuspal/internal/push"
	"github.com/dukerupert/focuspal/internal/store"
)

// notificationTypes lists the preferences a client can toggle.
var notificationTypes = []string{
	model.NotifTypeTimeGoalWarning,
	model.NotifTypeTimeGoalExceeded,
	model.NotifTypeTaskReminder,
	model.NotifTypeAchievement,
	model.NotifTypeWeeklySummary,
	model.NotifTypeTimerExpired,
}

type PushHandler struct {
	pushStore *store.PushStore
	service   *push.Service
	logger    *slog.Logger
}

func NewPushHandler(ps *store.PushStore, svc *push.Service, logger *slog.Logger) *PushHandler {
	return &PushHandler{pushStore: ps, service: svc, logger: logger}
}

type subscribeRequest struct {
	Endpoint   string `json:"endpoint" validate:"required,url"`
	P256dh     string `json:"p256dh" validate:"required"`
	Auth       string `json:"auth" validate:"required"`
	DeviceName string `json:"device_name" validate:"max=100"`
}

// Subscribe handles POST /api/push/subscribe. Re-subscribing an endpoint
// replaces its keys.
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if !decodeValid(w, r, &req) {
		return
	}

	sub, err := h.pushStore.SaveSubscription(req.Endpoint, req.P256dh, req.Auth, req.DeviceName)
	if err != nil {
		h.logger.Error("save push subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save subscription")
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint" validate:"required"`
}

// Unsubscribe handles DELETE /api/push/subscribe
func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req unsubscribeRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if err := h.pushStore.DeleteByEndpoint(req.Endpoint); err != nil {
		h.logger.Error("delete push subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete subscription")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetVAPIDKey handles GET /api/push/vapid-key
func (h *PushHandler) GetVAPIDKey(w http.ResponseWriter, r *http.Request) {
	if !h.service.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "push notifications are not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"public_key": h.service.VAPIDPublicKey()})
}

// GetPreferences lists every notification type. Types never set are enabled.
func (h *PushHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	stored, err := h.pushStore.ListPreferences()
	if err != nil {
		h.logger.Error("list notification preferences", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get preferences")
		return
	}
	byType := make(map[string]model.NotificationPreference, len(stored))
	for _, p := range stored {
		byType[p.NotificationType] = p
	}

	prefs := make([]model.NotificationPreference, 0, len(notificationTypes))
	for _, t := range notificationTypes {
		p, ok := byType[t]
		if !ok {
			p = model.NotificationPreference{NotificationType: t, Enabled: true}
		}
		prefs = append(prefs, p)
	}
	writeJSON(w, http.StatusOK, prefs)
}

type updatePreferencesRequest struct {
	Preferences []prefItem `json:"preferences" validate:"required,dive"`
}

type prefItem struct {
	Type    string `json:"type" validate:"required,oneof=time_goal_warning time_goal_exceeded task_reminder achievement_unlocked weekly_summary"`
	Enabled bool   `json:"enabled"`
}

// UpdatePreferences handles PUT /api/push/preferences
func (h *PushHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req updatePreferencesRequest
	if !decodeValid(w, r, &req) {
		return
	}
	for _, p := range req.Preferences {
		if err := h.pushStore.SetPreference(p.Type, p.Enabled); err != nil {
			h.logger.Error("set notification preference", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to update preferences")
			return
		}
	}
	h.GetPreferences(w, r)
}

// TestNotification handles POST /api/push/test
func (h *PushHandler) TestNotification(w http.ResponseWriter, r *http.Request) {
	if !h.service.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "push notifications are not configured")
		return
	}
	sent, err := h.service.Broadcast(r.Context(), "test", push.Payload{
		Title: "FocusPal",
		Body:  "Notifications are working!",
		URL:   "/",
		Tag:   "test",
	})
	if err != nil {
		h.logger.Error("send test notification", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to send test notification")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"sent": sent})
}
