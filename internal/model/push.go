package model

import "time"

const (
	NotifTypeTimeGoalWarning  = "time_goal_warning"
	NotifTypeTimeGoalExceeded = "time_goal_exceeded"
	NotifTypeTaskReminder     = "task_reminder"
	NotifTypeAchievement      = "achievement_unlocked"
	NotifTypeWeeklySummary    = "weekly_summary"
	NotifTypeTimerExpired     = "timer_expired"
)

type PushSubscription struct {
	ID         int64     `json:"id"`
	Endpoint   string    `json:"endpoint"`
	P256dhKey  string    `json:"p256dh_key"`
	AuthKey    string    `json:"auth_key"`
	DeviceName string    `json:"device_name"`
	CreatedAt  time.Time `json:"created_at"`
}

type NotificationPreference struct {
	NotificationType string    `json:"notification_type"`
	Enabled          bool      `json:"enabled"`
	UpdatedAt        time.Time `json:"updated_at"`
}
