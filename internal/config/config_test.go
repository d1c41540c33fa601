package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("port = %q, want 8080", cfg.Port)
	}
	if cfg.DBPath != "focuspal.db" {
		t.Errorf("db path = %q", cfg.DBPath)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("log level = %q", cfg.LogLevel)
	}
	if cfg.Backup.Hour != 3 || cfg.Backup.RetentionDays != 30 {
		t.Errorf("backup = %+v", cfg.Backup)
	}
	if cfg.Backup.Enabled() {
		t.Error("backups should be disabled without a bucket")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FOCUSPAL_PORT", "9090")
	t.Setenv("FOCUSPAL_LOG_LEVEL", "DEBUG")
	t.Setenv("FOCUSPAL_TIMEZONE", "America/Denver")
	t.Setenv("FOCUSPAL_S3_BUCKET", "focuspal-backups")
	t.Setenv("FOCUSPAL_S3_ACCESS_KEY", "key")
	t.Setenv("FOCUSPAL_S3_SECRET_KEY", "secret")
	t.Setenv("FOCUSPAL_BACKUP_PASSPHRASE", "correct horse battery")
	t.Setenv("FOCUSPAL_BACKUP_HOUR", "4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" || cfg.LogLevel != "debug" {
		t.Errorf("cfg = %+v", cfg)
	}
	if !cfg.Backup.Enabled() || cfg.Backup.Hour != 4 {
		t.Errorf("backup = %+v", cfg.Backup)
	}
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("location: %v", err)
	}
	if loc.String() != "America/Denver" {
		t.Errorf("location = %s", loc)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad log level", map[string]string{"FOCUSPAL_LOG_LEVEL": "verbose"}},
		{"non-numeric port", map[string]string{"FOCUSPAL_PORT": "http"}},
		{"bucket without keys", map[string]string{"FOCUSPAL_S3_BUCKET": "b"}},
		{"short passphrase", map[string]string{
			"FOCUSPAL_S3_BUCKET":         "b",
			"FOCUSPAL_S3_ACCESS_KEY":     "k",
			"FOCUSPAL_S3_SECRET_KEY":     "s",
			"FOCUSPAL_BACKUP_PASSPHRASE": "short",
		}},
		{"backup hour out of range", map[string]string{"FOCUSPAL_BACKUP_HOUR": "24"}},
		{"backup hour not a number", map[string]string{"FOCUSPAL_BACKUP_HOUR": "three"}},
		{"postmark token without sender", map[string]string{"FOCUSPAL_POSTMARK_SERVER_TOKEN": "tok"}},
		{"vapid public without private", map[string]string{"FOCUSPAL_VAPID_PUBLIC_KEY": "pub"}},
		{"unknown timezone", map[string]string{"FOCUSPAL_TIMEZONE": "Mars/Olympus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestGetFallsBackOnEmpty(t *testing.T) {
	t.Setenv("FOCUSPAL_TEST_VALUE", "")
	if got := Get("FOCUSPAL_TEST_VALUE", "fallback"); got != "fallback" {
		t.Errorf("got %q, want fallback", got)
	}
	t.Setenv("FOCUSPAL_TEST_VALUE", "set")
	if got := Get("FOCUSPAL_TEST_VALUE", "fallback"); got != "set" {
		t.Errorf("got %q, want set", got)
	}
}
