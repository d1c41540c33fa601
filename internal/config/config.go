// Package config loads runtime settings from FOCUSPAL_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

const minPassphraseLen = 12

type Config struct {
	Port     string `validate:"required,numeric"`
	DBPath   string `validate:"required"`
	LogLevel string `validate:"oneof=debug info warn error"`
	Timezone string `validate:"required"`

	Push     PushConfig
	Postmark PostmarkConfig
	Backup   BackupConfig
}

type PushConfig struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string `validate:"required_with=VAPIDPublicKey"`
	VAPIDSubject    string `validate:"omitempty,startswith=mailto:|url"`
}

type PostmarkConfig struct {
	ServerToken string
	FromAddress string `validate:"required_with=ServerToken"`
}

type BackupConfig struct {
	S3Endpoint    string `validate:"omitempty,url"`
	S3Bucket      string
	S3Region      string
	S3AccessKey   string `validate:"required_with=S3Bucket"`
	S3SecretKey   string `validate:"required_with=S3Bucket"`
	Passphrase    string `validate:"required_with=S3Bucket"`
	Hour          int    `validate:"min=0,max=23"`
	RetentionDays int    `validate:"min=1"`
}

// Enabled reports whether backups have a bucket to write to.
func (b BackupConfig) Enabled() bool {
	return b.S3Bucket != ""
}

// Get returns the value of the requested environment variable or the supplied fallback when empty.
func Get(name, fallback string) string {
	if value, ok := os.LookupEnv(name); ok && value != "" {
		return value
	}
	return fallback
}

func getInt(name string, fallback int) (int, error) {
	raw := Get(name, "")
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return n, nil
}

// Load reads the environment into a Config and validates it.
func Load() (Config, error) {
	cfg := Config{
		Port:     Get("FOCUSPAL_PORT", "8080"),
		DBPath:   Get("FOCUSPAL_DB_PATH", "focuspal.db"),
		LogLevel: strings.ToLower(Get("FOCUSPAL_LOG_LEVEL", "info")),
		Timezone: Get("FOCUSPAL_TIMEZONE", "Local"),
		Push: PushConfig{
			VAPIDPublicKey:  Get("FOCUSPAL_VAPID_PUBLIC_KEY", ""),
			VAPIDPrivateKey: Get("FOCUSPAL_VAPID_PRIVATE_KEY", ""),
			VAPIDSubject:    Get("FOCUSPAL_VAPID_SUBJECT", ""),
		},
		Postmark: PostmarkConfig{
			ServerToken: Get("FOCUSPAL_POSTMARK_SERVER_TOKEN", ""),
			FromAddress: Get("FOCUSPAL_POSTMARK_FROM", ""),
		},
		Backup: BackupConfig{
			S3Endpoint:  Get("FOCUSPAL_S3_ENDPOINT", ""),
			S3Bucket:    Get("FOCUSPAL_S3_BUCKET", ""),
			S3Region:    Get("FOCUSPAL_S3_REGION", "auto"),
			S3AccessKey: Get("FOCUSPAL_S3_ACCESS_KEY", ""),
			S3SecretKey: Get("FOCUSPAL_S3_SECRET_KEY", ""),
			Passphrase:  Get("FOCUSPAL_BACKUP_PASSPHRASE", ""),
		},
	}

	var err error
	if cfg.Backup.Hour, err = getInt("FOCUSPAL_BACKUP_HOUR", 3); err != nil {
		return Config{}, err
	}
	if cfg.Backup.RetentionDays, err = getInt("FOCUSPAL_BACKUP_RETENTION_DAYS", 30); err != nil {
		return Config{}, err
	}

	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Backup.Enabled() && len(cfg.Backup.Passphrase) < minPassphraseLen {
		return Config{}, fmt.Errorf("FOCUSPAL_BACKUP_PASSPHRASE must be at least %d characters", minPassphraseLen)
	}
	if _, err := cfg.Location(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Location resolves Timezone. Day boundaries for streaks, daily totals and
// weeks are computed in this location.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
