package backup

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dukerupert/focuspal/internal/database"
	"github.com/dukerupert/focuspal/internal/model"
	"github.com/dukerupert/focuspal/internal/store"
)

var (
	ErrNotConfigured  = errors.New("backup not configured")
	ErrBackupNotFound = errors.New("backup not found")
	ErrNotCompleted   = errors.New("backup did not complete")
	ErrInProgress     = errors.New("backup already in progress")
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

func (c S3Config) complete() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

// Config holds backup manager configuration. Hour is the local hour of the
// daily scheduled backup.
type Config struct {
	S3            S3Config
	DBPath        string
	Passphrase    string
	Hour          int
	RetentionDays int
	Location      *time.Location
}

// State represents the backup manager state.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateDisabled State = "disabled"
	StateError    State = "error"
)

// Status holds the current backup manager status.
type Status struct {
	State      State      `json:"state"`
	LastBackup *time.Time `json:"last_backup,omitempty"`
	Error      string     `json:"error,omitempty"`
	InProgress bool       `json:"in_progress"`
}

// StatusCallback is called whenever the backup state changes.
type StatusCallback func(Status)

// Manager manages encrypted backups to S3-compatible storage.
type Manager struct {
	mu       sync.RWMutex
	cfg      Config
	status   Status
	callback StatusCallback
	lastRun  string

	db      *sql.DB
	backups *store.BackupStore
	client  s3Client
	now     func() time.Time
	logger  *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager creates a new backup manager. It is disabled unless S3
// credentials and a passphrase are configured.
func NewManager(cfg Config, db *sql.DB, callback StatusCallback, logger *slog.Logger) *Manager {
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 30
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	m := &Manager{
		cfg:      cfg,
		db:       db,
		backups:  store.NewBackupStore(db),
		callback: callback,
		now:      time.Now,
		logger:   logger,
		status:   Status{State: StateDisabled},
	}

	if cfg.S3.complete() && cfg.Passphrase != "" {
		m.client = newS3Client(cfg.S3)
		m.status.State = StateIdle
	}

	return m
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Start begins the scheduled backup loop.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.status.State == StateDisabled {
		m.mu.Unlock()
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	m.mu.Unlock()

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.checkSchedule(ctx)
			}
		}
	}()
}

// Stop gracefully stops the backup manager.
func (m *Manager) Stop() {
	m.mu.RLock()
	cancel := m.cancel
	done := m.done
	m.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Status returns the current backup status.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	m.status = s
	m.mu.Unlock()
	if m.callback != nil {
		m.callback(s)
	}
}

func (m *Manager) fail(id int64, err error) {
	if id != 0 {
		if uerr := m.backups.UpdateStatus(id, model.BackupStatusFailed, err.Error()); uerr != nil {
			m.logger.Error("mark backup failed", "backup_id", id, "error", uerr)
		}
	}
	m.setStatus(Status{State: StateError, Error: err.Error()})
}

// checkSchedule runs the daily backup once the configured hour is reached.
func (m *Manager) checkSchedule(ctx context.Context) {
	now := m.now().In(m.cfg.Location)
	day := now.Format("2006-01-02")

	m.mu.Lock()
	due := now.Hour() == m.cfg.Hour && m.lastRun != day
	if due {
		m.lastRun = day
	}
	m.mu.Unlock()
	if !due {
		return
	}

	if _, err := m.RunNow(ctx); err != nil {
		m.logger.Error("scheduled backup failed", "error", err)
	}
	if err := m.Cleanup(ctx); err != nil {
		m.logger.Error("backup cleanup failed", "error", err)
	}
}

// List returns the most recent backup records.
func (m *Manager) List(limit int) ([]model.Backup, error) {
	return m.backups.List(limit)
}

// RunNow snapshots, encrypts and uploads the database.
func (m *Manager) RunNow(ctx context.Context) (*model.Backup, error) {
	m.mu.Lock()
	client := m.client
	bucket := m.cfg.S3.Bucket
	passphrase := m.cfg.Passphrase
	if client == nil {
		m.mu.Unlock()
		return nil, ErrNotConfigured
	}
	if m.status.InProgress {
		m.mu.Unlock()
		return nil, ErrInProgress
	}
	m.status = Status{State: StateRunning, InProgress: true, LastBackup: m.status.LastBackup}
	running := m.status
	m.mu.Unlock()
	if m.callback != nil {
		m.callback(running)
	}

	filename := fmt.Sprintf("focuspal-%s.db.enc", m.now().UTC().Format("2006-01-02T150405Z"))
	s3Key := "backups/" + filename

	record, err := m.backups.Create(filename, s3Key)
	if err != nil {
		m.fail(0, err)
		return nil, fmt.Errorf("create backup record: %w", err)
	}
	if err := m.backups.UpdateStatus(record.ID, model.BackupStatusUploading, ""); err != nil {
		m.fail(record.ID, err)
		return nil, err
	}

	tmpDir, err := os.MkdirTemp("", "focuspal-backup-")
	if err != nil {
		m.fail(record.ID, err)
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	snapshot := filepath.Join(tmpDir, "snapshot.db")
	if err := database.Snapshot(m.db, snapshot); err != nil {
		m.fail(record.ID, err)
		return nil, err
	}

	plaintext, err := os.ReadFile(snapshot)
	if err != nil {
		m.fail(record.ID, err)
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	sealed, err := Encrypt(plaintext, passphrase)
	if err != nil {
		m.fail(record.ID, err)
		return nil, fmt.Errorf("encrypt: %w", err)
	}

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(s3Key),
		Body:          bytes.NewReader(sealed),
		ContentLength: aws.Int64(int64(len(sealed))),
		ContentType:   aws.String("application/octet-stream"),
	})
	if err != nil {
		m.fail(record.ID, err)
		return nil, fmt.Errorf("upload to s3: %w", err)
	}

	if err := m.backups.UpdateCompleted(record.ID, int64(len(sealed))); err != nil {
		m.fail(record.ID, err)
		return nil, err
	}

	now := m.now().UTC()
	m.setStatus(Status{State: StateIdle, LastBackup: &now})
	m.logger.Info("backup uploaded", "backup_id", record.ID, "key", s3Key, "bytes", len(sealed))

	return m.backups.GetByID(record.ID)
}

// Restore downloads and decrypts a backup, verifies it, and stages it next
// to the live database. The staged copy replaces the database on the next
// start.
func (m *Manager) Restore(ctx context.Context, backupID int64) error {
	m.mu.RLock()
	client := m.client
	bucket := m.cfg.S3.Bucket
	passphrase := m.cfg.Passphrase
	m.mu.RUnlock()

	if client == nil {
		return ErrNotConfigured
	}

	record, err := m.backups.GetByID(backupID)
	if err != nil {
		return fmt.Errorf("get backup: %w", err)
	}
	if record == nil {
		return ErrBackupNotFound
	}
	if record.Status != model.BackupStatusCompleted {
		return ErrNotCompleted
	}

	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(record.S3Key),
	})
	if err != nil {
		return fmt.Errorf("download from s3: %w", err)
	}
	defer result.Body.Close()

	sealed, err := io.ReadAll(result.Body)
	if err != nil {
		return fmt.Errorf("read downloaded backup: %w", err)
	}
	plaintext, err := Decrypt(sealed, passphrase)
	if err != nil {
		return err
	}

	staged := m.cfg.DBPath + database.RestoredSuffix
	tmp := staged + ".tmp"
	if err := os.WriteFile(tmp, plaintext, 0600); err != nil {
		return fmt.Errorf("write restored database: %w", err)
	}
	if err := database.IntegrityCheck(tmp); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, staged); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("stage restored database: %w", err)
	}

	m.logger.Info("backup staged for restore", "backup_id", backupID, "path", staged)
	return nil
}

// Cleanup deletes backups older than the retention period.
func (m *Manager) Cleanup(ctx context.Context) error {
	m.mu.RLock()
	client := m.client
	bucket := m.cfg.S3.Bucket
	retention := m.cfg.RetentionDays
	m.mu.RUnlock()

	if client == nil {
		return nil
	}

	before := m.now().UTC().AddDate(0, 0, -retention)
	keys, err := m.backups.DeleteOlderThan(before)
	if err != nil {
		return fmt.Errorf("delete old backups: %w", err)
	}

	for _, key := range keys {
		if _, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		}); err != nil {
			m.logger.Warn("delete s3 object", "key", key, "error", err)
		}
	}

	return nil
}
