package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/focuspal/internal/backup"
	"github.com/dukerupert/focuspal/internal/config"
	"github.com/dukerupert/focuspal/internal/database"
	"github.com/dukerupert/focuspal/internal/logging"
	"github.com/dukerupert/focuspal/internal/push"
	"github.com/dukerupert/focuspal/internal/server"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "vapid" {
		if err := printVAPIDKeys(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "focuspal: %v\n", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel)

	if err := run(cfg, logger); err != nil {
		logger.Error("focuspal stopped", "error", err)
		os.Exit(1)
	}
}

// printVAPIDKeys prints a fresh key pair as environment assignments.
func printVAPIDKeys() error {
	pub, priv, err := push.GenerateVAPIDKeys()
	if err != nil {
		return err
	}
	fmt.Printf("FOCUSPAL_VAPID_PUBLIC_KEY=%s\nFOCUSPAL_VAPID_PRIVATE_KEY=%s\n", pub, priv)
	return nil
}

func run(cfg config.Config, logger *slog.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	applied, err := database.ApplyPendingRestore(cfg.DBPath)
	if err != nil {
		return err
	}
	if applied {
		logger.Info("applied restored database", "path", cfg.DBPath)
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	srv := server.New(db, server.Config{
		Location: loc,
		Push: push.Config{
			VAPIDPublicKey:  cfg.Push.VAPIDPublicKey,
			VAPIDPrivateKey: cfg.Push.VAPIDPrivateKey,
			Subject:         cfg.Push.VAPIDSubject,
		},
		Backup: backup.Config{
			S3: backup.S3Config{
				Endpoint:  cfg.Backup.S3Endpoint,
				Bucket:    cfg.Backup.S3Bucket,
				Region:    cfg.Backup.S3Region,
				AccessKey: cfg.Backup.S3AccessKey,
				SecretKey: cfg.Backup.S3SecretKey,
			},
			DBPath:        cfg.DBPath,
			Passphrase:    cfg.Backup.Passphrase,
			Hour:          cfg.Backup.Hour,
			RetentionDays: cfg.Backup.RetentionDays,
			Location:      loc,
		},
		PostmarkToken: cfg.Postmark.ServerToken,
		PostmarkFrom:  cfg.Postmark.FromAddress,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv.RateLimiter().StartCleanup(ctx, 5*time.Minute)
	srv.BackupManager().Start(ctx)
	defer srv.BackupManager().Stop()
	srv.TimerWatcher().Start(ctx)
	defer srv.TimerWatcher().Stop()
	srv.Digest().Start(ctx)
	defer srv.Digest().Stop()
	if sched := srv.PushScheduler(); sched != nil {
		sched.Start(ctx)
		defer sched.Stop()
	} else {
		logger.Info("push notifications disabled, set FOCUSPAL_VAPID_PUBLIC_KEY and FOCUSPAL_VAPID_PRIVATE_KEY to enable")
	}

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("focuspal listening", "addr", "http://localhost:"+cfg.Port, "timezone", loc.String())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
