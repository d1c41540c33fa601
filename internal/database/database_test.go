package database

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpenRunsMigrations(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	for _, table := range []string{"children", "categories", "activities", "child_points",
		"points_transactions", "achievements", "scheduled_tasks", "time_goals", "weekly_rewards",
		"push_subscriptions", "backups", "timer_sessions"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	_, err = db.Exec(`INSERT INTO categories (id, child_id, name) VALUES ('c1', 'missing', 'Homework')`)
	if err == nil {
		t.Error("expected foreign key violation for unknown child")
	}
}

func TestSnapshotAndIntegrityCheck(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(filepath.Join(dir, "live.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`INSERT INTO children (id, name) VALUES ('k1', 'Ava')`); err != nil {
		t.Fatalf("insert child: %v", err)
	}

	snap := filepath.Join(dir, "snap.db")
	if err := Snapshot(db, snap); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if err := IntegrityCheck(snap); err != nil {
		t.Fatalf("integrity check: %v", err)
	}

	snapDB, err := Open(snap)
	if err != nil {
		t.Fatalf("open snapshot: %v", err)
	}
	defer snapDB.Close()
	var name string
	if err := snapDB.QueryRow(`SELECT name FROM children WHERE id = 'k1'`).Scan(&name); err != nil {
		t.Fatalf("query snapshot: %v", err)
	}
	if name != "Ava" {
		t.Errorf("name = %q, want Ava", name)
	}
}

func TestApplyPendingRestore(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "focuspal.db")

	applied, err := ApplyPendingRestore(dbPath)
	if err != nil {
		t.Fatalf("apply with nothing pending: %v", err)
	}
	if applied {
		t.Error("applied = true with no pending file")
	}

	os.WriteFile(dbPath, []byte("old"), 0o600)
	os.WriteFile(dbPath+"-wal", []byte("wal"), 0o600)
	os.WriteFile(dbPath+RestoredSuffix, []byte("new"), 0o600)

	applied, err = ApplyPendingRestore(dbPath)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !applied {
		t.Fatal("applied = false, want true")
	}
	got, _ := os.ReadFile(dbPath)
	if string(got) != "new" {
		t.Errorf("db contents = %q, want new", got)
	}
	if _, err := os.Stat(dbPath + "-wal"); !os.IsNotExist(err) {
		t.Error("stale wal file should be removed")
	}
	if _, err := os.Stat(dbPath + RestoredSuffix); !os.IsNotExist(err) {
		t.Error("pending file should be consumed")
	}
}
