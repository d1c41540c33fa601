package store

import (
	"errors"
	"testing"
	"time"

	"github.com/dukerupert/focuspal/internal/model"
)

func TestTimerSaveAndGet(t *testing.T) {
	db := setupTestDB(t)
	child := seedChild(t, db, "Ava")
	cat := seedCategory(t, db, child.ID, "Homework", model.CategoryTypeTask)
	ts := NewTimerStore(db)

	if got, err := ts.Get(child.ID); err != nil || got != nil {
		t.Fatalf("get before save = %+v, %v", got, err)
	}

	start := time.Date(2024, 3, 6, 16, 0, 0, 0, time.UTC)
	err := ts.Save(model.TimerSession{
		ChildID: child.ID, CategoryID: cat.ID, DurationSeconds: 1500,
		StartedAt: start, RunningSince: &start,
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := ts.Get(child.ID)
	if err != nil || got == nil {
		t.Fatalf("get = %+v, %v", got, err)
	}
	if got.IsPaused() || !got.RunningSince.Equal(start) || got.DurationSeconds != 1500 {
		t.Errorf("timer = %+v", got)
	}

	got.RunningSince = nil
	got.BankedSeconds = 300
	if err := ts.Save(*got); err != nil {
		t.Fatalf("save paused: %v", err)
	}
	paused, _ := ts.Get(child.ID)
	if !paused.IsPaused() || paused.BankedSeconds != 300 {
		t.Errorf("paused = %+v", paused)
	}

	if err := ts.Save(model.TimerSession{ChildID: child.ID, CategoryID: cat.ID, StartedAt: start}); !errors.Is(err, ErrInvalidDuration) {
		t.Errorf("zero duration err = %v, want ErrInvalidDuration", err)
	}
}

func TestTimerMarkExpiryNotifiedOnce(t *testing.T) {
	db := setupTestDB(t)
	child := seedChild(t, db, "Ava")
	cat := seedCategory(t, db, child.ID, "Homework", model.CategoryTypeTask)
	ts := NewTimerStore(db)

	now := time.Now().UTC()
	if err := ts.Save(model.TimerSession{ChildID: child.ID, CategoryID: cat.ID, DurationSeconds: 60, StartedAt: now, RunningSince: &now}); err != nil {
		t.Fatalf("save: %v", err)
	}

	first, err := ts.MarkExpiryNotified(child.ID)
	if err != nil || !first {
		t.Fatalf("first mark = %v, %v", first, err)
	}
	second, _ := ts.MarkExpiryNotified(child.ID)
	if second {
		t.Error("second mark should report false")
	}
}

func TestTimerDeleteAndCascade(t *testing.T) {
	db := setupTestDB(t)
	ava := seedChild(t, db, "Ava")
	ben := seedChild(t, db, "Ben")
	avaCat := seedCategory(t, db, ava.ID, "Homework", model.CategoryTypeTask)
	benCat := seedCategory(t, db, ben.ID, "Reading", model.CategoryTypeTask)
	ts := NewTimerStore(db)

	now := time.Now().UTC()
	ts.Save(model.TimerSession{ChildID: ava.ID, CategoryID: avaCat.ID, DurationSeconds: 60, StartedAt: now, RunningSince: &now})
	ts.Save(model.TimerSession{ChildID: ben.ID, CategoryID: benCat.ID, DurationSeconds: 60, StartedAt: now.Add(time.Second)})

	if all, _ := ts.List(); len(all) != 2 || all[0].ChildID != ava.ID {
		t.Fatalf("list = %+v", all)
	}

	ok, err := ts.Delete(ava.ID)
	if err != nil || !ok {
		t.Fatalf("delete = %v, %v", ok, err)
	}
	if ok, _ := ts.Delete(ava.ID); ok {
		t.Error("second delete should report false")
	}

	if err := NewChildStore(db).Delete(ben.ID); err != nil {
		t.Fatalf("delete child: %v", err)
	}
	if all, _ := ts.List(); len(all) != 0 {
		t.Errorf("timers after child delete = %+v", all)
	}
}
