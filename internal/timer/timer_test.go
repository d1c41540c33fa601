package timer

import (
	"errors"
	"testing"
	"time"

	"github.com/dukerupert/focuspal/internal/model"
)

var t0 = time.Date(2024, 3, 6, 16, 0, 0, 0, time.UTC)

func after(minutes int) time.Time {
	return t0.Add(time.Duration(minutes) * time.Minute)
}

func TestNewTimerRuns(t *testing.T) {
	s := New("kid", "hw", 25*time.Minute, t0)

	if s.IsPaused() || StateOf(s, t0) != StateRunning {
		t.Fatalf("new timer should be running: %+v", s)
	}
	if got := Remaining(s, t0); got != 25*time.Minute {
		t.Errorf("remaining = %v, want 25m", got)
	}
	if got := Elapsed(s, after(10)); got != 10*time.Minute {
		t.Errorf("elapsed at 10m = %v", got)
	}
}

func TestPauseExcludesPausedTime(t *testing.T) {
	s := New("kid", "hw", 25*time.Minute, t0)

	if err := Pause(&s, after(10)); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if got := Elapsed(s, after(30)); got != 10*time.Minute {
		t.Errorf("elapsed while paused = %v, want 10m", got)
	}
	if StateOf(s, after(30)) != StatePaused {
		t.Errorf("state = %s, want paused", StateOf(s, after(30)))
	}
	if err := Pause(&s, after(30)); !errors.Is(err, ErrNotRunning) {
		t.Errorf("pause twice err = %v, want ErrNotRunning", err)
	}

	if err := Resume(&s, after(30)); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if err := Resume(&s, after(31)); !errors.Is(err, ErrNotPaused) {
		t.Errorf("resume twice err = %v, want ErrNotPaused", err)
	}
	if got := Remaining(s, after(35)); got != 10*time.Minute {
		t.Errorf("remaining after resume = %v, want 10m", got)
	}
	if !Expired(s, after(45)) {
		t.Error("timer should expire 25 run minutes in")
	}
}

func TestExpiredTimerIsCapped(t *testing.T) {
	s := New("kid", "hw", 25*time.Minute, t0)

	if Expired(s, after(24)) {
		t.Error("expired too early")
	}
	if got := Elapsed(s, after(90)); got != 25*time.Minute {
		t.Errorf("elapsed = %v, want capped at 25m", got)
	}
	if StateOf(s, after(90)) != StateExpired {
		t.Errorf("state = %s, want expired", StateOf(s, after(90)))
	}
	if err := Pause(&s, after(90)); !errors.Is(err, ErrExpired) {
		t.Errorf("pause expired err = %v, want ErrExpired", err)
	}
}

func TestAddTime(t *testing.T) {
	t.Run("running", func(t *testing.T) {
		s := New("kid", "hw", 25*time.Minute, t0)
		if err := AddTime(&s, 5*time.Minute, after(10)); err != nil {
			t.Fatalf("add time: %v", err)
		}
		if got := Remaining(s, after(10)); got != 20*time.Minute {
			t.Errorf("remaining = %v, want 20m", got)
		}
	})

	t.Run("expired runs again", func(t *testing.T) {
		s := New("kid", "hw", 25*time.Minute, t0)
		s.ExpiryNotified = true
		if err := AddTime(&s, 5*time.Minute, after(40)); err != nil {
			t.Fatalf("add time: %v", err)
		}
		if s.ExpiryNotified {
			t.Error("expiry flag should reset")
		}
		if got := Remaining(s, after(42)); got != 3*time.Minute {
			t.Errorf("remaining = %v, want 3m", got)
		}
		if !Expired(s, after(45)) {
			t.Error("extended timer should expire 5 minutes after the extension")
		}
	})

	t.Run("non-positive", func(t *testing.T) {
		s := New("kid", "hw", 25*time.Minute, t0)
		if err := AddTime(&s, 0, after(1)); !errors.Is(err, ErrInvalidTime) {
			t.Errorf("err = %v, want ErrInvalidTime", err)
		}
	})
}

func TestViewOf(t *testing.T) {
	s := New("kid", "hw", 20*time.Minute, t0)
	cat := &model.Category{ID: "hw", Name: "Homework", Icon: "book.fill", ColorHex: "#4A90D9"}

	v := ViewOf(s, cat, after(5))
	if v.ElapsedSeconds != 300 || v.RemainingSeconds != 900 {
		t.Errorf("view seconds = %d elapsed %d remaining", v.ElapsedSeconds, v.RemainingSeconds)
	}
	if v.Progress != 0.75 {
		t.Errorf("progress = %v, want 0.75", v.Progress)
	}
	if v.CategoryName != "Homework" || v.State != StateRunning {
		t.Errorf("view = %+v", v)
	}

	if v := ViewOf(s, nil, after(60)); v.Progress != 0 || v.State != StateExpired {
		t.Errorf("expired view = %+v", v)
	}
}
