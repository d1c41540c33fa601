// Package handler implements the JSON API.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/dukerupert/focuspal/internal/backup"
	"github.com/dukerupert/focuspal/internal/points"
	"github.com/dukerupert/focuspal/internal/reward"
	"github.com/dukerupert/focuspal/internal/store"
	"github.com/dukerupert/focuspal/internal/timer"
	"github.com/dukerupert/focuspal/internal/tracker"
	"github.com/go-playground/validator/v10"
)

const dateLayout = "2006-01-02"

// Publisher broadcasts change events to connected clients.
type Publisher interface {
	Publish(entity, action, childID, id string, extra map[string]any)
}

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

// decodeValid decodes the body into v and runs its validate tags.
func decodeValid(w http.ResponseWriter, r *http.Request, v any) bool {
	if !decodeJSON(w, r, v) {
		return false
	}
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			msg := fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
			if fe.Tag() == "required" {
				msg = fe.Field() + " is required"
			}
			writeError(w, http.StatusBadRequest, msg)
			return false
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// errorStatus maps domain errors to HTTP status codes. Unknown errors are 500.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, tracker.ErrChildNotFound),
		errors.Is(err, tracker.ErrActivityNotFound),
		errors.Is(err, tracker.ErrCategoryNotFound),
		errors.Is(err, tracker.ErrTaskNotFound),
		errors.Is(err, reward.ErrRewardNotFound),
		errors.Is(err, timer.ErrNoTimer),
		errors.Is(err, backup.ErrBackupNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrInvalidTimeRange),
		errors.Is(err, store.ErrInvalidDuration),
		errors.Is(err, store.ErrInvalidMood),
		errors.Is(err, store.ErrInvalidThreshold),
		errors.Is(err, points.ErrInvalidAmount),
		errors.Is(err, timer.ErrInvalidTime):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrSystemCategory),
		errors.Is(err, reward.ErrAlreadyRedeemed),
		errors.Is(err, reward.ErrNoTier),
		errors.Is(err, timer.ErrNotRunning),
		errors.Is(err, timer.ErrNotPaused),
		errors.Is(err, timer.ErrExpired),
		errors.Is(err, backup.ErrInProgress),
		errors.Is(err, backup.ErrNotCompleted):
		return http.StatusConflict
	case errors.Is(err, backup.ErrDecrypt),
		errors.Is(err, backup.ErrNotArchive):
		return http.StatusUnprocessableEntity
	case errors.Is(err, backup.ErrNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// handleError writes err as a JSON error. Internal errors are logged and
// replaced by msg.
func handleError(w http.ResponseWriter, logger *slog.Logger, err error, msg string) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		logger.Error(msg, "error", err)
		writeError(w, status, msg)
		return
	}
	writeError(w, status, err.Error())
}

// dateParam parses the named query parameter as a local calendar date,
// defaulting to fallback when absent.
func dateParam(r *http.Request, name string, loc *time.Location, fallback time.Time) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback, nil
	}
	return time.ParseInLocation(dateLayout, v, loc)
}
