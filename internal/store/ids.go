package store

import (
	"errors"

	"github.com/google/uuid"
)

// namespace for ids derived from natural keys.
var idNamespace = uuid.MustParse("0b7c1f6e-5d2a-4f43-9a51-3c8e2d7f9a10")

const dayLayout = "2006-01-02"

var (
	ErrSystemCategory   = errors.New("system categories cannot be deleted")
	ErrInvalidTimeRange = errors.New("end time must not be before start time")
	ErrInvalidDuration  = errors.New("recommended duration must be positive")
	ErrInvalidMood      = errors.New("mood out of range")
)

func newID() string {
	return uuid.NewString()
}

// CategoryIDFor is the stable id of a seeded default category.
func CategoryIDFor(childID, name string) string {
	return uuid.NewSHA1(idNamespace, []byte("category:"+childID+":"+name)).String()
}

// DayPointsID is the stable id of a child's points record for a day key.
func DayPointsID(childID, day string) string {
	return uuid.NewSHA1(idNamespace, []byte("points:"+childID+":"+day)).String()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
