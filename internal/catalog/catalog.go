// Package catalog seeds and serves each child's activity categories.
package catalog

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/focuspal/internal/model"
	"github.com/dukerupert/focuspal/internal/store"
)

// Default is one of the categories every child starts with.
type Default struct {
	Name        string
	Icon        string
	ColorHex    string
	Recommended time.Duration
	Type        model.CategoryType
}

var Defaults = []Default{
	{"Homework", "book.fill", "#4A90D9", 25 * time.Minute, model.CategoryTypeTask},
	{"Reading", "text.book.closed.fill", "#7B68EE", 30 * time.Minute, model.CategoryTypeTask},
	{"Screen Time", "tv.fill", "#FF6B6B", 45 * time.Minute, model.CategoryTypeReward},
	{"Playing", "gamecontroller.fill", "#4ECDC4", 60 * time.Minute, model.CategoryTypeReward},
	{"Sports", "figure.run", "#45B7D1", 45 * time.Minute, model.CategoryTypeTask},
	{"Music", "music.note", "#F7DC6F", 30 * time.Minute, model.CategoryTypeTask},
}

// DefaultCategories returns the seeded categories for a child. Ids are
// derived from the child id and name so seeding twice yields the same rows.
func DefaultCategories(childID string) []model.Category {
	cats := make([]model.Category, 0, len(Defaults))
	for i, d := range Defaults {
		cats = append(cats, model.Category{
			ID:                 store.CategoryIDFor(childID, d.Name),
			Name:               d.Name,
			Icon:               d.Icon,
			ColorHex:           d.ColorHex,
			IsActive:           true,
			SortOrder:          i,
			IsSystem:           true,
			ChildID:            childID,
			RecommendedSeconds: int64(d.Recommended / time.Second),
			CategoryType:       d.Type,
			PointsMultiplier:   1.0,
		})
	}
	return cats
}

type Service struct {
	categories *store.CategoryStore
	logger     *slog.Logger
}

func NewService(categories *store.CategoryStore, logger *slog.Logger) *Service {
	return &Service{categories: categories, logger: logger.With("component", "catalog")}
}

// EnsureDefaults inserts any default categories the child is missing. It
// never touches categories the child already has.
func (s *Service) EnsureDefaults(childID string) error {
	seeded := 0
	for _, c := range DefaultCategories(childID) {
		wrote, err := s.categories.InsertIfMissing(c)
		if err != nil {
			return fmt.Errorf("seed defaults for %s: %w", childID, err)
		}
		if wrote {
			seeded++
		}
	}
	if seeded > 0 {
		s.logger.Info("seeded default categories", "child_id", childID, "count", seeded)
	}
	return nil
}

// Load returns the child's categories, seeding the defaults first when the
// child has none.
func (s *Service) Load(childID string) ([]model.Category, error) {
	cats, err := s.categories.ListByChild(childID)
	if err != nil {
		return nil, err
	}
	if len(cats) > 0 {
		return cats, nil
	}
	if err := s.EnsureDefaults(childID); err != nil {
		return nil, err
	}
	return s.categories.ListByChild(childID)
}

// Active filters cats to active categories.
func Active(cats []model.Category) []model.Category {
	var out []model.Category
	for _, c := range cats {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out
}

// ByID indexes cats by id.
func ByID(cats []model.Category) map[string]model.Category {
	m := make(map[string]model.Category, len(cats))
	for _, c := range cats {
		m[c.ID] = c
	}
	return m
}
