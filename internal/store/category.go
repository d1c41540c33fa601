package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/focuspal/internal/model"
)

type CategoryStore struct {
	db *sql.DB
}

func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

const categoryCols = `id, child_id, name, icon, color_hex, is_active, sort_order, is_system,
	recommended_seconds, category_type, points_multiplier, parent_category_id`

func scanCategory(scanner interface{ Scan(...any) error }) (*model.Category, error) {
	var c model.Category
	var active, system int
	var parent sql.NullString
	err := scanner.Scan(&c.ID, &c.ChildID, &c.Name, &c.Icon, &c.ColorHex, &active, &c.SortOrder, &system,
		&c.RecommendedSeconds, &c.CategoryType, &c.PointsMultiplier, &parent)
	if err != nil {
		return nil, err
	}
	c.IsActive = active != 0
	c.IsSystem = system != 0
	if parent.Valid {
		c.ParentCategoryID = &parent.String
	}
	return &c, nil
}

func categoryArgs(c model.Category) []any {
	var parent any
	if c.ParentCategoryID != nil {
		parent = *c.ParentCategoryID
	}
	return []any{c.ChildID, c.Name, c.Icon, c.ColorHex, boolToInt(c.IsActive), c.SortOrder, boolToInt(c.IsSystem),
		c.RecommendedSeconds, c.CategoryType, c.PointsMultiplier, parent}
}

func normalizeCategory(c *model.Category) error {
	if c.RecommendedSeconds <= 0 {
		return ErrInvalidDuration
	}
	if c.CategoryType == "" {
		c.CategoryType = model.CategoryTypeTask
	}
	if c.PointsMultiplier == 0 {
		c.PointsMultiplier = 1.0
	}
	return nil
}

func (s *CategoryStore) Create(c model.Category) (*model.Category, error) {
	if err := normalizeCategory(&c); err != nil {
		return nil, err
	}
	if c.ID == "" {
		c.ID = newID()
	}
	_, err := s.db.Exec(
		`INSERT INTO categories (id, child_id, name, icon, color_hex, is_active, sort_order, is_system,
			recommended_seconds, category_type, points_multiplier, parent_category_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		append([]any{c.ID}, categoryArgs(c)...)...,
	)
	if err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}
	return s.GetByID(c.ID)
}

// InsertIfMissing inserts c unless a category with its id already exists.
// It reports whether a row was written.
func (s *CategoryStore) InsertIfMissing(c model.Category) (bool, error) {
	if err := normalizeCategory(&c); err != nil {
		return false, err
	}
	result, err := s.db.Exec(
		`INSERT OR IGNORE INTO categories (id, child_id, name, icon, color_hex, is_active, sort_order, is_system,
			recommended_seconds, category_type, points_multiplier, parent_category_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		append([]any{c.ID}, categoryArgs(c)...)...,
	)
	if err != nil {
		return false, fmt.Errorf("seed category %q: %w", c.Name, err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

func (s *CategoryStore) GetByID(id string) (*model.Category, error) {
	c, err := scanCategory(s.db.QueryRow(`SELECT `+categoryCols+` FROM categories WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get category %s: %w", id, err)
	}
	return c, nil
}

func (s *CategoryStore) ListByChild(childID string) ([]model.Category, error) {
	rows, err := s.db.Query(
		`SELECT `+categoryCols+` FROM categories WHERE child_id = ? ORDER BY sort_order, name`, childID,
	)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []model.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, *c)
	}
	return cats, rows.Err()
}

// Update rewrites a category's editable fields. The system flag and owner
// are preserved.
func (s *CategoryStore) Update(c model.Category) (*model.Category, error) {
	if err := normalizeCategory(&c); err != nil {
		return nil, err
	}
	var parent any
	if c.ParentCategoryID != nil {
		parent = *c.ParentCategoryID
	}
	_, err := s.db.Exec(
		`UPDATE categories SET name = ?, icon = ?, color_hex = ?, is_active = ?, sort_order = ?,
			recommended_seconds = ?, category_type = ?, points_multiplier = ?, parent_category_id = ?
		 WHERE id = ?`,
		c.Name, c.Icon, c.ColorHex, boolToInt(c.IsActive), c.SortOrder,
		c.RecommendedSeconds, c.CategoryType, c.PointsMultiplier, parent, c.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update category %s: %w", c.ID, err)
	}
	return s.GetByID(c.ID)
}

func (s *CategoryStore) SetActive(id string, active bool) error {
	_, err := s.db.Exec(`UPDATE categories SET is_active = ? WHERE id = ?`, boolToInt(active), id)
	if err != nil {
		return fmt.Errorf("set category active %s: %w", id, err)
	}
	return nil
}

// Delete removes a user-created category. System categories can only be
// deactivated.
func (s *CategoryStore) Delete(id string) error {
	var system int
	err := s.db.QueryRow(`SELECT is_system FROM categories WHERE id = ?`, id).Scan(&system)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get category %s: %w", id, err)
	}
	if system != 0 {
		return ErrSystemCategory
	}
	if _, err := s.db.Exec(`DELETE FROM categories WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	return nil
}
