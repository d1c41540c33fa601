package store

import (
	"database/sql"
	"testing"

	"github.com/dukerupert/focuspal/internal/database"
	"github.com/dukerupert/focuspal/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedChild(t *testing.T, db *sql.DB, name string) *model.Child {
	t.Helper()
	c, err := NewChildStore(db).Create(name, "🦊", "")
	if err != nil {
		t.Fatalf("create child: %v", err)
	}
	return c
}

func seedCategory(t *testing.T, db *sql.DB, childID, name string, typ model.CategoryType) *model.Category {
	t.Helper()
	c, err := NewCategoryStore(db).Create(model.Category{
		ChildID:            childID,
		Name:               name,
		IsActive:           true,
		RecommendedSeconds: 1500,
		CategoryType:       typ,
	})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	return c
}
