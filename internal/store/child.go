package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/focuspal/internal/model"
)

type ChildStore struct {
	db *sql.DB
}

func NewChildStore(db *sql.DB) *ChildStore {
	return &ChildStore{db: db}
}

const childCols = `id, name, avatar, parent_email, created_at`

func scanChild(scanner interface{ Scan(...any) error }) (*model.Child, error) {
	var c model.Child
	if err := scanner.Scan(&c.ID, &c.Name, &c.Avatar, &c.ParentEmail, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *ChildStore) Create(name, avatar, parentEmail string) (*model.Child, error) {
	id := newID()
	_, err := s.db.Exec(
		`INSERT INTO children (id, name, avatar, parent_email, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, name, avatar, parentEmail, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert child: %w", err)
	}
	return s.GetByID(id)
}

func (s *ChildStore) GetByID(id string) (*model.Child, error) {
	c, err := scanChild(s.db.QueryRow(`SELECT `+childCols+` FROM children WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get child %s: %w", id, err)
	}
	return c, nil
}

func (s *ChildStore) List() ([]model.Child, error) {
	rows, err := s.db.Query(`SELECT ` + childCols + ` FROM children ORDER BY created_at, name`)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	defer rows.Close()

	var children []model.Child
	for rows.Next() {
		c, err := scanChild(rows)
		if err != nil {
			return nil, fmt.Errorf("scan child: %w", err)
		}
		children = append(children, *c)
	}
	return children, rows.Err()
}

func (s *ChildStore) Update(id, name, avatar, parentEmail string) (*model.Child, error) {
	_, err := s.db.Exec(
		`UPDATE children SET name = ?, avatar = ?, parent_email = ? WHERE id = ?`,
		name, avatar, parentEmail, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update child %s: %w", id, err)
	}
	return s.GetByID(id)
}

func (s *ChildStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM children WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete child %s: %w", id, err)
	}
	return nil
}
