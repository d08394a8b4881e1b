package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"stockroom/internal/apperr"
	"stockroom/internal/models"
	"stockroom/internal/validation"
)

// ListCategories returns all categories in insertion order.
func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	err := s.db.Conn(ctx, func(conn *sqlx.Conn) error {
		return conn.SelectContext(ctx, &categories, "SELECT id, name FROM categories ORDER BY id")
	})
	if err != nil {
		return nil, apperr.Storage("list categories", err)
	}
	return categories, nil
}

// AddCategory inserts a category and returns its id.
func (s *Store) AddCategory(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "name", name)
	validation.ValidateMaxLength(ve, "name", name, validation.MaxStringLength)
	if err := ve.Err(); err != nil {
		return 0, err
	}

	var id int64
	err := s.db.Conn(ctx, func(conn *sqlx.Conn) error {
		res, err := conn.ExecContext(ctx, "INSERT INTO categories (name) VALUES (?)", name)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, classify("add category", err)
	}
	return id, nil
}

// GetCategoryByName looks a category up by its unique name.
func (s *Store) GetCategoryByName(ctx context.Context, name string) (models.Category, error) {
	var c models.Category
	err := s.db.Conn(ctx, func(conn *sqlx.Conn) error {
		return conn.GetContext(ctx, &c, "SELECT id, name FROM categories WHERE name = ?", name)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return models.Category{}, fmt.Errorf("category %q: %w", name, apperr.ErrNotFound)
	}
	if err != nil {
		return models.Category{}, apperr.Storage("get category", err)
	}
	return c, nil
}
