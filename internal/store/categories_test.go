package store_test

import (
	"errors"
	"testing"

	"stockroom/internal/apperr"
	"stockroom/internal/validation"
)

func TestListCategoriesInInsertionOrder(t *testing.T) {
	f := newFixture(t)
	if _, err := f.store.AddCategory(f.ctx, "Tools"); err != nil {
		t.Fatalf("AddCategory: %v", err)
	}

	cats, err := f.store.ListCategories(f.ctx)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	var names []string
	for _, c := range cats {
		names = append(names, c.Name)
	}
	if len(names) != 3 || names[0] != "Electronics" || names[1] != "Groceries" || names[2] != "Tools" {
		t.Errorf("categories = %v", names)
	}
}

func TestAddCategoryErrors(t *testing.T) {
	f := newFixture(t)

	if _, err := f.store.AddCategory(f.ctx, "Electronics"); !errors.Is(err, apperr.ErrUniqueness) {
		t.Errorf("duplicate category: expected ErrUniqueness, got %v", err)
	}
	if _, err := f.store.AddCategory(f.ctx, "  "); !validation.IsValidation(err) {
		t.Errorf("empty category: expected validation error, got %v", err)
	}
	if _, err := f.store.GetCategoryByName(f.ctx, "Toys"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing category: expected ErrNotFound, got %v", err)
	}
}
