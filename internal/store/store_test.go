package store_test

import (
	"context"
	"testing"

	"stockroom/internal/store"
	"stockroom/internal/testutil"
)

type fixture struct {
	ctx         context.Context
	store       *store.Store
	electronics int64
	groceries   int64
}

// newFixture returns a store over the seeded database: Electronics and
// Groceries, Laptop (SKU123) and Apples (SKU456), admin and user1.
func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	s := store.New(testutil.SeededDB(t))

	f := fixture{ctx: ctx, store: s}
	for _, c := range []struct {
		name string
		dst  *int64
	}{{"Electronics", &f.electronics}, {"Groceries", &f.groceries}} {
		cat, err := s.GetCategoryByName(ctx, c.name)
		if err != nil {
			t.Fatalf("GetCategoryByName(%s): %v", c.name, err)
		}
		*c.dst = cat.ID
	}
	return f
}

func ptr[T any](v T) *T { return &v }
