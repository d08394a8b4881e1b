// Package store is the data access layer: every SQL statement against the
// inventory database lives here. It performs no authorization; callers decide
// who may invoke what.
package store

import (
	"fmt"

	"go.uber.org/zap"

	"stockroom/internal/apperr"
	"stockroom/internal/database"
)

// Store exposes typed CRUD operations over users, categories and products.
type Store struct {
	db  *database.DB
	log *zap.Logger
}

// Option configures New.
type Option func(*Store)

// WithLogger sets the logger used for failures that do not fail the call.
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

func New(db *database.DB, opts ...Option) *Store {
	s := &Store{db: db, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// classify maps engine errors to the error taxonomy.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("%s: %w", op, apperr.ErrUniqueness)
	}
	return apperr.Storage(op, err)
}
