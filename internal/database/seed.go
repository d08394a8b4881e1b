package database

import (
	"context"

	"github.com/jmoiron/sqlx"

	"stockroom/internal/apperr"
	"stockroom/internal/auth"
	"stockroom/internal/models"
)

type seedUser struct {
	username, password, role string
}

type seedProduct struct {
	name, category, sku string
	price               float64
	quantity            int
}

var (
	defaultUsers = []seedUser{
		{"admin", "admin123", models.RoleAdmin},
		{"user1", "user123", models.RoleUser},
	}
	defaultCategories = []string{"Electronics", "Groceries"}
	defaultProducts   = []seedProduct{
		{"Laptop", "Electronics", "SKU123", 1000.0, 10},
		{"Apples", "Groceries", "SKU456", 2.5, 100},
	}
)

// SeedDefaults inserts the default accounts and categories unless they are
// already present, and the sample products when the products table is empty.
// Repeated calls insert nothing.
func SeedDefaults(ctx context.Context, db *DB) error {
	return db.Conn(ctx, func(conn *sqlx.Conn) error {
		for _, u := range defaultUsers {
			var exists int
			if err := conn.GetContext(ctx, &exists, "SELECT COUNT(*) FROM users WHERE username = ?", u.username); err != nil {
				return apperr.Storage("seed users", err)
			}
			if exists > 0 {
				continue
			}
			hash, err := auth.HashPassword(u.password)
			if err != nil {
				return err
			}
			if _, err := conn.ExecContext(ctx,
				"INSERT OR IGNORE INTO users (username, password, role) VALUES (?, ?, ?)",
				u.username, hash, u.role); err != nil {
				return apperr.Storage("seed users", err)
			}
		}

		for _, name := range defaultCategories {
			if _, err := conn.ExecContext(ctx, "INSERT OR IGNORE INTO categories (name) VALUES (?)", name); err != nil {
				return apperr.Storage("seed categories", err)
			}
		}

		// Sample products go into an empty table only, so products the
		// operator deleted stay deleted.
		var products int
		if err := conn.GetContext(ctx, &products, "SELECT COUNT(*) FROM products"); err != nil {
			return apperr.Storage("seed products", err)
		}
		if products > 0 {
			return nil
		}
		for _, p := range defaultProducts {
			if _, err := conn.ExecContext(ctx, `
				INSERT INTO products (name, category_id, sku, price, quantity_in_stock)
				VALUES (?, (SELECT id FROM categories WHERE name = ?), ?, ?, ?)`,
				p.name, p.category, p.sku, p.price, p.quantity); err != nil {
				return apperr.Storage("seed products", err)
			}
		}
		return nil
	})
}
