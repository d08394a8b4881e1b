package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"stockroom/internal/apperr"
)

// Tables lists every table EnsureSchema creates.
var Tables = []string{"users", "categories", "products", "inventory_logs", "logs"}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		role TEXT DEFAULT 'user'
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		category_id INTEGER,
		sku TEXT,
		price REAL,
		quantity_in_stock INTEGER DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (category_id) REFERENCES categories(id) ON DELETE SET NULL
	)`,
	// inventory_logs is part of the file format but nothing writes it.
	`CREATE TABLE IF NOT EXISTS inventory_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_id INTEGER,
		change INTEGER,
		reason TEXT,
		timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (product_id) REFERENCES products(id)
	)`,
	`CREATE TABLE IF NOT EXISTS logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		username TEXT NOT NULL,
		action TEXT NOT NULL,
		product_name TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id)`,
	`CREATE INDEX IF NOT EXISTS idx_logs_timestamp ON logs(timestamp)`,
}

// EnsureSchema creates any missing table or index. It never alters existing
// tables or rows, so it is safe on every start.
func EnsureSchema(ctx context.Context, db *DB) error {
	return db.Conn(ctx, func(conn *sqlx.Conn) error {
		for _, ddl := range schema {
			if _, err := conn.ExecContext(ctx, ddl); err != nil {
				return apperr.Storage("ensure schema", err)
			}
		}
		return nil
	})
}

// ListTables returns the user tables present in the database, sorted by name.
func ListTables(ctx context.Context, db *DB) ([]string, error) {
	var names []string
	err := db.Conn(ctx, func(conn *sqlx.Conn) error {
		return conn.SelectContext(ctx, &names,
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	})
	if err != nil {
		return nil, apperr.Storage("list tables", err)
	}
	return names, nil
}

// CountRows returns the number of rows in table. table must be one of Tables.
func CountRows(ctx context.Context, db *DB, table string) (int, error) {
	known := false
	for _, t := range Tables {
		if t == table {
			known = true
			break
		}
	}
	if !known {
		return 0, fmt.Errorf("unknown table %q", table)
	}
	var n int
	err := db.Conn(ctx, func(conn *sqlx.Conn) error {
		return conn.GetContext(ctx, &n, "SELECT COUNT(*) FROM "+table)
	})
	if err != nil {
		return 0, apperr.Storage("count "+table, err)
	}
	return n, nil
}
