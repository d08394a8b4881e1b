package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"stockroom/internal/apperr"
	"stockroom/internal/database"
	"stockroom/internal/models"
	"stockroom/internal/validation"
)

// UnknownProductName is returned by DeleteProduct when the row was already gone.
const UnknownProductName = "unknown"

// ListProducts returns the product list view. Search matches name or sku as a
// substring (SQLite LIKE, case-insensitive for ASCII); both filters combine with AND.
func (s *Store) ListProducts(ctx context.Context, f models.ProductFilter) ([]models.ProductRow, error) {
	query := `SELECT p.id, p.name, c.name AS category, COALESCE(p.sku, '') AS sku,
		COALESCE(p.price, 0) AS price, COALESCE(p.quantity_in_stock, 0) AS quantity_in_stock
		FROM products p
		LEFT JOIN categories c ON p.category_id = c.id
		WHERE 1=1`
	var args []interface{}

	if search := strings.TrimSpace(f.Search); search != "" {
		query += " AND (p.name LIKE ? ESCAPE '\\' OR p.sku LIKE ? ESCAPE '\\')"
		like := "%" + escapeLike(search) + "%"
		args = append(args, like, like)
	}
	if f.CategoryID != nil {
		query += " AND p.category_id = ?"
		args = append(args, *f.CategoryID)
	}
	query += " ORDER BY p.id"

	rows := []models.ProductRow{}
	err := s.db.Conn(ctx, func(conn *sqlx.Conn) error {
		return conn.SelectContext(ctx, &rows, query, args...)
	})
	if err != nil {
		return nil, apperr.Storage("list products", err)
	}
	for i := range rows {
		rows[i].LowStock = rows[i].Quantity < models.LowStockThreshold
	}
	return rows, nil
}

// GetProduct returns one product or apperr.ErrNotFound.
func (s *Store) GetProduct(ctx context.Context, id int64) (models.Product, error) {
	var p models.Product
	err := s.db.Conn(ctx, func(conn *sqlx.Conn) error {
		return conn.GetContext(ctx, &p, `SELECT id, name, category_id, COALESCE(sku, '') AS sku,
			COALESCE(price, 0) AS price, COALESCE(quantity_in_stock, 0) AS quantity_in_stock,
			COALESCE(created_at, '') AS created_at
			FROM products WHERE id = ?`, id)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return models.Product{}, fmt.Errorf("product %d: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return models.Product{}, apperr.Storage("get product", err)
	}
	return p, nil
}

func validateProduct(in *models.ProductInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.SKU = strings.TrimSpace(in.SKU)

	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "name", in.Name)
	validation.ValidateMaxLength(ve, "name", in.Name, validation.MaxStringLength)
	validation.ValidateMaxLength(ve, "sku", in.SKU, validation.MaxStringLength)
	validation.ValidateFinite(ve, "price", in.Price)
	validation.ValidateNonNegativeFloat(ve, "price", in.Price)
	validation.ValidateNonNegativeInt(ve, "quantity", in.Quantity)
	return ve.Err()
}

// productWriteErr turns a failed insert/update into the error taxonomy. A
// missing category surfaces as a validation error on category_id.
func productWriteErr(op string, err error) error {
	if database.IsForeignKeyViolation(err) {
		return validation.Field("category_id", "does not exist")
	}
	return classify(op, err)
}

// AddProduct inserts a product and returns its id.
func (s *Store) AddProduct(ctx context.Context, in models.ProductInput) (int64, error) {
	if err := validateProduct(&in); err != nil {
		return 0, err
	}

	var id int64
	err := s.db.Conn(ctx, func(conn *sqlx.Conn) error {
		res, err := conn.ExecContext(ctx,
			"INSERT INTO products (name, category_id, sku, price, quantity_in_stock) VALUES (?, ?, ?, ?, ?)",
			in.Name, in.CategoryID, in.SKU, in.Price, in.Quantity)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, productWriteErr("add product", err)
	}
	return id, nil
}

// UpdateProduct overwrites the editable fields of product id. An id that does
// not exist affects no rows and is not an error; created_at is never touched.
func (s *Store) UpdateProduct(ctx context.Context, id int64, in models.ProductInput) error {
	if err := validateProduct(&in); err != nil {
		return err
	}

	err := s.db.Conn(ctx, func(conn *sqlx.Conn) error {
		_, err := conn.ExecContext(ctx,
			"UPDATE products SET name = ?, category_id = ?, sku = ?, price = ?, quantity_in_stock = ? WHERE id = ?",
			in.Name, in.CategoryID, in.SKU, in.Price, in.Quantity, id)
		return err
	})
	if err != nil {
		return productWriteErr("update product", err)
	}
	return nil
}

// DeleteProduct removes product id and returns the name it had, so the caller
// can still describe it after the row is gone. An absent id yields
// UnknownProductName and no error.
func (s *Store) DeleteProduct(ctx context.Context, id int64) (string, error) {
	name := UnknownProductName
	err := s.db.Tx(ctx, func(tx *sqlx.Tx) error {
		var existing string
		err := tx.GetContext(ctx, &existing, "SELECT name FROM products WHERE id = ?", id)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id); err != nil {
			return err
		}
		name = existing
		return nil
	})
	if err != nil {
		return "", apperr.Storage("delete product", err)
	}
	return name, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
