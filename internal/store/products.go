package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/RubenBranco/ADS2018/internal/model"
)

// CreateProduct adds a product to the catalog. The item code is immutable
// once created; there is deliberately no way to update it.
func CreateProduct(ctx context.Context, db *sql.DB, code int64, description string, price, qty decimal.Decimal) (*model.Product, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO product (item_code, description, price, qty) VALUES (?, ?, ?, ?)`,
		code, description, price, qty,
	)
	if err != nil {
		return nil, fmt.Errorf("creating product %d: %w", code, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting product id: %w", err)
	}

	return GetProductByID(ctx, db, id)
}

// GetProductByID returns a product by its database id.
func GetProductByID(ctx context.Context, db *sql.DB, id int64) (*model.Product, error) {
	row := db.QueryRowContext(ctx,
		`SELECT id, item_code, description, price, qty FROM product WHERE id = ?`, id,
	)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("product id %d: %w", id, model.ErrProductNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting product id %d: %w", id, err)
	}
	return p, nil
}

// GetProductByCode returns a product by its external item code.
func GetProductByCode(ctx context.Context, db *sql.DB, code int64) (*model.Product, error) {
	row := db.QueryRowContext(ctx,
		`SELECT id, item_code, description, price, qty FROM product WHERE item_code = ?`, code,
	)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("product code %d: %w", code, model.ErrProductNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting product code %d: %w", code, err)
	}
	return p, nil
}

// ListProducts returns the full catalog, ordered by item code.
func ListProducts(ctx context.Context, db *sql.DB) ([]model.Product, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, item_code, description, price, qty FROM product ORDER BY item_code`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// AdjustStock changes a product's stock quantity by the signed delta
// (negative to consume, positive to return). The adjustment is rejected and
// stock left unchanged if the result would be negative. Check-then-write:
// assumes the single-writer session model, no concurrent callers.
func AdjustStock(ctx context.Context, db *sql.DB, id int64, delta decimal.Decimal) error {
	p, err := GetProductByID(ctx, db, id)
	if err != nil {
		return err
	}

	newStock := p.Stock.Add(delta)
	if newStock.IsNegative() {
		return fmt.Errorf("adjusting stock of product %d by %s (have %s): %w",
			id, delta, p.Stock, model.ErrInsufficientStock)
	}

	if _, err := db.ExecContext(ctx,
		`UPDATE product SET qty = ? WHERE id = ?`, newStock, id,
	); err != nil {
		return fmt.Errorf("updating stock of product %d: %w", id, err)
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(s scanner) (*model.Product, error) {
	p := &model.Product{}
	if err := s.Scan(&p.ID, &p.Code, &p.Description, &p.Price, &p.Stock); err != nil {
		return nil, err
	}
	return p, nil
}
