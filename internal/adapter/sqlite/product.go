package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/neomorfeo/storebridge/internal/domain"
)

// Compile-time checks against the domain ports.
var (
	_ domain.ProductRepository = (*ProductRepository)(nil)
	_ domain.ReferenceResolver = (*ReferenceResolver)(nil)
)

// ProductRepository persists the tenant catalog targeted by imports.
type ProductRepository struct {
	db *sql.DB
}

func (r *ProductRepository) GetBySKU(ctx context.Context, sku string) (domain.Product, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, sku, name, sale_price, min_stock, max_stock, cost, ean,
		        weight, brand_id, packaging_id, created_at, updated_at
		 FROM products WHERE sku = ?`, sku,
	)

	var p domain.Product
	var createdAt, updatedAt string

	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.SalePrice, &p.MinStock, &p.MaxStock,
		&p.Cost, &p.EAN, &p.Weight, &p.BrandID, &p.PackagingID, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("scanning product: %w", err)
	}

	p.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	p.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)

	return p, nil
}

func (r *ProductRepository) Insert(ctx context.Context, p domain.Product) (int64, error) {
	now := time.Now().UTC().Format(timeFormat)

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO products
		   (sku, name, sale_price, min_stock, max_stock, cost, ean, weight,
		    brand_id, packaging_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.SKU, p.Name, p.SalePrice, p.MinStock, p.MaxStock, p.Cost, p.EAN,
		p.Weight, p.BrandID, p.PackagingID, now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting product: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading product id: %w", err)
	}
	return id, nil
}

// UpdatePriceAndStock touches only sale_price and min_stock, leaving every
// other column as it was. This is the re-import path.
func (r *ProductRepository) UpdatePriceAndStock(ctx context.Context, sku string, price float64, minStock int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE products SET sale_price = ?, min_stock = ?, updated_at = ?
		 WHERE sku = ?`,
		price, minStock, time.Now().UTC().Format(timeFormat), sku,
	)
	if err != nil {
		return fmt.Errorf("updating product price/stock: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// ReferenceResolver resolves catalog references against tenant tables.
// Missing references fail with a typed error instead of an invented id.
type ReferenceResolver struct {
	db *sql.DB
}

func (r *ReferenceResolver) BrandID(ctx context.Context, name string) (int64, error) {
	if name == "" {
		return 0, &domain.MissingReferenceError{Kind: "brand"}
	}

	var id int64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM brands WHERE name = ?`, name).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, &domain.MissingReferenceError{Kind: "brand", Name: name}
		}
		return 0, fmt.Errorf("resolving brand: %w", err)
	}
	return id, nil
}

func (r *ReferenceResolver) DefaultPackagingID(ctx context.Context) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM packagings WHERE is_default = 1 ORDER BY id LIMIT 1`).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, &domain.MissingReferenceError{Kind: "packaging"}
		}
		return 0, fmt.Errorf("resolving default packaging: %w", err)
	}
	return id, nil
}
