package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Product is a sellable item version in a tenant's catalog, keyed by its
// commercial code (SKU).
type Product struct {
	ID          int64
	SKU         string
	Name        string
	SalePrice   float64
	MinStock    int
	MaxStock    int
	Cost        float64
	EAN         string
	Weight      float64
	BrandID     int64
	PackagingID int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ImportRow is one raw spreadsheet row: header name to cell text.
type ImportRow map[string]string

// ImportProduct is the validated import schema. Only the SKU is required;
// everything else falls back to zero values or documented defaults at
// insert time.
type ImportProduct struct {
	SKU       string   `json:"sku"`
	Name      string   `json:"name,omitempty"`
	Price     float64  `json:"price,omitempty"`
	Stock     int      `json:"stock,omitempty"`
	CostPrice float64  `json:"costPrice,omitempty"`
	EAN       string   `json:"ean,omitempty"`
	Weight    float64  `json:"weight,omitempty"`
	Brand     string   `json:"brand,omitempty"`
	Images    []string `json:"images,omitempty"`
}

// SplitImages normalizes a comma-separated image list, trimming whitespace
// and discarding empty entries.
func SplitImages(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseImportRow coerces a raw row into the import schema and runs
// field-level validation. All violations are collected into a single
// RowValidationError rather than failing on the first.
func ParseImportRow(row ImportRow) (ImportProduct, error) {
	var violations []string

	p := ImportProduct{
		SKU:   strings.TrimSpace(row["sku"]),
		Name:  strings.TrimSpace(row["name"]),
		EAN:   strings.TrimSpace(row["ean"]),
		Brand: strings.TrimSpace(row["brand"]),
	}

	if p.SKU == "" {
		violations = append(violations, "sku is required")
	}

	parseFloat := func(field string, dst *float64) {
		raw := strings.TrimSpace(row[field])
		if raw == "" {
			return
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
		if err != nil {
			violations = append(violations, fmt.Sprintf("%s must be a number, got %q", field, raw))
			return
		}
		if v < 0 {
			violations = append(violations, fmt.Sprintf("%s must not be negative", field))
			return
		}
		*dst = v
	}

	parseFloat("price", &p.Price)
	parseFloat("costPrice", &p.CostPrice)
	parseFloat("weight", &p.Weight)

	if raw := strings.TrimSpace(row["stock"]); raw != "" {
		v, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			violations = append(violations, fmt.Sprintf("stock must be an integer, got %q", raw))
		case v < 0:
			violations = append(violations, "stock must not be negative")
		default:
			p.Stock = v
		}
	}

	p.Images = SplitImages(row["images"])

	if len(violations) > 0 {
		return ImportProduct{}, &RowValidationError{SKU: p.SKU, Violations: violations}
	}
	return p, nil
}

// DefaultMaxStock is applied to products created by the import pipeline,
// which carries no maximum-stock column.
const DefaultMaxStock = 100

// NewProductFromImport builds a catalog row for an imported product that
// does not exist yet. Brand and packaging references must already be
// resolved; the import schema has no columns for them beyond the brand
// name.
func NewProductFromImport(p ImportProduct, brandID, packagingID int64) Product {
	name := p.Name
	if name == "" {
		name = "Imported product"
	}
	return Product{
		SKU:         p.SKU,
		Name:        name,
		SalePrice:   p.Price,
		MinStock:    p.Stock,
		MaxStock:    DefaultMaxStock,
		Cost:        p.CostPrice,
		EAN:         p.EAN,
		Weight:      p.Weight,
		BrandID:     brandID,
		PackagingID: packagingID,
	}
}
