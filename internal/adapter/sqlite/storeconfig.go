package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/neomorfeo/storebridge/internal/domain"
)

// Compile-time check: StoreConfigRepository implements the domain port.
var _ domain.StoreConfigRepository = (*StoreConfigRepository)(nil)

// StoreConfigRepository persists a tenant's marketplace credentials.
type StoreConfigRepository struct {
	db *sql.DB
}

func (r *StoreConfigRepository) Create(ctx context.Context, c domain.StoreConfig) (domain.StoreConfig, error) {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO store_configs
		   (company_id, cnpj, marketplace_store_id, token_hub, access_token, refresh_token, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.CompanyID, c.CNPJ, c.MarketplaceStoreID, c.TokenHub,
		c.AccessToken, c.RefreshToken, boolToInt(c.Active),
		now.Format(timeFormat), now.Format(timeFormat),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.StoreConfig{}, &domain.StoreConfigConflictError{CNPJ: c.CNPJ, Count: 2}
		}
		return domain.StoreConfig{}, fmt.Errorf("inserting store config: %w", err)
	}

	c.ID, err = result.LastInsertId()
	if err != nil {
		return domain.StoreConfig{}, fmt.Errorf("reading store config id: %w", err)
	}
	return c, nil
}

// Active returns the single active config. Zero rows fail with
// ErrStoreConfigNotFound; more than one is an error state, not a silent
// first-match.
func (r *StoreConfigRepository) Active(ctx context.Context) (domain.StoreConfig, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, company_id, cnpj, marketplace_store_id, token_hub,
		        access_token, refresh_token, active, created_at, updated_at
		 FROM store_configs WHERE active = 1 ORDER BY id LIMIT 2`,
	)
	if err != nil {
		return domain.StoreConfig{}, fmt.Errorf("querying active store config: %w", err)
	}
	defer rows.Close()

	var configs []domain.StoreConfig
	for rows.Next() {
		c, err := scanStoreConfig(rows)
		if err != nil {
			return domain.StoreConfig{}, err
		}
		configs = append(configs, c)
	}
	if err := rows.Err(); err != nil {
		return domain.StoreConfig{}, fmt.Errorf("reading active store configs: %w", err)
	}

	switch len(configs) {
	case 0:
		return domain.StoreConfig{}, domain.ErrStoreConfigNotFound
	case 1:
		return configs[0], nil
	default:
		return domain.StoreConfig{}, &domain.StoreConfigConflictError{CNPJ: configs[0].CNPJ, Count: len(configs)}
	}
}

// UpdateTokens atomically replaces the token pair and bumps UpdatedAt.
func (r *StoreConfigRepository) UpdateTokens(ctx context.Context, id int64, access, refresh string, now time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE store_configs
		 SET access_token = ?, refresh_token = ?, updated_at = ?
		 WHERE id = ?`,
		access, refresh, now.UTC().Format(timeFormat), id,
	)
	if err != nil {
		return fmt.Errorf("updating store config tokens: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrStoreConfigNotFound
	}
	return nil
}

func scanStoreConfig(rows *sql.Rows) (domain.StoreConfig, error) {
	var c domain.StoreConfig
	var active int
	var createdAt, updatedAt string

	err := rows.Scan(&c.ID, &c.CompanyID, &c.CNPJ, &c.MarketplaceStoreID, &c.TokenHub,
		&c.AccessToken, &c.RefreshToken, &active, &createdAt, &updatedAt)
	if err != nil {
		return domain.StoreConfig{}, fmt.Errorf("scanning store config: %w", err)
	}

	c.Active = active == 1
	c.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	c.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)

	return c, nil
}
