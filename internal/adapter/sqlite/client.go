package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/neomorfeo/storebridge/internal/domain"
)

// Compile-time check: Client implements domain.TenantClient.
var _ domain.TenantClient = (*Client)(nil)

// Client is an open session to one tenant's database. It owns the
// connection and hands out tenant-scoped repositories sharing it.
type Client struct {
	db           *sql.DB
	storeConfigs *StoreConfigRepository
	products     *ProductRepository
	imports      *ImportRepository
	references   *ReferenceResolver
}

// NewClient opens a tenant database, runs the tenant migrations, and
// returns a ready client.
func NewClient(dataSourceName string) (*Client, error) {
	db, err := open(dataSourceName)
	if err != nil {
		return nil, err
	}
	return NewClientFromDB(db)
}

// NewClientFromDB wraps an existing tenant connection, runs migrations,
// and returns a ready client.
func NewClientFromDB(db *sql.DB) (*Client, error) {
	if err := runMigrations(db, "migrations/tenant"); err != nil {
		db.Close()
		return nil, err
	}

	return &Client{
		db:           db,
		storeConfigs: &StoreConfigRepository{db: db},
		products:     &ProductRepository{db: db},
		imports:      &ImportRepository{db: db},
		references:   &ReferenceResolver{db: db},
	}, nil
}

func (c *Client) StoreConfigs() domain.StoreConfigRepository { return c.storeConfigs }
func (c *Client) Products() domain.ProductRepository         { return c.products }
func (c *Client) Imports() domain.ImportRepository           { return c.imports }
func (c *Client) References() domain.ReferenceResolver       { return c.references }

// DB returns the underlying connection for use by other adapters.
func (c *Client) DB() *sql.DB {
	return c.db
}

// Ping issues a trivial round-trip query to verify the connection.
func (c *Client) Ping(ctx context.Context) error {
	var one int
	if err := c.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("pinging tenant database: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.db.Close()
}
