package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/neomorfeo/storebridge/internal/domain"

	_ "modernc.org/sqlite" // Register SQLite driver.
)

//go:embed migrations
var migrations embed.FS

// Compile-time check: Directory implements domain.Directory.
var _ domain.Directory = (*Directory)(nil)

// Directory implements the master tenant registry on SQLite.
type Directory struct {
	db *sql.DB
}

// NewDirectory opens the master database, runs its migrations, and returns
// a ready directory.
func NewDirectory(dataSourceName string) (*Directory, error) {
	db, err := open(dataSourceName)
	if err != nil {
		return nil, err
	}
	return NewDirectoryFromDB(db)
}

// NewDirectoryFromDB wraps an existing connection, runs migrations, and
// returns a ready directory. Use this when the *sql.DB has been
// pre-configured (e.g., with otelsql instrumentation).
func NewDirectoryFromDB(db *sql.DB) (*Directory, error) {
	if err := runMigrations(db, "migrations/master"); err != nil {
		return nil, err
	}
	return &Directory{db: db}, nil
}

// Close closes the underlying master connection.
func (d *Directory) Close() error {
	return d.db.Close()
}

// DB returns the underlying connection for use by other adapters (e.g.,
// river, which shares the master database).
func (d *Directory) DB() *sql.DB {
	return d.db
}

func open(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite performs best with a single connection when the master DB is
	// shared with the embedded job queue (River). This avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	// Enable foreign keys (off by default in SQLite).
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return db, nil
}

// migrateMu serializes migration runs. Goose configures itself through
// package-level state (SetBaseFS, SetDialect), so concurrent runs against
// different databases must not interleave.
var migrateMu sync.Mutex

func runMigrations(db *sql.DB, dir string) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

const timeFormat = "2006-01-02T15:04:05Z"

func (d *Directory) Create(ctx context.Context, t domain.TenantRecord) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO tenants (slug, database_name, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		t.Slug, t.DatabaseName, boolToInt(t.Active),
		t.CreatedAt.Format(timeFormat),
		t.UpdatedAt.Format(timeFormat),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.SlugConflictError{Slug: t.Slug}
		}
		return fmt.Errorf("inserting tenant: %w", err)
	}
	return nil
}

func (d *Directory) GetBySlug(ctx context.Context, slug string) (domain.TenantRecord, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT slug, database_name, active, created_at, updated_at
		 FROM tenants WHERE slug = ?`, slug,
	)

	var t domain.TenantRecord
	var active int
	var createdAt, updatedAt string

	err := row.Scan(&t.Slug, &t.DatabaseName, &active, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.TenantRecord{}, domain.ErrTenantNotFound
		}
		return domain.TenantRecord{}, fmt.Errorf("scanning tenant: %w", err)
	}

	t.Active = active == 1
	t.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	t.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)

	return t, nil
}

func (d *Directory) List(ctx context.Context) ([]domain.TenantRecord, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT slug, database_name, active, created_at, updated_at
		 FROM tenants ORDER BY slug`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing tenants: %w", err)
	}
	defer rows.Close()

	var tenants []domain.TenantRecord
	for rows.Next() {
		var t domain.TenantRecord
		var active int
		var createdAt, updatedAt string
		if err := rows.Scan(&t.Slug, &t.DatabaseName, &active, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning tenant row: %w", err)
		}
		t.Active = active == 1
		t.CreatedAt, _ = time.Parse(timeFormat, createdAt)
		t.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)
		tenants = append(tenants, t)
	}

	return tenants, rows.Err()
}

// SetActive flips a tenant's active flag. A deactivated tenant is no
// longer resolvable and drops out of the token sweep.
func (d *Directory) SetActive(ctx context.Context, slug string, active bool) error {
	res, err := d.db.ExecContext(ctx,
		`UPDATE tenants SET active = ?, updated_at = ? WHERE slug = ?`,
		boolToInt(active), time.Now().UTC().Format(timeFormat), slug,
	)
	if err != nil {
		return fmt.Errorf("updating tenant active flag: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating tenant active flag: %w", err)
	}
	if affected == 0 {
		return domain.ErrTenantNotFound
	}
	return nil
}

func (d *Directory) ListActiveSlugs(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT slug FROM tenants WHERE active = 1 AND database_name != '' ORDER BY slug`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing active slugs: %w", err)
	}
	defer rows.Close()

	var slugs []string
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, fmt.Errorf("scanning slug: %w", err)
		}
		slugs = append(slugs, slug)
	}

	return slugs, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isUniqueViolation checks if a SQLite error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
