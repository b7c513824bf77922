package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/neomorfeo/storebridge/internal/domain"
)

// Compile-time check: Registry implements domain.ClientRegistry.
var _ domain.ClientRegistry = (*Registry)(nil)

// Opener opens a database connection for a tenant data source. Injected
// so main can substitute an instrumented opener (otelsql).
type Opener func(dataSourceName string) (*sql.DB, error)

// Registry lazily creates and caches one Client per active tenant.
// The cache is unbounded for the process lifetime: tenant cardinality is
// small and bounded by the business's client count.
type Registry struct {
	directory domain.Directory
	dataDir   string
	opener    Opener

	mu      sync.RWMutex
	clients map[string]*Client

	// building holds one guard per slug so cold resolves for different
	// tenants never wait on each other's connection setup. Guards are
	// kept for the process lifetime, bounded like the client cache.
	building map[string]*sync.Mutex
}

// NewRegistry creates a registry resolving tenant databases under dataDir.
// A nil opener falls back to the plain SQLite opener.
func NewRegistry(directory domain.Directory, dataDir string, opener Opener) *Registry {
	if opener == nil {
		opener = open
	}
	return &Registry{
		directory: directory,
		dataDir:   dataDir,
		opener:    opener,
		clients:   make(map[string]*Client),
		building:  make(map[string]*sync.Mutex),
	}
}

// Resolve returns the cached client for a tenant, creating it on first
// access. Unknown and inactive tenants fail with ErrTenantNotFound and
// nothing is cached.
func (r *Registry) Resolve(ctx context.Context, slug string) (domain.TenantClient, error) {
	r.mu.RLock()
	client, ok := r.clients[slug]
	r.mu.RUnlock()
	if ok {
		return client, nil
	}

	record, err := r.directory.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !record.Active {
		return nil, domain.ErrTenantNotFound
	}

	dsn, err := r.dataSourceName(record)
	if err != nil {
		return nil, err
	}

	// Build under a per-slug guard: concurrent resolves for the same
	// tenant open one connection, resolves for different tenants proceed
	// in parallel.
	guard := r.buildGuard(slug)
	guard.Lock()
	defer guard.Unlock()

	// Another goroutine may have built the client while we waited on
	// the guard.
	r.mu.RLock()
	client, ok = r.clients[slug]
	r.mu.RUnlock()
	if ok {
		return client, nil
	}

	db, err := r.opener(dsn)
	if err != nil {
		return nil, &domain.ConnectionConfigError{Slug: slug, Reason: err.Error()}
	}

	client, err = NewClientFromDB(db)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.clients[slug] = client
	r.mu.Unlock()
	return client, nil
}

func (r *Registry) buildGuard(slug string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	guard, ok := r.building[slug]
	if !ok {
		guard = &sync.Mutex{}
		r.building[slug] = guard
	}
	return guard
}

// dataSourceName builds the tenant connection target from the directory
// record. An unusable record fails with a typed error instead of
// best-effort string building.
func (r *Registry) dataSourceName(record domain.TenantRecord) (string, error) {
	if record.DatabaseName == "" {
		return "", &domain.ConnectionConfigError{Slug: record.Slug, Reason: "empty database name"}
	}
	return filepath.Join(r.dataDir, record.DatabaseName+".db"), nil
}

// Invalidate removes and closes the cached client for a tenant, forcing
// the next Resolve to rebuild the connection.
func (r *Registry) Invalidate(slug string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	client, ok := r.clients[slug]
	if !ok {
		return
	}
	delete(r.clients, slug)

	// Closed under the lock so a concurrent Resolve sees either the old
	// live handle or none, never one mid-teardown.
	if err := client.Close(); err != nil {
		slog.Warn("closing invalidated tenant client", "tenant", slug, "error", err)
	}
}

// TestConnection pings a tenant database. On failure it invalidates the
// cached client and returns false, so a subsequent Resolve rebuilds the
// connection. This is the sole self-healing mechanism for broken handles.
func (r *Registry) TestConnection(ctx context.Context, slug string) bool {
	client, err := r.Resolve(ctx, slug)
	if err != nil {
		return false
	}

	if err := client.(*Client).Ping(ctx); err != nil {
		slog.WarnContext(ctx, "tenant connection check failed", "tenant", slug, "error", err)
		r.Invalidate(slug)
		return false
	}
	return true
}

// Shutdown closes every cached client. Each handle is closed
// independently; one failure does not block closing the rest. Safe to
// call more than once.
func (r *Registry) Shutdown() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for slug, client := range r.clients {
		if err := client.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(r.clients, slug)
	}
	return errors.Join(errs...)
}
