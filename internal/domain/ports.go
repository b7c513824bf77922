package domain

import (
	"context"
	"time"
)

// Directory is the master registry of tenants. The connection registry and
// the token sweep are its only in-scope consumers; provisioning writes go
// through the admin API.
type Directory interface {
	Create(ctx context.Context, record TenantRecord) error
	GetBySlug(ctx context.Context, slug string) (TenantRecord, error)
	List(ctx context.Context) ([]TenantRecord, error)
	ListActiveSlugs(ctx context.Context) ([]string, error)
	SetActive(ctx context.Context, slug string, active bool) error
}

// TenantClient is an open session to one tenant's database, exposing the
// tenant-scoped repositories.
type TenantClient interface {
	StoreConfigs() StoreConfigRepository
	Products() ProductRepository
	Imports() ImportRepository
	References() ReferenceResolver
}

// ClientRegistry lazily creates and caches one TenantClient per active
// tenant. Resolve never returns a nil client without an error, callers
// cannot silently operate on an unusable handle.
type ClientRegistry interface {
	Resolve(ctx context.Context, slug string) (TenantClient, error)
	Invalidate(slug string)
	TestConnection(ctx context.Context, slug string) bool
	Shutdown() error
}

// StoreConfigRepository persists a tenant's marketplace credentials.
type StoreConfigRepository interface {
	Create(ctx context.Context, config StoreConfig) (StoreConfig, error)
	// Active returns the single active config. It fails with
	// ErrStoreConfigNotFound when there is none and with
	// StoreConfigConflictError when more than one row is active.
	Active(ctx context.Context) (StoreConfig, error)
	// UpdateTokens atomically replaces the token pair of one row.
	UpdateTokens(ctx context.Context, id int64, access, refresh string, now time.Time) error
}

// ProductRepository persists the tenant catalog targeted by imports.
type ProductRepository interface {
	GetBySKU(ctx context.Context, sku string) (Product, error)
	Insert(ctx context.Context, product Product) (int64, error)
	// UpdatePriceAndStock is the deliberately narrow re-import path: only
	// price and minimum stock change, everything else stays untouched.
	UpdatePriceAndStock(ctx context.Context, sku string, price float64, minStock int) error
}

// ReferenceResolver resolves catalog references a new product needs.
type ReferenceResolver interface {
	BrandID(ctx context.Context, name string) (int64, error)
	DefaultPackagingID(ctx context.Context) (int64, error)
}

// ImportRepository persists import sessions and their error log.
type ImportRepository interface {
	CreateSession(ctx context.Context, session ImportSession) error
	GetSession(ctx context.Context, id string) (ImportSession, error)
	SetSessionStatus(ctx context.Context, id string, status SessionStatus) error
	LogError(ctx context.Context, importError ImportError) error
	ErrorsBySession(ctx context.Context, sessionID string) ([]ImportError, error)
}

// Marketplace is the external marketplace REST API. Login handling and
// bearer headers are the implementation's concern.
type Marketplace interface {
	CreateStore(ctx context.Context, req StoreRequest) (StoreCreated, error)
	StoreToken(ctx context.Context, cnpj, softwareHouseCNPJ string) (TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (TokenPair, error)
	CreateProduct(ctx context.Context, product RawProduct) (RawProduct, error)
	ListProducts(ctx context.Context, query ProductQuery) (RawProduct, error)
	UpdateProduct(ctx context.Context, sku string, patch RawProduct) (RawProduct, error)
	DeleteProduct(ctx context.Context, sku string) error
	SendProductBatch(ctx context.Context, tenant string, products []ImportProduct) error
}

// FileJob is the file-stage payload: stream one uploaded file and fan out
// row batches.
type FileJob struct {
	Path      string
	FileName  string
	Tenant    string
	SessionID string
}

// BatchJob is the batch-stage payload. Offset is the 1-based file row
// number of the first row, so error records point at the original file.
type BatchJob struct {
	Rows      []ImportRow
	Tenant    string
	SessionID string
	Offset    int
}

// ImportQueue dispatches import pipeline jobs. Delivery is at-least-once
// and batch order across workers is not guaranteed.
type ImportQueue interface {
	EnqueueFile(ctx context.Context, job FileJob) (int64, error)
	EnqueueBatch(ctx context.Context, job BatchJob) error
}

// RefreshQueue dispatches per-tenant token refresh jobs.
type RefreshQueue interface {
	EnqueueRefresh(ctx context.Context, tenant string) error
}

// ImageProber checks that an image URL is reachable before a row is
// accepted.
type ImageProber interface {
	Check(ctx context.Context, url string) error
}

// TransitionValidator guards token lifecycle transitions.
type TransitionValidator interface {
	Apply(ctx context.Context, current TokenState, event TokenEvent) (TokenState, error)
}

// Clock abstracts time for the freshness checks and the token cache.
type Clock interface {
	Now() time.Time
}
