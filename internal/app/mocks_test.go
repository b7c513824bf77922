package app_test

import (
	"context"
	"fmt"
	"time"

	"github.com/neomorfeo/storebridge/internal/domain"
)

// fakeClock is a manually set clock.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

// stubValidator applies the domain transition table directly.
type stubValidator struct{}

func (v *stubValidator) Apply(_ context.Context, current domain.TokenState, event domain.TokenEvent) (domain.TokenState, error) {
	for _, t := range domain.TokenTransitions {
		if t.Event == event && t.Src == current {
			return t.Dst, nil
		}
	}
	return "", &domain.TransitionError{Event: event, Current: current}
}

// --- Directory ---

type mockDirectory struct {
	records map[string]domain.TenantRecord
	order   []string
}

func newMockDirectory() *mockDirectory {
	return &mockDirectory{records: make(map[string]domain.TenantRecord)}
}

func (m *mockDirectory) add(record domain.TenantRecord) {
	m.records[record.Slug] = record
	m.order = append(m.order, record.Slug)
}

func (m *mockDirectory) Create(_ context.Context, record domain.TenantRecord) error {
	m.add(record)
	return nil
}

func (m *mockDirectory) GetBySlug(_ context.Context, slug string) (domain.TenantRecord, error) {
	record, ok := m.records[slug]
	if !ok {
		return domain.TenantRecord{}, domain.ErrTenantNotFound
	}
	return record, nil
}

func (m *mockDirectory) List(_ context.Context) ([]domain.TenantRecord, error) {
	out := make([]domain.TenantRecord, 0, len(m.order))
	for _, slug := range m.order {
		out = append(out, m.records[slug])
	}
	return out, nil
}

func (m *mockDirectory) ListActiveSlugs(_ context.Context) ([]string, error) {
	var out []string
	for _, slug := range m.order {
		if m.records[slug].Active {
			out = append(out, slug)
		}
	}
	return out, nil
}

func (m *mockDirectory) SetActive(_ context.Context, slug string, active bool) error {
	record, ok := m.records[slug]
	if !ok {
		return domain.ErrTenantNotFound
	}
	record.Active = active
	m.records[slug] = record
	return nil
}

// --- Tenant client and registry ---

type mockTenantClient struct {
	stores   *mockStoreConfigs
	products *mockProducts
	imports  *mockImports
	refs     *mockReferences
}

func newMockTenantClient() *mockTenantClient {
	return &mockTenantClient{
		stores:   &mockStoreConfigs{},
		products: &mockProducts{existing: make(map[string]domain.Product)},
		imports:  &mockImports{sessions: make(map[string]domain.ImportSession)},
		refs:     &mockReferences{brands: make(map[string]int64), packagingID: 1},
	}
}

func (m *mockTenantClient) StoreConfigs() domain.StoreConfigRepository { return m.stores }
func (m *mockTenantClient) Products() domain.ProductRepository         { return m.products }
func (m *mockTenantClient) Imports() domain.ImportRepository           { return m.imports }
func (m *mockTenantClient) References() domain.ReferenceResolver       { return m.refs }

type mockRegistry struct {
	clients     map[string]*mockTenantClient
	unreachable map[string]bool
}

func newMockRegistry() *mockRegistry {
	return &mockRegistry{
		clients:     make(map[string]*mockTenantClient),
		unreachable: make(map[string]bool),
	}
}

func (m *mockRegistry) register(slug string) *mockTenantClient {
	client := newMockTenantClient()
	m.clients[slug] = client
	return client
}

func (m *mockRegistry) Resolve(_ context.Context, slug string) (domain.TenantClient, error) {
	client, ok := m.clients[slug]
	if !ok {
		return nil, domain.ErrTenantNotFound
	}
	return client, nil
}

func (m *mockRegistry) Invalidate(string) {}

func (m *mockRegistry) TestConnection(_ context.Context, slug string) bool {
	_, ok := m.clients[slug]
	return ok && !m.unreachable[slug]
}

func (m *mockRegistry) Shutdown() error { return nil }

// --- Store configs ---

type mockStoreConfigs struct {
	config    domain.StoreConfig
	activeErr error
	created   []domain.StoreConfig
	createErr error

	updatedID      int64
	updatedAccess  string
	updatedRefresh string
	updateCalls    int
}

func (m *mockStoreConfigs) Create(_ context.Context, config domain.StoreConfig) (domain.StoreConfig, error) {
	if m.createErr != nil {
		return domain.StoreConfig{}, m.createErr
	}
	config.ID = int64(len(m.created) + 1)
	m.created = append(m.created, config)
	return config, nil
}

func (m *mockStoreConfigs) Active(_ context.Context) (domain.StoreConfig, error) {
	if m.activeErr != nil {
		return domain.StoreConfig{}, m.activeErr
	}
	return m.config, nil
}

func (m *mockStoreConfigs) UpdateTokens(_ context.Context, id int64, access, refresh string, _ time.Time) error {
	m.updateCalls++
	m.updatedID = id
	m.updatedAccess = access
	m.updatedRefresh = refresh
	return nil
}

// --- Products ---

type productUpdate struct {
	sku      string
	price    float64
	minStock int
}

type mockProducts struct {
	existing map[string]domain.Product
	inserted []domain.Product
	updates  []productUpdate
}

func (m *mockProducts) GetBySKU(_ context.Context, sku string) (domain.Product, error) {
	product, ok := m.existing[sku]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

func (m *mockProducts) Insert(_ context.Context, product domain.Product) (int64, error) {
	m.inserted = append(m.inserted, product)
	return int64(len(m.inserted)), nil
}

func (m *mockProducts) UpdatePriceAndStock(_ context.Context, sku string, price float64, minStock int) error {
	m.updates = append(m.updates, productUpdate{sku: sku, price: price, minStock: minStock})
	return nil
}

// --- References ---

type mockReferences struct {
	brands      map[string]int64
	packagingID int64
}

func (m *mockReferences) BrandID(_ context.Context, name string) (int64, error) {
	if name == "" {
		return 0, &domain.MissingReferenceError{Kind: "brand"}
	}
	id, ok := m.brands[name]
	if !ok {
		return 0, &domain.MissingReferenceError{Kind: "brand", Name: name}
	}
	return id, nil
}

func (m *mockReferences) DefaultPackagingID(context.Context) (int64, error) {
	return m.packagingID, nil
}

// --- Imports ---

type mockImports struct {
	sessions map[string]domain.ImportSession
	logged   []domain.ImportError
}

func (m *mockImports) CreateSession(_ context.Context, session domain.ImportSession) error {
	m.sessions[session.ID] = session
	return nil
}

func (m *mockImports) GetSession(_ context.Context, id string) (domain.ImportSession, error) {
	session, ok := m.sessions[id]
	if !ok {
		return domain.ImportSession{}, domain.ErrSessionNotFound
	}
	return session, nil
}

func (m *mockImports) SetSessionStatus(_ context.Context, id string, status domain.SessionStatus) error {
	session, ok := m.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.Status = status
	m.sessions[id] = session
	return nil
}

func (m *mockImports) LogError(_ context.Context, importError domain.ImportError) error {
	m.logged = append(m.logged, importError)
	return nil
}

func (m *mockImports) ErrorsBySession(_ context.Context, sessionID string) ([]domain.ImportError, error) {
	var out []domain.ImportError
	for _, importError := range m.logged {
		if importError.SessionID == sessionID {
			out = append(out, importError)
		}
	}
	return out, nil
}

// --- Queues ---

type mockQueue struct {
	fileJobs   []domain.FileJob
	batchJobs  []domain.BatchJob
	refreshes  []string
	batchErr   error
	refreshErr map[string]error
}

func newMockQueue() *mockQueue {
	return &mockQueue{refreshErr: make(map[string]error)}
}

func (m *mockQueue) EnqueueFile(_ context.Context, job domain.FileJob) (int64, error) {
	m.fileJobs = append(m.fileJobs, job)
	return int64(len(m.fileJobs)), nil
}

func (m *mockQueue) EnqueueBatch(_ context.Context, job domain.BatchJob) error {
	if m.batchErr != nil {
		return m.batchErr
	}
	m.batchJobs = append(m.batchJobs, job)
	return nil
}

func (m *mockQueue) EnqueueRefresh(_ context.Context, tenant string) error {
	if err := m.refreshErr[tenant]; err != nil {
		return err
	}
	m.refreshes = append(m.refreshes, tenant)
	return nil
}

// --- Marketplace ---

type sentBatch struct {
	tenant   string
	products []domain.ImportProduct
}

type mockMarketplace struct {
	created     domain.StoreCreated
	createErr   error
	storePair   domain.TokenPair
	refreshPair domain.TokenPair
	refreshErr  error
	refreshed   []string
	batches     []sentBatch
	batchErr    error
}

func (m *mockMarketplace) CreateStore(_ context.Context, req domain.StoreRequest) (domain.StoreCreated, error) {
	if m.createErr != nil {
		return domain.StoreCreated{}, m.createErr
	}
	if m.created.CNPJ == "" {
		m.created.CNPJ = req.CNPJ
	}
	return m.created, nil
}

func (m *mockMarketplace) StoreToken(context.Context, string, string) (domain.TokenPair, error) {
	return m.storePair, nil
}

func (m *mockMarketplace) RefreshToken(_ context.Context, refreshToken string) (domain.TokenPair, error) {
	if m.refreshErr != nil {
		return domain.TokenPair{}, m.refreshErr
	}
	m.refreshed = append(m.refreshed, refreshToken)
	return m.refreshPair, nil
}

func (m *mockMarketplace) CreateProduct(_ context.Context, product domain.RawProduct) (domain.RawProduct, error) {
	return product, nil
}

func (m *mockMarketplace) ListProducts(context.Context, domain.ProductQuery) (domain.RawProduct, error) {
	return domain.RawProduct(`[]`), nil
}

func (m *mockMarketplace) UpdateProduct(_ context.Context, _ string, patch domain.RawProduct) (domain.RawProduct, error) {
	return patch, nil
}

func (m *mockMarketplace) DeleteProduct(context.Context, string) error { return nil }

func (m *mockMarketplace) SendProductBatch(_ context.Context, tenant string, products []domain.ImportProduct) error {
	if m.batchErr != nil {
		return m.batchErr
	}
	m.batches = append(m.batches, sentBatch{tenant: tenant, products: products})
	return nil
}

// --- Prober ---

type mockProber struct {
	badURLs map[string]bool
}

func (m *mockProber) Check(_ context.Context, url string) error {
	if m.badURLs[url] {
		return fmt.Errorf("Image validation failed for URL: %s", url)
	}
	return nil
}
