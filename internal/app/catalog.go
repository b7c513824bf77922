package app

import (
	"context"

	"github.com/neomorfeo/storebridge/internal/domain"
)

// CatalogService is the synchronous product surface: it forwards calls to
// the marketplace and re-surfaces upstream failures to the caller.
type CatalogService struct {
	market domain.Marketplace
}

// NewCatalogService creates the marketplace product proxy.
func NewCatalogService(market domain.Marketplace) *CatalogService {
	return &CatalogService{market: market}
}

func (s *CatalogService) Create(ctx context.Context, product domain.RawProduct) (domain.RawProduct, error) {
	return s.market.CreateProduct(ctx, product)
}

func (s *CatalogService) List(ctx context.Context, query domain.ProductQuery) (domain.RawProduct, error) {
	return s.market.ListProducts(ctx, query)
}

func (s *CatalogService) Update(ctx context.Context, sku string, patch domain.RawProduct) (domain.RawProduct, error) {
	return s.market.UpdateProduct(ctx, sku, patch)
}

func (s *CatalogService) Delete(ctx context.Context, sku string) error {
	return s.market.DeleteProduct(ctx, sku)
}
