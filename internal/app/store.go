package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/neomorfeo/storebridge/internal/domain"
)

// StoreService provisions marketplace stores and records the issued
// credentials in the tenant's store config.
type StoreService struct {
	registry  domain.ClientRegistry
	market    domain.Marketplace
	validator domain.TransitionValidator
}

// NewStoreService creates the store provisioning service.
func NewStoreService(registry domain.ClientRegistry, market domain.Marketplace, validator domain.TransitionValidator) *StoreService {
	return &StoreService{registry: registry, market: market, validator: validator}
}

// CreateStore provisions a store at the marketplace, fetches its token
// pair, and persists the active config for the tenant. The tenant is
// resolved first so a bad tenant fails before any remote side effect.
func (s *StoreService) CreateStore(ctx context.Context, tenant string, req domain.StoreRequest) (domain.StoreConfig, error) {
	client, err := s.registry.Resolve(ctx, tenant)
	if err != nil {
		return domain.StoreConfig{}, err
	}

	created, err := s.market.CreateStore(ctx, req)
	if err != nil {
		return domain.StoreConfig{}, err
	}

	pair, err := s.market.StoreToken(ctx, req.CNPJ, req.SoftwareHouseCNPJ)
	if err != nil {
		return domain.StoreConfig{}, err
	}

	// The new config enters the lifecycle with freshly issued tokens.
	if _, err := s.validator.Apply(ctx, domain.TokenStateNone, domain.TokenEventIssued); err != nil {
		return domain.StoreConfig{}, err
	}

	config, err := client.StoreConfigs().Create(ctx, domain.StoreConfig{
		CompanyID:          req.CompanyID,
		CNPJ:               created.CNPJ,
		MarketplaceStoreID: created.StoreID,
		TokenHub:           created.TokenHub,
		AccessToken:        pair.AccessToken,
		RefreshToken:       pair.RefreshToken,
		Active:             true,
	})
	if err != nil {
		return domain.StoreConfig{}, fmt.Errorf("persisting store config: %w", err)
	}

	slog.InfoContext(ctx, "marketplace store provisioned",
		"tenant", tenant,
		"cnpj", created.CNPJ,
		"store_id", created.StoreID,
	)
	return config, nil
}
