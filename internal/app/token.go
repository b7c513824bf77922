package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/neomorfeo/storebridge/internal/domain"
)

// TokenService owns the per-tenant credential refresh cycle. A single
// hourly sweep enumerates tenants and enqueues one refresh job each; the
// refresh operation itself is idempotent within the hour, so a job
// delivered twice is harmless.
type TokenService struct {
	directory domain.Directory
	registry  domain.ClientRegistry
	market    domain.Marketplace
	refreshes domain.RefreshQueue
	validator domain.TransitionValidator
	clock     domain.Clock
}

// NewTokenService creates the token lifecycle manager.
func NewTokenService(
	directory domain.Directory,
	registry domain.ClientRegistry,
	market domain.Marketplace,
	refreshes domain.RefreshQueue,
	validator domain.TransitionValidator,
	clock domain.Clock,
) *TokenService {
	if clock == nil {
		clock = systemClock{}
	}
	return &TokenService{
		directory: directory,
		registry:  registry,
		market:    market,
		refreshes: refreshes,
		validator: validator,
		clock:     clock,
	}
}

// Sweep enqueues a refresh job for every active tenant. A tenant that
// fails to enqueue is logged and skipped; the next sweep retries it.
func (s *TokenService) Sweep(ctx context.Context) error {
	slugs, err := s.directory.ListActiveSlugs(ctx)
	if err != nil {
		return fmt.Errorf("listing active tenants: %w", err)
	}

	enqueued := 0
	for _, slug := range slugs {
		if err := s.refreshes.EnqueueRefresh(ctx, slug); err != nil {
			slog.ErrorContext(ctx, "enqueuing token refresh", "tenant", slug, "error", err)
			continue
		}
		enqueued++
	}

	slog.InfoContext(ctx, "token sweep finished", "tenants", len(slugs), "enqueued", enqueued)
	return nil
}

// Refresh runs one tenant's refresh cycle. Skips (dead connection, no
// config, fresh token, ambiguous config) return nil so the queue does not
// retry them; only a failed marketplace call or tenant write returns an
// error, which the queue retries and then abandons until the next sweep.
func (s *TokenService) Refresh(ctx context.Context, tenant string) error {
	if !s.registry.TestConnection(ctx, tenant) {
		slog.WarnContext(ctx, "tenant database unreachable, skipping refresh", "tenant", tenant)
		return nil
	}

	client, err := s.registry.Resolve(ctx, tenant)
	if err != nil {
		return err
	}

	config, err := client.StoreConfigs().Active(ctx)
	if err != nil {
		var conflict *domain.StoreConfigConflictError
		switch {
		case errors.Is(err, domain.ErrStoreConfigNotFound):
			return nil
		case errors.As(err, &conflict):
			// Ambiguous credentials need an operator, not a guess.
			slog.ErrorContext(ctx, "ambiguous store config, skipping refresh",
				"tenant", tenant, "active_rows", conflict.Count)
			return nil
		default:
			return err
		}
	}

	now := s.clock.Now()
	state := config.TokenState(now)
	switch state {
	case domain.TokenStateNone:
		return nil
	case domain.TokenStateFresh:
		slog.DebugContext(ctx, "token still fresh",
			"tenant", tenant, "age", config.TokenAge(now).Round(time.Minute))
		return nil
	}

	if _, err := s.validator.Apply(ctx, state, domain.TokenEventBeginRefresh); err != nil {
		return err
	}

	slog.InfoContext(ctx, "refreshing tenant token",
		"tenant", tenant, "age", config.TokenAge(now).Round(time.Minute))

	pair, err := s.market.RefreshToken(ctx, config.RefreshToken)
	if err != nil {
		// Back to stale; the row stays untouched and the next sweep (or a
		// queue retry) picks it up again.
		s.validator.Apply(ctx, domain.TokenStateRefreshing, domain.TokenEventRefreshFailed) //nolint:errcheck
		return fmt.Errorf("refreshing token for %s: %w", tenant, err)
	}

	if err := client.StoreConfigs().UpdateTokens(ctx, config.ID, pair.AccessToken, pair.RefreshToken, now); err != nil {
		return fmt.Errorf("storing refreshed tokens for %s: %w", tenant, err)
	}

	if _, err := s.validator.Apply(ctx, domain.TokenStateRefreshing, domain.TokenEventRefreshSucceeded); err != nil {
		return err
	}

	slog.InfoContext(ctx, "tenant token refreshed", "tenant", tenant)
	return nil
}

// systemClock is the default wall clock.
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
