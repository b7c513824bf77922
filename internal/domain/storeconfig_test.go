package domain_test

import (
	"testing"
	"time"

	"github.com/neomorfeo/storebridge/internal/domain"
)

func TestTokenAge_FallsBackThroughTimestamps(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	cfg := domain.StoreConfig{
		CreatedAt: now.Add(-48 * time.Hour),
		UpdatedAt: now.Add(-2 * time.Hour),
	}
	if got := cfg.TokenAge(now); got != 2*time.Hour {
		t.Errorf("TokenAge = %v, want %v", got, 2*time.Hour)
	}

	// No UpdatedAt yet: fall back to CreatedAt.
	cfg.UpdatedAt = time.Time{}
	if got := cfg.TokenAge(now); got != 48*time.Hour {
		t.Errorf("TokenAge = %v, want %v", got, 48*time.Hour)
	}

	// Neither timestamp: age from the epoch, always due.
	cfg.CreatedAt = time.Time{}
	if got := cfg.TokenAge(now); got < domain.TokenStaleAge {
		t.Errorf("TokenAge = %v, want at least %v", got, domain.TokenStaleAge)
	}
}

func TestTokenState(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		refreshToken string
		age          time.Duration
		want         domain.TokenState
	}{
		{"no refresh token", "", time.Hour, domain.TokenStateNone},
		{"one hour old", "rt", time.Hour, domain.TokenStateFresh},
		{"just under threshold", "rt", domain.TokenStaleAge - time.Minute, domain.TokenStateFresh},
		{"at threshold", "rt", domain.TokenStaleAge, domain.TokenStateStale},
		{"a day old", "rt", 24 * time.Hour, domain.TokenStateStale},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := domain.StoreConfig{
				RefreshToken: tt.refreshToken,
				UpdatedAt:    now.Add(-tt.age),
			}
			if got := cfg.TokenState(now); got != tt.want {
				t.Errorf("TokenState = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTokenTransitions_AllEventsHaveEntries(t *testing.T) {
	events := []domain.TokenEvent{
		domain.TokenEventIssued,
		domain.TokenEventExpire,
		domain.TokenEventBeginRefresh,
		domain.TokenEventRefreshSucceeded,
		domain.TokenEventRefreshFailed,
	}

	for _, event := range events {
		found := false
		for _, tr := range domain.TokenTransitions {
			if tr.Event == event {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("event %q has no transition entry", event)
		}
	}
}
