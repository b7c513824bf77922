package domain

import "time"

// TokenState represents the lifecycle state of a tenant's marketplace
// credentials.
type TokenState string

const (
	TokenStateNone       TokenState = "no_token"
	TokenStateFresh      TokenState = "fresh"
	TokenStateStale      TokenState = "stale"
	TokenStateRefreshing TokenState = "refreshing"
)

// TokenEvent represents an action that triggers a token state transition.
type TokenEvent string

const (
	TokenEventIssued           TokenEvent = "tokens_issued"
	TokenEventExpire           TokenEvent = "expire"
	TokenEventBeginRefresh     TokenEvent = "begin_refresh"
	TokenEventRefreshSucceeded TokenEvent = "refresh_succeeded"
	TokenEventRefreshFailed    TokenEvent = "refresh_failed"
)

// TokenTransition defines a valid state change: an event moves credentials
// from Src to Dst.
type TokenTransition struct {
	Event TokenEvent
	Src   TokenState
	Dst   TokenState
}

// TokenTransitions defines all valid state changes in the credential
// lifecycle. This is domain knowledge consumed by the FSM adapter.
var TokenTransitions = []TokenTransition{
	{Event: TokenEventIssued, Src: TokenStateNone, Dst: TokenStateFresh},
	{Event: TokenEventExpire, Src: TokenStateFresh, Dst: TokenStateStale},
	{Event: TokenEventBeginRefresh, Src: TokenStateStale, Dst: TokenStateRefreshing},
	{Event: TokenEventRefreshSucceeded, Src: TokenStateRefreshing, Dst: TokenStateFresh},
	{Event: TokenEventRefreshFailed, Src: TokenStateRefreshing, Dst: TokenStateStale},
}

// TokenStaleAge is the credential age at which a refresh becomes due.
// One hour inside the marketplace's 24h validity window, so the hourly
// sweep always refreshes before expiry.
const TokenStaleAge = 23 * time.Hour

// StoreConfig is one tenant's marketplace integration record: store
// identity plus the access/refresh token pair issued by the marketplace.
// At most one row per tenant is expected to be active.
type StoreConfig struct {
	ID                 int64
	CompanyID          int64
	CNPJ               string
	MarketplaceStoreID string
	TokenHub           string
	AccessToken        string
	RefreshToken       string
	Active             bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TokenAge returns how old the stored token pair is at the given instant.
// Falls back from UpdatedAt to CreatedAt to the epoch, so a row that has
// never been touched is always considered due.
func (c StoreConfig) TokenAge(now time.Time) time.Duration {
	last := c.UpdatedAt
	if last.IsZero() {
		last = c.CreatedAt
	}
	return now.Sub(last)
}

// TokenState derives the lifecycle state of the stored credentials at the
// given instant. The "refreshing" state is transient and never derived
// from stored data.
func (c StoreConfig) TokenState(now time.Time) TokenState {
	if c.RefreshToken == "" {
		return TokenStateNone
	}
	if c.TokenAge(now) < TokenStaleAge {
		return TokenStateFresh
	}
	return TokenStateStale
}
