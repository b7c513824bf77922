package marketplace

import (
	"context"
	"sync"
	"time"

	"github.com/neomorfeo/storebridge/internal/domain"
)

// tokenTTL is the validity window of the process-wide integration token.
const tokenTTL = 24 * time.Hour

// tokenCache memoizes the process-wide bearer token. The mutex is held
// across the login call, so concurrent callers hitting an expired cache
// wait for a single login instead of racing duplicate ones.
type tokenCache struct {
	clock domain.Clock
	login func(ctx context.Context) (string, error)

	mu     sync.Mutex
	token  string
	expiry time.Time
}

func newTokenCache(clock domain.Clock, login func(ctx context.Context) (string, error)) *tokenCache {
	return &tokenCache{clock: clock, login: login}
}

// Get returns the cached token while it is inside its TTL, performing a
// login call otherwise.
func (c *tokenCache) Get(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if c.token != "" && now.Before(c.expiry) {
		return c.token, nil
	}

	token, err := c.login(ctx)
	if err != nil {
		return "", err
	}

	c.token = token
	c.expiry = now.Add(tokenTTL)
	return token, nil
}

// systemClock is the default wall clock.
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
