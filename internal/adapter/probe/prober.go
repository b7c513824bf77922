package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/neomorfeo/storebridge/internal/domain"
)

// Compile-time check: Prober implements domain.ImageProber.
var _ domain.ImageProber = (*Prober)(nil)

// defaultTimeout bounds the existence probe. Image hosts that cannot
// answer a HEAD request this fast fail the row.
const defaultTimeout = 5 * time.Second

// Prober verifies image URLs with a lightweight HEAD request.
type Prober struct {
	http *http.Client
}

// New creates a prober with the given timeout; zero means the default.
func New(timeout time.Duration) *Prober {
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Prober{http: &http.Client{Timeout: timeout}}
}

// Check fails when the URL is unreachable or answers with an error
// status. The message is what ends up in the tenant's import error log.
func (p *Prober) Check(ctx context.Context, imageURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, imageURL, nil)
	if err != nil {
		return fmt.Errorf("Image validation failed for URL: %s", imageURL)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("Image validation failed for URL: %s", imageURL)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("Image validation failed for URL: %s", imageURL)
	}
	return nil
}
