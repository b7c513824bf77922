package marketplace

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// retryAfterDefault is used when a 429 response carries no usable
// Retry-After hint.
const retryAfterDefault = 2 * time.Second

// retryTransport retries a request exactly once when the marketplace
// signals rate limiting. The delay comes from the Retry-After header when
// present. One retry per original call keeps a hot caller from hammering
// the API in a loop.
type retryTransport struct {
	base http.RoundTripper
}

func newRetryTransport(base http.RoundTripper) *retryTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &retryTransport{base: base}
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil || resp.StatusCode != http.StatusTooManyRequests {
		return resp, err
	}

	delay := retryDelay(resp)
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	slog.WarnContext(req.Context(), "marketplace rate limited, retrying once",
		"method", req.Method,
		"url", req.URL.String(),
		"delay", delay,
	)

	select {
	case <-req.Context().Done():
		return nil, req.Context().Err()
	case <-time.After(delay):
	}

	retry := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		retry.Body = body
	}

	return t.base.RoundTrip(retry)
}

func retryDelay(resp *http.Response) time.Duration {
	raw := resp.Header.Get("Retry-After")
	if raw == "" {
		return retryAfterDefault
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return retryAfterDefault
	}
	return time.Duration(seconds) * time.Second
}
