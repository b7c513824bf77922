package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/neomorfeo/storebridge/internal/domain"
)

// Compile-time check: Client implements domain.Marketplace.
var _ domain.Marketplace = (*Client)(nil)

// Config holds the marketplace endpoint and integration credentials.
type Config struct {
	BaseURL  string
	Login    string
	Password string
	Timeout  time.Duration
}

// Client talks to the marketplace REST API. All product and store calls
// carry the process-wide bearer token; 429 responses are retried once by
// the transport.
type Client struct {
	cfg    Config
	http   *http.Client
	tokens *tokenCache
}

// New creates a marketplace client. A nil clock falls back to the wall
// clock; tests inject their own to drive token expiry.
func New(cfg Config, clock domain.Clock) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if clock == nil {
		clock = systemClock{}
	}

	c := &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: newRetryTransport(nil),
		},
	}
	c.tokens = newTokenCache(clock, c.login)
	return c
}

// login performs POST /auth/login with the integration credentials.
func (c *Client) login(ctx context.Context) (string, error) {
	payload := map[string]string{
		"login":    c.cfg.Login,
		"password": c.cfg.Password,
	}

	var out struct {
		AccessToken string `json:"accessToken"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, payload, "", &out); err != nil {
		return "", &domain.AuthenticationError{Op: "login", Err: err}
	}

	slog.InfoContext(ctx, "marketplace login succeeded")
	return out.AccessToken, nil
}

func (c *Client) bearer(ctx context.Context) (string, error) {
	token, err := c.tokens.Get(ctx)
	if err != nil {
		return "", err
	}
	return "Bearer " + token, nil
}

func (c *Client) CreateStore(ctx context.Context, req domain.StoreRequest) (domain.StoreCreated, error) {
	auth, err := c.bearer(ctx)
	if err != nil {
		return domain.StoreCreated{}, err
	}

	var out domain.StoreCreated
	if err := c.do(ctx, http.MethodPost, "/stores", nil, req, auth, &out); err != nil {
		return domain.StoreCreated{}, err
	}
	return out, nil
}

func (c *Client) StoreToken(ctx context.Context, cnpj, softwareHouseCNPJ string) (domain.TokenPair, error) {
	auth, err := c.bearer(ctx)
	if err != nil {
		return domain.TokenPair{}, err
	}

	path := fmt.Sprintf("/stores/%s/software-houses/%s/token",
		url.PathEscape(cnpj), url.PathEscape(softwareHouseCNPJ))
	query := url.Values{"notEncoded": {"true"}}

	var out domain.TokenPair
	if err := c.do(ctx, http.MethodGet, path, query, nil, auth, &out); err != nil {
		return domain.TokenPair{}, err
	}
	return out, nil
}

// RefreshToken exchanges a tenant's refresh token for a new pair. Runs
// unauthenticated: the refresh token is the credential.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	payload := map[string]string{"refreshToken": refreshToken}

	var out domain.TokenPair
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", nil, payload, "", &out); err != nil {
		var upstream *domain.UpstreamError
		if errors.As(err, &upstream) && upstream.Status == http.StatusUnauthorized {
			return domain.TokenPair{}, &domain.AuthenticationError{Op: "refresh", Err: err}
		}
		return domain.TokenPair{}, err
	}
	return out, nil
}

func (c *Client) CreateProduct(ctx context.Context, product domain.RawProduct) (domain.RawProduct, error) {
	auth, err := c.bearer(ctx)
	if err != nil {
		return nil, err
	}

	var out json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/products", nil, product, auth, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListProducts(ctx context.Context, q domain.ProductQuery) (domain.RawProduct, error) {
	auth, err := c.bearer(ctx)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	if q.Page > 0 {
		query.Set("_page", strconv.Itoa(q.Page))
	}
	if q.Size > 0 {
		query.Set("size", strconv.Itoa(q.Size))
	}
	if q.Query != "" {
		query.Set("q", q.Query)
	}
	if q.Brand != "" {
		query.Set("brand", q.Brand)
	}
	if q.EAN != "" {
		query.Set("ean", q.EAN)
	}
	if q.SKU != "" {
		query.Set("sku", q.SKU)
	}
	if q.Active != nil {
		query.Set("active", strconv.FormatBool(*q.Active))
	}

	var out json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/products", query, nil, auth, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateProduct(ctx context.Context, sku string, patch domain.RawProduct) (domain.RawProduct, error) {
	auth, err := c.bearer(ctx)
	if err != nil {
		return nil, err
	}

	var out json.RawMessage
	if err := c.do(ctx, http.MethodPut, "/products/"+url.PathEscape(sku), nil, patch, auth, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteProduct(ctx context.Context, sku string) error {
	auth, err := c.bearer(ctx)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, "/products/"+url.PathEscape(sku), nil, nil, auth, nil)
}

// SendProductBatch forwards one batch of successfully imported rows,
// tagged with the tenant it belongs to.
func (c *Client) SendProductBatch(ctx context.Context, tenant string, products []domain.ImportProduct) error {
	auth, err := c.bearer(ctx)
	if err != nil {
		return err
	}

	payload := map[string]any{"products": products}

	req, err := c.newRequest(ctx, http.MethodPost, "/products/batch", nil, payload, auth)
	if err != nil {
		return err
	}
	req.Header.Set("x-tenant-name", tenant)

	return c.send(req, nil)
}

// do issues one JSON request and decodes the response into out (may be
// nil). Non-2xx responses become UpstreamError with status and body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, auth string, out any) error {
	req, err := c.newRequest(ctx, method, path, query, body, auth)
	if err != nil {
		return err
	}
	return c.send(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any, auth string) (*http.Request, error) {
	target := strings.TrimSuffix(c.cfg.BaseURL, "/") + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	return req, nil
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling marketplace: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading marketplace response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &domain.UpstreamError{Status: resp.StatusCode, Body: string(raw)}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding marketplace response: %w", err)
	}
	return nil
}
