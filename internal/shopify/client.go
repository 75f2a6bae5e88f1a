package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultAPIVersion is the Admin API version the catalog is built against.
	DefaultAPIVersion = "2024-01"
	// PageSize is the maximum page size the Admin API accepts.
	PageSize = 250

	accessTokenHeader = "X-Shopify-Access-Token"
	maxErrorBody      = 4 << 10
)

// Counter reports how many products exist in a lifecycle state.
type Counter interface {
	Count(ctx context.Context, status string) (int, error)
}

// Lister fetches one page of products after sinceID (0 starts at the beginning).
type Lister interface {
	List(ctx context.Context, status string, sinceID int64) (Page, error)
}

// Client is an authenticated Admin API client for one store.
type Client struct {
	store      string
	token      string
	apiVersion string
	baseURL    string
	httpClient *http.Client
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseURL points the client at another origin, for example an httptest server.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(base, "/")
	}
}

// WithAPIVersion selects the Admin API version.
func WithAPIVersion(version string) Option {
	return func(c *Client) {
		if version != "" {
			c.apiVersion = version
		}
	}
}

// NewClient normalizes the store address and builds a client for it.
func NewClient(storeAddress, accessToken string, opts ...Option) (*Client, error) {
	store, err := NormalizeStoreAddress(storeAddress)
	if err != nil {
		return nil, err
	}
	c := &Client{
		store:      store,
		token:      accessToken,
		apiVersion: DefaultAPIVersion,
		baseURL:    "https://" + store,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Store returns the canonical store host.
func (c *Client) Store() string {
	return c.store
}

type countResponse struct {
	Count int `json:"count"`
}

type listResponse struct {
	Products []Product `json:"products"`
}

// Count implements Counter.
func (c *Client) Count(ctx context.Context, status string) (int, error) {
	q := url.Values{}
	q.Set("status", status)
	var out countResponse
	if err := c.get(ctx, "products/count.json", q, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// List implements Lister.
func (c *Client) List(ctx context.Context, status string, sinceID int64) (Page, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(PageSize))
	q.Set("status", status)
	if sinceID > 0 {
		q.Set("since_id", strconv.FormatInt(sinceID, 10))
	}
	var out listResponse
	if err := c.get(ctx, "products.json", q, &out); err != nil {
		return Page{}, err
	}
	page := Page{Products: out.Products}
	if n := len(out.Products); n > 0 {
		page.Next = out.Products[n-1].ID
	}
	return page, nil
}

func (c *Client) get(ctx context.Context, resource string, query url.Values, target any) error {
	endpoint := fmt.Sprintf("%s/admin/api/%s/%s?%s", c.baseURL, c.apiVersion, resource, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("shopify: build request: %w", err)
	}
	req.Header.Set(accessTokenHeader, c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("shopify: get %s: %w", resource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("shopify: get %s: empty body", resource)
		}
		return fmt.Errorf("shopify: decode %s: %w", resource, err)
	}
	return nil
}
