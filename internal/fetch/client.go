// Package fetch pulls statute section text from the upstream legislation
// API. It owns everything about the transport: rate limiting, retry
// classification, response caching, and stripping the markup the API
// embeds in section bodies. Callers hand the resulting plain text to the
// tokenizer.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultUserAgent identifies statext crawls to the upstream API.
const DefaultUserAgent = "statext-crawler/1.0"

// DefaultRequestInterval is the minimum gap between upstream requests.
const DefaultRequestInterval = 200 * time.Millisecond

// Section is one fetched statute section, with markup already stripped.
type Section struct {
	LawID      string `json:"law_id"`
	LocationID string `json:"location_id"`
	Title      string `json:"title"`
	Text       string `json:"text"`
	ActiveDate string `json:"active_date,omitempty"`
}

// Client talks to the legislation API.
type Client struct {
	baseURL    string
	apiKey     string
	userAgent  string
	httpClient *http.Client
	cache      *lru.Cache[string, *Section]

	mu       sync.Mutex
	last     time.Time
	interval time.Duration
}

// Options tune a Client. Zero values pick defaults.
type Options struct {
	RequestInterval time.Duration
	CacheSize       int
	UserAgent       string
	HTTPClient      *http.Client
}

// NewClient creates a legislation API client.
func NewClient(baseURL, apiKey string, opts Options) (*Client, error) {
	if opts.RequestInterval <= 0 {
		opts.RequestInterval = DefaultRequestInterval
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 1024
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}

	cache, err := lru.New[string, *Section](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		userAgent:  opts.UserAgent,
		httpClient: opts.HTTPClient,
		cache:      cache,
		interval:   opts.RequestInterval,
	}, nil
}

// sectionResponse is the upstream envelope for one section.
type sectionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Result  struct {
		LawID      string `json:"lawId"`
		LocationID string `json:"locationId"`
		Title      string `json:"title"`
		Text       string `json:"text"`
		ActiveDate string `json:"activeDate"`
	} `json:"result"`
}

// locationsResponse is the upstream envelope for a law's section listing.
type locationsResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Result  struct {
		Items []struct {
			LocationID string `json:"locationId"`
			Title      string `json:"title"`
		} `json:"items"`
	} `json:"result"`
}

// GetSection fetches one section's text. Hits are served from the LRU
// cache without touching the network.
func (c *Client) GetSection(ctx context.Context, lawID, locationID string) (*Section, error) {
	key := lawID + "/" + locationID
	if cached, ok := c.cache.Get(key); ok {
		return cached, nil
	}

	var resp sectionResponse
	path := fmt.Sprintf("/api/laws/%s/%s", url.PathEscape(lawID), url.PathEscape(locationID))
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("fetch section %s: %s", key, resp.Message)
	}

	sec := &Section{
		LawID:      resp.Result.LawID,
		LocationID: resp.Result.LocationID,
		Title:      resp.Result.Title,
		Text:       StripTags(resp.Result.Text),
		ActiveDate: resp.Result.ActiveDate,
	}
	if sec.LawID == "" {
		sec.LawID = lawID
	}
	if sec.LocationID == "" {
		sec.LocationID = locationID
	}

	c.cache.Add(key, sec)
	return sec, nil
}

// ListLocations returns the location IDs of every section in a law, in
// document order.
func (c *Client) ListLocations(ctx context.Context, lawID string) ([]string, error) {
	var resp locationsResponse
	path := fmt.Sprintf("/api/laws/%s", url.PathEscape(lawID))
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("list law %s: %s", lawID, resp.Message)
	}

	ids := make([]string, 0, len(resp.Result.Items))
	for _, item := range resp.Result.Items {
		ids = append(ids, item.LocationID)
	}
	return ids, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	c.throttle(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if c.apiKey != "" {
		q := req.URL.Query()
		q.Set("key", c.apiKey)
		req.URL.RawQuery = q.Encode()
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &RetryableError{Err: fmt.Errorf("get %s: %w", path, err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return &RetryableError{Err: fmt.Errorf("read %s: %w", path, err)}
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return &RetryableError{Err: fmt.Errorf("get %s: status %d", path, resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("get %s: status %d: %s", path, resp.StatusCode, truncate(string(body), 200))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// throttle enforces the minimum interval between upstream requests across
// all goroutines sharing the client.
func (c *Client) throttle(ctx context.Context) {
	c.mu.Lock()
	wait := c.interval - time.Since(c.last)
	if wait > 0 {
		c.last = c.last.Add(c.interval)
	} else {
		c.last = time.Now()
	}
	c.mu.Unlock()

	if wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
		}
	}
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// RetryableError indicates a transient upstream failure worth retrying.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable: %v", e.Err)
}

func (e *RetryableError) Unwrap() error { return e.Err }

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
