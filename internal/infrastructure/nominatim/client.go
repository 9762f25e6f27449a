// Package nominatim is a reverse-geocoding client for the OpenStreetMap
// Nominatim API.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aidbridge-api/internal/domain"
	"github.com/aidbridge-api/internal/pkg/geo"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// cachePrecision is the number of decimals coordinates are rounded to before
// the cache lookup (about one metre).
const cachePrecision = 5

// Lookup outcomes reported to the observer.
const (
	OutcomeHit   = "cache_hit"
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// Client resolves coordinates to a display address. It is safe for
// concurrent use; outbound calls share one rate limiter.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
	cache      *lru.Cache[string, string]
	observe    func(outcome string)
}

type Option func(*Client)

// WithObserver reports the outcome of every Reverse call.
func WithObserver(fn func(outcome string)) Option {
	return func(c *Client) { c.observe = fn }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func New(baseURL, userAgent string, rps float64, timeout time.Duration, cacheSize int, opts ...Option) (*Client, error) {
	if cacheSize <= 0 {
		cacheSize = 1024
	}
	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("geocode cache: %w", err)
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		limiter:    rate.NewLimiter(limit, 1),
		cache:      cache,
		observe:    func(string) {},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Reverse returns the display name of the place at lat/lng.
func (c *Client) Reverse(ctx context.Context, lat, lng float64) (string, error) {
	key := cacheKey(lat, lng)
	if addr, ok := c.cache.Get(key); ok {
		c.observe(OutcomeHit)
		return addr, nil
	}
	addr, err := c.fetch(ctx, lat, lng)
	if err != nil {
		c.observe(OutcomeError)
		return "", err
	}
	c.cache.Add(key, addr)
	c.observe(OutcomeOK)
	return addr, nil
}

func (c *Client) fetch(ctx context.Context, lat, lng float64) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("geocode throttled: %w: %w", domain.ErrNetwork, err)
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("geocode request: %w: %w", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geocode status %d: %w", resp.StatusCode, domain.ErrNetwork)
	}

	var body reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode geocode response: %w: %w", domain.ErrNetwork, err)
	}
	if body.DisplayName == "" {
		return "", fmt.Errorf("no address for %s: %w", geo.FormatCoordinates(lat, lng), domain.ErrNotFound)
	}
	return body.DisplayName, nil
}

func cacheKey(lat, lng float64) string {
	return geo.FormatCoordinates(geo.Round(lat, cachePrecision), geo.Round(lng, cachePrecision))
}
