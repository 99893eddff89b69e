// Package geo wraps a Nominatim-compatible geocoding provider. Results are
// display-only; nothing in the item lifecycle depends on them. Responses
// are cached in an LRU with a per-entry TTL so repeated lookups of the
// same label don't hit the provider.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

const cacheSize = 512

// Location is a resolved place.
type Location struct {
	Label string  `json:"label"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
}

// Client is a geocoding client with caching.
type Client struct {
	baseURL string
	httpc   *http.Client
	cache   *lru.Cache
	ttl     time.Duration

	// now is replaceable in tests.
	now func() time.Time
}

type cacheEntry struct {
	loc     *Location
	expires time.Time
}

// NewClient creates a geocoding client against a Nominatim-compatible base
// URL. Cached entries expire after ttl.
func NewClient(baseURL string, ttl time.Duration) *Client {
	cache, _ := lru.New(cacheSize)
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 10 * time.Second},
		cache:   cache,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Forward resolves a free-form query to a location.
func (c *Client) Forward(ctx context.Context, query string) (*Location, error) {
	key := "f:" + query
	if loc, ok := c.cached(key); ok {
		return loc, nil
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")

	var results []nominatimResult
	if err := c.get(ctx, "/search", params, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no results for %q", query)
	}

	loc, err := results[0].location()
	if err != nil {
		return nil, err
	}
	c.put(key, loc)
	return loc, nil
}

// Reverse resolves coordinates to a display label.
func (c *Client) Reverse(ctx context.Context, lat, lng float64) (*Location, error) {
	key := fmt.Sprintf("r:%.5f,%.5f", lat, lng)
	if loc, ok := c.cached(key); ok {
		return loc, nil
	}

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	params.Set("format", "json")

	var result nominatimResult
	if err := c.get(ctx, "/reverse", params, &result); err != nil {
		return nil, err
	}

	loc, err := result.location()
	if err != nil {
		return nil, err
	}
	c.put(key, loc)
	return loc, nil
}

func (c *Client) cached(key string) (*Location, bool) {
	v, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	entry := v.(cacheEntry)
	if c.now().After(entry.expires) {
		c.cache.Remove(key)
		return nil, false
	}
	return entry.loc, true
}

func (c *Client) put(key string, loc *Location) {
	c.cache.Add(key, cacheEntry{loc: loc, expires: c.now().Add(c.ttl)})
}

func (c *Client) get(ctx context.Context, path string, params url.Values, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("building geocode request: %w", err)
	}
	req.Header.Set("User-Agent", "podari/1.0")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("geocode provider returned %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decoding geocode response: %w", err)
	}
	return nil
}

// nominatimResult mirrors the provider's JSON; coordinates arrive as strings.
type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (r nominatimResult) location() (*Location, error) {
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing latitude %q: %w", r.Lat, err)
	}
	lng, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing longitude %q: %w", r.Lon, err)
	}
	return &Location{Label: r.DisplayName, Lat: lat, Lng: lng}, nil
}
