// Package geo resolves facility locations through an external lookup
// service. Lookup failure is routine out on the network, so every path
// degrades to a fixed fallback location instead of an error.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Geocoder turns a free-form place description into coordinates.
type Geocoder interface {
	Locate(ctx context.Context, query string) Location
}

// Location is the lookup result. Lat/Lng are always set; the rest is
// best-effort metadata from the provider.
type Location struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
	MapURL  string  `json:"map_url,omitempty"`
	Snippet string  `json:"snippet,omitempty"`
}

// DefaultLocation is returned whenever lookup fails: offshore Campos
// Basin, where most of the seeded installations operate.
var DefaultLocation = Location{
	Lat:     -22.5,
	Lng:     -40.5,
	Address: "Campos Basin (approximate)",
}

// Client is an HTTP Geocoder.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a Client for the given lookup endpoint. An empty
// baseURL yields a client that always falls back.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type lookupResponse struct {
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
	Address string   `json:"address"`
	MapURL  string   `json:"map_url"`
	Snippet string   `json:"snippet"`
}

// Locate queries the lookup service. Transport errors, non-200
// statuses, malformed bodies and missing coordinates all return
// DefaultLocation; facility creation never blocks on geocoding.
func (c *Client) Locate(ctx context.Context, query string) Location {
	query = strings.TrimSpace(query)
	if c.baseURL == "" || query == "" {
		return DefaultLocation
	}

	endpoint := fmt.Sprintf("%s/lookup?q=%s", c.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return DefaultLocation
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return DefaultLocation
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return DefaultLocation
	}

	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return DefaultLocation
	}
	if body.Lat == nil || body.Lng == nil {
		return DefaultLocation
	}
	return Location{
		Lat:     *body.Lat,
		Lng:     *body.Lng,
		Address: body.Address,
		MapURL:  body.MapURL,
		Snippet: body.Snippet,
	}
}
