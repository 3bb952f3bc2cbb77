package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// DefaultIPInfoURL is the public ipinfo.io endpoint.
const DefaultIPInfoURL = "https://ipinfo.io"

// ErrLookupDisabled is returned when no API token is configured.
var ErrLookupDisabled = errors.New("geolocation lookup disabled")

// Location is what the geolocation service knows about an address.
type Location struct {
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"`
	Bogon   bool   `json:"bogon"` // private or reserved address
}

// String joins the non-empty parts as "City, Region, Country".
func (l Location) String() string {
	parts := make([]string, 0, 3)

	for _, part := range []string{l.City, l.Region, l.Country} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}

	return strings.Join(parts, ", ")
}

// Lookup resolves a single IP address.
type Lookup interface {
	Lookup(ctx context.Context, ip string) (Location, error)
}

// IPInfoClient queries ipinfo.io with a bearer token.
type IPInfoClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewIPInfoClient creates a client. An empty token disables lookups.
func NewIPInfoClient(baseURL, token string, client *http.Client) *IPInfoClient {
	return &IPInfoClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  client,
	}
}

func (c *IPInfoClient) Lookup(ctx context.Context, ip string) (Location, error) {
	if c.token == "" {
		return Location{}, ErrLookupDisabled
	}

	endpoint := c.baseURL + "/" + url.PathEscape(ip) + "/json"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Location{}, fmt.Errorf("build ipinfo request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Location{}, fmt.Errorf("ipinfo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Location{}, fmt.Errorf("ipinfo returned status %d", resp.StatusCode)
	}

	var location Location
	if err = json.NewDecoder(resp.Body).Decode(&location); err != nil {
		return Location{}, fmt.Errorf("decode ipinfo response: %w", err)
	}

	return location, nil
}
