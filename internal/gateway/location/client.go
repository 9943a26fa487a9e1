package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/jihyuk/escapemap-cli/internal/domain"
)

const defaultGeocodeURL = "http://localhost:3000/api/geocode"

var (
	// ErrLocationLookup is returned when geocoding fails.
	ErrLocationLookup = errors.New("error when trying to get location")
	// ErrAddressNotFound is returned when the geocoder has no match for the address.
	ErrAddressNotFound = errors.New("no location found for address")
)

// Geocoder resolves free-text addresses to coordinates.
type Geocoder interface {
	Get(ctx context.Context, address string) (domain.Location, error)
}

// Client resolves addresses through the geocoding endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBaseURL overrides the geocoding endpoint URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

type geocodeResult struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// NewClient creates a location client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    defaultGeocodeURL,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Get resolves an address to coordinates. A 404 from the geocoder means the
// address has no match and maps to ErrAddressNotFound.
func (c *Client) Get(ctx context.Context, address string) (domain.Location, error) {
	query := url.Values{}
	query.Set("address", address)
	uri := c.baseURL + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return domain.Location{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Location{}, fmt.Errorf("%w: %v", ErrLocationLookup, err)
	}
	defer func() {
		_ = res.Body.Close()
	}()
	if res.StatusCode == http.StatusNotFound {
		return domain.Location{}, ErrAddressNotFound
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return domain.Location{}, ErrLocationLookup
	}

	var payload geocodeResult
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return domain.Location{}, fmt.Errorf("%w: %v", ErrLocationLookup, err)
	}
	result := domain.Location{Lat: payload.Lat, Lng: payload.Lng}
	if !result.Valid() {
		return domain.Location{}, fmt.Errorf("%w: coordinates out of range", ErrLocationLookup)
	}
	return result, nil
}
