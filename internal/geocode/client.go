// Package geocode provides a reverse-geocoding client for the Nominatim API.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/noline/locationd/internal/errors"
)

// PlaceholderAddress is returned by FormatAddress when the geocoder produced
// a result with no usable components.
const PlaceholderAddress = "Unknown location"

// Config holds the client configuration.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// Client calls the Nominatim reverse-geocoding endpoint.
type Client struct {
	client    *http.Client
	baseURL   string
	userAgent string
}

// NewClient creates a geocoding client.
func NewClient(config Config) *Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://nominatim.openstreetmap.org"
	}
	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = "noline-locationd/1.0"
	}

	return &Client{
		client:    &http.Client{Timeout: timeout},
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
	}
}

// nominatimResult mirrors the relevant fields of a Nominatim reverse response.
type nominatimResult struct {
	Lat         string           `json:"lat"`
	Lon         string           `json:"lon"`
	DisplayName string           `json:"display_name"`
	Address     nominatimAddress `json:"address"`
	Error       string           `json:"error,omitempty"`
}

type nominatimAddress struct {
	Road          string `json:"road,omitempty"`
	Pedestrian    string `json:"pedestrian,omitempty"`
	Suburb        string `json:"suburb,omitempty"`
	City          string `json:"city,omitempty"`
	Town          string `json:"town,omitempty"`
	Village       string `json:"village,omitempty"`
	Hamlet        string `json:"hamlet,omitempty"`
	Municipality  string `json:"municipality,omitempty"`
	County        string `json:"county,omitempty"`
	StateDistrict string `json:"state_district,omitempty"`
	State         string `json:"state,omitempty"`
	Region        string `json:"region,omitempty"`
	Country       string `json:"country,omitempty"`
}

// Address is the decomposed reverse-geocoding result.
type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
	Region string `json:"region"`
}

// Reverse resolves coordinates to address components. A position the
// geocoder does not know returns (nil, nil).
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (*Address, error) {
	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%f", lat))
	params.Set("lon", fmt.Sprintf("%f", lon))
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("zoom", "18") // Street level
	params.Set("accept-language", "en")

	var result nominatimResult
	if err := c.doRequest(ctx, "reverse", params, &result); err != nil {
		return nil, apperrors.NewGeocoderError(err)
	}

	// Nominatim reports "Unable to geocode" inside a 200 response.
	if result.Error != "" {
		return nil, nil
	}

	addr := &Address{
		Street: firstNonEmpty(result.Address.Road, result.Address.Pedestrian),
		City: firstNonEmpty(result.Address.City, result.Address.Town,
			result.Address.Village, result.Address.Hamlet,
			result.Address.Municipality),
		Region: firstNonEmpty(result.Address.State, result.Address.Region,
			result.Address.StateDistrict, result.Address.County),
	}
	return addr, nil
}

func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values, v interface{}) error {
	u := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("nominatim API error: %s", resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(v)
}

// FormatAddress renders an address as "street, city, region", skipping empty
// components. An address with no components formats as the placeholder.
func FormatAddress(a *Address) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{a.Street, a.City, a.Region} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return PlaceholderAddress
	}
	return strings.Join(parts, ", ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
