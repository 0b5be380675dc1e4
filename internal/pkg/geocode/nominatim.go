package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/ops-portal/internal/pkg/geo"
)

// Client talks to a Nominatim-compatible reverse geocoding endpoint.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

type reverseResult struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
	Address     struct {
		City         string `json:"city"`
		Town         string `json:"town"`
		Village      string `json:"village"`
		Municipality string `json:"municipality"`
		County       string `json:"county"`
	} `json:"address"`
}

func New(baseURL, userAgent string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Reverse resolves c to an address and city. Empty fields mean the provider
// had nothing for them.
func (c *Client) Reverse(ctx context.Context, coords geo.Coordinates) (geo.Place, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(coords.Latitude, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(coords.Longitude, 'f', 6, 64))
	q.Set("zoom", "18")
	q.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return geo.Place{}, err
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return geo.Place{}, fmt.Errorf("reverse geocode: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return geo.Place{}, fmt.Errorf("reverse geocode error %d: %s", resp.StatusCode, string(body))
	}

	var result reverseResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return geo.Place{}, fmt.Errorf("decode reverse geocode response: %w", err)
	}
	if result.Error != "" {
		return geo.Place{}, fmt.Errorf("reverse geocode: %s", result.Error)
	}

	return geo.Place{
		Address: result.DisplayName,
		City:    firstNonEmpty(result.Address.City, result.Address.Town, result.Address.Village, result.Address.Municipality, result.Address.County),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
