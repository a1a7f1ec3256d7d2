package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"restaurantfinder/internal"
	"restaurantfinder/internal/config"
	"restaurantfinder/internal/util"
)

// Client queries a Nominatim compatible search endpoint.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *RateLimiter
}

type searchResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.GeocodeBaseURL, "/"),
		userAgent:  cfg.GeocodeUserAgent,
		httpClient: &http.Client{Timeout: time.Duration(cfg.GeocodeTimeoutMs) * time.Millisecond},
		limiter:    NewRateLimiter(time.Duration(cfg.GeocodeDelayMs) * time.Millisecond),
	}
}

// Search returns the first hit for query, or nil when there is none.
func (c *Client) Search(ctx context.Context, query string) (*internal.Coordinates, error) {
	if err := c.limiter.WaitTurn(ctx); err != nil {
		return nil, err
	}

	u, err := url.Parse(c.baseURL + "/search")
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("format", "json")
	q.Set("q", query)
	q.Set("limit", "1")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("geocode status %d", resp.StatusCode)
	}

	var results []searchResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("decode geocode response: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	lat, latOK := util.ParseFloatPrefix(results[0].Lat)
	lng, lngOK := util.ParseFloatPrefix(results[0].Lon)
	if !latOK || !lngOK {
		return nil, fmt.Errorf("unparsable coordinates %q,%q", results[0].Lat, results[0].Lon)
	}
	return &internal.Coordinates{Lat: lat, Lng: lng}, nil
}

// Query joins the non-empty address parts the way the search endpoint expects.
func Query(address, city, state string) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{address, city, state, "USA"} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
