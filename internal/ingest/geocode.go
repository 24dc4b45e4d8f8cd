package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/lox/weatherwidget/internal/httputil"
	"github.com/lox/weatherwidget/internal/models"
)

const DefaultGeocodeURL = "https://nominatim.openstreetmap.org/reverse"

// Geocoder turns coordinates into a locality via Nominatim reverse lookup.
type Geocoder struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

func NewGeocoder(client *http.Client, baseURL, userAgent string) *Geocoder {
	if baseURL == "" {
		baseURL = DefaultGeocodeURL
	}
	if userAgent == "" {
		userAgent = "WeatherWidget/1.0"
	}
	return &Geocoder{
		baseURL:   baseURL,
		userAgent: userAgent,
		client:    client,
	}
}

// Reverse looks up pos. It returns the decoded address and the raw JSON of the
// address object, which callers cache verbatim.
func (g *Geocoder) Reverse(ctx context.Context, pos models.Position) (_ models.Address, _ []byte, err error) {
	defer observe("geocode", time.Now(), &err)

	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", formatCoord(pos.Latitude))
	q.Set("lon", formatCoord(pos.Longitude))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("reverse geocode: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus(resp); err != nil {
		return nil, nil, fmt.Errorf("reverse geocode: %w", err)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read body: %w", err)
	}
	return ParseReverse(body)
}

// ParseReverse extracts the address object from a reverse geocoding response.
func ParseReverse(body []byte) (models.Address, []byte, error) {
	var payload struct {
		Address json.RawMessage `json:"address"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, nil, fmt.Errorf("unmarshal reverse: %w", err)
	}
	if payload.Error != "" {
		return nil, nil, fmt.Errorf("reverse geocode: %s", payload.Error)
	}
	if len(payload.Address) == 0 || string(payload.Address) == "null" {
		return nil, nil, errors.New("reverse geocode: response has no address")
	}

	addr, err := ParseAddress(payload.Address)
	if err != nil {
		return nil, nil, err
	}
	return addr, payload.Address, nil
}

// ParseAddress decodes a cached or fetched address object.
func ParseAddress(raw []byte) (models.Address, error) {
	var addr models.Address
	if err := json.Unmarshal(raw, &addr); err != nil {
		return nil, fmt.Errorf("unmarshal address: %w", err)
	}
	return addr, nil
}
