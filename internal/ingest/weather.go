package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/lox/weatherwidget/internal/httputil"
	"github.com/lox/weatherwidget/internal/metrics"
	"github.com/lox/weatherwidget/internal/models"
)

const (
	DefaultWeatherURL  = "https://weather-by-api-ninjas.p.rapidapi.com/v1/weather"
	DefaultWeatherHost = "weather-by-api-ninjas.p.rapidapi.com"
)

var errNoAPIKey = errors.New("weather api key is not configured")

// WeatherClient queries the RapidAPI weather-by-coordinates endpoint.
type WeatherClient struct {
	apiKey  string
	host    string
	baseURL string
	client  *http.Client
}

// NewWeatherClient builds a client. apiKey must come from configuration.
func NewWeatherClient(client *http.Client, apiKey, host, baseURL string) *WeatherClient {
	if host == "" {
		host = DefaultWeatherHost
	}
	if baseURL == "" {
		baseURL = DefaultWeatherURL
	}
	return &WeatherClient{
		apiKey:  apiKey,
		host:    host,
		baseURL: baseURL,
		client:  client,
	}
}

// Current fetches conditions at pos. It returns the decoded snapshot and the raw
// response body, which callers cache verbatim.
func (w *WeatherClient) Current(ctx context.Context, pos models.Position) (_ models.WeatherSnapshot, _ []byte, err error) {
	defer observe("weather", time.Now(), &err)

	if w.apiKey == "" {
		return models.WeatherSnapshot{}, nil, errNoAPIKey
	}

	q := url.Values{}
	q.Set("lat", formatCoord(pos.Latitude))
	q.Set("lon", formatCoord(pos.Longitude))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return models.WeatherSnapshot{}, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("x-rapidapi-key", w.apiKey)
	req.Header.Set("x-rapidapi-host", w.host)
	req.Header.Set("Accept", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return models.WeatherSnapshot{}, nil, fmt.Errorf("fetch weather: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus(resp); err != nil {
		return models.WeatherSnapshot{}, nil, fmt.Errorf("fetch weather: %w", err)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.WeatherSnapshot{}, nil, fmt.Errorf("read body: %w", err)
	}

	snap, err := ParseWeather(body)
	if err != nil {
		return models.WeatherSnapshot{}, nil, err
	}
	return snap, body, nil
}

// ParseWeather decodes a weather response body. The body must be a JSON object
// carrying a temp field.
func ParseWeather(body []byte) (models.WeatherSnapshot, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		return models.WeatherSnapshot{}, fmt.Errorf("unmarshal weather: %w", err)
	}
	if _, ok := probe["temp"]; !ok {
		return models.WeatherSnapshot{}, errors.New("weather response has no temp")
	}

	var snap models.WeatherSnapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return models.WeatherSnapshot{}, fmt.Errorf("unmarshal weather: %w", err)
	}
	return snap, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// observe records call count and latency for an upstream source.
func observe(source string, start time.Time, errp *error) {
	status := "ok"
	if errp != nil && *errp != nil {
		status = "error"
		if errors.Is(*errp, context.Canceled) {
			status = "canceled"
		}
	}
	metrics.UpstreamCallsTotal.WithLabelValues(source, status).Inc()
	metrics.UpstreamLatency.WithLabelValues(source).Observe(time.Since(start).Seconds())
}
