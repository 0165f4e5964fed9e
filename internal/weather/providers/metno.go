package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sony/gobreaker"

	"github.com/i474232898/hyperweather/internal/weather"
)

const (
	MetNoBaseURL          = "https://api.met.no/weatherapi/locationforecast/2.0/compact"
	defaultMetNoUserAgent = "hyperweather/1.0 github.com/i474232898/hyperweather"
)

// MetNoProvider implements weather.Provider for the met.no Locationforecast API.
type MetNoProvider struct {
	name      string
	baseURL   string
	userAgent string
	httpCfg   HTTPClientConfig
	circuit   *gobreaker.CircuitBreaker
}

// NewMetNoProvider creates the provider. met.no rejects requests without an
// identifying User-Agent, so an empty one falls back to a default.
func NewMetNoProvider(client *http.Client, baseURL, userAgent string) *MetNoProvider {
	if baseURL == "" {
		baseURL = MetNoBaseURL
	}
	if userAgent == "" {
		userAgent = defaultMetNoUserAgent
	}

	return &MetNoProvider{
		name:      "metno",
		baseURL:   baseURL,
		userAgent: userAgent,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: DefaultBackoff,
		},
		circuit: newBreaker("metno"),
	}
}

func (p *MetNoProvider) Name() string {
	return p.name
}

// FetchSeries returns the provider timeseries in the order met.no emits it,
// which is ascending by time.
func (p *MetNoProvider) FetchSeries(ctx context.Context, loc weather.Location) ([]weather.Instant, error) {
	buildRequest := func(ctx context.Context) (*http.Request, error) {
		// met.no asks for at most four decimals
		values := url.Values{}
		values.Set("lat", strconv.FormatFloat(loc.Lat, 'f', 4, 64))
		values.Set("lon", strconv.FormatFloat(loc.Lon, 'f', 4, 64))

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+values.Encode(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", p.userAgent)
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Properties struct {
			Timeseries []weather.Instant `json:"timeseries"`
		} `json:"properties"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode locationforecast: %w", err)
	}

	return payload.Properties.Timeseries, nil
}
