// Package weather fetches temperature forecasts and classifies them into
// catalog seasons. It is a collaborator of the recommendation core: the only
// externally fallible operation in the system, so failures propagate to the
// request boundary instead of being substituted.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/attire/internal/domain"
	"github.com/kailas-cloud/attire/internal/metrics"
)

// Provider returns a forecast for a coordinate pair.
type Provider interface {
	Forecast(ctx context.Context, lat, lng float64) (Forecast, error)
}

// Forecast holds the daily temperature window for a location.
type Forecast struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Elevation float64   `json:"elevation"`
	DailyMax  []float64 `json:"daily_max"`
	DailyMin  []float64 `json:"daily_min"`
}

// OnLand reports whether the forecast grid cell is on land. Open-Meteo
// resolves ocean coordinates to sea-level grid cells, so a non-positive
// elevation marks open water.
func (f Forecast) OnLand() bool {
	return f.Elevation > 0
}

// ClientConfig holds the forecast provider settings.
type ClientConfig struct {
	BaseURL      string
	ForecastDays int
	Timezone     string
	Timeout      time.Duration
}

// Client calls the Open-Meteo forecast API behind a circuit breaker.
type Client struct {
	cfg     ClientConfig
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[Forecast]
	logger  *zap.Logger
}

var _ Provider = (*Client)(nil)

// NewClient creates an Open-Meteo client.
func NewClient(cfg ClientConfig, logger *zap.Logger) *Client {
	breaker := gobreaker.NewCircuitBreaker[Forecast](gobreaker.Settings{
		Name:    "open-meteo",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Forecast breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
		logger:  logger,
	}
}

// Forecast fetches the daily min/max temperature forecast for a coordinate.
func (c *Client) Forecast(ctx context.Context, lat, lng float64) (Forecast, error) {
	fc, err := c.breaker.Execute(func() (Forecast, error) {
		return c.fetch(ctx, lat, lng)
	})
	if err != nil {
		metrics.WeatherRequestsTotal.WithLabelValues("error").Inc()
		return Forecast{}, fmt.Errorf("%w: %w", domain.ErrWeatherUnavailable, err)
	}
	metrics.WeatherRequestsTotal.WithLabelValues("ok").Inc()
	return fc, nil
}

// openMeteoResponse mirrors the subset of the provider payload we consume.
type openMeteoResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Elevation float64 `json:"elevation"`
	Daily     struct {
		TemperatureMax []float64 `json:"temperature_2m_max"`
		TemperatureMin []float64 `json:"temperature_2m_min"`
	} `json:"daily"`
}

func (c *Client) fetch(ctx context.Context, lat, lng float64) (Forecast, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(lng, 'f', -1, 64))
	params.Set("daily", "temperature_2m_max,temperature_2m_min")
	params.Set("forecast_days", strconv.Itoa(c.cfg.ForecastDays))
	params.Set("timezone", c.cfg.Timezone)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Forecast{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Forecast{}, fmt.Errorf("forecast request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Forecast{}, fmt.Errorf("forecast request: unexpected status %d", resp.StatusCode)
	}

	var payload openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Forecast{}, fmt.Errorf("decode forecast: %w", err)
	}

	return Forecast{
		Latitude:  payload.Latitude,
		Longitude: payload.Longitude,
		Elevation: payload.Elevation,
		DailyMax:  payload.Daily.TemperatureMax,
		DailyMin:  payload.Daily.TemperatureMin,
	}, nil
}
