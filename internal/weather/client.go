// Package weather looks up current conditions and hourly forecasts.
//
// Lookups go either to a remote tool server or straight to the Open-Meteo
// HTTP API; Router picks the path.
package weather

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

	"github.com/rs/zerolog"

	apperrors "github.com/logbook-ai/logbook/internal/errors"
)

const (
	DefaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"
	DefaultForecastURL  = "https://api.open-meteo.com/v1/forecast"

	// ForecastHours is the length of the hourly series.
	ForecastHours = 24
)

// Config configures the Open-Meteo client.
type Config struct {
	GeocodingURL string
	ForecastURL  string
	Timeout      time.Duration
}

// Place is a geocoded location.
type Place struct {
	Name      string  `json:"name"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// DisplayName renders "City, Country", or just the city when the country is unknown.
func (p *Place) DisplayName() string {
	if p.Country == "" {
		return p.Name
	}
	return p.Name + ", " + p.Country
}

// Conditions are the instantaneous readings for a place.
type Conditions struct {
	Time        string
	Temperature *float64
	WindSpeed   *float64
	WeatherCode *int
}

// Hour is one row of the hourly series.
type Hour struct {
	Time        string
	Temperature *float64
	WindSpeed   *float64
	WeatherCode *int
	// PrecipProbability is the chance of precipitation in percent.
	PrecipProbability *int
}

// Client talks to the Open-Meteo geocoding and forecast APIs.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates an Open-Meteo client.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.GeocodingURL == "" {
		cfg.GeocodingURL = DefaultGeocodingURL
	}
	if cfg.ForecastURL == "" {
		cfg.ForecastURL = DefaultForecastURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log.With().Str("component", "open-meteo").Logger(),
	}
}

// Geocode resolves a place name. The first match wins.
func (c *Client) Geocode(ctx context.Context, name string) (*Place, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.User(apperrors.CodeInvalidInput, "location is required")
	}

	q := url.Values{}
	q.Set("name", name)
	q.Set("count", "1")
	q.Set("language", "en")
	q.Set("format", "json")

	var payload struct {
		Results []Place `json:"results"`
	}
	if err := c.getJSON(ctx, c.cfg.GeocodingURL, q, &payload); err != nil {
		return nil, err
	}
	if len(payload.Results) == 0 {
		return nil, apperrors.User(apperrors.CodeLocationNotFound, "location not found: "+name)
	}

	place := payload.Results[0]
	if place.Name == "" {
		place.Name = name
	}
	return &place, nil
}

// Current fetches the current conditions at place.
func (c *Client) Current(ctx context.Context, place *Place) (*Conditions, error) {
	q := c.coordinates(place)
	q.Set("current", "temperature_2m,wind_speed_10m,weather_code")

	var payload struct {
		Current struct {
			Time          string   `json:"time"`
			Temperature2m *float64 `json:"temperature_2m"`
			WindSpeed10m  *float64 `json:"wind_speed_10m"`
			WeatherCode   *int     `json:"weather_code"`
		} `json:"current"`
	}
	if err := c.getJSON(ctx, c.cfg.ForecastURL, q, &payload); err != nil {
		return nil, err
	}

	cur := payload.Current
	if cur.Temperature2m == nil || cur.WindSpeed10m == nil {
		return nil, apperrors.External(apperrors.CodeUpstreamFailed, "weather data unavailable for the requested location")
	}
	return &Conditions{
		Time:        cur.Time,
		Temperature: cur.Temperature2m,
		WindSpeed:   cur.WindSpeed10m,
		WeatherCode: cur.WeatherCode,
	}, nil
}

// Hourly fetches the next ForecastHours hours at place.
func (c *Client) Hourly(ctx context.Context, place *Place) ([]Hour, error) {
	q := c.coordinates(place)
	q.Set("hourly", "temperature_2m,wind_speed_10m,weather_code,precipitation_probability")
	q.Set("forecast_hours", strconv.Itoa(ForecastHours))

	var payload struct {
		Hourly struct {
			Time          []string   `json:"time"`
			Temperature2m []*float64 `json:"temperature_2m"`
			WindSpeed10m  []*float64 `json:"wind_speed_10m"`
			WeatherCode   []*int     `json:"weather_code"`
			Precipitation []*int     `json:"precipitation_probability"`
		} `json:"hourly"`
	}
	if err := c.getJSON(ctx, c.cfg.ForecastURL, q, &payload); err != nil {
		return nil, err
	}

	series := payload.Hourly
	if len(series.Time) == 0 {
		return nil, apperrors.External(apperrors.CodeUpstreamFailed, "forecast data unavailable for the requested location")
	}

	hours := make([]Hour, 0, min(len(series.Time), ForecastHours))
	for i, ts := range series.Time {
		if i >= ForecastHours {
			break
		}
		hours = append(hours, Hour{
			Time:              ts,
			Temperature:       at(series.Temperature2m, i),
			WindSpeed:         at(series.WindSpeed10m, i),
			WeatherCode:       at(series.WeatherCode, i),
			PrecipProbability: at(series.Precipitation, i),
		})
	}
	return hours, nil
}

func (c *Client) coordinates(place *Place) url.Values {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(place.Latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(place.Longitude, 'f', -1, 64))
	q.Set("wind_speed_unit", "ms")
	q.Set("timezone", "auto")
	return q
}

func (c *Client) getJSON(ctx context.Context, endpoint string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeUpstreamFailed, "failed to build weather request", apperrors.CategorySystem)
	}
	req.Header.Set("Accept", "application/json")

	c.log.Debug().Str("url", req.URL.String()).Msg("weather request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeUpstreamFailed, "weather service unreachable", apperrors.CategoryExternal)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeUpstreamFailed, "failed to read weather response", apperrors.CategoryExternal)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Reason string `json:"reason"`
		}
		_ = json.Unmarshal(body, &apiErr)
		msg := fmt.Sprintf("weather service returned status %d", resp.StatusCode)
		if apiErr.Reason != "" {
			msg += ": " + apiErr.Reason
		}
		return apperrors.External(apperrors.CodeUpstreamFailed, msg)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return apperrors.Wrap(err, apperrors.CodeUpstreamFailed, "failed to decode weather response", apperrors.CategoryExternal)
	}
	return nil
}

func at[T any](values []*T, i int) *T {
	if i < len(values) {
		return values[i]
	}
	return nil
}
