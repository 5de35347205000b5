package executor

import (
	"context"
	"time"

	apperrors "github.com/logbook-ai/logbook/internal/errors"
	"github.com/logbook-ai/logbook/internal/weather"
)

// WeatherLookup answers weather questions for a location.
type WeatherLookup interface {
	Lookup(ctx context.Context, location string, capability weather.Capability) (string, error)
}

// CurrentWeather reports current conditions.
type CurrentWeather struct {
	Weather WeatherLookup
}

func (t *CurrentWeather) Name() string { return "current_weather" }

func (t *CurrentWeather) Description() string {
	return "Get the current weather for a location (metric units)"
}

func (t *CurrentWeather) Execute(ctx context.Context, input map[string]any) (*Result, error) {
	return lookupWeather(ctx, t.Weather, input, weather.CapabilityCurrent)
}

// WeatherForecast reports the next 24 hours.
type WeatherForecast struct {
	Weather WeatherLookup
}

func (t *WeatherForecast) Name() string { return "weather_forecast" }

func (t *WeatherForecast) Description() string {
	return "Get the hourly weather forecast for the next 24 hours at a location (metric units)"
}

func (t *WeatherForecast) Execute(ctx context.Context, input map[string]any) (*Result, error) {
	return lookupWeather(ctx, t.Weather, input, weather.CapabilityForecast)
}

func lookupWeather(ctx context.Context, w WeatherLookup, input map[string]any, capability weather.Capability) (*Result, error) {
	start := time.Now()

	location, ok := input["location"].(string)
	if !ok || location == "" {
		return TimedResult(NewErrorResult(apperrors.User(apperrors.CodeToolInvalidParams, "location is required")), start), nil
	}
	if w == nil {
		return TimedResult(NewErrorResult(apperrors.Config(apperrors.CodeToolExecutionFailed, "weather service not configured")), start), nil
	}

	text, err := w.Lookup(ctx, location, capability)
	if err != nil {
		return TimedResult(NewErrorResult(err), start), nil
	}
	return TimedResult(NewSuccessResult(text), start), nil
}
