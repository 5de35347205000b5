package weather

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	apperrors "github.com/logbook-ai/logbook/internal/errors"
)

// Capability selects what a lookup returns.
type Capability string

const (
	CapabilityCurrent  Capability = "current"
	CapabilityForecast Capability = "forecast"
)

// RemoteCaller invokes a tool on a remote tool server.
type RemoteCaller interface {
	Enabled() bool
	CallTool(ctx context.Context, name string, args map[string]any) (string, error)
}

// Provider is the direct weather data source.
type Provider interface {
	Geocode(ctx context.Context, name string) (*Place, error)
	Current(ctx context.Context, place *Place) (*Conditions, error)
	Hourly(ctx context.Context, place *Place) ([]Hour, error)
}

// RouterConfig maps capabilities to remote tool names.
type RouterConfig struct {
	CurrentTool  string
	ForecastTool string
}

// Router sends a lookup to the remote tool server when one is configured and
// to the direct provider otherwise.
type Router struct {
	cfg    RouterConfig
	remote RemoteCaller
	direct Provider
	log    zerolog.Logger
}

// NewRouter creates a weather router. remote may be nil.
func NewRouter(cfg RouterConfig, remote RemoteCaller, direct Provider, log zerolog.Logger) *Router {
	if cfg.CurrentTool == "" {
		cfg.CurrentTool = "current_weather"
	}
	if cfg.ForecastTool == "" {
		cfg.ForecastTool = "weather_forecast"
	}
	return &Router{
		cfg:    cfg,
		remote: remote,
		direct: direct,
		log:    log.With().Str("component", "weather").Logger(),
	}
}

// Lookup returns a human-readable answer for location.
func (r *Router) Lookup(ctx context.Context, location string, capability Capability) (string, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return "", apperrors.User(apperrors.CodeInvalidInput, "location is required")
	}

	if r.remote != nil && r.remote.Enabled() {
		tool, err := r.remoteTool(capability)
		if err != nil {
			return "", err
		}
		r.log.Debug().Str("tool", tool).Str("location", location).Msg("routing to remote tool server")
		return r.remote.CallTool(ctx, tool, map[string]any{"location": location})
	}

	if r.direct == nil {
		return "", apperrors.Config(apperrors.CodeUpstreamFailed, "no weather provider configured")
	}

	r.log.Debug().Str("location", location).Str("capability", string(capability)).Msg("routing to weather API")

	place, err := r.direct.Geocode(ctx, location)
	if err != nil {
		return "", err
	}

	switch capability {
	case CapabilityCurrent:
		cur, err := r.direct.Current(ctx, place)
		if err != nil {
			return "", err
		}
		return FormatCurrent(place, cur), nil
	case CapabilityForecast:
		hours, err := r.direct.Hourly(ctx, place)
		if err != nil {
			return "", err
		}
		return FormatForecast(place, hours), nil
	default:
		return "", unknownCapability(capability)
	}
}

func (r *Router) remoteTool(capability Capability) (string, error) {
	switch capability {
	case CapabilityCurrent:
		return r.cfg.CurrentTool, nil
	case CapabilityForecast:
		return r.cfg.ForecastTool, nil
	default:
		return "", unknownCapability(capability)
	}
}

func unknownCapability(c Capability) error {
	return apperrors.New(apperrors.CodeInvalidInput, fmt.Sprintf("unknown weather capability %q", c), apperrors.CategorySystem)
}
