package cmd

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/logbook-ai/logbook/internal/agent"
	"github.com/logbook-ai/logbook/internal/config"
	"github.com/logbook-ai/logbook/internal/model"
	"github.com/logbook-ai/logbook/internal/prompt"
	"github.com/logbook-ai/logbook/internal/remote"
	"github.com/logbook-ai/logbook/internal/stats"
	"github.com/logbook-ai/logbook/internal/stocks"
	"github.com/logbook-ai/logbook/internal/tools"
	"github.com/logbook-ai/logbook/internal/transcribe"
	"github.com/logbook-ai/logbook/internal/weather"
)

// runtime is everything one process needs to answer prompts.
type runtime struct {
	backend  model.Backend
	remote   *remote.Client
	registry *tools.Registry
	agent    *agent.Agent
}

func newRuntime(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*runtime, error) {
	backend, err := model.New(ctx, &model.RouterConfig{
		Provider:      cfg.Models.Provider,
		Model:         cfg.Models.Model,
		OllamaBaseURL: cfg.Models.Ollama.BaseURL,
		OllamaTimeout: time.Duration(cfg.Models.Ollama.TimeoutSeconds) * time.Second,
		Region:        cfg.Models.Bedrock.Region,
	})
	if err != nil {
		return nil, err
	}

	rc := newRemoteClient(cfg, log)
	registry := newToolRegistry(cfg, backend, rc, log)

	builder := prompt.NewBuilder(prompt.Mode(cfg.Agent.PromptMode))
	builder.Timezone = cfg.Agent.Timezone
	if cfg.Agent.SystemPrompt != "" {
		builder.Identity = cfg.Agent.SystemPrompt
	}

	a := agent.New(&agent.Config{
		Backend:       backend,
		Tools:         registry,
		PromptBuilder: builder,
		MaxToolRounds: cfg.Agent.MaxToolRounds,
		Stats:         stats.NewCollector(),
		Logger:        log,
	})

	log.Debug().
		Str("backend", backend.Name()).
		Bool("local", backend.IsLocal()).
		Bool("remote_tools", cfg.IsRemoteEnabled()).
		Str("prompt_mode", string(builder.Mode)).
		Msg("runtime ready")

	return &runtime{backend: backend, remote: rc, registry: registry, agent: a}, nil
}

func newRemoteClient(cfg *config.Config, log zerolog.Logger) *remote.Client {
	return remote.NewClient(remote.Config{
		ServerURL: cfg.Remote.ServerURL,
		Timeout:   cfg.RemoteTimeout(),
		Name:      "logbook",
		Version:   Version,
	}, log)
}

// newToolRegistry wires the built-in tools to their services. backend may be
// nil when the registry is only listed, never run.
func newToolRegistry(cfg *config.Config, backend model.Backend, rc *remote.Client, log zerolog.Logger) *tools.Registry {
	direct := weather.NewClient(weather.Config{
		GeocodingURL: cfg.Services.GeocodingURL,
		ForecastURL:  cfg.Services.ForecastURL,
		Timeout:      cfg.ServiceTimeout(),
	}, log)
	router := weather.NewRouter(weather.RouterConfig{
		CurrentTool:  cfg.Remote.CurrentWeatherTool,
		ForecastTool: cfg.Remote.WeatherForecastTool,
	}, rc, direct, log)

	quotes := stocks.NewClient(stocks.Config{
		BaseURL: cfg.Services.QuoteURL,
		Timeout: cfg.ServiceTimeout(),
	}, log)

	svc := tools.Services{Weather: router, Quotes: quotes}
	if backend != nil {
		stt := transcribe.NewWhisperClient(transcribe.WhisperConfig{
			BaseURL:   cfg.Transcribe.WhisperBaseURL,
			ModelSize: cfg.Transcribe.ModelSize,
		}, log)
		svc.Transcriber = transcribe.NewPipeline(transcribe.Options{
			Backend:      backend,
			CleanupModel: cfg.MarkdownModel(),
			STT:          stt,
			DiaryDir:     cfg.Transcribe.DiaryDir,
		}, log)
	}

	registry := tools.NewRegistry(log)
	registry.Initialize(svc)
	return registry
}
