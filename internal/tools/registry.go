// Package tools provides a unified tool registry with schemas and executors.
package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/logbook-ai/logbook/internal/errors"
	"github.com/logbook-ai/logbook/internal/model"
	"github.com/logbook-ai/logbook/internal/prompt"
	"github.com/logbook-ai/logbook/internal/tools/executor"
	"github.com/logbook-ai/logbook/internal/tools/schemas"
)

// Registry combines schemas and executors for complete tool management.
type Registry struct {
	schemas   *schemas.Registry
	executors *executor.Registry
	log       zerolog.Logger
}

// NewRegistry creates a new unified tool registry.
func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{
		schemas:   schemas.NewRegistry(),
		executors: executor.NewRegistry(),
		log:       log.With().Str("component", "tools").Logger(),
	}
}

// Schemas returns the schema registry.
func (r *Registry) Schemas() *schemas.Registry {
	return r.schemas
}

// Register registers both a schema and executor for a tool.
func (r *Registry) Register(tool executor.Tool, schema *schemas.Schema) {
	if tool.Name() != schema.Name {
		panic(fmt.Sprintf("tools: executor %q registered with schema %q", tool.Name(), schema.Name))
	}
	r.schemas.Register(schema)
	r.executors.Register(tool)
}

// Freeze makes the registry read-only.
func (r *Registry) Freeze() {
	r.schemas.Freeze()
	r.executors.Freeze()
}

// Specs returns the tool specs in the form backends consume.
func (r *Registry) Specs() []model.Tool {
	all := r.schemas.All()
	out := make([]model.Tool, 0, len(all))
	for _, s := range all {
		out = append(out, model.Tool{Name: s.Name, Description: s.Description, Parameters: s.Parameters})
	}
	return out
}

// PromptLines lists the tools for the system prompt.
func (r *Registry) PromptLines() []prompt.ToolLine {
	all := r.schemas.All()
	out := make([]prompt.ToolLine, 0, len(all))
	for _, s := range all {
		out = append(out, prompt.ToolLine{Name: s.Name, Description: s.Description})
	}
	return out
}

// ToOpenAIFormat returns all schemas in OpenAI function calling format.
func (r *Registry) ToOpenAIFormat() []map[string]interface{} {
	return r.schemas.ToOpenAIFormat()
}

// Run executes one tool call. It never returns an error and never panics:
// an unknown name, invalid arguments or a failing tool all come back as a
// failed Result the model can read.
func (r *Registry) Run(ctx context.Context, name string, input map[string]any) (result *executor.Result) {
	start := time.Now()
	log := r.log.With().Str("tool", name).Logger()

	defer func() {
		if p := recover(); p != nil {
			log.Error().Interface("panic", p).Msg("tool panicked")
			result = executor.TimedResult(executor.NewErrorResult(
				apperrors.New(apperrors.CodeToolExecutionFailed, fmt.Sprintf("tool %q failed unexpectedly: %v", name, p), apperrors.CategorySystem)), start)
		}
	}()

	if _, ok := r.executors.Get(name); !ok {
		log.Warn().Msg("model requested unknown tool")
		return executor.TimedResult(executor.NewErrorResult(&executor.ToolNotFoundError{Name: name}), start)
	}

	if input == nil {
		input = map[string]any{}
	}
	if err := r.schemas.Validate(name, input); err != nil {
		log.Warn().Err(err).Msg("invalid tool arguments")
		return executor.TimedResult(executor.NewErrorResult(err), start)
	}

	res, err := r.executors.Execute(ctx, name, input)
	if err != nil {
		res = executor.NewErrorResult(err)
	}
	if res == nil {
		res = executor.NewErrorResult(apperrors.New(apperrors.CodeToolExecutionFailed, fmt.Sprintf("tool %q returned no result", name), apperrors.CategorySystem))
	}
	res = executor.TimedResult(res, start)

	log.Debug().Bool("success", res.Success).Int64("duration_ms", res.DurationMs).Msg("tool finished")
	return res
}

// Services are the collaborators the built-in tools call into.
type Services struct {
	Weather     executor.WeatherLookup
	Quotes      executor.QuoteSource
	Transcriber executor.Transcriber
	Now         func() time.Time
}

// Initialize registers the built-in tools and freezes the registry.
func (r *Registry) Initialize(svc Services) {
	r.Register(&executor.UTCTime{Now: svc.Now}, schemas.NewSchema("utc_time", "Return current UTC time in ISO-8601 format").
		Build())

	r.Register(&executor.Calculator{}, schemas.NewSchema("calculator", "Evaluate a numeric math expression (supports +, -, *, /, parentheses)").
		AddParam("expression", "string", "Arithmetic expression, e.g. (12 + 8) * 7 + 23", true).
		Build())

	r.Register(&executor.CurrentWeather{Weather: svc.Weather}, schemas.NewSchema("current_weather", "Get the current weather for a location (metric units)").
		AddParam("location", "string", "City or place name", true).
		Build())

	r.Register(&executor.WeatherForecast{Weather: svc.Weather}, schemas.NewSchema("weather_forecast", "Get the hourly weather forecast for the next 24 hours at a location (metric units)").
		AddParam("location", "string", "City or place name", true).
		Build())

	r.Register(&executor.StockQuote{Quotes: svc.Quotes}, schemas.NewSchema("get_stock_data", "Get the current stock data for a ticker").
		AddParam("ticker", "string", "Ticker symbol, e.g. AAPL", true).
		Build())

	r.Register(&executor.TranscribeAudio{Pipeline: svc.Transcriber}, schemas.NewSchema("transcribe_audio", "Transcribe a single-channel .wav recording into clean Markdown and save it as a dated diary entry").
		AddParam("wav_file_path", "string", "Absolute or relative path to the .wav file", true).
		Build())

	r.Freeze()
}
