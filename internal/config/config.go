// Package config handles logbook configuration loading and management.
//
// Values are layered: built-in defaults, then the optional TOML file, then the
// process environment (after a .env file is loaded), then command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	apperrors "github.com/logbook-ai/logbook/internal/errors"
)

// DefaultPath returns the default config file location.
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".logbook", "config.toml")
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Agent: AgentConfig{
			MaxToolRounds: 8,
			PromptMode:    "minimal",
			SystemPrompt:  "You are a helpful assistant. Use tools when needed and keep answers concise.",
		},
		Models: ModelConfig{
			Ollama: OllamaConfig{
				BaseURL:        "http://localhost:11434",
				TimeoutSeconds: 300,
			},
		},
		Remote: RemoteConfig{
			CurrentWeatherTool:  "current_weather",
			WeatherForecastTool: "weather_forecast",
			TimeoutSeconds:      20,
		},
		Transcribe: TranscribeConfig{
			WhisperBaseURL: "http://localhost:8000",
			ModelSize:      "base",
			DiaryDir:       "diary",
		},
		Services: ServicesConfig{
			GeocodingURL:   "https://geocoding-api.open-meteo.com/v1/search",
			ForecastURL:    "https://api.open-meteo.com/v1/forecast",
			QuoteURL:       "https://query1.finance.yahoo.com/v8/finance/chart",
			TimeoutSeconds: 10,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// Load loads the configuration from the given path.
// If the file doesn't exist, returns defaults.
func Load(configPath string) (*Config, error) {
	cfg := Default()
	if configPath == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeConfigInvalid, "failed to parse "+configPath, apperrors.CategoryConfig)
	}

	return cfg, nil
}

// Save saves the configuration to the given path.
func (c *Config) Save(configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	file, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	return toml.NewEncoder(file).Encode(c)
}

// LoadDotEnv loads variables from the given .env files into the process
// environment. Variables that are already set win. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return apperrors.Wrap(err, apperrors.CodeConfigInvalid, "failed to load "+f, apperrors.CategoryConfig)
		}
	}
	return nil
}

// envKeys maps viper keys to the environment variables they read.
var envKeys = map[string]string{
	"provider":            "PROVIDER",
	"model":               "MODEL",
	"ollama-base-url":     "OLLAMA_BASE_URL",
	"aws-region":          "AWS_REGION",
	"mcp-server-url":      "MCP_SERVER_URL",
	"mcp-current-tool":    "MCP_WEATHER_CURRENT_TOOL",
	"mcp-forecast-tool":   "MCP_WEATHER_FORECAST_TOOL",
	"mcp-timeout-seconds": "MCP_TIMEOUT_SECONDS",
	"transcript-model":    "TRANSCRIPT_MODEL",
	"markdown-model":      "MARKDOWN_MODEL",
	"whisper-base-url":    "WHISPER_BASE_URL",
	"diary-dir":           "DIARY_DIR",
	"max-tool-rounds":     "MAX_TOOL_ROUNDS",
	"prompt-mode":         "PROMPT_MODE",
	"timezone":            "LOGBOOK_TIMEZONE",
	"log-level":           "LOG_LEVEL",
	"verbose":             "VERBOSE",
}

// NewViper returns a viper instance bound to the environment variables
// logbook reads. Callers bind command-line flags on top of it.
func NewViper() *viper.Viper {
	v := viper.New()
	for key, env := range envKeys {
		// BindEnv only errors when called without a key.
		_ = v.BindEnv(key, env)
	}
	return v
}

// Apply overlays every value set in v (environment or changed flag) onto cfg.
func (c *Config) Apply(v *viper.Viper) {
	setString := func(key string, dst *string) {
		if v.IsSet(key) {
			if s := strings.TrimSpace(v.GetString(key)); s != "" {
				*dst = s
			}
		}
	}
	setInt := func(key string, dst *int) {
		if v.IsSet(key) {
			if n := v.GetInt(key); n > 0 {
				*dst = n
			}
		}
	}

	setString("provider", &c.Models.Provider)
	setString("model", &c.Models.Model)
	setString("ollama-base-url", &c.Models.Ollama.BaseURL)
	setString("aws-region", &c.Models.Bedrock.Region)
	setString("mcp-server-url", &c.Remote.ServerURL)
	setString("mcp-current-tool", &c.Remote.CurrentWeatherTool)
	setString("mcp-forecast-tool", &c.Remote.WeatherForecastTool)
	setInt("mcp-timeout-seconds", &c.Remote.TimeoutSeconds)
	setString("transcript-model", &c.Transcribe.ModelSize)
	setString("markdown-model", &c.Transcribe.MarkdownModel)
	setString("whisper-base-url", &c.Transcribe.WhisperBaseURL)
	setString("diary-dir", &c.Transcribe.DiaryDir)
	setInt("max-tool-rounds", &c.Agent.MaxToolRounds)
	setString("prompt-mode", &c.Agent.PromptMode)
	setString("timezone", &c.Agent.Timezone)
	setString("log-level", &c.Log.Level)
	if v.IsSet("verbose") {
		c.Log.Verbose = v.GetBool("verbose")
	}

	c.Models.Provider = strings.ToLower(c.Models.Provider)
	c.Agent.PromptMode = strings.ToLower(c.Agent.PromptMode)
}

// Validate checks that the selected provider has everything it needs.
func (c *Config) Validate() error {
	switch Provider(c.Models.Provider) {
	case "":
		return apperrors.NewBuilder(apperrors.CodeConfigInvalid, "provider is required").
			Config().
			WithSuggestion("Use --provider or set PROVIDER in .env/environment").
			Build()
	case ProviderOllama:
		if c.Models.Ollama.BaseURL == "" {
			return apperrors.NewBuilder(apperrors.CodeConfigInvalid, "ollama base URL is required").
				Config().
				WithSuggestion("Use --ollama-base-url or set OLLAMA_BASE_URL").
				Build()
		}
	case ProviderBedrock:
		if c.Models.Bedrock.Region == "" {
			return apperrors.NewBuilder(apperrors.CodeConfigInvalid, "--aws-region is required for bedrock").
				Config().
				WithSuggestion("Use --aws-region or set AWS_REGION").
				Build()
		}
	default:
		return apperrors.NewBuilder(apperrors.CodeConfigInvalid, fmt.Sprintf("unsupported provider: %s", c.Models.Provider)).
			Config().
			WithSuggestion("Choose one of: ollama, bedrock").
			Build()
	}

	if c.Models.Model == "" {
		return apperrors.NewBuilder(apperrors.CodeConfigInvalid, "model is required").
			Config().
			WithSuggestion("Use --model or set MODEL in .env/environment").
			Build()
	}

	if c.Agent.MaxToolRounds <= 0 {
		return apperrors.Config(apperrors.CodeConfigInvalid, "max_tool_rounds must be positive")
	}

	switch c.Agent.PromptMode {
	case "", "minimal", "full":
	default:
		return apperrors.NewBuilder(apperrors.CodeConfigInvalid, fmt.Sprintf("unsupported prompt mode: %s", c.Agent.PromptMode)).
			Config().
			WithSuggestion("Choose one of: minimal, full").
			Build()
	}

	if c.Agent.Timezone != "" {
		if _, err := time.LoadLocation(c.Agent.Timezone); err != nil {
			return apperrors.NewBuilder(apperrors.CodeConfigInvalid, fmt.Sprintf("unknown timezone: %s", c.Agent.Timezone)).
				Config().
				Wrap(err).
				Build()
		}
	}

	return nil
}

// IsRemoteEnabled returns true when weather calls go through the remote tool endpoint.
func (c *Config) IsRemoteEnabled() bool {
	return strings.TrimSpace(c.Remote.ServerURL) != ""
}

// MarkdownModel returns the model used for transcript cleanup.
func (c *Config) MarkdownModel() string {
	if c.Transcribe.MarkdownModel != "" {
		return c.Transcribe.MarkdownModel
	}
	return c.Models.Model
}

// RemoteTimeout returns the remote tool session timeout.
func (c *Config) RemoteTimeout() time.Duration {
	return time.Duration(c.Remote.TimeoutSeconds) * time.Second
}

// ServiceTimeout returns the HTTP timeout for the data providers.
func (c *Config) ServiceTimeout() time.Duration {
	return time.Duration(c.Services.TimeoutSeconds) * time.Second
}
