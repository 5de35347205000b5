// Package config provides configuration types for logbook.
package config

// Config represents the main logbook configuration.
type Config struct {
	Agent      AgentConfig      `toml:"agent"`
	Models     ModelConfig      `toml:"models"`
	Remote     RemoteConfig     `toml:"remote"`
	Transcribe TranscribeConfig `toml:"transcribe"`
	Services   ServicesConfig   `toml:"services"`
	Log        LogConfig        `toml:"log"`
}

// AgentConfig contains agent loop settings.
type AgentConfig struct {
	MaxToolRounds int    `toml:"max_tool_rounds"`
	SystemPrompt  string `toml:"system_prompt"`
	PromptMode    string `toml:"prompt_mode"` // minimal, full
	Timezone      string `toml:"timezone"`    // IANA name for the full prompt's clock line
}

// ModelConfig selects and configures the model backend.
type ModelConfig struct {
	Provider string             `toml:"provider"` // ollama, bedrock
	Model    string             `toml:"model"`
	Ollama   OllamaConfig       `toml:"ollama"`
	Bedrock  BedrockModelConfig `toml:"bedrock"`
}

// OllamaConfig configures the local model server.
type OllamaConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// BedrockModelConfig configures the managed cloud model service.
type BedrockModelConfig struct {
	Region string `toml:"region"`
}

// RemoteConfig configures the remote tool-call endpoint used for weather.
type RemoteConfig struct {
	ServerURL           string `toml:"server_url"`
	CurrentWeatherTool  string `toml:"current_weather_tool"`
	WeatherForecastTool string `toml:"weather_forecast_tool"`
	TimeoutSeconds      int    `toml:"timeout_seconds"`
}

// TranscribeConfig configures the transcription pipeline.
type TranscribeConfig struct {
	WhisperBaseURL string `toml:"whisper_base_url"`
	ModelSize      string `toml:"model_size"`     // tiny, base, small, medium, large, large-v2, large-v3
	MarkdownModel  string `toml:"markdown_model"` // cleanup model; defaults to models.model
	DiaryDir       string `toml:"diary_dir"`
}

// ServicesConfig holds the base URLs of the remote data providers.
type ServicesConfig struct {
	GeocodingURL   string `toml:"geocoding_url"`
	ForecastURL    string `toml:"forecast_url"`
	QuoteURL       string `toml:"quote_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level   string `toml:"level"`
	Verbose bool   `toml:"verbose"`
}

// Provider identifies a model backend family.
type Provider string

const (
	ProviderOllama  Provider = "ollama"
	ProviderBedrock Provider = "bedrock"
)
