// Package model manages AI model inference and backend selection.
//
// Supports:
// - Local models via Ollama
// - Cloud models via Amazon Bedrock
package model

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/logbook-ai/logbook/internal/errors"
)

// Provider names accepted by New.
const (
	ProviderOllama  = "ollama"
	ProviderBedrock = "bedrock"
)

// RouterConfig selects and configures a backend.
type RouterConfig struct {
	Provider string // "ollama" or "bedrock"
	Model    string

	OllamaBaseURL string
	OllamaTimeout time.Duration

	Region string
}

// New returns the backend named by cfg.Provider. The choice is made once at
// startup and never changes for the life of the process.
func New(ctx context.Context, cfg *RouterConfig) (Backend, error) {
	if cfg == nil {
		return nil, apperrors.Config(apperrors.CodeConfigInvalid, "model configuration missing")
	}
	if cfg.Model == "" {
		return nil, apperrors.NewBuilder(apperrors.CodeConfigInvalid, "model id is required").
			Config().
			WithSuggestion("Set --model or MODEL").
			Build()
	}

	switch strings.ToLower(cfg.Provider) {
	case ProviderOllama:
		oc := DefaultOllamaConfig(cfg.Model)
		if cfg.OllamaBaseURL != "" {
			oc.BaseURL = cfg.OllamaBaseURL
		}
		if cfg.OllamaTimeout > 0 {
			oc.Timeout = cfg.OllamaTimeout
		}
		return NewOllamaClient(oc), nil

	case ProviderBedrock:
		if cfg.Region == "" {
			return nil, apperrors.NewBuilder(apperrors.CodeConfigInvalid, "AWS region is required for bedrock").
				Config().
				WithSuggestion("Set --aws-region or AWS_REGION").
				Build()
		}
		return NewBedrockClient(ctx, &BedrockConfig{Region: cfg.Region, Model: cfg.Model})

	default:
		return nil, apperrors.NewBuilder(apperrors.CodeConfigInvalid, fmt.Sprintf("unsupported provider %q", cfg.Provider)).
			Config().
			WithSuggestion("Use --provider ollama or --provider bedrock").
			Build()
	}
}
