// Package model provides the Ollama client for local LLM access.
package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/logbook-ai/logbook/internal/errors"
)

// OllamaConfig configures the Ollama client.
type OllamaConfig struct {
	BaseURL string // Default: http://localhost:11434
	Model   string // e.g., "llama3.1", "qwen2.5:7b"
	Timeout time.Duration
}

// DefaultOllamaConfig returns default configuration.
func DefaultOllamaConfig(model string) *OllamaConfig {
	return &OllamaConfig{
		BaseURL: "http://localhost:11434",
		Model:   model,
		Timeout: 300 * time.Second,
	}
}

// OllamaClient implements Backend against a local Ollama server.
type OllamaClient struct {
	cfg    *OllamaConfig
	client *http.Client
}

// NewOllamaClient creates a new Ollama client.
func NewOllamaClient(cfg *OllamaConfig) *OllamaClient {
	if cfg == nil {
		return nil
	}
	return &OllamaClient{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Send posts the conversation to /api/chat and returns the reply.
func (c *OllamaClient) Send(ctx context.Context, req *Request) (*Response, error) {
	if c == nil {
		return nil, apperrors.New(apperrors.CodeModelUnavailable, "ollama client not initialized", apperrors.CategoryConfig)
	}
	if req.HasAudio() {
		return nil, apperrors.User(apperrors.CodeModelUnsupported, "the local backend does not accept audio input")
	}

	start := time.Now()

	body := ollamaChatRequest{
		Model:    c.cfg.Model,
		Messages: toOllamaMessages(req.Messages),
		Stream:   false,
		Options:  &ollamaOptions{Temperature: req.Temperature},
	}
	if req.MaxTokens > 0 {
		body.Options.NumPredict = req.MaxTokens
	}
	for _, tool := range req.Tools {
		body.Tools = append(body.Tools, ollamaTool{
			Type: "function",
			Function: ollamaFunction{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			},
		})
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeModelInvalidResponse, "failed to marshal request", apperrors.CategorySystem)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/api/chat"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeModelUnavailable, "failed to create request", apperrors.CategoryConfig)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, apperrors.NewBuilder(apperrors.CodeModelUnavailable, "ollama request failed").
			External().
			Wrap(err).
			WithSuggestion(fmt.Sprintf("Check that Ollama is running at %s", c.cfg.BaseURL)).
			Build()
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeModelUnavailable, "failed to read response", apperrors.CategoryExternal)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, apperrors.NewBuilder(apperrors.CodeModelUnavailable, fmt.Sprintf("model %q not found", c.cfg.Model)).
			Config().
			WithSuggestion(fmt.Sprintf("Run: ollama pull %s", c.cfg.Model)).
			WithContext("response", string(respBody)).
			Build()
	default:
		return nil, apperrors.NewBuilder(apperrors.CodeModelUnavailable, fmt.Sprintf("API error (status %d)", resp.StatusCode)).
			External().
			Wrap(fmt.Errorf("%s", ollamaErrorText(respBody))).
			Build()
	}

	var chatResp ollamaChatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, apperrors.NewBuilder(apperrors.CodeModelInvalidResponse, "failed to parse API response").
			Wrap(err).
			WithContext("response_body", string(respBody)).
			Build()
	}

	text, err := ContentText(chatResp.Message.Content)
	if err != nil {
		return nil, err
	}

	modelResp := &Response{
		Text:       text,
		TokensUsed: chatResp.PromptEvalCount + chatResp.EvalCount,
		Model:      chatResp.Model,
		DurationMs: time.Since(start).Milliseconds(),
	}

	for _, tc := range chatResp.Message.ToolCalls {
		id := tc.ID
		if id == "" {
			id = "call_" + uuid.NewString()
		}
		args := tc.Function.Arguments
		if args == nil {
			args = map[string]any{}
		}
		modelResp.ToolCalls = append(modelResp.ToolCalls, ToolCall{
			ID:    id,
			Name:  tc.Function.Name,
			Input: args,
		})
	}

	return modelResp, nil
}

// Name returns the model name.
func (c *OllamaClient) Name() string {
	if c.cfg != nil && c.cfg.Model != "" {
		return c.cfg.Model
	}
	return "ollama"
}

// IsLocal returns true (Ollama runs on the local network).
func (c *OllamaClient) IsLocal() bool {
	return true
}

// WithModel returns a client for another model on the same server.
func (c *OllamaClient) WithModel(model string) Backend {
	cfg := *c.cfg
	cfg.Model = model
	return &OllamaClient{cfg: &cfg, client: c.client}
}

func toOllamaMessages(messages []Message) []ollamaMessage {
	out := make([]ollamaMessage, 0, len(messages))
	for _, m := range messages {
		om := ollamaMessage{
			Role:     string(m.Role),
			Content:  m.Content,
			ToolName: m.ToolName,
		}
		for _, tc := range m.ToolCalls {
			om.ToolCalls = append(om.ToolCalls, ollamaToolCall{
				ID: tc.ID,
				Function: ollamaToolFunction{
					Name:      tc.Name,
					Arguments: tc.Input,
				},
			})
		}
		out = append(out, om)
	}
	return out
}

func ollamaErrorText(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}

// ============================================================
// Ollama API Types
// ============================================================

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Tools    []ollamaTool    `json:"tools,omitempty"`
	Options  *ollamaOptions  `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaMessage struct {
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	ToolCalls []ollamaToolCall `json:"tool_calls,omitempty"`
	ToolName  string           `json:"tool_name,omitempty"`
}

type ollamaTool struct {
	Type     string         `json:"type"`
	Function ollamaFunction `json:"function"`
}

type ollamaFunction struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

type ollamaToolCall struct {
	ID       string             `json:"id,omitempty"`
	Function ollamaToolFunction `json:"function"`
}

type ollamaToolFunction struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type ollamaChatResponse struct {
	Model   string `json:"model"`
	Message struct {
		Role      string           `json:"role"`
		Content   json.RawMessage  `json:"content"`
		ToolCalls []ollamaToolCall `json:"tool_calls,omitempty"`
	} `json:"message"`
	Done            bool `json:"done"`
	PromptEvalCount int  `json:"prompt_eval_count"`
	EvalCount       int  `json:"eval_count"`
}
