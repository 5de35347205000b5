// Package agent runs the tool-calling loop between a model backend and the
// tool registry.
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/logbook-ai/logbook/internal/errors"
	"github.com/logbook-ai/logbook/internal/model"
	"github.com/logbook-ai/logbook/internal/prompt"
	"github.com/logbook-ai/logbook/internal/stats"
	"github.com/logbook-ai/logbook/internal/tools"
)

// DefaultMaxToolRounds caps tool rounds when Config.MaxToolRounds is unset.
const DefaultMaxToolRounds = 8

// Agent sends a prompt to the backend, runs the tools it asks for and
// returns its final answer. Nothing is remembered between Invoke calls.
type Agent struct {
	backend       model.Backend
	tools         *tools.Registry
	stats         *stats.Collector
	log           zerolog.Logger
	maxToolRounds int
	systemPrompt  string
	specs         []model.Tool
}

// Config configures the Agent.
type Config struct {
	Backend       model.Backend
	Tools         *tools.Registry
	PromptBuilder *prompt.Builder
	// SystemPrompt replaces the builder's output when set.
	SystemPrompt  string
	MaxToolRounds int
	Stats         *stats.Collector
	Logger        zerolog.Logger
}

// New creates an Agent. The system prompt and tool specs are fixed here.
func New(cfg *Config) *Agent {
	a := &Agent{
		backend:       cfg.Backend,
		tools:         cfg.Tools,
		stats:         cfg.Stats,
		log:           cfg.Logger.With().Str("component", "agent").Logger(),
		maxToolRounds: cfg.MaxToolRounds,
	}
	if a.maxToolRounds <= 0 {
		a.maxToolRounds = DefaultMaxToolRounds
	}
	if a.stats == nil {
		a.stats = stats.NewCollector()
	}
	if a.tools == nil {
		a.tools = tools.NewRegistry(cfg.Logger)
		a.tools.Freeze()
	}

	a.specs = a.tools.Specs()
	toolLines := a.tools.PromptLines()

	switch {
	case strings.TrimSpace(cfg.SystemPrompt) != "":
		a.systemPrompt = cfg.SystemPrompt
	case cfg.PromptBuilder != nil:
		a.systemPrompt = cfg.PromptBuilder.BuildSystemPrompt(prompt.SystemContext{Tools: toolLines})
	default:
		a.systemPrompt = prompt.DefaultIdentity
	}
	return a
}

// Response is the outcome of one Invoke.
type Response struct {
	Message       string         `json:"message"`
	ToolsExecuted []ToolCallInfo `json:"tools_executed,omitempty"`
	Rounds        int            `json:"rounds"`
	TokensUsed    int            `json:"tokens_used"`
	DurationMs    int64          `json:"duration_ms"`
	HitRoundCap   bool           `json:"hit_round_cap,omitempty"`
}

// ToolCallInfo represents info about an executed tool.
type ToolCallInfo struct {
	Tool       string `json:"tool"`
	Success    bool   `json:"success"`
	DurationMs int64  `json:"duration_ms"`
}

// Stats returns the agent's collector.
func (a *Agent) Stats() *stats.Collector {
	return a.stats
}

// SystemPrompt returns the prompt sent with every request.
func (a *Agent) SystemPrompt() string {
	return a.systemPrompt
}

// Invoke answers one prompt. Tool calls run one at a time in the order the
// model listed them. After MaxToolRounds rounds one last request is sent
// without tools so the model has to answer in text.
func (a *Agent) Invoke(ctx context.Context, userPrompt string) (*Response, error) {
	if strings.TrimSpace(userPrompt) == "" {
		return nil, apperrors.User(apperrors.CodeInvalidInput, "prompt is empty")
	}
	if a.backend == nil {
		return nil, apperrors.Config(apperrors.CodeModelUnavailable, "no model backend configured")
	}

	start := time.Now()
	out := &Response{}
	messages := []model.Message{
		model.NewSystemMessage(a.systemPrompt),
		model.NewUserMessage(userPrompt),
	}

	for round := 0; round < a.maxToolRounds; round++ {
		resp, err := a.send(ctx, messages, a.specs)
		if err != nil {
			return nil, err
		}
		out.Rounds++
		out.TokensUsed += resp.TokensUsed

		if len(resp.ToolCalls) == 0 {
			out.Message = resp.Text
			out.DurationMs = time.Since(start).Milliseconds()
			return out, nil
		}

		messages = append(messages, model.NewAssistantMessage(resp.Text, resp.ToolCalls))
		messages = append(messages, a.runTools(ctx, resp.ToolCalls, out)...)
	}

	a.log.Warn().Int("rounds", a.maxToolRounds).Msg("tool round cap reached, asking for a final answer")
	out.HitRoundCap = true

	resp, err := a.send(ctx, messages, nil)
	if err != nil {
		return nil, err
	}
	out.Rounds++
	out.TokensUsed += resp.TokensUsed
	if strings.TrimSpace(resp.Text) == "" {
		return nil, apperrors.NewBuilder(apperrors.CodeToolRoundLimit,
			fmt.Sprintf("model did not produce an answer within %d tool rounds", a.maxToolRounds)).
			External().
			WithSuggestion("Raise MAX_TOOL_ROUNDS or rephrase the request").
			Build()
	}

	out.Message = resp.Text
	out.DurationMs = time.Since(start).Milliseconds()
	return out, nil
}

func (a *Agent) runTools(ctx context.Context, calls []model.ToolCall, out *Response) []model.Message {
	results := make([]model.Message, 0, len(calls))
	for _, call := range calls {
		res := a.tools.Run(ctx, call.Name, call.Input)
		a.stats.RecordTool(res.Success)
		out.ToolsExecuted = append(out.ToolsExecuted, ToolCallInfo{
			Tool:       call.Name,
			Success:    res.Success,
			DurationMs: res.DurationMs,
		})
		results = append(results, model.NewToolResultMessage(call, res.Text(), !res.Success))
	}
	return results
}

func (a *Agent) send(ctx context.Context, messages []model.Message, specs []model.Tool) (*model.Response, error) {
	start := time.Now()
	resp, err := a.backend.Send(ctx, &model.Request{
		Messages:    messages,
		Tools:       specs,
		Temperature: 0,
	})
	if err != nil {
		a.stats.RecordError()
		a.log.Error().Err(err).Str("backend", a.backend.Name()).Msg("model request failed")
		if apperrors.HasCode(err, apperrors.CodeModelUnavailable) {
			return nil, err
		}
		return nil, apperrors.Wrap(err, apperrors.CodeModelUnavailable,
			fmt.Sprintf("model backend %s failed", a.backend.Name()), apperrors.CategoryExternal)
	}

	a.stats.RecordRequest(resp.TokensUsed, time.Since(start))
	a.log.Debug().
		Int("tool_calls", len(resp.ToolCalls)).
		Int("tokens", resp.TokensUsed).
		Dur("duration", time.Since(start)).
		Msg("model responded")
	return resp, nil
}
