// Package executor provides the tool execution interface and types.
package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	apperrors "github.com/logbook-ai/logbook/internal/errors"
)

// Tool represents a callable tool.
type Tool interface {
	// Name returns the tool's identifier.
	Name() string

	// Description returns what the tool does.
	Description() string

	// Execute runs the tool with the given input. Failures the model should
	// see are returned as error results, not as errors.
	Execute(ctx context.Context, input map[string]any) (*Result, error)
}

// Result represents the result of a tool execution.
type Result struct {
	Success    bool   `json:"success"`
	Data       any    `json:"data,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// NewSuccessResult creates a successful result.
func NewSuccessResult(data any) *Result {
	return &Result{
		Success: true,
		Data:    data,
	}
}

// NewErrorResult creates an error result.
func NewErrorResult(err error) *Result {
	return &Result{
		Success: false,
		Error:   apperrors.FailureText(err),
	}
}

// TimedResult wraps a result with duration.
func TimedResult(result *Result, start time.Time) *Result {
	result.DurationMs = time.Since(start).Milliseconds()
	return result
}

// Text renders the result as the string handed back to the model.
// Failures read "Error: <message>".
func (r *Result) Text() string {
	if r == nil {
		return "Error: no result"
	}
	if !r.Success {
		return "Error: " + r.Error
	}
	switch v := r.Data.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}

// Registry manages available tools for execution. It is built once and then
// frozen; registering afterwards panics.
type Registry struct {
	tools  map[string]Tool
	order  []string
	frozen bool
}

// NewRegistry creates a new tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool to the registry.
func (r *Registry) Register(tool Tool) {
	if r.frozen {
		panic(fmt.Sprintf("executor: register %q after freeze", tool.Name()))
	}
	if _, exists := r.tools[tool.Name()]; exists {
		panic(fmt.Sprintf("executor: duplicate tool %q", tool.Name()))
	}
	r.tools[tool.Name()] = tool
	r.order = append(r.order, tool.Name())
}

// Freeze makes the registry read-only.
func (r *Registry) Freeze() {
	r.frozen = true
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// List returns all registered tool names in registration order.
func (r *Registry) List() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// All returns all registered tools in registration order.
func (r *Registry) All() []Tool {
	tools := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		tools = append(tools, r.tools[name])
	}
	return tools
}

// Execute runs a tool by name with the given input.
func (r *Registry) Execute(ctx context.Context, name string, input map[string]any) (*Result, error) {
	tool, ok := r.Get(name)
	if !ok {
		return nil, &ToolNotFoundError{Name: name}
	}
	return tool.Execute(ctx, input)
}

// ToolNotFoundError is returned when a tool doesn't exist.
type ToolNotFoundError struct {
	Name string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("unknown tool %q", e.Name)
}
