package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/logbook-ai/logbook/internal/errors"
)

type locationArgs struct {
	Location string `json:"location"`
}

func newStubServer(t *testing.T) *httptest.Server {
	t.Helper()

	server := mcp.NewServer(&mcp.Implementation{Name: "stub-weather", Version: "test"}, nil)
	mcp.AddTool(server, &mcp.Tool{Name: "current_weather", Description: "Current weather"},
		func(_ context.Context, _ *mcp.CallToolRequest, args locationArgs) (*mcp.CallToolResult, any, error) {
			return &mcp.CallToolResult{Content: []mcp.Content{
				&mcp.TextContent{Text: "Sunny in " + args.Location},
				&mcp.TextContent{Text: "21°C"},
			}}, nil, nil
		})
	mcp.AddTool(server, &mcp.Tool{Name: "broken", Description: "Always fails"},
		func(_ context.Context, _ *mcp.CallToolRequest, _ locationArgs) (*mcp.CallToolResult, any, error) {
			return &mcp.CallToolResult{
				IsError: true,
				Content: []mcp.Content{&mcp.TextContent{Text: "station offline"}},
			}, nil, nil
		})
	mcp.AddTool(server, &mcp.Tool{Name: "silent", Description: "Returns nothing"},
		func(_ context.Context, _ *mcp.CallToolRequest, _ locationArgs) (*mcp.CallToolResult, any, error) {
			return &mcp.CallToolResult{Content: []mcp.Content{}}, nil, nil
		})

	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil)
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts
}

func TestClient_CallTool(t *testing.T) {
	ts := newStubServer(t)
	client := NewClient(Config{ServerURL: ts.URL, Timeout: 5 * time.Second}, zerolog.Nop())

	got, err := client.CallTool(context.Background(), "current_weather", map[string]any{"location": "Oslo"})
	require.NoError(t, err)
	assert.Equal(t, "Sunny in Oslo\n21°C", got)
}

func TestClient_CallToolRemoteError(t *testing.T) {
	ts := newStubServer(t)
	client := NewClient(Config{ServerURL: ts.URL, Timeout: 5 * time.Second}, zerolog.Nop())

	_, err := client.CallTool(context.Background(), "broken", map[string]any{"location": "Oslo"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeRemoteToolFailed))
	assert.Contains(t, err.Error(), "station offline")
}

func TestClient_CallToolEmptyOutput(t *testing.T) {
	ts := newStubServer(t)
	client := NewClient(Config{ServerURL: ts.URL, Timeout: 5 * time.Second}, zerolog.Nop())

	_, err := client.CallTool(context.Background(), "silent", map[string]any{"location": "Oslo"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty output")
}

func TestClient_Unreachable(t *testing.T) {
	client := NewClient(Config{ServerURL: "http://127.0.0.1:1/mcp", Timeout: 2 * time.Second}, zerolog.Nop())

	_, err := client.CallTool(context.Background(), "current_weather", map[string]any{"location": "Oslo"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeRemoteUnavailable))
}

func TestClient_NotConfigured(t *testing.T) {
	client := NewClient(Config{}, zerolog.Nop())
	assert.False(t, client.Enabled())

	_, err := client.CallTool(context.Background(), "current_weather", nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.CategoryConfig, apperrors.GetCategory(err))
}

func TestClient_ListTools(t *testing.T) {
	ts := newStubServer(t)
	client := NewClient(Config{ServerURL: ts.URL}, zerolog.Nop())

	tools, err := client.ListTools(context.Background())
	require.NoError(t, err)

	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"current_weather", "broken", "silent"}, names)
}

func TestClient_Transport(t *testing.T) {
	sse := NewClient(Config{ServerURL: "http://localhost:8080/sse"}, zerolog.Nop())
	_, ok := sse.transport().(*mcp.SSEClientTransport)
	assert.True(t, ok)

	streamable := NewClient(Config{ServerURL: "http://localhost:8080/mcp"}, zerolog.Nop())
	_, ok = streamable.transport().(*mcp.StreamableClientTransport)
	assert.True(t, ok)
}

func TestResultText(t *testing.T) {
	got, err := ResultText(&mcp.CallToolResult{StructuredContent: map[string]any{"temp": 21}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"temp":21}`, got)

	got, err = ResultText(&mcp.CallToolResult{Content: []mcp.Content{
		&mcp.TextContent{Text: " a "},
		&mcp.ImageContent{MIMEType: "image/png"},
		&mcp.TextContent{Text: "b"},
	}})
	require.NoError(t, err)
	assert.Equal(t, "a \nb", got)

	got, err = ResultText(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
