// Package remote calls tools hosted on a Model Context Protocol server.
//
// Every call opens its own short-lived session; nothing is pooled or kept
// between calls.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	apperrors "github.com/logbook-ai/logbook/internal/errors"
)

// DefaultTimeout bounds a whole session when Config.Timeout is unset.
const DefaultTimeout = 20 * time.Second

// Config configures the remote client.
type Config struct {
	ServerURL string
	Timeout   time.Duration
	Name      string
	Version   string
}

// ToolInfo describes a tool advertised by the server.
type ToolInfo struct {
	Name        string
	Description string
}

// Client calls tools on a remote MCP server.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a remote client.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Name == "" {
		cfg.Name = "logbook"
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
		log:        log.With().Str("component", "remote").Logger(),
	}
}

// Enabled reports whether a server URL is configured.
func (c *Client) Enabled() bool {
	return strings.TrimSpace(c.cfg.ServerURL) != ""
}

// CallTool invokes name with args and returns its output as text.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	session, err := c.connect(ctx)
	if err != nil {
		return "", err
	}
	defer session.Close()

	c.log.Debug().Str("tool", name).Interface("args", args).Msg("calling remote tool")

	res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return "", apperrors.NewBuilder(apperrors.CodeRemoteUnavailable, fmt.Sprintf("remote tool %q call failed", name)).
			External().
			Wrap(err).
			Build()
	}

	text, err := ResultText(res)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeRemoteToolFailed, fmt.Sprintf("remote tool %q returned unreadable content", name), apperrors.CategoryExternal)
	}
	if res.IsError {
		msg := fmt.Sprintf("remote tool %q reported an error", name)
		if text != "" {
			msg += ": " + text
		}
		return "", apperrors.External(apperrors.CodeRemoteToolFailed, msg)
	}
	if text == "" {
		return "", apperrors.External(apperrors.CodeRemoteToolFailed, fmt.Sprintf("remote tool %q returned empty output", name))
	}
	return text, nil
}

// ListTools returns every tool the server advertises.
func (c *Client) ListTools(ctx context.Context) ([]ToolInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	session, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	var out []ToolInfo
	params := &mcp.ListToolsParams{}
	for {
		res, err := session.ListTools(ctx, params)
		if err != nil {
			return nil, apperrors.NewBuilder(apperrors.CodeRemoteUnavailable, "failed to list remote tools").
				External().
				Wrap(err).
				Build()
		}
		for _, t := range res.Tools {
			out = append(out, ToolInfo{Name: t.Name, Description: t.Description})
		}
		if res.NextCursor == "" {
			return out, nil
		}
		params = &mcp.ListToolsParams{Cursor: res.NextCursor}
	}
}

func (c *Client) connect(ctx context.Context) (*mcp.ClientSession, error) {
	if !c.Enabled() {
		return nil, apperrors.Config(apperrors.CodeRemoteUnavailable, "remote tool server URL is not configured")
	}

	client := mcp.NewClient(&mcp.Implementation{Name: c.cfg.Name, Version: c.cfg.Version}, nil)
	session, err := client.Connect(ctx, c.transport(), nil)
	if err != nil {
		return nil, apperrors.NewBuilder(apperrors.CodeRemoteUnavailable, fmt.Sprintf("cannot reach remote tool server at %s", c.cfg.ServerURL)).
			External().
			Wrap(err).
			WithSuggestion("Check MCP_SERVER_URL or unset it to use the built-in weather client").
			Build()
	}
	return session, nil
}

// transport picks SSE for endpoints ending in /sse and streamable HTTP otherwise.
func (c *Client) transport() mcp.Transport {
	endpoint := strings.TrimSpace(c.cfg.ServerURL)
	if u, err := url.Parse(endpoint); err == nil && strings.HasSuffix(strings.TrimRight(u.Path, "/"), "/sse") {
		return &mcp.SSEClientTransport{Endpoint: endpoint, HTTPClient: c.httpClient}
	}
	return &mcp.StreamableClientTransport{Endpoint: endpoint, HTTPClient: c.httpClient}
}

// ResultText flattens a tool result: structured content is JSON-encoded,
// otherwise text blocks are joined with newlines.
func ResultText(res *mcp.CallToolResult) (string, error) {
	if res == nil {
		return "", nil
	}
	if res.StructuredContent != nil {
		data, err := json.Marshal(res.StructuredContent)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	var parts []string
	for _, block := range res.Content {
		if tc, ok := block.(*mcp.TextContent); ok && tc.Text != "" {
			parts = append(parts, tc.Text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n")), nil
}
