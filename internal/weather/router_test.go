package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/logbook-ai/logbook/internal/errors"
	"github.com/logbook-ai/logbook/internal/remote"
)

// countingProvider records calls and fails the test if used when it must not be.
type countingProvider struct {
	calls int
	place *Place
	err   error
}

func (p *countingProvider) Geocode(context.Context, string) (*Place, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.place, nil
}

func (p *countingProvider) Current(context.Context, *Place) (*Conditions, error) {
	p.calls++
	return &Conditions{Time: "now", Temperature: ptr(20.0), WindSpeed: ptr(2.0), WeatherCode: ptr(0)}, nil
}

func (p *countingProvider) Hourly(context.Context, *Place) ([]Hour, error) {
	p.calls++
	return []Hour{{Time: "t0", Temperature: ptr(1.0), WindSpeed: ptr(1.0), WeatherCode: ptr(1)}}, nil
}

type stubArgs struct {
	Location string `json:"location"`
}

type callLog struct {
	mu    sync.Mutex
	names []string
}

func (l *callLog) add(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.names = append(l.names, s)
}

func (l *callLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.names...)
}

func newRemoteStub(t *testing.T) (*httptest.Server, *callLog) {
	t.Helper()
	called := &callLog{}

	server := mcp.NewServer(&mcp.Implementation{Name: "stub", Version: "test"}, nil)
	for _, name := range []string{"remote_current", "remote_forecast"} {
		name := name
		mcp.AddTool(server, &mcp.Tool{Name: name},
			func(_ context.Context, _ *mcp.CallToolRequest, args stubArgs) (*mcp.CallToolResult, any, error) {
				called.add(name + ":" + args.Location)
				return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: name + " for " + args.Location}}}, nil, nil
			})
	}

	ts := httptest.NewServer(mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil))
	t.Cleanup(ts.Close)
	return ts, called
}

func TestRouter_RemoteNeverTouchesDirect(t *testing.T) {
	ts, called := newRemoteStub(t)
	direct := &countingProvider{place: &Place{Name: "Paris"}}
	rc := remote.NewClient(remote.Config{ServerURL: ts.URL, Timeout: 5 * time.Second}, zerolog.Nop())
	router := NewRouter(RouterConfig{CurrentTool: "remote_current", ForecastTool: "remote_forecast"}, rc, direct, zerolog.Nop())

	got, err := router.Lookup(context.Background(), "Paris", CapabilityCurrent)
	require.NoError(t, err)
	assert.Equal(t, "remote_current for Paris", got)

	got, err = router.Lookup(context.Background(), "Oslo", CapabilityForecast)
	require.NoError(t, err)
	assert.Equal(t, "remote_forecast for Oslo", got)

	assert.Equal(t, []string{"remote_current:Paris", "remote_forecast:Oslo"}, called.all())
	assert.Zero(t, direct.calls, "direct HTTP path must not be used when a remote endpoint is configured")
}

func TestRouter_RemoteUnreachable(t *testing.T) {
	direct := &countingProvider{place: &Place{Name: "Paris"}}
	rc := remote.NewClient(remote.Config{ServerURL: "http://127.0.0.1:1/mcp", Timeout: 2 * time.Second}, zerolog.Nop())
	router := NewRouter(RouterConfig{}, rc, direct, zerolog.Nop())

	_, err := router.Lookup(context.Background(), "Paris", CapabilityCurrent)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeRemoteUnavailable))
	assert.Zero(t, direct.calls)
}

func TestRouter_Direct(t *testing.T) {
	direct := &countingProvider{place: &Place{Name: "Paris", Country: "France"}}
	disabled := remote.NewClient(remote.Config{}, zerolog.Nop())
	router := NewRouter(RouterConfig{}, disabled, direct, zerolog.Nop())

	got, err := router.Lookup(context.Background(), "Paris", CapabilityCurrent)
	require.NoError(t, err)
	assert.Contains(t, got, "Current weather for Paris, France:")
	assert.Contains(t, got, "- Condition: Clear sky")

	got, err = router.Lookup(context.Background(), "Paris", CapabilityForecast)
	require.NoError(t, err)
	assert.Contains(t, got, "| t0 | Mainly clear | 1 | 1 | n/a |")
}

func TestRouter_Errors(t *testing.T) {
	miss := &countingProvider{err: apperrors.User(apperrors.CodeLocationNotFound, "location not found: Atlantis")}
	router := NewRouter(RouterConfig{}, nil, miss, zerolog.Nop())

	_, err := router.Lookup(context.Background(), "Atlantis", CapabilityCurrent)
	require.Error(t, err)
	assert.Equal(t, "Error: location not found: Atlantis", apperrors.ToolFailure(err))

	_, err = router.Lookup(context.Background(), " ", CapabilityCurrent)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))

	ok := &countingProvider{place: &Place{Name: "Paris"}}
	router = NewRouter(RouterConfig{}, nil, ok, zerolog.Nop())
	_, err = router.Lookup(context.Background(), "Paris", Capability("tides"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown weather capability "tides"`)
}
