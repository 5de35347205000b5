package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	apperrors "github.com/logbook-ai/logbook/internal/errors"
	"github.com/logbook-ai/logbook/internal/stocks"
	"github.com/logbook-ai/logbook/internal/weather"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestResult_Text(t *testing.T) {
	assert.Equal(t, "163", NewSuccessResult("163").Text())
	assert.Equal(t, `{"a":1}`, NewSuccessResult(map[string]int{"a": 1}).Text())
	assert.Equal(t, "", NewSuccessResult(nil).Text())
	assert.Equal(t, "Error: boom", NewErrorResult(errors.New("boom")).Text())
	assert.Equal(t, "Error: location not found: Atlantis",
		NewErrorResult(apperrors.User(apperrors.CodeLocationNotFound, "location not found: Atlantis")).Text())

	var nilResult *Result
	assert.Equal(t, "Error: no result", nilResult.Text())
}

func TestRegistry_FreezeAndOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(&UTCTime{})
	r.Register(&Calculator{})
	assert.Equal(t, []string{"utc_time", "calculator"}, r.List())

	assert.Panics(t, func() { r.Register(&Calculator{}) }, "duplicate")

	r.Freeze()
	assert.Panics(t, func() { r.Register(&StockQuote{}) }, "after freeze")

	_, err := r.Execute(context.Background(), "nope", nil)
	var notFound *ToolNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, `unknown tool "nope"`, err.Error())
}

func TestUTCTime(t *testing.T) {
	fixed := time.Date(2026, 2, 24, 12, 0, 0, 123456789, time.FixedZone("CET", 3600))
	tool := &UTCTime{Now: func() time.Time { return fixed }}

	res, err := tool.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "2026-02-24T11:00:00.123456789Z", res.Text())

	res, err = (&UTCTime{}).Execute(context.Background(), map[string]any{})
	require.NoError(t, err)
	parsed, err := time.Parse(time.RFC3339Nano, res.Text())
	require.NoError(t, err)
	assert.Equal(t, time.UTC, parsed.Location())
}

type fakeWeather struct {
	location   string
	capability weather.Capability
	text       string
	err        error
}

func (f *fakeWeather) Lookup(_ context.Context, location string, c weather.Capability) (string, error) {
	f.location, f.capability = location, c
	return f.text, f.err
}

func TestWeatherTools(t *testing.T) {
	w := &fakeWeather{text: "sunny"}

	res, err := (&CurrentWeather{Weather: w}).Execute(context.Background(), map[string]any{"location": "Paris"})
	require.NoError(t, err)
	assert.Equal(t, "sunny", res.Text())
	assert.Equal(t, weather.CapabilityCurrent, w.capability)

	res, err = (&WeatherForecast{Weather: w}).Execute(context.Background(), map[string]any{"location": "Oslo"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "Oslo", w.location)
	assert.Equal(t, weather.CapabilityForecast, w.capability)

	w.err = apperrors.User(apperrors.CodeLocationNotFound, "location not found: Atlantis")
	res, err = (&CurrentWeather{Weather: w}).Execute(context.Background(), map[string]any{"location": "Atlantis"})
	require.NoError(t, err)
	assert.Equal(t, "Error: location not found: Atlantis", res.Text())

	res, err = (&CurrentWeather{Weather: w}).Execute(context.Background(), map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "Error: location is required", res.Text())
}

type fakeQuotes struct {
	quote *stocks.Quote
	err   error
}

func (f *fakeQuotes) Quote(context.Context, string) (*stocks.Quote, error) {
	return f.quote, f.err
}

func TestStockQuote(t *testing.T) {
	q := &fakeQuotes{quote: &stocks.Quote{Symbol: "AAPL", Price: 189.84, Currency: "USD", AsOf: time.Unix(0, 0).UTC()}}

	res, err := (&StockQuote{Quotes: q}).Execute(context.Background(), map[string]any{"ticker": "AAPL"})
	require.NoError(t, err)
	assert.Contains(t, res.Text(), "Current stock data for AAPL:")
	assert.Contains(t, res.Text(), "- Price: 189.84 USD")

	q.err = apperrors.User(apperrors.CodeTickerNotFound, "no data found for ticker ZZZZ")
	res, err = (&StockQuote{Quotes: q}).Execute(context.Background(), map[string]any{"ticker": "ZZZZ"})
	require.NoError(t, err)
	assert.Equal(t, "Error: no data found for ticker ZZZZ", res.Text())
}

type fakeTranscriber struct {
	path string
	out  string
	err  error
}

func (f *fakeTranscriber) Transcribe(_ context.Context, path string) (string, error) {
	f.path = path
	return f.out, f.err
}

func TestTranscribeAudio(t *testing.T) {
	p := &fakeTranscriber{out: "Transcript saved to: diary/2026-02-24T090000.md"}

	res, err := (&TranscribeAudio{Pipeline: p}).Execute(context.Background(), map[string]any{"wav_file_path": "memo.wav"})
	require.NoError(t, err)
	assert.Equal(t, "memo.wav", p.path)
	assert.Equal(t, "Transcript saved to: diary/2026-02-24T090000.md", res.Text())

	p.err = apperrors.User(apperrors.CodeFileNotFound, "file not found: missing.wav")
	res, err = (&TranscribeAudio{Pipeline: p}).Execute(context.Background(), map[string]any{"wav_file_path": "missing.wav"})
	require.NoError(t, err)
	assert.Equal(t, "Error: file not found: missing.wav", res.Text())

	res, err = (&TranscribeAudio{}).Execute(context.Background(), map[string]any{"wav_file_path": "memo.wav"})
	require.NoError(t, err)
	assert.False(t, res.Success)
}
