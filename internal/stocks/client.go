// Package stocks fetches the latest quote for a ticker symbol.
package stocks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/logbook-ai/logbook/internal/errors"
)

// DefaultQuoteURL is the chart endpoint; the symbol is appended to the path.
const DefaultQuoteURL = "https://query1.finance.yahoo.com/v8/finance/chart/"

const userAgent = "Mozilla/5.0 (compatible; logbook/1.0)"

// Config configures the quote client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Quote is the latest price plus the day's range when the provider has it.
type Quote struct {
	Symbol   string
	Price    float64
	Currency string
	AsOf     time.Time

	Open   *float64
	High   *float64
	Low    *float64
	Close  *float64
	Volume *int64
}

// Client queries the chart endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a quote client.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultQuoteURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log.With().Str("component", "stocks").Logger(),
	}
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol             string   `json:"symbol"`
		Currency           string   `json:"currency"`
		RegularMarketPrice *float64 `json:"regularMarketPrice"`
		RegularMarketTime  int64    `json:"regularMarketTime"`
	} `json:"meta"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*int64   `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

// Quote fetches the latest quote for symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (*Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, apperrors.User(apperrors.CodeInvalidInput, "ticker is required")
	}

	q := url.Values{}
	q.Set("range", "1d")
	q.Set("interval", "1d")
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/" + url.PathEscape(symbol) + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeUpstreamFailed, "failed to build quote request", apperrors.CategorySystem)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	c.log.Debug().Str("symbol", symbol).Msg("quote request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeUpstreamFailed, "quote service unreachable", apperrors.CategoryExternal)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeUpstreamFailed, "failed to read quote response", apperrors.CategoryExternal)
	}

	var payload chartResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, apperrors.External(apperrors.CodeUpstreamFailed, fmt.Sprintf("quote service returned status %d", resp.StatusCode))
		}
		return nil, apperrors.Wrap(err, apperrors.CodeUpstreamFailed, "failed to decode quote response", apperrors.CategoryExternal)
	}

	if payload.Chart.Error != nil || len(payload.Chart.Result) == 0 {
		msg := "no data found for ticker " + symbol
		if payload.Chart.Error != nil && payload.Chart.Error.Description != "" {
			msg += ": " + payload.Chart.Error.Description
		}
		return nil, apperrors.User(apperrors.CodeTickerNotFound, msg)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.External(apperrors.CodeUpstreamFailed, fmt.Sprintf("quote service returned status %d", resp.StatusCode))
	}

	res := payload.Chart.Result[0]
	if res.Meta.RegularMarketPrice == nil {
		return nil, apperrors.User(apperrors.CodeTickerNotFound, "no price available for ticker "+symbol)
	}

	quote := &Quote{
		Symbol:   res.Meta.Symbol,
		Price:    *res.Meta.RegularMarketPrice,
		Currency: res.Meta.Currency,
		AsOf:     time.Unix(res.Meta.RegularMarketTime, 0).UTC(),
	}
	if quote.Symbol == "" {
		quote.Symbol = symbol
	}
	if len(res.Indicators.Quote) > 0 {
		day := res.Indicators.Quote[0]
		quote.Open = last(day.Open)
		quote.High = last(day.High)
		quote.Low = last(day.Low)
		quote.Close = last(day.Close)
		quote.Volume = last(day.Volume)
	}
	return quote, nil
}

// Format renders a quote as a short text summary.
func Format(q *Quote) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Current stock data for %s:\n", q.Symbol)
	fmt.Fprintf(&sb, "- Price: %.2f %s\n", q.Price, q.Currency)
	fmt.Fprintf(&sb, "- As of: %s\n", q.AsOf.Format(time.RFC3339))
	writeMoney(&sb, "Open", q.Open)
	writeMoney(&sb, "High", q.High)
	writeMoney(&sb, "Low", q.Low)
	writeMoney(&sb, "Close", q.Close)
	if q.Volume != nil {
		fmt.Fprintf(&sb, "- Volume: %s\n", strconv.FormatInt(*q.Volume, 10))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func writeMoney(sb *strings.Builder, label string, v *float64) {
	if v != nil {
		fmt.Fprintf(sb, "- %s: %.2f\n", label, *v)
	}
}

func last[T any](values []*T) *T {
	for i := len(values) - 1; i >= 0; i-- {
		if values[i] != nil {
			return values[i]
		}
	}
	return nil
}
