package executor

import (
	"context"
	"time"

	apperrors "github.com/logbook-ai/logbook/internal/errors"
	"github.com/logbook-ai/logbook/internal/stocks"
)

// QuoteSource fetches stock quotes.
type QuoteSource interface {
	Quote(ctx context.Context, symbol string) (*stocks.Quote, error)
}

// StockQuote reports the latest price for a ticker.
type StockQuote struct {
	Quotes QuoteSource
}

func (t *StockQuote) Name() string { return "get_stock_data" }

func (t *StockQuote) Description() string { return "Get the current stock data for a ticker" }

func (t *StockQuote) Execute(ctx context.Context, input map[string]any) (*Result, error) {
	start := time.Now()

	ticker, ok := input["ticker"].(string)
	if !ok || ticker == "" {
		return TimedResult(NewErrorResult(apperrors.User(apperrors.CodeToolInvalidParams, "ticker is required")), start), nil
	}
	if t.Quotes == nil {
		return TimedResult(NewErrorResult(apperrors.Config(apperrors.CodeToolExecutionFailed, "quote service not configured")), start), nil
	}

	quote, err := t.Quotes.Quote(ctx, ticker)
	if err != nil {
		return TimedResult(NewErrorResult(err), start), nil
	}
	return TimedResult(NewSuccessResult(stocks.Format(quote)), start), nil
}
