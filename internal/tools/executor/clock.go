package executor

import (
	"context"
	"time"
)

// UTCTime reports the current time in UTC.
type UTCTime struct {
	// Now defaults to time.Now.
	Now func() time.Time
}

func (t *UTCTime) Name() string { return "utc_time" }

func (t *UTCTime) Description() string { return "Return current UTC time in ISO-8601 format" }

func (t *UTCTime) Execute(ctx context.Context, input map[string]any) (*Result, error) {
	start := time.Now()

	now := time.Now
	if t.Now != nil {
		now = t.Now
	}
	return TimedResult(NewSuccessResult(now().UTC().Format(time.RFC3339Nano)), start), nil
}
