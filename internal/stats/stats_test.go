package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCollector(t *testing.T) {
	c := NewCollector()
	c.RecordRequest(100, 200*time.Millisecond)
	c.RecordRequest(50, 400*time.Millisecond)
	c.RecordError()
	c.RecordTool(true)
	c.RecordTool(false)

	s := c.Collect()
	assert.Equal(t, int64(2), s.RequestCount)
	assert.Equal(t, int64(150), s.TokenCount)
	assert.Equal(t, int64(1), s.ErrorCount)
	assert.Equal(t, int64(2), s.ToolCalls)
	assert.Equal(t, int64(1), s.ToolFailures)
	assert.InDelta(t, 300.0, s.AvgLatencyMs, 0.001)
	assert.Positive(t, s.Goroutines)

	assert.Contains(t, s.Summary(), "requests=2 tokens=150 errors=1 tools=2 tool_failures=1 avg_latency=300ms")

	requests, tokens, errs, total := c.GetMetrics()
	assert.Equal(t, int64(2), requests)
	assert.Equal(t, int64(150), tokens)
	assert.Equal(t, int64(1), errs)
	assert.Equal(t, 600*time.Millisecond, total)
}

func TestCollector_Empty(t *testing.T) {
	s := NewCollector().Collect()
	assert.Zero(t, s.AvgLatencyMs)
	assert.False(t, NewCollector().StartTime().IsZero())
}
