// Package stats provides runtime statistics tracking for logbook.
package stats

import (
	"fmt"
	"runtime"
	"sync"
	"time"
)

// Collector collects and tracks agent statistics.
type Collector struct {
	mu            sync.Mutex
	startTime     time.Time
	requestCount  int64
	tokenCount    int64
	errorCount    int64
	toolCalls     int64
	toolFailures  int64
	totalDuration int64 // nanoseconds
}

// NewCollector creates a new stats collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
	}
}

// Stats represents statistics at a point in time.
type Stats struct {
	// System resources
	MemoryStats MemoryStats `json:"memory"`
	Goroutines  int         `json:"goroutines"`
	Uptime      string      `json:"uptime"`

	// Agent metrics
	RequestCount int64   `json:"request_count"`
	TokenCount   int64   `json:"token_count"`
	ErrorCount   int64   `json:"error_count"`
	ToolCalls    int64   `json:"tool_calls"`
	ToolFailures int64   `json:"tool_failures"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
}

// MemoryStats represents memory usage statistics.
type MemoryStats struct {
	HeapAllocMB  float64 `json:"heap_alloc_mb"`
	HeapSysMB    float64 `json:"heap_sys_mb"`
	StackInuseMB float64 `json:"stack_inuse_mb"`
	NumGC        uint32  `json:"num_gc"`
}

// Collect returns current statistics.
func (c *Collector) Collect() *Stats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	c.mu.Lock()
	defer c.mu.Unlock()

	avgLatency := float64(0)
	if c.requestCount > 0 {
		avgLatency = float64(c.totalDuration) / float64(c.requestCount) / 1e6 // nanos to millis
	}

	return &Stats{
		MemoryStats: MemoryStats{
			HeapAllocMB:  bytesToMB(int64(m.HeapAlloc)),
			HeapSysMB:    bytesToMB(int64(m.HeapSys)),
			StackInuseMB: bytesToMB(int64(m.StackInuse)),
			NumGC:        m.NumGC,
		},
		Goroutines:   runtime.NumGoroutine(),
		Uptime:       time.Since(c.startTime).Round(time.Second).String(),
		RequestCount: c.requestCount,
		TokenCount:   c.tokenCount,
		ErrorCount:   c.errorCount,
		ToolCalls:    c.toolCalls,
		ToolFailures: c.toolFailures,
		AvgLatencyMs: avgLatency,
	}
}

// RecordRequest records a completed model request.
func (c *Collector) RecordRequest(tokens int, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requestCount++
	c.tokenCount += int64(tokens)
	c.totalDuration += duration.Nanoseconds()
}

// RecordError records a failed model request.
func (c *Collector) RecordError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errorCount++
}

// RecordTool records one tool call.
func (c *Collector) RecordTool(success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.toolCalls++
	if !success {
		c.toolFailures++
	}
}

// StartTime returns when the collector started.
func (c *Collector) StartTime() time.Time {
	return c.startTime
}

// GetMetrics returns current metrics.
func (c *Collector) GetMetrics() (requests, tokens, errors int64, totalDuration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requestCount, c.tokenCount, c.errorCount, time.Duration(c.totalDuration)
}

// Summary is a one-line report for the CLI.
func (s *Stats) Summary() string {
	return fmt.Sprintf("requests=%d tokens=%d errors=%d tools=%d tool_failures=%d avg_latency=%.0fms uptime=%s",
		s.RequestCount, s.TokenCount, s.ErrorCount, s.ToolCalls, s.ToolFailures, s.AvgLatencyMs, s.Uptime)
}

// bytesToMB converts bytes to megabytes.
func bytesToMB(b int64) float64 {
	return float64(b) / 1024 / 1024
}
