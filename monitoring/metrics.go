// Package monitoring provides in-process counters for the API and the
// WebSocket feed that streams prediction events to dashboard clients.
package monitoring

import (
	"sync"
	"time"
)

// Collector accumulates serving counters. All methods are safe for
// concurrent use.
type Collector struct {
	mu sync.RWMutex

	predictions        int64
	validationFailures int64
	inferenceFailures  int64
	cacheHits          int64
	totalLatency       time.Duration

	startTime time.Time
}

func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

func (c *Collector) RecordPrediction(latency time.Duration, cached bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.predictions++
	c.totalLatency += latency
	if cached {
		c.cacheHits++
	}
}

func (c *Collector) RecordValidationFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.validationFailures++
}

func (c *Collector) RecordInferenceFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inferenceFailures++
}

// Snapshot is a point-in-time view of the counters.
type Snapshot struct {
	Predictions        int64   `json:"predictions"`
	ValidationFailures int64   `json:"validation_failures"`
	InferenceFailures  int64   `json:"inference_failures"`
	CacheHits          int64   `json:"cache_hits"`
	AvgLatencyMs       float64 `json:"avg_latency_ms"`
	UptimeSeconds      float64 `json:"uptime_seconds"`
}

func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snapshot := Snapshot{
		Predictions:        c.predictions,
		ValidationFailures: c.validationFailures,
		InferenceFailures:  c.inferenceFailures,
		CacheHits:          c.cacheHits,
		UptimeSeconds:      time.Since(c.startTime).Seconds(),
	}
	if c.predictions > 0 {
		snapshot.AvgLatencyMs = float64(c.totalLatency.Milliseconds()) / float64(c.predictions)
	}
	return snapshot
}
