package monitoring

import (
	"sync"
	"testing"
	"time"
)

func TestCollectorSnapshot(t *testing.T) {
	collector := NewCollector()
	collector.RecordPrediction(10*time.Millisecond, false)
	collector.RecordPrediction(30*time.Millisecond, true)
	collector.RecordValidationFailure()
	collector.RecordInferenceFailure()
	collector.RecordInferenceFailure()

	snapshot := collector.Snapshot()
	if snapshot.Predictions != 2 {
		t.Fatalf("expected 2 predictions, got %d", snapshot.Predictions)
	}
	if snapshot.ValidationFailures != 1 {
		t.Fatalf("expected 1 validation failure, got %d", snapshot.ValidationFailures)
	}
	if snapshot.InferenceFailures != 2 {
		t.Fatalf("expected 2 inference failures, got %d", snapshot.InferenceFailures)
	}
	if snapshot.CacheHits != 1 {
		t.Fatalf("expected 1 cache hit, got %d", snapshot.CacheHits)
	}
	if snapshot.AvgLatencyMs != 20 {
		t.Fatalf("expected 20ms average latency, got %v", snapshot.AvgLatencyMs)
	}
	if snapshot.UptimeSeconds < 0 {
		t.Fatalf("negative uptime: %v", snapshot.UptimeSeconds)
	}
}

func TestCollectorEmpty(t *testing.T) {
	snapshot := NewCollector().Snapshot()
	if snapshot.Predictions != 0 || snapshot.AvgLatencyMs != 0 {
		t.Fatalf("unexpected empty snapshot: %+v", snapshot)
	}
}

func TestCollectorConcurrent(t *testing.T) {
	collector := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				collector.RecordPrediction(time.Millisecond, j%2 == 0)
			}
		}()
	}
	wg.Wait()

	snapshot := collector.Snapshot()
	if snapshot.Predictions != 1000 {
		t.Fatalf("expected 1000 predictions, got %d", snapshot.Predictions)
	}
	if snapshot.CacheHits != 500 {
		t.Fatalf("expected 500 cache hits, got %d", snapshot.CacheHits)
	}
}

func TestFeedBroadcastNonBlocking(t *testing.T) {
	feed := NewFeed(nil)
	// not running; broadcasts beyond the buffer must drop, not block
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			feed.Broadcast(PredictionEvent{RequestID: "r", RiskTier: "Low", Probability: 0.1, Timestamp: time.Now()})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Broadcast blocked on a full buffer")
	}
}

func TestFeedStop(t *testing.T) {
	feed := NewFeed(nil)
	finished := make(chan struct{})
	go func() {
		feed.Run()
		close(finished)
	}()

	feed.Broadcast(PredictionEvent{RequestID: "r1", RiskTier: "High", Probability: 0.9, Timestamp: time.Now()})
	feed.Stop()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
}
