package ml

import (
	"math"
	"testing"
)

func separableData() ([][]float64, []int) {
	features := [][]float64{
		{0.1, 0.2}, {0.2, 0.1}, {0.15, 0.25}, {0.05, 0.3},
		{0.25, 0.15}, {0.1, 0.1}, {0.3, 0.2}, {0.2, 0.3},
		{0.9, 0.8}, {0.8, 0.9}, {0.85, 0.75}, {0.95, 0.7},
		{0.75, 0.85}, {0.9, 0.9}, {0.7, 0.8}, {0.8, 0.7},
	}
	labels := []int{0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 1, 1, 1}
	return features, labels
}

func TestTrainForestPredictProba(t *testing.T) {
	features, labels := separableData()

	forest, err := TrainForest(features, labels, ForestConfig{Trees: 20, MaxDepth: 4, Seed: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	probs, err := forest.PredictProba([]float64{0.1, 0.2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(probs) != 2 {
		t.Fatalf("expected 2 classes, got %d", len(probs))
	}
	if sum := probs[0] + probs[1]; math.Abs(sum-1) > 1e-9 {
		t.Fatalf("probabilities sum to %g", sum)
	}
	if probs[0] < 0.5 {
		t.Fatalf("expected class 0 to dominate, got %v", probs)
	}

	probs, err = forest.PredictProba([]float64{0.9, 0.85})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if probs[1] < 0.5 {
		t.Fatalf("expected class 1 to dominate, got %v", probs)
	}
}

func TestTrainForestEmpty(t *testing.T) {
	if _, err := TrainForest(nil, nil, DefaultForestConfig()); err == nil {
		t.Fatal("expected error for empty data")
	}
}

func TestTrainForestDeterministic(t *testing.T) {
	features, labels := separableData()

	first, err := TrainForest(features, labels, ForestConfig{Trees: 10, MaxDepth: 3, Seed: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := TrainForest(features, labels, ForestConfig{Trees: 10, MaxDepth: 3, Seed: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	probe := []float64{0.4, 0.6}
	p1, _ := first.PredictProba(probe)
	p2, _ := second.PredictProba(probe)
	if p1[1] != p2[1] {
		t.Fatalf("same seed produced different models: %g vs %g", p1[1], p2[1])
	}
}
