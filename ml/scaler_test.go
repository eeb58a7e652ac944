package ml

import (
	"math"
	"testing"
)

func TestFitScalerTransform(t *testing.T) {
	features := [][]float64{
		{1, 10, 5},
		{2, 20, 5},
		{3, 30, 5},
	}

	scaler, err := FitScaler(features)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if scaler.Means[0] != 2 || scaler.Means[1] != 20 {
		t.Fatalf("unexpected means: %v", scaler.Means)
	}
	// constant column keeps std 1 so it passes through
	if scaler.Stds[2] != 1 {
		t.Fatalf("expected unit std for constant column, got %g", scaler.Stds[2])
	}

	scaled, err := scaler.Transform([]float64{2, 20, 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(scaled[0]) > 1e-9 || math.Abs(scaled[1]) > 1e-9 {
		t.Fatalf("mean input should scale to zero: %v", scaled)
	}
}

func TestTransformWrongLength(t *testing.T) {
	scaler := &StandardScaler{Means: []float64{0, 0}, Stds: []float64{1, 1}}
	if _, err := scaler.Transform([]float64{1}); err == nil {
		t.Fatal("expected error for wrong length")
	}
}

func TestFitScalerEmpty(t *testing.T) {
	if _, err := FitScaler(nil); err == nil {
		t.Fatal("expected error for empty features")
	}
}
