package predict

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"golang.org/x/text/language"

	"heartguard/ml"
	"heartguard/risk"
	"heartguard/schema"
)

// fixedArtifact always predicts a positive probability of 0.75.
func fixedArtifact() *ml.Artifact {
	dims := schema.FeatureCount()
	return &ml.Artifact{
		Version:      1,
		FeatureNames: schema.FeatureNames(),
		Scaler: &ml.StandardScaler{
			Means: make([]float64, dims),
			Stds:  ones(dims),
		},
		Forest: &ml.RandomForest{
			NumClasses: 2,
			Trees: []ml.DecisionTree{{
				Nodes: []ml.TreeNode{{
					FeatureIdx:  -1,
					LeftChild:   -1,
					RightChild:  -1,
					ClassCounts: []int{1, 3},
					IsLeaf:      true,
				}},
			}},
		},
	}
}

func ones(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}

func testMetadata() *ml.Metadata {
	return &ml.Metadata{
		ModelName:    "Heart Disease Classifier",
		Version:      "1.0",
		FeatureNames: schema.FeatureNames(),
	}
}

func scenarioInput() schema.RawInput {
	return schema.RawInput{
		"age":                 63.0,
		"sex":                 "Male",
		"chest_pain_type":     "Typical Angina",
		"resting_bp_s":        145.0,
		"cholesterol":         233.0,
		"fasting_blood_sugar": "Yes",
		"resting_ecg":         "Normal",
		"max_heart_rate":      150.0,
		"exercise_angina":     "No",
		"oldpeak":             2.3,
		"st_slope":            "Downsloping",
	}
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	service, err := NewService(fixedArtifact(), testMetadata(), risk.DefaultThresholds(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return service
}

func TestServicePredict(t *testing.T) {
	service := newTestService(t)

	result, err := service.Predict(context.Background(), scenarioInput(), language.English)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Probability != 0.75 {
		t.Fatalf("expected probability 0.75, got %g", result.Probability)
	}
	if result.Label != 1 {
		t.Fatalf("expected label 1, got %d", result.Label)
	}
	if result.RiskTier != risk.TierHigh {
		t.Fatalf("expected High tier, got %s", result.RiskTier)
	}
	if result.ConfidencePercent != 75 {
		t.Fatalf("expected confidence 75, got %g", result.ConfidencePercent)
	}
	if len(result.Recommendations) == 0 {
		t.Fatal("expected recommendations")
	}
	if result.ModelVersion != "1.0" {
		t.Fatalf("expected model version 1.0, got %q", result.ModelVersion)
	}
}

func TestServiceValidationError(t *testing.T) {
	service := newTestService(t)

	raw := scenarioInput()
	raw["age"] = 150.0

	_, err := service.Predict(context.Background(), raw, language.English)
	var validation *schema.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if validation.Field != "age" {
		t.Fatalf("expected age to be flagged, got %q", validation.Field)
	}
}

func TestServiceCache(t *testing.T) {
	service := newTestService(t)

	first, err := service.Predict(context.Background(), scenarioInput(), language.English)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Cached {
		t.Fatal("first call should not be cached")
	}

	second, err := service.Predict(context.Background(), scenarioInput(), language.English)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !second.Cached {
		t.Fatal("second identical call should hit the cache")
	}
	if second.Probability != first.Probability {
		t.Fatalf("cache changed the result: %g vs %g", second.Probability, first.Probability)
	}
}

func TestServiceSetThresholds(t *testing.T) {
	service := newTestService(t)

	if err := service.SetThresholds(risk.Thresholds{Medium: 0.76, High: 0.9}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := service.Predict(context.Background(), scenarioInput(), language.English)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.RiskTier != risk.TierLow {
		t.Fatalf("expected Low tier under raised thresholds, got %s", result.RiskTier)
	}

	if err := service.SetThresholds(risk.Thresholds{Medium: 0.9, High: 0.1}); err == nil {
		t.Fatal("expected error for inverted thresholds")
	}
}

func TestNewServiceMetadataMismatch(t *testing.T) {
	metadata := testMetadata()
	metadata.FeatureNames = metadata.FeatureNames[:5]

	_, err := NewService(fixedArtifact(), metadata, risk.DefaultThresholds(), nil)
	if !errors.Is(err, ml.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}

func TestServiceHealth(t *testing.T) {
	service := newTestService(t)

	health := service.Health()
	if !health.ModelLoaded {
		t.Fatal("expected model to be loaded")
	}
	if health.FeatureCount != schema.FeatureCount() {
		t.Fatalf("unexpected feature count: %d", health.FeatureCount)
	}
}

// TestEndToEndTrainedForest runs the orchestrated call against a forest
// actually trained on synthetic data shaped like the real dataset.
func TestEndToEndTrainedForest(t *testing.T) {
	features, labels := syntheticPatients(200)

	scaler, err := ml.FitScaler(features)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	scaled, err := scaler.TransformAll(features)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	forest, err := ml.TrainForest(scaled, labels, ml.ForestConfig{Trees: 20, MaxDepth: 6, Seed: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	artifact := &ml.Artifact{
		Version:      1,
		FeatureNames: schema.FeatureNames(),
		Scaler:       scaler,
		Forest:       forest,
	}
	service, err := NewService(artifact, testMetadata(), risk.DefaultThresholds(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := service.Predict(context.Background(), scenarioInput(), language.English)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Probability < 0 || result.Probability > 1 {
		t.Fatalf("probability out of range: %g", result.Probability)
	}

	tier, _ := risk.Interpret(result.Probability, risk.DefaultThresholds())
	if result.RiskTier != tier {
		t.Fatalf("tier inconsistent with thresholds: %s vs %s", result.RiskTier, tier)
	}
}

// syntheticPatients generates in-domain rows where the label follows ST
// depression, giving the forest a learnable signal.
func syntheticPatients(n int) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(11))
	features := make([][]float64, n)
	labels := make([]int, n)
	for i := 0; i < n; i++ {
		oldpeak := rng.Float64() * 6.2
		// age, sex, chest pain, resting BP, cholesterol, fasting sugar,
		// resting ECG, max HR, exercise angina, oldpeak, ST slope
		features[i] = []float64{
			18 + rng.Float64()*80,
			float64(rng.Intn(2)),
			float64(rng.Intn(4)),
			90 + rng.Float64()*110,
			100 + rng.Float64()*500,
			float64(rng.Intn(2)),
			float64(rng.Intn(3)),
			60 + rng.Float64()*142,
			float64(rng.Intn(2)),
			oldpeak,
			float64(rng.Intn(3)),
		}
		if oldpeak > 2 {
			labels[i] = 1
		}
	}
	return features, labels
}
