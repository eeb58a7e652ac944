package schema

import "testing"

func TestFeatureOrder(t *testing.T) {
	expected := []string{
		"age", "sex", "chest_pain_type", "resting_bp_s", "cholesterol",
		"fasting_blood_sugar", "resting_ecg", "max_heart_rate",
		"exercise_angina", "oldpeak", "st_slope",
	}
	names := FeatureNames()
	if len(names) != len(expected) {
		t.Fatalf("expected %d features, got %d", len(expected), len(names))
	}
	for i, name := range expected {
		if names[i] != name {
			t.Fatalf("feature %d: expected %q, got %q", i, name, names[i])
		}
	}
	if FeatureCount() != len(expected) {
		t.Fatalf("unexpected feature count: %d", FeatureCount())
	}
}

func TestByName(t *testing.T) {
	spec, ok := ByName("cholesterol")
	if !ok {
		t.Fatal("expected cholesterol spec")
	}
	if spec.Kind != Continuous || spec.Min != 100 || spec.Max != 600 {
		t.Fatalf("unexpected cholesterol spec: %+v", spec)
	}

	if _, ok := ByName("unknown_feature"); ok {
		t.Fatal("expected lookup miss")
	}
}

func TestValidateNames(t *testing.T) {
	if err := ValidateNames(FeatureNames()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	short := FeatureNames()[:5]
	if err := ValidateNames(short); err == nil {
		t.Fatal("expected error for short list")
	}

	swapped := FeatureNames()
	swapped[0], swapped[1] = swapped[1], swapped[0]
	if err := ValidateNames(swapped); err == nil {
		t.Fatal("expected error for reordered list")
	}
}
