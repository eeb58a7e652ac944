package risk

import (
	"testing"

	"golang.org/x/text/language"

	"heartguard/schema"
)

func baselineInput() schema.RawInput {
	return schema.RawInput{
		"age":                 45.0,
		"sex":                 "Female",
		"chest_pain_type":     "Non-Anginal Pain",
		"resting_bp_s":        120.0,
		"cholesterol":         180.0,
		"fasting_blood_sugar": "No",
		"resting_ecg":         "Normal",
		"max_heart_rate":      150.0,
		"exercise_angina":     "No",
		"oldpeak":             0.5,
		"st_slope":            "Upsloping",
	}
}

func TestRecommendBaseOnly(t *testing.T) {
	recs := Recommend(TierLow, baselineInput(), language.English)
	base := catalogs[language.English].base[TierLow]

	if len(recs) != len(base) {
		t.Fatalf("expected %d recommendations, got %d: %v", len(base), len(recs), recs)
	}
	for i, text := range base {
		if recs[i] != text {
			t.Fatalf("recommendation %d: expected %q, got %q", i, text, recs[i])
		}
	}
}

func TestRecommendAdvisoryTriggers(t *testing.T) {
	raw := baselineInput()
	raw["cholesterol"] = 280.0
	raw["resting_bp_s"] = 150.0
	raw["oldpeak"] = 2.3

	recs := Recommend(TierMedium, raw, language.English)
	base := catalogs[language.English].base[TierMedium]

	if len(recs) != len(base)+3 {
		t.Fatalf("expected %d recommendations, got %d: %v", len(base)+3, len(recs), recs)
	}
	// condition-triggered items follow the base set in evaluation order
	advisory := catalogs[language.English].advisory
	if recs[len(base)] != advisory["cholesterol"] {
		t.Fatalf("expected cholesterol advisory first, got %q", recs[len(base)])
	}
	if recs[len(base)+1] != advisory["resting_bp_s"] {
		t.Fatalf("expected blood pressure advisory second, got %q", recs[len(base)+1])
	}
	if recs[len(base)+2] != advisory["oldpeak"] {
		t.Fatalf("expected oldpeak advisory third, got %q", recs[len(base)+2])
	}
}

func TestRecommendNoDuplicates(t *testing.T) {
	raw := baselineInput()
	raw["cholesterol"] = 280.0
	raw["fasting_blood_sugar"] = "Yes"
	raw["exercise_angina"] = "Yes"

	recs := Recommend(TierHigh, raw, language.English)
	seen := make(map[string]bool)
	for _, text := range recs {
		if seen[text] {
			t.Fatalf("duplicate recommendation: %q", text)
		}
		seen[text] = true
	}
}

func TestRecommendSpanish(t *testing.T) {
	recs := Recommend(TierHigh, baselineInput(), language.Spanish)
	if len(recs) == 0 {
		t.Fatal("expected recommendations")
	}
	if recs[0] != catalogs[language.Spanish].base[TierHigh][0] {
		t.Fatalf("expected Spanish catalog, got %q", recs[0])
	}
}

func TestRecommendUnknownLocaleFallsBack(t *testing.T) {
	recs := Recommend(TierLow, baselineInput(), language.German)
	if recs[0] != catalogs[language.English].base[TierLow][0] {
		t.Fatalf("expected English fallback, got %q", recs[0])
	}
}

func TestMatchLocale(t *testing.T) {
	if tag := MatchLocale("es-MX,es;q=0.9"); tag != language.Spanish {
		t.Fatalf("expected Spanish, got %v", tag)
	}
	if tag := MatchLocale(""); tag != language.English {
		t.Fatalf("expected English default, got %v", tag)
	}
	if tag := MatchLocale("fr-FR"); tag != language.English {
		t.Fatalf("expected English fallback, got %v", tag)
	}
}
