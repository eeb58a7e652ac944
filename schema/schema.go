// Package schema defines the ordered feature schema of the heart disease
// model and the normalization of raw form input into feature vectors.
package schema

import "fmt"

type FeatureKind int

const (
	Continuous FeatureKind = iota
	Boolean
	Nominal
)

// FeatureSpec describes one model input: its training-time column name,
// kind, valid domain and label-to-code encoding.
type FeatureSpec struct {
	Name  string
	Kind  FeatureKind
	Min   float64
	Max   float64
	Codes map[string]float64
}

// specs holds the schema in training column order. The order must match
// the column order the artifact was trained on; reordering entries breaks
// every prediction without any error being raised downstream.
var specs = []FeatureSpec{
	{Name: "age", Kind: Continuous, Min: 18, Max: 100},
	{Name: "sex", Kind: Boolean, Codes: map[string]float64{
		"Female": 0, "Male": 1,
	}},
	{Name: "chest_pain_type", Kind: Nominal, Codes: map[string]float64{
		"Typical Angina":   0,
		"Atypical Angina":  1,
		"Non-Anginal Pain": 2,
		"Asymptomatic":     3,
	}},
	{Name: "resting_bp_s", Kind: Continuous, Min: 90, Max: 200},
	{Name: "cholesterol", Kind: Continuous, Min: 100, Max: 600},
	{Name: "fasting_blood_sugar", Kind: Boolean, Codes: map[string]float64{
		"No": 0, "Yes": 1,
	}},
	{Name: "resting_ecg", Kind: Nominal, Codes: map[string]float64{
		"Normal":             0,
		"ST-T Abnormality":   1,
		"LV Hypertrophy":     2,
	}},
	{Name: "max_heart_rate", Kind: Continuous, Min: 60, Max: 202},
	{Name: "exercise_angina", Kind: Boolean, Codes: map[string]float64{
		"No": 0, "Yes": 1,
	}},
	{Name: "oldpeak", Kind: Continuous, Min: 0, Max: 6.2},
	{Name: "st_slope", Kind: Nominal, Codes: map[string]float64{
		"Upsloping":   0,
		"Flat":        1,
		"Downsloping": 2,
	}},
}

var specIndex = buildIndex()

func buildIndex() map[string]int {
	index := make(map[string]int, len(specs))
	for i, spec := range specs {
		index[spec.Name] = i
	}
	return index
}

// Specs returns the feature specs in training column order.
func Specs() []FeatureSpec {
	out := make([]FeatureSpec, len(specs))
	copy(out, specs)
	return out
}

// FeatureNames returns the feature names in training column order.
func FeatureNames() []string {
	names := make([]string, len(specs))
	for i, spec := range specs {
		names[i] = spec.Name
	}
	return names
}

// FeatureCount returns the number of model inputs.
func FeatureCount() int {
	return len(specs)
}

// ByName looks up a spec by feature name.
func ByName(name string) (FeatureSpec, bool) {
	i, ok := specIndex[name]
	if !ok {
		return FeatureSpec{}, false
	}
	return specs[i], true
}

// ValidateNames checks the metadata feature list against the hardcoded
// schema. Any disagreement in length, name or order is fatal: the artifact
// was trained on different columns than this binary encodes.
func ValidateNames(names []string) error {
	if len(names) != len(specs) {
		return fmt.Errorf("metadata lists %d features, schema has %d", len(names), len(specs))
	}
	for i, name := range names {
		if specs[i].Name != name {
			return fmt.Errorf("feature %d: metadata has %q, schema has %q", i, name, specs[i].Name)
		}
	}
	return nil
}
