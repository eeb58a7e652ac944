// Package risk turns a raw model probability into a discrete risk tier
// with a derived confidence, and maps tier plus input values to textual
// recommendations.
package risk

import "fmt"

type Tier string

const (
	TierLow    Tier = "Low"
	TierMedium Tier = "Medium"
	TierHigh   Tier = "High"
)

// Thresholds are the tier cut points. Boundary values belong to the
// upper tier: probability >= High is High, probability >= Medium is
// Medium, anything below is Low.
type Thresholds struct {
	Medium float64 `yaml:"medium"`
	High   float64 `yaml:"high"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{Medium: 0.3, High: 0.7}
}

func (t Thresholds) Validate() error {
	if t.Medium <= 0 || t.High >= 1 || t.Medium >= t.High {
		return fmt.Errorf("invalid risk thresholds: medium=%g high=%g", t.Medium, t.High)
	}
	return nil
}

// Interpret maps a positive-class probability to a tier and a confidence
// percentage. Confidence is the distance from the decision boundary, not
// the raw probability: it reflects how strongly the model favors
// whichever class it predicted.
func Interpret(probability float64, thresholds Thresholds) (Tier, float64) {
	tier := TierLow
	switch {
	case probability >= thresholds.High:
		tier = TierHigh
	case probability >= thresholds.Medium:
		tier = TierMedium
	}

	confidence := probability
	if 1-probability > confidence {
		confidence = 1 - probability
	}
	return tier, confidence * 100
}
