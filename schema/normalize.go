package schema

import "fmt"

// RawInput maps feature names to the raw values collected from the form.
// Continuous fields arrive as numbers, boolean and nominal fields as the
// human-readable labels listed in each feature's code table.
type RawInput map[string]interface{}

// ValidationError reports a malformed or out-of-range input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
}

// Normalize converts raw input into a feature vector in schema order.
// Every field is required. Out-of-range values are rejected, never
// clamped, so user entry mistakes surface instead of being masked.
func Normalize(raw RawInput) ([]float64, error) {
	vector := make([]float64, len(specs))
	for i, spec := range specs {
		value, ok := raw[spec.Name]
		if !ok {
			return nil, &ValidationError{Field: spec.Name, Reason: "missing"}
		}

		switch spec.Kind {
		case Continuous:
			number, ok := toFloat(value)
			if !ok {
				return nil, &ValidationError{Field: spec.Name, Reason: "expected a number"}
			}
			if number < spec.Min || number > spec.Max {
				return nil, &ValidationError{
					Field:  spec.Name,
					Reason: fmt.Sprintf("%g outside valid range [%g, %g]", number, spec.Min, spec.Max),
				}
			}
			vector[i] = number

		case Boolean, Nominal:
			label, ok := value.(string)
			if !ok {
				return nil, &ValidationError{Field: spec.Name, Reason: "expected a label"}
			}
			code, ok := spec.Codes[label]
			if !ok {
				return nil, &ValidationError{
					Field:  spec.Name,
					Reason: fmt.Sprintf("unknown label %q", label),
				}
			}
			vector[i] = code
		}
	}
	return vector, nil
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
