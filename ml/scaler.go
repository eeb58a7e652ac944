package ml

import (
	"errors"
	"math"
)

// StandardScaler standardizes each feature to zero mean and unit
// variance, mirroring the preprocessing step the forest was trained
// behind.
type StandardScaler struct {
	Means []float64 `json:"means"`
	Stds  []float64 `json:"stds"`
}

func FitScaler(features [][]float64) (*StandardScaler, error) {
	if len(features) == 0 {
		return nil, errors.New("features is empty")
	}

	dims := len(features[0])
	means := make([]float64, dims)
	stds := make([]float64, dims)

	for _, row := range features {
		for i, value := range row {
			means[i] += value
		}
	}
	n := float64(len(features))
	for i := range means {
		means[i] /= n
	}

	for _, row := range features {
		for i, value := range row {
			diff := value - means[i]
			stds[i] += diff * diff
		}
	}
	for i := range stds {
		stds[i] = math.Sqrt(stds[i] / n)
		// constant columns pass through unscaled
		if stds[i] == 0 {
			stds[i] = 1
		}
	}

	return &StandardScaler{Means: means, Stds: stds}, nil
}

func (s *StandardScaler) Transform(vector []float64) ([]float64, error) {
	if len(vector) != len(s.Means) {
		return nil, errors.New("vector length does not match scaler dimensions")
	}
	scaled := make([]float64, len(vector))
	for i, value := range vector {
		scaled[i] = (value - s.Means[i]) / s.Stds[i]
	}
	return scaled, nil
}

func (s *StandardScaler) TransformAll(features [][]float64) ([][]float64, error) {
	scaled := make([][]float64, len(features))
	for i, row := range features {
		out, err := s.Transform(row)
		if err != nil {
			return nil, err
		}
		scaled[i] = out
	}
	return scaled, nil
}
