// Package ml provides the frozen prediction pipeline: a standard scaler
// and random forest bundled into a single JSON artifact, loaded once per
// process and read-only afterwards.
package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrSchemaMismatch reports a feature count or order inconsistency
// between the schema and the artifact. At startup it is fatal; at
// request time it guards against a silent wrong-length vector producing
// a meaningless prediction.
var ErrSchemaMismatch = errors.New("feature schema mismatch")

// ArtifactLoadError reports a missing, unreadable or corrupt artifact
// file. The application must refuse to serve predictions when it occurs.
type ArtifactLoadError struct {
	Path string
	Err  error
}

func (e *ArtifactLoadError) Error() string {
	return fmt.Sprintf("load model artifact %s: %v", e.Path, e.Err)
}

func (e *ArtifactLoadError) Unwrap() error { return e.Err }

// Artifact is the serialized scaler+classifier pipeline together with
// the feature names it was trained on.
type Artifact struct {
	Version      int             `json:"version"`
	FeatureNames []string        `json:"feature_names"`
	Scaler       *StandardScaler `json:"scaler"`
	Forest       *RandomForest   `json:"forest"`
}

// LoadArtifact reads and deserializes the artifact. The file handle is
// released as soon as the bytes are in memory; the decoded object lives
// for the rest of the process.
func LoadArtifact(path string) (*Artifact, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, &ArtifactLoadError{Path: path, Err: err}
	}

	var artifact Artifact
	if err := json.Unmarshal(payload, &artifact); err != nil {
		return nil, &ArtifactLoadError{Path: path, Err: err}
	}
	if artifact.Scaler == nil || artifact.Forest == nil || len(artifact.Forest.Trees) == 0 {
		return nil, &ArtifactLoadError{Path: path, Err: errors.New("incomplete pipeline")}
	}
	if len(artifact.FeatureNames) != len(artifact.Scaler.Means) {
		return nil, &ArtifactLoadError{
			Path: path,
			Err:  fmt.Errorf("%w: %d feature names, scaler has %d dimensions", ErrSchemaMismatch, len(artifact.FeatureNames), len(artifact.Scaler.Means)),
		}
	}
	return &artifact, nil
}

func (a *Artifact) Save(path string) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

func (a *Artifact) FeatureCount() int {
	return len(a.FeatureNames)
}

// PredictProba scales the vector and returns the class probability
// distribution. The length check runs before the forest is touched.
func (a *Artifact) PredictProba(vector []float64) ([]float64, error) {
	if len(vector) != len(a.FeatureNames) {
		return nil, fmt.Errorf("%w: got %d features, want %d", ErrSchemaMismatch, len(vector), len(a.FeatureNames))
	}
	scaled, err := a.Scaler.Transform(vector)
	if err != nil {
		return nil, err
	}
	return a.Forest.PredictProba(scaled)
}

// Predict returns the argmax label and the positive-class probability.
func (a *Artifact) Predict(vector []float64) (int, float64, error) {
	probs, err := a.PredictProba(vector)
	if err != nil {
		return 0, 0, err
	}
	if len(probs) < 2 {
		return 0, 0, errors.New("artifact is not a binary classifier")
	}
	label := 0
	if probs[1] >= probs[0] {
		label = 1
	}
	return label, probs[1], nil
}
