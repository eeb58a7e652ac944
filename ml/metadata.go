package ml

import (
	"encoding/json"
	"os"
)

// Metadata describes the trained model: feature list, provenance and the
// metrics measured on the trainer's own holdout split. Metrics are
// informational only and always come from the local training run, never
// from documentation.
type Metadata struct {
	ModelName          string             `json:"model_name"`
	ModelType          string             `json:"model_type"`
	Version            string             `json:"version"`
	CreatedDate        string             `json:"created_date"`
	DatasetInfo        DatasetInfo        `json:"dataset_info"`
	PerformanceMetrics PerformanceMetrics `json:"performance_metrics"`
	FeatureNames       []string           `json:"feature_names"`
	PreprocessingSteps []string           `json:"preprocessing_steps"`
}

type DatasetInfo struct {
	Source             string         `json:"source"`
	FeaturesCount      int            `json:"features_count"`
	SamplesCount       int            `json:"samples_count"`
	TargetDistribution map[string]int `json:"target_distribution"`
}

type PerformanceMetrics struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1Score   float64 `json:"f1_score"`
	AUC       float64 `json:"auc"`
}

func LoadMetadata(path string) (*Metadata, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, &ArtifactLoadError{Path: path, Err: err}
	}
	var metadata Metadata
	if err := json.Unmarshal(payload, &metadata); err != nil {
		return nil, &ArtifactLoadError{Path: path, Err: err}
	}
	return &metadata, nil
}

func (m *Metadata) Save(path string) error {
	payload, err := json.MarshalIndent(m, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}
