// Package predict orchestrates a prediction request: normalize the raw
// input, run the frozen pipeline, interpret the probability and attach
// recommendations. It is the only surface the HTTP layer talks to.
package predict

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"heartguard/ml"
	"heartguard/risk"
	"heartguard/schema"
)

// ErrInference marks an unexpected failure inside the frozen pipeline.
// It is surfaced to the caller as a generic failure; the host process
// keeps serving.
var ErrInference = errors.New("inference failed")

const cacheSize = 512

// Result is the outcome of one orchestrated prediction.
type Result struct {
	Label             int       `json:"label"`
	Probability       float64   `json:"probability"`
	RiskTier          risk.Tier `json:"risk_tier"`
	ConfidencePercent float64   `json:"confidence_percent"`
	Recommendations   []string  `json:"recommendations"`
	ModelVersion      string    `json:"model_version"`
	Cached            bool      `json:"-"`
}

// Health reports artifact availability for the health-check endpoint.
type Health struct {
	ModelLoaded  bool   `json:"model_loaded"`
	ModelVersion string `json:"model_version"`
	FeatureCount int    `json:"feature_count"`
}

type inference struct {
	label       int
	probability float64
}

// Service holds the loaded artifact and the tunable risk thresholds.
// The artifact is read-only after construction; thresholds are the one
// mutable knob and sit behind a mutex for the config watcher.
type Service struct {
	artifact *ml.Artifact
	metadata *ml.Metadata
	logger   *zap.Logger

	mu         sync.RWMutex
	thresholds risk.Thresholds

	cache *lru.Cache[string, inference]
}

// NewService validates the metadata feature list against the hardcoded
// schema and wires the service. A schema disagreement here means the
// artifact was trained on different columns and must not be served.
func NewService(artifact *ml.Artifact, metadata *ml.Metadata, thresholds risk.Thresholds, logger *zap.Logger) (*Service, error) {
	if artifact == nil {
		return nil, errors.New("artifact is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}
	if metadata != nil {
		if err := schema.ValidateNames(metadata.FeatureNames); err != nil {
			return nil, fmt.Errorf("%w: %v", ml.ErrSchemaMismatch, err)
		}
	}
	if err := schema.ValidateNames(artifact.FeatureNames); err != nil {
		return nil, fmt.Errorf("%w: %v", ml.ErrSchemaMismatch, err)
	}

	cache, err := lru.New[string, inference](cacheSize)
	if err != nil {
		return nil, err
	}

	return &Service{
		artifact:   artifact,
		metadata:   metadata,
		logger:     logger,
		thresholds: thresholds,
		cache:      cache,
	}, nil
}

// Predict runs the full normalize-predict-interpret-recommend chain.
// Validation failures carry the offending field; pipeline failures come
// back wrapped in ErrInference.
func (s *Service) Predict(ctx context.Context, raw schema.RawInput, locale language.Tag) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vector, err := schema.Normalize(raw)
	if err != nil {
		return nil, err
	}

	key := vectorKey(vector)
	inf, cached := s.cache.Get(key)
	if !cached {
		label, probability, err := s.artifact.Predict(vector)
		if err != nil {
			s.logger.Error("pipeline prediction failed", zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrInference, err)
		}
		inf = inference{label: label, probability: probability}
		s.cache.Add(key, inf)
	}

	tier, confidence := risk.Interpret(inf.probability, s.Thresholds())
	result := &Result{
		Label:             inf.label,
		Probability:       inf.probability,
		RiskTier:          tier,
		ConfidencePercent: confidence,
		Recommendations:   risk.Recommend(tier, raw, locale),
		ModelVersion:      s.modelVersion(),
		Cached:            cached,
	}
	return result, nil
}

func (s *Service) Health() Health {
	return Health{
		ModelLoaded:  true,
		ModelVersion: s.modelVersion(),
		FeatureCount: s.artifact.FeatureCount(),
	}
}

func (s *Service) Metadata() *ml.Metadata {
	return s.metadata
}

func (s *Service) Thresholds() risk.Thresholds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.thresholds
}

// SetThresholds swaps the tier cut points at runtime. Invalid values are
// rejected and the previous thresholds stay in effect.
func (s *Service) SetThresholds(thresholds risk.Thresholds) error {
	if err := thresholds.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.thresholds = thresholds
	s.mu.Unlock()
	s.logger.Info("risk thresholds updated",
		zap.Float64("medium", thresholds.Medium),
		zap.Float64("high", thresholds.High))
	return nil
}

func (s *Service) modelVersion() string {
	if s.metadata != nil && s.metadata.Version != "" {
		return s.metadata.Version
	}
	return strconv.Itoa(s.artifact.Version)
}

// vectorKey produces a stable cache key from the normalized vector.
// Normalization is deterministic, so identical raw input always lands on
// the same key.
func vectorKey(vector []float64) string {
	var b strings.Builder
	for i, value := range vector {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(strconv.FormatFloat(value, 'g', -1, 64))
	}
	return b.String()
}
