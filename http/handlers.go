package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"heartguard/db"
	"heartguard/ml"
	"heartguard/monitoring"
	"heartguard/predict"
	"heartguard/risk"
	"heartguard/schema"
)

// Predictor is the orchestration surface the handlers depend on.
type Predictor interface {
	Predict(ctx context.Context, raw schema.RawInput, locale language.Tag) (*predict.Result, error)
	Health() predict.Health
	Metadata() *ml.Metadata
}

var (
	predictor Predictor
	collector *monitoring.Collector
	feed      *monitoring.Feed
	logger    = zap.NewNop()
)

func SetPredictor(p Predictor)             { predictor = p }
func SetCollector(c *monitoring.Collector) { collector = c }
func SetFeed(f *monitoring.Feed)           { feed = f }

func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
}

func RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("POST /api/predict", handlePredict)
	mux.HandleFunc("GET /api/model/info", handleModelInfo)
	mux.HandleFunc("GET /api/predictions/recent", handleRecentPredictions)
	mux.HandleFunc("GET /api/stats/age-groups", handleAgeGroups)
	mux.HandleFunc("GET /api/metrics", handleMetrics)
	mux.HandleFunc("GET /api/ws/dashboard", handleDashboardWS)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	if predictor == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "unavailable",
		})
		return
	}
	health := predictor.Health()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "ok",
		"model_loaded":  health.ModelLoaded,
		"model_version": health.ModelVersion,
		"feature_count": health.FeatureCount,
	})
}

func handlePredict(w http.ResponseWriter, r *http.Request) {
	if predictor == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "model not available"})
		return
	}

	var raw schema.RawInput
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	locale := risk.MatchLocale(r.Header.Get("Accept-Language"))

	start := time.Now()
	result, err := predictor.Predict(r.Context(), raw, locale)
	if err != nil {
		var validation *schema.ValidationError
		switch {
		case errors.As(err, &validation):
			if collector != nil {
				collector.RecordValidationFailure()
			}
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error":   "validation failed",
				"field":   validation.Field,
				"message": validation.Reason,
			})
		default:
			if collector != nil {
				collector.RecordInferenceFailure()
			}
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "prediction failed"})
		}
		return
	}

	requestID := GetRequestID(r.Context())
	if collector != nil {
		collector.RecordPrediction(time.Since(start), result.Cached)
	}
	if feed != nil {
		feed.Broadcast(monitoring.PredictionEvent{
			RequestID:   requestID,
			RiskTier:    string(result.RiskTier),
			Probability: result.Probability,
			Timestamp:   time.Now(),
		})
	}

	// history is best effort; a storage hiccup must not fail the request
	savePredictionRecord(requestID, raw, result)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"request_id":         requestID,
		"label":              result.Label,
		"probability":        result.Probability,
		"risk_tier":          result.RiskTier,
		"confidence_percent": result.ConfidencePercent,
		"recommendations":    result.Recommendations,
		"model_version":      result.ModelVersion,
	})
}

var savePrediction = db.SavePrediction

func savePredictionRecord(requestID string, raw schema.RawInput, result *predict.Result) {
	age := 0.0
	if v, ok := raw["age"].(float64); ok {
		age = v
	}
	err := savePrediction(db.PredictionRecord{
		RequestID:   requestID,
		Age:         age,
		Probability: result.Probability,
		Label:       result.Label,
		RiskTier:    string(result.RiskTier),
		Confidence:  result.ConfidencePercent,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		logger.Warn("failed to persist prediction",
			zap.String("request_id", requestID),
			zap.Error(err))
	}
}

func handleModelInfo(w http.ResponseWriter, r *http.Request) {
	if predictor == nil || predictor.Metadata() == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "model metadata not available"})
		return
	}
	writeJSON(w, http.StatusOK, predictor.Metadata())
}

// maxRecentLimit bounds the history page size so a single request
// cannot pull the whole predictions table.
const maxRecentLimit = 500

func recentLimit(r *http.Request) int {
	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}
	return limit
}

func handleRecentPredictions(w http.ResponseWriter, r *http.Request) {
	records, err := db.RecentPredictions(recentLimit(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "history unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"predictions": records,
		"count":       len(records),
	})
}

func handleAgeGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := db.RiskByAgeGroup()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "statistics unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"age_groups": groups,
	})
}

func handleMetrics(w http.ResponseWriter, r *http.Request) {
	if collector == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "metrics not initialized"})
		return
	}
	writeJSON(w, http.StatusOK, collector.Snapshot())
}

func handleDashboardWS(w http.ResponseWriter, r *http.Request) {
	if feed == nil {
		http.Error(w, "feed not initialized", http.StatusServiceUnavailable)
		return
	}
	feed.ServeWS(w, r)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
