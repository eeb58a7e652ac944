package ml

import "sort"

// Evaluate measures the artifact's classification quality on a holdout
// set. Precision, recall and F1 treat class 1 (disease present) as
// positive; AUC is the rank statistic over positive-class scores.
func Evaluate(artifact *Artifact, testX [][]float64, testY []int) (PerformanceMetrics, error) {
	var metrics PerformanceMetrics
	if len(testX) == 0 {
		return metrics, nil
	}

	scores := make([]float64, len(testX))
	var correct, truePositive, predictedPositive, actualPositive int

	for i, vector := range testX {
		label, probability, err := artifact.Predict(vector)
		if err != nil {
			return metrics, err
		}
		scores[i] = probability

		if label == testY[i] {
			correct++
		}
		if label == 1 {
			predictedPositive++
			if testY[i] == 1 {
				truePositive++
			}
		}
		if testY[i] == 1 {
			actualPositive++
		}
	}

	metrics.Accuracy = float64(correct) / float64(len(testX))
	if predictedPositive > 0 {
		metrics.Precision = float64(truePositive) / float64(predictedPositive)
	}
	if actualPositive > 0 {
		metrics.Recall = float64(truePositive) / float64(actualPositive)
	}
	if metrics.Precision+metrics.Recall > 0 {
		metrics.F1Score = 2 * metrics.Precision * metrics.Recall / (metrics.Precision + metrics.Recall)
	}
	metrics.AUC = rankAUC(scores, testY)
	return metrics, nil
}

// rankAUC computes the area under the ROC curve from the rank of
// positive-class scores, with ties sharing their average rank.
func rankAUC(scores []float64, labels []int) float64 {
	type sample struct {
		score float64
		label int
	}
	samples := make([]sample, len(scores))
	for i := range scores {
		samples[i] = sample{score: scores[i], label: labels[i]}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].score < samples[j].score })

	var positives, negatives int
	var rankSum float64
	i := 0
	for i < len(samples) {
		j := i
		for j < len(samples) && samples[j].score == samples[i].score {
			j++
		}
		// ranks are 1-based; tied scores share the average rank
		avgRank := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			if samples[k].label == 1 {
				rankSum += avgRank
			}
		}
		i = j
	}
	for _, s := range samples {
		if s.label == 1 {
			positives++
		} else {
			negatives++
		}
	}
	if positives == 0 || negatives == 0 {
		return 0
	}
	return (rankSum - float64(positives)*float64(positives+1)/2) / (float64(positives) * float64(negatives))
}
