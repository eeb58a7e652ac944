package ml

import (
	"errors"
	"math/rand"
	"sort"
)

type TreeNode struct {
	FeatureIdx  int     `json:"feature_idx"`
	Threshold   float64 `json:"threshold"`
	LeftChild   int     `json:"left_child"`
	RightChild  int     `json:"right_child"`
	ClassCounts []int   `json:"class_counts,omitempty"`
	IsLeaf      bool    `json:"is_leaf"`
}

// DecisionTree is a binary CART tree stored as a flat node array. Leaves
// keep the training class counts so predictions carry a probability
// distribution instead of a bare label.
type DecisionTree struct {
	Nodes []TreeNode `json:"nodes"`
}

type treeConfig struct {
	maxDepth        int
	minSamplesSplit int
	numClasses      int
	featureSubset   int // 0 means consider every feature
}

func (dt *DecisionTree) train(features [][]float64, labels []int, cfg treeConfig, rng *rand.Rand) error {
	if len(features) == 0 || len(labels) == 0 {
		return errors.New("features or labels empty")
	}
	if len(features) != len(labels) {
		return errors.New("features and labels size mismatch")
	}
	if cfg.maxDepth <= 0 {
		cfg.maxDepth = 10
	}
	if cfg.minSamplesSplit < 2 {
		cfg.minSamplesSplit = 2
	}

	dt.Nodes = nil
	dt.build(features, labels, 0, cfg, rng)
	return nil
}

// PredictCounts walks the tree and returns the class counts at the
// reached leaf.
func (dt *DecisionTree) PredictCounts(features []float64) ([]int, error) {
	if len(dt.Nodes) == 0 {
		return nil, errors.New("model not trained")
	}
	idx := 0
	for {
		node := dt.Nodes[idx]
		if node.IsLeaf {
			return node.ClassCounts, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return nil, errors.New("feature index out of range")
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(dt.Nodes) {
			return nil, errors.New("invalid tree state")
		}
	}
}

// build appends the subtree rooted at the given samples and returns its
// node index.
func (dt *DecisionTree) build(features [][]float64, labels []int, depth int, cfg treeConfig, rng *rand.Rand) int {
	counts := classCounts(labels, cfg.numClasses)

	if depth >= cfg.maxDepth || len(labels) < cfg.minSamplesSplit || isPure(labels) {
		return dt.appendLeaf(counts)
	}

	bestFeature, threshold, ok := findBestSplit(features, labels, cfg, rng)
	if !ok {
		return dt.appendLeaf(counts)
	}

	leftFeatures, leftLabels, rightFeatures, rightLabels := splitData(features, labels, bestFeature, threshold)
	if len(leftLabels) == 0 || len(rightLabels) == 0 {
		return dt.appendLeaf(counts)
	}

	idx := len(dt.Nodes)
	dt.Nodes = append(dt.Nodes, TreeNode{FeatureIdx: bestFeature, Threshold: threshold})

	left := dt.build(leftFeatures, leftLabels, depth+1, cfg, rng)
	right := dt.build(rightFeatures, rightLabels, depth+1, cfg, rng)
	dt.Nodes[idx].LeftChild = left
	dt.Nodes[idx].RightChild = right
	return idx
}

func (dt *DecisionTree) appendLeaf(counts []int) int {
	idx := len(dt.Nodes)
	dt.Nodes = append(dt.Nodes, TreeNode{
		FeatureIdx:  -1,
		LeftChild:   -1,
		RightChild:  -1,
		ClassCounts: counts,
		IsLeaf:      true,
	})
	return idx
}

func findBestSplit(features [][]float64, labels []int, cfg treeConfig, rng *rand.Rand) (int, float64, bool) {
	featureCount := len(features[0])
	candidates := candidateFeatures(featureCount, cfg.featureSubset, rng)

	bestFeature := -1
	bestThreshold := 0.0
	bestImpurity := gini(labels)

	for _, featureIdx := range candidates {
		values := make([]float64, len(features))
		for i := range features {
			values[i] = features[i][featureIdx]
		}
		for _, threshold := range splitThresholds(values) {
			leftLabels, rightLabels := splitLabels(features, labels, featureIdx, threshold)
			if len(leftLabels) == 0 || len(rightLabels) == 0 {
				continue
			}
			impurity := weightedGini(leftLabels, rightLabels)
			if impurity < bestImpurity {
				bestImpurity = impurity
				bestFeature = featureIdx
				bestThreshold = threshold
			}
		}
	}
	if bestFeature == -1 {
		return -1, 0, false
	}
	return bestFeature, bestThreshold, true
}

// candidateFeatures picks the features to consider at a split. A nil rng
// or a subset of zero means every feature is considered.
func candidateFeatures(featureCount, subset int, rng *rand.Rand) []int {
	if subset <= 0 || subset >= featureCount || rng == nil {
		all := make([]int, featureCount)
		for i := range all {
			all[i] = i
		}
		return all
	}
	perm := rng.Perm(featureCount)
	return perm[:subset]
}

// splitThresholds returns midpoints between distinct consecutive values.
func splitThresholds(values []float64) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	thresholds := make([]float64, 0, len(sorted))
	for i := 1; i < len(sorted); i++ {
		if sorted[i] != sorted[i-1] {
			thresholds = append(thresholds, (sorted[i]+sorted[i-1])/2)
		}
	}
	return thresholds
}

func splitData(features [][]float64, labels []int, featureIdx int, threshold float64) ([][]float64, []int, [][]float64, []int) {
	leftFeatures := make([][]float64, 0)
	leftLabels := make([]int, 0)
	rightFeatures := make([][]float64, 0)
	rightLabels := make([]int, 0)
	for i, feature := range features {
		if feature[featureIdx] <= threshold {
			leftFeatures = append(leftFeatures, feature)
			leftLabels = append(leftLabels, labels[i])
		} else {
			rightFeatures = append(rightFeatures, feature)
			rightLabels = append(rightLabels, labels[i])
		}
	}
	return leftFeatures, leftLabels, rightFeatures, rightLabels
}

func splitLabels(features [][]float64, labels []int, featureIdx int, threshold float64) ([]int, []int) {
	leftLabels := make([]int, 0)
	rightLabels := make([]int, 0)
	for i, feature := range features {
		if feature[featureIdx] <= threshold {
			leftLabels = append(leftLabels, labels[i])
		} else {
			rightLabels = append(rightLabels, labels[i])
		}
	}
	return leftLabels, rightLabels
}

func weightedGini(leftLabels, rightLabels []int) float64 {
	leftWeight := float64(len(leftLabels))
	rightWeight := float64(len(rightLabels))
	total := leftWeight + rightWeight
	return (leftWeight/total)*gini(leftLabels) + (rightWeight/total)*gini(rightLabels)
}

func gini(labels []int) float64 {
	if len(labels) == 0 {
		return 0
	}
	counts := make(map[int]int)
	for _, label := range labels {
		counts[label]++
	}
	impurity := 1.0
	for _, count := range counts {
		prob := float64(count) / float64(len(labels))
		impurity -= prob * prob
	}
	return impurity
}

func classCounts(labels []int, numClasses int) []int {
	counts := make([]int, numClasses)
	for _, label := range labels {
		if label >= 0 && label < numClasses {
			counts[label]++
		}
	}
	return counts
}

func isPure(labels []int) bool {
	if len(labels) == 0 {
		return true
	}
	first := labels[0]
	for _, label := range labels[1:] {
		if label != first {
			return false
		}
	}
	return true
}
