package ml

import (
	"errors"
	"math"
	"math/rand"
)

// RandomForest averages the leaf distributions of an ensemble of trees
// trained on bootstrap samples with a random feature subset per split.
type RandomForest struct {
	Trees      []DecisionTree `json:"trees"`
	NumClasses int            `json:"num_classes"`
}

type ForestConfig struct {
	Trees           int
	MaxDepth        int
	MinSamplesSplit int
	Seed            int64
}

func DefaultForestConfig() ForestConfig {
	return ForestConfig{
		Trees:           100,
		MaxDepth:        10,
		MinSamplesSplit: 2,
		Seed:            42,
	}
}

func TrainForest(features [][]float64, labels []int, config ForestConfig) (*RandomForest, error) {
	if len(features) == 0 || len(labels) == 0 {
		return nil, errors.New("features or labels empty")
	}
	if len(features) != len(labels) {
		return nil, errors.New("features and labels size mismatch")
	}
	if config.Trees <= 0 {
		config.Trees = 100
	}

	numClasses := 0
	for _, label := range labels {
		if label < 0 {
			return nil, errors.New("negative class label")
		}
		if label+1 > numClasses {
			numClasses = label + 1
		}
	}
	if numClasses < 2 {
		numClasses = 2
	}

	featureCount := len(features[0])
	subset := int(math.Sqrt(float64(featureCount)))
	if subset < 1 {
		subset = 1
	}

	rng := rand.New(rand.NewSource(config.Seed))
	forest := &RandomForest{
		Trees:      make([]DecisionTree, config.Trees),
		NumClasses: numClasses,
	}

	cfg := treeConfig{
		maxDepth:        config.MaxDepth,
		minSamplesSplit: config.MinSamplesSplit,
		numClasses:      numClasses,
		featureSubset:   subset,
	}

	for t := range forest.Trees {
		sampleX, sampleY := bootstrapSample(features, labels, rng)
		if err := forest.Trees[t].train(sampleX, sampleY, cfg, rng); err != nil {
			return nil, err
		}
	}
	return forest, nil
}

// PredictProba returns the class probability distribution averaged over
// all trees.
func (f *RandomForest) PredictProba(features []float64) ([]float64, error) {
	if len(f.Trees) == 0 {
		return nil, errors.New("model not trained")
	}

	probs := make([]float64, f.NumClasses)
	for t := range f.Trees {
		counts, err := f.Trees[t].PredictCounts(features)
		if err != nil {
			return nil, err
		}
		total := 0
		for _, count := range counts {
			total += count
		}
		if total == 0 {
			continue
		}
		for class, count := range counts {
			if class < len(probs) {
				probs[class] += float64(count) / float64(total)
			}
		}
	}
	for i := range probs {
		probs[i] /= float64(len(f.Trees))
	}
	return probs, nil
}

func bootstrapSample(features [][]float64, labels []int, rng *rand.Rand) ([][]float64, []int) {
	n := len(features)
	sampleX := make([][]float64, n)
	sampleY := make([]int, n)
	for i := 0; i < n; i++ {
		j := rng.Intn(n)
		sampleX[i] = features[j]
		sampleY[i] = labels[j]
	}
	return sampleX, sampleY
}
