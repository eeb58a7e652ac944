package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"heartguard/dataset"
	"heartguard/db"
	"heartguard/ml"
	"heartguard/schema"
)

var opts struct {
	dataPath     string
	modelPath    string
	metadataPath string
	trees        int
	maxDepth     int
	minSplit     int
	testRatio    float64
	seed         int64
	dbPath       string
	modelName    string
}

func main() {
	root := &cobra.Command{
		Use:   "train_model",
		Short: "Train the heart disease pipeline and export artifact plus metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
		SilenceUsage: true,
	}

	root.Flags().StringVar(&opts.dataPath, "data", "./data/heart_disease_selected.csv", "training dataset CSV")
	root.Flags().StringVar(&opts.modelPath, "model-path", "./models/heart_disease_pipeline.json", "artifact output path")
	root.Flags().StringVar(&opts.metadataPath, "metadata-path", "./models/model_metadata.json", "metadata output path")
	root.Flags().IntVar(&opts.trees, "trees", 100, "number of trees")
	root.Flags().IntVar(&opts.maxDepth, "max-depth", 10, "max tree depth")
	root.Flags().IntVar(&opts.minSplit, "min-samples-split", 2, "min samples to split a node")
	root.Flags().Float64Var(&opts.testRatio, "test-ratio", 0.2, "holdout fraction")
	root.Flags().Int64Var(&opts.seed, "seed", 42, "random seed")
	root.Flags().StringVar(&opts.dbPath, "db-path", "", "optional SQLite path for dataset import and training log")
	root.Flags().StringVar(&opts.modelName, "model-name", "Heart Disease Classifier", "model name recorded in metadata")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	set, issues, err := dataset.LoadCSV(opts.dataPath)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	for _, issue := range issues {
		fmt.Fprintf(os.Stderr, "dropped row %d: %s\n", issue.Line, issue.Reason)
	}
	fmt.Printf("loaded %d samples (%d rejected)\n", len(set.Features), len(issues))

	train, test := dataset.Split(set, opts.testRatio, opts.seed)

	scaler, err := ml.FitScaler(train.Features)
	if err != nil {
		return fmt.Errorf("fit scaler: %w", err)
	}
	scaledTrain, err := scaler.TransformAll(train.Features)
	if err != nil {
		return fmt.Errorf("scale training data: %w", err)
	}

	forest, err := ml.TrainForest(scaledTrain, train.Labels, ml.ForestConfig{
		Trees:           opts.trees,
		MaxDepth:        opts.maxDepth,
		MinSamplesSplit: opts.minSplit,
		Seed:            opts.seed,
	})
	if err != nil {
		return fmt.Errorf("train forest: %w", err)
	}

	artifact := &ml.Artifact{
		Version:      1,
		FeatureNames: schema.FeatureNames(),
		Scaler:       scaler,
		Forest:       forest,
	}

	metrics, err := ml.Evaluate(artifact, test.Features, test.Labels)
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	fmt.Printf("accuracy=%.4f precision=%.4f recall=%.4f f1=%.4f auc=%.4f\n",
		metrics.Accuracy, metrics.Precision, metrics.Recall, metrics.F1Score, metrics.AUC)

	if err := ensureDir(opts.modelPath); err != nil {
		return err
	}
	if err := artifact.Save(opts.modelPath); err != nil {
		return fmt.Errorf("save artifact: %w", err)
	}
	fmt.Printf("artifact saved to %s\n", opts.modelPath)

	metadata := &ml.Metadata{
		ModelName:   opts.modelName,
		ModelType:   "Random Forest Pipeline",
		Version:     "1.0",
		CreatedDate: time.Now().Format(time.RFC3339),
		DatasetInfo: ml.DatasetInfo{
			Source:             opts.dataPath,
			FeaturesCount:      schema.FeatureCount(),
			SamplesCount:       len(set.Features),
			TargetDistribution: targetDistribution(set.Labels),
		},
		PerformanceMetrics: metrics,
		FeatureNames:       schema.FeatureNames(),
		PreprocessingSteps: []string{"StandardScaler"},
	}
	if err := ensureDir(opts.metadataPath); err != nil {
		return err
	}
	if err := metadata.Save(opts.metadataPath); err != nil {
		return fmt.Errorf("save metadata: %w", err)
	}
	fmt.Printf("metadata saved to %s\n", opts.metadataPath)

	if opts.dbPath != "" {
		if err := importDB(set, metrics); err != nil {
			return err
		}
	}
	return nil
}

func importDB(set *dataset.Set, metrics ml.PerformanceMetrics) error {
	if err := db.InitDB(opts.dbPath); err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	samples := make([]db.Sample, len(set.Features))
	for i := range set.Features {
		samples[i] = db.Sample{Features: set.Features[i], Target: set.Labels[i]}
	}
	if err := db.ImportSamples(samples); err != nil {
		return fmt.Errorf("import samples: %w", err)
	}
	if err := db.SaveTrainingRun(db.TrainingRun{
		ModelName:  opts.modelName,
		Accuracy:   metrics.Accuracy,
		Precision:  metrics.Precision,
		Recall:     metrics.Recall,
		F1Score:    metrics.F1Score,
		AUC:        metrics.AUC,
		TrainedAt:  time.Now(),
		DataPoints: len(set.Features),
	}); err != nil {
		return fmt.Errorf("log training run: %w", err)
	}
	fmt.Printf("dataset imported into %s\n", opts.dbPath)
	return nil
}

func targetDistribution(labels []int) map[string]int {
	dist := make(map[string]int, 2)
	for _, label := range labels {
		dist[fmt.Sprintf("%d", label)]++
	}
	return dist
}

func ensureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
