package ml

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pricelab/go-book-pipeline/config"
	"github.com/pricelab/go-book-pipeline/dataset"
	"github.com/pricelab/go-book-pipeline/models"
)

const minTrainingRecords = 10

// Trainer turns a book dataset into a saved price model.
type Trainer struct {
	cfg *config.Config
}

// NewTrainer builds a trainer from cfg.
func NewTrainer(cfg *config.Config) *Trainer {
	return &Trainer{cfg: cfg}
}

// Train splits the records, fits the encoder and forest on the training
// partition, and evaluates on the held-out one. A split whose test
// partition rounds to zero rows is evaluated on the training partition
// instead, and the metrics say so.
func (t *Trainer) Train(books []*models.Book) (*Artifact, error) {
	if len(books) < minTrainingRecords {
		return nil, fmt.Errorf("training needs at least %d records, got %d", minTrainingRecords, len(books))
	}

	train, test := dataset.Split(books, t.cfg.TestFraction, t.cfg.Seed)
	slog.Info("partitioned dataset",
		slog.Int("train", len(train)),
		slog.Int("test", len(test)),
		slog.Float64("test_fraction", t.cfg.TestFraction),
	)

	encoder := NewEncoder(train)
	if len(encoder.Categories) == 0 {
		return nil, fmt.Errorf("training partition has no categories")
	}

	x := make([][]float64, len(train))
	y := make([]float64, len(train))
	for i, b := range train {
		x[i] = encoder.EncodeBook(b)
		y[i] = b.Price
	}

	started := time.Now()
	forest, err := TrainForest(x, y, ForestConfig{
		Trees:    t.cfg.Trees,
		MaxDepth: t.cfg.MaxDepth,
		MinLeaf:  t.cfg.MinLeaf,
		Seed:     t.cfg.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("train forest: %w", err)
	}
	slog.Info("forest trained",
		slog.Int("trees", t.cfg.Trees),
		slog.Int("features", encoder.NumFeatures()),
		slog.Duration("elapsed", time.Since(started)),
	)

	evalSet := test
	evaluatedOnTrain := false
	if len(evalSet) == 0 {
		evalSet = train
		evaluatedOnTrain = true
		slog.Warn("test partition is empty, evaluating on training partition")
	}

	predicted := make([]float64, len(evalSet))
	actual := make([]float64, len(evalSet))
	for i, b := range evalSet {
		predicted[i] = forest.Predict(encoder.EncodeBook(b))
		actual[i] = b.Price
	}
	metrics, err := Evaluate(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("evaluate model: %w", err)
	}
	metrics.EvaluatedOnTrain = evaluatedOnTrain

	slog.Info("model evaluated",
		slog.Float64("mae", metrics.MAE),
		slog.Float64("rmse", metrics.RMSE),
		slog.Float64("r2", metrics.R2),
		slog.Bool("evaluated_on_train", evaluatedOnTrain),
	)

	return &Artifact{
		RunID:        uuid.NewString(),
		CreatedAt:    time.Now().UTC(),
		FeatureNames: encoder.FeatureNames(),
		Encoder:      encoder,
		Forest:       forest,
		Metrics:      metrics,
		TrainSize:    len(train),
		TestSize:     len(test),
	}, nil
}
