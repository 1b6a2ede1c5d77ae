package ml

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Artifact is a trained model bundled with everything needed to reproduce
// its predictions: the fitted encoder, the forest, and the evaluation that
// was recorded when it was trained.
type Artifact struct {
	RunID        string      `json:"run_id"`
	CreatedAt    time.Time   `json:"created_at"`
	FeatureNames []string    `json:"feature_names"`
	Encoder      *Encoder    `json:"encoder"`
	Forest       *Forest     `json:"forest"`
	Metrics      EvalMetrics `json:"metrics"`
	TrainSize    int         `json:"train_size"`
	TestSize     int         `json:"test_size"`
}

// Predict encodes one observation and runs it through the forest.
func (a *Artifact) Predict(category string, rating, availability, descriptionWords int) float64 {
	return a.Forest.Predict(a.Encoder.Encode(category, rating, availability, descriptionWords))
}

// Categories exposes the encoder vocabulary, for callers that render
// category choices.
func (a *Artifact) Categories() []string {
	return a.Encoder.Categories
}

// Save writes the artifact as indented JSON, creating parent directories.
func (a *Artifact) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create model directory %q: %w", dir, err)
		}
	}

	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("encode model artifact: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write model artifact: %w", err)
	}
	return nil
}

// LoadArtifact reads a saved model and validates it is usable.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode model artifact: %w", err)
	}
	if a.Encoder == nil || len(a.Encoder.Categories) == 0 {
		return nil, fmt.Errorf("model artifact %q has no fitted encoder", path)
	}
	if a.Forest == nil || len(a.Forest.Trees) == 0 {
		return nil, fmt.Errorf("model artifact %q has no trained trees", path)
	}
	return &a, nil
}
