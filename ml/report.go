package ml

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteReport renders a markdown summary of a training run.
func WriteReport(path string, a *Artifact) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report directory %q: %w", dir, err)
		}
	}

	var b strings.Builder
	b.WriteString("# Price Model Training Report\n\n")
	fmt.Fprintf(&b, "- Run ID: `%s`\n", a.RunID)
	fmt.Fprintf(&b, "- Trained at: %s\n", a.CreatedAt.Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "- Records: %d train / %d test\n", a.TrainSize, a.TestSize)
	fmt.Fprintf(&b, "- Trees: %d (max depth %d, min leaf %d, seed %d)\n\n",
		a.Forest.Config.Trees, a.Forest.Config.MaxDepth, a.Forest.Config.MinLeaf, a.Forest.Config.Seed)

	b.WriteString("## Evaluation\n\n")
	if a.Metrics.EvaluatedOnTrain {
		b.WriteString("Test partition was empty; metrics below are on the training partition.\n\n")
	}
	b.WriteString("| Metric | Value |\n")
	b.WriteString("| --- | --- |\n")
	fmt.Fprintf(&b, "| MAE | %.4f |\n", a.Metrics.MAE)
	fmt.Fprintf(&b, "| RMSE | %.4f |\n", a.Metrics.RMSE)
	fmt.Fprintf(&b, "| R2 | %.4f |\n", a.Metrics.R2)
	fmt.Fprintf(&b, "| Target mean | %.4f |\n", a.Metrics.TargetMean)
	fmt.Fprintf(&b, "| Target std dev | %.4f |\n", a.Metrics.TargetStdDev)
	fmt.Fprintf(&b, "| Sample size | %d |\n\n", a.Metrics.SampleSize)

	b.WriteString("## Features\n\n")
	for _, name := range a.FeatureNames {
		fmt.Fprintf(&b, "- %s\n", name)
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
