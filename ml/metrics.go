package ml

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// EvalMetrics summarizes model quality on a held-out partition.
type EvalMetrics struct {
	MAE              float64 `json:"mae"`
	RMSE             float64 `json:"rmse"`
	R2               float64 `json:"r2"`
	TargetMean       float64 `json:"target_mean"`
	TargetStdDev     float64 `json:"target_stddev"`
	SampleSize       int     `json:"sample_size"`
	EvaluatedOnTrain bool    `json:"evaluated_on_train"`
}

// Evaluate compares predictions against observed targets.
func Evaluate(predicted, actual []float64) (EvalMetrics, error) {
	if len(predicted) != len(actual) {
		return EvalMetrics{}, fmt.Errorf("evaluate: %d predictions but %d targets", len(predicted), len(actual))
	}
	if len(actual) == 0 {
		return EvalMetrics{}, fmt.Errorf("evaluate: empty sample")
	}

	var absSum, sqSum float64
	for i := range actual {
		diff := predicted[i] - actual[i]
		absSum += math.Abs(diff)
		sqSum += diff * diff
	}
	n := float64(len(actual))

	m := EvalMetrics{
		MAE:        absSum / n,
		RMSE:       math.Sqrt(sqSum / n),
		TargetMean: stat.Mean(actual, nil),
		SampleSize: len(actual),
	}
	if len(actual) > 1 {
		m.TargetStdDev = stat.StdDev(actual, nil)
		m.R2 = stat.RSquaredFrom(predicted, actual, nil)
	}
	return m, nil
}
