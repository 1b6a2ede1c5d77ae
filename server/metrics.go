package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the prediction endpoint on a
// dedicated registry.
type Metrics struct {
	Registry           *prometheus.Registry
	PredictionsTotal   *prometheus.CounterVec
	PredictionDuration prometheus.Histogram
	PredictedPrice     prometheus.Histogram
}

// NewServerMetrics constructs and registers the server collectors.
func NewServerMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	predictions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "server_predictions_total",
			Help: "Total prediction requests by outcome.",
		},
		[]string{"outcome"},
	)
	duration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "server_prediction_duration_seconds",
			Help:    "Time spent serving one prediction request.",
			Buckets: prometheus.DefBuckets,
		},
	)
	price := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "server_predicted_price",
			Help:    "Distribution of predicted prices.",
			Buckets: prometheus.LinearBuckets(5, 5, 10),
		},
	)

	registry.MustRegister(predictions, duration, price)

	return &Metrics{
		Registry:           registry,
		PredictionsTotal:   predictions,
		PredictionDuration: duration,
		PredictedPrice:     price,
	}
}

// IncPrediction counts one prediction request by outcome label.
func (m *Metrics) IncPrediction(outcome string) {
	if m == nil {
		return
	}
	m.PredictionsTotal.WithLabelValues(outcome).Inc()
}

// ObservePrediction records the latency and predicted value of a
// successful request.
func (m *Metrics) ObservePrediction(d time.Duration, price float64) {
	if m == nil {
		return
	}
	m.PredictionDuration.Observe(d.Seconds())
	m.PredictedPrice.Observe(price)
}
