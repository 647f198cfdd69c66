// Package metrics defines prometheus metrics to expose
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "predict_api_request_duration_seconds",
			Help:    "Time taken to serve prediction requests in seconds",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"model", "variant"},
	)

	RequestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predict_api_request_count_total",
			Help: "Total number of prediction requests processed",
		},
		[]string{"model", "variant", "status"},
	)

	PredictedLabels = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predict_api_predicted_labels_total",
			Help: "Predicted labels by class",
		},
		[]string{"model", "label"},
	)

	BatchRows = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "predict_api_batch_rows",
			Help:    "Rows per batch prediction request",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
		},
		[]string{"model"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predict_api_cache_lookups_total",
			Help: "Prediction cache lookups by result",
		},
		[]string{"result"},
	)

	PendingRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "predict_api_pending_records",
			Help: "Prediction records waiting to be flushed",
		},
	)

	ErrorCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predict_api_error_count",
			Help: "Error count",
		},
		[]string{"model", "variant", "from"},
	)

	ResponseCodes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predict_api_status_code",
			Help: "Status Codes",
		},
		[]string{"path", "status_code"},
	)
)
