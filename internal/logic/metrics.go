package logic

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	predictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playcall_predictions_total",
		Help: "Predictions served, by fallback level",
	}, []string{"level"})

	matchedDepth = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "playcall_prediction_matched_depth",
		Help:    "Trie depth matched by served predictions",
		Buckets: prometheus.LinearBuckets(0, 1, 9),
	})

	drivesTrained = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playcall_drives_trained_total",
		Help: "Drives inserted into the registry",
	})

	drivesRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playcall_drives_rejected_total",
		Help: "Drives rejected because of unknown play types",
	})

	snapshotDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "playcall_snapshot_duration_seconds",
		Help:    "Duration of snapshot saves and reloads",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	situationsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "playcall_situation_tries",
		Help: "Number of situation tries in the live registry",
	})
)
