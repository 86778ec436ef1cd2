// Package metrics exposes prometheus instrumentation for the detector
// pipeline, video engine, stream worker, and scheduler.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DetectorDuration tracks per-detector execution time.
	DetectorDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "detector_duration_seconds",
			Help:    "Detector execution duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"detector", "level"},
	)

	// DetectorFailuresTotal counts detector panics/errors absorbed into
	// synthetic findings.
	DetectorFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "detector_failures_total",
			Help: "Total number of detector failures absorbed into synthetic findings",
		},
		[]string{"detector"},
	)

	// DetectorTimeoutsTotal counts detectors that exceeded their soft deadline.
	DetectorTimeoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "detector_timeouts_total",
			Help: "Total number of detector soft-deadline timeouts",
		},
		[]string{"detector"},
	)

	// SuppressionsTotal counts findings moved into the suppressed set.
	SuppressionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suppressions_total",
			Help: "Total number of findings suppressed by a higher-priority detector",
		},
		[]string{"suppressor", "suppressed"},
	)

	// PipelineDuration tracks whole-image-pipeline latency.
	PipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_duration_seconds",
			Help:    "Image pipeline duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"profile", "level"},
	)

	// VideoPipelineDuration tracks whole-video-pipeline latency.
	VideoPipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "video_pipeline_duration_seconds",
			Help:    "Video pipeline duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 600},
		},
		[]string{"sample_strategy"},
	)

	// StreamsActive gauges the number of running stream workers.
	StreamsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "streams_active",
			Help: "Number of currently active stream workers",
		},
	)

	// StreamReconnectsTotal counts reconnect attempts per stream.
	StreamReconnectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stream_reconnects_total",
			Help: "Total number of stream reconnect attempts",
		},
		[]string{"stream_id"},
	)

	// StreamFramesTotal counts frames received per stream.
	StreamFramesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stream_frames_total",
			Help: "Total number of frames received by a stream worker",
		},
		[]string{"stream_id"},
	)

	// SchedulerExecutionsTotal counts scheduler task executions by terminal status.
	SchedulerExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_executions_total",
			Help: "Total number of scheduler executions by terminal status",
		},
		[]string{"task_type", "status"},
	)

	// SchedulerExecutionDuration tracks scheduler task execution latency.
	SchedulerExecutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scheduler_execution_duration_seconds",
			Help:    "Scheduler execution duration in seconds",
			Buckets: []float64{0.1, 1, 5, 30, 60, 300, 900, 3600},
		},
		[]string{"task_type"},
	)

	// SchedulerQueueDepth gauges the number of tasks waiting for a worker slot.
	SchedulerQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scheduler_queue_depth",
			Help: "Number of scheduler executions waiting for a free worker",
		},
	)
)
