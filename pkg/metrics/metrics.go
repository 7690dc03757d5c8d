// Package metrics provides Prometheus metrics for schema inference and scan
// execution. Metrics are registered automatically via promauto; components
// record through the exported collectors.
//
// # Basic Usage
//
//	metrics.SchemasInferred.WithLabelValues("avro", "success").Inc()
//	metrics.RowsScanned.WithLabelValues("avro").Add(float64(rec.NumRows()))
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SchemasInferred counts schema-inference calls per format.
	// Labels: format, status (success/failure)
	SchemasInferred = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quasar_schemas_inferred_total",
			Help: "Total number of schema inference calls",
		},
		[]string{"format", "status"},
	)

	// ObjectsRead counts objects read during schema inference.
	// Labels: format
	ObjectsRead = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quasar_inference_objects_read_total",
			Help: "Total number of objects read for schema inference",
		},
		[]string{"format"},
	)

	// ObjectsScanned counts objects opened by scan execution.
	// Labels: format
	ObjectsScanned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quasar_objects_scanned_total",
			Help: "Total number of objects opened by scans",
		},
		[]string{"format"},
	)

	// RowsScanned counts rows emitted by scan execution.
	// Labels: format
	RowsScanned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quasar_rows_scanned_total",
			Help: "Total number of rows emitted by scans",
		},
		[]string{"format"},
	)

	// ScanLatency tracks end-to-end scan latency in nanoseconds.
	// Labels: format
	ScanLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "quasar_scan_latency_nanoseconds",
			Help: "End-to-end scan latency in nanoseconds",
			Buckets: []float64{
				1e5, // 100μs - single in-memory batch
				1e6, // 1ms - small local files
				1e7, // 10ms - larger local files
				1e8, // 100ms - remote object reads
				1e9, // 1s - multi-object scans
				1e10,
			},
		},
		[]string{"format"},
	)

	// InferenceLatency tracks schema-inference latency in nanoseconds.
	// Labels: format
	InferenceLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "quasar_inference_latency_nanoseconds",
			Help: "Schema inference latency in nanoseconds",
			Buckets: []float64{
				1e5, 1e6, 1e7, 1e8, 1e9,
			},
		},
		[]string{"format"},
	)
)
