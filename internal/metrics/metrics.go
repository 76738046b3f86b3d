// Package metrics exposes Prometheus counters for the extraction pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	MetricNameFilesProcessed = "bsp_files_processed_total"
	MetricNameItemsExtracted = "bsp_items_extracted_total"
	MetricNameParseDuration  = "bsp_file_duration_seconds"

	MetricNameExtractCache = "bsp_extract_cache_lookups_total"

	MetricNameHTTPRequestsTotal    = "http_requests_total"
	MetricNameHTTPRequestDuration  = "http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight = "http_requests_in_flight"

	LabelStatus   = "status"
	LabelItemType = "item_type"
	LabelMethod   = "method"
	LabelRoute    = "route"
	LabelResult   = "result"

	StatusOK     = "ok"
	StatusFailed = "failed"

	CacheHit  = "hit"
	CacheMiss = "miss"
)

var (
	FilesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameFilesProcessed,
			Help: "BSP files processed, by outcome",
		},
		[]string{LabelStatus},
	)

	ItemsExtracted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameItemsExtracted,
			Help: "Collectible items extracted, by catalog type",
		},
		[]string{LabelItemType},
	)

	FileDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    MetricNameParseDuration,
			Help:    "Time to read, parse and extract one BSP file",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1},
		},
	)

	ExtractCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameExtractCache,
			Help: "Upload extraction cache lookups, by result",
		},
		[]string{LabelResult},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHTTPRequestsTotal,
			Help: "Total number of HTTP requests",
		},
		[]string{LabelMethod, LabelRoute, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameHTTPRequestDuration,
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{LabelMethod, LabelRoute},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameHTTPRequestsInFlight,
			Help: "Current number of HTTP requests being served",
		},
	)
)
