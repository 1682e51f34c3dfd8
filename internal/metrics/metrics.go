package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "terra_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "terra_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "terra_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "terra_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "terra_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "terra_db_transaction_duration_seconds",
			Help:    "Database transaction duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"operation"},
	)

	DBSizeBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "terra_db_size_bytes",
			Help: "Size of SQLite database files in bytes",
		},
		[]string{"file"}, // "main", "wal", "shm"
	)
)

// Scanner metrics
var (
	ScanRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "terra_scan_runs_total",
			Help: "Total number of directory scans",
		},
		[]string{"status"}, // "success", "error"
	)

	ScanInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "terra_scan_in_progress",
			Help: "Number of directory scans currently running",
		},
	)

	ScanLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "terra_scan_last_run_timestamp",
			Help: "Unix timestamp of the last completed scan",
		},
	)

	ScanLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "terra_scan_last_run_duration_seconds",
			Help: "Duration of the last completed scan in seconds",
		},
	)

	ScanFilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "terra_scan_files_total",
			Help: "Files seen by the scanner by outcome",
		},
		[]string{"outcome"}, // "candidate", "extracted", "skipped", "walk_error"
	)
)

// Metadata extraction metrics
var (
	CaptureSourceTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "terra_capture_source_total",
			Help: "Capture timestamps resolved, by the stage that produced them",
		},
		[]string{"source"}, // "exif", "filename", "mtime", "clock"
	)

	DimensionProbeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "terra_dimension_probe_total",
			Help: "Dimension probes by mode and status",
		},
		[]string{"mode", "status"}, // status: "success", "error", "skipped"
	)

	DimensionProbeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "terra_dimension_probe_duration_seconds",
			Help:    "Dimension probe duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"mode"},
	)
)

// Ingest metrics
var (
	IngestFilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "terra_ingest_files_total",
			Help: "Files handled by the library ingestor by outcome",
		},
		[]string{"outcome"},
	)

	IngestCollisionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "terra_ingest_collisions_total",
			Help: "Destination name collisions resolved with a numeric suffix",
		},
	)

	IngestBytesCopied = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "terra_ingest_bytes_copied_total",
			Help: "Bytes copied into the managed library",
		},
	)
)

// Library contents
var (
	LibraryPhotosTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "terra_library_photos",
			Help: "Number of indexed records by source type",
		},
		[]string{"source"}, // "scan", "upload"
	)

	LibraryFavoritesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "terra_library_favorites",
			Help: "Number of records marked favorite",
		},
	)

	LibraryAlbumsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "terra_library_albums",
			Help: "Number of albums",
		},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "terra_filesystem_operation_duration_seconds",
			Help:    "Filesystem operation duration by volume and operation",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "terra_filesystem_operation_errors_total",
			Help: "Filesystem operation errors by volume and operation",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "terra_filesystem_retry_attempts_total",
			Help: "Retries issued after a stale file handle",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "terra_filesystem_retry_success_total",
			Help: "Operations that succeeded after at least one retry",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "terra_filesystem_retry_failures_total",
			Help: "Operations that failed after exhausting retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "terra_filesystem_stale_errors_total",
			Help: "ESTALE errors encountered",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "terra_filesystem_retry_duration_seconds",
			Help:    "Total time spent in an operation including retries",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"operation", "volume"},
	)
)

// Memory backpressure
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "terra_memory_usage_ratio",
			Help: "Heap allocation as a ratio of the configured memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "terra_memory_paused",
			Help: "1 while extraction is paused for memory pressure",
		},
	)

	MemoryPausesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "terra_memory_pauses_total",
			Help: "Times extraction was paused for memory pressure",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "terra_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
