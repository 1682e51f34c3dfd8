// Package metrics provides Prometheus instrumentation for terra.
//
// All metrics are registered on the default registry through promauto and are
// prefixed with "terra_".
//
// # Metric Categories
//
// HTTP bridge:
//   - HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight
//
// Metadata store:
//   - DBQueryTotal, DBQueryDuration: per store operation
//   - DBTransactionDuration: multi-statement operations
//   - DBSizeBytes: main, WAL and SHM file sizes
//
// Directory scanner:
//   - ScanRunsTotal, ScanInProgress, ScanLastRunTimestamp, ScanLastRunDuration
//   - ScanFilesTotal: candidate, extracted, skipped and walk_error counts
//
// Metadata extraction:
//   - CaptureSourceTotal: which fallback stage produced each capture time
//   - DimensionProbeTotal, DimensionProbeDuration
//
// Library ingestor:
//   - IngestFilesTotal: one increment per source path, labelled by outcome
//   - IngestCollisionsTotal, IngestBytesCopied
//
// Library contents (refreshed by [Collector]):
//   - LibraryPhotosTotal, LibraryFavoritesTotal, LibraryAlbumsTotal
//
// Filesystem (recorded through [NewFilesystemObserver]):
//   - FilesystemOperationDuration, FilesystemOperationErrors
//   - FilesystemRetryAttempts, FilesystemRetrySuccess, FilesystemRetryFailures,
//     FilesystemStaleErrors, FilesystemRetryDuration
//
// Memory backpressure (set by the memory monitor):
//   - MemoryUsageRatio, MemoryPaused, MemoryPausesTotal
//
// # Usage
//
//	metrics.InitializeMetrics()
//	filesystem.SetObserver(metrics.NewFilesystemObserver())
//
//	collector := metrics.NewCollector(db, time.Minute)
//	collector.Start()
//	defer collector.Stop()
//
//	http.Handle("/metrics", promhttp.Handler())
//
// # Example Queries
//
// Share of capture times that fell back past EXIF:
//
//	sum(rate(terra_capture_source_total{source!="exif"}[1h])) /
//	sum(rate(terra_capture_source_total[1h]))
//
// Ingest failures:
//
//	sum(rate(terra_ingest_files_total{outcome!="ingested"}[5m])) by (outcome)
//
// P95 store latency by operation:
//
//	histogram_quantile(0.95, sum(rate(terra_db_query_duration_seconds_bucket[5m])) by (le, operation))
package metrics
