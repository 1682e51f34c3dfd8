package metrics

// Label values known up front. Pre-populating them makes every series show
// up on the first scrape instead of after the first event.
var (
	Volumes         = []string{"library", "data", "other"}
	FSOperations    = []string{"stat", "open", "copy"}
	CaptureSources  = []string{"exif", "filename", "mtime", "clock"}
	ProbeModes      = []string{"header", "decode"}
	IngestOutcomes  = []string{"ingested", "missing", "extract_failed", "mkdir_failed", "copy_failed", "persist_failed"}
	ScanFileOutcome = []string{"candidate", "extracted", "skipped", "walk_error"}
	DBOperations    = []string{
		"initialize_schema", "migrate", "upsert_photo", "list_photos", "photo_exists",
		"delete_photo", "counts_by_year", "set_favorite", "list_favorites",
		"create_album", "delete_album", "get_album", "list_albums", "add_to_album",
		"remove_from_album", "list_album_photos", "set_album_cover",
		"get_metadata", "set_metadata", "stats",
	}
)

// InitializeMetrics pre-populates the expected label combinations.
// Call once at startup.
func InitializeMetrics() {
	for _, file := range []string{"main", "wal", "shm"} {
		DBSizeBytes.WithLabelValues(file)
	}

	for _, vol := range Volumes {
		for _, op := range FSOperations {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
		}
		for _, op := range []string{"stat", "open"} {
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}

	for _, src := range CaptureSources {
		CaptureSourceTotal.WithLabelValues(src)
	}

	for _, mode := range ProbeModes {
		DimensionProbeDuration.WithLabelValues(mode)
		for _, status := range []string{"success", "error", "skipped"} {
			DimensionProbeTotal.WithLabelValues(mode, status)
		}
	}

	for _, outcome := range IngestOutcomes {
		IngestFilesTotal.WithLabelValues(outcome)
	}

	for _, outcome := range ScanFileOutcome {
		ScanFilesTotal.WithLabelValues(outcome)
	}
	for _, status := range []string{"success", "error"} {
		ScanRunsTotal.WithLabelValues(status)
	}

	for _, op := range DBOperations {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}
	for _, op := range []string{"delete_photo", "add_to_album", "remove_from_album", "migrate"} {
		DBTransactionDuration.WithLabelValues(op)
	}

	for _, src := range []string{"scan", "upload"} {
		LibraryPhotosTotal.WithLabelValues(src)
	}
}
