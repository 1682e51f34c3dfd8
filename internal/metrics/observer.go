package metrics

import "terra/internal/filesystem"

// NewFilesystemObserver returns a filesystem.Observer that feeds the
// Filesystem* collectors.
func NewFilesystemObserver() filesystem.Observer {
	return filesystem.ObserverFunc(recordFilesystemEvent)
}

func recordFilesystemEvent(e filesystem.Event) {
	switch e.Kind {
	case filesystem.EventDone:
		seconds := e.Elapsed.Seconds()
		FilesystemOperationDuration.WithLabelValues(e.Volume, e.Op).Observe(seconds)
		if e.Op != "copy" {
			FilesystemRetryDuration.WithLabelValues(e.Op, e.Volume).Observe(seconds)
		}
		if e.Err != nil {
			FilesystemOperationErrors.WithLabelValues(e.Volume, e.Op).Inc()
		}
	case filesystem.EventStale:
		FilesystemStaleErrors.WithLabelValues(e.Op, e.Volume).Inc()
	case filesystem.EventRetry:
		FilesystemRetryAttempts.WithLabelValues(e.Op, e.Volume).Inc()
	case filesystem.EventRecovered:
		FilesystemRetrySuccess.WithLabelValues(e.Op, e.Volume).Inc()
	case filesystem.EventExhausted:
		FilesystemRetryFailures.WithLabelValues(e.Op, e.Volume).Inc()
	}
}
