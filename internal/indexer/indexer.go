package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"terra/internal/database"
	"terra/internal/logging"
	"terra/internal/media"
	"terra/internal/metrics"
	"terra/internal/workers"
)

// ErrRootNotDirectory is returned when the scan root is missing or is not
// a directory.
var ErrRootNotDirectory = errors.New("scan root is not a directory")

// Store is the persistence side of a scan.
type Store interface {
	UpsertPhoto(ctx context.Context, p *database.Photo, source database.SourceType) error
	SetLastScan(ctx context.Context, root string, t time.Time) error
}

// Scanner finds media files under a directory and builds a record for
// each, optionally saving them as scanned photos.
type Scanner struct {
	store     Store
	extractor Extractor
	config    ParallelWalkerConfig

	onProgress func(done, total int)

	// Number of scans currently running
	running atomic.Int32

	now func() time.Time
}

// New creates a Scanner. numWorkers <= 0 selects a count from the
// available CPUs.
func New(store Store, extractor Extractor, numWorkers int) *Scanner {
	config := DefaultParallelWalkerConfig()
	config.NumWorkers = workers.Resolve(numWorkers, workers.Mixed, 16)

	return &Scanner{
		store:     store,
		extractor: extractor,
		config:    config,
		now:       time.Now,
	}
}

// SetOnProgress sets a callback invoked after each candidate file is
// processed. It is called from a single goroutine.
func (s *Scanner) SetOnProgress(callback func(done, total int)) {
	s.onProgress = callback
}

// SetGate installs a gate consulted before each extraction.
func (s *Scanner) SetGate(gate Gate) {
	s.config.Gate = gate
}

// IsScanning reports whether a scan is in progress.
func (s *Scanner) IsScanning() bool {
	return s.running.Load() > 0
}

// Scan enumerates media files under root and extracts a record for each.
// With persist set, every record is upserted as a scanned photo in order;
// the first failure stops persisting and is returned together with the
// full extracted set.
func (s *Scanner) Scan(ctx context.Context, root string, persist bool) (photos []database.Photo, err error) {
	info, statErr := os.Stat(root)
	if statErr != nil {
		metrics.ScanRunsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %s: %w", ErrRootNotDirectory, root, statErr)
	}
	if !info.IsDir() {
		metrics.ScanRunsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %s", ErrRootNotDirectory, root)
	}

	s.running.Add(1)
	metrics.ScanInProgress.Inc()
	defer func() {
		s.running.Add(-1)
		metrics.ScanInProgress.Dec()
	}()

	startTime := time.Now()
	logging.Info("Starting scan of %s (persist=%t)", root, persist)

	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.ScanRunsTotal.WithLabelValues(status).Inc()
		metrics.ScanLastRunTimestamp.Set(float64(time.Now().Unix()))
		metrics.ScanLastRunDuration.Set(time.Since(startTime).Seconds())
	}()

	// WalkDir does not descend into a symlinked root.
	walker := NewParallelWalker(ctx, media.Canonicalize(root), s.extractor, s.config)
	walker.onProgress = s.onProgress

	photos, err = walker.Walk()
	if err != nil {
		return photos, fmt.Errorf("scan %s: %w", root, err)
	}

	if !persist {
		logging.Info("Scan of %s found %d photos in %v", root, len(photos), time.Since(startTime))
		return photos, nil
	}

	if err := s.persist(ctx, photos); err != nil {
		return photos, err
	}

	if err := s.store.SetLastScan(ctx, media.Canonicalize(root), s.now()); err != nil {
		logging.Warn("Failed to record last scan for %s: %v", root, err)
	}

	logging.Info("Scan of %s saved %d photos in %v", root, len(photos), time.Since(startTime))
	return photos, nil
}

func (s *Scanner) persist(ctx context.Context, photos []database.Photo) error {
	if s.store == nil {
		return errors.New("scan persist: no store configured")
	}

	for i := range photos {
		if err := s.store.UpsertPhoto(ctx, &photos[i], database.SourceScan); err != nil {
			logging.Error("Failed to save %s after %d of %d records: %v", photos[i].Path, i, len(photos), err)
			return fmt.Errorf("persist %s: %w", photos[i].Path, err)
		}
	}
	return nil
}
