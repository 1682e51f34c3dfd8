package indexer

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"terra/internal/database"
	"terra/internal/logging"
	"terra/internal/mediatypes"
	"terra/internal/metrics"
	"terra/internal/workers"
)

// Extractor turns one file into a photo record. ok=false means the file
// should be left out of the result.
type Extractor interface {
	Extract(path string) (photo *database.Photo, ok bool)
}

// ParallelWalkerConfig holds configuration for parallel extraction
type ParallelWalkerConfig struct {
	// Number of extraction workers
	NumWorkers int

	// Buffer size for the job and result channels
	ChannelBuffer int

	// Gate, when set, is consulted before each extraction
	Gate Gate
}

// Gate holds extraction back under resource pressure. Wait returns false
// when the caller should stop.
type Gate interface {
	Wait(ctx context.Context) bool
}

// DefaultParallelWalkerConfig returns sensible defaults. Extraction mixes
// file reads with image decoding, so the worker count uses the Mixed profile.
func DefaultParallelWalkerConfig() ParallelWalkerConfig {
	return ParallelWalkerConfig{
		NumWorkers:    workers.Mixed.Workers(16),
		ChannelBuffer: 256,
	}
}

type fileJob struct {
	path string
}

type fileResult struct {
	photo *database.Photo
	ok    bool
}

// ParallelWalker enumerates media files under a root and extracts them on
// a fixed pool of workers.
type ParallelWalker struct {
	config    ParallelWalkerConfig
	root      string
	extractor Extractor

	// onProgress is called from the collector goroutine only.
	onProgress func(done, total int)

	jobs    chan fileJob
	results chan fileResult

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	candidates     atomic.Int64
	filesExtracted atomic.Int64
	filesSkipped   atomic.Int64
	walkErrors     atomic.Int64
}

// NewParallelWalker creates a walker for root. The walker is single use.
func NewParallelWalker(ctx context.Context, root string, extractor Extractor, config ParallelWalkerConfig) *ParallelWalker {
	if config.NumWorkers < 1 {
		config.NumWorkers = 1
	}
	if config.ChannelBuffer < 0 {
		config.ChannelBuffer = 0
	}
	ctx, cancel := context.WithCancel(ctx)

	return &ParallelWalker{
		config:    config,
		root:      root,
		extractor: extractor,
		jobs:      make(chan fileJob, config.ChannelBuffer),
		results:   make(chan fileResult, config.ChannelBuffer),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Walk enumerates candidates, extracts them in parallel and returns every
// successfully extracted record in completion order. Unreadable subtrees
// are logged and skipped. The only error returned is a cancelled context.
func (pw *ParallelWalker) Walk() ([]database.Photo, error) {
	defer pw.cancel()

	startTime := time.Now()

	paths := pw.collectCandidates()
	total := len(paths)
	pw.candidates.Store(int64(total))
	metrics.ScanFilesTotal.WithLabelValues("candidate").Add(float64(total))

	logging.Info("Extracting %d files under %s with %d workers", total, pw.root, pw.config.NumWorkers)

	for i := 0; i < pw.config.NumWorkers; i++ {
		pw.wg.Add(1)
		go pw.worker(i)
	}

	go func() {
		defer close(pw.jobs)
		for _, path := range paths {
			select {
			case pw.jobs <- fileJob{path: path}:
			case <-pw.ctx.Done():
				return
			}
		}
	}()

	go func() {
		pw.wg.Wait()
		close(pw.results)
	}()

	photos := make([]database.Photo, 0, total)
	done := 0
	for result := range pw.results {
		done++
		if result.ok {
			photos = append(photos, *result.photo)
		}
		if pw.onProgress != nil {
			pw.onProgress(done, total)
		}
	}

	metrics.ScanFilesTotal.WithLabelValues("extracted").Add(float64(pw.filesExtracted.Load()))
	metrics.ScanFilesTotal.WithLabelValues("skipped").Add(float64(pw.filesSkipped.Load()))

	logging.Info("Parallel extraction complete: %d of %d files in %v (skipped: %d, walk errors: %d)",
		pw.filesExtracted.Load(),
		total,
		time.Since(startTime),
		pw.filesSkipped.Load(),
		pw.walkErrors.Load())

	if err := pw.ctx.Err(); err != nil {
		return photos, err
	}
	return photos, nil
}

// collectCandidates walks the tree and keeps regular files, and symlinks
// to regular files, whose extension is on the media allow-list. Symlinked
// directories are not followed.
func (pw *ParallelWalker) collectCandidates() []string {
	var paths []string

	//nolint:errcheck // walk errors are handled per entry and never returned
	filepath.WalkDir(pw.root, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-pw.ctx.Done():
			return fs.SkipAll
		default:
		}

		if err != nil {
			logging.Warn("Error accessing path %s: %v", path, err)
			pw.walkErrors.Add(1)
			metrics.ScanFilesTotal.WithLabelValues("walk_error").Inc()
			return nil
		}

		if !mediatypes.IsMediaFile(path) {
			return nil
		}
		switch {
		case d.Type().IsRegular():
		case d.Type()&fs.ModeSymlink != 0:
			target, err := os.Stat(path)
			if err != nil || !target.Mode().IsRegular() {
				logging.Debug("Skipping symlink %s: target is not a regular file", path)
				return nil
			}
		default:
			return nil
		}

		paths = append(paths, path)
		return nil
	})

	return paths
}

func (pw *ParallelWalker) worker(id int) {
	defer pw.wg.Done()

	for job := range pw.jobs {
		select {
		case <-pw.ctx.Done():
			return
		default:
		}

		if pw.config.Gate != nil && !pw.config.Gate.Wait(pw.ctx) {
			pw.cancel()
			return
		}

		photo, ok := pw.extractor.Extract(job.path)
		if ok {
			pw.filesExtracted.Add(1)
		} else {
			pw.filesSkipped.Add(1)
			logging.Debug("Worker %d: skipped %s", id, job.path)
		}

		select {
		case pw.results <- fileResult{photo: photo, ok: ok}:
		case <-pw.ctx.Done():
			return
		}
	}
}

// Stop cancels an in-flight walk.
func (pw *ParallelWalker) Stop() {
	pw.cancel()
}

// Stats returns the current walker counters.
func (pw *ParallelWalker) Stats() (candidates, extracted, skipped, walkErrors int64) {
	return pw.candidates.Load(), pw.filesExtracted.Load(), pw.filesSkipped.Load(), pw.walkErrors.Load()
}
