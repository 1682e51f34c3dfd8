package library

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"terra/internal/database"
	"terra/internal/filesystem"
	"terra/internal/logging"
	"terra/internal/media"
	"terra/internal/metrics"
	"terra/internal/workers"
)

// maxSuffix bounds the collision search in one shard directory.
const maxSuffix = 100000

// Store persists ingested records.
type Store interface {
	UpsertPhoto(ctx context.Context, p *database.Photo, source database.SourceType) error
}

// Extractor builds the record for a source file.
type Extractor interface {
	Extract(path string) (photo *database.Photo, ok bool)
}

// Gate holds extraction back under resource pressure. Wait returns false
// when the caller should stop.
type Gate interface {
	Wait(ctx context.Context) bool
}

// Ingestor copies files into the managed library, sharded by capture
// year and month, and records them as uploads.
type Ingestor struct {
	store     Store
	extractor Extractor
	root      string
	workers   int
	retry     filesystem.RetryConfig
	gate      Gate

	onProgress func(done, total int)
}

// New creates an Ingestor for the library rooted at root. numWorkers <= 0
// selects a count suited to I/O-bound work.
func New(store Store, extractor Extractor, root string, numWorkers int) *Ingestor {
	return &Ingestor{
		store:     store,
		extractor: extractor,
		root:      root,
		workers:   workers.Resolve(numWorkers, workers.IO, 16),
		retry:     filesystem.DefaultRetryConfig(),
	}
}

// SetGate installs a gate consulted before each extraction.
func (in *Ingestor) SetGate(gate Gate) {
	in.gate = gate
}

// Root returns the managed library root.
func (in *Ingestor) Root() string {
	return in.root
}

// SetOnProgress sets a callback invoked after each source is handled.
func (in *Ingestor) SetOnProgress(callback func(done, total int)) {
	in.onProgress = callback
}

type prepared struct {
	source string
	photo  *database.Photo
}

// Ingest copies every readable source into the library and returns the
// records that were copied and saved, in input order. Per-file failures
// are logged and skipped. An error is returned only when the library root
// is unusable or ctx is cancelled.
func (in *Ingestor) Ingest(ctx context.Context, sources []string) ([]database.Photo, error) {
	if err := os.MkdirAll(in.root, 0o755); err != nil {
		return nil, fmt.Errorf("create library root %s: %w", in.root, err)
	}
	if info, err := os.Stat(in.root); err != nil {
		return nil, fmt.Errorf("stat library root %s: %w", in.root, err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("library root %s is not a directory", in.root)
	}

	startTime := time.Now()
	items := in.prepare(ctx, sources)

	ingested := make([]database.Photo, 0, len(sources))
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return ingested, err
		}

		if item.photo != nil {
			if photo, ok := in.ingestOne(ctx, item); ok {
				ingested = append(ingested, *photo)
			}
		}

		if in.onProgress != nil {
			in.onProgress(i+1, len(items))
		}
	}

	logging.Info("Ingested %d of %d files into %s in %v", len(ingested), len(sources), in.root, time.Since(startTime))
	return ingested, nil
}

// prepare checks and extracts every source in parallel. Entries that
// cannot be ingested keep a nil photo.
func (in *Ingestor) prepare(ctx context.Context, sources []string) []prepared {
	items := make([]prepared, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(in.workers)

	for i, source := range sources {
		i, source := i, source
		items[i].source = source
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			if in.gate != nil && !in.gate.Wait(gctx) {
				return nil
			}

			info, err := filesystem.StatWithRetry(source, in.retry)
			if err != nil || !info.Mode().IsRegular() {
				logging.Warn("Skipping upload source %s: not a readable file", source)
				metrics.IngestFilesTotal.WithLabelValues("missing").Inc()
				return nil
			}

			photo, ok := in.extractor.Extract(source)
			if !ok {
				logging.Warn("Skipping upload source %s: metadata extraction failed", source)
				metrics.IngestFilesTotal.WithLabelValues("extract_failed").Inc()
				return nil
			}
			items[i].photo = photo
			return nil
		})
	}

	_ = g.Wait()
	return items
}

func (in *Ingestor) ingestOne(ctx context.Context, item prepared) (*database.Photo, bool) {
	photo := item.photo

	dir := ShardDir(in.root, photo.DateTaken)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logging.Warn("Cannot create shard %s for %s: %v", dir, item.source, err)
		metrics.IngestFilesTotal.WithLabelValues("mkdir_failed").Inc()
		return nil, false
	}

	dst, suffix, err := in.copyInto(item.source, dir, filepath.Base(item.source))
	if err != nil {
		logging.Warn("Failed to copy %s into %s: %v", item.source, dir, err)
		metrics.IngestFilesTotal.WithLabelValues("copy_failed").Inc()
		return nil, false
	}
	if suffix > 0 {
		metrics.IngestCollisionsTotal.Inc()
		logging.Debug("Destination name taken, stored %s as %s", item.source, dst)
	}
	if info, err := os.Stat(dst); err == nil {
		metrics.IngestBytesCopied.Add(float64(info.Size()))
	}

	canonical := media.Canonicalize(dst)
	photo.Path = canonical
	photo.Name = filepath.Base(canonical)

	if err := in.store.UpsertPhoto(ctx, photo, database.SourceUpload); err != nil {
		logging.Error("Failed to save ingested photo %s: %v", canonical, err)
		metrics.IngestFilesTotal.WithLabelValues("persist_failed").Inc()
		return nil, false
	}

	metrics.IngestFilesTotal.WithLabelValues("ingested").Inc()
	return photo, true
}

// copyInto copies src into dir under name, or under the first free
// name_N variant. It returns the destination and the suffix used.
func (in *Ingestor) copyInto(src, dir, name string) (string, int, error) {
	for n := 0; n <= maxSuffix; n++ {
		dst := filepath.Join(dir, SuffixedName(name, n))
		if _, err := os.Lstat(dst); err == nil {
			continue
		}

		err := filesystem.CopyFile(src, dst, in.retry)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", 0, err
		}
		return dst, n, nil
	}
	return "", 0, fmt.Errorf("no free name for %s in %s", name, dir)
}

// ShardDir returns root/YYYY/MM for the UTC calendar month of ts.
func ShardDir(root string, ts int64) string {
	t := time.Unix(ts, 0).UTC()
	return filepath.Join(root, fmt.Sprintf("%04d", t.Year()), fmt.Sprintf("%02d", int(t.Month())))
}

// SuffixedName returns name with _n inserted before its extension, or name
// itself when n is 0. A leading dot is not treated as an extension.
func SuffixedName(name string, n int) string {
	if n == 0 {
		return name
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if stem == "" {
		stem, ext = name, ""
	}
	return fmt.Sprintf("%s_%d%s", stem, n, ext)
}
