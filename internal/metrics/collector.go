package metrics

import (
	"context"
	"sync"
	"time"

	"terra/internal/logging"
)

// StatsProvider is implemented by the store.
type StatsProvider interface {
	GetStats(ctx context.Context) (Stats, error)
}

// Stats holds the library totals exported as gauges.
type Stats struct {
	ScannedPhotos  int64
	UploadedPhotos int64
	Favorites      int64
	Albums         int64
	DBFileSizes    map[string]int64 // "main", "wal", "shm"
}

// collectTimeout bounds one GetStats call so a locked database cannot
// stall the loop past the next tick.
const collectTimeout = 10 * time.Second

// Collector refreshes the library gauges from a StatsProvider on a fixed
// interval. A failed refresh leaves the previous values in place.
type Collector struct {
	provider StatsProvider
	interval time.Duration

	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		provider: provider,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start refreshes once immediately, then on every interval until Stop.
func (c *Collector) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	go c.run(ctx)
}

// Stop ends the loop and waits for an in-flight refresh to finish.
// It is safe to call more than once, or without Start.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() {
		if c.cancel == nil {
			return
		}
		c.cancel()
		<-c.done
	})
}

func (c *Collector) run(ctx context.Context) {
	defer close(c.done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		c.collect(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (c *Collector) collect(ctx context.Context) {
	if c.provider == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, collectTimeout)
	defer cancel()

	stats, err := c.provider.GetStats(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logging.Warn("Library stats refresh failed: %v", err)
		}
		return
	}
	stats.export()

	logging.Debug("Library stats: scanned=%d uploaded=%d favorites=%d albums=%d",
		stats.ScannedPhotos, stats.UploadedPhotos, stats.Favorites, stats.Albums)
}

func (s Stats) export() {
	LibraryPhotosTotal.WithLabelValues("scan").Set(float64(s.ScannedPhotos))
	LibraryPhotosTotal.WithLabelValues("upload").Set(float64(s.UploadedPhotos))
	LibraryFavoritesTotal.Set(float64(s.Favorites))
	LibraryAlbumsTotal.Set(float64(s.Albums))
	for file, size := range s.DBFileSizes {
		DBSizeBytes.WithLabelValues(file).Set(float64(size))
	}
}
