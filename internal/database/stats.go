package database

import (
	"context"
	"os"

	"terra/internal/metrics"
)

// Stats returns library totals and the last persisted scan.
func (d *Database) Stats(ctx context.Context) (stats LibraryStats, err error) {
	done := observeQuery("stats")
	defer func() { done(err) }()

	d.mu.RLock()
	qctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	err = d.db.QueryRowContext(qctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(source_type = 'scan'), 0),
			COALESCE(SUM(source_type = 'upload'), 0),
			COALESCE(SUM(is_favorite = 1), 0),
			(SELECT COUNT(*) FROM albums)
		FROM photos
	`).Scan(&stats.TotalPhotos, &stats.ScannedPhotos, &stats.UploadedPhotos, &stats.Favorites, &stats.Albums)
	cancel()
	d.mu.RUnlock()
	if err != nil {
		return LibraryStats{}, err
	}

	root, at, err := d.GetLastScan(ctx)
	if err != nil {
		return LibraryStats{}, err
	}
	stats.LastScanRoot = root
	if !at.IsZero() {
		stats.LastScanAt = at.Unix()
	}
	return stats, nil
}

// GetStats implements metrics.StatsProvider.
func (d *Database) GetStats(ctx context.Context) (metrics.Stats, error) {
	s, err := d.Stats(ctx)
	if err != nil {
		return metrics.Stats{}, err
	}

	sizes := map[string]int64{}
	for label, suffix := range map[string]string{"main": "", "wal": "-wal", "shm": "-shm"} {
		if info, err := os.Stat(d.dbPath + suffix); err == nil {
			sizes[label] = info.Size()
		}
	}

	return metrics.Stats{
		ScannedPhotos:  s.ScannedPhotos,
		UploadedPhotos: s.UploadedPhotos,
		Favorites:      s.Favorites,
		Albums:         s.Albums,
		DBFileSizes:    sizes,
	}, nil
}
