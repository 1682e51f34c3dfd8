package database

import (
	"context"
	"fmt"
)

// SetFavorite sets the favorite flag for path. Unknown paths are a no-op.
func (d *Database) SetFavorite(ctx context.Context, path string, favorite bool) (err error) {
	done := observeQuery("set_favorite")
	defer func() { done(err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, `UPDATE photos SET is_favorite = ? WHERE path = ?`, favorite, path)
	if err != nil {
		return fmt.Errorf("set favorite for %s: %w", path, err)
	}
	return nil
}

// ListFavorites returns favorite photos, newest capture first.
func (d *Database) ListFavorites(ctx context.Context) (photos []Photo, err error) {
	done := observeQuery("list_favorites")
	defer func() { done(err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT `+photoColumns+`
		FROM photos
		WHERE is_favorite = 1
		ORDER BY date_taken DESC, path ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get favorites: %w", err)
	}
	defer rows.Close()

	return scanPhotos(rows)
}
