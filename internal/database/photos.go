package database

import (
	"context"
	"database/sql"
	"fmt"
)

const photoColumns = `id, path, name, date_taken, width, height, source_type, is_favorite, created_at`

// UpsertPhoto inserts p, replacing any existing row with the same path.
// Every column is rewritten: created_at becomes now and is_favorite falls
// back to its default, so a re-scan clears the favorite flag. p is updated
// to reflect the stored row.
func (d *Database) UpsertPhoto(ctx context.Context, p *Photo, source SourceType) (err error) {
	done := observeQuery("upsert_photo")
	defer func() { done(err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	createdAt := d.now().Unix()

	res, err := d.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO photos (path, name, date_taken, width, height, source_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.Path, p.Name, p.DateTaken, p.Width, p.Height, source, createdAt)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", p.Path, err)
	}

	if id, idErr := res.LastInsertId(); idErr == nil {
		p.ID = id
	}
	p.SourceType = source
	p.CreatedAt = createdAt
	p.IsFavorite = false
	return nil
}

// ListPhotos returns every record, newest capture first.
func (d *Database) ListPhotos(ctx context.Context) (photos []Photo, err error) {
	done := observeQuery("list_photos")
	defer func() { done(err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT `+photoColumns+`
		FROM photos
		ORDER BY date_taken DESC, path ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	defer rows.Close()

	return scanPhotos(rows)
}

// GetPhoto returns the record stored for path, or sql.ErrNoRows.
func (d *Database) GetPhoto(ctx context.Context, path string) (*Photo, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var p Photo
	err := d.db.QueryRowContext(ctx, `SELECT `+photoColumns+` FROM photos WHERE path = ?`, path).Scan(
		&p.ID, &p.Path, &p.Name, &p.DateTaken, &p.Width, &p.Height, &p.SourceType, &p.IsFavorite, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// PhotoExists reports whether a record exists for path.
func (d *Database) PhotoExists(ctx context.Context, path string) (exists bool, err error) {
	done := observeQuery("photo_exists")
	defer func() { done(err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err = d.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM photos WHERE path = ?)`, path).Scan(&exists)
	return exists, err
}

// DeletePhoto removes the record for path and every album membership that
// references it. It reports whether a photo row was removed; callers
// delete the underlying file only when it was.
func (d *Database) DeletePhoto(ctx context.Context, path string) (deleted bool, err error) {
	done := observeQuery("delete_photo")
	defer func() { done(err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err = d.withTx(ctx, "delete_photo", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM album_photos WHERE photo_path = ?`, path); err != nil {
			return fmt.Errorf("remove memberships: %w", err)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM photos WHERE path = ?`, path)
		if err != nil {
			return fmt.Errorf("remove photo: %w", err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		deleted = n > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", path, err)
	}
	return deleted, nil
}

// CountsByYear returns the number of photos per UTC capture year, newest
// year first.
func (d *Database) CountsByYear(ctx context.Context) (counts []YearCount, err error) {
	done := observeQuery("counts_by_year")
	defer func() { done(err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT strftime('%Y', date_taken, 'unixepoch') AS year, COUNT(*)
		FROM photos
		GROUP BY year
		ORDER BY year DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to count photos by year: %w", err)
	}
	defer rows.Close()

	counts = []YearCount{}
	for rows.Next() {
		var yc YearCount
		if err := rows.Scan(&yc.Year, &yc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, yc)
	}
	return counts, rows.Err()
}

// scanPhotos drains rows selected with photoColumns.
func scanPhotos(rows *sql.Rows) ([]Photo, error) {
	photos := []Photo{}
	for rows.Next() {
		var p Photo
		if err := rows.Scan(
			&p.ID, &p.Path, &p.Name, &p.DateTaken, &p.Width, &p.Height,
			&p.SourceType, &p.IsFavorite, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan photo row: %w", err)
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}
