package database

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"
)

const (
	keyLastScanRoot = "last_scan_root"
	keyLastScanAt   = "last_scan_at"
)

// GetMetadata retrieves a metadata value by key.
// Returns sql.ErrNoRows if the key doesn't exist.
func (d *Database) GetMetadata(ctx context.Context, key string) (value string, err error) {
	done := observeQuery("get_metadata")
	defer func() {
		if errors.Is(err, sql.ErrNoRows) {
			done(nil)
			return
		}
		done(err)
	}()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var v sql.NullString
	err = d.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", key).Scan(&v)
	if err != nil {
		return "", err
	}
	return v.String, nil
}

// SetMetadata sets a metadata key-value pair.
func (d *Database) SetMetadata(ctx context.Context, key, value string) (err error) {
	done := observeQuery("set_metadata")
	defer func() { done(err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// GetLastScan returns the root and time of the last persisted scan.
// Both are zero if no scan has been persisted.
func (d *Database) GetLastScan(ctx context.Context) (root string, at time.Time, err error) {
	root, err = d.GetMetadata(ctx, keyLastScanRoot)
	if errors.Is(err, sql.ErrNoRows) {
		return "", time.Time{}, nil
	}
	if err != nil {
		return "", time.Time{}, err
	}

	raw, err := d.GetMetadata(ctx, keyLastScanAt)
	if errors.Is(err, sql.ErrNoRows) || raw == "" {
		return root, time.Time{}, nil
	}
	if err != nil {
		return "", time.Time{}, err
	}

	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return root, time.Time{}, err
	}
	return root, time.Unix(secs, 0).UTC(), nil
}

// SetLastScan records a persisted scan of root at t.
func (d *Database) SetLastScan(ctx context.Context, root string, t time.Time) error {
	if err := d.SetMetadata(ctx, keyLastScanRoot, root); err != nil {
		return err
	}
	return d.SetMetadata(ctx, keyLastScanAt, strconv.FormatInt(t.Unix(), 10))
}
