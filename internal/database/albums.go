package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// CreateAlbum creates an album and returns its id. The name is trimmed and
// must not be empty.
func (d *Database) CreateAlbum(ctx context.Context, name string) (id int64, err error) {
	done := observeQuery("create_album")
	defer func() { done(err) }()

	name = strings.TrimSpace(name)
	if name == "" {
		return 0, ErrEmptyAlbumName
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := d.db.ExecContext(ctx,
		`INSERT INTO albums (name, created_at) VALUES (?, ?)`,
		name, d.now().Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("create album %q: %w", name, err)
	}
	return res.LastInsertId()
}

// DeleteAlbum removes an album; its memberships cascade. Deleting an
// unknown id is not an error.
func (d *Database) DeleteAlbum(ctx context.Context, id int64) (err error) {
	done := observeQuery("delete_album")
	defer func() { done(err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err = d.db.ExecContext(ctx, `DELETE FROM albums WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete album %d: %w", id, err)
	}
	return nil
}

// GetAlbum returns one album with its member count, or ErrAlbumNotFound.
func (d *Database) GetAlbum(ctx context.Context, id int64) (album *Album, err error) {
	done := observeQuery("get_album")
	defer func() {
		if errors.Is(err, ErrAlbumNotFound) {
			done(nil)
			return
		}
		done(err)
	}()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := d.db.QueryRowContext(ctx, `
		SELECT a.id, a.name, a.cover_photo_path, a.created_at, COUNT(ap.photo_path)
		FROM albums a
		LEFT JOIN album_photos ap ON ap.album_id = a.id
		WHERE a.id = ?
		GROUP BY a.id
	`, id)

	a, err := scanAlbum(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAlbumNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAlbums returns every album with its member count, most recently
// created first.
func (d *Database) ListAlbums(ctx context.Context) (albums []Album, err error) {
	done := observeQuery("list_albums")
	defer func() { done(err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT a.id, a.name, a.cover_photo_path, a.created_at, COUNT(ap.photo_path)
		FROM albums a
		LEFT JOIN album_photos ap ON ap.album_id = a.id
		GROUP BY a.id
		ORDER BY a.created_at DESC, a.id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list albums: %w", err)
	}
	defer rows.Close()

	albums = []Album{}
	for rows.Next() {
		a, err := scanAlbum(rows)
		if err != nil {
			return nil, err
		}
		albums = append(albums, a)
	}
	return albums, rows.Err()
}

// AddToAlbum adds paths to an album. Paths already in the album are
// ignored. The whole batch commits or none of it does.
func (d *Database) AddToAlbum(ctx context.Context, albumID int64, paths ...string) (err error) {
	done := observeQuery("add_to_album")
	defer func() { done(err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	addedAt := d.now().Unix()

	err = d.withTx(ctx, "add_to_album", func(tx *sql.Tx) error {
		if err := albumExistsTx(ctx, tx, albumID); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR IGNORE INTO album_photos (album_id, photo_path, added_at)
			VALUES (?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, p := range paths {
			if _, err := stmt.ExecContext(ctx, albumID, p, addedAt); err != nil {
				return fmt.Errorf("add %s: %w", p, err)
			}
		}
		return nil
	})
	return err
}

// RemoveFromAlbum removes paths from an album. Paths that are not members
// are ignored.
func (d *Database) RemoveFromAlbum(ctx context.Context, albumID int64, paths ...string) (err error) {
	done := observeQuery("remove_from_album")
	defer func() { done(err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err = d.withTx(ctx, "remove_from_album", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `DELETE FROM album_photos WHERE album_id = ? AND photo_path = ?`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, p := range paths {
			if _, err := stmt.ExecContext(ctx, albumID, p); err != nil {
				return fmt.Errorf("remove %s: %w", p, err)
			}
		}
		return nil
	})
	return err
}

// ListAlbumPhotos returns the indexed photos in an album, newest capture
// first. Members whose photo record no longer exists are omitted.
func (d *Database) ListAlbumPhotos(ctx context.Context, albumID int64) (photos []Photo, err error) {
	done := observeQuery("list_album_photos")
	defer func() { done(err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT p.id, p.path, p.name, p.date_taken, p.width, p.height, p.source_type, p.is_favorite, p.created_at
		FROM album_photos ap
		INNER JOIN photos p ON p.path = ap.photo_path
		WHERE ap.album_id = ?
		ORDER BY p.date_taken DESC, p.path ASC
	`, albumID)
	if err != nil {
		return nil, fmt.Errorf("failed to list album %d: %w", albumID, err)
	}
	defer rows.Close()

	return scanPhotos(rows)
}

// SetAlbumCover sets the cover path of an album. The path is not required
// to be indexed or a member.
func (d *Database) SetAlbumCover(ctx context.Context, albumID int64, path string) (err error) {
	done := observeQuery("set_album_cover")
	defer func() { done(err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := d.db.ExecContext(ctx, `UPDATE albums SET cover_photo_path = ? WHERE id = ?`, path, albumID)
	if err != nil {
		return fmt.Errorf("set cover for album %d: %w", albumID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAlbumNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlbum(row rowScanner) (Album, error) {
	var a Album
	var cover sql.NullString
	if err := row.Scan(&a.ID, &a.Name, &cover, &a.CreatedAt, &a.PhotoCount); err != nil {
		return Album{}, err
	}
	a.CoverPhotoPath = cover.String
	return a, nil
}

func albumExistsTx(ctx context.Context, tx *sql.Tx, id int64) error {
	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM albums WHERE id = ?)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrAlbumNotFound
	}
	return nil
}
