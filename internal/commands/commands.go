package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"terra/internal/database"
	"terra/internal/indexer"
	"terra/internal/library"
	"terra/internal/logging"
)

// Commands binds the scanner, the ingestor and the metadata store.
type Commands struct {
	db       *database.Database
	scanner  *indexer.Scanner
	ingestor *library.Ingestor
}

// New creates the command facade.
func New(db *database.Database, scanner *indexer.Scanner, ingestor *library.Ingestor) *Commands {
	return &Commands{
		db:       db,
		scanner:  scanner,
		ingestor: ingestor,
	}
}

// ScanDirectory extracts every media file under root, saving the records
// as scanned photos when persist is set. On a persistence failure the
// extracted records are returned along with the error.
func (c *Commands) ScanDirectory(ctx context.Context, root string, persist bool) ([]database.Photo, error) {
	if root == "" {
		return nil, errors.New("scan root is required")
	}
	return c.scanner.Scan(ctx, root, persist)
}

// UploadPhotos copies the given files into the managed library and returns
// the records that were saved.
func (c *Commands) UploadPhotos(ctx context.Context, sources []string) ([]database.Photo, error) {
	if len(sources) == 0 {
		return []database.Photo{}, nil
	}
	return c.ingestor.Ingest(ctx, sources)
}

// ListPhotos returns every photo, newest capture first.
func (c *Commands) ListPhotos(ctx context.Context) ([]database.Photo, error) {
	return c.db.ListPhotos(ctx)
}

// DeletePhotos removes each path from the store, then deletes the file for
// every row that was actually removed. A store error stops the batch; a
// file that cannot be removed is only logged.
func (c *Commands) DeletePhotos(ctx context.Context, paths []string) error {
	for _, path := range paths {
		deleted, err := c.db.DeletePhoto(ctx, path)
		if err != nil {
			return fmt.Errorf("delete photo %s: %w", path, err)
		}
		if !deleted {
			logging.Debug("Delete requested for unknown photo %s", path)
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.Warn("Deleted photo %s from the library but could not remove the file: %v", path, err)
		}
	}
	return nil
}

// ToggleFavorite sets the favorite flag for path. Unknown paths are
// ignored.
func (c *Commands) ToggleFavorite(ctx context.Context, path string, value bool) error {
	return c.db.SetFavorite(ctx, path, value)
}

// ListFavorites returns the favorite photos, newest capture first.
func (c *Commands) ListFavorites(ctx context.Context) ([]database.Photo, error) {
	return c.db.ListFavorites(ctx)
}

// CountsByYear returns the number of photos per capture year, newest year
// first.
func (c *Commands) CountsByYear(ctx context.Context) ([]database.YearCount, error) {
	return c.db.CountsByYear(ctx)
}

// CreateAlbum creates an album and returns its id.
func (c *Commands) CreateAlbum(ctx context.Context, name string) (int64, error) {
	return c.db.CreateAlbum(ctx, name)
}

// DeleteAlbum deletes an album and its memberships.
func (c *Commands) DeleteAlbum(ctx context.Context, albumID int64) error {
	return c.db.DeleteAlbum(ctx, albumID)
}

// ListAlbums returns all albums with their photo counts, newest first.
func (c *Commands) ListAlbums(ctx context.Context) ([]database.Album, error) {
	return c.db.ListAlbums(ctx)
}

// AddToAlbum adds paths to an album; existing members are ignored.
func (c *Commands) AddToAlbum(ctx context.Context, albumID int64, paths []string) error {
	return c.db.AddToAlbum(ctx, albumID, paths...)
}

// RemoveFromAlbum removes paths from an album; non-members are ignored.
func (c *Commands) RemoveFromAlbum(ctx context.Context, albumID int64, paths []string) error {
	return c.db.RemoveFromAlbum(ctx, albumID, paths...)
}

// ListAlbumPhotos returns the photos in an album, newest capture first.
func (c *Commands) ListAlbumPhotos(ctx context.Context, albumID int64) ([]database.Photo, error) {
	return c.db.ListAlbumPhotos(ctx, albumID)
}

// SetAlbumCover sets an album's cover path, which need not be a member.
func (c *Commands) SetAlbumCover(ctx context.Context, albumID int64, path string) error {
	return c.db.SetAlbumCover(ctx, albumID, path)
}

// Stats returns library totals and the last scan.
func (c *Commands) Stats(ctx context.Context) (database.LibraryStats, error) {
	return c.db.Stats(ctx)
}

// IsScanning reports whether a directory scan is running.
func (c *Commands) IsScanning() bool {
	return c.scanner.IsScanning()
}
