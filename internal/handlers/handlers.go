package handlers

import (
	"context"
	"time"

	"terra/internal/database"
)

// Library is the set of host operations served over HTTP.
type Library interface {
	ScanDirectory(ctx context.Context, root string, persist bool) ([]database.Photo, error)
	UploadPhotos(ctx context.Context, sources []string) ([]database.Photo, error)
	ListPhotos(ctx context.Context) ([]database.Photo, error)
	DeletePhotos(ctx context.Context, paths []string) error
	ToggleFavorite(ctx context.Context, path string, value bool) error
	ListFavorites(ctx context.Context) ([]database.Photo, error)
	CountsByYear(ctx context.Context) ([]database.YearCount, error)
	CreateAlbum(ctx context.Context, name string) (int64, error)
	DeleteAlbum(ctx context.Context, albumID int64) error
	ListAlbums(ctx context.Context) ([]database.Album, error)
	AddToAlbum(ctx context.Context, albumID int64, paths []string) error
	RemoveFromAlbum(ctx context.Context, albumID int64, paths []string) error
	ListAlbumPhotos(ctx context.Context, albumID int64) ([]database.Photo, error)
	SetAlbumCover(ctx context.Context, albumID int64, path string) error
	Stats(ctx context.Context) (database.LibraryStats, error)
	IsScanning() bool
}

type Handlers struct {
	library   Library
	startTime time.Time
}

func New(library Library) *Handlers {
	return &Handlers{
		library:   library,
		startTime: time.Now(),
	}
}
