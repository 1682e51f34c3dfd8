package library

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"terra/internal/database"
	"terra/internal/media"
)

func setupTestDB(t *testing.T) *database.Database {
	t.Helper()

	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), "photos.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// writeSource writes a file whose mtime supplies the capture time.
func writeSource(t *testing.T, dir, name, content string, mtime time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
	return path
}

type failingStore struct{ failName string }

func (s failingStore) UpsertPhoto(_ context.Context, p *database.Photo, _ database.SourceType) error {
	if p.Name == s.failName {
		return errors.New("database is locked")
	}
	return nil
}

func TestShardDir(t *testing.T) {
	tests := []struct {
		name string
		ts   int64
		want string
	}{
		{"mid year", time.Date(2021, 7, 4, 10, 0, 0, 0, time.UTC).Unix(), filepath.Join("lib", "2021", "07")},
		{"new year UTC", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Unix(), filepath.Join("lib", "2024", "01")},
		{"last second of year", time.Date(2019, 12, 31, 23, 59, 59, 0, time.UTC).Unix(), filepath.Join("lib", "2019", "12")},
		{"epoch", 0, filepath.Join("lib", "1970", "01")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShardDir("lib", tt.ts); got != tt.want {
				t.Errorf("ShardDir() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSuffixedName(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want string
	}{
		{"IMG_001.jpg", 0, "IMG_001.jpg"},
		{"IMG_001.jpg", 1, "IMG_001_1.jpg"},
		{"IMG_001.jpg", 12, "IMG_001_12.jpg"},
		{"archive.tar.gz", 1, "archive.tar_1.gz"},
		{"README", 2, "README_2"},
		{".hidden", 1, ".hidden_1"},
	}

	for _, tt := range tests {
		if got := SuffixedName(tt.name, tt.n); got != tt.want {
			t.Errorf("SuffixedName(%q, %d) = %q, want %q", tt.name, tt.n, got, tt.want)
		}
	}
}

func TestIngestCopiesIntoShard(t *testing.T) {
	db := setupTestDB(t)
	src := t.TempDir()
	root := filepath.Join(t.TempDir(), "Library")
	taken := time.Date(2022, 5, 17, 8, 30, 0, 0, time.UTC)
	path := writeSource(t, src, "beach.jpg", "jpeg bytes", taken)

	in := New(db, media.NewDefaultExtractor(media.ProbeHeader), root, 2)
	got, err := in.Ingest(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Ingest() returned %d records, want 1", len(got))
	}

	wantPath := media.Canonicalize(filepath.Join(root, "2022", "05", "beach.jpg"))
	if got[0].Path != wantPath || got[0].Name != "beach.jpg" {
		t.Errorf("record = (%s, %s), want (%s, beach.jpg)", got[0].Path, got[0].Name, wantPath)
	}
	if got[0].SourceType != database.SourceUpload {
		t.Errorf("SourceType = %q, want upload", got[0].SourceType)
	}

	data, err := os.ReadFile(wantPath)
	if err != nil || string(data) != "jpeg bytes" {
		t.Errorf("copied content = %q, %v", data, err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("source was removed: %v", err)
	}

	info, err := os.Stat(wantPath)
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(taken) {
		t.Errorf("destination mtime = %v, want %v", info.ModTime(), taken)
	}

	exists, err := db.PhotoExists(context.Background(), wantPath)
	if err != nil || !exists {
		t.Errorf("PhotoExists(%s) = %v, %v", wantPath, exists, err)
	}
}

func TestIngestNameCollision(t *testing.T) {
	db := setupTestDB(t)
	root := filepath.Join(t.TempDir(), "Library")
	taken := time.Date(2020, 2, 2, 12, 0, 0, 0, time.UTC)

	first := writeSource(t, t.TempDir(), "IMG.jpg", "first", taken)
	second := writeSource(t, t.TempDir(), "IMG.jpg", "second", taken)
	third := writeSource(t, t.TempDir(), "IMG.jpg", "third", taken)

	in := New(db, media.NewDefaultExtractor(media.ProbeHeader), root, 4)
	got, err := in.Ingest(context.Background(), []string{first, second, third})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Ingest() returned %d records, want 3", len(got))
	}

	shard := filepath.Join(root, "2020", "02")
	want := map[string]string{"IMG.jpg": "first", "IMG_1.jpg": "second", "IMG_2.jpg": "third"}
	for i, name := range []string{"IMG.jpg", "IMG_1.jpg", "IMG_2.jpg"} {
		if got[i].Name != name {
			t.Errorf("record %d name = %s, want %s", i, got[i].Name, name)
		}
		data, err := os.ReadFile(filepath.Join(shard, name))
		if err != nil || string(data) != want[name] {
			t.Errorf("%s content = %q, %v; want %q", name, data, err, want[name])
		}
	}

	photos, err := db.ListPhotos(context.Background())
	if err != nil {
		t.Fatalf("ListPhotos() error = %v", err)
	}
	if len(photos) != 3 {
		t.Errorf("store has %d rows, want 3", len(photos))
	}
}

func TestIngestSkipsMissingSource(t *testing.T) {
	db := setupTestDB(t)
	src := t.TempDir()
	root := filepath.Join(t.TempDir(), "Library")
	ok := writeSource(t, src, "ok.png", "png", time.Date(2023, 9, 9, 0, 0, 0, 0, time.UTC))

	in := New(db, media.NewDefaultExtractor(media.ProbeHeader), root, 2)
	got, err := in.Ingest(context.Background(), []string{filepath.Join(src, "gone.jpg"), src, ok})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if len(got) != 1 || got[0].Name != "ok.png" {
		t.Errorf("Ingest() = %+v, want only ok.png", got)
	}
}

func TestIngestPersistFailureSkipsFile(t *testing.T) {
	src := t.TempDir()
	root := filepath.Join(t.TempDir(), "Library")
	taken := time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)
	a := writeSource(t, src, "a.jpg", "a", taken)
	b := writeSource(t, src, "b.jpg", "b", taken)

	in := New(failingStore{failName: "a.jpg"}, media.NewDefaultExtractor(media.ProbeHeader), root, 2)
	got, err := in.Ingest(context.Background(), []string{a, b})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if len(got) != 1 || got[0].Name != "b.jpg" {
		t.Errorf("Ingest() = %+v, want only b.jpg", got)
	}
	if _, err := os.Stat(filepath.Join(root, "2023", "01", "a.jpg")); err != nil {
		t.Errorf("copy of unsaved file should stay on disk: %v", err)
	}
}

func TestIngestUnusableRoot(t *testing.T) {
	dir := t.TempDir()
	root := writeSource(t, dir, "not-a-dir", "x", time.Now())

	in := New(failingStore{}, media.NewDefaultExtractor(media.ProbeHeader), root, 1)
	if _, err := in.Ingest(context.Background(), []string{root}); err == nil {
		t.Error("Ingest() error = nil for a library root that is a file")
	}
}

func TestIngestReportsProgress(t *testing.T) {
	src := t.TempDir()
	a := writeSource(t, src, "a.jpg", "a", time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC))

	var last [2]int
	in := New(failingStore{}, media.NewDefaultExtractor(media.ProbeHeader), t.TempDir(), 1)
	in.SetOnProgress(func(done, total int) { last = [2]int{done, total} })

	if _, err := in.Ingest(context.Background(), []string{a, filepath.Join(src, "missing.jpg")}); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if last != [2]int{2, 2} {
		t.Errorf("last progress = %v, want [2 2]", last)
	}
}

type refusingGate struct{}

func (refusingGate) Wait(context.Context) bool { return false }

func TestIngestGateRefusalSkipsExtraction(t *testing.T) {
	src := t.TempDir()
	root := filepath.Join(t.TempDir(), "Library")
	a := writeSource(t, src, "a.jpg", "a", time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC))

	in := New(failingStore{}, media.NewDefaultExtractor(media.ProbeHeader), root, 1)
	in.SetGate(refusingGate{})

	got, err := in.Ingest(context.Background(), []string{a})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Ingest() = %+v, want nothing while the gate refuses", got)
	}
}
