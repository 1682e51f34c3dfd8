package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"terra/internal/database"
)

// setupEnv points the tool at a fresh data and library directory.
func setupEnv(t *testing.T) (libraryDir string) {
	t.Helper()
	base := t.TempDir()
	libraryDir = filepath.Join(base, "Library")
	t.Setenv("TERRA_CONFIG", "")
	t.Setenv("TERRA_DATA_DIR", filepath.Join(base, "data"))
	t.Setenv("TERRA_LIBRARY_DIR", libraryDir)
	return libraryDir
}

func runTool(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func writePhoto(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(name), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSanitizeCommand(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"scan", "scan"},
		{"re-set_2", "re-set_2"},
		{"a b", "a_b"},
		{"x\x1b[31m", "x__31m"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := sanitizeCommand(tt.in); got != tt.want {
			t.Errorf("sanitizeCommand(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRunUsage(t *testing.T) {
	setupEnv(t)

	if code, _, stderr := runTool(t); code != exitUsage || !strings.Contains(stderr, "Usage:") {
		t.Errorf("no args: code %d, stderr %q", code, stderr)
	}
	if code, stdout, _ := runTool(t, "help"); code != exitOK || !strings.Contains(stdout, "terractl") {
		t.Errorf("help: code %d, stdout %q", code, stdout)
	}
	if code, _, stderr := runTool(t, "bogus\n"); code != exitUsage || !strings.Contains(stderr, "Unknown command: bogus_") {
		t.Errorf("unknown: code %d, stderr %q", code, stderr)
	}
	if code, _, _ := runTool(t, "scan"); code != exitUsage {
		t.Errorf("scan without root: code %d, want %d", code, exitUsage)
	}
	if code, _, _ := runTool(t, "upload"); code != exitUsage {
		t.Errorf("upload without files: code %d, want %d", code, exitUsage)
	}
}

func TestRunScanPersistThenList(t *testing.T) {
	setupEnv(t)
	root := t.TempDir()
	writePhoto(t, root, "2020-05-06_070809.jpg")
	writePhoto(t, root, "notes.txt")

	code, stdout, stderr := runTool(t, "scan", root, "-persist")
	if code != exitOK {
		t.Fatalf("scan: code %d, stderr %q", code, stderr)
	}
	var scanned []database.Photo
	if err := json.Unmarshal([]byte(stdout), &scanned); err != nil {
		t.Fatalf("scan output is not JSON: %v\n%s", err, stdout)
	}
	if len(scanned) != 1 {
		t.Fatalf("scan returned %d records, want 1", len(scanned))
	}

	code, stdout, stderr = runTool(t, "list")
	if code != exitOK {
		t.Fatalf("list: code %d, stderr %q", code, stderr)
	}
	var listed []database.Photo
	if err := json.Unmarshal([]byte(stdout), &listed); err != nil {
		t.Fatalf("list output is not JSON: %v", err)
	}
	want := time.Date(2020, 5, 6, 7, 8, 9, 0, time.UTC).Unix()
	if len(listed) != 1 || listed[0].DateTaken != want {
		t.Errorf("list = %+v, want one photo taken at %d", listed, want)
	}

	code, stdout, _ = runTool(t, "years")
	if code != exitOK || !strings.Contains(stdout, `"2020"`) {
		t.Errorf("years: code %d, stdout %q", code, stdout)
	}
}

func TestRunScanWithoutPersistStoresNothing(t *testing.T) {
	setupEnv(t)
	root := t.TempDir()
	writePhoto(t, root, "a.png")

	if code, _, stderr := runTool(t, "scan", "-persist=false", root); code != exitOK {
		t.Fatalf("scan: code %d, stderr %q", code, stderr)
	}
	code, stdout, _ := runTool(t, "stats")
	if code != exitOK {
		t.Fatalf("stats: code %d", code)
	}
	var stats database.LibraryStats
	if err := json.Unmarshal([]byte(stdout), &stats); err != nil {
		t.Fatalf("stats output is not JSON: %v", err)
	}
	if stats.TotalPhotos != 0 {
		t.Errorf("TotalPhotos = %d, want 0", stats.TotalPhotos)
	}
}

func TestRunScanFlagPlacement(t *testing.T) {
	setupEnv(t)
	root := t.TempDir()
	writePhoto(t, root, "a.png")

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"flag before root", []string{"scan", "-persist", root}, exitOK},
		{"flag after root", []string{"scan", root, "-persist"}, exitOK},
		{"no flag", []string{"scan", root}, exitOK},
		{"extra argument", []string{"scan", root, "-persist", "other"}, exitUsage},
		{"unknown flag after root", []string{"scan", root, "-recursive"}, exitUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code, _, stderr := runTool(t, tt.args...); code != tt.want {
				t.Errorf("run(%v) = %d, want %d (stderr %q)", tt.args, code, tt.want, stderr)
			}
		})
	}
}

func TestRunScanMissingRoot(t *testing.T) {
	setupEnv(t)
	code, _, stderr := runTool(t, "scan", filepath.Join(t.TempDir(), "missing"))
	if code != exitError || !strings.Contains(stderr, "Error:") {
		t.Errorf("code %d, stderr %q", code, stderr)
	}
}

func TestRunUpload(t *testing.T) {
	libraryDir := setupEnv(t)
	src := writePhoto(t, t.TempDir(), "2017-12-24.jpg")

	code, stdout, stderr := runTool(t, "upload", src)
	if code != exitOK {
		t.Fatalf("upload: code %d, stderr %q", code, stderr)
	}
	var uploaded []database.Photo
	if err := json.Unmarshal([]byte(stdout), &uploaded); err != nil {
		t.Fatalf("upload output is not JSON: %v", err)
	}
	if len(uploaded) != 1 {
		t.Fatalf("uploaded %d, want 1", len(uploaded))
	}
	if _, err := os.Stat(filepath.Join(libraryDir, "2017", "12", "2017-12-24.jpg")); err != nil {
		t.Errorf("library copy missing: %v", err)
	}

	code, stdout, _ = runTool(t, "albums")
	if code != exitOK || strings.TrimSpace(stdout) != "[]" {
		t.Errorf("albums: code %d, stdout %q; want []", code, stdout)
	}
}
