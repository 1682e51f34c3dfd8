package filesystem

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"testing"
	"time"
)

type recordingObserver struct {
	mu    sync.Mutex
	ops   []string
	kinds map[EventKind]int
}

func (r *recordingObserver) Observe(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.kinds == nil {
		r.kinds = make(map[EventKind]int)
	}
	r.kinds[e.Kind]++
	if e.Kind != EventDone {
		return
	}
	status := "ok"
	if e.Err != nil {
		status = "error"
	}
	r.ops = append(r.ops, e.Volume+"/"+e.Op+"/"+status)
}

func fastRetry() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 10 * time.Millisecond,
		MaxBackoff:     100 * time.Millisecond,
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	if config.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", config.MaxRetries)
	}
	if config.InitialBackoff != 50*time.Millisecond {
		t.Errorf("InitialBackoff = %v, want 50ms", config.InitialBackoff)
	}
	if config.MaxBackoff != 500*time.Millisecond {
		t.Errorf("MaxBackoff = %v, want 500ms", config.MaxBackoff)
	}
	if config.VolumeResolver != nil {
		t.Error("VolumeResolver should be nil by default")
	}
}

func TestIsStaleHandle(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"ESTALE", syscall.ESTALE, true},
		{"wrapped ESTALE", &os.PathError{Op: "stat", Path: "/x", Err: syscall.ESTALE}, true},
		{"ENOENT", syscall.ENOENT, false},
		{"not exist", os.ErrNotExist, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isStaleHandle(tt.err); got != tt.want {
				t.Errorf("isStaleHandle() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVolumeResolver_Resolve(t *testing.T) {
	library := t.TempDir()
	data := t.TempDir()
	vr := NewVolumeResolver(map[string]string{
		"library": library,
		"data":    data,
		"shard":   filepath.Join(library, "2021"),
	})

	tests := []struct {
		path string
		want string
	}{
		{filepath.Join(library, "2020", "01", "a.jpg"), "library"},
		{filepath.Join(library, "2021", "05", "b.jpg"), "shard"},
		{library, "library"},
		{filepath.Join(data, "photos.db"), "data"},
		{library + "-other/c.jpg", "other"},
		{"/somewhere/else.png", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := vr.Resolve(tt.path); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}

	var nilResolver *VolumeResolver
	if got := nilResolver.Resolve("/x"); got != "other" {
		t.Errorf("nil resolver Resolve = %q, want other", got)
	}
}

func TestStatWithRetry(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "test.txt")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	info, err := StatWithRetry(testFile, fastRetry())
	if err != nil {
		t.Fatalf("StatWithRetry() error = %v", err)
	}
	if info.Size() != 4 {
		t.Errorf("Size() = %d, want 4", info.Size())
	}

	start := time.Now()
	_, err = StatWithRetry(filepath.Join(tmpDir, "missing.txt"), fastRetry())
	if !os.IsNotExist(err) {
		t.Errorf("StatWithRetry() error = %v, want not-exist", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("StatWithRetry took %v, should not retry non-stale errors", elapsed)
	}
}

func TestOpenWithRetry(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "test.txt")
	if err := os.WriteFile(testFile, []byte("test content"), 0o644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	f, err := OpenWithRetry(testFile, fastRetry())
	if err != nil {
		t.Fatalf("OpenWithRetry() error = %v", err)
	}
	f.Close()

	if _, err := OpenWithRetry(filepath.Join(tmpDir, "missing.txt"), fastRetry()); !os.IsNotExist(err) {
		t.Errorf("OpenWithRetry() error = %v, want not-exist", err)
	}
}

func TestObserverReceivesOperations(t *testing.T) {
	original := defaultObserver
	defer SetObserver(original)

	rec := &recordingObserver{}
	SetObserver(rec)

	tmpDir := t.TempDir()
	cfg := fastRetry()
	cfg.VolumeResolver = NewVolumeResolver(map[string]string{"library": tmpDir})

	testFile := filepath.Join(tmpDir, "a.jpg")
	if err := os.WriteFile(testFile, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := StatWithRetry(testFile, cfg); err != nil {
		t.Fatal(err)
	}
	_, _ = StatWithRetry(filepath.Join(tmpDir, "nope.jpg"), cfg)

	want := []string{"library/stat/ok", "library/stat/error"}
	if len(rec.ops) != len(want) {
		t.Fatalf("observed %v, want %v", rec.ops, want)
	}
	for i := range want {
		if rec.ops[i] != want[i] {
			t.Errorf("op[%d] = %q, want %q", i, rec.ops[i], want[i])
		}
	}
}

func TestWithRetryEvents(t *testing.T) {
	original := defaultObserver
	defer SetObserver(original)

	tests := []struct {
		name       string
		staleCalls int
		wantErr    bool
		wantKinds  map[EventKind]int
	}{
		{"first try", 0, false, map[EventKind]int{EventDone: 1}},
		{"recovers", 2, false, map[EventKind]int{EventStale: 2, EventRetry: 2, EventRecovered: 1, EventDone: 1}},
		{"exhausted", 10, true, map[EventKind]int{EventStale: 4, EventRetry: 3, EventExhausted: 1, EventDone: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recordingObserver{}
			SetObserver(rec)

			calls := 0
			_, err := withRetry("stat", "/photos/a.jpg", fastRetry(), func() (int, error) {
				calls++
				if calls <= tt.staleCalls {
					return 0, &os.PathError{Op: "stat", Path: "/photos/a.jpg", Err: syscall.ESTALE}
				}
				return calls, nil
			})

			if (err != nil) != tt.wantErr {
				t.Fatalf("withRetry() error = %v, wantErr %v", err, tt.wantErr)
			}
			for kind, want := range tt.wantKinds {
				if got := rec.kinds[kind]; got != want {
					t.Errorf("kind %d observed %d times, want %d", kind, got, want)
				}
			}
		})
	}
}

func TestCopyFile(t *testing.T) {
	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "src.jpg")
	if err := os.WriteFile(src, []byte("jpeg bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	mtime := time.Date(2019, 3, 14, 15, 9, 26, 0, time.UTC)
	if err := os.Chtimes(src, mtime, mtime); err != nil {
		t.Fatal(err)
	}

	dst := filepath.Join(tmpDir, "dst.jpg")
	if err := CopyFile(src, dst, fastRetry()); err != nil {
		t.Fatalf("CopyFile() error = %v", err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "jpeg bytes" {
		t.Errorf("copied content = %q", got)
	}

	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(mtime) {
		t.Errorf("dst mtime = %v, want %v", info.ModTime(), mtime)
	}

	if _, err := os.Stat(src); err != nil {
		t.Errorf("source should be left in place: %v", err)
	}
}

func TestCopyFile_ExistingDestination(t *testing.T) {
	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "src.jpg")
	dst := filepath.Join(tmpDir, "dst.jpg")
	if err := os.WriteFile(src, []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dst, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := CopyFile(src, dst, fastRetry())
	if !errors.Is(err, fs.ErrExist) {
		t.Fatalf("CopyFile() error = %v, want ErrExist", err)
	}

	got, _ := os.ReadFile(dst)
	if string(got) != "old" {
		t.Errorf("existing destination was overwritten: %q", got)
	}
}

func TestCopyFile_MissingSource(t *testing.T) {
	tmpDir := t.TempDir()
	dst := filepath.Join(tmpDir, "dst.jpg")

	err := CopyFile(filepath.Join(tmpDir, "missing.jpg"), dst, fastRetry())
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("CopyFile() error = %v, want ErrNotExist", err)
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Error("destination should not be created when the source is missing")
	}
}

func BenchmarkStatWithRetry(b *testing.B) {
	tmpDir := b.TempDir()
	testFile := filepath.Join(tmpDir, "bench.txt")
	if err := os.WriteFile(testFile, []byte("x"), 0o644); err != nil {
		b.Fatal(err)
	}
	config := DefaultRetryConfig()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = StatWithRetry(testFile, config)
	}
}
