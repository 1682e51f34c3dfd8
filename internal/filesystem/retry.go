package filesystem

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"terra/internal/logging"
)

// VolumeResolver maps file paths to volume labels for metrics.
// It uses longest-prefix matching on absolute paths.
type VolumeResolver struct {
	// sorted by path length descending
	mounts []volumeMount
}

type volumeMount struct {
	path string // absolute, trailing separator
	name string
}

// NewVolumeResolver creates a resolver from a map of volume name to path:
//
//	NewVolumeResolver(map[string]string{
//	    "library": cfg.LibraryDir,
//	    "data":    cfg.DataDir,
//	})
func NewVolumeResolver(volumes map[string]string) *VolumeResolver {
	mounts := make([]volumeMount, 0, len(volumes))
	for name, path := range volumes {
		absPath, err := filepath.Abs(path)
		if err != nil {
			absPath = path
		}
		if !strings.HasSuffix(absPath, string(filepath.Separator)) {
			absPath += string(filepath.Separator)
		}
		mounts = append(mounts, volumeMount{path: absPath, name: name})
	}

	sort.Slice(mounts, func(i, j int) bool {
		return len(mounts[i].path) > len(mounts[j].path)
	})

	return &VolumeResolver{mounts: mounts}
}

// Resolve returns the volume label for path, or "other" if no configured
// volume contains it. Paths outside the managed directories (scan roots,
// upload sources) land in "other".
func (vr *VolumeResolver) Resolve(path string) string {
	if vr == nil {
		return "other"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "other"
	}

	withSep := absPath + string(filepath.Separator)
	for _, mount := range vr.mounts {
		if strings.HasPrefix(withSep, mount.path) {
			return mount.name
		}
	}

	return "other"
}

var defaultResolver *VolumeResolver

// SetDefaultVolumeResolver sets the package-level volume resolver.
func SetDefaultVolumeResolver(vr *VolumeResolver) {
	defaultResolver = vr
}

// RetryConfig configures retry behavior for filesystem operations
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// VolumeResolver overrides the package-level resolver when set.
	VolumeResolver *VolumeResolver
}

// DefaultRetryConfig returns the defaults used for network-mounted photo
// directories.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

func (c *RetryConfig) resolveVolume(path string) string {
	if c.VolumeResolver != nil {
		return c.VolumeResolver.Resolve(path)
	}
	return defaultResolver.Resolve(path)
}

// isStaleHandle reports whether err is ESTALE, which NFS and some FUSE
// mounts return after the server side of an open handle changed.
func isStaleHandle(err error) bool {
	if err == nil {
		return false
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.ESTALE
	}
	return false
}

// withRetry runs fn until it succeeds, fails with a non-stale error, or
// MaxRetries is exhausted. Backoff doubles up to MaxBackoff.
func withRetry[T any](op, path string, config RetryConfig, fn func() (T, error)) (T, error) {
	start := time.Now()
	volume := config.resolveVolume(path)
	backoff := config.InitialBackoff

	done := func(v T, err error) (T, error) {
		emit(Event{Kind: EventDone, Op: op, Volume: volume, Elapsed: time.Since(start), Err: err})
		return v, err
	}

	var zero T
	for attempt := 0; ; attempt++ {
		v, err := fn()
		if err == nil {
			if attempt > 0 {
				logging.Info("%s recovered on retry %d for %s", op, attempt, path)
				emit(Event{Kind: EventRecovered, Op: op, Volume: volume})
			}
			return done(v, nil)
		}
		if !isStaleHandle(err) {
			return done(zero, err)
		}

		emit(Event{Kind: EventStale, Op: op, Volume: volume})
		if attempt >= config.MaxRetries {
			logging.Warn("%s gave up after %d retries for %s: %v", op, config.MaxRetries, path, err)
			emit(Event{Kind: EventExhausted, Op: op, Volume: volume})
			return done(zero, err)
		}

		emit(Event{Kind: EventRetry, Op: op, Volume: volume})
		logging.Debug("%s stale handle for %s, retry %d/%d in %v",
			op, path, attempt+1, config.MaxRetries, backoff)
		time.Sleep(backoff)
		backoff = min(backoff*2, config.MaxBackoff)
	}
}

// StatWithRetry performs os.Stat, retrying stale file handle errors.
func StatWithRetry(path string, config RetryConfig) (os.FileInfo, error) {
	return withRetry("stat", path, config, func() (os.FileInfo, error) {
		return os.Stat(path)
	})
}

// OpenWithRetry performs os.Open, retrying stale file handle errors.
func OpenWithRetry(path string, config RetryConfig) (*os.File, error) {
	return withRetry("open", path, config, func() (*os.File, error) {
		return os.Open(path)
	})
}
