package filesystem

import (
	"fmt"
	"io"
	"os"
	"time"
)

// CopyFile copies src to dst. dst is created exclusively, so an existing
// destination yields an error satisfying errors.Is(err, fs.ErrExist) and is
// left untouched. A partially written destination is removed on failure.
// The destination takes the source's modification time.
func CopyFile(src, dst string, config RetryConfig) (err error) {
	start := time.Now()
	volume := config.resolveVolume(dst)
	defer func() {
		emit(Event{Kind: EventDone, Op: "copy", Volume: volume, Elapsed: time.Since(start), Err: err})
	}()

	in, err := OpenWithRetry(src, config)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	if _, err = io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("copy bytes: %w", err)
	}
	if err = out.Sync(); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("sync destination: %w", err)
	}
	if err = out.Close(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("close destination: %w", err)
	}

	// The bytes are in place at this point; a failed Chtimes only costs the
	// mtime fallback on a later rescan.
	mtime := info.ModTime()
	_ = os.Chtimes(dst, mtime, mtime)
	return nil
}
