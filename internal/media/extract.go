package media

import (
	"path/filepath"

	"terra/internal/database"
	"terra/internal/filesystem"
	"terra/internal/logging"
)

// Extractor builds a photo record for one file from its canonical path,
// capture time and dimensions. Extract touches only the file it is given
// and may be called from many goroutines at once.
type Extractor struct {
	capture *CaptureResolver
	prober  *Prober
}

// NewExtractor combines a capture resolver and a dimension prober.
func NewExtractor(capture *CaptureResolver, prober *Prober) *Extractor {
	return &Extractor{capture: capture, prober: prober}
}

// NewDefaultExtractor returns an Extractor with the default retry policy.
func NewDefaultExtractor(mode ProbeMode) *Extractor {
	retry := filesystem.DefaultRetryConfig()
	return NewExtractor(NewCaptureResolver(retry), NewProber(mode, retry))
}

// Extract returns the record for path, or ok=false when path has no usable
// base name. SourceType is left empty for the caller to stamp on persist.
func (e *Extractor) Extract(path string) (photo *database.Photo, ok bool) {
	canonical := Canonicalize(path)

	name := filepath.Base(canonical)
	if name == "" || name == "." || name == string(filepath.Separator) {
		logging.Debug("Skipping %q: no base name", path)
		return nil, false
	}

	ts, _ := e.capture.ResolveNamed(canonical, filepath.Base(path))
	width, height := e.prober.Probe(canonical)

	return &database.Photo{
		Path:      canonical,
		Name:      name,
		DateTaken: ts,
		Width:     width,
		Height:    height,
	}, true
}

// Canonicalize returns the absolute, symlink-free form of path, or path
// unchanged when that cannot be determined.
func Canonicalize(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		logging.Debug("Cannot canonicalize %s: %v", path, err)
		return path
	}
	return resolved
}
