package media

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"terra/internal/filesystem"
	"terra/internal/logging"
	"terra/internal/mediatypes"
	"terra/internal/metrics"
)

// CaptureSource names the resolver stage that produced a capture time.
type CaptureSource string

const (
	// CaptureSourceExif is an embedded DateTimeOriginal or DateTime tag.
	CaptureSourceExif CaptureSource = "exif"
	// CaptureSourceFilename is a YYYY-MM-DD[_HHMMSS] date in the file name.
	CaptureSourceFilename CaptureSource = "filename"
	// CaptureSourceModTime is the filesystem modification time.
	CaptureSourceModTime CaptureSource = "mtime"
	// CaptureSourceClock is the wall clock at resolution time.
	CaptureSourceClock CaptureSource = "clock"
)

// captureStage yields a Unix timestamp or ok=false to fall through.
type captureStage struct {
	source  CaptureSource
	resolve func(path, name string) (int64, bool)
}

// CaptureResolver picks a capture timestamp for a file from an ordered
// list of stages; the first stage that yields a value wins. It holds no
// mutable state and is safe for concurrent use.
type CaptureResolver struct {
	stages []captureStage
	now    func() time.Time
}

// NewCaptureResolver returns a resolver trying, in order: EXIF, filename,
// modification time. The wall clock is the last resort.
func NewCaptureResolver(retry filesystem.RetryConfig) *CaptureResolver {
	return &CaptureResolver{
		stages: []captureStage{
			{CaptureSourceExif, func(p, _ string) (int64, bool) { return exifDate(p, retry) }},
			{CaptureSourceFilename, func(_, name string) (int64, bool) { return filenameDate(name) }},
			{CaptureSourceModTime, func(p, _ string) (int64, bool) { return modTime(p, retry) }},
		},
		now: time.Now,
	}
}

// Resolve returns the capture time of path as Unix seconds and the stage
// that produced it. It never fails.
func (r *CaptureResolver) Resolve(path string) (int64, CaptureSource) {
	return r.ResolveNamed(path, filepath.Base(path))
}

// ResolveNamed is Resolve with the filename stage reading name instead of
// path's base name, so a symlink keeps the date in its own name.
func (r *CaptureResolver) ResolveNamed(path, name string) (int64, CaptureSource) {
	for _, stage := range r.stages {
		if ts, ok := stage.resolve(path, name); ok {
			metrics.CaptureSourceTotal.WithLabelValues(string(stage.source)).Inc()
			logging.Debug("Capture time for %s from %s: %d", path, stage.source, ts)
			return ts, stage.source
		}
	}

	logging.Warn("No capture time source for %s, using current time", path)
	metrics.CaptureSourceTotal.WithLabelValues(string(CaptureSourceClock)).Inc()
	return r.now().Unix(), CaptureSourceClock
}

// exifDate reads DateTimeOriginal, falling back to DateTime, from the
// file's embedded EXIF block. Only still-image extensions are tried.
func exifDate(path string, retry filesystem.RetryConfig) (ts int64, ok bool) {
	if !mediatypes.IsImage(path) {
		return 0, false
	}

	// goexif can panic on truncated IFDs.
	defer func() {
		if r := recover(); r != nil {
			logging.Debug("EXIF decode panicked for %s: %v", path, r)
			ts, ok = 0, false
		}
	}()

	f, err := filesystem.OpenWithRetry(path, retry)
	if err != nil {
		logging.Debug("Cannot open %s for EXIF: %v", path, err)
		return 0, false
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil && (x == nil || exif.IsCriticalError(err)) {
		return 0, false
	}

	for _, field := range []exif.FieldName{exif.DateTimeOriginal, exif.DateTime} {
		tag, err := x.Get(field)
		if err != nil {
			continue
		}
		raw, err := tag.StringVal()
		if err != nil {
			continue
		}
		if t, ok := parseExifDateTime(raw); ok {
			return t.Unix(), true
		}
		logging.Debug("Unparseable EXIF %s in %s: %q", field, path, raw)
	}
	return 0, false
}

// parseExifDateTime parses "YYYY:MM:DD HH:MM:SS" (NUL or space padded) as
// UTC. Values that do not name a real instant are rejected.
func parseExifDateTime(raw string) (time.Time, bool) {
	raw = strings.Trim(raw, "\x00 ")
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ':' || r == ' ' })
	if len(fields) != 6 {
		return time.Time{}, false
	}

	var v [6]int
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return time.Time{}, false
		}
		v[i] = n
	}

	return validDate(v[0], v[1], v[2], v[3], v[4], v[5])
}

// filenamePattern matches YYYY-MM-DD or YYYY_MM_DD, optionally followed by
// _HHMMSS.
var filenamePattern = regexp.MustCompile(`(\d{4})[-_](\d{2})[-_](\d{2})(?:_(\d{2})(\d{2})(\d{2}))?`)

// filenameDate returns the first plausible date embedded in name, at
// midnight UTC unless a time of day follows it.
func filenameDate(name string) (int64, bool) {
	for _, m := range filenamePattern.FindAllStringSubmatch(name, -1) {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if year < 1970 || year > 2100 || month < 1 || month > 12 || day < 1 || day > 31 {
			continue
		}

		hour, minute, sec := 0, 0, 0
		if m[4] != "" {
			hour, _ = strconv.Atoi(m[4])
			minute, _ = strconv.Atoi(m[5])
			sec, _ = strconv.Atoi(m[6])
		}

		t, ok := validDate(year, month, day, hour, minute, sec)
		if !ok && m[4] != "" {
			// A bad time of day does not spoil the date.
			t, ok = validDate(year, month, day, 0, 0, 0)
		}
		if ok {
			return t.Unix(), true
		}
	}
	return 0, false
}

// modTime returns the file's modification time.
func modTime(path string, retry filesystem.RetryConfig) (int64, bool) {
	info, err := filesystem.StatWithRetry(path, retry)
	if err != nil {
		logging.Debug("Cannot stat %s for mtime: %v", path, err)
		return 0, false
	}
	return info.ModTime().Unix(), true
}

// validDate builds a UTC time and rejects components that time.Date would
// normalise (Feb 30, hour 24 and so on).
func validDate(year, month, day, hour, minute, sec int) (time.Time, bool) {
	t := time.Date(year, time.Month(month), day, hour, minute, sec, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day ||
		t.Hour() != hour || t.Minute() != minute || t.Second() != sec {
		return time.Time{}, false
	}
	return t, true
}
