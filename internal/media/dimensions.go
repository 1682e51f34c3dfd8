package media

import (
	"fmt"
	"image"
	"time"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // BMP format support
	_ "golang.org/x/image/webp" // WebP format support

	"terra/internal/filesystem"
	"terra/internal/logging"
	"terra/internal/mediatypes"
	"terra/internal/metrics"
)

// ProbeMode selects how image dimensions are read.
type ProbeMode string

const (
	// ProbeHeader reads only the image header.
	ProbeHeader ProbeMode = "header"
	// ProbeDecode decodes the whole image with EXIF orientation applied,
	// so rotated photos report display dimensions and truncated bodies
	// yield the unknown sentinel.
	ProbeDecode ProbeMode = "decode"
)

// MaxDecodePixels caps full decodes in ProbeDecode mode. Larger images
// report their header dimensions instead; a 20MP RGBA decode is ~80MB.
const MaxDecodePixels = 20_000_000

// ParseProbeMode validates a configured probe mode.
func ParseProbeMode(s string) (ProbeMode, error) {
	switch ProbeMode(s) {
	case ProbeHeader, ProbeDecode:
		return ProbeMode(s), nil
	case "":
		return ProbeHeader, nil
	default:
		return "", fmt.Errorf("unknown probe mode %q (want header or decode)", s)
	}
}

// Prober reads pixel dimensions of still images. (0,0) means unknown.
type Prober struct {
	mode  ProbeMode
	retry filesystem.RetryConfig
}

// NewProber creates a Prober for mode.
func NewProber(mode ProbeMode, retry filesystem.RetryConfig) *Prober {
	if mode == "" {
		mode = ProbeHeader
	}
	return &Prober{mode: mode, retry: retry}
}

// Mode returns the probe mode.
func (p *Prober) Mode() ProbeMode {
	return p.mode
}

// Probe returns the width and height of the image at path. Video files are
// not probed. Any failure is logged and reported as (0,0).
func (p *Prober) Probe(path string) (width, height uint32) {
	mode := string(p.mode)

	if mediatypes.IsVideo(path) {
		metrics.DimensionProbeTotal.WithLabelValues(mode, "skipped").Inc()
		return 0, 0
	}

	start := time.Now()
	w, h, err := p.probe(path)
	metrics.DimensionProbeDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())

	if err != nil {
		logging.Debug("Could not read dimensions of %s: %v", path, err)
		metrics.DimensionProbeTotal.WithLabelValues(mode, "error").Inc()
		return 0, 0
	}

	metrics.DimensionProbeTotal.WithLabelValues(mode, "success").Inc()
	return uint32(w), uint32(h)
}

func (p *Prober) probe(path string) (int, int, error) {
	cfg, err := p.decodeConfig(path)
	if err != nil {
		return 0, 0, err
	}

	if p.mode != ProbeDecode {
		return cfg.Width, cfg.Height, nil
	}

	if cfg.Width*cfg.Height > MaxDecodePixels {
		logging.Debug("Image %s is %dx%d, using header dimensions", path, cfg.Width, cfg.Height)
		return cfg.Width, cfg.Height, nil
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open image: %w", err)
	}
	b := img.Bounds()
	return b.Dx(), b.Dy(), nil
}

// decodeConfig reads the image header without decoding pixels.
func (p *Prober) decodeConfig(path string) (image.Config, error) {
	file, err := filesystem.OpenWithRetry(path, p.retry)
	if err != nil {
		return image.Config{}, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	cfg, _, err := image.DecodeConfig(file)
	return cfg, err
}
