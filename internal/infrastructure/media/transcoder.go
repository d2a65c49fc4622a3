// Package media converts forecast chart renders to WebP and builds their
// thumbnails.
package media

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"github.com/AtRiskMedia/cmi-charts/internal/infrastructure/observability/logging"
)

const (
	// WebPDir is the derived asset directory inside a run directory.
	WebPDir = "webp"
	// ThumbsDir is the thumbnail directory inside WebPDir.
	ThumbsDir = "thumbs"
	// ThumbPrefix prefixes every thumbnail file name.
	ThumbPrefix = "thumb_"
)

// Options configures a Transcoder.
type Options struct {
	Ext          string  // source extension without the dot, png by default
	ThumbSize    int     // thumbnail bounding box side in pixels
	Quality      float32 // lossy WebP quality
	DeleteSource bool    // remove sources once both outputs exist
}

// Report counts what one Transcode pass did.
type Report struct {
	Converted   int
	Thumbnailed int
	Removed     int
	Failed      int
}

// Add accumulates other into r.
func (r *Report) Add(other Report) {
	r.Converted += other.Converted
	r.Thumbnailed += other.Thumbnailed
	r.Removed += other.Removed
	r.Failed += other.Failed
}

// Transcoder converts the raster sources of a run directory.
type Transcoder struct {
	opts   Options
	logger *logging.ChanneledLogger
}

// NewTranscoder creates a Transcoder, filling unset options with defaults.
func NewTranscoder(opts Options, logger *logging.ChanneledLogger) *Transcoder {
	if opts.Ext == "" {
		opts.Ext = "png"
	}
	opts.Ext = strings.TrimPrefix(opts.Ext, ".")
	if opts.ThumbSize <= 0 {
		opts.ThumbSize = 600
	}
	if opts.Quality <= 0 {
		opts.Quality = 85
	}
	return &Transcoder{opts: opts, logger: logger}
}

// Transcode converts every source in dir. Per-file failures are logged and
// counted; the error is only set when dir itself cannot be read.
func (t *Transcoder) Transcode(dir string) (Report, error) {
	var report Report

	sources, err := t.sources(dir)
	if err != nil {
		return report, err
	}
	if len(sources) == 0 {
		return report, nil
	}

	thumbsDir := filepath.Join(dir, WebPDir, ThumbsDir)
	if err := os.MkdirAll(thumbsDir, 0755); err != nil {
		return report, fmt.Errorf("failed to create %s: %w", thumbsDir, err)
	}

	for _, src := range sources {
		if err := t.transcodeFile(dir, src, &report); err != nil {
			report.Failed++
			t.logger.Ingest().Error("Failed to transcode image", "file", src, "error", err.Error())
		}
	}
	return report, nil
}

func (t *Transcoder) sources(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}
	suffix := "." + t.opts.Ext
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), suffix) {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

func (t *Transcoder) transcodeFile(dir, src string, report *Report) error {
	stem := strings.TrimSuffix(filepath.Base(src), "."+t.opts.Ext)
	full := filepath.Join(dir, WebPDir, stem+".webp")
	thumb := filepath.Join(dir, WebPDir, ThumbsDir, ThumbPrefix+stem+".webp")

	var img image.Image
	load := func() (image.Image, error) {
		if img != nil {
			return img, nil
		}
		f, err := os.Open(src)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		decoded, err := imaging.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("failed to decode image: %w", err)
		}
		img = decoded
		return img, nil
	}

	if !exists(full) {
		m, err := load()
		if err != nil {
			return err
		}
		if err := t.save(full, m); err != nil {
			return err
		}
		report.Converted++
	}

	if !exists(thumb) {
		m, err := load()
		if err != nil {
			return err
		}
		// Fit never upscales images already inside the box.
		small := imaging.Fit(m, t.opts.ThumbSize, t.opts.ThumbSize, imaging.Lanczos)
		if err := t.save(thumb, small); err != nil {
			return err
		}
		report.Thumbnailed++
	}

	if t.opts.DeleteSource && exists(full) && exists(thumb) {
		if err := os.Remove(src); err != nil {
			return fmt.Errorf("failed to remove source: %w", err)
		}
		report.Removed++
	}
	return nil
}

// save encodes m next to path and renames it into place so readers never
// see a partial file.
func (t *Transcoder) save(path string, m image.Image) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	encErr := webp.Encode(tmp, m, &webp.Options{Quality: t.opts.Quality})
	closeErr := tmp.Close()
	if err := errors.Join(encErr, closeErr); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move %s into place: %w", filepath.Base(path), err)
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
