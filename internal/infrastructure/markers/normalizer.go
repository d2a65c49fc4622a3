package markers

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/AtRiskMedia/cmi-charts/internal/domain/entities/forecast"
	"github.com/AtRiskMedia/cmi-charts/internal/infrastructure/media"
	"github.com/AtRiskMedia/cmi-charts/internal/infrastructure/observability/logging"
)

// Report counts what one Normalize pass did.
type Report struct {
	Normalized int
	Removed    int
	Failed     int
}

// Add accumulates other into r.
func (r *Report) Add(other Report) {
	r.Normalized += other.Normalized
	r.Removed += other.Removed
	r.Failed += other.Failed
}

// Normalizer writes one JSON record per marker file of a run directory.
type Normalizer struct {
	deleteSource bool
	logger       *logging.ChanneledLogger
}

// NewNormalizer creates a Normalizer. With deleteSource the XML file is
// removed once its record has been written.
func NewNormalizer(deleteSource bool, logger *logging.ChanneledLogger) *Normalizer {
	return &Normalizer{deleteSource: deleteSource, logger: logger}
}

// Normalize converts the marker files of dialect d found in dir. The run
// key stored in each record is the base name of dir.
func (n *Normalizer) Normalize(dir string, d forecast.Dialect) (Report, error) {
	var report Report

	files, err := markerFiles(dir, d)
	if err != nil {
		return report, err
	}
	if len(files) == 0 {
		return report, nil
	}

	outDir := filepath.Join(dir, media.WebPDir)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return report, fmt.Errorf("failed to create %s: %w", outDir, err)
	}

	run := filepath.Base(dir)
	for _, file := range files {
		removed, err := n.normalizeFile(file, outDir, run, d)
		if err != nil {
			report.Failed++
			n.logger.Ingest().Error("Failed to normalize markers", "file", file, "dialect", d.Name(), "error", err.Error())
			continue
		}
		report.Normalized++
		if removed {
			report.Removed++
		}
	}
	return report, nil
}

func markerFiles(dir string, d forecast.Dialect) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.Type().IsRegular() && strings.HasPrefix(name, d.Prefix()) && strings.HasSuffix(name, ".xml") {
			out = append(out, filepath.Join(dir, name))
		}
	}
	sort.Strings(out)
	return out, nil
}

func (n *Normalizer) normalizeFile(path, outDir, run string, d forecast.Dialect) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}

	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	images, err := Parse(f, d)
	f.Close()
	if err != nil {
		return false, err
	}

	stem := strings.TrimSuffix(filepath.Base(path), ".xml")
	rec, err := forecast.NewRecord(d, stem, run, info.ModTime(), images)
	if err != nil {
		return false, err
	}

	target := filepath.Join(outDir, stem+".json")
	if err := writeRecord(target, rec); err != nil {
		return false, err
	}
	n.logger.Ingest().Debug("Marker record written", "file", target, "images", len(images))

	if !n.deleteSource {
		return false, nil
	}
	if err := os.Remove(path); err != nil {
		return false, fmt.Errorf("failed to remove source: %w", err)
	}
	return true, nil
}

// writeRecord encodes rec to a temp file and renames it over target.
func writeRecord(target string, rec *forecast.Record) error {
	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	encErr := rec.Encode(tmp)
	closeErr := tmp.Close()
	if err := errors.Join(encErr, closeErr); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", filepath.Base(target), err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move %s into place: %w", filepath.Base(target), err)
	}
	return nil
}
