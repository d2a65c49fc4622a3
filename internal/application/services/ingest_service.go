package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/AtRiskMedia/cmi-charts/internal/domain/entities/forecast"
	"github.com/AtRiskMedia/cmi-charts/internal/infrastructure/markers"
	"github.com/AtRiskMedia/cmi-charts/internal/infrastructure/media"
	"github.com/AtRiskMedia/cmi-charts/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/cmi-charts/internal/infrastructure/observability/metrics"
)

// IngestLockFile is the advisory lock taken in the model root during a pass.
const IngestLockFile = ".ingest.lock"

// IngestConfig configures the ingestion pass.
type IngestConfig struct {
	ModelsPath string
	ThumbSize  int
	Quality    float32
}

// IngestReport summarizes one ingestion pass.
type IngestReport struct {
	Runs    int
	Images  media.Report
	Markers markers.Report
	Locked  bool // another process held the lock, nothing was done
}

// IngestService converts every model run found under the model root.
type IngestService struct {
	root       string
	transcoder *media.Transcoder
	normalizer *markers.Normalizer
	metrics    *metrics.Metrics
	logger     *logging.ChanneledLogger
}

// NewIngestService creates an ingestion service deleting sources once converted.
func NewIngestService(cfg IngestConfig, m *metrics.Metrics, logger *logging.ChanneledLogger) *IngestService {
	return &IngestService{
		root: cfg.ModelsPath,
		transcoder: media.NewTranscoder(media.Options{
			Ext:          "png",
			ThumbSize:    cfg.ThumbSize,
			Quality:      cfg.Quality,
			DeleteSource: true,
		}, logger),
		normalizer: markers.NewNormalizer(true, logger),
		metrics:    m,
		logger:     logger,
	}
}

// Run performs one pass and reports directory level failures.
func (s *IngestService) Run(ctx context.Context) error {
	_, err := s.Process(ctx)
	return err
}

// Process converts every run directory. Each directory is handled on its
// own: a failing one is logged and the pass moves on.
func (s *IngestService) Process(ctx context.Context) (*IngestReport, error) {
	start := time.Now()
	report := &IngestReport{}

	lock := flock.New(filepath.Join(s.root, IngestLockFile))
	locked, err := lock.TryLock()
	if err != nil {
		return report, fmt.Errorf("failed to lock model root: %w", err)
	}
	if !locked {
		report.Locked = true
		s.logger.Ingest().Warn("Model root locked by another process, skipping pass", "root", s.root)
		return report, nil
	}
	defer lock.Unlock()

	runs, err := runDirectories(s.root)
	if err != nil {
		return report, err
	}

	var errs []error
	for _, run := range runs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := s.processRun(filepath.Join(s.root, run), report); err != nil {
			s.logger.Ingest().Error("Run conversion failed", "run", run, "error", err.Error())
			errs = append(errs, fmt.Errorf("run %s: %w", run, err))
		}
		report.Runs++
	}

	s.logger.Ingest().Debug("Ingestion pass finished",
		"runs", report.Runs,
		"converted", report.Images.Converted,
		"thumbnails", report.Images.Thumbnailed,
		"markers", report.Markers.Normalized,
		"duration", time.Since(start))
	return report, errors.Join(errs...)
}

func (s *IngestService) processRun(dir string, report *IngestReport) error {
	images, err := s.transcoder.Transcode(dir)
	report.Images.Add(images)
	s.recordImages(images)
	if err != nil {
		return err
	}

	for _, d := range []forecast.Dialect{forecast.Section, forecast.Map} {
		rep, err := s.normalizer.Normalize(dir, d)
		report.Markers.Add(rep)
		s.recordMarkers(d, rep)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *IngestService) recordImages(r media.Report) {
	s.metrics.ImagesTranscoded.Add(float64(r.Converted))
	s.metrics.ThumbsGenerated.Add(float64(r.Thumbnailed))
	s.metrics.SourcesRemoved.WithLabelValues("image").Add(float64(r.Removed))
	s.metrics.IngestFailures.WithLabelValues("transcode").Add(float64(r.Failed))
}

func (s *IngestService) recordMarkers(d forecast.Dialect, r markers.Report) {
	s.metrics.MarkersNormalized.WithLabelValues(d.Name()).Add(float64(r.Normalized))
	s.metrics.SourcesRemoved.WithLabelValues("marker").Add(float64(r.Removed))
	s.metrics.IngestFailures.WithLabelValues("normalize").Add(float64(r.Failed))
}

// runDirectories lists the visible subdirectories of root, sorted.
func runDirectories(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read model root: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}
