package services

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/AtRiskMedia/cmi-charts/internal/domain/entities/forecast"
	"github.com/AtRiskMedia/cmi-charts/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/cmi-charts/internal/infrastructure/observability/metrics"
)

// RetentionConfig configures the retention sweep.
type RetentionConfig struct {
	ModelsPath string
	Days       int
	Location   *time.Location
	Clock      clockwork.Clock
}

// RetentionService removes model runs older than the retention horizon.
type RetentionService struct {
	root    string
	days    int
	loc     *time.Location
	clock   clockwork.Clock
	metrics *metrics.Metrics
	logger  *logging.ChanneledLogger
}

// NewRetentionService creates a retention service.
func NewRetentionService(cfg RetentionConfig, m *metrics.Metrics, logger *logging.ChanneledLogger) *RetentionService {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &RetentionService{
		root:    cfg.ModelsPath,
		days:    cfg.Days,
		loc:     cfg.Location,
		clock:   cfg.Clock,
		metrics: m,
		logger:  logger,
	}
}

// Cutoff is the day key below which runs are removed. The horizon is counted
// in calendar days of the presentation zone, so DST changes do not shift it.
func (s *RetentionService) Cutoff() string {
	now := s.clock.Now().In(s.loc)
	return now.AddDate(0, 0, -s.days).Format(forecast.DayLayout)
}

// Run performs one sweep.
func (s *RetentionService) Run(ctx context.Context) error {
	_, err := s.Sweep(ctx)
	return err
}

// Sweep removes every run directory whose day prefix sorts before Cutoff.
// Removal failures are logged and skipped.
func (s *RetentionService) Sweep(ctx context.Context) ([]string, error) {
	cutoff := s.Cutoff()
	runs, err := runDirectories(s.root)
	if err != nil {
		return nil, err
	}

	var removed []string
	for _, run := range runs {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if dayPrefix(run) >= cutoff {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.root, run)); err != nil {
			s.logger.Retention().Warn("Failed to remove expired run", "run", run, "error", err.Error())
			continue
		}
		removed = append(removed, run)
		s.metrics.RunsSwept.Inc()
		s.logger.Retention().Info("Expired run removed", "run", run, "cutoff", cutoff)
	}
	return removed, nil
}

func dayPrefix(run string) string {
	if len(run) > 8 {
		return run[:8]
	}
	return run
}
