// Package container provides dependency injection for all singleton services
package container

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/AtRiskMedia/cmi-charts/internal/application/services"
	"github.com/AtRiskMedia/cmi-charts/internal/domain/user"
	"github.com/AtRiskMedia/cmi-charts/internal/infrastructure/email"
	"github.com/AtRiskMedia/cmi-charts/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/cmi-charts/internal/infrastructure/observability/metrics"
	"github.com/AtRiskMedia/cmi-charts/internal/infrastructure/persistence/database"
	userpersistence "github.com/AtRiskMedia/cmi-charts/internal/infrastructure/persistence/user"
	"github.com/AtRiskMedia/cmi-charts/internal/infrastructure/scheduler"
	"github.com/AtRiskMedia/cmi-charts/pkg/config"
)

// Job names registered on the scheduler.
const (
	JobIngest    = "ingest"
	JobRetention = "retention"
)

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	Config   *config.Config
	Logger   *logging.ChanneledLogger
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry
	Clock    clockwork.Clock
	DB       *database.DB

	// Repositories
	UserRepository   user.UserRepository
	ActionRepository user.ActionRepository

	// Application Services
	IngestService    *services.IngestService
	RetentionService *services.RetentionService
	CatalogService   *services.CatalogService
	AuthService      *services.AuthService

	// Infrastructure
	Scheduler *scheduler.Scheduler
	Notifier  email.Service
}

// Options overrides collaborators that default to production values.
type Options struct {
	Clock    clockwork.Clock
	Notifier email.Service
}

// NewContainer creates and wires all singleton services
func NewContainer(cfg *config.Config, logger *logging.ChanneledLogger, db *database.DB, opts Options) (*Container, error) {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Notifier == nil {
		opts.Notifier = email.NewService(cfg)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.New(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	loc := cfg.Location()
	users := userpersistence.NewSQLUserRepository(db, logger)
	actions := userpersistence.NewSQLActionRepository(db, logger)

	c := &Container{
		Config:   cfg,
		Logger:   logger,
		Metrics:  m,
		Registry: registry,
		Clock:    opts.Clock,
		DB:       db,

		UserRepository:   users,
		ActionRepository: actions,

		IngestService: services.NewIngestService(services.IngestConfig{
			ModelsPath: cfg.ModelsPath,
			ThumbSize:  cfg.ThumbSize,
			Quality:    cfg.WebPQuality,
		}, m, logger),
		RetentionService: services.NewRetentionService(services.RetentionConfig{
			ModelsPath: cfg.ModelsPath,
			Days:       cfg.RetentionDays,
			Location:   loc,
			Clock:      opts.Clock,
		}, m, logger),
		CatalogService: services.NewCatalogService(services.CatalogConfig{
			ModelsPath:      cfg.ModelsPath,
			ApplicationRoot: cfg.ApplicationRoot,
			Location:        loc,
			Clock:           opts.Clock,
		}, logger),
		AuthService: services.NewAuthService(users, actions, services.AuthConfig{
			Secret:   cfg.SecretKey,
			Lifetime: cfg.SessionLifetime,
			Location: loc,
			Clock:    opts.Clock,
		}, logger),

		Notifier: opts.Notifier,
	}

	c.Scheduler = scheduler.New(scheduler.Config{
		Clock:     opts.Clock,
		Logger:    logger,
		Metrics:   m,
		OnFailure: c.alertOnFailure,
	})
	if err := c.Scheduler.Add(scheduler.Job{
		Name:     JobIngest,
		Interval: cfg.IngestInterval,
		Run:      c.IngestService.Run,
	}); err != nil {
		return nil, err
	}
	if err := c.Scheduler.Add(scheduler.Job{
		Name:     JobRetention,
		Interval: cfg.RetentionInterval,
		Run:      c.RetentionService.Run,
	}); err != nil {
		return nil, err
	}

	return c, nil
}

// alertOnFailure logs every failed job run and mails the administrator the
// first time a job starts failing.
func (c *Container) alertOnFailure(job string, err error, consecutive int) {
	c.Logger.Alert().Error("Scheduled job failed", "job", job, "consecutive", consecutive, "error", err.Error())
	if consecutive != 1 || !c.Notifier.Enabled() {
		return
	}
	if mailErr := c.Notifier.SendCriticalAlert(job, err, c.Clock.Now().In(c.Config.Location())); mailErr != nil {
		c.Logger.Alert().Error("Failed to send critical alert", "job", job, "error", mailErr.Error())
		return
	}
	c.Logger.Alert().Info("Critical alert sent", "job", job, "to", c.Config.AlertMailTo)
}

// Close releases the database connection.
func (c *Container) Close() error {
	start := time.Now()
	if c.DB == nil {
		return nil
	}
	err := c.DB.Close()
	c.Logger.Shutdown().Info("Database connection closed", "duration", time.Since(start))
	return err
}
