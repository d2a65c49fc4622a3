// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AtRiskMedia/cmi-charts/internal/application/container"
	"github.com/AtRiskMedia/cmi-charts/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/cmi-charts/internal/infrastructure/persistence/database"
	"github.com/AtRiskMedia/cmi-charts/internal/infrastructure/security"
	"github.com/AtRiskMedia/cmi-charts/internal/presentation/http/server"
	"github.com/AtRiskMedia/cmi-charts/pkg/config"
)

const shutdownTimeout = 30 * time.Second

// NewLogger builds the channeled logger described by cfg.
func NewLogger(cfg *config.Config) (*logging.ChanneledLogger, error) {
	logCfg := logging.DefaultLoggerConfig()
	logCfg.OutputToFile = cfg.LogToFile
	logCfg.LogDirectory = cfg.LogDirectory
	logCfg.JSONFormat = cfg.LogFormat == "json"
	logCfg.DefaultLevel = logging.ParseLevel(cfg.LogLevel)
	logger, err := logging.NewChanneledLogger(logCfg)
	if err != nil {
		return nil, err
	}
	for channel, level := range cfg.ChannelLevels {
		if err := logger.SetChannelLevel(logging.Channel(channel), logging.ParseLevel(level)); err != nil {
			logger.Close()
			return nil, fmt.Errorf("invalid channel level: %w", err)
		}
	}
	return logger, nil
}

// Bootstrap opens the user database, makes sure its schema exists and wires
// the container.
func Bootstrap(cfg *config.Config, logger *logging.ChanneledLogger) (*container.Container, error) {
	phase := time.Now()
	db, err := database.NewConnectionWithLogger(cfg.DBDriver, cfg.DBDSN, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := database.NewTableCreator().Initialize(db.DB); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}
	logger.LogStartupPhase("database", time.Since(phase), true)

	if cfg.SecretKey == "" {
		key, err := security.GenerateSecureKey(64)
		if err != nil {
			db.Close()
			return nil, err
		}
		cfg.SecretKey = key
		logger.Startup().Warn("SECRET_KEY not set, generated an ephemeral key: sessions end on restart")
	}

	phase = time.Now()
	appContainer, err := container.NewContainer(cfg, logger, db, container.Options{})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to build container: %w", err)
	}
	logger.LogStartupPhase("container", time.Since(phase), true)
	logger.Startup().Info("Critical alert mail", "enabled", appContainer.Notifier.Enabled())

	return appContainer, nil
}

// Initialize runs the dashboard server and the background jobs until an
// interrupt or termination signal arrives.
func Initialize(cfg *config.Config) error {
	setupLogging()
	start := time.Now().UTC()

	logger, err := NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()

	logger.Startup().Info("Starting CMI Charts",
		"displayName", cfg.DisplayName,
		"modelsPath", cfg.ModelsPath,
		"applicationRoot", cfg.ApplicationRoot,
		"timezone", cfg.Timezone,
		"logLevels", logger.GetChannelLevels())

	if err := os.MkdirAll(cfg.ModelsPath, 0755); err != nil {
		return fmt.Errorf("failed to create models path: %w", err)
	}

	appContainer, err := Bootstrap(cfg, logger)
	if err != nil {
		return err
	}
	defer appContainer.Close()

	ctx, cancelBackgroundTasks := context.WithCancel(context.Background())
	defer cancelBackgroundTasks()

	logger.Startup().Info("Starting scheduler",
		"ingestInterval", cfg.IngestInterval,
		"retentionInterval", cfg.RetentionInterval)
	appContainer.Scheduler.Start(ctx)

	httpServer := server.New(cfg.Port, appContainer)

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- httpServer.Start()
	}()

	logger.Startup().Info("Application startup complete",
		"totalDuration", time.Since(start),
		"port", cfg.Port)

	select {
	case <-gracefulShutdown:
		logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")
	case err := <-serverErr:
		if err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
			cancelBackgroundTasks()
			appContainer.Scheduler.Wait()
			return err
		}
	}

	shutdownStart := time.Now()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	} else {
		logger.Shutdown().Info("HTTP server stopped successfully")
	}

	logger.Shutdown().Info("Waiting for running jobs...")
	cancelBackgroundTasks()
	appContainer.Scheduler.Wait()

	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", time.Since(start),
		"shutdownDuration", time.Since(shutdownStart))

	return nil
}

// AddUser registers a dashboard user from the command line.
func AddUser(cfg *config.Config, mail, password string) error {
	logger, err := NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()

	appContainer, err := Bootstrap(cfg, logger)
	if err != nil {
		return err
	}
	defer appContainer.Close()

	u, err := appContainer.AuthService.AddUser(mail, password)
	if err != nil {
		return err
	}
	log.Printf("User %s created with id %s", u.Mail, u.ID)
	return nil
}

// setupLogging configures application logging
func setupLogging() {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
