package startup

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AtRiskMedia/cmi-charts/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/cmi-charts/pkg/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	return &config.Config{
		ApplicationRoot:   "/",
		DisplayName:       "CMI_CHARTS",
		ModelsPath:        filepath.Join(base, "models"),
		ThumbSize:         600,
		WebPQuality:       85,
		Timezone:          "Europe/Rome",
		RetentionDays:     8,
		IngestInterval:    time.Minute,
		RetentionInterval: 24 * time.Hour,
		DBDriver:          "sqlite3",
		DBDSN:             filepath.Join(base, "instance", "cmi_charts.db"),
		SessionLifetime:   2 * time.Hour,
		LogDirectory:      filepath.Join(base, "log"),
		LogFormat:         "text",
		LogLevel:          "debug",
		LogToFile:         true,
	}
}

func TestBootstrap_GeneratesSecretAndSchema(t *testing.T) {
	cfg := testConfig(t)

	c, err := Bootstrap(cfg, logging.NewDiscardLogger())
	require.NoError(t, err)
	defer c.Close()

	assert.Len(t, cfg.SecretKey, 64)
	assert.False(t, c.Notifier.Enabled())

	var count int
	require.NoError(t, c.DB.QueryRowContext(context.Background(), `SELECT COUNT(*) FROM actions`).Scan(&count))
	assert.Equal(t, 2, count)
}

func TestBootstrap_KeepsConfiguredSecret(t *testing.T) {
	cfg := testConfig(t)
	cfg.SecretKey = "configured"

	c, err := Bootstrap(cfg, logging.NewDiscardLogger())
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, "configured", cfg.SecretKey)
}

func TestNewLogger_WritesChannelFiles(t *testing.T) {
	cfg := testConfig(t)

	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	logger.Ingest().Info("hello")
	require.NoError(t, logger.Close())

	assert.FileExists(t, filepath.Join(cfg.LogDirectory, "ingest.log"))
}

func TestNewLogger_AppliesChannelLevels(t *testing.T) {
	cfg := testConfig(t)
	cfg.LogToFile = false
	cfg.LogLevel = "info"
	cfg.ChannelLevels = map[string]string{"database": "debug", "http": "error"}

	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	defer logger.Close()

	levels := logger.GetChannelLevels()
	assert.Equal(t, "DEBUG", levels["database"])
	assert.Equal(t, "ERROR", levels["http"])
	assert.Equal(t, "INFO", levels["ingest"])
}

func TestNewLogger_RejectsUnknownChannel(t *testing.T) {
	cfg := testConfig(t)
	cfg.LogToFile = false
	cfg.ChannelLevels = map[string]string{"billing": "debug"}

	_, err := NewLogger(cfg)
	assert.ErrorContains(t, err, "billing")
}

func TestAddUser(t *testing.T) {
	cfg := testConfig(t)
	cfg.LogToFile = false
	cfg.LogLevel = "error"

	require.NoError(t, AddUser(cfg, "mario@example.it", "segreta"))
	assert.Error(t, AddUser(cfg, "Mario@example.it", "segreta"))
}
