package config

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "4040", cfg.Port)
	assert.Equal(t, "/", cfg.ApplicationRoot)
	assert.Equal(t, "static/data/models", cfg.ModelsPath)
	assert.Equal(t, 600, cfg.ThumbSize)
	assert.Equal(t, 8, cfg.RetentionDays)
	assert.Equal(t, 60*time.Second, cfg.IngestInterval)
	assert.Equal(t, 24*time.Hour, cfg.RetentionInterval)
	assert.Equal(t, 2*time.Hour, cfg.SessionLifetime)
	assert.Equal(t, "sqlite3", cfg.DBDriver)
	assert.Equal(t, "Europe/Rome", cfg.Timezone)
	assert.Equal(t, "Europe/Rome", cfg.Location().String())
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("APPLICATION_ROOT", "cmi_charts/")
	t.Setenv("MODELS_PATH", "/srv/models")
	t.Setenv("THUMB_SIZE", "300")
	t.Setenv("INGEST_INTERVAL", "5s")
	t.Setenv("DB_DRIVER", "libsql")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "/cmi_charts", cfg.ApplicationRoot)
	assert.Equal(t, "/srv/models", cfg.ModelsPath)
	assert.Equal(t, 300, cfg.ThumbSize)
	assert.Equal(t, 5*time.Second, cfg.IngestInterval)
	assert.Equal(t, "libsql", cfg.DBDriver)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := map[string]struct {
		key, value, wantErr string
	}{
		"negative thumb size": {key: "THUMB_SIZE", value: "-1", wantErr: "THUMB_SIZE"},
		"unknown driver":      {key: "DB_DRIVER", value: "postgres", wantErr: "DB_DRIVER"},
		"unknown timezone":    {key: "TIMEZONE", value: "Mars/Olympus", wantErr: "TIMEZONE"},
		"zero retention":      {key: "RETENTION_DAYS", value: "0", wantErr: "RETENTION_DAYS"},
		"bad log format":      {key: "LOG_FORMAT", value: "xml", wantErr: "LOG_FORMAT"},
		"non numeric int":     {key: "THUMB_SIZE", value: "abc", wantErr: "THUMB_SIZE"},
		"duration no unit":    {key: "INGEST_INTERVAL", value: "60", wantErr: "INGEST_INTERVAL"},
		"bad bool":            {key: "SECURE_COOKIES", value: "maybe", wantErr: "SECURE_COOKIES"},
		"bad log level":       {key: "LOG_LEVEL", value: "verbose", wantErr: "LOG_LEVEL"},
		"bad channel level":   {key: "LOG_LEVEL_INGEST", value: "loud", wantErr: "LOG_LEVEL_INGEST"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoad_ChannelLevels(t *testing.T) {
	t.Setenv("LOG_LEVEL_DATABASE", "debug")
	t.Setenv("LOG_LEVEL_HTTP", "WARN")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.ChannelLevels["database"])
	assert.Equal(t, "WARN", cfg.ChannelLevels["http"])
	assert.NotContains(t, cfg.ChannelLevels, "ingest")
}

func TestNormalizeRoot(t *testing.T) {
	assert.Equal(t, "/", normalizeRoot(""))
	assert.Equal(t, "/", normalizeRoot("/"))
	assert.Equal(t, "/cmi_charts", normalizeRoot("/cmi_charts/"))
	assert.Equal(t, "/cmi_charts", normalizeRoot("cmi_charts"))
}
