package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AtRiskMedia/cmi-charts/internal/application/services"
)

func setupCLIEnv(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	t.Setenv("DB_DRIVER", "sqlite3")
	t.Setenv("DB_DSN", filepath.Join(base, "instance", "users.db"))
	t.Setenv("MODELS_PATH", filepath.Join(base, "models"))
	t.Setenv("LOG_TO_FILE", "false")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("SECRET_KEY", "cli-test")
	return base
}

func execute(args ...string) error {
	cmd := newRootCommand()
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestAddUserCommand(t *testing.T) {
	base := setupCLIEnv(t)

	require.NoError(t, execute("add-user", "-m", "Mario@Example.it", "-p", "segreta"))
	assert.FileExists(t, filepath.Join(base, "instance", "users.db"))

	err := execute("add-user", "--mail", "mario@example.it", "--password", "altra")
	assert.ErrorIs(t, err, services.ErrUserExists)
}

func TestAddUserCommandRequiresFlags(t *testing.T) {
	setupCLIEnv(t)

	assert.Error(t, execute("add-user", "-m", "mario@example.it"))
	assert.Error(t, execute("add-user", "stray"))
}
