package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, ":8080", cfg.Addr())
	require.True(t, cfg.DBMigrate)
	require.Equal(t, []string{"*"}, cfg.Origins())
	require.Equal(t, 5, cfg.WebhookMaxAttempts)
	require.Equal(t, 10*time.Second, cfg.SolveTimeout)
	require.False(t, cfg.Development())
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("RATE_RPS", "2.5")
	t.Setenv("RATE_BURST", "4")
	t.Setenv("ALLOW_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("SOLVE_TIMEOUT", "3s")
	t.Setenv("DB_MIGRATE", "false")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, "9090", cfg.Port)
	require.Equal(t, 2.5, cfg.RateRPS)
	require.Equal(t, 4, cfg.RateBurst)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Origins())
	require.Equal(t, 3*time.Second, cfg.SolveTimeout)
	require.False(t, cfg.DBMigrate)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("AUTO_MATCH_SCHEDULE=*/5 * * * *\nENVIRONMENT=development\n"), 0o600))
	// godotenv sets process env; make sure the test leaves it clean
	t.Setenv("AUTO_MATCH_SCHEDULE", "")
	os.Unsetenv("AUTO_MATCH_SCHEDULE")
	t.Setenv("ENVIRONMENT", "")
	os.Unsetenv("ENVIRONMENT")

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, "*/5 * * * *", cfg.AutoMatchSchedule)
	require.True(t, cfg.Development())
}
