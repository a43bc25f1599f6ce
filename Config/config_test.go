package Config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 24*time.Hour, cfg.TokenLifespan())
	assert.Equal(t, int64(20), cfg.MaxUploadMB)
	assert.Equal(t, 60*time.Second, cfg.PredictorTimeout)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("DB_PATH", "/tmp/ceph.db")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("ANALYSIS_WORKERS", "0")
	t.Setenv("TOKEN_HOUR_LIFESPAN", "2")
	t.Cleanup(func() { C = Default() })

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "/tmp/ceph.db", cfg.DSN())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 1, cfg.AnalysisWorkers)
	assert.Equal(t, 2*time.Hour, C.TokenLifespan())
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	_, err := Load()
	assert.Error(t, err)
}

func TestPostgresDSN(t *testing.T) {
	cfg := Default()
	cfg.DBUser, cfg.DBPassword = "ceph", "pw"
	assert.Equal(t, "host=localhost user=ceph password=pw dbname=cephaloai port=5432 sslmode=disable", cfg.DSN())
}
