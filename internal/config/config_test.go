package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("DEVMATCH_JWT_ACCESS_SECRET", "access")
	t.Setenv("DEVMATCH_JWT_REFRESH_SECRET", "refresh")
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	setSecrets(t)

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, 5*time.Second, cfg.HTTP.RequestTimeout)
	assert.InDelta(t, 0.40, cfg.Matching.Weights.Skills, 1e-12)
	assert.InDelta(t, 0.15, cfg.Matching.Weights.Availability, 1e-12)
	assert.False(t, cfg.Matching.AllowRematchAfterReject)
	assert.Equal(t, 14*24*time.Hour, cfg.Match.ExpireAfter)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
}

func TestLoad_MissingSecrets(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load(New(), "")
	require.ErrorIs(t, err, errMissingRequiredConfig)
	assert.Contains(t, err.Error(), "jwt.access_secret")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	setSecrets(t)
	t.Setenv("DEVMATCH_HTTP_REQUEST_TIMEOUT", "2s")
	t.Setenv("DEVMATCH_MATCHING_ALLOW_REMATCH_AFTER_REJECT", "true")
	t.Setenv("DB_HOST", "db.internal")

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.HTTP.RequestTimeout)
	assert.True(t, cfg.Matching.AllowRematchAfterReject)
	assert.Equal(t, "db.internal", cfg.Database.DBHost)
}

func TestLoad_FileAndDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DEVMATCH_JWT_ACCESS_SECRET=a\nDEVMATCH_JWT_REFRESH_SECRET=b\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("DEVMATCH_JWT_ACCESS_SECRET")
		os.Unsetenv("DEVMATCH_JWT_REFRESH_SECRET")
	})

	yaml := `
matching:
  weights:
    skills: 0.5
    interests: 0.3
    experience: 0.1
    availability: 0.1
match:
  expire_after: 48h
`
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, cfg.Matching.Weights.Skills, 1e-12)
	assert.Equal(t, 48*time.Hour, cfg.Match.ExpireAfter)
	assert.Equal(t, "a", cfg.JWT.AccessSecret)
}

func TestLoad_BadWeights(t *testing.T) {
	t.Chdir(t.TempDir())
	setSecrets(t)
	t.Setenv("DEVMATCH_MATCHING_WEIGHTS_SKILLS", "0.9")

	_, err := Load(New(), "")
	assert.ErrorContains(t, err, "matching.weights")
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Chdir(t.TempDir())
	setSecrets(t)

	_, err := Load(New(), "does-not-exist.yaml")
	assert.Error(t, err)
}
