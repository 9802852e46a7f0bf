package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope", "config.json"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taskdeck", "config.json")
	want := Config{APIBaseURL: "https://tasks.example.com/api", RequestTimeout: 10}
	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadRejectsInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TASKDECK_API_URL", "https://override.example.com")
	t.Setenv("TASKDECK_TIMEOUT", "7")

	cfg, err := Load(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	assert.Equal(t, "https://override.example.com", cfg.APIBaseURL)
	assert.Equal(t, 7, cfg.RequestTimeout)
}

func TestTimeout(t *testing.T) {
	assert.Equal(t, 30*time.Second, Config{}.Timeout())
	assert.Equal(t, 5*time.Second, Config{RequestTimeout: 5}.Timeout())
}
