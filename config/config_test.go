package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetDefaults(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.HubAPIPort)
	assert.Equal(t, 8081, cfg.AgentAPIPort)
	assert.Equal(t, "ed25519", cfg.KeyStore.Algorithm)
	assert.Equal(t, 29343, cfg.Attestation.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)
	assert.Equal(t, 1024, cfg.Orchestration.MaxActivePerClient)
}

func TestLoadFromFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	content := []byte("environment: production\nclient_id: acme\nhub_api_port: 9001\n")
	require.NoError(t, os.WriteFile(path, content, 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "acme", cfg.ClientID)
	assert.Equal(t, 9001, cfg.HubAPIPort)
	assert.Equal(t, "ed25519", cfg.KeyStore.Algorithm) // defaults still applied
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path.yaml")
	assert.Error(t, err)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roundtrip.yaml")

	cfg := &Config{ClientID: "acme", HubEndpoint: "http://hub:8080"}
	setDefaults(cfg)

	require.NoError(t, SaveToFile(cfg, path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.ClientID, loaded.ClientID)
	assert.Equal(t, cfg.HubEndpoint, loaded.HubEndpoint)
}

func TestLoadFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(LoaderOptions{ConfigDir: dir, SkipEnvSubstitution: true})
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.Environment)
	assert.Equal(t, 8080, cfg.HubAPIPort)
}

func TestApplyEnvironmentOverrides(t *testing.T) {
	t.Setenv("CLIENT_ID", "from-env")
	t.Setenv("HUB_API_PORT", "9999")
	t.Setenv("DEVELOPMENT_MODE", "true")

	dir := t.TempDir()
	cfg, err := Load(LoaderOptions{ConfigDir: dir})
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.ClientID)
	assert.Equal(t, 9999, cfg.HubAPIPort)
	assert.True(t, cfg.DevelopmentMode)
}
