package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("HUB_TEST_VAR", "resolved")

	assert.Equal(t, "resolved", SubstituteEnvVars("${HUB_TEST_VAR}"))
	assert.Equal(t, "fallback", SubstituteEnvVars("${HUB_TEST_VAR_UNSET:fallback}"))
	assert.Equal(t, "plain", SubstituteEnvVars("plain"))
}

func TestSubstituteEnvVarsInConfig(t *testing.T) {
	t.Setenv("HUB_ENDPOINT_VAR", "http://hub:8080")

	cfg := &Config{HubEndpoint: "${HUB_ENDPOINT_VAR}"}
	SubstituteEnvVarsInConfig(cfg)
	assert.Equal(t, "http://hub:8080", cfg.HubEndpoint)
}

func TestGetEnvironment(t *testing.T) {
	t.Setenv("SAGEHUB_ENV", "staging")
	assert.Equal(t, "staging", GetEnvironment())
}

func TestIsProductionDevelopment(t *testing.T) {
	t.Setenv("SAGEHUB_ENV", "production")
	assert.True(t, IsProduction())
	assert.False(t, IsDevelopment())

	t.Setenv("SAGEHUB_ENV", "development")
	assert.False(t, IsProduction())
	assert.True(t, IsDevelopment())
}
