// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// LoaderOptions configures the configuration loader
type LoaderOptions struct {
	// ConfigDir is the directory containing config files (default: ./config)
	ConfigDir string
	// Environment overrides automatic environment detection
	Environment string
	// SkipEnvSubstitution disables environment variable substitution
	SkipEnvSubstitution bool
	// SkipValidation disables configuration validation
	SkipValidation bool
}

// DefaultLoaderOptions returns default loader options
func DefaultLoaderOptions() LoaderOptions {
	return LoaderOptions{
		ConfigDir: "config",
	}
}

// Load loads configuration with automatic environment detection, falling
// back through {env}.yaml -> default.yaml -> config.yaml -> built-in defaults.
func Load(opts ...LoaderOptions) (*Config, error) {
	options := DefaultLoaderOptions()
	if len(opts) > 0 {
		options = opts[0]
	}

	env := options.Environment
	if env == "" {
		env = GetEnvironment()
	}

	envConfigPath := filepath.Join(options.ConfigDir, fmt.Sprintf("%s.yaml", env))
	cfg, err := loadConfigFile(envConfigPath)
	if err != nil {
		defaultConfigPath := filepath.Join(options.ConfigDir, "default.yaml")
		cfg, err = loadConfigFile(defaultConfigPath)
		if err != nil {
			configPath := filepath.Join(options.ConfigDir, "config.yaml")
			cfg, err = loadConfigFile(configPath)
			if err != nil {
				cfg = &Config{}
			}
		}
	}

	if cfg.Environment == "" {
		cfg.Environment = env
	}

	setDefaults(cfg)

	if !options.SkipEnvSubstitution {
		SubstituteEnvVarsInConfig(cfg)
	}

	applyEnvironmentOverrides(cfg)

	if !options.SkipValidation {
		for _, e := range ValidateConfiguration(cfg) {
			if e.Level == "error" {
				return nil, fmt.Errorf("configuration validation failed: %s", e.String())
			}
		}
	}

	return cfg, nil
}

func loadConfigFile(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}
	return LoadFromFile(path)
}

// ApplyEnvironmentOverrides applies the process environment variables
// (DEVELOPMENT_MODE, CLIENT_ID, HUB_ENDPOINT, …), which always take
// precedence over file config.
func ApplyEnvironmentOverrides(cfg *Config) {
	applyEnvironmentOverrides(cfg)
}

func applyEnvironmentOverrides(cfg *Config) {
	if v := os.Getenv("DEVELOPMENT_MODE"); v != "" {
		cfg.DevelopmentMode = parseBool(v, cfg.DevelopmentMode)
	}
	if v := os.Getenv("MOCK_LLM_PROCESSING"); v != "" {
		cfg.MockLLMProcessing = parseBool(v, cfg.MockLLMProcessing)
	}
	if v := os.Getenv("CLIENT_ID"); v != "" {
		cfg.ClientID = v
	}
	if v := os.Getenv("AGENT_ID"); v != "" {
		cfg.AgentID = v
	}
	if v := os.Getenv("HUB_ENDPOINT"); v != "" {
		cfg.HubEndpoint = v
	}
	if v := os.Getenv("FINANCE_ENDPOINT"); v != "" {
		cfg.FinanceEndpoint = v
	}
	if v := os.Getenv("MARKETING_ENDPOINT"); v != "" {
		cfg.MarketingEndpoint = v
	}
	if v := os.Getenv("SALES_ENDPOINT"); v != "" {
		cfg.SalesEndpoint = v
	}
	if v := os.Getenv("AGENT_HOST"); v != "" {
		cfg.AgentHost = v
	}
	if v := os.Getenv("AGENT_API_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.AgentAPIPort = p
		}
	}
	if v := os.Getenv("HUB_HOST"); v != "" {
		cfg.HubHost = v
	}
	if v := os.Getenv("HUB_API_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.HubAPIPort = p
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("JWT_AUTH_ENABLED"); v != "" {
		cfg.JWTAuth.Enabled = parseBool(v, cfg.JWTAuth.Enabled)
	}
	if v := os.Getenv("JWT_ISSUER"); v != "" {
		cfg.JWTAuth.Issuer = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Storage.PostgresDSN = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
}

func parseBool(v string, fallback bool) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// LoadForEnvironment loads configuration for a specific environment
func LoadForEnvironment(environment string) (*Config, error) {
	return Load(LoaderOptions{ConfigDir: "config", Environment: environment})
}

// MustLoad loads configuration or panics on error
func MustLoad(opts ...LoaderOptions) *Config {
	cfg, err := Load(opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}
