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
	"os"
	"regexp"
	"strings"
)

// envVarPattern matches ${VAR} or ${VAR:default}
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

// SubstituteEnvVars replaces ${VAR} or ${VAR:default} with environment variable values
func SubstituteEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		parts := envVarPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultValue := ""
		if len(parts) > 2 {
			defaultValue = parts[2]
		}

		value := os.Getenv(varName)
		if value == "" {
			return defaultValue
		}
		return value
	})
}

// SubstituteEnvVarsInConfig recursively substitutes environment variables in config
func SubstituteEnvVarsInConfig(cfg *Config) {
	if cfg == nil {
		return
	}

	cfg.HubEndpoint = SubstituteEnvVars(cfg.HubEndpoint)
	cfg.FinanceEndpoint = SubstituteEnvVars(cfg.FinanceEndpoint)
	cfg.MarketingEndpoint = SubstituteEnvVars(cfg.MarketingEndpoint)
	cfg.SalesEndpoint = SubstituteEnvVars(cfg.SalesEndpoint)
	cfg.ClientID = SubstituteEnvVars(cfg.ClientID)
	cfg.AgentID = SubstituteEnvVars(cfg.AgentID)

	if cfg.KeyStore != nil {
		cfg.KeyStore.Directory = SubstituteEnvVars(cfg.KeyStore.Directory)
	}
	if cfg.JWTAuth != nil {
		cfg.JWTAuth.Issuer = SubstituteEnvVars(cfg.JWTAuth.Issuer)
		cfg.JWTAuth.Secret = SubstituteEnvVars(cfg.JWTAuth.Secret)
	}
	if cfg.Storage != nil {
		cfg.Storage.PostgresDSN = SubstituteEnvVars(cfg.Storage.PostgresDSN)
	}
	if cfg.Logging != nil {
		cfg.Logging.Level = SubstituteEnvVars(cfg.Logging.Level)
	}
	if cfg.Metrics != nil {
		cfg.Metrics.Addr = SubstituteEnvVars(cfg.Metrics.Addr)
	}
	cfg.DataRoot = SubstituteEnvVars(cfg.DataRoot)
}

// GetEnvironment returns the current environment from SAGEHUB_ENV or ENVIRONMENT, defaulting to development
func GetEnvironment() string {
	env := os.Getenv("SAGEHUB_ENV")
	if env == "" {
		env = os.Getenv("ENVIRONMENT")
	}
	if env == "" {
		env = "development"
	}
	return strings.ToLower(env)
}

// IsProduction returns true if running in production environment
func IsProduction() bool {
	return GetEnvironment() == "production"
}

// IsDevelopment returns true if running in development or local environment
func IsDevelopment() bool {
	env := GetEnvironment()
	return env == "development" || env == "local"
}
