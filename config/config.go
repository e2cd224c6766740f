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

// Package config loads the hub and agent process configuration from a YAML
// file, overridden by the environment variables enumerated in the external
// interfaces of the coordination fabric.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for a hub or agent process.
type Config struct {
	Environment string `yaml:"environment" json:"environment"`

	DevelopmentMode   bool `yaml:"development_mode" json:"development_mode"`
	MockLLMProcessing bool `yaml:"mock_llm_processing" json:"mock_llm_processing"`

	ClientID string `yaml:"client_id" json:"client_id"`
	AgentID  string `yaml:"agent_id" json:"agent_id"`

	// AgentKind and the following fields configure an agent process only;
	// the hub process ignores them.
	AgentKind            string   `yaml:"agent_kind" json:"agent_kind"`
	AgentCapabilities    []string `yaml:"agent_capabilities" json:"agent_capabilities"`
	AgentSpecializations []string `yaml:"agent_specializations" json:"agent_specializations"`

	HubHost    string `yaml:"hub_host" json:"hub_host"`
	HubAPIPort int    `yaml:"hub_api_port" json:"hub_api_port"`

	AgentHost    string `yaml:"agent_host" json:"agent_host"`
	AgentAPIPort int    `yaml:"agent_api_port" json:"agent_api_port"`

	HubEndpoint       string `yaml:"hub_endpoint" json:"hub_endpoint"`
	FinanceEndpoint   string `yaml:"finance_endpoint" json:"finance_endpoint"`
	MarketingEndpoint string `yaml:"marketing_endpoint" json:"marketing_endpoint"`
	SalesEndpoint     string `yaml:"sales_endpoint" json:"sales_endpoint"`

	// TransportKind selects how the hub reaches agents: "http" (default)
	// for per-call requests, or "websocket" for agents that hold open a
	// persistent link instead.
	TransportKind string `yaml:"transport_kind" json:"transport_kind"`

	KeyStore     *KeyStoreConfig     `yaml:"keystore" json:"keystore"`
	Attestation  *AttestationConfig  `yaml:"attestation" json:"attestation"`
	JWTAuth      *JWTConfig          `yaml:"jwt_auth" json:"jwt_auth"`
	Storage      *StorageConfig      `yaml:"storage" json:"storage"`
	Logging      *LoggingConfig      `yaml:"logging" json:"logging"`
	Metrics      *MetricsConfig      `yaml:"metrics" json:"metrics"`
	Health       *HealthConfig       `yaml:"health" json:"health"`
	Orchestration *OrchestrationConfig `yaml:"orchestration" json:"orchestration"`
	DataRoot     string              `yaml:"data_root" json:"data_root"`
}

// KeyStoreConfig configures the long-lived signing key pair.
type KeyStoreConfig struct {
	Algorithm string `yaml:"algorithm" json:"algorithm"` // ed25519 | secp256k1
	Directory string `yaml:"directory" json:"directory"`
}

// AttestationConfig selects and parameterizes the attestation policy.
type AttestationConfig struct {
	Port          int               `yaml:"port" json:"port"`
	AllowlistPath string            `yaml:"allowlist_path" json:"allowlist_path"`
	Allowlist     map[string]string `yaml:"allowlist" json:"allowlist"`
}

// JWTConfig configures optional bearer-token client authentication, layered
// on top of (never replacing) X-Client-ID scoping.
type JWTConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Issuer  string `yaml:"issuer" json:"issuer"`
	Secret  string `yaml:"secret" json:"secret"`
}

// StorageConfig selects the persistence backend for the document catalog;
// the registry is always in-memory.
type StorageConfig struct {
	PostgresDSN string `yaml:"postgres_dsn" json:"postgres_dsn"` // empty = in-memory
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
}

// MetricsConfig configures the Prometheus exporter.
type MetricsConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// HealthConfig configures liveness buckets and sweep cadence.
type HealthConfig struct {
	SweepInterval time.Duration `yaml:"sweep_interval" json:"sweep_interval"`
}

// OrchestrationConfig configures routing and collaboration bookkeeping.
type OrchestrationConfig struct {
	WorkTimeout      time.Duration `yaml:"work_timeout" json:"work_timeout"`
	HealthTimeout    time.Duration `yaml:"health_timeout" json:"health_timeout"`
	HeartbeatTimeout time.Duration `yaml:"heartbeat_timeout" json:"heartbeat_timeout"`
	MaxActivePerClient int         `yaml:"max_active_per_client" json:"max_active_per_client"`
	ReapGrace        time.Duration `yaml:"reap_grace" json:"reap_grace"`
}

// LoadFromFile loads configuration from a YAML (or JSON) file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, fmt.Errorf("failed to parse config file (tried YAML and JSON): %w", err)
		}
	}

	setDefaults(cfg)
	return cfg, nil
}

// SaveToFile persists configuration, choosing JSON or YAML by extension.
func SaveToFile(cfg *Config, path string) error {
	var data []byte
	var err error

	if len(path) > 5 && path[len(path)-5:] == ".json" {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

func setDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HubHost == "" {
		cfg.HubHost = "0.0.0.0"
	}
	if cfg.HubAPIPort == 0 {
		cfg.HubAPIPort = 8080
	}
	if cfg.AgentAPIPort == 0 {
		cfg.AgentAPIPort = 8081
	}
	if cfg.DataRoot == "" {
		cfg.DataRoot = "./data"
	}

	if cfg.KeyStore == nil {
		cfg.KeyStore = &KeyStoreConfig{}
	}
	if cfg.KeyStore.Algorithm == "" {
		cfg.KeyStore.Algorithm = "ed25519"
	}
	if cfg.KeyStore.Directory == "" {
		cfg.KeyStore.Directory = ".sagehub/keys"
	}

	if cfg.Attestation == nil {
		cfg.Attestation = &AttestationConfig{}
	}
	if cfg.Attestation.Port == 0 {
		cfg.Attestation.Port = 29343
	}

	if cfg.JWTAuth == nil {
		cfg.JWTAuth = &JWTConfig{}
	}

	if cfg.Storage == nil {
		cfg.Storage = &StorageConfig{}
	}

	if cfg.Logging == nil {
		cfg.Logging = &LoggingConfig{}
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	if cfg.Metrics == nil {
		cfg.Metrics = &MetricsConfig{}
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9090"
	}

	if cfg.Health == nil {
		cfg.Health = &HealthConfig{}
	}
	if cfg.Health.SweepInterval == 0 {
		cfg.Health.SweepInterval = 60 * time.Second
	}

	if cfg.Orchestration == nil {
		cfg.Orchestration = &OrchestrationConfig{}
	}
	if cfg.Orchestration.WorkTimeout == 0 {
		cfg.Orchestration.WorkTimeout = 60 * time.Second
	}
	if cfg.Orchestration.HealthTimeout == 0 {
		cfg.Orchestration.HealthTimeout = 10 * time.Second
	}
	if cfg.Orchestration.HeartbeatTimeout == 0 {
		cfg.Orchestration.HeartbeatTimeout = 5 * time.Second
	}
	if cfg.Orchestration.MaxActivePerClient == 0 {
		cfg.Orchestration.MaxActivePerClient = 1024
	}
	if cfg.Orchestration.ReapGrace == 0 {
		cfg.Orchestration.ReapGrace = 30 * time.Second
	}
}
