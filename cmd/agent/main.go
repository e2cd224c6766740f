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

// Command sage-agent runs one domain agent (finance, marketing, sales, or
// ceo): it registers with the hub, then serves /process, /collaborate,
// /capabilities, /health, /metrics, and /attestation.
package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	agentapi "github.com/sage-x-project/sage-hub/api/agent"
	"github.com/sage-x-project/sage-hub/config"
	"github.com/sage-x-project/sage-hub/envelope"
	"github.com/sage-x-project/sage-hub/handlers"
	"github.com/sage-x-project/sage-hub/internal/logger"
	"github.com/sage-x-project/sage-hub/internal/metrics"
	"github.com/sage-x-project/sage-hub/keystore"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "sage-agent",
	Short: "sage-agent runs one domain agent of the coordination fabric",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(configPath)
	},
}

func main() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.Flags().StringVar(&configPath, "config", "agent.yaml", "path to the agent configuration file")
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func serve(path string) error {
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	config.ApplyEnvironmentOverrides(cfg)

	level := logger.InfoLevel
	if cfg.Logging != nil && cfg.Logging.Level == "debug" {
		level = logger.DebugLevel
	}
	logger.SetDefaultLogger(logger.NewLogger(os.Stdout, level))

	persistence, err := keystore.NewFilePersistence(cfg.KeyStore.Directory)
	if err != nil {
		return fmt.Errorf("open key store directory: %w", err)
	}
	ks, err := keystore.NewStore(persistence, keystore.Algorithm(cfg.KeyStore.Algorithm))
	if err != nil {
		return fmt.Errorf("open key store: %w", err)
	}
	if _, err := ks.Ensure(); err != nil {
		return fmt.Errorf("provision agent signing key: %w", err)
	}

	dispatcher := handlers.NewRegistry()
	if !cfg.MockLLMProcessing {
		logger.Warn("no production domain analyzer is wired; falling back to the development mock", logger.String("agent_kind", cfg.AgentKind))
	}
	analyzer := agentapi.NewMockAnalyzer(cfg.AgentKind)
	registerDomainHandlers(dispatcher, analyzer)

	collector := metrics.GetGlobalCollector()
	replay := envelope.NewReplayCache(envelope.DefaultFreshnessWindow)
	defer replay.Close()

	app := &agentapi.App{
		AgentID:         cfg.AgentID,
		Kind:            cfg.AgentKind,
		Capabilities:    cfg.AgentCapabilities,
		Specializations: cfg.AgentSpecializations,
		KeyStore:        ks,
		EnvBuilder:      envelope.NewBuilder(ks),
		Replay:          replay,
		Dispatcher:      dispatcher,
		Analyzer:        analyzer,
		Metrics:         collector,
		DevelopmentMode: cfg.DevelopmentMode,
		StartedAt:       time.Now().UTC(),
	}

	addr := fmt.Sprintf("%s:%d", cfg.AgentHost, cfg.AgentAPIPort)
	server := agentapi.NewServer(app, addr)
	if err := server.Start(); err != nil {
		return fmt.Errorf("start agent API server: %w", err)
	}

	attestationServer := agentapi.NewAttestationServer(app, cfg.Attestation.Port)
	if err := attestationServer.Start(); err != nil {
		return fmt.Errorf("start agent attestation server: %w", err)
	}

	heartbeatStop := make(chan struct{})
	if cfg.HubEndpoint != "" {
		if err := registerWithHub(cfg, ks); err != nil {
			logger.ErrorMsg("initial hub registration failed; the hub's heartbeat sweep will mark this agent unreachable until it registers", logger.Error(err))
		} else {
			logger.Info("registered with hub", logger.String("hub_endpoint", cfg.HubEndpoint))
		}
		go heartbeatLoop(cfg, heartbeatStop)
	}

	logger.Info("agent process ready",
		logger.String("agent_id", cfg.AgentID),
		logger.String("agent_kind", cfg.AgentKind),
		logger.String("api_addr", addr),
		logger.Bool("development_mode", cfg.DevelopmentMode),
	)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	close(heartbeatStop)
	logger.Info("shutting down agent process")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = server.Stop(ctx)
	_ = attestationServer.Stop(ctx)
	return nil
}

// registerDomainHandlers binds every process-request type the agent serves
// to the shared Analyzer through the handler registry.
func registerDomainHandlers(reg *handlers.Registry, analyzer agentapi.DomainAnalyzer) {
	for _, kind := range []string{"general", "collaboration_request", "roi_analysis", "budget_variance"} {
		reg.Register(kind, func(payload map[string]interface{}) (interface{}, error) {
			query, _ := payload["query"].(string)
			dataPackage, _ := payload["data_package"].(map[string]interface{})
			return analyzer.Analyze(context.Background(), query, dataPackage)
		})
	}
}

// heartbeatLoop posts a liveness heartbeat to the hub every 30 seconds,
// well inside the hub's 5-minute healthy window, until stop closes.
func heartbeatLoop(cfg *config.Config, stop <-chan struct{}) {
	timeout := 5 * time.Second
	if cfg.Orchestration != nil && cfg.Orchestration.HeartbeatTimeout > 0 {
		timeout = cfg.Orchestration.HeartbeatTimeout
	}
	client := &http.Client{Timeout: timeout}
	body, err := json.Marshal(map[string]string{"agent_id": cfg.AgentID})
	if err != nil {
		return
	}

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			req, err := http.NewRequest(http.MethodPost, cfg.HubEndpoint+"/api/v1/agents/heartbeat", bytes.NewReader(body))
			if err != nil {
				continue
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-Client-ID", cfg.ClientID)
			resp, err := client.Do(req)
			if err != nil {
				logger.Debug("heartbeat post failed", logger.Error(err))
				continue
			}
			resp.Body.Close()
		case <-stop:
			return
		}
	}
}

// registerWithHub performs this agent's one-time attestation-gated
// registration against the hub's /agents/register endpoint.
func registerWithHub(cfg *config.Config, ks *keystore.Store) error {
	pubKeyPEM, err := ks.PublicKeyPEM()
	if err != nil {
		return fmt.Errorf("read public key: %w", err)
	}

	quote, err := json.Marshal(map[string]interface{}{
		"quote_type":   "development",
		"measurements": map[string]string{"agent_kind": cfg.AgentKind},
	})
	if err != nil {
		return fmt.Errorf("build attestation quote: %w", err)
	}

	body, err := json.Marshal(map[string]interface{}{
		"agent_id":             cfg.AgentID,
		"kind":                 cfg.AgentKind,
		"capabilities":         cfg.AgentCapabilities,
		"endpoint":             fmt.Sprintf("http://%s:%d", cfg.AgentHost, cfg.AgentAPIPort),
		"attestation_endpoint": fmt.Sprintf("http://%s:%d/attestation", cfg.AgentHost, cfg.Attestation.Port),
		"public_key_pem":       string(pubKeyPEM),
		"key_algorithm":        cfg.KeyStore.Algorithm,
	})
	if err != nil {
		return fmt.Errorf("build registration request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, cfg.HubEndpoint+"/api/v1/agents/register", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build registration HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Client-ID", cfg.ClientID)
	// The quote travels base64-encoded: header values cannot carry raw
	// bytes, and the hub decodes base64 before falling back to the literal.
	req.Header.Set("X-Attestation-Quote", base64.StdEncoding.EncodeToString(quote))

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send registration request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("hub rejected registration: status %d", resp.StatusCode)
	}
	return nil
}
