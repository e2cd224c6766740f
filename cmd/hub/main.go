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

// Command sage-hub runs the coordination fabric's hub process: the key
// store, attestation verifier, agent registry, orchestration engine, and
// document intake, all behind the /api/v1 HTTP surface.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	hubapi "github.com/sage-x-project/sage-hub/api/hub"
	"github.com/sage-x-project/sage-hub/attestation"
	"github.com/sage-x-project/sage-hub/auth"
	"github.com/sage-x-project/sage-hub/config"
	"github.com/sage-x-project/sage-hub/document"
	"github.com/sage-x-project/sage-hub/envelope"
	"github.com/sage-x-project/sage-hub/health"
	"github.com/sage-x-project/sage-hub/internal/logger"
	"github.com/sage-x-project/sage-hub/internal/metrics"
	"github.com/sage-x-project/sage-hub/keystore"
	"github.com/sage-x-project/sage-hub/orchestration"
	"github.com/sage-x-project/sage-hub/registry"
	"github.com/sage-x-project/sage-hub/router"
	"github.com/sage-x-project/sage-hub/transport"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "sage-hub",
	Short: "sage-hub runs the agent coordination fabric's hub process",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(configPath)
	},
}

func main() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.Flags().StringVar(&configPath, "config", "config.yaml", "path to the hub configuration file")
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
		return fmt.Errorf("provision hub signing key: %w", err)
	}

	collector := metrics.GetGlobalCollector()
	verifier := attestation.VerifierFor(cfg.DevelopmentMode, cfg.Attestation.Allowlist)
	reg := registry.New(verifier, cfg.Health.SweepInterval, collector)
	defer reg.Close()

	endpoints := map[string]string{}
	if cfg.FinanceEndpoint != "" {
		endpoints["finance"] = cfg.FinanceEndpoint
	}
	if cfg.MarketingEndpoint != "" {
		endpoints["marketing"] = cfg.MarketingEndpoint
	}
	if cfg.SalesEndpoint != "" {
		endpoints["sales"] = cfg.SalesEndpoint
	}
	var sender transport.Sender
	if cfg.TransportKind == "websocket" {
		sender = transport.NewWebSocketSender(endpoints, cfg.Orchestration.WorkTimeout)
	} else {
		sender = transport.NewHTTPSender(endpoints, cfg.Orchestration.WorkTimeout)
	}

	policy := router.NewKeywordPolicy()
	synthesizer := orchestration.NewMockSynthesizer()
	engine := orchestration.New(reg, sender, policy, synthesizer, collector, orchestration.Options{
		ReapGrace:          cfg.Orchestration.ReapGrace,
		MaxActivePerClient: cfg.Orchestration.MaxActivePerClient,
	})
	defer engine.Close()

	var docStore document.Store
	if cfg.Storage != nil && cfg.Storage.PostgresDSN != "" {
		pgStore, err := document.NewPostgresStore(context.Background(), cfg.Storage.PostgresDSN)
		if err != nil {
			return fmt.Errorf("open postgres document store: %w", err)
		}
		docStore = pgStore
	} else {
		docStore = document.NewMemoryStore()
	}
	defer docStore.Close()

	intake, err := document.NewIntake(docStore, document.NewPlainTextExtractor(), document.NewMockCategorizer(), cfg.DataRoot, collector)
	if err != nil {
		return fmt.Errorf("wire document intake: %w", err)
	}

	kinds := make([]string, 0, len(endpoints))
	for k := range endpoints {
		kinds = append(kinds, k)
	}
	checker := health.NewChecker(reg, sender, kinds)

	app := &hubapi.App{
		Registry:        reg,
		Engine:          engine,
		Intake:          intake,
		KeyStore:        ks,
		Attestation:     verifier,
		Sender:          sender,
		Checker:         checker,
		Metrics:         collector,
		Auth:            auth.NewVerifier(cfg.JWTAuth),
		EnvBuilder:      envelope.NewBuilder(ks),
		Replay:          envelope.NewReplayCache(envelope.DefaultFreshnessWindow),
		AgentID:         cfg.AgentID,
		DevelopmentMode: cfg.DevelopmentMode,
	}
	defer app.Replay.Close()

	addr := fmt.Sprintf("%s:%d", cfg.HubHost, cfg.HubAPIPort)
	server := hubapi.NewServer(app, addr)
	if err := server.Start(); err != nil {
		return fmt.Errorf("start hub API server: %w", err)
	}

	attestationServer := hubapi.NewAttestationServer(app, cfg.Attestation.Port)
	if err := attestationServer.Start(); err != nil {
		return fmt.Errorf("start hub attestation server: %w", err)
	}

	metricsAddr := ":9090"
	if cfg.Metrics != nil && cfg.Metrics.Addr != "" {
		metricsAddr = cfg.Metrics.Addr
	}
	go func() {
		if err := metrics.StartServer(metricsAddr); err != nil {
			logger.ErrorMsg("metrics server error", logger.Error(err))
		}
	}()

	logger.Info("hub process ready",
		logger.String("api_addr", addr),
		logger.Int("attestation_port", cfg.Attestation.Port),
		logger.String("metrics_addr", metricsAddr),
		logger.Bool("development_mode", cfg.DevelopmentMode),
	)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down hub process")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = server.Stop(ctx)
	_ = attestationServer.Stop(ctx)
	return nil
}
