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

// Package agent wires the per-agent HTTP surface (POST /process,
// POST /collaborate, GET /capabilities, GET /health, GET /metrics,
// GET /attestation). Like the hub's api package, it passes an explicit
// application context to every handler instead of relying on package-level
// mutable state.
package agent

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sage-x-project/sage-hub/envelope"
	"github.com/sage-x-project/sage-hub/handlers"
	"github.com/sage-x-project/sage-hub/internal/logger"
	"github.com/sage-x-project/sage-hub/internal/metrics"
	"github.com/sage-x-project/sage-hub/keystore"
)

// App is this agent's application context.
type App struct {
	AgentID         string
	Kind            string
	Capabilities    []string
	Specializations []string
	KeyStore        *keystore.Store
	EnvBuilder      *envelope.Builder
	Replay          *envelope.ReplayCache
	Dispatcher      *handlers.Registry
	Analyzer        DomainAnalyzer
	Metrics         *metrics.Collector
	DevelopmentMode bool
	StartedAt       time.Time
}

// Server exposes one agent's HTTP surface.
type Server struct {
	app    *App
	server *http.Server
}

// NewServer builds the agent's primary HTTP server bound to addr, wiring
// the handler registry's message kinds as the dispatch table POST /process
// and POST /collaborate both fall back to.
func NewServer(app *App, addr string) *Server {
	mux := http.NewServeMux()
	s := &Server{app: app}

	mux.HandleFunc("/api/v1/process", s.handleProcess)
	mux.HandleFunc("/api/v1/collaborate", s.handleCollaborate)
	mux.HandleFunc("/api/v1/capabilities", s.handleCapabilities)
	mux.HandleFunc("/api/v1/health", s.handleHealth)
	mux.HandleFunc("/api/v1/metrics", s.handleMetrics)
	mux.HandleFunc("/api/v1/attestation", s.handleAttestation)

	s.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Start begins serving in the background.
func (s *Server) Start() error {
	logger.Info("starting agent API server", logger.String("agent_id", s.app.AgentID), logger.String("addr", s.server.Addr))
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.ErrorMsg("agent API server error", logger.Error(err))
		}
	}()
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Addr returns the server's bound address, for tests and logs.
func (s *Server) Addr() string {
	return s.server.Addr
}

// AttestationServer serves the secondary-port /attestation endpoint,
// independent of the primary API server: each component publishes evidence
// on its own dedicated port.
type AttestationServer struct {
	app    *App
	server *http.Server
}

// NewAttestationServer builds the secondary attestation-evidence server.
func NewAttestationServer(app *App, port int) *AttestationServer {
	mux := http.NewServeMux()
	as := &AttestationServer{app: app}
	mux.HandleFunc("/attestation", as.handleAttestation)
	as.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return as
}

func (as *AttestationServer) handleAttestation(w http.ResponseWriter, r *http.Request) {
	writeAttestationData(w, as.app)
}

// Start begins serving in the background.
func (as *AttestationServer) Start() error {
	go func() {
		if err := as.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.ErrorMsg("agent attestation server error", logger.Error(err))
		}
	}()
	return nil
}

// Stop gracefully shuts the attestation server down.
func (as *AttestationServer) Stop(ctx context.Context) error {
	return as.server.Shutdown(ctx)
}
