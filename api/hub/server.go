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

// Package hub wires the coordination fabric's hub-side HTTP surface: an
// application context constructed once at startup (per the design notes'
// "no process-wide mutable module state" principle) and passed explicitly
// to every handler.
package hub

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sage-x-project/sage-hub/attestation"
	"github.com/sage-x-project/sage-hub/auth"
	"github.com/sage-x-project/sage-hub/document"
	"github.com/sage-x-project/sage-hub/envelope"
	"github.com/sage-x-project/sage-hub/health"
	"github.com/sage-x-project/sage-hub/internal/logger"
	"github.com/sage-x-project/sage-hub/internal/metrics"
	"github.com/sage-x-project/sage-hub/keystore"
	"github.com/sage-x-project/sage-hub/orchestration"
	"github.com/sage-x-project/sage-hub/registry"
	"github.com/sage-x-project/sage-hub/transport"
)

// App is the hub's application context: every collaborator a handler might
// need, constructed once at startup and never stored in package-level
// mutable state.
type App struct {
	Registry    *registry.Registry
	Engine      *orchestration.Engine
	Intake      *document.Intake
	KeyStore    *keystore.Store
	Attestation attestation.Verifier
	Sender      transport.Sender
	Checker     *health.Checker
	Metrics     *metrics.Collector
	Auth        *auth.Verifier
	EnvBuilder  *envelope.Builder
	Replay      *envelope.ReplayCache
	AgentID     string
	DevelopmentMode bool
}

// Server exposes the hub's /api/v1 HTTP surface plus the secondary
// attestation port.
type Server struct {
	app    *App
	server *http.Server
}

// NewServer builds the hub's primary HTTP server bound to addr.
func NewServer(app *App, addr string) *Server {
	mux := http.NewServeMux()
	s := &Server{app: app}
	s.registerRoutes(mux)

	s.server = &http.Server{
		Addr:              addr,
		Handler:           app.Auth.Middleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/documents/upload", s.handleUpload)
	mux.HandleFunc("/api/v1/documents/", s.handleDocumentByID)
	mux.HandleFunc("/api/v1/documents", s.handleDocumentSearch)

	mux.HandleFunc("/api/v1/agents/register", s.handleRegister)
	mux.HandleFunc("/api/v1/agents/directory", s.handleDirectory)
	mux.HandleFunc("/api/v1/agents/heartbeat", s.handleHeartbeat)
	mux.HandleFunc("/api/v1/agents/health", s.handleAgentsHealth)

	mux.HandleFunc("/api/v1/orchestration/route", s.handleRoute)
	mux.HandleFunc("/api/v1/orchestration/active", s.handleActive)
	mux.HandleFunc("/api/v1/orchestration/response/", s.handleResponse)

	mux.HandleFunc("/api/v1/health", s.handleHealth)
	mux.HandleFunc("/api/v1/attestation", s.handleAttestation)
}

// Start begins serving in the background; Stop performs a graceful shutdown.
func (s *Server) Start() error {
	logger.Info("starting hub API server", logger.String("addr", s.server.Addr))
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.ErrorMsg("hub API server error", logger.Error(err))
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
// on its own dedicated port (hub 29343, finance 29344, …).
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
			logger.ErrorMsg("attestation server error", logger.Error(err))
		}
	}()
	return nil
}

// Stop gracefully shuts the attestation server down.
func (as *AttestationServer) Stop(ctx context.Context) error {
	return as.server.Shutdown(ctx)
}
