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

package agent

import (
	"net/http"
	"time"

	"github.com/sage-x-project/sage-hub/api/httputil"
	"github.com/sage-x-project/sage-hub/internal/logger"
	"github.com/sage-x-project/sage-hub/internal/metrics"
	"github.com/sage-x-project/sage-hub/pkg/version"
)

func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteError(w, logger.NewHubError(logger.ErrBadRequest, "method not allowed", nil))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"agent_id":           s.app.AgentID,
		"agent_type":         s.app.Kind,
		"capabilities":       s.app.Capabilities,
		"specializations":    s.app.Specializations,
		"collaboration_kinds": s.app.Dispatcher.Kinds(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteError(w, logger.NewHubError(logger.ErrBadRequest, "method not allowed", nil))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "healthy",
		"agent_type":        s.app.Kind,
		"version":           version.Get(),
		"uptime_seconds":    time.Since(s.app.StartedAt).Seconds(),
		"development_mode":  s.app.DevelopmentMode,
		"counters":          s.collector().Snapshot(),
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteError(w, logger.NewHubError(logger.ErrBadRequest, "method not allowed", nil))
		return
	}
	metrics.Handler().ServeHTTP(w, r)
}

func (s *Server) handleAttestation(w http.ResponseWriter, r *http.Request) {
	writeAttestationData(w, s.app)
}

func writeAttestationData(w http.ResponseWriter, app *App) {
	pubKey, err := app.KeyStore.PublicKeyPEM()
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, map[string]interface{}{"status": "unhealthy", "error": err.Error()})
		return
	}
	fingerprint, err := app.KeyStore.Fingerprint()
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, map[string]interface{}{"status": "unhealthy", "error": err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":           "ok",
		"agent_id":         app.AgentID,
		"agent_type":       app.Kind,
		"public_key_pem":   string(pubKey),
		"fingerprint":      fingerprint,
		"development_mode": app.DevelopmentMode,
	})
}
