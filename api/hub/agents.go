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

package hub

import (
	"encoding/base64"
	"net/http"

	"github.com/sage-x-project/sage-hub/api/httputil"
	"github.com/sage-x-project/sage-hub/auth"
	"github.com/sage-x-project/sage-hub/internal/logger"
	"github.com/sage-x-project/sage-hub/registry"
)

type registerRequestBody struct {
	AgentID             string            `json:"agent_id"`
	Kind                string            `json:"kind"`
	Capabilities        []string          `json:"capabilities"`
	Endpoint            string            `json:"endpoint"`
	AttestationEndpoint string            `json:"attestation_endpoint"`
	PublicKeyPEM        string            `json:"public_key_pem"`
	KeyAlgorithm        string            `json:"key_algorithm"`
	AttestationQuote    string            `json:"attestation_quote,omitempty"`
	Measurements        map[string]string `json:"measurements,omitempty"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.WriteError(w, logger.NewHubError(logger.ErrBadRequest, "method not allowed", nil))
		return
	}
	clientID, err := auth.ClientIDFrom(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var body registerRequestBody
	if err := httputil.DecodeJSON(r, &body); err != nil {
		httputil.WriteError(w, logger.NewHubError(logger.ErrBadRequest, "invalid request body: "+err.Error(), nil))
		return
	}

	quote := []byte(body.AttestationQuote)
	if q := r.Header.Get("X-Attestation-Quote"); q != "" {
		if decoded, err := base64.StdEncoding.DecodeString(q); err == nil {
			quote = decoded
		} else {
			quote = []byte(q)
		}
	}
	pubKey := body.PublicKeyPEM
	if k := r.Header.Get("X-Public-Key"); k != "" {
		pubKey = k
	}

	rec, err := s.app.Registry.Register(registry.RegisterRequest{
		ClientID:            clientID,
		AgentID:             body.AgentID,
		Kind:                registry.Kind(body.Kind),
		Capabilities:        body.Capabilities,
		Endpoint:            body.Endpoint,
		AttestationEndpoint: body.AttestationEndpoint,
		PublicKeyPEM:        pubKey,
		KeyAlgorithm:        registry.KeyAlgorithm(body.KeyAlgorithm),
		AttestationQuote:    quote,
	})
	if err != nil {
		he, ok := err.(*logger.HubError)
		if ok && he.Kind == logger.ErrAttestationFailed {
			httputil.WriteJSON(w, http.StatusBadRequest, map[string]interface{}{
				"status":             "rejected",
				"verification_status": "failed",
				"reason":             he.Message,
			})
			return
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"status":             "registered",
		"verification_status": "verified",
		"agent_id":           rec.AgentID,
		"registered_at":      rec.RegisteredAt,
	})
}

func (s *Server) handleDirectory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteError(w, logger.NewHubError(logger.ErrBadRequest, "method not allowed", nil))
		return
	}
	clientID, err := auth.ClientIDFrom(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	capability := r.URL.Query().Get("capability")
	entries := s.app.Registry.Directory(clientID, capability)
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"agents": entries, "count": len(entries)})
}

type heartbeatRequestBody struct {
	AgentID string `json:"agent_id"`
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.WriteError(w, logger.NewHubError(logger.ErrBadRequest, "method not allowed", nil))
		return
	}
	clientID, err := auth.ClientIDFrom(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var body heartbeatRequestBody
	if err := httputil.DecodeJSON(r, &body); err != nil {
		httputil.WriteError(w, logger.NewHubError(logger.ErrBadRequest, "invalid request body: "+err.Error(), nil))
		return
	}
	if !s.app.Registry.UpdateHeartbeat(clientID, body.AgentID) {
		httputil.WriteError(w, logger.NewHubError(logger.ErrNotFound, "agent not found", nil))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"status": "ok"})
}

func (s *Server) handleAgentsHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteError(w, logger.NewHubError(logger.ErrBadRequest, "method not allowed", nil))
		return
	}
	health := s.app.Checker.Check(r.Context())
	httputil.WriteJSON(w, http.StatusOK, health)
}
