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
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sage-x-project/sage-hub/api/httputil"
	"github.com/sage-x-project/sage-hub/auth"
	"github.com/sage-x-project/sage-hub/envelope"
	"github.com/sage-x-project/sage-hub/internal/logger"
	"github.com/sage-x-project/sage-hub/internal/metrics"
	"github.com/sage-x-project/sage-hub/orchestration"
	"github.com/sage-x-project/sage-hub/router"
)

type routeRequestBody struct {
	Query            string                 `json:"query"`
	RequestingAgent  string                 `json:"requesting_agent,omitempty"`
	Context          map[string]interface{} `json:"context,omitempty"`
	DataRequirements []string               `json:"data_requirements,omitempty"`
	Priority         string                 `json:"priority,omitempty"`
	TimeoutSeconds   int                    `json:"timeout_seconds,omitempty"`
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.WriteError(w, logger.NewHubError(logger.ErrBadRequest, "method not allowed", nil))
		return
	}
	clientID, err := auth.ClientIDFrom(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var body routeRequestBody
	if err := httputil.DecodeJSON(r, &body); err != nil {
		httputil.WriteError(w, logger.NewHubError(logger.ErrBadRequest, "invalid request body: "+err.Error(), nil))
		return
	}
	if body.Query == "" {
		httputil.WriteError(w, logger.NewHubError(logger.ErrBadRequest, "query is required", nil))
		return
	}

	var timeout time.Duration
	if body.TimeoutSeconds > 0 {
		timeout = time.Duration(body.TimeoutSeconds) * time.Second
	}

	result, err := s.app.Engine.Route(r.Context(), orchestration.RouteRequest{
		ClientID:         clientID,
		Query:            body.Query,
		RequestingAgent:  body.RequestingAgent,
		Context:          body.Context,
		DataRequirements: body.DataRequirements,
		Priority:         router.Priority(body.Priority),
		Timeout:          timeout,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (s *Server) handleActive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteError(w, logger.NewHubError(logger.ErrBadRequest, "method not allowed", nil))
		return
	}
	clientID, err := auth.ClientIDFrom(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	active := s.app.Engine.ActiveForClient(clientID)
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"active": active, "count": len(active)})
}

// handleResponse accepts a peer agent's final answer for a routing id,
// either as a bare JSON response object or wrapped in a signed envelope.
// An enveloped submission is verified (signature, freshness, replay) before
// its payload is read, and the acknowledgement travels back as an envelope
// signed by the hub.
func (s *Server) handleResponse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.WriteError(w, logger.NewHubError(logger.ErrBadRequest, "method not allowed", nil))
		return
	}
	if _, err := auth.ClientIDFrom(r); err != nil {
		httputil.WriteError(w, err)
		return
	}
	routingID := strings.TrimPrefix(r.URL.Path, "/api/v1/orchestration/response/")
	if routingID == "" {
		httputil.WriteError(w, logger.NewHubError(logger.ErrUnknownRoutingID, "routing id is required", nil))
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		httputil.WriteError(w, logger.NewHubError(logger.ErrBadRequest, "failed to read request body", err))
		return
	}
	defer r.Body.Close()

	var resp orchestration.Response
	var env envelope.Envelope
	enveloped := json.Unmarshal(body, &env) == nil && env.Signature != "" && env.SenderPublicKey != ""
	if enveloped {
		verifyStart := time.Now()
		payload, verr := envelope.Verify(&env, envelope.VerifyOptions{Replay: s.app.Replay})
		s.collector().RecordEnvelopeVerify(verr == nil, errors.Is(verr, envelope.ErrReplay), time.Since(verifyStart))
		if verr != nil {
			httputil.WriteError(w, httputil.EnvelopeError(verr))
			return
		}
		if err := json.Unmarshal(payload, &resp); err != nil {
			httputil.WriteError(w, logger.NewHubError(logger.ErrBadRequest, "envelope payload is not a response object", err))
			return
		}
	} else if err := json.Unmarshal(body, &resp); err != nil {
		httputil.WriteError(w, logger.NewHubError(logger.ErrBadRequest, "invalid request body: "+err.Error(), nil))
		return
	}
	resp.ReceiveAt = time.Now().UTC()

	result, err := s.app.Engine.ProcessResponse(r.Context(), routingID, resp)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if enveloped && s.app.EnvBuilder != nil {
		reply, berr := s.app.EnvBuilder.Build(envelope.BuildOptions{
			SenderID:    "hub",
			RecipientID: env.SenderID,
			Kind:        env.Kind + "_ack",
			Payload:     result,
		})
		if berr != nil {
			httputil.WriteError(w, logger.NewHubError(logger.ErrInternal, "failed to build acknowledgement envelope", berr))
			return
		}
		s.collector().RecordEnvelopeBuild()
		httputil.WriteJSON(w, http.StatusOK, reply)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// collector returns the app's metrics collector, falling back to the
// process-wide one when the app was wired without its own.
func (s *Server) collector() *metrics.Collector {
	if s.app.Metrics != nil {
		return s.app.Metrics
	}
	return metrics.GetGlobalCollector()
}
