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
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sage-x-project/sage-hub/api/httputil"
	"github.com/sage-x-project/sage-hub/envelope"
	"github.com/sage-x-project/sage-hub/internal/logger"
	"github.com/sage-x-project/sage-hub/internal/metrics"
)

// handleCollaborate implements POST /collaborate: verify the inbound
// secure envelope, dispatch its payload by kind, and return the result as a
// freshly-signed envelope addressed back to the sender.
func (s *Server) handleCollaborate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.WriteError(w, logger.NewHubError(logger.ErrBadRequest, "method not allowed", nil))
		return
	}

	var env envelope.Envelope
	if err := httputil.DecodeJSON(r, &env); err != nil {
		httputil.WriteError(w, logger.NewHubError(logger.ErrBadRequest, "invalid envelope: "+err.Error(), nil))
		return
	}

	verifyStart := time.Now()
	rawPayload, err := envelope.Verify(&env, envelope.VerifyOptions{Replay: s.app.Replay})
	s.collector().RecordEnvelopeVerify(err == nil, errors.Is(err, envelope.ErrReplay), time.Since(verifyStart))
	if err != nil {
		s.writeErrorEnvelope(w, env.SenderID, httputil.EnvelopeError(err))
		return
	}

	var payload map[string]interface{}
	if len(rawPayload) > 0 {
		if err := json.Unmarshal(rawPayload, &payload); err != nil {
			s.writeErrorEnvelope(w, env.SenderID, logger.NewHubError(logger.ErrBadRequest, "envelope payload is not a JSON object", err))
			return
		}
	}

	result, err := s.app.Dispatcher.Dispatch(env.Kind, payload)
	if err != nil {
		s.writeErrorEnvelope(w, env.SenderID, err)
		return
	}

	reply, err := s.app.EnvBuilder.Build(envelope.BuildOptions{
		SenderID:    s.app.AgentID,
		RecipientID: env.SenderID,
		Kind:        env.Kind + "_response",
		Payload:     result,
	})
	if err != nil {
		httputil.WriteError(w, logger.NewHubError(logger.ErrInternal, "failed to build response envelope", err))
		return
	}
	s.collector().RecordEnvelopeBuild()
	httputil.WriteJSON(w, http.StatusOK, reply)
}

// collector returns the app's metrics collector, falling back to the
// process-wide one when the app was wired without its own.
func (s *Server) collector() *metrics.Collector {
	if s.app.Metrics != nil {
		return s.app.Metrics
	}
	return metrics.GetGlobalCollector()
}

// writeErrorEnvelope consumes an envelope-layer or dispatch failure at the
// component boundary: the raw error never travels to the peer; instead the
// agent answers with an "error" envelope signed by itself, carrying only the
// stable error kind and message. Falls back to a plain error body when even
// the reply envelope cannot be built.
func (s *Server) writeErrorEnvelope(w http.ResponseWriter, recipient string, err error) {
	kind := logger.ErrInternal
	message := err.Error()
	if he, ok := err.(*logger.HubError); ok {
		kind = he.Kind
		message = he.Message
	}
	if recipient == "" {
		recipient = "unknown"
	}
	reply, buildErr := s.app.EnvBuilder.Build(envelope.BuildOptions{
		SenderID:    s.app.AgentID,
		RecipientID: recipient,
		Kind:        "error",
		Payload:     map[string]interface{}{"error": kind, "message": message},
	})
	if buildErr != nil {
		httputil.WriteError(w, logger.NewHubError(logger.ErrInternal, "failed to build error envelope", buildErr))
		return
	}
	s.collector().RecordEnvelopeBuild()
	httputil.WriteJSON(w, httputil.StatusForKind(kind), reply)
}
