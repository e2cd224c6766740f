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

// Package httputil holds the small set of JSON request/response helpers and
// the error-kind-to-status-code mapping shared by the hub and agent HTTP
// surfaces.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sage-x-project/sage-hub/envelope"
	"github.com/sage-x-project/sage-hub/internal/logger"
)

// WriteJSON encodes v as the response body with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// DecodeJSON decodes the request body into v.
func DecodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}

// WriteError maps err onto the stable error-kind taxonomy and writes the
// matching HTTP status, per the propagation policy: error kinds never leak
// a raw exception to the caller.
func WriteError(w http.ResponseWriter, err error) {
	he, ok := err.(*logger.HubError)
	if !ok {
		he = logger.NewHubError(logger.ErrInternal, err.Error(), err)
	}
	WriteJSON(w, StatusForKind(he.Kind), map[string]interface{}{
		"status":  "error",
		"kind":    he.Kind,
		"message": he.Message,
		"details": he.Details,
	})
}

// EnvelopeError maps envelope.Verify's sentinel errors onto the stable
// error-kind taxonomy, shared by every surface that receives envelopes.
func EnvelopeError(err error) *logger.HubError {
	switch {
	case errors.Is(err, envelope.ErrSignatureInvalid):
		return logger.NewHubError(logger.ErrEnvelopeSigInvalid, "envelope signature invalid", err)
	case errors.Is(err, envelope.ErrStale):
		return logger.NewHubError(logger.ErrEnvelopeStale, "envelope timestamp outside freshness window", err)
	case errors.Is(err, envelope.ErrReplay):
		return logger.NewHubError(logger.ErrEnvelopeReplay, "envelope nonce already seen", err)
	case errors.Is(err, envelope.ErrDecryptFailed):
		return logger.NewHubError(logger.ErrEnvelopeDecrypt, "envelope decryption failed", err)
	default:
		return logger.NewHubError(logger.ErrBadRequest, "envelope verification failed", err)
	}
}

// StatusForKind maps a stable error kind onto its HTTP status code.
func StatusForKind(kind string) int {
	switch kind {
	case logger.ErrBadRequest, logger.ErrClientIDMissing, logger.ErrAttestationFailed,
		logger.ErrEnvelopeSigInvalid, logger.ErrEnvelopeStale, logger.ErrEnvelopeReplay,
		logger.ErrEnvelopeDecrypt, logger.ErrUnknownRoutingID, logger.ErrNoAgentsAvailable,
		logger.ErrHandlerNotRegistered:
		return http.StatusBadRequest
	case logger.ErrNotFound:
		return http.StatusNotFound
	case logger.ErrForbidden:
		return http.StatusForbidden
	case logger.ErrTransportTimeout:
		return http.StatusGatewayTimeout
	case logger.ErrTransportHTTP, logger.ErrTransportUnreach:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
