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

// Package auth layers an optional JWT bearer-token check on top of (never
// replacing) the X-Client-ID scoping every hub request carries. Disabled by
// default; a deployment enables it via config's JWTAuth.Enabled.
package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sage-x-project/sage-hub/config"
	"github.com/sage-x-project/sage-hub/internal/logger"
)

// ClientIDHeader is the header every hub request must carry.
const ClientIDHeader = "X-Client-ID"

// ClientIDFrom extracts and validates the X-Client-ID header.
func ClientIDFrom(r *http.Request) (string, error) {
	id := r.Header.Get(ClientIDHeader)
	if id == "" {
		return "", logger.NewHubError(logger.ErrClientIDMissing, "X-Client-ID header required", nil)
	}
	return id, nil
}

// Verifier validates a JWT bearer token against the configured issuer and
// shared secret, requiring the token's subject to match the X-Client-ID
// header on the same request. Disabled (always-pass) unless cfg.Enabled.
type Verifier struct {
	cfg *config.JWTConfig
}

// NewVerifier wires a Verifier to the process's JWT configuration.
func NewVerifier(cfg *config.JWTConfig) *Verifier {
	return &Verifier{cfg: cfg}
}

// Middleware wraps next, rejecting requests with a missing, expired, or
// client-mismatched bearer token. When JWT auth is disabled it is a no-op
// wrapper so X-Client-ID scoping alone governs access, per the non-goals
// (no multi-tenant isolation stronger than client-id scoping).
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	if v.cfg == nil || !v.cfg.Enabled {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID, err := ClientIDFrom(r)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := v.verify(r, clientID); err != nil {
			writeError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (v *Verifier) verify(r *http.Request, clientID string) error {
	authz := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(authz, prefix) {
		return logger.NewHubError(logger.ErrForbidden, "missing bearer token", nil)
	}
	raw := strings.TrimPrefix(authz, prefix)

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(v.cfg.Secret), nil
	}, jwt.WithIssuer(v.cfg.Issuer))
	if err != nil {
		return logger.NewHubError(logger.ErrForbidden, "invalid bearer token", err)
	}

	sub, _ := claims.GetSubject()
	if sub != clientID {
		return logger.NewHubError(logger.ErrForbidden, "token subject does not match X-Client-ID", nil)
	}
	return nil
}

func writeError(w http.ResponseWriter, err error) {
	he, ok := err.(*logger.HubError)
	if !ok {
		he = logger.NewHubError(logger.ErrInternal, err.Error(), err)
	}
	status := http.StatusForbidden
	if he.Kind == logger.ErrClientIDMissing {
		status = http.StatusBadRequest
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(fmt.Sprintf(`{"kind":%q,"message":%q}`, he.Kind, he.Message)))
}
