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

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sage-x-project/sage-hub/config"
)

func signToken(t *testing.T, secret, issuer, subject string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": subject,
		"iss": issuer,
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func passthrough() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddlewareDisabledIsNoOp(t *testing.T) {
	v := NewVerifier(&config.JWTConfig{Enabled: false})
	handler := v.Middleware(passthrough())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 when auth is disabled, got %d", rec.Code)
	}
}

func TestMiddlewareAcceptsMatchingToken(t *testing.T) {
	cfg := &config.JWTConfig{Enabled: true, Issuer: "hub", Secret: "s3cr3t"}
	v := NewVerifier(cfg)
	handler := v.Middleware(passthrough())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(ClientIDHeader, "acme")
	req.Header.Set("Authorization", "Bearer "+signToken(t, cfg.Secret, cfg.Issuer, "acme"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestMiddlewareRejectsSubjectMismatch(t *testing.T) {
	cfg := &config.JWTConfig{Enabled: true, Issuer: "hub", Secret: "s3cr3t"}
	v := NewVerifier(cfg)
	handler := v.Middleware(passthrough())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(ClientIDHeader, "acme")
	req.Header.Set("Authorization", "Bearer "+signToken(t, cfg.Secret, cfg.Issuer, "someone-else"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestMiddlewareRejectsMissingClientID(t *testing.T) {
	cfg := &config.JWTConfig{Enabled: true, Issuer: "hub", Secret: "s3cr3t"}
	v := NewVerifier(cfg)
	handler := v.Middleware(passthrough())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing client id, got %d", rec.Code)
	}
}

func TestMiddlewareRejectsMissingBearerToken(t *testing.T) {
	cfg := &config.JWTConfig{Enabled: true, Issuer: "hub", Secret: "s3cr3t"}
	v := NewVerifier(cfg)
	handler := v.Middleware(passthrough())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(ClientIDHeader, "acme")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for missing bearer token, got %d", rec.Code)
	}
}
