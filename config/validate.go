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

package config

import "fmt"

// ValidationError describes one configuration problem. Level distinguishes
// a hard failure ("error") from an advisory ("warning") the loader reports
// but does not fail on.
type ValidationError struct {
	Field   string
	Message string
	Level   string // "error" | "warning"
}

func (e ValidationError) String() string {
	return fmt.Sprintf("[%s] %s: %s", e.Level, e.Field, e.Message)
}

// ValidateConfiguration checks a loaded Config for problems that would
// surface later as a confusing runtime failure (an out-of-range port, a
// JWT layer enabled without an issuer) rather than a
// clear startup error. Called by Load unless LoaderOptions.SkipValidation is
// set.
func ValidateConfiguration(cfg *Config) []ValidationError {
	var errs []ValidationError

	if cfg.ClientID == "" {
		errs = append(errs, ValidationError{
			Field: "client_id", Level: "warning",
			Message: "empty; every registry and document lookup is scoped by client id",
		})
	}

	errs = append(errs, validatePort("hub_api_port", cfg.HubAPIPort)...)
	errs = append(errs, validatePort("agent_api_port", cfg.AgentAPIPort)...)
	if cfg.Attestation != nil {
		errs = append(errs, validatePort("attestation.port", cfg.Attestation.Port)...)
	}

	switch cfg.KeyStore.Algorithm {
	case "", "ed25519", "secp256k1":
	default:
		errs = append(errs, ValidationError{
			Field: "keystore.algorithm", Level: "error",
			Message: fmt.Sprintf("unsupported algorithm %q (want ed25519 or secp256k1)", cfg.KeyStore.Algorithm),
		})
	}

	switch cfg.TransportKind {
	case "", "http", "websocket":
	default:
		errs = append(errs, ValidationError{
			Field: "transport_kind", Level: "error",
			Message: fmt.Sprintf("unsupported transport %q (want http or websocket)", cfg.TransportKind),
		})
	}

	if cfg.JWTAuth != nil && cfg.JWTAuth.Enabled && cfg.JWTAuth.Issuer == "" {
		errs = append(errs, ValidationError{
			Field: "jwt_auth.issuer", Level: "error",
			Message: "jwt_auth.enabled is true but no issuer is configured",
		})
	}
	if cfg.JWTAuth != nil && cfg.JWTAuth.Enabled && cfg.JWTAuth.Secret == "" {
		errs = append(errs, ValidationError{
			Field: "jwt_auth.secret", Level: "error",
			Message: "jwt_auth.enabled is true but no signing secret is configured",
		})
	}

	if cfg.Orchestration != nil && cfg.Orchestration.MaxActivePerClient < 0 {
		errs = append(errs, ValidationError{
			Field: "orchestration.max_active_per_client", Level: "error",
			Message: "must not be negative",
		})
	}

	return errs
}

func validatePort(field string, port int) []ValidationError {
	if port <= 0 || port > 65535 {
		return []ValidationError{{
			Field: field, Level: "error",
			Message: fmt.Sprintf("port %d out of range 1-65535", port),
		}}
	}
	return nil
}
