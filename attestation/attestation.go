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

// Package attestation parses a peer's attestation evidence and validates its
// measurements against policy before the registry admits the peer.
package attestation

import (
	"encoding/json"
	"fmt"
)

// Quote is the opaque evidence blob a peer presents at registration. In
// development mode it is a plain JSON document; in a production deployment
// it would carry a signed report chain the Verifier treats as opaque beyond
// what it needs to extract measurements.
type Quote struct {
	QuoteType    string            `json:"quote_type"`
	Measurements map[string]string `json:"measurements"`
}

// Result is what a Verifier returns: either ok with measurements, or a
// rejection reason naming the offending field.
type Result struct {
	OK           bool
	Measurements map[string]string
	Reason       string
}

// Verifier parses attestation evidence and checks it against policy. The
// registry is the only caller; it never interprets quote bytes itself.
type Verifier interface {
	Verify(quote []byte) Result
}

// DevelopmentPolicy accepts any syntactically valid evidence blob and
// returns its measurements verbatim. Selected when DEVELOPMENT_MODE=true.
type DevelopmentPolicy struct{}

// NewDevelopmentPolicy constructs a development-mode verifier.
func NewDevelopmentPolicy() *DevelopmentPolicy {
	return &DevelopmentPolicy{}
}

// Verify implements Verifier.
func (DevelopmentPolicy) Verify(quote []byte) Result {
	q, err := parseQuote(quote)
	if err != nil {
		return Result{OK: false, Reason: err.Error()}
	}
	measurements := q.Measurements
	if measurements == nil {
		measurements = map[string]string{"quote_type": q.QuoteType}
	}
	return Result{OK: true, Measurements: measurements}
}

// AllowlistPolicy additionally checks every measurement value against a
// configured allow-list map; any mismatch is a rejection naming the
// offending field. Selected in production (DEVELOPMENT_MODE=false).
type AllowlistPolicy struct {
	Allowlist map[string]string
}

// NewAllowlistPolicy constructs a production-mode verifier bound to a
// measurement allow-list (e.g. expected code-measurement digests per field).
func NewAllowlistPolicy(allowlist map[string]string) *AllowlistPolicy {
	return &AllowlistPolicy{Allowlist: allowlist}
}

// Verify implements Verifier.
func (p *AllowlistPolicy) Verify(quote []byte) Result {
	q, err := parseQuote(quote)
	if err != nil {
		return Result{OK: false, Reason: err.Error()}
	}
	for field, want := range p.Allowlist {
		got, present := q.Measurements[field]
		if !present {
			return Result{OK: false, Reason: fmt.Sprintf("missing measurement %q", field)}
		}
		if got != want {
			return Result{OK: false, Reason: fmt.Sprintf("measurement %q mismatch: want %q got %q", field, want, got)}
		}
	}
	return Result{OK: true, Measurements: q.Measurements}
}

func parseQuote(raw []byte) (*Quote, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty attestation quote")
	}
	var q Quote
	if err := json.Unmarshal(raw, &q); err != nil {
		return nil, fmt.Errorf("malformed attestation quote: %w", err)
	}
	if q.QuoteType == "" {
		return nil, fmt.Errorf("attestation quote missing quote_type")
	}
	return &q, nil
}

// VerifierFor selects a Verifier implementation by the process's
// development-mode flag: DEVELOPMENT_MODE=true bypasses the measurement
// allow-list entirely.
func VerifierFor(developmentMode bool, allowlist map[string]string) Verifier {
	if developmentMode {
		return NewDevelopmentPolicy()
	}
	return NewAllowlistPolicy(allowlist)
}
