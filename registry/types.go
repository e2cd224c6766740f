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

// Package registry admits peer agents after attestation and tracks their
// capability set and liveness. Every lookup is scoped to a client id;
// cross-client visibility is forbidden.
package registry

import "time"

// Kind enumerates the agent roles the coordination fabric knows about.
type Kind string

const (
	KindFinance   Kind = "finance"
	KindMarketing Kind = "marketing"
	KindSales     Kind = "sales"
	KindCEO       Kind = "ceo"
	KindHub       Kind = "hub"
)

// Status is the admission state of an agent record. It is monotone from
// Verified towards Inactive or Failed until re-registration replaces the
// record outright.
type Status string

const (
	StatusVerified   Status = "verified"
	StatusUnverified Status = "unverified"
	StatusInactive   Status = "inactive"
	StatusFailed     Status = "failed"
)

// KeyAlgorithm names the signing algorithm behind an agent's advertised
// public key, mirroring the Key Store's multi-algorithm support.
type KeyAlgorithm string

const (
	KeyAlgorithmEd25519   KeyAlgorithm = "ed25519"
	KeyAlgorithmSecp256k1 KeyAlgorithm = "secp256k1"
)

// Record is one agent's registry entry, keyed by (ClientID, AgentID).
type Record struct {
	AgentID            string            `json:"agent_id"`
	Kind               Kind              `json:"kind"`
	Capabilities       []string          `json:"capabilities"`
	Endpoint           string            `json:"endpoint"`
	AttestationEndpoint string           `json:"attestation_endpoint"`
	PublicKeyPEM       string            `json:"public_key_pem"`
	KeyAlgorithm       KeyAlgorithm      `json:"key_algorithm,omitempty"`
	Address            string            `json:"address,omitempty"`
	AttestationQuote   []byte            `json:"-"`
	Status             Status            `json:"status"`
	RegisteredAt       time.Time         `json:"registered_at"`
	LastSeen           time.Time         `json:"last_seen"`
	ClientID           string            `json:"client_id"`
	Measurements       map[string]string `json:"measurements,omitempty"`
}

// HasCapability reports whether the record advertises the given tag.
func (r *Record) HasCapability(tag string) bool {
	for _, c := range r.Capabilities {
		if c == tag {
			return true
		}
	}
	return false
}

// Heartbeat is a pure liveness signal carrying no other state.
type Heartbeat struct {
	AgentID   string    `json:"agent_id"`
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// DirectoryEntry is the derived, read-only view returned by the directory
// listing: a Record plus a liveness flag computed at read time.
type DirectoryEntry struct {
	Record
	Online bool `json:"online"`
}

// RegisterRequest is the admission request submitted at /agents/register.
type RegisterRequest struct {
	ClientID            string
	AgentID             string
	Kind                Kind
	Capabilities        []string
	Endpoint            string
	AttestationEndpoint string
	PublicKeyPEM        string
	KeyAlgorithm        KeyAlgorithm
	AttestationQuote    []byte
}

// Health liveness thresholds: agents seen within HealthyWindow are online,
// agents silent past UnhealthyWindow transition to inactive.
const (
	HealthyWindow   = 5 * time.Minute
	UnhealthyWindow = 15 * time.Minute
)

// HealthBuckets is the result of a liveness sweep.
type HealthBuckets struct {
	Healthy   []string
	Unhealthy []string
	Inactive  []string
}
