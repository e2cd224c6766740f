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

package registry

import (
	"crypto/sha256"
	"sync"
	"time"

	"github.com/mr-tron/base58"

	"github.com/sage-x-project/sage-hub/attestation"
	"github.com/sage-x-project/sage-hub/internal/logger"
	"github.com/sage-x-project/sage-hub/internal/metrics"
)

// Registry admits peers after attestation, tracks their capability set, and
// sweeps for liveness. It is indexed by (client-id -> set of agent-ids); a
// lookup by (agent-id, client-id) is the only sanctioned read path.
type Registry struct {
	mu       sync.RWMutex
	clients  map[string]map[string]*Record
	verifier attestation.Verifier
	metrics  *metrics.Collector

	sweepInterval time.Duration
	stop          chan struct{}
	sweepTicker   *time.Ticker
}

// New wires a Registry to its attestation verifier. The liveness sweep runs
// every sweepInterval (default 60s if zero), modeled on session.Manager's
// background cleanup loop.
func New(verifier attestation.Verifier, sweepInterval time.Duration, collector *metrics.Collector) *Registry {
	if sweepInterval <= 0 {
		sweepInterval = 60 * time.Second
	}
	if collector == nil {
		collector = metrics.GetGlobalCollector()
	}
	r := &Registry{
		clients:       make(map[string]map[string]*Record),
		verifier:      verifier,
		metrics:       collector,
		sweepInterval: sweepInterval,
		stop:          make(chan struct{}),
	}
	r.sweepTicker = time.NewTicker(sweepInterval)
	go r.runSweep()
	return r
}

// Close stops the background sweep goroutine.
func (r *Registry) Close() {
	select {
	case <-r.stop:
		return
	default:
		close(r.stop)
	}
	if r.sweepTicker != nil {
		r.sweepTicker.Stop()
	}
}

// Register admits a peer after attestation verification. On success it
// upserts a Record with status Verified; on failure nothing is persisted and
// the verifier's rejection reason is returned.
func (r *Registry) Register(req RegisterRequest) (*Record, error) {
	if req.ClientID == "" {
		return nil, logger.NewHubError(logger.ErrClientIDMissing, "client id is required", nil)
	}
	if req.AgentID == "" || len(req.AttestationQuote) == 0 || req.PublicKeyPEM == "" {
		return nil, logger.NewHubError(logger.ErrBadRequest, "agent_id, attestation quote, and public key are required", nil)
	}

	result := r.verifier.Verify(req.AttestationQuote)
	if !result.OK {
		r.metrics.RecordAdmission(false)
		return nil, logger.NewHubError(logger.ErrAttestationFailed, result.Reason, nil)
	}

	now := time.Now().UTC()
	rec := &Record{
		AgentID:             req.AgentID,
		Kind:                req.Kind,
		Capabilities:        req.Capabilities,
		Endpoint:            req.Endpoint,
		AttestationEndpoint: req.AttestationEndpoint,
		PublicKeyPEM:        req.PublicKeyPEM,
		KeyAlgorithm:        req.KeyAlgorithm,
		Status:              StatusVerified,
		RegisteredAt:        now,
		LastSeen:            now,
		ClientID:            req.ClientID,
		Measurements:        result.Measurements,
	}
	if req.KeyAlgorithm == KeyAlgorithmSecp256k1 {
		if addr, err := cosmeticAddress(req.PublicKeyPEM); err == nil {
			rec.Address = addr
		}
	}

	r.mu.Lock()
	byAgent, ok := r.clients[req.ClientID]
	if !ok {
		byAgent = make(map[string]*Record)
		r.clients[req.ClientID] = byAgent
	}
	byAgent[req.AgentID] = rec
	r.mu.Unlock()

	r.metrics.RecordAdmission(true)
	return rec, nil
}

// Get performs the one sanctioned lookup path: by (agent-id, client-id). A
// cross-client lookup always returns not-found, never another client's data.
func (r *Registry) Get(clientID, agentID string) (*Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	byAgent, ok := r.clients[clientID]
	if !ok {
		return nil, false
	}
	rec, ok := byAgent[agentID]
	if !ok {
		return nil, false
	}
	cp := *rec
	return &cp, true
}

// VerifiedAgents returns every verified record for a client, optionally
// excluding one agent id (used for requester self-exclusion during routing).
func (r *Registry) VerifiedAgents(clientID string, exclude string) []*Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	byAgent, ok := r.clients[clientID]
	if !ok {
		return nil
	}
	out := make([]*Record, 0, len(byAgent))
	for id, rec := range byAgent {
		if id == exclude {
			continue
		}
		if rec.Status != StatusVerified {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	return out
}

// ByCapability filters verified records for a client whose capability set
// contains the given tag.
func (r *Registry) ByCapability(clientID, tag string) []*Record {
	var out []*Record
	for _, rec := range r.VerifiedAgents(clientID, "") {
		if rec.HasCapability(tag) {
			out = append(out, rec)
		}
	}
	return out
}

// Directory returns a directory view of every record for a client
// (regardless of status), annotated with a derived online flag.
func (r *Registry) Directory(clientID string, capability string) []DirectoryEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	byAgent, ok := r.clients[clientID]
	if !ok {
		return nil
	}
	now := time.Now()
	out := make([]DirectoryEntry, 0, len(byAgent))
	for _, rec := range byAgent {
		if capability != "" && !rec.HasCapability(capability) {
			continue
		}
		out = append(out, DirectoryEntry{
			Record: *rec,
			Online: now.Sub(rec.LastSeen) < HealthyWindow,
		})
	}
	return out
}

// UpdateHeartbeat refreshes last-seen only if the record exists for that
// client; it is a no-op (returns false) for any other (agent, client) pair.
func (r *Registry) UpdateHeartbeat(clientID, agentID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	byAgent, ok := r.clients[clientID]
	if !ok {
		return false
	}
	rec, ok := byAgent[agentID]
	if !ok {
		return false
	}
	rec.LastSeen = time.Now().UTC()
	r.metrics.RecordHeartbeat()
	return true
}

// Sweep buckets every client's agents into healthy/unhealthy/inactive by
// last-seen age, transitioning inactive agents to StatusInactive. Returns
// the buckets keyed by client id for callers that want a combined view.
func (r *Registry) Sweep() map[string]HealthBuckets {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	out := make(map[string]HealthBuckets, len(r.clients))
	for clientID, byAgent := range r.clients {
		var b HealthBuckets
		for id, rec := range byAgent {
			age := now.Sub(rec.LastSeen)
			switch {
			case age < HealthyWindow:
				b.Healthy = append(b.Healthy, id)
			case age < UnhealthyWindow:
				b.Unhealthy = append(b.Unhealthy, id)
			default:
				b.Inactive = append(b.Inactive, id)
				if rec.Status == StatusVerified {
					rec.Status = StatusInactive
				}
			}
		}
		out[clientID] = b
	}
	return out
}

func (r *Registry) runSweep() {
	for {
		select {
		case <-r.sweepTicker.C:
			r.Sweep()
		case <-r.stop:
			return
		}
	}
}

// cosmeticAddress derives a display-only base58 address from a secp256k1
// PEM public key. Purely cosmetic: no on-chain lookup is ever performed.
func cosmeticAddress(publicKeyPEM string) (string, error) {
	sum := sha256.Sum256([]byte(publicKeyPEM))
	return base58.Encode(sum[:]), nil
}
