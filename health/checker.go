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

// Package health combines the registry's liveness buckets with live
// transport probes into the combined view GET /agents/health returns.
package health

import (
	"context"
	"time"

	"github.com/sage-x-project/sage-hub/registry"
	"github.com/sage-x-project/sage-hub/transport"
)

// Status is the overall verdict of a combined health check.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// AgentRegistryHealth mirrors registry.HealthBuckets per client.
type AgentRegistryHealth struct {
	Buckets map[string]registry.HealthBuckets `json:"buckets"`
}

// PeerProbe is one peer's VM-communication probe outcome.
type PeerProbe struct {
	Kind    string              `json:"kind"`
	Status  transport.ProbeStatus `json:"status"`
	Latency time.Duration       `json:"latency_ms"`
	Error   string              `json:"error,omitempty"`
}

// CombinedHealth is the result of Checker.Check: GET /agents/health's body.
type CombinedHealth struct {
	Status         Status              `json:"status"`
	Timestamp      time.Time           `json:"timestamp"`
	AgentRegistry  AgentRegistryHealth `json:"agent_registry"`
	VMCommunication []PeerProbe        `json:"vm_communication"`
}

// Checker wires the registry and transport sender needed to answer
// GET /agents/health.
type Checker struct {
	registry *registry.Registry
	sender   transport.Sender
	kinds    []string
}

// NewChecker constructs a Checker. kinds lists every agent kind the
// transport layer has an endpoint configured for, used to drive the
// VM-communication probe fan-out.
func NewChecker(reg *registry.Registry, sender transport.Sender, kinds []string) *Checker {
	return &Checker{registry: reg, sender: sender, kinds: kinds}
}

// Check runs the registry sweep and probes every configured peer,
// combining both into one view. The overall verdict is the worst
// individual probe outcome.
func (c *Checker) Check(ctx context.Context) CombinedHealth {
	buckets := c.registry.Sweep()

	probes := make([]PeerProbe, 0, len(c.kinds))
	overall := StatusHealthy
	for _, kind := range c.kinds {
		result := c.sender.Probe(ctx, kind)
		p := PeerProbe{Kind: kind, Status: result.Status, Latency: result.Latency}
		if result.Err != nil {
			p.Error = result.Err.Error()
		}
		probes = append(probes, p)
		switch result.Status {
		case transport.ProbeUnreachable:
			overall = StatusUnhealthy
		case transport.ProbeUnhealthy:
			if overall == StatusHealthy {
				overall = StatusDegraded
			}
		}
	}

	return CombinedHealth{
		Status:          overall,
		Timestamp:       time.Now().UTC(),
		AgentRegistry:   AgentRegistryHealth{Buckets: buckets},
		VMCommunication: probes,
	}
}
