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

// Package orchestration routes a client query to an agent, assembles the
// data package the agent needs, tracks the in-flight collaboration, and
// synthesizes a final result once responses arrive (optionally escalating
// to a second agent when the first response has low confidence).
package orchestration

import (
	"time"

	"github.com/sage-x-project/sage-hub/registry"
	"github.com/sage-x-project/sage-hub/router"
)

// Response is one agent's contribution to an active collaboration.
type Response struct {
	AgentID   string                 `json:"agent_id"`
	Kind      registry.Kind          `json:"agent_type"`
	Result    map[string]interface{} `json:"result"`
	ReceiveAt time.Time              `json:"received_at"`
}

// ConfidenceScore extracts the response's confidence_score field, defaulting
// to 0 (treated as low-confidence, eligible for escalation) when absent.
func (r Response) ConfidenceScore() float64 {
	v, ok := r.Result["confidence_score"]
	if !ok {
		return 0
	}
	f, ok := v.(float64)
	if !ok {
		return 0
	}
	return f
}

// ActiveCollaboration is one in-flight routed request, mutated only by the
// Engine under its per-routing-id lock. Context, DataPackage, and Priority
// are retained from the original dispatch so an escalation re-sends the
// same request the first target received.
type ActiveCollaboration struct {
	RoutingID      string        `json:"routing_id"`
	OriginalQuery  string        `json:"original_query"`
	ClientID       string        `json:"client_id"`
	TargetAgent    string        `json:"target_agent"`
	TargetKind     registry.Kind `json:"target_kind"`
	StartedAt      time.Time     `json:"started_at"`
	Deadline       time.Time     `json:"deadline"`
	Responses      []Response    `json:"responses"`
	RequestingAgent string       `json:"requesting_agent,omitempty"`
	Context        map[string]interface{} `json:"context,omitempty"`
	DataPackage    *DataPackage  `json:"data_package,omitempty"`
	Priority       router.Priority `json:"priority,omitempty"`
}

// RespondingAgentIDs returns the set of agent ids that have already
// responded, used to exclude them from an escalation candidate search.
func (a *ActiveCollaboration) RespondingAgentIDs() map[string]struct{} {
	set := make(map[string]struct{}, len(a.Responses)+1)
	for _, r := range a.Responses {
		set[r.AgentID] = struct{}{}
	}
	if a.TargetAgent != "" {
		set[a.TargetAgent] = struct{}{}
	}
	return set
}

// DataPackage is the materialized payload shipped to the selected agent:
// client id, request context, declared data types, and per-tag slices drawn
// from the request context or placeholder defaults.
type DataPackage struct {
	ClientID    string                 `json:"client_id"`
	Context     map[string]interface{} `json:"context"`
	DataTypes   []string               `json:"data_types"`
	Data        map[string]interface{} `json:"data"`
	PreparedAt  time.Time              `json:"prepared_at"`
	Encrypted   bool                   `json:"encrypted"`
}

// RouteRequest is the input to Engine.Route.
type RouteRequest struct {
	ClientID         string
	Query            string
	RequestingAgent  string
	Context          map[string]interface{}
	DataRequirements []string
	Priority         router.Priority
	Timeout          time.Duration
}

// RouteResult is the output of Engine.Route.
type RouteResult struct {
	RoutingID       string    `json:"routing_id"`
	TargetAgent     string    `json:"target_agent"`
	TargetKind      string    `json:"target_kind"`
	Reasoning       string    `json:"reasoning"`
	EstimatedMinutes int      `json:"estimated_minutes"`
	DataPackageSize int       `json:"data_package_size"`
	RoutedAt        time.Time `json:"routed_at"`
	PeerAck         bool      `json:"peer_ack"`
}

// Synthesis is the Synthesizer's combined verdict over every collected
// response for a completed routing id.
type Synthesis struct {
	ExecutiveSummary     string   `json:"executive_summary"`
	Recommendations      []string `json:"recommendations"`
	ConfidenceScore      float64  `json:"confidence_score"`
	AreasOfAgreement     []string `json:"areas_of_agreement"`
	AreasOfDisagreement  []string `json:"areas_of_disagreement"`
}

// ProcessResult is the output of Engine.ProcessResponse.
type ProcessResult struct {
	RoutingID   string     `json:"routing_id"`
	Status      string     `json:"status"` // "escalated" | "completed"
	Synthesis   *Synthesis `json:"synthesis,omitempty"`
	Responses   []Response `json:"responses"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	EscalatedTo string     `json:"escalated_to,omitempty"`
}
