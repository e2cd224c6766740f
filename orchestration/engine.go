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

package orchestration

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/sage-x-project/sage-hub/internal/logger"
	"github.com/sage-x-project/sage-hub/internal/metrics"
	"github.com/sage-x-project/sage-hub/registry"
	"github.com/sage-x-project/sage-hub/router"
	"github.com/sage-x-project/sage-hub/transport"
)

// EscalationConfidenceThreshold is the response confidence below which the
// Engine seeks a second opinion, per the escalation policy.
const EscalationConfidenceThreshold = 0.7

// MaxResponsesPerRouting caps total responses collected for one routing id:
// the original response plus at most one escalation response.
const MaxResponsesPerRouting = 2

// DefaultRouteTimeout is used when a RouteRequest omits an explicit timeout.
const DefaultRouteTimeout = 60 * time.Second

// DefaultReapGrace is added to a collaboration's deadline before the
// background reaper treats it as orphaned.
const DefaultReapGrace = 30 * time.Second

// DefaultReapInterval bounds how often the reaper scans for orphaned entries.
const DefaultReapInterval = 30 * time.Second

// DefaultMaxActivePerClient caps in-flight collaborations per client; the
// oldest entry is evicted when a client hits the cap.
const DefaultMaxActivePerClient = 1024

// Options tunes the Engine's bookkeeping. Zero values select the defaults
// above.
type Options struct {
	ReapInterval       time.Duration
	ReapGrace          time.Duration
	MaxActivePerClient int
}

type collabEntry struct {
	mu   sync.Mutex
	done bool // set under mu once finalized or reaped; late responses see unknown_routing_id
	data ActiveCollaboration
}

// Engine routes queries to verified agents, tracks in-flight collaborations,
// and synthesizes final results, escalating once on a low-confidence first
// response. Concurrency model: the collaborations table is a map guarded by
// mu for structural changes (insert/delete); each entry carries its own
// mutex so response-append, escalate-decision, and finalize run as one
// serialized sequence per routing id. Lock order is strictly mu before
// entry.mu, and neither lock is ever acquired while the other is held in
// the opposite order: finalization marks the entry done under entry.mu,
// releases it, and only then takes mu to delete the table slot.
type Engine struct {
	registry     *registry.Registry
	sender       transport.Sender
	policy       router.Policy
	synthesizer  Synthesizer
	metrics      *metrics.Collector

	mu      sync.Mutex
	collabs map[string]*collabEntry

	reapInterval time.Duration
	reapGrace    time.Duration
	maxPerClient int
	stop         chan struct{}
}

// New wires an Engine from its collaborators. A nil synthesizer defaults to
// MockSynthesizer; a nil policy defaults to router.NewKeywordPolicy.
func New(reg *registry.Registry, sender transport.Sender, policy router.Policy, synthesizer Synthesizer, collector *metrics.Collector, opts Options) *Engine {
	if policy == nil {
		policy = router.NewKeywordPolicy()
	}
	if synthesizer == nil {
		synthesizer = NewMockSynthesizer()
	}
	if collector == nil {
		collector = metrics.GetGlobalCollector()
	}
	if opts.ReapInterval <= 0 {
		opts.ReapInterval = DefaultReapInterval
	}
	if opts.ReapGrace <= 0 {
		opts.ReapGrace = DefaultReapGrace
	}
	if opts.MaxActivePerClient <= 0 {
		opts.MaxActivePerClient = DefaultMaxActivePerClient
	}
	e := &Engine{
		registry:     reg,
		sender:       sender,
		policy:       policy,
		synthesizer:  synthesizer,
		metrics:      collector,
		collabs:      make(map[string]*collabEntry),
		reapInterval: opts.ReapInterval,
		reapGrace:    opts.ReapGrace,
		maxPerClient: opts.MaxActivePerClient,
		stop:         make(chan struct{}),
	}
	go e.runReaper()
	return e
}

// Close stops the background reaper.
func (e *Engine) Close() {
	select {
	case <-e.stop:
		return
	default:
		close(e.stop)
	}
}

// Route implements the Route operation: select an agent, build the data
// package, dispatch, and only then register the active collaboration. A
// dispatch failure therefore never leaves a ghost entry.
func (e *Engine) Route(ctx context.Context, req RouteRequest) (RouteResult, error) {
	start := time.Now()

	verified := e.registry.VerifiedAgents(req.ClientID, req.RequestingAgent)
	if len(verified) == 0 {
		return RouteResult{}, logger.NewHubError(logger.ErrNoAgentsAvailable, "no verified agents available for client", nil)
	}

	sel := e.policy.Select(req.Query, verified)
	if sel.Kind == "" {
		return RouteResult{}, logger.NewHubError(logger.ErrNoAgentsAvailable, "router policy found no eligible agent kind", nil)
	}

	var target *registry.Record
	for _, rec := range verified {
		if rec.Kind == sel.Kind {
			target = rec
			break
		}
	}
	if target == nil {
		target = verified[0]
		sel.Reasoning += "; resolved kind absent from verified set, substituted first available agent"
	}

	dp := BuildDataPackage(req.ClientID, req.Context, req.DataRequirements, false)

	routingID, err := e.freshRoutingID()
	if err != nil {
		return RouteResult{}, logger.NewHubError(logger.ErrInternal, "failed to mint routing id", err)
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultRouteTimeout
	}

	payload := map[string]interface{}{
		"routing_id":       routingID,
		"query":            req.Query,
		"context":          req.Context,
		"data_package":     dp,
		"requesting_agent": req.RequestingAgent,
		"priority":         sel.Priority,
	}

	dispatchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	_, sendErr := e.sender.Send(dispatchCtx, string(target.Kind), payload)
	if sendErr != nil {
		e.metrics.RecordRouteOutcome(false)
		return RouteResult{}, sendErr
	}

	now := time.Now().UTC()
	entry := &collabEntry{data: ActiveCollaboration{
		RoutingID:       routingID,
		OriginalQuery:   req.Query,
		ClientID:        req.ClientID,
		TargetAgent:     target.AgentID,
		TargetKind:      target.Kind,
		StartedAt:       now,
		Deadline:        now.Add(timeout),
		RequestingAgent: req.RequestingAgent,
		Context:         req.Context,
		DataPackage:     &dp,
		Priority:        sel.Priority,
	}}

	e.mu.Lock()
	e.enforceCapacityLocked(req.ClientID)
	e.collabs[routingID] = entry
	e.mu.Unlock()

	e.metrics.RecordRoute(string(target.Kind), time.Since(start))

	return RouteResult{
		RoutingID:        routingID,
		TargetAgent:      target.AgentID,
		TargetKind:       string(target.Kind),
		Reasoning:        sel.Reasoning,
		EstimatedMinutes: sel.EstimatedMinutes,
		DataPackageSize:  len(dp.Data),
		RoutedAt:         now,
		PeerAck:          true,
	}, nil
}

// ProcessResponse implements the Process response operation: append the
// response, decide escalation, and either re-dispatch the same request to a
// second agent (returning status "escalated") or finalize via the
// Synthesizer (returning status "completed" and removing the entry).
func (e *Engine) ProcessResponse(ctx context.Context, routingID string, resp Response) (ProcessResult, error) {
	e.mu.Lock()
	entry, ok := e.collabs[routingID]
	e.mu.Unlock()
	if !ok {
		return ProcessResult{}, logger.NewHubError(logger.ErrUnknownRoutingID, "no active collaboration for routing id "+routingID, nil)
	}

	entry.mu.Lock()
	if entry.done {
		entry.mu.Unlock()
		return ProcessResult{}, logger.NewHubError(logger.ErrUnknownRoutingID, "no active collaboration for routing id "+routingID, nil)
	}

	if resp.ReceiveAt.IsZero() {
		resp.ReceiveAt = time.Now().UTC()
	}
	entry.data.Responses = append(entry.data.Responses, resp)

	if resp.ConfidenceScore() < EscalationConfidenceThreshold && len(entry.data.Responses) < MaxResponsesPerRouting {
		if next := e.pickEscalationCandidate(&entry.data); next != nil {
			// The escalated agent receives the same request the original
			// target did: query, context, data package, and priority.
			payload := map[string]interface{}{
				"routing_id":       routingID,
				"query":            entry.data.OriginalQuery,
				"context":          entry.data.Context,
				"data_package":     entry.data.DataPackage,
				"requesting_agent": entry.data.RequestingAgent,
				"priority":         entry.data.Priority,
				"escalated":        true,
			}
			sendCtx, cancel := context.WithTimeout(ctx, DefaultRouteTimeout)
			_, sendErr := e.sender.Send(sendCtx, string(next.Kind), payload)
			cancel()
			if sendErr == nil {
				result := ProcessResult{
					RoutingID:   routingID,
					Status:      "escalated",
					Responses:   append([]Response(nil), entry.data.Responses...),
					EscalatedTo: next.AgentID,
				}
				entry.mu.Unlock()
				e.metrics.RecordEscalation()
				return result, nil
			}
			// Escalation dispatch failed: fall through and finalize with
			// what was already collected.
		}
	}

	// Finalize: synthesize and mark the entry done while still holding its
	// lock, then release it before touching the table so the engine-wide
	// lock is never acquired under an entry lock.
	synthesis := e.synthesizer.Synthesize(entry.data.Responses)
	responses := append([]Response(nil), entry.data.Responses...)
	entry.done = true
	entry.mu.Unlock()

	e.mu.Lock()
	delete(e.collabs, routingID)
	e.mu.Unlock()

	e.metrics.RecordRouteOutcome(true)
	now := time.Now().UTC()

	return ProcessResult{
		RoutingID:   routingID,
		Status:      "completed",
		Synthesis:   &synthesis,
		Responses:   responses,
		CompletedAt: &now,
	}, nil
}

// pickEscalationCandidate returns the first verified agent for the
// collaboration's client not already present in the responses set, or nil
// if no suitable next agent exists.
func (e *Engine) pickEscalationCandidate(collab *ActiveCollaboration) *registry.Record {
	already := collab.RespondingAgentIDs()
	if collab.RequestingAgent != "" {
		already[collab.RequestingAgent] = struct{}{}
	}
	for _, rec := range e.registry.VerifiedAgents(collab.ClientID, "") {
		if _, seen := already[rec.AgentID]; seen {
			continue
		}
		return rec
	}
	return nil
}

// Active returns a snapshot of every in-flight collaboration.
func (e *Engine) Active() []ActiveCollaboration {
	return e.snapshot("")
}

// ActiveForClient returns the in-flight collaborations scoped to one client,
// for the orchestration/active listing endpoint.
func (e *Engine) ActiveForClient(clientID string) []ActiveCollaboration {
	return e.snapshot(clientID)
}

func (e *Engine) snapshot(clientID string) []ActiveCollaboration {
	e.mu.Lock()
	entries := make([]*collabEntry, 0, len(e.collabs))
	for _, entry := range e.collabs {
		entries = append(entries, entry)
	}
	e.mu.Unlock()

	out := make([]ActiveCollaboration, 0, len(entries))
	for _, entry := range entries {
		entry.mu.Lock()
		data := entry.data
		done := entry.done
		entry.mu.Unlock()
		if done {
			continue
		}
		if clientID != "" && data.ClientID != clientID {
			continue
		}
		out = append(out, data)
	}
	return out
}

// enforceCapacityLocked evicts the client's oldest collaboration while the
// client sits at its active-entry cap, making room for the entry about to be
// inserted. An evicted routing id becomes unknown to ProcessResponse, the
// same observable outcome as a reaped entry. Caller holds e.mu; ClientID and
// StartedAt are immutable after insert, so they are read without the entry
// lock.
func (e *Engine) enforceCapacityLocked(clientID string) {
	for {
		count := 0
		oldestID := ""
		var oldest *collabEntry
		var oldestAt time.Time
		for id, entry := range e.collabs {
			if entry.data.ClientID != clientID {
				continue
			}
			count++
			if oldestID == "" || entry.data.StartedAt.Before(oldestAt) {
				oldestID, oldest, oldestAt = id, entry, entry.data.StartedAt
			}
		}
		if count < e.maxPerClient || oldestID == "" {
			return
		}
		oldest.mu.Lock()
		oldest.done = true
		oldest.mu.Unlock()
		delete(e.collabs, oldestID)
		e.metrics.RecordRouteOutcome(false)
	}
}

// freshRoutingID mints an 8-hex-char routing id, retrying on collision
// against the current table.
func (e *Engine) freshRoutingID() (string, error) {
	for attempt := 0; attempt < 16; attempt++ {
		buf := make([]byte, 4)
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		id := hex.EncodeToString(buf)
		e.mu.Lock()
		_, exists := e.collabs[id]
		e.mu.Unlock()
		if !exists {
			return id, nil
		}
	}
	return "", fmt.Errorf("orchestration: failed to mint a unique routing id after 16 attempts")
}

// runReaper periodically removes collaborations orphaned by a cancelled or
// vanished caller: entries whose deadline plus grace has passed.
func (e *Engine) runReaper() {
	ticker := time.NewTicker(e.reapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			e.reapOnce()
		case <-e.stop:
			return
		}
	}
}

func (e *Engine) reapOnce() {
	now := time.Now()

	type candidate struct {
		id    string
		entry *collabEntry
	}
	e.mu.Lock()
	candidates := make([]candidate, 0, len(e.collabs))
	for id, entry := range e.collabs {
		candidates = append(candidates, candidate{id: id, entry: entry})
	}
	e.mu.Unlock()

	var stale []string
	for _, c := range candidates {
		c.entry.mu.Lock()
		expired := !c.entry.done && now.After(c.entry.data.Deadline.Add(e.reapGrace))
		if expired {
			c.entry.done = true
		}
		c.entry.mu.Unlock()
		if expired {
			stale = append(stale, c.id)
		}
	}
	if len(stale) == 0 {
		return
	}

	e.mu.Lock()
	for _, id := range stale {
		delete(e.collabs, id)
	}
	e.mu.Unlock()

	for range stale {
		e.metrics.RecordRouteOutcome(false)
	}
}
