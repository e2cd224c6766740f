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

// Package transport delivers envelopes to a peer agent's network endpoint
// with a bounded timeout, independent of the wire protocol used. It is the
// hub-side analogue of the agent SDK's MessageTransport abstraction: the
// orchestration engine depends only on the Sender interface, never on HTTP
// or WebSocket specifics.
package transport

import (
	"context"
	"time"

	"github.com/sage-x-project/sage-hub/internal/logger"
)

// DefaultWorkTimeout, DefaultHealthTimeout, and DefaultHeartbeatTimeout are
// the default per-call budgets for each class of outbound call.
const (
	DefaultWorkTimeout      = 60 * time.Second
	DefaultHealthTimeout    = 10 * time.Second
	DefaultHeartbeatTimeout = 5 * time.Second
)

// ProbeStatus is the outcome of a health probe against one peer.
type ProbeStatus string

const (
	ProbeHealthy     ProbeStatus = "healthy"
	ProbeUnhealthy   ProbeStatus = "unhealthy"
	ProbeUnreachable ProbeStatus = "unreachable"
)

// ProbeResult carries a peer's health status and best-effort latency.
type ProbeResult struct {
	Peer    string
	Status  ProbeStatus
	Latency time.Duration
	Err     error
}

// Sender delivers a request to a peer agent keyed by kind and awaits its
// response, or an error structured per the hub's error-kind taxonomy.
type Sender interface {
	// Send delivers payload to the peer registered under kind and returns
	// its raw JSON reply. ctx should carry the caller's timeout.
	Send(ctx context.Context, kind string, payload interface{}) ([]byte, error)

	// Probe checks the liveness of the peer registered under kind.
	Probe(ctx context.Context, kind string) ProbeResult

	// Broadcast fans out payload to every configured peer in parallel and
	// collects per-peer results; a single peer's failure does not cancel
	// the others.
	Broadcast(ctx context.Context, payload interface{}) map[string]BroadcastResult
}

// BroadcastResult is one peer's outcome from a Broadcast call.
type BroadcastResult struct {
	Reply []byte
	Err   error
}

// NotConfiguredError is returned when a kind has no registered endpoint.
type NotConfiguredError struct {
	Kind string
}

func (e *NotConfiguredError) Error() string {
	return "transport: no endpoint configured for " + e.Kind
}

// wrapSendError maps a low-level send failure onto the hub's stable error
// taxonomy so it can be surfaced at the HTTP boundary unchanged.
func wrapSendError(kind string, err error) error {
	switch e := err.(type) {
	case *NotConfiguredError:
		return logger.NewHubError(logger.ErrTransportUnreach, e.Error(), err)
	case *HTTPStatusError:
		he := logger.NewHubError(logger.ErrTransportHTTP, e.Error(), err)
		return he.WithDetails("status_code", e.StatusCode).WithDetails("body", e.Body)
	case *TimeoutError:
		return logger.NewHubError(logger.ErrTransportTimeout, e.Error(), err)
	default:
		return logger.NewHubError(logger.ErrTransportUnreach, "peer unreachable: "+kind, err)
	}
}
