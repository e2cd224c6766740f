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

package transport

import (
	"context"
	"encoding/json"
	"sync"
)

// MockSender is an in-memory Sender used by orchestration tests and by
// MOCK_LLM_PROCESSING deployments where no real peer is reachable.
type MockSender struct {
	mu        sync.Mutex
	Responses map[string][]byte // kind -> canned reply
	Errors    map[string]error  // kind -> canned error
	Calls     []MockCall
}

// MockCall records one Send invocation for assertions in tests.
type MockCall struct {
	Kind    string
	Payload interface{}
}

// NewMockSender constructs an empty MockSender.
func NewMockSender() *MockSender {
	return &MockSender{
		Responses: make(map[string][]byte),
		Errors:    make(map[string]error),
	}
}

// Send implements Sender.
func (m *MockSender) Send(ctx context.Context, kind string, payload interface{}) ([]byte, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Kind: kind, Payload: payload})
	m.mu.Unlock()

	if err, ok := m.Errors[kind]; ok {
		return nil, err
	}
	if reply, ok := m.Responses[kind]; ok {
		return reply, nil
	}
	return json.Marshal(map[string]interface{}{"acknowledged": true})
}

// Probe implements Sender, always reporting healthy unless an error was
// registered for the kind.
func (m *MockSender) Probe(ctx context.Context, kind string) ProbeResult {
	if err, ok := m.Errors[kind]; ok {
		return ProbeResult{Peer: kind, Status: ProbeUnreachable, Err: err}
	}
	return ProbeResult{Peer: kind, Status: ProbeHealthy}
}

// Broadcast implements Sender by calling Send for every kind with a
// registered response or error.
func (m *MockSender) Broadcast(ctx context.Context, payload interface{}) map[string]BroadcastResult {
	kinds := make(map[string]struct{})
	for k := range m.Responses {
		kinds[k] = struct{}{}
	}
	for k := range m.Errors {
		kinds[k] = struct{}{}
	}
	out := make(map[string]BroadcastResult, len(kinds))
	for k := range kinds {
		reply, err := m.Send(ctx, k, payload)
		out[k] = BroadcastResult{Reply: reply, Err: err}
	}
	return out
}
