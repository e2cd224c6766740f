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
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// wsEnvelope correlates a request with its asynchronous reply over one
// shared connection, the way a single HTTP/2-style multiplexed link would.
type wsEnvelope struct {
	CorrelationID string          `json:"correlation_id"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	Error         string          `json:"error,omitempty"`
}

// wsPeer is one persistent connection to a single agent kind's endpoint.
type wsPeer struct {
	url  string
	mu   sync.Mutex
	conn *websocket.Conn

	pendingMu sync.Mutex
	pending   map[string]chan wsEnvelope
}

// WebSocketSender implements Sender over long-lived WebSocket connections,
// one per agent kind, for agents that prefer a persistent link over
// per-call HTTP. Connections are dialed lazily and reused across calls.
type WebSocketSender struct {
	mu      sync.Mutex
	peers   map[string]*wsPeer
	urls    map[string]string
	dialer  *websocket.Dialer
	timeout time.Duration
}

// NewWebSocketSender wires a WebSocketSender to a kind->ws(s)-URL map.
func NewWebSocketSender(urls map[string]string, timeout time.Duration) *WebSocketSender {
	if timeout <= 0 {
		timeout = DefaultWorkTimeout
	}
	return &WebSocketSender{
		peers:   make(map[string]*wsPeer),
		urls:    urls,
		dialer:  &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		timeout: timeout,
	}
}

func (s *WebSocketSender) peerFor(kind string) (*wsPeer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.peers[kind]; ok {
		return p, nil
	}
	url, ok := s.urls[kind]
	if !ok || url == "" {
		return nil, &NotConfiguredError{Kind: kind}
	}
	p := &wsPeer{url: url, pending: make(map[string]chan wsEnvelope)}
	s.peers[kind] = p
	return p, nil
}

func (p *wsPeer) ensureConnected(dialer *websocket.Dialer) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil {
		return nil
	}
	conn, _, err := dialer.Dial(p.url, nil)
	if err != nil {
		return err
	}
	p.conn = conn
	go p.readLoop()
	return nil
}

func (p *wsPeer) readLoop() {
	for {
		var env wsEnvelope
		if err := p.conn.ReadJSON(&env); err != nil {
			p.mu.Lock()
			p.conn = nil
			p.mu.Unlock()
			p.pendingMu.Lock()
			for id, ch := range p.pending {
				close(ch)
				delete(p.pending, id)
			}
			p.pendingMu.Unlock()
			return
		}
		p.pendingMu.Lock()
		ch, ok := p.pending[env.CorrelationID]
		if ok {
			delete(p.pending, env.CorrelationID)
		}
		p.pendingMu.Unlock()
		if ok {
			ch <- env
		}
	}
}

// Send implements Sender by writing a correlated request and waiting for
// its matching reply or the call's deadline, whichever comes first.
func (s *WebSocketSender) Send(ctx context.Context, kind string, payload interface{}) ([]byte, error) {
	p, err := s.peerFor(kind)
	if err != nil {
		return nil, wrapSendError(kind, err)
	}
	if err := p.ensureConnected(s.dialer); err != nil {
		return nil, wrapSendError(kind, err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	corrID, err := randomID()
	if err != nil {
		return nil, err
	}

	replyCh := make(chan wsEnvelope, 1)
	p.pendingMu.Lock()
	p.pending[corrID] = replyCh
	p.pendingMu.Unlock()

	p.mu.Lock()
	writeErr := p.conn.WriteJSON(wsEnvelope{CorrelationID: corrID, Payload: body})
	p.mu.Unlock()
	if writeErr != nil {
		p.pendingMu.Lock()
		delete(p.pending, corrID)
		p.pendingMu.Unlock()
		return nil, wrapSendError(kind, writeErr)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	select {
	case env, ok := <-replyCh:
		if !ok {
			return nil, wrapSendError(kind, fmt.Errorf("connection closed while awaiting reply"))
		}
		if env.Error != "" {
			return nil, wrapSendError(kind, fmt.Errorf("%s", env.Error))
		}
		return env.Payload, nil
	case <-ctx.Done():
		p.pendingMu.Lock()
		delete(p.pending, corrID)
		p.pendingMu.Unlock()
		return nil, wrapSendError(kind, &TimeoutError{Kind: kind})
	}
}

// Probe implements Sender by ensuring the connection is up; round-trip
// latency for WebSocket peers is best-effort (connection establishment
// only, since there is no cheap ping/pong guarantee across all servers).
func (s *WebSocketSender) Probe(ctx context.Context, kind string) ProbeResult {
	p, err := s.peerFor(kind)
	if err != nil {
		return ProbeResult{Peer: kind, Status: ProbeUnreachable, Err: err}
	}
	start := time.Now()
	if err := p.ensureConnected(s.dialer); err != nil {
		return ProbeResult{Peer: kind, Status: ProbeUnreachable, Latency: time.Since(start), Err: err}
	}
	return ProbeResult{Peer: kind, Status: ProbeHealthy, Latency: time.Since(start)}
}

// Broadcast implements Sender by sending payload to every configured peer
// concurrently over its own connection; each peer's connection is
// independent so one peer's failure cannot block another.
func (s *WebSocketSender) Broadcast(ctx context.Context, payload interface{}) map[string]BroadcastResult {
	results := make(map[string]BroadcastResult, len(s.urls))
	var wg sync.WaitGroup
	var mu sync.Mutex
	for kind := range s.urls {
		kind := kind
		wg.Add(1)
		go func() {
			defer wg.Done()
			reply, err := s.Send(ctx, kind, payload)
			mu.Lock()
			results[kind] = BroadcastResult{Reply: reply, Err: err}
			mu.Unlock()
		}()
	}
	wg.Wait()
	return results
}

func randomID() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
