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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// HTTPStatusError is returned when a peer replies with a non-2xx status.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("peer returned HTTP %d: %s", e.StatusCode, e.Body)
}

// TimeoutError is returned when a call exceeds its deadline.
type TimeoutError struct {
	Kind string
}

func (e *TimeoutError) Error() string {
	return "transport: timed out calling " + e.Kind
}

// HTTPSender implements Sender over plain HTTP POST requests, one base URL
// per agent kind. It is the default transport backend; a WebSocket backend
// is offered for agents that prefer persistent links.
type HTTPSender struct {
	endpoints map[string]string
	client    *http.Client
	timeout   time.Duration
}

// NewHTTPSender wires an HTTPSender to a kind->base-URL map. A caller-
// supplied total timeout bounds every call unless overridden per-call via
// the context; defaults to DefaultWorkTimeout.
func NewHTTPSender(endpoints map[string]string, timeout time.Duration) *HTTPSender {
	if timeout <= 0 {
		timeout = DefaultWorkTimeout
	}
	return &HTTPSender{
		endpoints: endpoints,
		client:    &http.Client{},
		timeout:   timeout,
	}
}

// Send implements Sender.
func (s *HTTPSender) Send(ctx context.Context, kind string, payload interface{}) ([]byte, error) {
	base, ok := s.endpoints[kind]
	if !ok || base == "" {
		return nil, wrapSendError(kind, &NotConfiguredError{Kind: kind})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/api/v1/process", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, wrapSendError(kind, &TimeoutError{Kind: kind})
		}
		return nil, wrapSendError(kind, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, wrapSendError(kind, &HTTPStatusError{StatusCode: resp.StatusCode, Body: string(respBody)})
	}
	return respBody, nil
}

// Probe implements Sender, issuing a bounded GET against /api/v1/health.
func (s *HTTPSender) Probe(ctx context.Context, kind string) ProbeResult {
	base, ok := s.endpoints[kind]
	if !ok || base == "" {
		return ProbeResult{Peer: kind, Status: ProbeUnreachable, Err: &NotConfiguredError{Kind: kind}}
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultHealthTimeout)
	defer cancel()

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/api/v1/health", nil)
	if err != nil {
		return ProbeResult{Peer: kind, Status: ProbeUnreachable, Err: err}
	}
	resp, err := s.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return ProbeResult{Peer: kind, Status: ProbeUnreachable, Latency: latency, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ProbeResult{Peer: kind, Status: ProbeUnhealthy, Latency: latency}
	}
	return ProbeResult{Peer: kind, Status: ProbeHealthy, Latency: latency}
}

// Broadcast implements Sender, fanning a payload out to every configured
// peer concurrently via errgroup and collecting per-peer results.
func (s *HTTPSender) Broadcast(ctx context.Context, payload interface{}) map[string]BroadcastResult {
	results := make(map[string]BroadcastResult, len(s.endpoints))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for kind := range s.endpoints {
		kind := kind
		g.Go(func() error {
			reply, err := s.Send(gctx, kind, payload)
			mu.Lock()
			results[kind] = BroadcastResult{Reply: reply, Err: err}
			mu.Unlock()
			return nil // per-peer errors are collected, not propagated
		})
	}
	_ = g.Wait()
	return results
}
