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

package health

import (
	"context"
	"testing"
	"time"

	"github.com/sage-x-project/sage-hub/attestation"
	"github.com/sage-x-project/sage-hub/registry"
	"github.com/sage-x-project/sage-hub/transport"
)

type fakeSender struct {
	statuses map[string]transport.ProbeStatus
}

func (f *fakeSender) Send(ctx context.Context, kind string, payload interface{}) ([]byte, error) {
	return nil, nil
}

func (f *fakeSender) Probe(ctx context.Context, kind string) transport.ProbeResult {
	return transport.ProbeResult{Peer: kind, Status: f.statuses[kind]}
}

func (f *fakeSender) Broadcast(ctx context.Context, payload interface{}) map[string]transport.BroadcastResult {
	return nil
}

func TestCheckAllHealthyWhenEveryPeerIsHealthy(t *testing.T) {
	reg := registry.New(attestation.NewDevelopmentPolicy(), time.Hour, nil)
	defer reg.Close()
	sender := &fakeSender{statuses: map[string]transport.ProbeStatus{
		"finance": transport.ProbeHealthy,
		"sales":   transport.ProbeHealthy,
	}}

	c := NewChecker(reg, sender, []string{"finance", "sales"})
	result := c.Check(context.Background())

	if result.Status != StatusHealthy {
		t.Fatalf("expected healthy, got %s", result.Status)
	}
	if len(result.VMCommunication) != 2 {
		t.Fatalf("expected 2 peer probes, got %d", len(result.VMCommunication))
	}
}

func TestCheckUnreachablePeerMakesOverallUnhealthy(t *testing.T) {
	reg := registry.New(attestation.NewDevelopmentPolicy(), time.Hour, nil)
	defer reg.Close()
	sender := &fakeSender{statuses: map[string]transport.ProbeStatus{
		"finance": transport.ProbeUnreachable,
	}}

	c := NewChecker(reg, sender, []string{"finance"})
	result := c.Check(context.Background())

	if result.Status != StatusUnhealthy {
		t.Fatalf("expected unhealthy, got %s", result.Status)
	}
}

func TestCheckDegradedWhenPeerUnhealthyButReachable(t *testing.T) {
	reg := registry.New(attestation.NewDevelopmentPolicy(), time.Hour, nil)
	defer reg.Close()
	sender := &fakeSender{statuses: map[string]transport.ProbeStatus{
		"finance": transport.ProbeUnhealthy,
	}}

	c := NewChecker(reg, sender, []string{"finance"})
	result := c.Check(context.Background())

	if result.Status != StatusDegraded {
		t.Fatalf("expected degraded, got %s", result.Status)
	}
}
