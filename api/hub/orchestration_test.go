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

package hub

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sage-x-project/sage-hub/attestation"
	"github.com/sage-x-project/sage-hub/auth"
	"github.com/sage-x-project/sage-hub/envelope"
	"github.com/sage-x-project/sage-hub/keystore"
	"github.com/sage-x-project/sage-hub/orchestration"
	"github.com/sage-x-project/sage-hub/registry"
	"github.com/sage-x-project/sage-hub/router"
	"github.com/sage-x-project/sage-hub/transport"
)

func newOrchestrationApp(t *testing.T) (*App, *registry.Registry) {
	t.Helper()
	reg := registry.New(attestation.NewDevelopmentPolicy(), time.Hour, nil)
	t.Cleanup(reg.Close)
	sender := transport.NewMockSender()
	engine := orchestration.New(reg, sender, router.NewKeywordPolicy(), nil, nil, orchestration.Options{ReapInterval: time.Hour})
	t.Cleanup(engine.Close)

	ks, err := keystore.NewStore(keystore.NewMemoryPersistence(), keystore.AlgorithmEd25519)
	if err != nil {
		t.Fatalf("new keystore: %v", err)
	}
	if _, err := ks.Ensure(); err != nil {
		t.Fatalf("ensure key: %v", err)
	}

	replay := envelope.NewReplayCache(envelope.DefaultFreshnessWindow)
	t.Cleanup(replay.Close)

	return &App{
		Registry:   reg,
		Engine:     engine,
		KeyStore:   ks,
		EnvBuilder: envelope.NewBuilder(ks),
		Replay:     replay,
	}, reg
}

func registerFinanceAgent(t *testing.T, reg *registry.Registry, clientID, agentID string) {
	t.Helper()
	quote, err := json.Marshal(attestation.Quote{QuoteType: "synthetic", Measurements: map[string]string{"mrenclave": "x"}})
	if err != nil {
		t.Fatalf("marshal quote: %v", err)
	}
	if _, err := reg.Register(registry.RegisterRequest{
		ClientID: clientID, AgentID: agentID, Kind: registry.KindFinance,
		PublicKeyPEM: "pem", AttestationQuote: quote,
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
}

func routeOnce(t *testing.T, s *Server) string {
	t.Helper()
	body, _ := json.Marshal(map[string]interface{}{"query": "Compute Q4 ROI"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orchestration/route", bytes.NewReader(body))
	req.Header.Set(auth.ClientIDHeader, "acme")
	rec := httptest.NewRecorder()
	s.handleRoute(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("route failed: %d %s", rec.Code, rec.Body.String())
	}
	var result orchestration.RouteResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode route result: %v", err)
	}
	if len(result.RoutingID) != 8 {
		t.Fatalf("expected an 8-char routing id, got %q", result.RoutingID)
	}
	return result.RoutingID
}

// S1-style: a bare JSON response finalizes the collaboration and the active
// listing empties.
func TestHandleResponseAcceptsBareJSON(t *testing.T) {
	app, reg := newOrchestrationApp(t)
	registerFinanceAgent(t, reg, "acme", "finance-1")
	s := &Server{app: app}

	routingID := routeOnce(t, s)

	respBody, _ := json.Marshal(map[string]interface{}{
		"agent_id":   "finance-1",
		"agent_type": "finance",
		"result":     map[string]interface{}{"confidence_score": 0.9, "summary": "ROI is 14%"},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orchestration/response/"+routingID, bytes.NewReader(respBody))
	req.Header.Set(auth.ClientIDHeader, "acme")
	rec := httptest.NewRecorder()
	s.handleResponse(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result orchestration.ProcessResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode process result: %v", err)
	}
	if result.Status != "completed" || result.Synthesis == nil || len(result.Responses) != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(app.Engine.ActiveForClient("acme")) != 0 {
		t.Fatal("expected the active listing to be empty after completion")
	}
}

// An enveloped response is verified before its payload is read, and the
// acknowledgement comes back as an envelope signed by the hub.
func TestHandleResponseAcceptsSignedEnvelope(t *testing.T) {
	app, reg := newOrchestrationApp(t)
	registerFinanceAgent(t, reg, "acme", "finance-1")
	s := &Server{app: app}

	routingID := routeOnce(t, s)

	agentKS, err := keystore.NewStore(keystore.NewMemoryPersistence(), keystore.AlgorithmEd25519)
	if err != nil {
		t.Fatalf("new agent keystore: %v", err)
	}
	if _, err := agentKS.Ensure(); err != nil {
		t.Fatalf("ensure agent key: %v", err)
	}
	env, err := envelope.NewBuilder(agentKS).Build(envelope.BuildOptions{
		SenderID:    "finance-1",
		RecipientID: "hub",
		Kind:        "collaboration_response",
		Payload: map[string]interface{}{
			"agent_id":   "finance-1",
			"agent_type": "finance",
			"result":     map[string]interface{}{"confidence_score": 0.9, "summary": "ROI is 14%"},
		},
	})
	if err != nil {
		t.Fatalf("build envelope: %v", err)
	}

	body, _ := json.Marshal(env)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orchestration/response/"+routingID, bytes.NewReader(body))
	req.Header.Set(auth.ClientIDHeader, "acme")
	rec := httptest.NewRecorder()
	s.handleResponse(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var ack envelope.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &ack); err != nil {
		t.Fatalf("decode ack envelope: %v", err)
	}
	if ack.Kind != "collaboration_response_ack" || ack.SenderID != "hub" {
		t.Fatalf("unexpected ack envelope: kind=%q sender=%q", ack.Kind, ack.SenderID)
	}
	payload, err := envelope.Verify(&ack, envelope.VerifyOptions{})
	if err != nil {
		t.Fatalf("ack envelope failed verification: %v", err)
	}
	var result orchestration.ProcessResult
	if err := json.Unmarshal(payload, &result); err != nil {
		t.Fatalf("decode ack payload: %v", err)
	}
	if result.Status != "completed" {
		t.Fatalf("expected completed, got %q", result.Status)
	}
}

func TestHandleResponseRejectsTamperedEnvelope(t *testing.T) {
	app, reg := newOrchestrationApp(t)
	registerFinanceAgent(t, reg, "acme", "finance-1")
	s := &Server{app: app}

	routingID := routeOnce(t, s)

	agentKS, err := keystore.NewStore(keystore.NewMemoryPersistence(), keystore.AlgorithmEd25519)
	if err != nil {
		t.Fatalf("new agent keystore: %v", err)
	}
	if _, err := agentKS.Ensure(); err != nil {
		t.Fatalf("ensure agent key: %v", err)
	}
	env, err := envelope.NewBuilder(agentKS).Build(envelope.BuildOptions{
		SenderID:    "finance-1",
		RecipientID: "hub",
		Kind:        "collaboration_response",
		Payload:     map[string]interface{}{"result": map[string]interface{}{"confidence_score": 0.9}},
	})
	if err != nil {
		t.Fatalf("build envelope: %v", err)
	}
	env.Payload = map[string]interface{}{"result": map[string]interface{}{"confidence_score": 0.1}}

	body, _ := json.Marshal(env)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orchestration/response/"+routingID, bytes.NewReader(body))
	req.Header.Set(auth.ClientIDHeader, "acme")
	rec := httptest.NewRecorder()
	s.handleResponse(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a tampered envelope, got %d", rec.Code)
	}
	if len(app.Engine.ActiveForClient("acme")) != 1 {
		t.Fatal("a rejected envelope must not consume the collaboration")
	}
}

func TestHandleResponseUnknownRoutingID(t *testing.T) {
	app, _ := newOrchestrationApp(t)
	s := &Server{app: app}

	body, _ := json.Marshal(map[string]interface{}{"agent_id": "finance-1", "result": map[string]interface{}{}})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orchestration/response/deadbeef", bytes.NewReader(body))
	req.Header.Set(auth.ClientIDHeader, "acme")
	rec := httptest.NewRecorder()
	s.handleResponse(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an unknown routing id, got %d", rec.Code)
	}
}
