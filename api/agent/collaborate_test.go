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

package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sage-x-project/sage-hub/envelope"
	"github.com/sage-x-project/sage-hub/handlers"
	"github.com/sage-x-project/sage-hub/keystore"
)

func newTestAgentApp(t *testing.T) *App {
	t.Helper()
	ks, err := keystore.NewStore(keystore.NewMemoryPersistence(), keystore.AlgorithmEd25519)
	if err != nil {
		t.Fatalf("new keystore: %v", err)
	}
	if _, err := ks.Ensure(); err != nil {
		t.Fatalf("ensure key: %v", err)
	}

	analyzer := NewMockAnalyzer("finance")
	dispatcher := handlers.NewRegistry()
	dispatcher.Register("analysis_request", func(payload map[string]interface{}) (interface{}, error) {
		query, _ := payload["query"].(string)
		return analyzer.Analyze(context.Background(), query, nil)
	})

	replay := envelope.NewReplayCache(envelope.DefaultFreshnessWindow)
	t.Cleanup(replay.Close)

	return &App{
		AgentID:    "finance-1",
		Kind:       "finance",
		KeyStore:   ks,
		EnvBuilder: envelope.NewBuilder(ks),
		Replay:     replay,
		Dispatcher: dispatcher,
		Analyzer:   analyzer,
		StartedAt:  time.Now().UTC(),
	}
}

func newPeerBuilder(t *testing.T) *envelope.Builder {
	t.Helper()
	ks, err := keystore.NewStore(keystore.NewMemoryPersistence(), keystore.AlgorithmEd25519)
	if err != nil {
		t.Fatalf("new peer keystore: %v", err)
	}
	if _, err := ks.Ensure(); err != nil {
		t.Fatalf("ensure peer key: %v", err)
	}
	return envelope.NewBuilder(ks)
}

func postEnvelope(t *testing.T, s *Server, env *envelope.Envelope) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/collaborate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handleCollaborate(rec, req)
	return rec
}

func TestCollaborateRoundTrip(t *testing.T) {
	app := newTestAgentApp(t)
	s := &Server{app: app}

	env, err := newPeerBuilder(t).Build(envelope.BuildOptions{
		SenderID:    "hub",
		RecipientID: "finance-1",
		Kind:        "analysis_request",
		Payload:     map[string]interface{}{"query": "compute ROI"},
	})
	if err != nil {
		t.Fatalf("build envelope: %v", err)
	}

	rec := postEnvelope(t, s, env)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var reply envelope.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &reply); err != nil {
		t.Fatalf("decode reply envelope: %v", err)
	}
	if reply.Kind != "analysis_request_response" {
		t.Fatalf("expected analysis_request_response reply, got %q", reply.Kind)
	}
	if reply.SenderID != "finance-1" || reply.RecipientID != "hub" {
		t.Fatalf("reply addressed %s -> %s, want finance-1 -> hub", reply.SenderID, reply.RecipientID)
	}

	payload, err := envelope.Verify(&reply, envelope.VerifyOptions{})
	if err != nil {
		t.Fatalf("reply envelope failed verification: %v", err)
	}
	var result AnalysisResult
	if err := json.Unmarshal(payload, &result); err != nil {
		t.Fatalf("decode analysis result: %v", err)
	}
	if result.ConfidenceScore == 0 {
		t.Fatal("expected a non-zero confidence score from the analyzer")
	}
}

// A tampered envelope is consumed at the boundary: the agent answers with a
// signed "error" envelope naming the stable error kind, never a raw error.
func TestCollaborateAnswersTamperWithSignedErrorEnvelope(t *testing.T) {
	app := newTestAgentApp(t)
	s := &Server{app: app}

	env, err := newPeerBuilder(t).Build(envelope.BuildOptions{
		SenderID:    "hub",
		RecipientID: "finance-1",
		Kind:        "analysis_request",
		Payload:     map[string]interface{}{"query": "compute ROI"},
	})
	if err != nil {
		t.Fatalf("build envelope: %v", err)
	}
	env.Payload = map[string]interface{}{"query": "tampered"}

	rec := postEnvelope(t, s, env)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var reply envelope.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &reply); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if reply.Kind != "error" {
		t.Fatalf("expected an error envelope, got kind %q", reply.Kind)
	}
	payload, err := envelope.Verify(&reply, envelope.VerifyOptions{})
	if err != nil {
		t.Fatalf("error envelope failed verification: %v", err)
	}
	var body map[string]string
	if err := json.Unmarshal(payload, &body); err != nil {
		t.Fatalf("decode error payload: %v", err)
	}
	if body["error"] != "envelope_signature_invalid" {
		t.Fatalf("expected envelope_signature_invalid, got %q", body["error"])
	}
}

func TestCollaborateRejectsReplayedEnvelope(t *testing.T) {
	app := newTestAgentApp(t)
	s := &Server{app: app}

	env, err := newPeerBuilder(t).Build(envelope.BuildOptions{
		SenderID:    "hub",
		RecipientID: "finance-1",
		Kind:        "analysis_request",
		Payload:     map[string]interface{}{"query": "compute ROI"},
	})
	if err != nil {
		t.Fatalf("build envelope: %v", err)
	}

	if rec := postEnvelope(t, s, env); rec.Code != http.StatusOK {
		t.Fatalf("first delivery should succeed, got %d", rec.Code)
	}
	rec := postEnvelope(t, s, env)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on replay, got %d", rec.Code)
	}

	var reply envelope.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &reply); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	payload, err := envelope.Verify(&reply, envelope.VerifyOptions{})
	if err != nil {
		t.Fatalf("error envelope failed verification: %v", err)
	}
	var body map[string]string
	if err := json.Unmarshal(payload, &body); err != nil {
		t.Fatalf("decode error payload: %v", err)
	}
	if body["error"] != "envelope_replay" {
		t.Fatalf("expected envelope_replay, got %q", body["error"])
	}
}

func TestProcessFallsBackToGeneralHandler(t *testing.T) {
	app := newTestAgentApp(t)
	app.Dispatcher.Register("general", func(payload map[string]interface{}) (interface{}, error) {
		query, _ := payload["query"].(string)
		return app.Analyzer.Analyze(context.Background(), query, nil)
	})
	s := &Server{app: app}

	body, _ := json.Marshal(map[string]interface{}{"type": "never_registered", "query": "anything"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/process", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handleProcess(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected the general fallback to answer, got %d: %s", rec.Code, rec.Body.String())
	}
}
