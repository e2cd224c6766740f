package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPSenderSendSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	s := NewHTTPSender(map[string]string{"finance": srv.URL}, time.Second)
	reply, err := s.Send(context.Background(), "finance", map[string]string{"query": "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var out map[string]bool
	if err := json.Unmarshal(reply, &out); err != nil {
		t.Fatalf("unmarshal reply: %v", err)
	}
	if !out["ok"] {
		t.Fatal("expected ok=true in reply")
	}
}

func TestHTTPSenderNotConfigured(t *testing.T) {
	s := NewHTTPSender(map[string]string{}, time.Second)
	_, err := s.Send(context.Background(), "finance", nil)
	if err == nil {
		t.Fatal("expected error for unconfigured kind")
	}
}

func TestHTTPSenderHTTPStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	s := NewHTTPSender(map[string]string{"finance": srv.URL}, time.Second)
	_, err := s.Send(context.Background(), "finance", nil)
	if err == nil {
		t.Fatal("expected an error for non-2xx status")
	}
}

func TestHTTPSenderTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewHTTPSender(map[string]string{"finance": srv.URL}, 5*time.Millisecond)
	_, err := s.Send(context.Background(), "finance", nil)
	if err == nil {
		t.Fatal("expected a timeout error")
	}
}

func TestHTTPSenderBroadcastCollectsPerPeerResults(t *testing.T) {
	okSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer okSrv.Close()

	s := NewHTTPSender(map[string]string{
		"finance":   okSrv.URL,
		"marketing": "http://127.0.0.1:1", // unreachable
	}, 200*time.Millisecond)

	results := s.Broadcast(context.Background(), map[string]string{"x": "y"})
	if results["finance"].Err != nil {
		t.Fatalf("expected finance peer to succeed, got %v", results["finance"].Err)
	}
	if results["marketing"].Err == nil {
		t.Fatal("expected marketing peer to fail")
	}
}

func TestMockSenderReturnsRegisteredResponse(t *testing.T) {
	m := NewMockSender()
	m.Responses["finance"] = []byte(`{"confidence_score":0.9}`)

	reply, err := m.Send(context.Background(), "finance", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(reply) != `{"confidence_score":0.9}` {
		t.Fatalf("unexpected reply: %s", reply)
	}
	if len(m.Calls) != 1 || m.Calls[0].Kind != "finance" {
		t.Fatalf("expected call to be recorded, got %+v", m.Calls)
	}
}
