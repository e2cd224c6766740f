package registry

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/sage-x-project/sage-hub/attestation"
)

func quote(t *testing.T) []byte {
	t.Helper()
	b, err := json.Marshal(attestation.Quote{QuoteType: "synthetic", Measurements: map[string]string{"mrenclave": "x"}})
	if err != nil {
		t.Fatalf("marshal quote: %v", err)
	}
	return b
}

func newTestRegistry() *Registry {
	return New(attestation.NewDevelopmentPolicy(), time.Hour, nil)
}

func TestRegisterAdmitsVerifiedAgent(t *testing.T) {
	r := newTestRegistry()
	defer r.Close()

	rec, err := r.Register(RegisterRequest{
		ClientID:         "acme",
		AgentID:          "finance-1",
		Kind:             KindFinance,
		PublicKeyPEM:     "pem",
		AttestationQuote: quote(t),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Status != StatusVerified {
		t.Fatalf("expected verified status, got %s", rec.Status)
	}
}

func TestRegisterRejectsMissingAttestation(t *testing.T) {
	r := newTestRegistry()
	defer r.Close()

	_, err := r.Register(RegisterRequest{ClientID: "acme", AgentID: "finance-1", PublicKeyPEM: "pem"})
	if err == nil {
		t.Fatal("expected an error for missing attestation quote")
	}
}

func TestClientIsolation(t *testing.T) {
	r := newTestRegistry()
	defer r.Close()

	if _, err := r.Register(RegisterRequest{
		ClientID: "A", AgentID: "finance-1", Kind: KindFinance,
		PublicKeyPEM: "pem", AttestationQuote: quote(t),
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, ok := r.Get("B", "finance-1"); ok {
		t.Fatal("expected cross-client lookup to return not-found")
	}
	if _, ok := r.Get("A", "finance-1"); !ok {
		t.Fatal("expected same-client lookup to succeed")
	}
}

func TestUpdateHeartbeatIsIdempotentAndScoped(t *testing.T) {
	r := newTestRegistry()
	defer r.Close()

	if _, err := r.Register(RegisterRequest{
		ClientID: "A", AgentID: "finance-1", Kind: KindFinance,
		PublicKeyPEM: "pem", AttestationQuote: quote(t),
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if r.UpdateHeartbeat("B", "finance-1") {
		t.Fatal("expected heartbeat under wrong client to be a no-op")
	}
	for i := 0; i < 3; i++ {
		if !r.UpdateHeartbeat("A", "finance-1") {
			t.Fatal("expected heartbeat to refresh existing record")
		}
	}
	rec, _ := r.Get("A", "finance-1")
	if time.Since(rec.LastSeen) > time.Second {
		t.Fatal("expected last-seen to reflect the most recent heartbeat")
	}
}

func TestSweepTransitionsInactiveAgents(t *testing.T) {
	r := newTestRegistry()
	defer r.Close()

	if _, err := r.Register(RegisterRequest{
		ClientID: "A", AgentID: "x", Kind: KindFinance,
		PublicKeyPEM: "pem", AttestationQuote: quote(t),
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	r.mu.Lock()
	r.clients["A"]["x"].LastSeen = time.Now().Add(-16 * time.Minute)
	r.mu.Unlock()

	buckets := r.Sweep()
	if len(buckets["A"].Inactive) != 1 {
		t.Fatalf("expected agent to land in inactive bucket, got %+v", buckets["A"])
	}
	rec, _ := r.Get("A", "x")
	if rec.Status != StatusInactive {
		t.Fatalf("expected status inactive, got %s", rec.Status)
	}

	entries := r.Directory("A", "")
	if len(entries) != 1 || entries[0].Online {
		t.Fatalf("expected directory entry to report offline")
	}
}

func TestByCapabilityFiltersVerifiedAgents(t *testing.T) {
	r := newTestRegistry()
	defer r.Close()

	if _, err := r.Register(RegisterRequest{
		ClientID: "A", AgentID: "fin", Kind: KindFinance,
		Capabilities: []string{"roi_calculation"}, PublicKeyPEM: "pem", AttestationQuote: quote(t),
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	found := r.ByCapability("A", "roi_calculation")
	if len(found) != 1 {
		t.Fatalf("expected one match, got %d", len(found))
	}
	if len(r.ByCapability("A", "nonexistent")) != 0 {
		t.Fatal("expected no matches for unknown capability")
	}
}
