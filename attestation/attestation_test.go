package attestation

import (
	"encoding/json"
	"testing"
)

func mustQuote(t *testing.T, q Quote) []byte {
	t.Helper()
	b, err := json.Marshal(q)
	if err != nil {
		t.Fatalf("marshal quote: %v", err)
	}
	return b
}

func TestDevelopmentPolicyAcceptsAnyValidQuote(t *testing.T) {
	p := NewDevelopmentPolicy()
	quote := mustQuote(t, Quote{QuoteType: "synthetic", Measurements: map[string]string{"mrenclave": "abc"}})

	res := p.Verify(quote)
	if !res.OK {
		t.Fatalf("expected development policy to accept, got reason %q", res.Reason)
	}
	if res.Measurements["mrenclave"] != "abc" {
		t.Fatalf("expected measurements to be returned verbatim, got %v", res.Measurements)
	}
}

func TestDevelopmentPolicyRejectsMalformedQuote(t *testing.T) {
	p := NewDevelopmentPolicy()
	res := p.Verify([]byte("not json"))
	if res.OK {
		t.Fatal("expected malformed quote to be rejected")
	}
	if res.Reason == "" {
		t.Fatal("expected a rejection reason")
	}
}

func TestAllowlistPolicyAcceptsMatchingMeasurements(t *testing.T) {
	p := NewAllowlistPolicy(map[string]string{"mrenclave": "abc"})
	quote := mustQuote(t, Quote{QuoteType: "sgx", Measurements: map[string]string{"mrenclave": "abc", "extra": "ignored-key-not-required"}})

	res := p.Verify(quote)
	if !res.OK {
		t.Fatalf("expected matching measurement to be accepted, got reason %q", res.Reason)
	}
}

func TestAllowlistPolicyRejectsMismatch(t *testing.T) {
	p := NewAllowlistPolicy(map[string]string{"mrenclave": "abc"})
	quote := mustQuote(t, Quote{QuoteType: "sgx", Measurements: map[string]string{"mrenclave": "zzz"}})

	res := p.Verify(quote)
	if res.OK {
		t.Fatal("expected mismatched measurement to be rejected")
	}
}

func TestAllowlistPolicyRejectsMissingField(t *testing.T) {
	p := NewAllowlistPolicy(map[string]string{"mrenclave": "abc"})
	quote := mustQuote(t, Quote{QuoteType: "sgx", Measurements: map[string]string{}})

	res := p.Verify(quote)
	if res.OK {
		t.Fatal("expected missing measurement field to be rejected")
	}
}

func TestVerifierForSelectsPolicyByDevelopmentMode(t *testing.T) {
	if _, ok := VerifierFor(true, nil).(*DevelopmentPolicy); !ok {
		t.Fatal("expected development mode to select DevelopmentPolicy")
	}
	if _, ok := VerifierFor(false, nil).(*AllowlistPolicy); !ok {
		t.Fatal("expected production mode to select AllowlistPolicy")
	}
}
