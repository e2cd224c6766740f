package router

import (
	"testing"

	"github.com/sage-x-project/sage-hub/registry"
)

func agents(kinds ...registry.Kind) []*registry.Record {
	out := make([]*registry.Record, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, &registry.Record{AgentID: string(k), Kind: k, Status: registry.StatusVerified})
	}
	return out
}

func TestKeywordPolicySelectsFinance(t *testing.T) {
	p := NewKeywordPolicy()
	sel := p.Select("Compute Q4 ROI for the company", agents(registry.KindFinance, registry.KindMarketing))
	if sel.Kind != registry.KindFinance {
		t.Fatalf("expected finance, got %s", sel.Kind)
	}
}

func TestKeywordPolicySelectsMarketing(t *testing.T) {
	p := NewKeywordPolicy()
	sel := p.Select("How did our latest marketing campaign perform?", agents(registry.KindFinance, registry.KindMarketing))
	if sel.Kind != registry.KindMarketing {
		t.Fatalf("expected marketing, got %s", sel.Kind)
	}
}

func TestKeywordPolicyFallsBackWhenPreferredAbsent(t *testing.T) {
	p := NewKeywordPolicy()
	sel := p.Select("What is our sales pipeline look like", agents(registry.KindFinance))
	if sel.Kind != registry.KindFinance {
		t.Fatalf("expected fallback to first available agent, got %s", sel.Kind)
	}
	if sel.Reasoning == "" {
		t.Fatal("expected substitution to be recorded in reasoning")
	}
}

func TestKeywordPolicyDefaultsToFirstWhenNoKeywordMatches(t *testing.T) {
	p := NewKeywordPolicy()
	sel := p.Select("tell me a joke", agents(registry.KindMarketing))
	if sel.Kind != registry.KindMarketing {
		t.Fatalf("expected default to first available, got %s", sel.Kind)
	}
}
