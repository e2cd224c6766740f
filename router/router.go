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

// Package router chooses a target agent kind for a query. The default
// policy is a deterministic keyword matcher; implementers may substitute a
// learned policy behind the same Policy interface.
package router

import (
	"strings"

	"github.com/sage-x-project/sage-hub/registry"
)

// Priority is the urgency the policy assigns to a routed request.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Selection is a Policy's routing decision.
type Selection struct {
	Kind             registry.Kind
	Reasoning        string
	Priority         Priority
	EstimatedMinutes int
	Confidence       float64
}

// Policy chooses a target agent kind from a query and the currently
// verified agent set. It is deterministic given its inputs.
type Policy interface {
	Select(query string, verified []*registry.Record) Selection
}

// keyword groups of terms that signal a preferred agent kind, checked in a
// fixed priority order (finance, marketing, sales).
var keywordGroups = []struct {
	kind     registry.Kind
	keywords []string
}{
	{registry.KindFinance, []string{"revenue", "roi", "profit", "cost", "budget", "expense", "financial", "finance", "investment"}},
	{registry.KindMarketing, []string{"campaign", "marketing", "brand", "advertis", "impression", "engagement", "audience"}},
	{registry.KindSales, []string{"sales", "pipeline", "lead", "quota", "deal", "customer acquisition"}},
}

// KeywordPolicy is the default Policy: keyword-driven selection with a
// deterministic first-available fallback when the preferred kind is absent
// from the verified set.
type KeywordPolicy struct{}

// NewKeywordPolicy constructs the default keyword-driven Policy.
func NewKeywordPolicy() *KeywordPolicy {
	return &KeywordPolicy{}
}

// Select implements Policy.
func (KeywordPolicy) Select(query string, verified []*registry.Record) Selection {
	lower := strings.ToLower(query)

	var preferred registry.Kind
	var matched bool
	for _, group := range keywordGroups {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				preferred = group.kind
				matched = true
				break
			}
		}
		if matched {
			break
		}
	}

	if !matched {
		if len(verified) == 0 {
			return Selection{Reasoning: "no keyword match and no agents available", Priority: PriorityLow, Confidence: 0}
		}
		return Selection{
			Kind:             verified[0].Kind,
			Reasoning:        "no keyword match; defaulted to first available agent",
			Priority:         PriorityLow,
			EstimatedMinutes: 10,
			Confidence:       0.4,
		}
	}

	for _, rec := range verified {
		if rec.Kind == preferred {
			return Selection{
				Kind:             preferred,
				Reasoning:        "matched keyword for " + string(preferred),
				Priority:         PriorityMedium,
				EstimatedMinutes: 5,
				Confidence:       0.85,
			}
		}
	}

	if len(verified) == 0 {
		return Selection{
			Kind:      preferred,
			Reasoning: "matched keyword for " + string(preferred) + " but no agents are available",
			Priority:  PriorityLow,
		}
	}
	return Selection{
		Kind:             verified[0].Kind,
		Reasoning:        "preferred " + string(preferred) + " not present in verified set; substituted first available agent",
		Priority:         PriorityMedium,
		EstimatedMinutes: 10,
		Confidence:       0.5,
	}
}
