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

package document

import (
	"context"
	"strings"
)

// categorizerKeywords groups keyword -> department/document-type, checked
// in priority order. This mirrors router.KeywordPolicy's deterministic
// keyword-matching approach, applied to document categorization instead of
// agent selection.
var categorizerKeywords = []struct {
	department   string
	documentType string
	keywords     []string
}{
	{"finance", "financial_report", []string{"revenue", "budget", "expense", "profit", "invoice", "roi"}},
	{"marketing", "campaign_report", []string{"campaign", "brand", "advertis", "impression", "engagement"}},
	{"sales", "sales_report", []string{"pipeline", "quota", "lead", "deal", "customer"}},
}

// MockCategorizer is the development-mode Categorizer: a deterministic
// keyword classifier selected under MOCK_LLM_PROCESSING. A production
// deployment substitutes a model-backed Categorizer behind the same
// interface without touching Intake.
type MockCategorizer struct{}

// NewMockCategorizer constructs the development-mode Categorizer.
func NewMockCategorizer() *MockCategorizer {
	return &MockCategorizer{}
}

// Categorize implements Categorizer.
func (MockCategorizer) Categorize(ctx context.Context, text, filename string) (Categorization, error) {
	lower := strings.ToLower(text + " " + filename)

	for _, group := range categorizerKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				return Categorization{
					Department:   group.department,
					DocumentType: group.documentType,
					KeyTerms:     matchedKeywords(lower, group.keywords),
					Summary:      summarize(text),
					Confidence:   0.75,
				}, nil
			}
		}
	}

	return Categorization{
		Department:   "general",
		DocumentType: "uncategorized",
		KeyTerms:     nil,
		Summary:      summarize(text),
		Confidence:   0.3,
	}, nil
}

func matchedKeywords(lower string, keywords []string) []string {
	var out []string
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			out = append(out, kw)
		}
	}
	return out
}

func summarize(text string) string {
	const maxLen = 160
	text = strings.TrimSpace(text)
	if text == "" {
		return "no extractable text"
	}
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen] + "…"
}
