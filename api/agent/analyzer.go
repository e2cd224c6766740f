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
	"context"
	"fmt"
)

// AnalysisResult is a Domain Analyzer's verdict over one data package, the
// shape every substitutable analyzer must return.
type AnalysisResult struct {
	Summary          string                 `json:"summary"`
	DetailedResults  map[string]interface{} `json:"detailed_results,omitempty"`
	KeyInsights      []string               `json:"key_insights"`
	ConfidenceScore  float64                `json:"confidence_score"`
	Recommendations  []string               `json:"recommendations,omitempty"`
}

// DomainAnalyzer is the black-box collaborator behind POST /process: any
// implementation satisfying (data package, query) -> AnalysisResult is
// substitutable, independent of the agent's kind (finance, marketing, ...).
type DomainAnalyzer interface {
	Analyze(ctx context.Context, query string, dataPackage map[string]interface{}) (AnalysisResult, error)
}

// MockAnalyzer is the development-mode analyzer selected when
// MOCK_LLM_PROCESSING=true: it returns a deterministic canned result keyed
// off the agent's kind, so end-to-end flows work without model loading.
type MockAnalyzer struct {
	Kind string
}

// NewMockAnalyzer constructs a MockAnalyzer for the given agent kind.
func NewMockAnalyzer(kind string) *MockAnalyzer {
	return &MockAnalyzer{Kind: kind}
}

// Analyze implements DomainAnalyzer.
func (m *MockAnalyzer) Analyze(ctx context.Context, query string, dataPackage map[string]interface{}) (AnalysisResult, error) {
	return AnalysisResult{
		Summary:         fmt.Sprintf("[mock %s analysis] %s", m.Kind, query),
		DetailedResults: map[string]interface{}{"data_points_considered": len(dataPackage)},
		KeyInsights:     []string{fmt.Sprintf("%s analysis completed in development mode", m.Kind)},
		ConfidenceScore: 0.75,
		Recommendations: []string{"re-run with MOCK_LLM_PROCESSING=false against a real model for production use"},
	}, nil
}
