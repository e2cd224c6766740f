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

package orchestration

import "fmt"

// Synthesizer combines every response collected for a routing id into one
// final verdict. It is an external collaborator: any implementation
// satisfying this interface is substitutable, including a real LLM-backed
// one running out of process.
type Synthesizer interface {
	Synthesize(responses []Response) Synthesis
}

// MockSynthesizer returns a deterministic, canned synthesis, used when
// MOCK_LLM_PROCESSING is enabled or in tests, instead of calling out to a
// model.
type MockSynthesizer struct{}

// NewMockSynthesizer constructs the development-mode Synthesizer.
func NewMockSynthesizer() *MockSynthesizer {
	return &MockSynthesizer{}
}

// Synthesize implements Synthesizer.
func (MockSynthesizer) Synthesize(responses []Response) Synthesis {
	if len(responses) == 0 {
		return Synthesis{ExecutiveSummary: "no responses collected"}
	}

	var sum float64
	agreement := make([]string, 0, len(responses))
	for _, r := range responses {
		sum += r.ConfidenceScore()
		if summary, ok := r.Result["summary"].(string); ok && summary != "" {
			agreement = append(agreement, fmt.Sprintf("%s: %s", r.AgentID, summary))
		}
	}
	avg := sum / float64(len(responses))

	var disagreement []string
	if len(responses) > 1 {
		first := responses[0].ConfidenceScore()
		for _, r := range responses[1:] {
			if diff := r.ConfidenceScore() - first; diff > 0.3 || diff < -0.3 {
				disagreement = append(disagreement, fmt.Sprintf("confidence diverges between %s and %s", responses[0].AgentID, r.AgentID))
			}
		}
	}

	return Synthesis{
		ExecutiveSummary:    fmt.Sprintf("synthesized %d response(s) with average confidence %.2f", len(responses), avg),
		Recommendations:     []string{"review agent findings before acting on low-confidence results"},
		ConfidenceScore:     avg,
		AreasOfAgreement:    agreement,
		AreasOfDisagreement: disagreement,
	}
}
