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
	"unicode/utf8"
)

// PlainTextExtractor is the default TextExtractor: it treats the blob as
// text verbatim when it looks like valid UTF-8, and otherwise returns an
// empty string rather than failing intake. Concrete file-format extraction
// (PDF, DOCX, …) is named as an external collaborator in the coordination
// fabric's interfaces and is out of scope for the core substrate; a
// deployment wires a format-aware extractor here without touching Intake.
type PlainTextExtractor struct{}

// NewPlainTextExtractor constructs the default TextExtractor.
func NewPlainTextExtractor() *PlainTextExtractor {
	return &PlainTextExtractor{}
}

// Extract implements TextExtractor. It never returns an error: extraction
// failure degrades to an empty string, per the external-interface contract.
func (PlainTextExtractor) Extract(ctx context.Context, data []byte, filename string) (string, error) {
	if !utf8.Valid(data) {
		return "", nil
	}
	text := strings.TrimSpace(string(data))
	return text, nil
}
