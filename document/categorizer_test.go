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
	"testing"
)

func TestMockCategorizerMatchesDepartment(t *testing.T) {
	c := NewMockCategorizer()

	cat, err := c.Categorize(context.Background(), "this quarter's revenue and expense breakdown", "report.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cat.Department != "finance" {
		t.Fatalf("expected finance, got %s", cat.Department)
	}
	if cat.Confidence <= 0 {
		t.Fatal("expected a positive confidence score")
	}
}

func TestMockCategorizerFallsBackToGeneral(t *testing.T) {
	c := NewMockCategorizer()

	cat, err := c.Categorize(context.Background(), "the quick brown fox", "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cat.Department != "general" || cat.DocumentType != "uncategorized" {
		t.Fatalf("expected general/uncategorized fallback, got %+v", cat)
	}
}

func TestPlainTextExtractorRejectsInvalidUTF8(t *testing.T) {
	e := NewPlainTextExtractor()

	text, err := e.Extract(context.Background(), []byte{0xff, 0xfe, 0xfd}, "bin.dat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "" {
		t.Fatalf("expected empty text for invalid utf8, got %q", text)
	}
}
