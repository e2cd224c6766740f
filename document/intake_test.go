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
	"errors"
	"testing"
)

type failingExtractor struct{}

func (failingExtractor) Extract(ctx context.Context, data []byte, filename string) (string, error) {
	return "", errors.New("boom")
}

func newTestIntake(t *testing.T, extractor TextExtractor, categorizer Categorizer) *Intake {
	t.Helper()
	in, err := NewIntake(NewMemoryStore(), extractor, categorizer, t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewIntake: %v", err)
	}
	return in
}

func TestUploadSucceedsAndCategorizes(t *testing.T) {
	in := newTestIntake(t, NewPlainTextExtractor(), NewMockCategorizer())

	doc, err := in.Upload(context.Background(), UploadRequest{
		ClientID: "acme",
		Filename: "q1-revenue.txt",
		Data:     []byte("quarterly revenue and budget summary"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Status != StatusCompleted {
		t.Fatalf("expected completed status, got %s", doc.Status)
	}
	if doc.Categorization == nil || doc.Categorization.Department != "finance" {
		t.Fatalf("expected finance categorization, got %+v", doc.Categorization)
	}
}

func TestUploadRejectsMissingClientID(t *testing.T) {
	in := newTestIntake(t, NewPlainTextExtractor(), NewMockCategorizer())

	_, err := in.Upload(context.Background(), UploadRequest{Filename: "x.txt", Data: []byte("hi")})
	if err == nil {
		t.Fatal("expected an error for missing client id")
	}
}

func TestUploadExtractionFailureYieldsFailedRecord(t *testing.T) {
	in := newTestIntake(t, failingExtractor{}, NewMockCategorizer())

	doc, err := in.Upload(context.Background(), UploadRequest{
		ClientID: "acme",
		Filename: "x.txt",
		Data:     []byte("hi"),
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	if doc.Status != StatusFailed {
		t.Fatalf("expected failed status, got %s", doc.Status)
	}
	if doc.Categorization != nil {
		t.Fatal("a failed record must never carry a categorization")
	}

	stored, ok, getErr := in.Get(context.Background(), "acme", doc.ID)
	if getErr != nil || !ok {
		t.Fatalf("expected the failed record to still be queryable, ok=%v err=%v", ok, getErr)
	}
	if stored.Status != StatusFailed {
		t.Fatalf("expected stored record to be failed, got %s", stored.Status)
	}
}

func TestGetByIDIgnoresClientScope(t *testing.T) {
	in := newTestIntake(t, NewPlainTextExtractor(), NewMockCategorizer())

	doc, err := in.Upload(context.Background(), UploadRequest{
		ClientID: "acme",
		Filename: "pipeline.txt",
		Data:     []byte("lead pipeline and quota review"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok, getErr := in.Get(context.Background(), "other-client", doc.ID); getErr != nil || ok {
		t.Fatalf("client-scoped Get must not leak across clients, ok=%v err=%v", ok, getErr)
	}

	found, ok, getErr := in.GetByID(context.Background(), doc.ID)
	if getErr != nil || !ok {
		t.Fatalf("GetByID must find the document regardless of client, ok=%v err=%v", ok, getErr)
	}
	if found.ClientID != "acme" {
		t.Fatalf("expected owning client acme, got %s", found.ClientID)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	in := newTestIntake(t, NewPlainTextExtractor(), NewMockCategorizer())

	_, ok, err := in.GetByID(context.Background(), "does-not-exist")
	if err != nil || ok {
		t.Fatalf("expected not-found, ok=%v err=%v", ok, err)
	}
}
