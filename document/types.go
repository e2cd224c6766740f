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

// Package document accepts uploaded files, extracts text, categorizes them
// through an external collaborator, and maintains a client-scoped catalog.
// The only invariant this package owns is atomicity at the catalog: a
// document becomes queryable only once categorization has succeeded.
package document

import (
	"context"
	"time"
)

// Status is a Document's lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Categorization is the Categorizer's output, folded into a Document once
// intake succeeds.
type Categorization struct {
	Department   string   `json:"department"`
	DocumentType string   `json:"document_type"`
	KeyTerms     []string `json:"key_terms"`
	TimePeriod   string   `json:"time_period,omitempty"`
	Summary      string   `json:"summary"`
	Confidence   float64  `json:"confidence"`
}

// Document is the catalog record for one uploaded file.
type Document struct {
	ID              string          `json:"id"`
	UploadID        string          `json:"upload_id"`
	Filename        string          `json:"filename"`
	FileKind        string          `json:"file_kind"`
	ByteSize        int64           `json:"byte_size"`
	Status          Status          `json:"status"`
	UploadedAt      time.Time       `json:"uploaded_at"`
	ProcessedAt     time.Time       `json:"processed_at,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	Categorization  *Categorization `json:"categorization,omitempty"`
	SHA256          string          `json:"sha256"`
	StoragePath     string          `json:"storage_path"`
	ClientID        string          `json:"client_id"`
	FailureReason   string          `json:"failure_reason,omitempty"`
}

// Filter narrows a catalog listing.
type Filter struct {
	Department   string
	DocumentType string
	DateFrom     time.Time
	DateTo       time.Time
}

// TextExtractor pulls plain text out of a raw byte blob. It must never
// panic into Intake; extraction failure returns an empty string.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, filename string) (string, error)
}

// Categorizer classifies extracted text into a Categorization.
type Categorizer interface {
	Categorize(ctx context.Context, text, filename string) (Categorization, error)
}

// Store is the catalog's persistence boundary: an in-memory implementation
// is always available; a postgres-backed one is wired in when
// Storage.PostgresDSN (env POSTGRES_DSN) is non-empty.
type Store interface {
	Upsert(ctx context.Context, doc *Document) error
	Get(ctx context.Context, clientID, id string) (*Document, bool, error)
	// GetByID looks a document up by id alone, regardless of owning client.
	// The HTTP boundary uses this to distinguish "absent" (404) from
	// "belongs to a different client" (403); every other caller must use
	// the client-scoped Get.
	GetByID(ctx context.Context, id string) (*Document, bool, error)
	List(ctx context.Context, clientID string, f Filter) ([]*Document, error)
	Close() error
}
