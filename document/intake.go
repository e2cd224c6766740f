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
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/sage-x-project/sage-hub/internal/logger"
	"github.com/sage-x-project/sage-hub/internal/metrics"
)

// Intake accepts uploaded documents at the system boundary: it writes a
// raw blob under uploads/, computes its SHA-256, invokes the external
// TextExtractor and Categorizer, and upserts the resulting record into the
// catalog. The only invariant it owns is atomicity at the catalog: a
// document becomes queryable only once categorization has succeeded.
type Intake struct {
	store      Store
	extractor  TextExtractor
	categorizer Categorizer
	uploadsDir  string
	processedDir string
	metrics    *metrics.Collector
}

// NewIntake wires an Intake to its collaborators and the data-root
// directories (uploads/ for raw blobs, processed/ for categorization JSON).
func NewIntake(store Store, extractor TextExtractor, categorizer Categorizer, dataRoot string, collector *metrics.Collector) (*Intake, error) {
	uploadsDir := filepath.Join(dataRoot, "uploads")
	processedDir := filepath.Join(dataRoot, "processed")
	if err := os.MkdirAll(uploadsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	if err := os.MkdirAll(processedDir, 0o755); err != nil {
		return nil, fmt.Errorf("create processed dir: %w", err)
	}
	if collector == nil {
		collector = metrics.GetGlobalCollector()
	}
	return &Intake{
		store:        store,
		extractor:    extractor,
		categorizer:  categorizer,
		uploadsDir:   uploadsDir,
		processedDir: processedDir,
		metrics:      collector,
	}, nil
}

// UploadRequest is the input to Upload.
type UploadRequest struct {
	ClientID string
	Filename string
	Data     []byte
	Metadata map[string]string
}

// Upload implements the intake operation. A failure during extraction or
// categorization leaves a failed record (or, if the blob could not even be
// written, no record at all) — never a completed record missing its
// categorization.
func (in *Intake) Upload(ctx context.Context, req UploadRequest) (*Document, error) {
	if req.ClientID == "" {
		return nil, logger.NewHubError(logger.ErrClientIDMissing, "client id is required", nil)
	}
	if len(req.Data) == 0 {
		return nil, logger.NewHubError(logger.ErrBadRequest, "empty file", nil)
	}

	docID := uuid.NewString()
	uploadID := uuid.NewString()
	sum := sha256.Sum256(req.Data)
	sha := hex.EncodeToString(sum[:])
	now := time.Now().UTC()

	storagePath := filepath.Join(in.uploadsDir, req.ClientID+"_"+docID+"_"+safeName(req.Filename))
	if err := os.WriteFile(storagePath, req.Data, 0o644); err != nil {
		in.metrics.RecordDocument(false)
		return nil, logger.NewHubError(logger.ErrInternal, "failed to persist uploaded blob", err)
	}

	doc := &Document{
		ID:          docID,
		UploadID:    uploadID,
		Filename:    req.Filename,
		FileKind:    filepath.Ext(req.Filename),
		ByteSize:    int64(len(req.Data)),
		Status:      StatusProcessing,
		UploadedAt:  now,
		Metadata:    req.Metadata,
		SHA256:      sha,
		StoragePath: storagePath,
		ClientID:    req.ClientID,
	}

	text, err := in.extractor.Extract(ctx, req.Data, req.Filename)
	if err != nil {
		// The extractor must never throw into Intake; a failure still
		// yields a failed record, never a partially-categorized one.
		doc.Status = StatusFailed
		doc.FailureReason = fmt.Sprintf("text extraction failed: %v", err)
		_ = in.store.Upsert(ctx, doc)
		in.metrics.RecordDocument(false)
		return doc, logger.NewHubError(logger.ErrInternal, doc.FailureReason, err)
	}

	cat, err := in.categorizer.Categorize(ctx, text, req.Filename)
	if err != nil {
		doc.Status = StatusFailed
		doc.FailureReason = fmt.Sprintf("categorization failed: %v", err)
		_ = in.store.Upsert(ctx, doc)
		in.metrics.RecordDocument(false)
		return doc, logger.NewHubError(logger.ErrInternal, doc.FailureReason, err)
	}

	doc.Categorization = &cat
	doc.Status = StatusCompleted
	doc.ProcessedAt = time.Now().UTC()

	if err := in.writeProcessedRecord(doc); err != nil {
		logger.Warn("failed to persist processed record", logger.String("document_id", doc.ID), logger.String("error", err.Error()))
	}

	if err := in.store.Upsert(ctx, doc); err != nil {
		in.metrics.RecordDocument(false)
		return nil, logger.NewHubError(logger.ErrInternal, "failed to upsert document catalog entry", err)
	}

	in.metrics.RecordDocument(true)
	return doc, nil
}

// Get is a client-scoped catalog lookup.
func (in *Intake) Get(ctx context.Context, clientID, id string) (*Document, bool, error) {
	return in.store.Get(ctx, clientID, id)
}

// GetByID looks a document up regardless of owning client, so the HTTP
// boundary can distinguish "absent" from "wrong client" (404 vs 403).
func (in *Intake) GetByID(ctx context.Context, id string) (*Document, bool, error) {
	return in.store.GetByID(ctx, id)
}

// List is a client-scoped, filtered catalog listing.
func (in *Intake) List(ctx context.Context, clientID string, f Filter) ([]*Document, error) {
	return in.store.List(ctx, clientID, f)
}

func (in *Intake) writeProcessedRecord(doc *Document) error {
	path := filepath.Join(in.processedDir, doc.ID+".json")
	data, err := json.MarshalIndent(doc.Categorization, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func safeName(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "upload"
	}
	return string(out)
}
