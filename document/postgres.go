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
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store for PostgreSQL, selected when
// POSTGRES_DSN (config's Storage.PostgresDSN) is non-empty. It is
// the document catalog's only durable backend; the registry and active
// collaboration tables remain in-memory per the non-goals.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to Postgres and ensures the documents table
// exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &PostgresStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS documents (
			client_id     TEXT NOT NULL,
			id            TEXT NOT NULL,
			upload_id     TEXT NOT NULL,
			filename      TEXT NOT NULL,
			file_kind     TEXT,
			byte_size     BIGINT,
			status        TEXT NOT NULL,
			uploaded_at   TIMESTAMPTZ NOT NULL,
			processed_at  TIMESTAMPTZ,
			metadata      JSONB,
			categorization JSONB,
			sha256        TEXT,
			storage_path  TEXT,
			failure_reason TEXT,
			PRIMARY KEY (client_id, id)
		)
	`
	_, err := s.pool.Exec(ctx, schema)
	if err != nil {
		return fmt.Errorf("migrate documents table: %w", err)
	}
	return nil
}

// Upsert implements Store.
func (s *PostgresStore) Upsert(ctx context.Context, doc *Document) error {
	metadata, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	var categorization []byte
	if doc.Categorization != nil {
		categorization, err = json.Marshal(doc.Categorization)
		if err != nil {
			return fmt.Errorf("marshal categorization: %w", err)
		}
	}

	const query = `
		INSERT INTO documents (client_id, id, upload_id, filename, file_kind, byte_size, status,
			uploaded_at, processed_at, metadata, categorization, sha256, storage_path, failure_reason)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		ON CONFLICT (client_id, id) DO UPDATE SET
			status = EXCLUDED.status,
			processed_at = EXCLUDED.processed_at,
			categorization = EXCLUDED.categorization,
			failure_reason = EXCLUDED.failure_reason
	`
	var processedAt *time.Time
	if !doc.ProcessedAt.IsZero() {
		processedAt = &doc.ProcessedAt
	}
	_, err = s.pool.Exec(ctx, query,
		doc.ClientID, doc.ID, doc.UploadID, doc.Filename, doc.FileKind, doc.ByteSize, doc.Status,
		doc.UploadedAt, processedAt, metadata, categorization, doc.SHA256, doc.StoragePath, doc.FailureReason,
	)
	if err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	return nil
}

// Get implements Store: a cross-client lookup always returns not-found.
func (s *PostgresStore) Get(ctx context.Context, clientID, id string) (*Document, bool, error) {
	const query = `
		SELECT id, upload_id, filename, file_kind, byte_size, status, uploaded_at, processed_at,
			metadata, categorization, sha256, storage_path, failure_reason
		FROM documents WHERE client_id = $1 AND id = $2
	`
	row := s.pool.QueryRow(ctx, query, clientID, id)
	doc, err := scanDocument(row, clientID)
	if err == pgx.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get document: %w", err)
	}
	return doc, true, nil
}

// GetByID implements Store: scans regardless of owning client.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (*Document, bool, error) {
	const query = `
		SELECT client_id, id, upload_id, filename, file_kind, byte_size, status, uploaded_at, processed_at,
			metadata, categorization, sha256, storage_path, failure_reason
		FROM documents WHERE id = $1
	`
	row := s.pool.QueryRow(ctx, query, id)
	var clientID string
	var doc Document
	var metadata, categorization []byte
	var processedAt *time.Time
	if err := row.Scan(
		&clientID, &doc.ID, &doc.UploadID, &doc.Filename, &doc.FileKind, &doc.ByteSize, &doc.Status,
		&doc.UploadedAt, &processedAt, &metadata, &categorization, &doc.SHA256, &doc.StoragePath, &doc.FailureReason,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get document by id: %w", err)
	}
	doc.ClientID = clientID
	if processedAt != nil {
		doc.ProcessedAt = *processedAt
	}
	if len(metadata) > 0 {
		_ = json.Unmarshal(metadata, &doc.Metadata)
	}
	if len(categorization) > 0 {
		var cat Categorization
		if err := json.Unmarshal(categorization, &cat); err == nil {
			doc.Categorization = &cat
		}
	}
	return &doc, true, nil
}

// List implements Store.
func (s *PostgresStore) List(ctx context.Context, clientID string, f Filter) ([]*Document, error) {
	const query = `
		SELECT id, upload_id, filename, file_kind, byte_size, status, uploaded_at, processed_at,
			metadata, categorization, sha256, storage_path, failure_reason
		FROM documents WHERE client_id = $1
	`
	rows, err := s.pool.Query(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []*Document
	for rows.Next() {
		doc, err := scanDocument(rows, clientID)
		if err != nil {
			return nil, fmt.Errorf("scan document row: %w", err)
		}
		if matchesFilter(doc, f) {
			out = append(out, doc)
		}
	}
	return out, rows.Err()
}

// Close implements Store.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner, clientID string) (*Document, error) {
	var doc Document
	var metadata, categorization []byte
	var processedAt *time.Time
	doc.ClientID = clientID

	if err := row.Scan(
		&doc.ID, &doc.UploadID, &doc.Filename, &doc.FileKind, &doc.ByteSize, &doc.Status,
		&doc.UploadedAt, &processedAt, &metadata, &categorization, &doc.SHA256, &doc.StoragePath, &doc.FailureReason,
	); err != nil {
		return nil, err
	}
	if processedAt != nil {
		doc.ProcessedAt = *processedAt
	}
	if len(metadata) > 0 {
		_ = json.Unmarshal(metadata, &doc.Metadata)
	}
	if len(categorization) > 0 {
		var cat Categorization
		if err := json.Unmarshal(categorization, &cat); err == nil {
			doc.Categorization = &cat
		}
	}
	return &doc, nil
}
