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
	"sync"
)

// MemoryStore is the default catalog backend: an in-memory, mutex-guarded
// map keyed by (client-id, document-id), deep-copying on every read and
// write so callers can never mutate catalog state through a returned
// pointer.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]map[string]*Document
}

// NewMemoryStore constructs an empty in-memory catalog.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]map[string]*Document)}
}

// Upsert implements Store.
func (s *MemoryStore) Upsert(ctx context.Context, doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID, ok := s.docs[doc.ClientID]
	if !ok {
		byID = make(map[string]*Document)
		s.docs[doc.ClientID] = byID
	}
	cp := *doc
	byID[doc.ID] = &cp
	return nil
}

// Get implements Store: a cross-client lookup always returns not-found.
func (s *MemoryStore) Get(ctx context.Context, clientID, id string) (*Document, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byID, ok := s.docs[clientID]
	if !ok {
		return nil, false, nil
	}
	doc, ok := byID[id]
	if !ok {
		return nil, false, nil
	}
	cp := *doc
	return &cp, true, nil
}

// GetByID implements Store: scans every client's bucket for the id,
// independent of ownership.
func (s *MemoryStore) GetByID(ctx context.Context, id string) (*Document, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, byID := range s.docs {
		if doc, ok := byID[id]; ok {
			cp := *doc
			return &cp, true, nil
		}
	}
	return nil, false, nil
}

// List implements Store.
func (s *MemoryStore) List(ctx context.Context, clientID string, f Filter) ([]*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byID, ok := s.docs[clientID]
	if !ok {
		return nil, nil
	}
	out := make([]*Document, 0, len(byID))
	for _, doc := range byID {
		if !matchesFilter(doc, f) {
			continue
		}
		cp := *doc
		out = append(out, &cp)
	}
	return out, nil
}

// Close implements Store; a no-op for the in-memory backend.
func (s *MemoryStore) Close() error {
	return nil
}

func matchesFilter(doc *Document, f Filter) bool {
	if f.Department != "" && (doc.Categorization == nil || doc.Categorization.Department != f.Department) {
		return false
	}
	if f.DocumentType != "" && (doc.Categorization == nil || doc.Categorization.DocumentType != f.DocumentType) {
		return false
	}
	if !f.DateFrom.IsZero() && doc.UploadedAt.Before(f.DateFrom) {
		return false
	}
	if !f.DateTo.IsZero() && doc.UploadedAt.After(f.DateTo) {
		return false
	}
	return true
}
