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

// Package handlers dispatches decoded message payloads through a registry
// keyed by message kind, with a uniform signature
// (payload) -> (payload, error). An unknown kind is a structured
// handler_not_registered error rather than a missing-key panic.
package handlers

import (
	"sync"

	"github.com/sage-x-project/sage-hub/internal/logger"
)

// Handler processes one message kind's payload and returns a reply payload
// or a structured error.
type Handler func(payload map[string]interface{}) (interface{}, error)

// Registry dispatches by message kind to a registered Handler.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry constructs an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register binds kind to handler, overwriting any prior binding.
func (r *Registry) Register(kind string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[kind] = handler
}

// Dispatch invokes the handler registered for kind, or returns a
// handler_not_registered error if none is bound.
func (r *Registry) Dispatch(kind string, payload map[string]interface{}) (interface{}, error) {
	r.mu.RLock()
	handler, ok := r.handlers[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, logger.NewHubError(logger.ErrHandlerNotRegistered, "no handler registered for kind "+kind, nil)
	}
	return handler(payload)
}

// Kinds returns every registered kind, for introspection endpoints such as
// GET /capabilities.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.handlers))
	for k := range r.handlers {
		out = append(out, k)
	}
	return out
}
