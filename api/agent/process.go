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
	"net/http"

	"github.com/sage-x-project/sage-hub/api/httputil"
	"github.com/sage-x-project/sage-hub/internal/logger"
)

const defaultRequestType = "general"

// handleProcess implements POST /process: dispatch by the payload's "type"
// field into the handler registered for it (each wrapping a call into the
// Domain Analyzer). An unrecognized type falls back to the "general"
// comprehensive-analysis handler rather than rejecting the request.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.WriteError(w, logger.NewHubError(logger.ErrBadRequest, "method not allowed", nil))
		return
	}

	var payload map[string]interface{}
	if err := httputil.DecodeJSON(r, &payload); err != nil {
		httputil.WriteError(w, logger.NewHubError(logger.ErrBadRequest, "invalid request body: "+err.Error(), nil))
		return
	}

	reqType, _ := payload["type"].(string)
	if reqType == "" {
		reqType = defaultRequestType
	}

	result, err := s.app.Dispatcher.Dispatch(reqType, payload)
	if err != nil {
		he, ok := err.(*logger.HubError)
		if ok && he.Kind == logger.ErrHandlerNotRegistered {
			// Fall back to the general analyzer path rather than reject an
			// unrecognized type outright.
			result, err = s.app.Dispatcher.Dispatch(defaultRequestType, payload)
		}
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}
