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

package hub

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sage-x-project/sage-hub/api/httputil"
	"github.com/sage-x-project/sage-hub/auth"
	"github.com/sage-x-project/sage-hub/document"
	"github.com/sage-x-project/sage-hub/internal/logger"
)

const maxUploadBytes = 32 << 20 // 32MiB multipart cap

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.WriteError(w, logger.NewHubError(logger.ErrBadRequest, "method not allowed", nil))
		return
	}
	clientID, err := auth.ClientIDFrom(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.WriteError(w, logger.NewHubError(logger.ErrBadRequest, "invalid multipart body: "+err.Error(), nil))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteError(w, logger.NewHubError(logger.ErrBadRequest, "file field required", nil))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		httputil.WriteError(w, logger.NewHubError(logger.ErrBadRequest, "failed to read file", err))
		return
	}

	metadata := map[string]string{}
	if dept := r.FormValue("department"); dept != "" {
		metadata["department"] = dept
	}
	if tags := r.FormValue("tags"); tags != "" {
		metadata["tags"] = tags
	}

	doc, err := s.app.Intake.Upload(r.Context(), document.UploadRequest{
		ClientID: clientID,
		Filename: header.Filename,
		Data:     data,
		Metadata: metadata,
	})
	if err != nil {
		if doc == nil {
			httputil.WriteError(w, err)
			return
		}
		// Intake produced a failed record: report it, not a 5xx.
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]interface{}{
			"status":          "failed",
			"document_id":     doc.ID,
			"upload_id":       doc.UploadID,
			"processing_status": doc.Status,
			"error":           doc.FailureReason,
		})
		return
	}

	httputil.WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"status":            "accepted",
		"upload_id":         doc.UploadID,
		"document_id":       doc.ID,
		"processing_status": doc.Status,
		"categorization":    doc.Categorization,
	})
}

func (s *Server) handleDocumentByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteError(w, logger.NewHubError(logger.ErrBadRequest, "method not allowed", nil))
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/documents/")
	if id == "" {
		httputil.WriteError(w, logger.NewHubError(logger.ErrNotFound, "document not found", nil))
		return
	}
	clientID, err := auth.ClientIDFrom(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	doc, ok, err := s.app.Intake.GetByID(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, logger.NewHubError(logger.ErrInternal, "lookup failed", err))
		return
	}
	if !ok {
		httputil.WriteError(w, logger.NewHubError(logger.ErrNotFound, "document not found", nil))
		return
	}
	if doc.ClientID != clientID {
		httputil.WriteError(w, logger.NewHubError(logger.ErrForbidden, "document belongs to a different client", nil))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDocumentSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteError(w, logger.NewHubError(logger.ErrBadRequest, "method not allowed", nil))
		return
	}
	clientID, err := auth.ClientIDFrom(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	q := r.URL.Query()
	var f document.Filter
	f.Department = q.Get("department")
	f.DocumentType = q.Get("document_type")
	if v := q.Get("date_from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.DateFrom = t
		}
	}
	if v := q.Get("date_to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.DateTo = t
		}
	}

	docs, err := s.app.Intake.List(r.Context(), clientID, f)
	if err != nil {
		httputil.WriteError(w, logger.NewHubError(logger.ErrInternal, "list failed", err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"documents": docs, "count": len(docs)})
}
