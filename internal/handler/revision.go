package handler

import (
	"encoding/json"
	"net/http"

	"github.com/tracklayer/docxrevise/internal/service"
	"github.com/tracklayer/docxrevise/pkg/response"
	"github.com/tracklayer/godocx/pkg/docx/revision"
)

// RevisionHandler exposes the editing operations (§6's public API table)
// over HTTP: open/close/reload/force_save plus replace/delete/insert/
// accept/reject/find/count/visible_text, all addressed by file path.
type RevisionHandler struct {
	svc service.RevisionService
}

// NewRevisionHandler creates a handler backed by the given service.
func NewRevisionHandler(svc service.RevisionService) *RevisionHandler {
	return &RevisionHandler{svc: svc}
}

type openRequest struct {
	Path   string `json:"path"`
	Author string `json:"author,omitempty"`
}

type findRequest struct {
	Path    string `json:"path"`
	Find    string `json:"find"`
	Replace string `json:"replace,omitempty"`
	Anchor  string `json:"anchor,omitempty"`
	Text    string `json:"text,omitempty"`
	Nth     int    `json:"nth,omitempty"`
}

type idRequest struct {
	Path   string  `json:"path"`
	ID     int     `json:"id,omitempty"`
	Author *string `json:"author,omitempty"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch err.(type) {
	case *revision.NotFoundError:
		response.Error(w, http.StatusNotFound, err.Error())
	case *revision.InvalidArgumentError:
		response.Error(w, http.StatusBadRequest, err.Error())
	case *revision.ExternalModificationError:
		response.Error(w, http.StatusConflict, err.Error())
	case *revision.StructuralInvariantError:
		response.Error(w, http.StatusUnprocessableEntity, err.Error())
	default:
		response.Error(w, http.StatusInternalServerError, err.Error())
	}
}

// Open handles POST /api/v1/revisions/open
func (h *RevisionHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	author, err := h.svc.Open(req.Path, req.Author)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"author": author})
}

// Close handles POST /api/v1/revisions/close
func (h *RevisionHandler) Close(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.Close(req.Path); err != nil {
		writeServiceError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]bool{"closed": true})
}

// Reload handles POST /api/v1/revisions/reload
func (h *RevisionHandler) Reload(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.Reload(req.Path); err != nil {
		writeServiceError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]bool{"reloaded": true})
}

// ForceSave handles POST /api/v1/revisions/force_save
func (h *RevisionHandler) ForceSave(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.ForceSave(req.Path); err != nil {
		writeServiceError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]bool{"saved": true})
}

// Replace handles POST /api/v1/revisions/replace
func (h *RevisionHandler) Replace(w http.ResponseWriter, r *http.Request) {
	var req findRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id, err := h.svc.Replace(req.Path, req.Find, req.Replace, req.Nth)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]int{"revision_id": id})
}

// Delete handles POST /api/v1/revisions/delete
func (h *RevisionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req findRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id, err := h.svc.Delete(req.Path, req.Find, req.Nth)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]int{"revision_id": id})
}

// InsertBefore handles POST /api/v1/revisions/insert_before
func (h *RevisionHandler) InsertBefore(w http.ResponseWriter, r *http.Request) {
	var req findRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id, err := h.svc.InsertBefore(req.Path, req.Anchor, req.Text, req.Nth)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]int{"revision_id": id})
}

// InsertAfter handles POST /api/v1/revisions/insert_after
func (h *RevisionHandler) InsertAfter(w http.ResponseWriter, r *http.Request) {
	var req findRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id, err := h.svc.InsertAfter(req.Path, req.Anchor, req.Text, req.Nth)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]int{"revision_id": id})
}

// Accept handles POST /api/v1/revisions/accept
func (h *RevisionHandler) Accept(w http.ResponseWriter, r *http.Request) {
	var req idRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ok, err := h.svc.Accept(req.Path, req.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]bool{"accepted": ok})
}

// Reject handles POST /api/v1/revisions/reject
func (h *RevisionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var req idRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ok, err := h.svc.Reject(req.Path, req.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]bool{"rejected": ok})
}

// AcceptAll handles POST /api/v1/revisions/accept_all
func (h *RevisionHandler) AcceptAll(w http.ResponseWriter, r *http.Request) {
	var req idRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	n, err := h.svc.AcceptAll(req.Path, req.Author)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]int{"accepted": n})
}

// RejectAll handles POST /api/v1/revisions/reject_all
func (h *RevisionHandler) RejectAll(w http.ResponseWriter, r *http.Request) {
	var req idRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	n, err := h.svc.RejectAll(req.Path, req.Author)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]int{"rejected": n})
}

// ListRevisions handles POST /api/v1/revisions/list
func (h *RevisionHandler) ListRevisions(w http.ResponseWriter, r *http.Request) {
	var req idRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	revisions, err := h.svc.ListRevisions(req.Path, req.Author)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{"revisions": revisions})
}

// Find handles POST /api/v1/revisions/find
func (h *RevisionHandler) Find(w http.ResponseWriter, r *http.Request) {
	var req findRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	found, err := h.svc.Find(req.Path, req.Find)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]bool{"found": found})
}

// Count handles POST /api/v1/revisions/count
func (h *RevisionHandler) Count(w http.ResponseWriter, r *http.Request) {
	var req findRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	count, err := h.svc.Count(req.Path, req.Find)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]int{"count": count})
}

// VisibleText handles POST /api/v1/revisions/visible_text
func (h *RevisionHandler) VisibleText(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	text, err := h.svc.VisibleText(req.Path)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"text": text})
}
