package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dgallion1/pdfoutline/internal/store"
	"github.com/go-chi/chi/v5"
)

// handleListDocuments lists stored outlines, most recent first.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 100)
	offset := queryInt(r, "offset", 0)

	ctx := r.Context()
	docs, err := s.orchestrator.Store().List(ctx, limit, offset)
	if err != nil {
		jsonError(w, "failed to list documents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	total, err := s.orchestrator.Store().Count(ctx)
	if err != nil {
		jsonError(w, "failed to count documents: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"documents": docs,
		"total":     total,
	})
}

// handleGetDocument returns a stored outline. With format=markdown or
// format=html it returns the rendered outline instead of the record.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	rec, err := s.orchestrator.Store().Get(r.Context(), chi.URLParam(r, "docID"))
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "failed to read document: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if format := r.URL.Query().Get("format"); format != "" {
		writeOutline(w, format, rec.Outline)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleDeleteDocument removes a stored outline.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	err := s.orchestrator.Store().Delete(r.Context(), docID)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "failed to delete document: "+err.Error(), http.StatusInternalServerError)
		return
	}
	s.log.Info("document deleted", "doc_id", docID)
	writeJSON(w, http.StatusOK, map[string]any{"doc_id": docID, "deleted": true})
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
