// chronicle.go — HTTP-обработчики хроники кампании.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/grimwald/lorelog/internal/api/errors"
)

// ListChronicle — GET /api/v1/chronicle.
// Параметры relation_type и relation_id сужают выборку по родителю.
func (h *APIHandler) ListChronicle(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	relType := r.URL.Query().Get("relation_type")
	var relationID int64
	if v := r.URL.Query().Get("relation_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			apierrors.ValidationError(w, "некорректное значение relation_id")
			return
		}
		relationID = id
	}

	list, err := h.chronicle.List(r.Context(), p, relType, relationID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// CreateChronicleEntry — POST /api/v1/chronicle.
func (h *APIHandler) CreateChronicleEntry(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	entry, err := h.chronicle.Create(r.Context(), p, r.Body)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// GetChronicleEntry — GET /api/v1/chronicle/{id}.
func (h *APIHandler) GetChronicleEntry(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	entry, err := h.chronicle.Get(r.Context(), chi.URLParam(r, "id"), p)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// PatchChronicleEntry — PATCH /api/v1/chronicle/{id}.
func (h *APIHandler) PatchChronicleEntry(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	entry, err := h.chronicle.Patch(r.Context(), chi.URLParam(r, "id"), p, r.Body)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
