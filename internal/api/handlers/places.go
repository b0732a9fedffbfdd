// places.go — HTTP-обработчики мест.
package handlers

import (
	"net/http"

	apierrors "github.com/grimwald/lorelog/internal/api/errors"
)

// ListPlaces — GET /api/v1/places. Параметр type сужает выборку.
func (h *APIHandler) ListPlaces(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	list, err := h.places.List(r.Context(), p, r.URL.Query().Get("type"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// CreatePlace — POST /api/v1/places.
func (h *APIHandler) CreatePlace(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	pl, err := h.places.Create(r.Context(), p, r.Body)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, pl)
}

// GetPlace — GET /api/v1/places/{id}.
func (h *APIHandler) GetPlace(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		apierrors.ValidationError(w, "некорректный id")
		return
	}
	pl, err := h.places.Get(r.Context(), id, p)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pl)
}

// PatchPlace — PATCH /api/v1/places/{id}.
func (h *APIHandler) PatchPlace(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		apierrors.ValidationError(w, "некорректный id")
		return
	}
	pl, err := h.places.Patch(r.Context(), id, p, r.Body)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pl)
}
