// factions.go — HTTP-обработчики фракций.
package handlers

import (
	"net/http"

	apierrors "github.com/grimwald/lorelog/internal/api/errors"
	"github.com/grimwald/lorelog/internal/repository"
)

// ListFactions — GET /api/v1/factions.
func (h *APIHandler) ListFactions(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	list, err := h.factions.List(r.Context(), p, repository.ListQuery{})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// CreateFaction — POST /api/v1/factions.
func (h *APIHandler) CreateFaction(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	f, err := h.factions.Create(r.Context(), p, r.Body)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

// GetFaction — GET /api/v1/factions/{id}.
func (h *APIHandler) GetFaction(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		apierrors.ValidationError(w, "некорректный id")
		return
	}
	f, err := h.factions.Get(r.Context(), id, p)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// PatchFaction — PATCH /api/v1/factions/{id}.
func (h *APIHandler) PatchFaction(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		apierrors.ValidationError(w, "некорректный id")
		return
	}
	f, err := h.factions.Patch(r.Context(), id, p, r.Body)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}
