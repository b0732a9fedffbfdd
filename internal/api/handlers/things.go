// things.go — HTTP-обработчики предметов.
package handlers

import (
	"net/http"
	"strconv"

	apierrors "github.com/grimwald/lorelog/internal/api/errors"
	"github.com/grimwald/lorelog/internal/repository"
)

// ListThings — GET /api/v1/things.
// Параметр owner_id сужает выборку до предметов одного владельца.
func (h *APIHandler) ListThings(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	q := repository.ListQuery{}
	if v := r.URL.Query().Get("owner_id"); v != "" {
		ownerID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			apierrors.ValidationError(w, "некорректное значение owner_id")
			return
		}
		q.Filters = map[string]any{"owner_id": ownerID}
	}

	list, err := h.things.List(r.Context(), p, q)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// CreateThing — POST /api/v1/things.
func (h *APIHandler) CreateThing(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	t, err := h.things.Create(r.Context(), p, r.Body)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// GetThing — GET /api/v1/things/{id}.
func (h *APIHandler) GetThing(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		apierrors.ValidationError(w, "некорректный id")
		return
	}
	t, err := h.things.Get(r.Context(), id, p)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// PatchThing — PATCH /api/v1/things/{id}.
func (h *APIHandler) PatchThing(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		apierrors.ValidationError(w, "некорректный id")
		return
	}
	t, err := h.things.Patch(r.Context(), id, p, r.Body)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}
