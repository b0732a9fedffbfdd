// characters.go — HTTP-обработчики персонажей.
package handlers

import (
	"net/http"
	"strconv"

	apierrors "github.com/grimwald/lorelog/internal/api/errors"
	"github.com/grimwald/lorelog/internal/repository"
)

// ListCharacters — GET /api/v1/characters.
// Параметр is_pc сужает выборку до игровых или неигровых персонажей.
func (h *APIHandler) ListCharacters(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	q := repository.ListQuery{}
	if v := r.URL.Query().Get("is_pc"); v != "" {
		isPC, err := strconv.ParseBool(v)
		if err != nil {
			apierrors.ValidationError(w, "некорректное значение is_pc")
			return
		}
		q.Filters = map[string]any{"is_pc": isPC}
	}

	list, err := h.characters.List(r.Context(), p, q)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// CreateCharacter — POST /api/v1/characters.
func (h *APIHandler) CreateCharacter(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	c, err := h.characters.Create(r.Context(), p, r.Body)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// GetCharacter — GET /api/v1/characters/{id}.
func (h *APIHandler) GetCharacter(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		apierrors.ValidationError(w, "некорректный id")
		return
	}
	c, err := h.characters.Get(r.Context(), id, p)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// PatchCharacter — PATCH /api/v1/characters/{id}.
func (h *APIHandler) PatchCharacter(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		apierrors.ValidationError(w, "некорректный id")
		return
	}
	c, err := h.characters.Patch(r.Context(), id, p, r.Body)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
