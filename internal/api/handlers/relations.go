// relations.go — HTTP-обработчики связей «персонаж — фракция».
// Связь зеркальна: доступна и со стороны персонажа, и со стороны
// фракции; якорная сторона определяется маршрутом.
package handlers

import (
	"encoding/json"
	"net/http"

	apierrors "github.com/grimwald/lorelog/internal/api/errors"
	"github.com/grimwald/lorelog/internal/domain/model"
	"github.com/grimwald/lorelog/internal/repository"
)

// ListCharacterFactions — GET /api/v1/characters/{id}/relations/factions.
func (h *APIHandler) ListCharacterFactions(w http.ResponseWriter, r *http.Request) {
	h.listRelations(w, r, repository.SideLeft)
}

// AddCharacterFaction — POST /api/v1/characters/{id}/relations/factions/{farID}.
func (h *APIHandler) AddCharacterFaction(w http.ResponseWriter, r *http.Request) {
	h.addRelation(w, r, repository.SideLeft)
}

// RemoveCharacterFaction — DELETE /api/v1/characters/{id}/relations/factions/{farID}.
func (h *APIHandler) RemoveCharacterFaction(w http.ResponseWriter, r *http.Request) {
	h.removeRelation(w, r, repository.SideLeft)
}

// ListFactionCharacters — GET /api/v1/factions/{id}/relations/characters.
func (h *APIHandler) ListFactionCharacters(w http.ResponseWriter, r *http.Request) {
	h.listRelations(w, r, repository.SideRight)
}

// AddFactionCharacter — POST /api/v1/factions/{id}/relations/characters/{farID}.
func (h *APIHandler) AddFactionCharacter(w http.ResponseWriter, r *http.Request) {
	h.addRelation(w, r, repository.SideRight)
}

// RemoveFactionCharacter — DELETE /api/v1/factions/{id}/relations/characters/{farID}.
func (h *APIHandler) RemoveFactionCharacter(w http.ResponseWriter, r *http.Request) {
	h.removeRelation(w, r, repository.SideRight)
}

// relationIDs извлекает id якоря и противоположного конца из URL.
func relationIDs(w http.ResponseWriter, r *http.Request) (anchorID, farID int64, ok bool) {
	anchorID, err := pathID(r, "id")
	if err != nil {
		apierrors.ValidationError(w, "некорректный id")
		return 0, 0, false
	}
	farID, err = pathID(r, "farID")
	if err != nil {
		apierrors.ValidationError(w, "некорректный id связываемой записи")
		return 0, 0, false
	}
	return anchorID, farID, true
}

func (h *APIHandler) listRelations(w http.ResponseWriter, r *http.Request, anchor repository.Side) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	anchorID, err := pathID(r, "id")
	if err != nil {
		apierrors.ValidationError(w, "некорректный id")
		return
	}
	list, err := h.relations.FindAll(r.Context(), p, anchor, anchorID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *APIHandler) addRelation(w http.ResponseWriter, r *http.Request, anchor repository.Side) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	anchorID, farID, ok := relationIDs(w, r)
	if !ok {
		return
	}

	var attrs model.RelationAttrs
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&attrs); err != nil {
			apierrors.ValidationError(w, "некорректный JSON")
			return
		}
	}

	if err := h.relations.Add(r.Context(), p, anchor, anchorID, farID, attrs); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *APIHandler) removeRelation(w http.ResponseWriter, r *http.Request, anchor repository.Side) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	anchorID, farID, ok := relationIDs(w, r)
	if !ok {
		return
	}
	if err := h.relations.Remove(r.Context(), p, anchor, anchorID, farID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
