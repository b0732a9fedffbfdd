// users.go — HTTP-обработчики учётных записей: регистрация, логин,
// captcha, профиль и смена выбранной кампании.
package handlers

import (
	"encoding/json"
	"net/http"

	apierrors "github.com/grimwald/lorelog/internal/api/errors"
	"github.com/grimwald/lorelog/internal/service"
)

// RegisterUser — POST /api/v1/users. Открытый маршрут: доступ
// ограничивается captcha и реферальным кодом, а не токеном.
func (h *APIHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "некорректный JSON")
		return
	}
	u, err := h.users.Register(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// loginRequest — payload логина.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login — POST /api/v1/login.
func (h *APIHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "некорректный JSON")
		return
	}
	res, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// NewCaptcha — GET /api/v1/captcha. Открытый маршрут.
func (h *APIHandler) NewCaptcha(w http.ResponseWriter, r *http.Request) {
	challenge, err := h.captcha.New(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, challenge)
}

// GetProfile — GET /api/v1/profile.
func (h *APIHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	profile, err := h.users.GetProfile(r.Context(), p)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// PatchProfile — PATCH /api/v1/profile.
func (h *APIHandler) PatchProfile(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	profile, err := h.users.PatchProfile(r.Context(), p, r.Body)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// SwitchCampaign — POST /api/v1/campaigns/{id}/switch.
// Выдаёт новый токен с другой выбранной кампанией.
func (h *APIHandler) SwitchCampaign(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		apierrors.ValidationError(w, "некорректный id кампании")
		return
	}
	res, err := h.users.SwitchCampaign(r.Context(), p, id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
