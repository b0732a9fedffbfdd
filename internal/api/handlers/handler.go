// handler.go — основной обработчик API Lore Log.
// Объединяет доменные обработчики и делегирует запросы в сервисный
// слой; ошибки сервисов транслируются в единый формат ответа.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/grimwald/lorelog/internal/api/errors"
	"github.com/grimwald/lorelog/internal/api/middleware"
	"github.com/grimwald/lorelog/internal/domain/model"
	"github.com/grimwald/lorelog/internal/service"
)

// APIHandler — основной обработчик API Lore Log.
type APIHandler struct {
	health     *HealthHandler
	characters *service.CharacterService
	factions   *service.FactionService
	places     *service.PlaceService
	things     *service.ThingService
	chronicle  *service.ChronicleService
	relations  *service.RelationService
	users      *service.UserService
	captcha    *service.CaptchaService
	logger     *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	health *HealthHandler,
	characters *service.CharacterService,
	factions *service.FactionService,
	places *service.PlaceService,
	things *service.ThingService,
	chronicle *service.ChronicleService,
	relations *service.RelationService,
	users *service.UserService,
	captcha *service.CaptchaService,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		health:     health,
		characters: characters,
		factions:   factions,
		places:     places,
		things:     things,
		chronicle:  chronicle,
		relations:  relations,
		users:      users,
		captcha:    captcha,
		logger:     logger.With(slog.String("component", "api_handler")),
	}
}

// HealthLive — liveness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — readiness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики (делегируется в HealthHandler).
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeServiceError транслирует ошибку сервисного слоя в HTTP-ответ.
// Неклассифицированные ошибки логируются и отдаются как 500 без деталей.
func (h *APIHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		apierrors.ValidationError(w, err.Error())
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, err.Error())
	case errors.Is(err, service.ErrConflict):
		apierrors.Conflict(w, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		apierrors.Unauthorized(w, err.Error())
	default:
		h.logger.Error("Внутренняя ошибка обработки запроса",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "внутренняя ошибка сервера")
	}
}

// principal извлекает субъекта из контекста запроса.
// Отсутствие субъекта за auth middleware — дефект маршрутизации.
func (h *APIHandler) principal(w http.ResponseWriter, r *http.Request) (model.Principal, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		apierrors.Unauthorized(w, "Требуется аутентификация")
		return model.Principal{}, false
	}
	return p, true
}

// pathID извлекает числовой id из URL-параметра chi.
func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}
