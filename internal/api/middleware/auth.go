// auth.go — JWT middleware аутентификации Lore Log.
// Токены самоподписанные (HS256), выдаются сервисом пользователей при
// логине. Middleware валидирует подпись и срок, сверяет субъекта с БД
// и помещает Principal в контекст запроса.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apierrors "github.com/grimwald/lorelog/internal/api/errors"
	"github.com/grimwald/lorelog/internal/domain/model"
)

// contextKey — тип для ключей контекста (избегаем коллизий).
type contextKey string

// ContextKeyPrincipal — аутентифицированный субъект в контексте запроса.
const ContextKeyPrincipal contextKey = "principal"

// AuthClaims — claims самоподписанного JWT Lore Log.
type AuthClaims struct {
	jwt.RegisteredClaims
	// Email — электронная почта пользователя.
	Email string `json:"email"`
	// Alias — отображаемое имя.
	Alias string `json:"alias"`
	// Campaigns — кампании, в которых состоит пользователь.
	Campaigns []int64 `json:"campaigns"`
	// CampaignID — выбранная кампания (scope всех lore-запросов).
	CampaignID int64 `json:"campaign_id"`
}

// PrincipalResolver сверяет claims с БД и строит Principal.
// Реализуется сервисом пользователей: протухшая учётная запись
// отвергается даже при валидной подписи токена.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, claims *AuthClaims) (model.Principal, error)
}

// JWTAuth — middleware JWT-аутентификации.
type JWTAuth struct {
	secret   []byte
	leeway   time.Duration
	resolver PrincipalResolver
	logger   *slog.Logger
}

// NewJWTAuth создаёт JWT middleware.
// secret — ключ подписи HS256 (LL_JWT_SECRET).
// leeway — допустимое отклонение времени при проверке срока.
func NewJWTAuth(secret []byte, leeway time.Duration, resolver PrincipalResolver, logger *slog.Logger) *JWTAuth {
	return &JWTAuth{
		secret:   secret,
		leeway:   leeway,
		resolver: resolver,
		logger:   logger.With(slog.String("component", "jwt_auth")),
	}
}

// Middleware возвращает HTTP middleware для JWT-аутентификации.
// Извлекает Bearer token, валидирует подпись (HS256) и срок,
// сверяет субъекта с БД и помещает Principal в контекст.
func (j *JWTAuth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				apierrors.Unauthorized(w, "Отсутствует заголовок Authorization")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				apierrors.Unauthorized(w, "Неверный формат Authorization: ожидается Bearer <token>")
				return
			}

			tokenString := parts[1]
			if tokenString == "" {
				apierrors.Unauthorized(w, "Пустой Bearer token")
				return
			}

			claims := &AuthClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims,
				func(*jwt.Token) (any, error) { return j.secret, nil },
				jwt.WithValidMethods([]string{"HS256"}),
				jwt.WithExpirationRequired(),
				jwt.WithLeeway(j.leeway),
			)
			if err != nil || !token.Valid {
				j.logger.Debug("JWT валидация не пройдена",
					slog.String("remote_addr", r.RemoteAddr),
				)
				apierrors.Unauthorized(w, "Невалидный или просроченный токен")
				return
			}

			principal, err := j.resolver.ResolvePrincipal(r.Context(), claims)
			if err != nil {
				j.logger.Debug("Субъект токена отвергнут",
					slog.String("subject", claims.Subject),
					slog.String("error", err.Error()),
				)
				apierrors.Unauthorized(w, "Учётная запись недоступна")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyPrincipal, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalFromContext извлекает Principal из контекста запроса.
func PrincipalFromContext(ctx context.Context) (model.Principal, bool) {
	p, ok := ctx.Value(ContextKeyPrincipal).(model.Principal)
	return p, ok
}
