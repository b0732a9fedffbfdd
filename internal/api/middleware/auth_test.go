package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/grimwald/lorelog/internal/domain/model"
)

// testSecret — ключ подписи HS256 для тестов.
var testSecret = []byte("0123456789abcdef0123456789abcdef")

// mockResolver — мок PrincipalResolver с фиксированным ответом.
type mockResolver struct {
	principal model.Principal
	err       error
}

func (m *mockResolver) ResolvePrincipal(_ context.Context, claims *AuthClaims) (model.Principal, error) {
	if m.err != nil {
		return model.Principal{}, m.err
	}
	p := m.principal
	if p.UserID == "" {
		p = model.Principal{
			UserID:     claims.Subject,
			Email:      claims.Email,
			Alias:      claims.Alias,
			CampaignID: claims.CampaignID,
		}
	}
	return p, nil
}

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestJWTAuth создаёт JWTAuth для тестов.
func newTestJWTAuth(resolver PrincipalResolver) *JWTAuth {
	if resolver == nil {
		resolver = &mockResolver{}
	}
	return NewJWTAuth(testSecret, 30*time.Second, resolver, testLogger())
}

// generateToken подписывает токен HS256 с указанными claims.
func generateToken(t *testing.T, secret []byte, sub string, campaignID int64, expired bool) string {
	t.Helper()

	exp := time.Now().Add(time.Hour)
	if expired {
		exp = time.Now().Add(-time.Hour)
	}

	claims := &AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Email:      "thorn@test.com",
		Alias:      "Thorn",
		Campaigns:  []int64{1},
		CampaignID: campaignID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString(secret)
	if err != nil {
		t.Fatal(err)
	}
	return tokenStr
}

// TestJWTAuth_ValidToken — валидный токен: Principal попадает в контекст.
func TestJWTAuth_ValidToken(t *testing.T) {
	auth := newTestJWTAuth(nil)

	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		if !ok {
			t.Fatal("Principal не найден в контексте")
		}
		if p.UserID != "user-123" {
			t.Errorf("ожидался UserID=user-123, получен %s", p.UserID)
		}
		if p.CampaignID != 1 {
			t.Errorf("ожидался CampaignID=1, получен %d", p.CampaignID)
		}
		if p.Alias != "Thorn" {
			t.Errorf("ожидался Alias=Thorn, получен %s", p.Alias)
		}
		w.WriteHeader(http.StatusOK)
	}))

	tokenStr := generateToken(t, testSecret, "user-123", 1, false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/characters", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("ожидался статус 200, получен %d, тело: %s", rec.Code, rec.Body.String())
	}
}

// TestJWTAuth_MissingToken — отсутствие Authorization header.
func TestJWTAuth_MissingToken(t *testing.T) {
	auth := newTestJWTAuth(nil)
	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler не должен быть вызван")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/characters", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("ожидался статус 401, получен %d", rec.Code)
	}
}

// TestJWTAuth_InvalidFormat — некорректный формат Authorization.
func TestJWTAuth_InvalidFormat(t *testing.T) {
	auth := newTestJWTAuth(nil)
	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler не должен быть вызван")
	}))

	tests := []struct {
		name   string
		header string
	}{
		{"basic auth", "Basic dXNlcjpwYXNz"},
		{"no bearer prefix", "token123"},
		{"empty bearer", "Bearer "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/characters", nil)
			req.Header.Set("Authorization", tt.header)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("ожидался статус 401, получен %d", rec.Code)
			}
		})
	}
}

// TestJWTAuth_ExpiredToken — просроченный токен.
func TestJWTAuth_ExpiredToken(t *testing.T) {
	auth := newTestJWTAuth(nil)
	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler не должен быть вызван")
	}))

	tokenStr := generateToken(t, testSecret, "user-123", 1, true)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/characters", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("ожидался статус 401, получен %d", rec.Code)
	}
}

// TestJWTAuth_WrongSecret — токен подписан другим ключом.
func TestJWTAuth_WrongSecret(t *testing.T) {
	auth := newTestJWTAuth(nil)
	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler не должен быть вызван")
	}))

	otherSecret := []byte("ffffffffffffffffffffffffffffffff")
	tokenStr := generateToken(t, otherSecret, "user-123", 1, false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/characters", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("ожидался статус 401, получен %d", rec.Code)
	}
}

// TestJWTAuth_WrongAlgorithm — токен с алгоритмом none отвергается.
func TestJWTAuth_WrongAlgorithm(t *testing.T) {
	auth := newTestJWTAuth(nil)
	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler не должен быть вызван")
	}))

	claims := &AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	tokenStr, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/characters", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("ожидался статус 401, получен %d", rec.Code)
	}
}

// TestJWTAuth_NoExpiration — токен без exp отвергается.
func TestJWTAuth_NoExpiration(t *testing.T) {
	auth := newTestJWTAuth(nil)
	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler не должен быть вызван")
	}))

	claims := &AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  "user-123",
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString(testSecret)
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/characters", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("ожидался статус 401, получен %d", rec.Code)
	}
}

// TestJWTAuth_ResolverRejects — валидный токен, но учётная запись
// отвергнута при сверке с БД (деактивирована или исключена из кампании).
func TestJWTAuth_ResolverRejects(t *testing.T) {
	resolver := &mockResolver{err: errors.New("пользователь деактивирован")}
	auth := newTestJWTAuth(resolver)
	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler не должен быть вызван")
	}))

	tokenStr := generateToken(t, testSecret, "user-123", 1, false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/characters", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("ожидался статус 401, получен %d", rec.Code)
	}
}

// TestJWTAuth_Leeway — только что просроченный токен проходит в пределах leeway.
func TestJWTAuth_Leeway(t *testing.T) {
	auth := newTestJWTAuth(nil)
	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// exp на 10 секунд в прошлом, leeway 30 секунд
	claims := &AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-10 * time.Second)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString(testSecret)
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/characters", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("ожидался статус 200, получен %d", rec.Code)
	}
}

// TestPrincipalFromContext_Empty — пустой контекст.
func TestPrincipalFromContext_Empty(t *testing.T) {
	if _, ok := PrincipalFromContext(context.Background()); ok {
		t.Error("ожидался ok=false для пустого контекста")
	}
}
