// Пакет server — HTTP-сервер Lore Log с graceful shutdown.
// Без TLS — HTTP внутри кластера, TLS termination на reverse proxy.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/grimwald/lorelog/internal/api/handlers"
	"github.com/grimwald/lorelog/internal/api/middleware"
	"github.com/grimwald/lorelog/internal/config"
)

// Server — HTTP-сервер Lore Log.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт новый HTTP-сервер с настроенными routes и middleware.
// jwtAuth — JWT middleware (может быть nil для тестирования без auth).
func New(cfg *config.Config, logger *slog.Logger, handler *handlers.APIHandler, jwtAuth *middleware.JWTAuth) *Server {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))

	// JWT middleware с исключениями для публичных endpoints:
	// health/metrics для Kubernetes, регистрация/логин/captcha для
	// ещё не аутентифицированных пользователей.
	if jwtAuth != nil {
		router.Use(jwtAuthWithExclusions(jwtAuth,
			"/health/", "/metrics",
			"/api/v1/users", "/api/v1/login", "/api/v1/captcha",
		))
	}

	registerRoutes(router, handler)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// registerRoutes привязывает все маршруты API к обработчикам.
func registerRoutes(router chi.Router, h *handlers.APIHandler) {
	router.Get("/health/live", h.HealthLive)
	router.Get("/health/ready", h.HealthReady)
	router.Get("/metrics", h.GetMetrics)

	router.Route("/api/v1", func(r chi.Router) {
		// Открытые маршруты (за исключениями JWT middleware).
		r.Post("/users", h.RegisterUser)
		r.Post("/login", h.Login)
		r.Get("/captcha", h.NewCaptcha)

		r.Get("/profile", h.GetProfile)
		r.Patch("/profile", h.PatchProfile)
		r.Post("/campaigns/{id}/switch", h.SwitchCampaign)

		r.Route("/characters", func(r chi.Router) {
			r.Get("/", h.ListCharacters)
			r.Post("/", h.CreateCharacter)
			r.Get("/{id}", h.GetCharacter)
			r.Patch("/{id}", h.PatchCharacter)
			r.Get("/{id}/relations/factions", h.ListCharacterFactions)
			r.Post("/{id}/relations/factions/{farID}", h.AddCharacterFaction)
			r.Delete("/{id}/relations/factions/{farID}", h.RemoveCharacterFaction)
		})

		r.Route("/factions", func(r chi.Router) {
			r.Get("/", h.ListFactions)
			r.Post("/", h.CreateFaction)
			r.Get("/{id}", h.GetFaction)
			r.Patch("/{id}", h.PatchFaction)
			r.Get("/{id}/relations/characters", h.ListFactionCharacters)
			r.Post("/{id}/relations/characters/{farID}", h.AddFactionCharacter)
			r.Delete("/{id}/relations/characters/{farID}", h.RemoveFactionCharacter)
		})

		r.Route("/places", func(r chi.Router) {
			r.Get("/", h.ListPlaces)
			r.Post("/", h.CreatePlace)
			r.Get("/{id}", h.GetPlace)
			r.Patch("/{id}", h.PatchPlace)
		})

		r.Route("/things", func(r chi.Router) {
			r.Get("/", h.ListThings)
			r.Post("/", h.CreateThing)
			r.Get("/{id}", h.GetThing)
			r.Patch("/{id}", h.PatchThing)
		})

		r.Route("/chronicle", func(r chi.Router) {
			r.Get("/", h.ListChronicle)
			r.Post("/", h.CreateChronicleEntry)
			r.Get("/{id}", h.GetChronicleEntry)
			r.Patch("/{id}", h.PatchChronicleEntry)
		})
	})
}

// jwtAuthWithExclusions оборачивает JWTAuth.Middleware(), пропуская указанные пути.
// Запросы к путям, начинающимся с любого из excludePrefixes, проходят без JWT.
func jwtAuthWithExclusions(jwtAuth *middleware.JWTAuth, excludePrefixes ...string) func(http.Handler) http.Handler {
	jwtMiddleware := jwtAuth.Middleware()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range excludePrefixes {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}
			jwtMiddleware(next).ServeHTTP(w, r)
		})
	}
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
