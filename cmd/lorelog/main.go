// Точка входа Lore Log — REST-бэкенд летописи кампаний.
// Загружает конфигурацию, подключается к PostgreSQL, применяет миграции,
// создаёт файловое хранилище контента, репозитории и сервисный слой,
// запускает HTTP-сервер с JWT middleware и graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/grimwald/lorelog/internal/api/handlers"
	"github.com/grimwald/lorelog/internal/api/middleware"
	"github.com/grimwald/lorelog/internal/config"
	"github.com/grimwald/lorelog/internal/content"
	"github.com/grimwald/lorelog/internal/database"
	"github.com/grimwald/lorelog/internal/domain/model"
	"github.com/grimwald/lorelog/internal/repository"
	"github.com/grimwald/lorelog/internal/server"
	"github.com/grimwald/lorelog/internal/service"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Lore Log запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 5. Файловое хранилище контента
	store, err := content.New(cfg.DataDir)
	if err != nil {
		logger.Error("Ошибка инициализации хранилища контента", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Хранилище контента готово", slog.String("data_dir", store.DataDir()))

	// 6. Repositories
	txRunner := repository.NewTxRunner(pool)
	charRepo := repository.NewRecordRepository(model.Characters, pool)
	factionRepo := repository.NewRecordRepository(model.Factions, pool)
	placeRepo := repository.NewRecordRepository(model.Places, pool)
	thingRepo := repository.NewRecordRepository(model.Things, pool)
	chronRecordRepo := repository.NewRecordRepository(model.ChronicleEntries, pool)
	chronRepo := repository.NewChronicleRepository(pool)
	relRepo := repository.NewRelationRepository(repository.CharacterFactions, pool)
	userRepo := repository.NewUserRepository(pool)

	// 7. Services
	charSvc := service.NewCharacterService(
		service.NewResourceService(charRepo, store, logger), logger)
	factionSvc := service.NewFactionService(
		service.NewResourceService(factionRepo, store, logger), logger)
	placeSvc := service.NewPlaceService(
		service.NewResourceService(placeRepo, store, logger), logger)
	thingSvc := service.NewThingService(
		service.NewResourceService(thingRepo, store, logger), logger)
	chronSvc := service.NewChronicleService(
		service.NewResourceService(chronRecordRepo, store, logger),
		chronRepo, userRepo, txRunner, store, logger)
	relSvc := service.NewRelationService(relRepo, charRepo, factionRepo, logger)
	userSvc := service.NewUserService(userRepo, txRunner, []byte(cfg.JWTSecret), cfg.JWTTTL, logger)
	captchaSvc := service.NewCaptchaService(userRepo, logger)

	// 8. Readiness checker и API handler
	healthHandler := handlers.NewHealthHandler(database.NewReadinessChecker(pool))
	apiHandler := handlers.NewAPIHandler(
		healthHandler,
		charSvc,
		factionSvc,
		placeSvc,
		thingSvc,
		chronSvc,
		relSvc,
		userSvc,
		captchaSvc,
		logger,
	)

	// 9. JWT middleware. Principal каждого запроса перепроверяется
	// по базе через UserService.
	jwtAuth := middleware.NewJWTAuth([]byte(cfg.JWTSecret), cfg.JWTLeeway, userSvc, logger)

	// 10. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, apiHandler, jwtAuth)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Lore Log остановлен")
}
