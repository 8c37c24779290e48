package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/clinicdesk/availability_bot/internal/app"
	"github.com/clinicdesk/availability_bot/internal/config"
	"github.com/clinicdesk/availability_bot/internal/controller"
	"github.com/clinicdesk/availability_bot/internal/model"
	"github.com/clinicdesk/availability_bot/internal/repository"
	"github.com/clinicdesk/availability_bot/internal/schedule"
	"github.com/clinicdesk/availability_bot/internal/scheduling"
	"github.com/clinicdesk/availability_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	logger.Info("Starting availability bot",
		zap.String("environment", cfg.Environment),
		zap.String("scheduling_api", cfg.SchedulingAPIURL))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Подключаемся к базе
	pool, err := pgxpool.New(ctx, cfg.GetDBDSN())
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("Failed to ping database", zap.Error(err))
	}

	// Применяем миграции
	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	if err := migrator.Close(); err != nil {
		logger.Warn("Failed to close migrator", zap.Error(err))
	}

	// Репозитории и сервисы
	userRepo := repository.NewUserRepository(pool)
	userService := service.NewUserService(userRepo, logger)

	// Общий HTTP клиент для всех сессий
	httpClient := &http.Client{Timeout: cfg.APITimeout}

	// Фабрика сессий календаря: каждому врачу свой клиент со своим токеном.
	// Токен перечитывается из базы на каждый вызов, чтобы /link действовал
	// без пересоздания сессии.
	factory := func(user *model.User) (*schedule.Session, error) {
		telegramID := user.TelegramID

		client, err := scheduling.New(scheduling.Config{
			BaseURL: cfg.SchedulingAPIURL,
			Token: func(ctx context.Context) (string, error) {
				return userService.APIToken(ctx, telegramID)
			},
			HTTPClient: httpClient,
		})
		if err != nil {
			return nil, err
		}

		return schedule.NewSession(schedule.SessionConfig{
			API:            client,
			ReconcileDelay: cfg.ReconcileDelay,
			Logger:         logger,
		}), nil
	}

	sessions := schedule.NewRegistry(factory)

	// Фоновая очистка неактивных сессий
	reaper := app.NewReaper(sessions, cfg.SessionTTL, logger)
	reaper.Start(ctx)
	defer reaper.Stop()

	// Telegram бот
	b, err := bot.New(cfg.TelegramToken)
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	botController := controller.NewBotController(b, userService, sessions, logger)
	if err := botController.RegisterHandlers(ctx); err != nil {
		logger.Fatal("Failed to register handlers", zap.Error(err))
	}

	if err := botController.Start(ctx); err != nil {
		logger.Fatal("Bot stopped with error", zap.Error(err))
	}

	logger.Info("Bot stopped")
}
