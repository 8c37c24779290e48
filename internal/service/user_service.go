package service

import (
	"context"
	"fmt"

	"github.com/clinicdesk/availability_bot/internal/model"
	"github.com/clinicdesk/availability_bot/internal/repository"
	"go.uber.org/zap"
)

type UserService struct {
	userRepo *repository.UserRepository
	logger   *zap.Logger
}

func NewUserService(userRepo *repository.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// RegisterUser регистрирует нового пользователя или обновляет данные существующего
func (s *UserService) RegisterUser(ctx context.Context, telegramID int64, username, firstName, lastName, languageCode string) (*model.User, error) {
	existing, err := s.userRepo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	if existing != nil {
		existing.Username = username
		existing.FirstName = firstName
		existing.LastName = lastName
		existing.LanguageCode = languageCode

		if err := s.userRepo.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}

		s.logger.Info("User updated",
			zap.Int64("telegram_id", telegramID),
			zap.String("username", username))

		return existing, nil
	}

	user := &model.User{
		TelegramID:   telegramID,
		Username:     username,
		FirstName:    firstName,
		LastName:     lastName,
		LanguageCode: languageCode,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("User registered",
		zap.Int64("telegram_id", telegramID),
		zap.String("username", username))

	return user, nil
}

// GetByTelegramID получает пользователя по Telegram ID
func (s *UserService) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	return s.userRepo.GetByTelegramID(ctx, telegramID)
}

// LinkAPIToken привязывает токен доступа к сервису расписания
func (s *UserService) LinkAPIToken(ctx context.Context, telegramID int64, token string) error {
	if token == "" {
		return fmt.Errorf("token is empty")
	}

	if err := s.userRepo.UpdateAPIToken(ctx, telegramID, token); err != nil {
		return fmt.Errorf("link api token: %w", err)
	}

	s.logger.Info("API token linked", zap.Int64("telegram_id", telegramID))

	return nil
}

// APIToken возвращает актуальный токен пользователя для сервиса расписания
func (s *UserService) APIToken(ctx context.Context, telegramID int64) (string, error) {
	user, err := s.userRepo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return "", fmt.Errorf("get user: %w", err)
	}
	if user == nil || !user.IsLinked() {
		return "", fmt.Errorf("user %d has no api token", telegramID)
	}
	return user.APIToken, nil
}
