package callbacktypes

import (
	"github.com/clinicdesk/availability_bot/internal/schedule"
	"github.com/clinicdesk/availability_bot/internal/service"
	"go.uber.org/zap"
)

// UserState представляет текущее состояние пользователя в диалоге
type UserState string

// StateManager интерфейс для управления состоянием пользователей
type StateManager interface {
	ClearState(telegramID int64)
	GetState(telegramID int64) UserState
	SetState(telegramID int64, state UserState)
	SetData(telegramID int64, key string, value interface{})
	GetData(telegramID int64, key string) (interface{}, bool)
}

// Handler содержит общие зависимости для всех callback handlers
type Handler struct {
	UserService  *service.UserService
	Sessions     *schedule.Registry
	StateManager StateManager
	Logger       *zap.Logger
}
