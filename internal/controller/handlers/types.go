package handlers

import (
	"github.com/clinicdesk/availability_bot/internal/controller/state"
	"github.com/clinicdesk/availability_bot/internal/schedule"
	"github.com/clinicdesk/availability_bot/internal/service"
	"go.uber.org/zap"
)

// Handlers содержит все зависимости для обработки команд
type Handlers struct {
	userService  *service.UserService
	sessions     *schedule.Registry
	stateManager *state.Manager
	logger       *zap.Logger
}

// NewHandlers создаёт новый обработчик команд
func NewHandlers(
	userService *service.UserService,
	sessions *schedule.Registry,
	stateManager *state.Manager,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		userService:  userService,
		sessions:     sessions,
		stateManager: stateManager,
		logger:       logger,
	}
}
