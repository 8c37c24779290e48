package callbacks

import (
	"context"
	"strings"

	"github.com/clinicdesk/availability_bot/internal/controller/callbacks/callbacktypes"
	"github.com/clinicdesk/availability_bot/internal/controller/callbacks/clinician"
	"github.com/clinicdesk/availability_bot/internal/controller/callbacks/common"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// ========================
// Main Callback Router
// ========================

// Route распределяет callback query по соответствующим обработчикам
func Route(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	data := callback.Data

	h.Logger.Info("Routing callback",
		zap.String("data", data),
		zap.Int64("user_id", callback.From.ID),
		zap.String("user_name", callback.From.FirstName))

	switch {
	case data == "noop":
		// No operation - просто подтверждаем callback
		common.AnswerCallback(ctx, b, callback.ID, "")

	// ===== Weekly Grid =====
	case data == clinician.CalShow:
		clinician.HandleShowWeek(ctx, b, callback, h)
	case data == clinician.CalPrev, data == clinician.CalNext, data == clinician.CalToday:
		clinician.HandleNav(ctx, b, callback, h)
	case strings.HasPrefix(data, clinician.CalOpen):
		clinician.HandleCellOpen(ctx, b, callback, h)
	case strings.HasPrefix(data, clinician.CalCloseYes):
		clinician.HandleCloseYes(ctx, b, callback, h)
	case strings.HasPrefix(data, clinician.CalClose):
		clinician.HandleCloseConfirm(ctx, b, callback, h)
	case strings.HasPrefix(data, clinician.CalBusy):
		clinician.HandleBusyInfo(ctx, b, callback, h)
	case strings.HasPrefix(data, clinician.CalDayOpen):
		clinician.HandleDayOpen(ctx, b, callback, h)
	case strings.HasPrefix(data, clinician.CalDay):
		clinician.HandleDay(ctx, b, callback, h)

	default:
		h.Logger.Warn("Unknown callback data", zap.String("data", data))
		common.AnswerCallback(ctx, b, callback.ID, "")
	}
}

// Handler обёртка для регистрации в боте
type Handler struct {
	deps *callbacktypes.Handler
}

// NewHandler создаёт callback handler с зависимостями
func NewHandler(deps *callbacktypes.Handler) *Handler {
	return &Handler{deps: deps}
}

// HandleCallbackQuery входная точка всех нажатий inline кнопок
func (h *Handler) HandleCallbackQuery(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}
	Route(ctx, b, update.CallbackQuery, h.deps)
}
