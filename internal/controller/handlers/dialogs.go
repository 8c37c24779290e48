package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// handleAPITokenStep принимает токен доступа и привязывает учётную запись.
// Токен непрозрачный: бот его хранит и подставляет в запросы, не разбирая.
func (h *Handlers) handleAPITokenStep(ctx context.Context, b *bot.Bot, update *models.Update) {
	telegramID := update.Message.From.ID
	token := strings.TrimSpace(update.Message.Text)

	if token == "" {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   "❌ Токен не может быть пустым. Пришлите токен или /cancel.",
		})
		return
	}

	if err := h.userService.LinkAPIToken(ctx, telegramID, token); err != nil {
		h.logger.Error("Failed to link api token",
			zap.Int64("telegram_id", telegramID),
			zap.Error(err))
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   "❌ Не удалось сохранить токен. Попробуйте позже.",
		})
		return
	}

	h.stateManager.ClearState(telegramID)

	// Старая сессия ходила со старым токеном - пересоздаём
	h.sessions.Drop(telegramID)

	// Сообщение с токеном лучше убрать из чата
	b.DeleteMessage(ctx, &bot.DeleteMessageParams{
		ChatID:    update.Message.Chat.ID,
		MessageID: update.Message.ID,
	})

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   "✅ Учётная запись привязана!\n\nОткройте сетку недели: /schedule",
	})
}
