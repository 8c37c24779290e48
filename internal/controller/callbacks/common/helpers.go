package common

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/clinicdesk/availability_bot/internal/model"
	"github.com/clinicdesk/availability_bot/internal/schedule"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Helper functions для всех callback handlers

// AnswerCallback отвечает на callback query (без alert)
func AnswerCallback(ctx context.Context, b *bot.Bot, callbackID string, text string) {
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       false,
	})
}

// AnswerCallbackAlert отвечает на callback query с alert (всплывающее окно)
func AnswerCallbackAlert(ctx context.Context, b *bot.Bot, callbackID string, text string) {
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       true,
	})
}

// IsMessageNotModifiedError Telegram отвечает этой ошибкой, когда текст
// и клавиатура сообщения не изменились. Для нас это не ошибка.
func IsMessageNotModifiedError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "message is not modified")
}

// GetMessageFromCallback извлекает сообщение из callback query
func GetMessageFromCallback(callback *models.CallbackQuery) *models.Message {
	if callback.Message.Message != nil {
		return callback.Message.Message
	}
	return nil
}

// ParseCellFromCallback извлекает (дату, окно) из callback data.
// Например: "cal_open:2024-06-05:SLOT_3" -> 2024-06-05, SLOT_3
func ParseCellFromCallback(data string) (time.Time, model.SlotID, error) {
	parts := strings.Split(data, ":")
	if len(parts) != 3 {
		return time.Time{}, "", fmt.Errorf("parse cell callback: %w", ErrInvalidFormat)
	}

	date, err := time.ParseInLocation(schedule.DateFormat, parts[1], time.UTC)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("parse cell date %q: %w", parts[1], ErrInvalidFormat)
	}

	slotID := model.SlotID(parts[2])
	if !model.IsValidSlotID(slotID) {
		return time.Time{}, "", fmt.Errorf("parse cell slot %q: %w", parts[2], ErrInvalidFormat)
	}

	return date, slotID, nil
}

// ParseDateFromCallback извлекает дату из callback data вида "cal_day:2024-06-05"
func ParseDateFromCallback(data string) (time.Time, error) {
	parts := strings.Split(data, ":")
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("parse date callback: %w", ErrInvalidFormat)
	}

	date, err := time.ParseInLocation(schedule.DateFormat, parts[1], time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", parts[1], ErrInvalidFormat)
	}
	return date, nil
}
