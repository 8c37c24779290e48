package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/clinicdesk/availability_bot/internal/controller/callbacks/clinician"
	"github.com/clinicdesk/availability_bot/internal/controller/state"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleStart обрабатывает команду /start
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	user := update.Message.From

	// Регистрируем пользователя
	registeredUser, err := h.userService.RegisterUser(
		ctx,
		user.ID,
		user.Username,
		user.FirstName,
		user.LastName,
		user.LanguageCode,
	)

	if err != nil {
		h.logger.Error("Failed to register user", zap.Error(err))
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   "❌ Произошла ошибка при регистрации. Попробуйте позже.",
		})
		return
	}

	welcomeText := fmt.Sprintf(
		"👋 Здравствуйте, %s!\n\n"+
			"Это бот управления вашим расписанием приёма в клинике.\n\n"+
			"Доступные команды:\n"+
			"/schedule - Сетка недели: открыть и закрыть окна приёма\n"+
			"/link - Привязать учётную запись клиники\n"+
			"/help - Справка",
		registeredUser.FirstName,
	)

	if !registeredUser.IsLinked() {
		welcomeText += "\n\n🔑 Начните с привязки учётной записи: /link"
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   welcomeText,
	})
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	helpText := "📚 Справка по командам:\n\n" +
		"/start - Начать работу с ботом\n" +
		"/schedule - Сетка недели с окнами приёма\n" +
		"/link - Привязать учётную запись клиники\n" +
		"/cancel - Отменить текущую операцию\n" +
		"/help - Показать эту справку\n\n" +
		"В сетке недели:\n" +
		"⚪ свободное окно - нажмите, чтобы открыть его для записи\n" +
		"🟢 открытое окно - нажмите, чтобы закрыть (с подтверждением)\n" +
		"🔴 окно занято пациентом - только просмотр\n" +
		"▫️ прошедшее окно - неактивно"

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   helpText,
	})
}

// HandleSchedule обрабатывает команду /schedule - сетка недели
func (h *Handlers) HandleSchedule(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireLinked(ctx, b, update)
	if !ok {
		return
	}

	session, err := h.sessions.GetOrCreate(user)
	if err != nil {
		h.logger.Error("Failed to create schedule session",
			zap.Int64("telegram_id", user.TelegramID),
			zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Произошла ошибка. Попробуйте позже.")
		return
	}

	// Первая загрузка блокирующая: её ошибка показывается на весь экран
	if err := session.EnsureLoaded(ctx); err != nil {
		h.logger.Error("Initial week load failed",
			zap.Int64("telegram_id", user.TelegramID),
			zap.Error(err))
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   "⚠️ Не удалось загрузить расписание из клиники. Попробуйте ещё раз: /schedule",
		})
		return
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      update.Message.Chat.ID,
		Text:        clinician.WeekCaption(session.Window(), session.Store()),
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: clinician.WeekKeyboard(session.Window(), session.Store(), session.Today()),
	})
}

// HandleLink обрабатывает команду /link - привязка учётной записи клиники
func (h *Handlers) HandleLink(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	h.stateManager.SetState(user.TelegramID, state.StateAwaitingAPIToken)

	text := "🔑 Пришлите токен доступа из личного кабинета клиники.\n\n" +
		"Токен выдаёт администратор клиники. Отменить: /cancel"
	if user.IsLinked() {
		text = "🔑 Учётная запись уже привязана. Пришлите новый токен, чтобы заменить её.\n\nОтменить: /cancel"
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   text,
	})
}

// HandleCancel обрабатывает команду /cancel - отмена текущего диалога
func (h *Handlers) HandleCancel(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	telegramID := update.Message.From.ID
	currentState := h.stateManager.GetState(telegramID)

	if currentState == state.StateNone {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   "❌ Нет активных операций для отмены.",
		})
		return
	}

	// Очищаем состояние
	h.stateManager.ClearState(telegramID)

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   "✅ Операция отменена.\n\nИспользуйте /help для просмотра доступных команд.",
	})
}

// HandleTextMessage обрабатывает текстовые сообщения в зависимости от состояния пользователя
func (h *Handlers) HandleTextMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}

	// Игнорируем команды (они обрабатываются другими handlers)
	if strings.HasPrefix(update.Message.Text, "/") {
		return
	}

	telegramID := update.Message.From.ID
	currentState := h.stateManager.GetState(telegramID)

	// Если нет активного состояния, игнорируем
	if currentState == state.StateNone {
		return
	}

	switch currentState {
	case state.StateAwaitingAPIToken:
		h.handleAPITokenStep(ctx, b, update)
	default:
		h.logger.Warn("Unknown state", zap.String("state", string(currentState)))
	}
}
