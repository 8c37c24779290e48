package clinician

import (
	"context"
	"fmt"

	"github.com/clinicdesk/availability_bot/internal/controller/callbacks/callbacktypes"
	"github.com/clinicdesk/availability_bot/internal/controller/callbacks/common"
	"github.com/clinicdesk/availability_bot/internal/model"
	"github.com/clinicdesk/availability_bot/internal/schedule"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// ========================
// Weekly Grid Handlers
// ========================

// HandleShowWeek показывает сетку текущей недели (вход с кнопок "назад")
func HandleShowWeek(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	hc := common.NewHandlerContext(ctx, b, callback, h)

	session, ok := requireSession(hc)
	if !ok {
		return
	}

	RenderWeek(hc, session)
	hc.Answer("")
}

// HandleNav листает окно недели. После первой загрузки все
// перечитывания тихие: устаревшая сетка лучше всплывающей ошибки.
func HandleNav(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	hc := common.NewHandlerContext(ctx, b, callback, h)

	session, ok := requireSession(hc)
	if !ok {
		return
	}

	switch callback.Data {
	case CalPrev:
		session.PreviousWeek(ctx)
	case CalNext:
		session.NextWeek(ctx)
	case CalToday:
		session.CurrentWeek(ctx)
	}

	RenderWeek(hc, session)
	hc.Answer("")
}

// HandleCellOpen открывает пустой слот по нажатию на ячейку.
// Открытие дёшево и обратимо, поэтому без подтверждения.
func HandleCellOpen(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	hc := common.NewHandlerContext(ctx, b, callback, h)

	date, slotID, err := common.ParseCellFromCallback(callback.Data)
	if err != nil {
		h.Logger.Error("Failed to parse cell callback", zap.String("data", callback.Data), zap.Error(err))
		hc.AnswerAlert(common.ErrorMessage(err))
		return
	}

	session, ok := requireSession(hc)
	if !ok {
		return
	}

	if err := session.Open(ctx, date, slotID); err != nil {
		hc.AnswerAlert(common.ErrorMessage(err))
		RenderWeek(hc, session)
		return
	}

	RenderWeek(hc, session)
	hc.Answer("✅ Слот открыт")
}

// HandleCloseConfirm показывает подтверждение перед закрытием слота:
// пациент может как раз собираться записаться в него
func HandleCloseConfirm(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	hc := common.NewHandlerContext(ctx, b, callback, h)

	date, slotID, err := common.ParseCellFromCallback(callback.Data)
	if err != nil {
		hc.AnswerAlert(common.ErrorMessage(err))
		return
	}

	def, _ := model.SlotDefinitionByID(slotID)
	cell := date.Format(schedule.DateFormat) + ":" + string(slotID)

	text := fmt.Sprintf(
		"⚠️ <b>Закрыть окно приёма?</b>\n\n"+
			"📅 %s\n🕐 %s\n\n"+
			"Окно исчезнет из записи для пациентов.",
		date.Format("02.01.2006"),
		def.DisplayRange,
	)
	keyboard := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: "✅ Да, закрыть", CallbackData: CalCloseYes + cell}},
			{{Text: "⬅️ Отмена", CallbackData: CalShow}},
		},
	}

	if err := hc.EditMessage(text, keyboard); err != nil {
		h.Logger.Error("Failed to show close confirmation", zap.Error(err))
	}
	hc.Answer("")
}

// HandleCloseYes закрывает слот после подтверждения
func HandleCloseYes(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	hc := common.NewHandlerContext(ctx, b, callback, h)

	date, slotID, err := common.ParseCellFromCallback(callback.Data)
	if err != nil {
		hc.AnswerAlert(common.ErrorMessage(err))
		return
	}

	session, ok := requireSession(hc)
	if !ok {
		return
	}

	if err := session.Close(ctx, date, slotID); err != nil {
		hc.AnswerAlert(common.ErrorMessage(err))
		RenderWeek(hc, session)
		return
	}

	RenderWeek(hc, session)
	hc.Answer("✅ Слот закрыт")
}

// HandleBusyInfo показывает, кем занят слот. Занятые слоты только
// для чтения: сервер владеет ими целиком.
func HandleBusyInfo(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	hc := common.NewHandlerContext(ctx, b, callback, h)

	date, slotID, err := common.ParseCellFromCallback(callback.Data)
	if err != nil {
		hc.AnswerAlert(common.ErrorMessage(err))
		return
	}

	session, ok := requireSession(hc)
	if !ok {
		return
	}

	slot := session.Store().Find(date, slotID)
	if slot.Status == model.SlotStatusBusy && slot.Appointment != nil {
		hc.AnswerAlert(fmt.Sprintf("🔴 Записан пациент: %s", slot.Appointment.PatientName))
		return
	}
	hc.Answer("")
}

// ========================
// Day Screen Handlers
// ========================

// HandleDay показывает окна одного дня списком
func HandleDay(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	hc := common.NewHandlerContext(ctx, b, callback, h)

	day, err := common.ParseDateFromCallback(callback.Data)
	if err != nil {
		hc.AnswerAlert(common.ErrorMessage(err))
		return
	}

	session, ok := requireSession(hc)
	if !ok {
		return
	}

	if err := hc.EditMessage(DayCaption(day), DayKeyboard(day, session.Store(), session.Today())); err != nil {
		h.Logger.Error("Failed to render day screen", zap.Error(err))
	}
	hc.Answer("")
}

// HandleDayOpen открывает все свободные окна дня по одному.
// Каждое окно проходит обычный путь мутатора: со своим откатом
// и своей фоновой сверкой.
func HandleDayOpen(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	hc := common.NewHandlerContext(ctx, b, callback, h)

	day, err := common.ParseDateFromCallback(callback.Data)
	if err != nil {
		hc.AnswerAlert(common.ErrorMessage(err))
		return
	}

	session, ok := requireSession(hc)
	if !ok {
		return
	}

	opened, failed := 0, 0
	for _, def := range model.SlotCatalog {
		slot := session.Store().Find(day, def.ID)
		if slot.Status != model.SlotStatusEmpty {
			continue
		}

		if err := session.Open(ctx, day, def.ID); err != nil {
			failed++
			h.Logger.Warn("Failed to open slot in bulk day open",
				zap.String("date", day.Format(schedule.DateFormat)),
				zap.String("slot_id", string(def.ID)),
				zap.Error(err))
			continue
		}
		opened++
	}

	if err := hc.EditMessage(DayCaption(day), DayKeyboard(day, session.Store(), session.Today())); err != nil {
		h.Logger.Error("Failed to render day screen", zap.Error(err))
	}

	switch {
	case failed > 0:
		hc.AnswerAlert(fmt.Sprintf("Открыто окон: %d, не удалось: %d", opened, failed))
	case opened > 0:
		hc.Answer(fmt.Sprintf("✅ Открыто окон: %d", opened))
	default:
		hc.Answer("Свободных окон на этот день нет")
	}
}

// ========================
// Rendering
// ========================

// RenderWeek перерисовывает сообщение с сеткой недели из хранилища сессии
func RenderWeek(hc *common.HandlerContext, session *schedule.Session) {
	text := WeekCaption(session.Window(), session.Store())
	keyboard := WeekKeyboard(session.Window(), session.Store(), session.Today())

	if err := hc.EditMessage(text, keyboard); err != nil {
		hc.Handler.Logger.Error("Failed to render week grid", zap.Error(err))
	}
}

// requireSession загружает пользователя и его сессию календаря,
// отвечая alert'ом при любом отказе
func requireSession(hc *common.HandlerContext) (*schedule.Session, bool) {
	if err := hc.RequireSession(); err != nil {
		hc.AnswerAlert(common.ErrorMessage(err))
		return nil, false
	}

	if err := hc.Session.EnsureLoaded(hc.Ctx); err != nil {
		// Первая загрузка — единственная, чья ошибка блокирует экран:
		// прежнего состояния ещё нет
		hc.Handler.Logger.Error("Initial week load failed",
			zap.Int64("telegram_id", hc.TelegramID),
			zap.Error(err))
		hc.EditMessage( //nolint:errcheck
			"⚠️ Не удалось загрузить расписание. Попробуйте ещё раз.",
			&models.InlineKeyboardMarkup{InlineKeyboard: [][]models.InlineKeyboardButton{
				{{Text: "🔄 Повторить", CallbackData: CalShow}},
			}},
		)
		hc.Answer("")
		return nil, false
	}

	return hc.Session, true
}
