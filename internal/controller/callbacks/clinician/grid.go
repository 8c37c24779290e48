package clinician

import (
	"fmt"
	"time"

	"github.com/clinicdesk/availability_bot/internal/model"
	"github.com/clinicdesk/availability_bot/internal/schedule"
	"github.com/go-telegram/bot/models"
)

// ========================
// Callback Data Patterns
// ========================

const (
	CalShow     = "cal_show"
	CalPrev     = "cal_prev"
	CalNext     = "cal_next"
	CalToday    = "cal_today"
	CalOpen     = "cal_open:"      // cal_open:2024-06-05:SLOT_3
	CalClose    = "cal_close:"     // cal_close:2024-06-05:SLOT_3 (экран подтверждения)
	CalCloseYes = "cal_close_yes:" // cal_close_yes:2024-06-05:SLOT_3
	CalBusy     = "cal_busy:"      // cal_busy:2024-06-05:SLOT_3
	CalDay      = "cal_day:"       // cal_day:2024-06-05
	CalDayOpen  = "cal_day_open:"  // cal_day_open:2024-06-05
)

// Глифы статусов в ячейках сетки
const (
	glyphOpenable = "⚪" // Empty, будущая дата: можно открыть
	glyphReserved = "🟢" // Reserved: открыт для записи
	glyphBusy     = "🔴" // Busy: занят пациентом
	glyphPast     = "▫️" // Empty, прошедшая дата: неактивна
)

var weekdayShort = [7]string{"Пн", "Вт", "Ср", "Чт", "Пт", "Сб", "Вс"}

// WeekKeyboard строит сетку недели: строка заголовков дней,
// 12 строк окон приёма по 7 ячеек и строка навигации.
// Чистая функция от (окно, хранилище, сегодня) — удобно тестировать.
func WeekKeyboard(w schedule.Window, store *schedule.Store, today time.Time) *models.InlineKeyboardMarkup {
	days := w.Days()

	var buttons [][]models.InlineKeyboardButton

	// Заголовки дней: нажатие открывает экран дня
	header := make([]models.InlineKeyboardButton, 0, len(days))
	for _, day := range days {
		label := fmt.Sprintf("%s %s", weekdayShort[weekdayIndex(day)], day.Format("02.01"))
		if day.Equal(schedule.DateOf(today)) {
			label = "📍" + label
		}
		header = append(header, models.InlineKeyboardButton{
			Text:         label,
			CallbackData: CalDay + day.Format(schedule.DateFormat),
		})
	}
	buttons = append(buttons, header)

	// 12 строк окон приёма
	for _, def := range model.SlotCatalog {
		row := make([]models.InlineKeyboardButton, 0, len(days))
		for _, day := range days {
			row = append(row, cellButton(store.Find(day, def.ID), day, today))
		}
		buttons = append(buttons, row)
	}

	// Навигация по неделям
	buttons = append(buttons, []models.InlineKeyboardButton{
		{Text: "⬅️ Пред. неделя", CallbackData: CalPrev},
		{Text: "Сегодня", CallbackData: CalToday},
		{Text: "След. неделя ➡️", CallbackData: CalNext},
	})

	return &models.InlineKeyboardMarkup{InlineKeyboard: buttons}
}

// cellButton отображает статус слота в одну из четырёх взаимоисключающих
// ячеек: открыть / закрыть (с подтверждением) / занято / прошло
func cellButton(slot *model.ScheduleSlot, day, today time.Time) models.InlineKeyboardButton {
	cell := day.Format(schedule.DateFormat) + ":" + string(slot.SlotID)

	switch {
	case slot.Status == model.SlotStatusBusy:
		return models.InlineKeyboardButton{Text: glyphBusy, CallbackData: CalBusy + cell}
	case slot.Status == model.SlotStatusReserved:
		return models.InlineKeyboardButton{Text: glyphReserved, CallbackData: CalClose + cell}
	case day.Before(schedule.DateOf(today)):
		// Прошедший пустой слот: без действия
		return models.InlineKeyboardButton{Text: glyphPast, CallbackData: "noop"}
	default:
		return models.InlineKeyboardButton{Text: glyphOpenable, CallbackData: CalOpen + cell}
	}
}

// WeekCaption заголовок сообщения с сеткой: период недели и сводка.
// Счётчики берутся из хранилища на лету.
func WeekCaption(w schedule.Window, store *schedule.Store) string {
	days := w.Days()

	return fmt.Sprintf(
		"🗓 <b>Моя неделя: %s — %s</b>\n\n"+
			"🟢 Открыто для записи: %d\n"+
			"🔴 Занято пациентами: %d\n\n"+
			"⚪ свободно · 🟢 открыт · 🔴 занят · ▫️ прошло\n"+
			"Строки: окна 1-6 — утро (07:30-12:00), 7-12 — день (12:45-17:15).\n"+
			"Нажмите на день, чтобы увидеть окна списком.",
		days[0].Format("02.01"),
		days[6].Format("02.01"),
		store.CountByStatus(model.SlotStatusReserved),
		store.CountByStatus(model.SlotStatusBusy),
	)
}

// DayKeyboard экран одного дня: 12 окон списком с временем приёма
// и действие "открыть весь день"
func DayKeyboard(day time.Time, store *schedule.Store, today time.Time) *models.InlineKeyboardMarkup {
	var buttons [][]models.InlineKeyboardButton

	hasOpenable := false
	for _, def := range model.SlotCatalog {
		slot := store.Find(day, def.ID)
		btn := cellButton(slot, day, today)
		if slot.Status == model.SlotStatusEmpty && !day.Before(schedule.DateOf(today)) {
			hasOpenable = true
		}
		btn.Text = fmt.Sprintf("%s %s", btn.Text, def.DisplayRange)
		if slot.Status == model.SlotStatusBusy && slot.Appointment != nil {
			btn.Text += " • " + slot.Appointment.PatientName
		}
		buttons = append(buttons, []models.InlineKeyboardButton{btn})
	}

	if hasOpenable {
		buttons = append(buttons, []models.InlineKeyboardButton{
			{Text: "✅ Открыть весь день", CallbackData: CalDayOpen + day.Format(schedule.DateFormat)},
		})
	}

	buttons = append(buttons, []models.InlineKeyboardButton{
		{Text: "⬅️ Назад к неделе", CallbackData: CalShow},
	})

	return &models.InlineKeyboardMarkup{InlineKeyboard: buttons}
}

// DayCaption заголовок экрана дня
func DayCaption(day time.Time) string {
	return fmt.Sprintf("📅 <b>Окна приёма на %s, %s</b>\n\nНажмите на окно, чтобы открыть или закрыть его.",
		day.Format("02.01.2006"),
		weekdayShort[weekdayIndex(day)])
}

// weekdayIndex понедельник = 0 ... воскресенье = 6
func weekdayIndex(day time.Time) int {
	idx := int(day.Weekday()) - 1
	if day.Weekday() == time.Sunday {
		idx = 6
	}
	return idx
}
