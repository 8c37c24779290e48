package common

import (
	"errors"

	"github.com/clinicdesk/availability_bot/internal/schedule"
	"github.com/clinicdesk/availability_bot/internal/scheduling"
)

// Общие ошибки для обработчиков
var (
	ErrUserNotFound  = errors.New("user not found")
	ErrNotLinked     = errors.New("clinic account is not linked")
	ErrNoMessage     = errors.New("no message in callback")
	ErrInvalidFormat = errors.New("invalid callback format")
)

// ErrorMessage возвращает пользовательское сообщение для ошибки.
// Локальные отказы валидации получают свой текст; для ошибки сервера
// показывается его текст дословно, а без текста — общая заглушка.
func ErrorMessage(err error) string {
	var apiErr *scheduling.APIError

	switch {
	case errors.Is(err, ErrUserNotFound):
		return "❌ Пользователь не найден. Используйте /start"
	case errors.Is(err, ErrNotLinked):
		return "❌ Сначала привяжите учётную запись клиники: /link"
	case errors.Is(err, ErrNoMessage):
		return "❌ Ошибка обработки сообщения"
	case errors.Is(err, ErrInvalidFormat):
		return "❌ Неверный формат данных"
	case errors.Is(err, schedule.ErrPastDate):
		return "⛔ Нельзя открыть слот на прошедшую дату"
	case errors.Is(err, schedule.ErrAlreadyOpen):
		return "Слот уже открыт"
	case errors.Is(err, schedule.ErrNotOpen):
		return "Слот уже закрыт"
	case errors.Is(err, schedule.ErrMutationInFlight):
		return "⏳ Предыдущая операция ещё выполняется"
	case errors.Is(err, schedule.ErrUnknownSlot):
		return "❌ Неизвестное окно приёма"
	case errors.As(err, &apiErr):
		if apiErr.Message != "" {
			return "❌ " + apiErr.Message
		}
		return "❌ Сервис расписания не смог выполнить операцию"
	default:
		return "❌ Произошла ошибка"
	}
}
