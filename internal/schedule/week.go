package schedule

import "time"

// DateFormat формат календарной даты в callback data и в API сервиса
const DateFormat = "2006-01-02"

// DateOf нормализует момент времени до календарной даты (полночь UTC).
// Все даты в пакете — календарные дни, не моменты, поэтому DST не влияет.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// WeekStart возвращает понедельник недели, содержащей date.
// Воскресенье откатывается на 6 дней назад, остальные дни на weekday-1.
func WeekStart(date time.Time) time.Time {
	d := DateOf(date)

	daysSinceMonday := int(d.Weekday()) - 1
	if d.Weekday() == time.Sunday {
		daysSinceMonday = 6
	}

	return d.AddDate(0, 0, -daysSinceMonday)
}

// Window отображаемая неделя: 7 дней начиная с понедельника
type Window struct {
	Start time.Time
}

// NewWindow создаёт окно недели, содержащей date
func NewWindow(date time.Time) Window {
	return Window{Start: WeekStart(date)}
}

// Days возвращает 7 последовательных дат недели
func (w Window) Days() [7]time.Time {
	var days [7]time.Time
	for i := range days {
		days[i] = w.Start.AddDate(0, 0, i)
	}
	return days
}

// End первый день следующей недели (исключающая граница)
func (w Window) End() time.Time {
	return w.Start.AddDate(0, 0, 7)
}

// Next окно следующей недели
func (w Window) Next() Window {
	return Window{Start: w.Start.AddDate(0, 0, 7)}
}

// Previous окно предыдущей недели
func (w Window) Previous() Window {
	return Window{Start: w.Start.AddDate(0, 0, -7)}
}

// Contains дата попадает в окно
func (w Window) Contains(date time.Time) bool {
	d := DateOf(date)
	return !d.Before(w.Start) && d.Before(w.End())
}
