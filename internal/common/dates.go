// Package common — dates.go работает с календарными днями.
//
// День хранится как полночь UTC соответствующей даты. Так AddDate(0, 0, -1)
// корректно переходит через границы месяца и года, не зависит от перехода
// на летнее время и один в один ложится в колонку DATE.
package common

import (
	"fmt"
	"time"
)

// Day возвращает календарный день year-month-day.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DayOf возвращает календарный день, на который приходится момент t в поясе loc.
func DayOf(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	return Day(t.Year(), t.Month(), t.Day())
}

// Today — сегодняшний день в поясе loc.
func Today(loc *time.Location) time.Time {
	return DayOf(time.Now(), loc)
}

// DaysInMonth возвращает число дней в месяце с учётом високосного февраля.
func DaysInMonth(year int, month time.Month) int {
	// Нулевой день следующего месяца — последний день текущего.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ValidateMonth проверяет, что такой месяц существует. Значения не подрезаются.
func ValidateMonth(year, month int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: месяц %d", ErrInvalidMonth, month)
	}
	if year < 1 || year > 9999 {
		return fmt.Errorf("%w: год %d", ErrInvalidMonth, year)
	}
	return nil
}

// FormatDay форматирует день как "02.01.2006".
func FormatDay(day time.Time) string {
	return day.Format("02.01.2006")
}

// FormatDateTime форматирует момент как "02.01.2006 15:04" в поясе loc.
func FormatDateTime(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format("02.01.2006 15:04")
}
