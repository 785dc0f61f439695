// Package common содержит общие утилиты, используемые во всём проекте:
// русская плюрализация, форматирование сумм, работа с календарными днями.
package common

import (
	"fmt"
	"strconv"
)

// Pluralize выбирает форму слова для числа n по правилам русского языка.
//
//   - n%10==1 и n%100!=11 → one (1, 21, 101)
//   - n%10 в [2,4] и n%100 не в [12,14] → few (2, 3, 24)
//   - остальное → many (0, 5-20, 25, 100)
func Pluralize(n int64, one, few, many string) string {
	if n < 0 {
		n = -n
	}
	lastDigit := n % 10
	lastTwoDigits := n % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return one
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return few
	}
	return many
}

// PluralizeFilms возвращает форму слова «пленка» для числа n.
func PluralizeFilms(n int64) string {
	return Pluralize(n, "пленка", "пленки", "пленок")
}

// PluralizeDays возвращает форму слова «день» для числа n.
func PluralizeDays(n int) string {
	return Pluralize(int64(n), "день", "дня", "дней")
}

// FormatBalance форматирует баланс: FormatBalance(150) → "150 пленок".
func FormatBalance(balance int64) string {
	return fmt.Sprintf("%d %s", balance, PluralizeFilms(balance))
}

// FormatDecimal печатает сумму без лишних нулей: 15 → "15", 0.5 → "0.5".
func FormatDecimal(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
