// Package streak считает огонек: сколько дней подряд участник отмечается.
// Значение не хранится в базе, а каждый раз выводится из отметок.
package streak

import (
	"context"
	"time"
)

// DayChecker — есть ли у участника отметка за день. Реализуется activity.Repository.
type DayChecker interface {
	Exists(ctx context.Context, memberID int64, day time.Time) (bool, error)
}

// Goal — ближайшая ещё не полученная награда.
type Goal struct {
	RequiredDays int
	Title        string
}
