// Package calendar показывает, в какие дни месяца участник отмечался.
package calendar

import (
	"context"
	"fmt"
	"time"

	"serotonyl.ru/rewards-bot/internal/common"
)

// DayChecker — есть ли отметка за день.
type DayChecker interface {
	Exists(ctx context.Context, memberID int64, day time.Time) (bool, error)
}

// RangeLister отдаёт дни с отметками за период одним запросом.
// Если хранилище его реализует, Projector обходится без запроса на каждый день.
type RangeLister interface {
	ListDaysInRange(ctx context.Context, memberID int64, from, to time.Time) ([]time.Time, error)
}

// Projector строит карту «день месяца → была ли отметка».
type Projector struct {
	days DayChecker
}

func NewProjector(days DayChecker) *Projector {
	return &Projector{days: days}
}

// ProjectMonth возвращает карту с ключами 1..последний день месяца.
// Несуществующий месяц — common.ErrInvalidMonth, без подрезки значений.
func (p *Projector) ProjectMonth(ctx context.Context, memberID int64, year, month int) (map[int]bool, error) {
	if err := common.ValidateMonth(year, month); err != nil {
		return nil, err
	}
	m := time.Month(month)
	last := common.DaysInMonth(year, m)
	out := make(map[int]bool, last)

	if rl, ok := p.days.(RangeLister); ok {
		for d := 1; d <= last; d++ {
			out[d] = false
		}
		days, err := rl.ListDaysInRange(ctx, memberID, common.Day(year, m, 1), common.Day(year, m, last))
		if err != nil {
			return nil, fmt.Errorf("календарь %04d-%02d: %w", year, month, err)
		}
		for _, day := range days {
			if day.Year() == year && day.Month() == m {
				out[day.Day()] = true
			}
		}
		return out, nil
	}

	for d := 1; d <= last; d++ {
		ok, err := p.days.Exists(ctx, memberID, common.Day(year, m, d))
		if err != nil {
			return nil, fmt.Errorf("календарь %04d-%02d-%02d: %w", year, month, d, err)
		}
		out[d] = ok
	}
	return out, nil
}
