// Package calendar — service.go: активность за месяц для команды !календарь.
package calendar

import (
	"context"
	"time"

	"serotonyl.ru/rewards-bot/internal/common"
)

// Month — активность участника за месяц.
type Month struct {
	Year   int
	Month  time.Month
	Days   map[int]bool
	Active int // Сколько дней с отметкой
}

// Service отдаёт календарь активности.
type Service struct {
	projector *Projector
	loc       *time.Location
}

func NewService(projector *Projector, loc *time.Location) *Service {
	return &Service{projector: projector, loc: loc}
}

// GetMonthActivity — карта активности за year-month.
func (s *Service) GetMonthActivity(ctx context.Context, memberID int64, year, month int) (*Month, error) {
	days, err := s.projector.ProjectMonth(ctx, memberID, year, month)
	if err != nil {
		return nil, err
	}
	res := &Month{Year: year, Month: time.Month(month), Days: days}
	for _, ok := range days {
		if ok {
			res.Active++
		}
	}
	return res, nil
}

// CurrentMonth — год и месяц сегодняшнего дня по местному календарю.
func (s *Service) CurrentMonth() (int, int) {
	today := common.Today(s.loc)
	return today.Year(), int(today.Month())
}
