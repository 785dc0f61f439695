// Package activity — service.go: ежедневная отметка.
package activity

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/rewards-bot/internal/common"
	"serotonyl.ru/rewards-bot/internal/metrics"
)

// Store — то, что нужно сервису от хранилища отметок.
type Store interface {
	PutCheckin(ctx context.Context, memberID int64, day time.Time, kind Kind) (bool, error)
	Exists(ctx context.Context, memberID int64, day time.Time) (bool, error)
}

// Service управляет отметками.
type Service struct {
	store Store
	loc   *time.Location
	now   func() time.Time
}

// NewService создаёт сервис. Дни считаются в часовом поясе loc.
func NewService(store Store, loc *time.Location) *Service {
	return &Service{store: store, loc: loc, now: time.Now}
}

// Checkin отмечает участника за сегодняшний день.
// Повторная отметка в тот же день — не ошибка, просто Created=false.
func (s *Service) Checkin(ctx context.Context, memberID int64) (*CheckinResult, error) {
	day := common.DayOf(s.now(), s.loc)
	created, err := s.store.PutCheckin(ctx, memberID, day, KindDaily)
	if err != nil {
		return nil, err
	}

	if created {
		metrics.CheckinsTotal.Inc()
		log.WithFields(log.Fields{
			"member_id": memberID,
			"day":       common.FormatDay(day),
		}).Info("Новая отметка")
	}
	return &CheckinResult{Day: day, Created: created}, nil
}
