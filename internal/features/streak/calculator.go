package streak

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/rewards-bot/internal/common"
)

// DefaultMaxWalkDays — сколько дней назад максимум смотрит Length.
const DefaultMaxWalkDays = 3660

// Calculator выводит длину серии из отметок.
type Calculator struct {
	days    DayChecker
	loc     *time.Location
	maxWalk int
	now     func() time.Time
}

// NewCalculator создаёт калькулятор. maxWalk <= 0 — DefaultMaxWalkDays.
func NewCalculator(days DayChecker, loc *time.Location, maxWalk int) *Calculator {
	if maxWalk <= 0 {
		maxWalk = DefaultMaxWalkDays
	}
	return &Calculator{days: days, loc: loc, maxWalk: maxWalk, now: time.Now}
}

// Length возвращает длину непрерывной серии отметок, заканчивающейся в ref.
// Идём назад по одному дню до первого пропуска. Нет отметки в ref — 0.
// Ошибка хранилища возвращается как есть, а не превращается в ноль.
func (c *Calculator) Length(ctx context.Context, memberID int64, ref time.Time) (int, error) {
	day := common.Day(ref.Date())
	n := 0
	for n < c.maxWalk {
		ok, err := c.days.Exists(ctx, memberID, day)
		if err != nil {
			return 0, fmt.Errorf("стрик участника %d на %s: %w", memberID, common.FormatDay(day), err)
		}
		if !ok {
			break
		}
		n++
		day = day.AddDate(0, 0, -1)
	}
	if n == c.maxWalk {
		log.WithFields(log.Fields{
			"member_id": memberID,
			"max_walk":  c.maxWalk,
		}).Warn("Огонек упёрся в STREAK_MAX_WALK_DAYS, настоящая серия может быть длиннее")
	}
	return n, nil
}

// Current — серия на сегодня по местному календарю.
func (c *Calculator) Current(ctx context.Context, memberID int64) (int, error) {
	return c.Length(ctx, memberID, common.DayOf(c.now(), c.loc))
}

// Today — сегодняшний день по местному календарю.
func (c *Calculator) Today() time.Time {
	return common.DayOf(c.now(), c.loc)
}
