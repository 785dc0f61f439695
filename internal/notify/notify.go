// Package notify шлёт служебные сообщения операторам из ADMIN_IDS.
package notify

import (
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/rewards-bot/internal/metrics"
)

// Sender — часть *tgbotapi.BotAPI, которой достаточно для отправки.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Operators рассылает сообщения всем операторам.
type Operators struct {
	bot      Sender
	adminIDs []int64
}

func NewOperators(bot Sender, adminIDs []int64) *Operators {
	return &Operators{bot: bot, adminIDs: adminIDs}
}

// Notify отправляет text каждому оператору. Ошибка одного не мешает остальным;
// все ошибки возвращаются вместе.
func (o *Operators) Notify(text string) error {
	var errs []error
	for _, id := range o.adminIDs {
		if _, err := o.bot.Send(tgbotapi.NewMessage(id, text)); err != nil {
			metrics.OperatorNotifyFailuresTotal.Inc()
			log.WithError(err).WithField("admin_id", id).Warn("Не удалось уведомить оператора")
			errs = append(errs, fmt.Errorf("оператор %d: %w", id, err))
		}
	}
	return errors.Join(errs...)
}
