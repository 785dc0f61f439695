// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: вечерние напоминания о серии
// и утреннюю сводку заявок для операторов.
package jobs

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"serotonyl.ru/rewards-bot/internal/common"
	"serotonyl.ru/rewards-bot/internal/features/activity"
)

// digestLimit — сколько заявок печатается в сводке.
const digestLimit = 20

// Telegram режет рассылку быстрее ~30 сообщений в секунду.
const sendsPerSecond = 20

// ReminderSource — участники, которым пора напомнить об отметке.
type ReminderSource interface {
	UsersToRemind(ctx context.Context, yesterday, today time.Time) ([]activity.Reminder, error)
}

// DigestSource — текст сводки заявок. Пустая строка — слать нечего.
type DigestSource interface {
	Digest(ctx context.Context, limit int) (string, error)
}

// Notifier — рассылка операторам.
type Notifier interface {
	Notify(text string) error
}

// Sender — часть *tgbotapi.BotAPI для личных сообщений.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Config — расписания задач. Пустое расписание выключает задачу.
type Config struct {
	ReminderCron     string
	OrdersDigestCron string
}

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron *cron.Cron
	cfg  Config
	loc  *time.Location

	reminders ReminderSource
	digest    DigestSource
	operators Notifier
	sender    Sender
	limiter   *rate.Limiter
}

// NewScheduler создаёт планировщик в часовом поясе loc.
func NewScheduler(cfg Config, loc *time.Location, reminders ReminderSource, digest DigestSource, operators Notifier, sender Sender) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		cfg:       cfg,
		loc:       loc,
		reminders: reminders,
		digest:    digest,
		operators: operators,
		sender:    sender,
		limiter:   rate.NewLimiter(rate.Limit(sendsPerSecond), 1),
	}
}

// Start регистрирует задачи и запускает cron. Некорректное расписание — ошибка.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.cfg.ReminderCron != "" {
		if _, err := s.cron.AddFunc(s.cfg.ReminderCron, func() {
			log.Info("[CRON] Напоминания об огоньке")
			sent, err := s.RunReminders(ctx)
			if err != nil {
				log.WithError(err).Error("[CRON] Ошибка напоминаний")
				return
			}
			log.WithField("sent", sent).Info("[CRON] Напоминания разосланы")
		}); err != nil {
			return fmt.Errorf("REMINDER_CRON %q: %w", s.cfg.ReminderCron, err)
		}
	}

	if s.cfg.OrdersDigestCron != "" {
		if _, err := s.cron.AddFunc(s.cfg.OrdersDigestCron, func() {
			log.Debug("[CRON] Сводка заявок")
			if err := s.RunDigest(ctx); err != nil {
				log.WithError(err).Error("[CRON] Ошибка сводки заявок")
			}
		}); err != nil {
			return fmt.Errorf("ORDERS_DIGEST_CRON %q: %w", s.cfg.OrdersDigestCron, err)
		}
	}

	s.cron.Start()
	log.WithField("tz", s.loc.String()).Info("Планировщик задач запущен")
	return nil
}

// Stop останавливает планировщик и ждёт завершения текущих задач.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}

// RunReminders пишет тем, кто отметился вчера, но не сегодня.
// Ошибка отправки одному участнику не прерывает рассылку.
func (s *Scheduler) RunReminders(ctx context.Context) (int, error) {
	today := common.Today(s.loc)
	list, err := s.reminders.UsersToRemind(ctx, today.AddDate(0, 0, -1), today)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, r := range list {
		if err := s.limiter.Wait(ctx); err != nil {
			return sent, err
		}
		text := fmt.Sprintf("🔥 %s, не потеряй огонек! Отметься сегодня: !отметиться", r.DisplayName)
		if _, err := s.sender.Send(tgbotapi.NewMessage(r.UserID, text)); err != nil {
			log.WithError(err).WithField("user_id", r.UserID).Debug("Не удалось отправить напоминание")
			continue
		}
		sent++
	}
	return sent, nil
}

// RunDigest отправляет операторам сводку ожидающих заявок, если они есть.
func (s *Scheduler) RunDigest(ctx context.Context) error {
	text, err := s.digest.Digest(ctx, digestLimit)
	if err != nil {
		return err
	}
	if text == "" {
		return nil
	}
	return s.operators.Notify(text)
}
