// Package bot принимает апдейты Telegram и раздаёт их обработчикам фич.
// bot.go держит цикл polling, ограничение параллелизма и маршрутизацию.
package bot

import (
	"context"
	"slices"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/rewards-bot/internal/bot/filters"
	"serotonyl.ru/rewards-bot/internal/bot/middleware"
	"serotonyl.ru/rewards-bot/internal/common"
	"serotonyl.ru/rewards-bot/internal/config"
	"serotonyl.ru/rewards-bot/internal/features/activity"
	"serotonyl.ru/rewards-bot/internal/features/admin"
	"serotonyl.ru/rewards-bot/internal/features/calendar"
	"serotonyl.ru/rewards-bot/internal/features/economy"
	"serotonyl.ru/rewards-bot/internal/features/members"
	"serotonyl.ru/rewards-bot/internal/features/rewards"
	"serotonyl.ru/rewards-bot/internal/features/streak"
)

// Deps — сервисы и обработчики, которые нужны маршрутизатору.
type Deps struct {
	Gate *filters.Gate

	Members *members.Service
	Economy *economy.Service

	Activity *activity.Handler
	Streak   *streak.Handler
	Rewards  *rewards.Handler
	Calendar *calendar.Handler
	Wallet   *economy.Handler
	Admin    *admin.Handler
}

// Bot — цикл обработки апдейтов.
type Bot struct {
	api *tgbotapi.BotAPI
	cfg *config.Config
	loc *time.Location
	d   Deps

	rateLimiter *middleware.RateLimiter
	parser      *CommandParser

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// New создаёт бота. Rate limiter гасится, когда Start возвращается.
func New(api *tgbotapi.BotAPI, cfg *config.Config, loc *time.Location, d Deps) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:         api,
		cfg:         cfg,
		loc:         loc,
		d:           d,
		rateLimiter: middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		parser:      NewCommandParser(),
		inflight:    make(chan struct{}, maxInFlight),
	}
}

// Start читает апдейты до отмены ctx. Возвращается, когда все
// запущенные обработчики завершились.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds
	u.AllowedUpdates = []string{"message", "callback_query"}

	updates := b.api.GetUpdatesChan(u)

	log.WithFields(log.Fields{
		"max_inflight": cap(b.inflight),
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	defer b.drain()

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			b.api.StopReceivingUpdates()
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				return
			}

			// лимит параллелизма
			select {
			case b.inflight <- struct{}{}:
			case <-ctx.Done():
				b.api.StopReceivingUpdates()
				return
			}
			go func(upd tgbotapi.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// drain ждёт, пока освободятся все слоты обработчиков, и гасит rate limiter.
func (b *Bot) drain() {
	for i := 0; i < cap(b.inflight); i++ {
		b.inflight <- struct{}{}
	}
	b.rateLimiter.Close()
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer middleware.RecoverFromPanic()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.Text != "":
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.From == nil || message.Chat == nil || message.From.IsBot {
		return
	}
	middleware.LogMessage(message)

	chatID := message.Chat.ID
	userID := message.From.ID

	if !b.rateLimiter.Allow(userID) {
		log.WithField("user_id", userID).Debug("rate limited")
		return
	}

	cmd, args, isCommand := b.parser.ParseCommand(message.Text)
	// Вне лички отвечаем только на команды, чтобы не проверять подписку на каждое сообщение чата.
	if !isCommand && !message.Chat.IsPrivate() {
		return
	}

	if !b.allowed(chatID, userID) {
		return
	}

	member, ok := b.resolveMember(ctx, message.From)
	if !ok {
		b.sendMessage(chatID, "❌ Внутренняя ошибка, попробуй позже")
		return
	}
	if member.IsBanned {
		return
	}

	if message.Chat.IsPrivate() {
		if b.d.Admin.HandleAdminMessage(ctx, chatID, userID, message.Text) {
			return
		}
	}

	if !isCommand {
		return
	}

	log.WithFields(log.Fields{
		"cmd":       cmd,
		"args":      args,
		"member_id": member.ID,
	}).Debug("routing command")
	b.routeCommand(ctx, chatID, member, cmd, args)
}

// routeCommand маршрутизирует команду к нужному обработчику.
func (b *Bot) routeCommand(ctx context.Context, chatID int64, m *members.Member, cmd string, args []string) {
	switch cmd {
	case cmdHelp:
		b.sendMessage(chatID, helpText)

	case cmdCheckin:
		b.d.Activity.HandleCheckin(ctx, chatID, m.ID)

	case cmdStreak:
		b.d.Streak.HandleOgonek(ctx, chatID, m.ID)

	case cmdRewards:
		b.d.Rewards.HandleList(ctx, chatID, m.ID)

	case cmdTier:
		b.d.Rewards.HandleEvaluate(ctx, chatID, m.ID, args)

	case cmdClaim:
		b.d.Rewards.HandleClaimCommand(ctx, chatID, m, args)

	case cmdCalendar:
		if b.cfg.FeatureCalendarEnabled {
			b.d.Calendar.HandleCalendar(ctx, chatID, m.ID, args)
		} else {
			b.sendMessage(chatID, "📅 Календарь временно отключён")
		}

	case cmdBalance:
		b.d.Wallet.HandleBalance(ctx, chatID, m.ID)

	case cmdTransactions:
		b.d.Wallet.HandleTransactions(ctx, chatID, m.ID)
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.From == nil {
		return
	}
	middleware.LogCallback(cb)

	if !b.rateLimiter.Allow(cb.From.ID) {
		b.answerCallback(cb.ID, "⏳ Слишком часто, подожди немного")
		return
	}
	if !strings.HasPrefix(cb.Data, rewards.CallbackPrefix) {
		b.answerCallback(cb.ID, "")
		return
	}

	chatID := cb.From.ID
	if cb.Message != nil && cb.Message.Chat != nil {
		chatID = cb.Message.Chat.ID
	}
	if !b.allowed(chatID, cb.From.ID) {
		b.answerCallback(cb.ID, "")
		return
	}

	member, ok := b.resolveMember(ctx, cb.From)
	if !ok {
		b.answerCallback(cb.ID, "❌ Внутренняя ошибка")
		return
	}
	if member.IsBanned {
		b.answerCallback(cb.ID, "")
		return
	}
	b.d.Rewards.HandleClaimCallback(ctx, cb, member)
}

// allowed проверяет подписку на обязательный канал. Операторы проходят без проверки.
func (b *Bot) allowed(chatID, userID int64) bool {
	if slices.Contains(b.cfg.AdminIDs, userID) {
		return true
	}
	ok, err := b.d.Gate.IsSubscribed(userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Не удалось проверить подписку")
		b.sendMessage(chatID, "❌ Не получилось проверить подписку на канал, попробуй позже")
		return false
	}
	if !ok {
		b.sendMessage(chatID, "📢 Бот доступен только подписчикам канала. Подпишись и попробуй снова")
	}
	return ok
}

// resolveMember находит участника по Telegram ID, регистрируя его при первом обращении.
func (b *Bot) resolveMember(ctx context.Context, from *tgbotapi.User) (*members.Member, bool) {
	displayName := strings.TrimSpace(from.FirstName + " " + from.LastName)
	m, err := b.d.Members.GetOrCreate(ctx, from.ID, displayName, from.UserName, common.Today(b.loc))
	if err != nil {
		log.WithError(err).WithField("user_id", from.ID).Error("GetOrCreate failed")
		return nil, false
	}
	if err := b.d.Economy.EnsureBalance(ctx, m.ID); err != nil {
		log.WithError(err).WithField("member_id", m.ID).Warn("EnsureBalance failed")
	}
	return m, true
}

// sendMessage — утилита для отправки сообщений.
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

func (b *Bot) answerCallback(id, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(id, text)); err != nil {
		log.WithError(err).Debug("Ошибка ответа на callback")
	}
}
