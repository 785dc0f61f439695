// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт БД-пул, репозитории, сервисы, обработчики,
// фильтры и собирает всё в один объект Bot.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/rewards-bot/internal/bot"
	"serotonyl.ru/rewards-bot/internal/bot/filters"
	"serotonyl.ru/rewards-bot/internal/config"
	"serotonyl.ru/rewards-bot/internal/db/postgres"
	"serotonyl.ru/rewards-bot/internal/features/activity"
	"serotonyl.ru/rewards-bot/internal/features/admin"
	"serotonyl.ru/rewards-bot/internal/features/calendar"
	"serotonyl.ru/rewards-bot/internal/features/economy"
	"serotonyl.ru/rewards-bot/internal/features/members"
	"serotonyl.ru/rewards-bot/internal/features/orders"
	"serotonyl.ru/rewards-bot/internal/features/rewards"
	"serotonyl.ru/rewards-bot/internal/features/streak"
	"serotonyl.ru/rewards-bot/internal/jobs"
	"serotonyl.ru/rewards-bot/internal/metrics"
	"serotonyl.ru/rewards-bot/internal/notify"
)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	DB        *pgxpool.Pool
	BotAPI    *tgbotapi.BotAPI

	cfg *config.Config
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Telegram Bot API ===
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	botAPI.Debug = cfg.AppEnv == "development"
	log.Infof("Авторизован как @%s", botAPI.Self.UserName)

	// === 3. Репозитории ===
	memberRepo := members.NewRepository(pool)
	economyRepo := economy.NewRepository(pool)
	activityRepo := activity.NewRepository(pool)
	rewardsRepo := rewards.NewRepository(pool)
	ordersRepo := orders.NewRepository(pool)
	adminRepo := admin.NewRepository(pool)

	// === 4. Сервисы ===
	operators := notify.NewOperators(botAPI, cfg.AdminIDs)

	memberService := members.NewService(memberRepo, cfg.AdminIDs)
	economyService := economy.NewService(economyRepo, loc)
	activityService := activity.NewService(activityRepo, loc)
	calculator := streak.NewCalculator(activityRepo, loc, cfg.StreakMaxWalkDays)
	ordersService := orders.NewService(ordersRepo, loc)
	ledger := rewards.NewLedger(rewardsRepo, calculator, rewardsRepo)
	rewardsService := rewards.NewService(rewardsRepo, ledger, economyService, ordersService, operators)
	calendarService := calendar.NewService(calendar.NewProjector(activityRepo), loc)
	adminService := admin.NewService(adminRepo, ordersService, cfg.AdminPasswordHash)

	if err := memberService.PromoteAdmins(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка назначения операторов: %w", err)
	}

	if cfg.RewardsSeedOnStart {
		seeded, err := rewardsService.Seed(ctx, rewards.TiersFromConfig(cfg.RewardTiers))
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("ошибка заполнения каталога наград: %w", err)
		}
		log.WithField("tiers", len(seeded)).Info("Каталог наград перезаписан из REWARD_TIERS")
	}

	// === 5. Обработчики ===
	b := bot.New(botAPI, cfg, loc, bot.Deps{
		Gate:     filters.NewGate(botAPI, cfg.RequiredChannelID),
		Members:  memberService,
		Economy:  economyService,
		Activity: activity.NewHandler(activityService, calculator, botAPI),
		Streak:   streak.NewHandler(calculator, rewardsService, botAPI),
		Rewards:  rewards.NewHandler(rewardsService, botAPI),
		Calendar: calendar.NewHandler(calendarService, botAPI),
		Wallet:   economy.NewHandler(economyService, botAPI),
		Admin:    admin.NewHandler(adminService, memberService, botAPI, loc),
	})

	// === 6. Планировщик задач ===
	jobsCfg := jobs.Config{OrdersDigestCron: cfg.OrdersDigestCron}
	if cfg.FeatureRemindersEnabled {
		jobsCfg.ReminderCron = cfg.ReminderCron
	}
	scheduler := jobs.NewScheduler(jobsCfg, loc, activityRepo, ordersService, operators, botAPI)

	return &App{
		Bot:       b,
		Scheduler: scheduler,
		DB:        pool,
		BotAPI:    botAPI,
		cfg:       cfg,
	}, nil
}

// Run запускает метрики, планировщик и бота и блокируется до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	if err := a.Scheduler.Start(ctx); err != nil {
		return err
	}
	defer a.Scheduler.Stop()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := metrics.Serve(ctx, a.cfg.MetricsAddr); err != nil {
			log.WithError(err).Error("Сервер метрик остановился с ошибкой")
		}
	}()
	go func() {
		defer wg.Done()
		a.Bot.Start(ctx)
	}()

	log.Info("=== Бот готов к работе ===")
	<-ctx.Done()
	wg.Wait()
	return nil
}

// Close освобождает пул соединений.
func (a *App) Close() {
	done := make(chan struct{})
	go func() {
		a.DB.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		log.Warn("Пул БД не закрылся за 10 секунд")
	}
}
