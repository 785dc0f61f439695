// Command rewardsctl — служебные операции без запуска бота.
//
//	rewardsctl hash-password <пароль>   хеш для ADMIN_PASSWORD_HASH
//	rewardsctl seed                     перезаписать каталог наград из REWARD_TIERS
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/rewards-bot/internal/config"
	"serotonyl.ru/rewards-bot/internal/db/postgres"
	"serotonyl.ru/rewards-bot/internal/features/admin"
	"serotonyl.ru/rewards-bot/internal/features/rewards"
)

func main() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetOutput(os.Stderr)

	flag.Usage = usage
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch flag.Arg(0) {
	case "hash-password":
		err = hashPassword(flag.Args()[1:])
	case "seed":
		err = seed(ctx, flag.Args()[1:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.WithError(err).Fatal(flag.Arg(0))
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Использование:")
	fmt.Fprintln(os.Stderr, "  rewardsctl hash-password <пароль>")
	fmt.Fprintln(os.Stderr, "  rewardsctl seed [-dry-run]")
}

func hashPassword(args []string) error {
	if len(args) != 1 || args[0] == "" {
		return fmt.Errorf("нужен ровно один аргумент: пароль")
	}
	hash, err := admin.HashPassword(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "Хеш пароля (вставьте в .env как ADMIN_PASSWORD_HASH):")
	fmt.Println(hash)
	return nil
}

func seed(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	dryRun := fs.Bool("dry-run", false, "только проверить REWARD_TIERS и вывести каталог")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	tiers := rewards.TiersFromConfig(cfg.RewardTiers)
	if err := rewards.ValidateTiers(tiers); err != nil {
		return err
	}

	if *dryRun {
		for i := range tiers {
			t := &tiers[i]
			fmt.Printf("%3d дн.  %s\t%s\n", t.RequiredDays, rewards.FormatReward(t), t.Description)
		}
		return nil
	}

	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := postgres.Migrate(ctx, pool); err != nil {
		return err
	}

	seeded, err := rewards.NewService(rewards.NewRepository(pool), nil, nil, nil, nil).Seed(ctx, tiers)
	if err != nil {
		return err
	}
	for _, t := range seeded {
		fmt.Printf("#%d  %3d дн.  %s\n", t.ID, t.RequiredDays, rewards.FormatReward(t))
	}
	return nil
}
