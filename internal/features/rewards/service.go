// Package rewards — service.go связывает журнал выдач с доставкой наград:
// пленки начисляются в той же транзакции, остальное уходит заявкой оператору.
package rewards

import (
	"context"
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/rewards-bot/internal/common"
	"serotonyl.ru/rewards-bot/internal/features/economy"
	"serotonyl.ru/rewards-bot/internal/features/members"
	"serotonyl.ru/rewards-bot/internal/features/orders"
	"serotonyl.ru/rewards-bot/internal/features/streak"
	"serotonyl.ru/rewards-bot/internal/metrics"
)

// Catalog — каталог наград.
type Catalog interface {
	TierSource
	ListTiers(ctx context.Context) ([]*Tier, error)
	ResetAndSeed(ctx context.Context, tiers []Tier) ([]*Tier, error)
}

// Crediter начисляет пленки.
type Crediter interface {
	Credit(ctx context.Context, memberID, amount int64, txType, description string) error
}

// OrderQueue ставит заявки на ручную выплату.
type OrderQueue interface {
	Create(ctx context.Context, memberID int64, orderType string, amount float64, note string) (*orders.Order, error)
}

// Notifier сообщает операторам о новых заявках.
type Notifier interface {
	Notify(text string) error
}

// Service — операции с наградами для обработчиков чата.
type Service struct {
	catalog  Catalog
	ledger   *Ledger
	credit   Crediter
	orders   OrderQueue
	notifier Notifier
}

func NewService(catalog Catalog, ledger *Ledger, credit Crediter, queue OrderQueue, notifier Notifier) *Service {
	return &Service{catalog: catalog, ledger: ledger, credit: credit, orders: queue, notifier: notifier}
}

// ListTiers возвращает каталог по возрастанию порога.
func (s *Service) ListTiers(ctx context.Context) ([]*Tier, error) {
	tiers, err := s.catalog.ListTiers(ctx)
	if err != nil {
		return nil, err
	}
	SortTiers(tiers)
	return tiers, nil
}

// EvaluateTier — можно ли сейчас забрать награду.
func (s *Service) EvaluateTier(ctx context.Context, memberID, tierID int64) (*Decision, error) {
	return s.ledger.Evaluate(ctx, memberID, tierID)
}

// Overview — статус каждой награды каталога для участника.
func (s *Service) Overview(ctx context.Context, memberID int64) ([]*Decision, error) {
	tiers, err := s.ListTiers(ctx)
	if err != nil {
		return nil, err
	}
	return s.ledger.EvaluateTiers(ctx, memberID, tiers)
}

// NextGoal — ближайшая по порогу награда, которую участник ещё не забрал.
func (s *Service) NextGoal(ctx context.Context, memberID int64, current int) (*streak.Goal, error) {
	tiers, err := s.ListTiers(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range tiers {
		d, err := s.ledger.evaluate(ctx, memberID, t, current)
		if err != nil {
			return nil, err
		}
		if d.Outcome != OutcomeDuplicate {
			return &streak.Goal{RequiredDays: t.RequiredDays, Title: t.Description}, nil
		}
	}
	return nil, nil
}

// ClaimTier выдаёт награду участнику m. Доставка идёт в транзакции выдачи:
// не удалось начислить или создать заявку — выдачи нет.
// Уведомление операторам отправляется после коммита, его сбой только логируется.
func (s *Service) ClaimTier(ctx context.Context, m *members.Member, tierID int64) (*ClaimResult, error) {
	var order *orders.Order
	res, err := s.ledger.Claim(ctx, m.ID, tierID, func(ctx context.Context, memberID int64, tier *Tier, d Disposition) error {
		if tier.Amount == 0 {
			return nil
		}
		note := fmt.Sprintf("Огонек %d %s: %s", tier.RequiredDays, common.PluralizeDays(tier.RequiredDays), tier.Description)
		if d == DispositionInstant {
			return s.credit.Credit(ctx, memberID, int64(math.Round(tier.Amount)), economy.TxTypeRewardClaim, note)
		}
		o, err := s.orders.Create(ctx, memberID, string(tier.Kind), tier.Amount, note)
		if err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		metrics.ClaimsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.ClaimsTotal.WithLabelValues(string(res.Outcome)).Inc()

	fields := log.Fields{
		"member_id": m.ID,
		"tier_id":   tierID,
		"outcome":   res.Outcome,
	}
	if !res.Granted {
		log.WithFields(fields).Debug("Награда не выдана")
		return res, nil
	}
	log.WithFields(fields).WithField("disposition", res.Disposition).Info("Награда выдана")

	if order != nil {
		metrics.OrdersCreatedTotal.WithLabelValues(order.Type).Inc()
		if err := s.notifier.Notify(orderNotice(m, res.Tier, order)); err != nil {
			log.WithError(err).WithField("order_id", order.ID).Warn("Операторы не получили уведомление о заявке")
		}
	}
	return res, nil
}

// Seed проверяет каталог и заменяет им текущий.
func (s *Service) Seed(ctx context.Context, tiers []Tier) ([]*Tier, error) {
	if err := ValidateTiers(tiers); err != nil {
		return nil, err
	}
	seeded, err := s.catalog.ResetAndSeed(ctx, tiers)
	if err != nil {
		return nil, err
	}
	log.Infof("Каталог наград пересеян: %d шт.", len(seeded))
	return seeded, nil
}

func orderNotice(m *members.Member, tier *Tier, o *orders.Order) string {
	return fmt.Sprintf("🎁 Новая заявка #%s\nУчастник: %s (id %d)\nНаграда: %s %s за %d %s\n\nРассмотреть: !админ → Заявки",
		o.ShortRef(), m.Mention(), m.UserID,
		common.FormatDecimal(tier.Amount), tier.Kind.Title(),
		tier.RequiredDays, common.PluralizeDays(tier.RequiredDays),
	)
}
