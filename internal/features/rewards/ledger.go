package rewards

import (
	"context"
	"errors"

	"serotonyl.ru/rewards-bot/internal/common"
)

// TierSource — чтение каталога. Отсутствующая награда — common.ErrNotFound.
type TierSource interface {
	GetTier(ctx context.Context, id int64) (*Tier, error)
}

// StreakSource — текущий огонек участника.
type StreakSource interface {
	Current(ctx context.Context, memberID int64) (int, error)
}

// ClaimStore хранит факты выдачи.
type ClaimStore interface {
	HasClaim(ctx context.Context, memberID int64, kind Kind, amount float64) (bool, error)
	// InsertClaim атомарно вставляет выдачу, если такой (участник, вид, сумма) ещё нет.
	// fulfil выполняется в той же транзакции после вставки; его ошибка
	// откатывает вставку. inserted=false без ошибки — награда уже выдана.
	InsertClaim(ctx context.Context, c *Claim, fulfil func(ctx context.Context) error) (inserted bool, err error)
}

// FulfilFunc доставляет награду (начисление или заявка) внутри транзакции выдачи.
type FulfilFunc func(ctx context.Context, memberID int64, tier *Tier, d Disposition) error

// Ledger решает, можно ли выдать награду, и выдаёт её не больше одного раза.
type Ledger struct {
	tiers   TierSource
	streaks StreakSource
	claims  ClaimStore
}

func NewLedger(tiers TierSource, streaks StreakSource, claims ClaimStore) *Ledger {
	return &Ledger{tiers: tiers, streaks: streaks, claims: claims}
}

// Evaluate проверяет, можно ли забрать награду, ничего не записывая.
// Порядок проверок: награда существует, награда ещё не выдана, огонек достаточный.
// Уже полученная награда остаётся повтором и после того, как огонек погас.
func (l *Ledger) Evaluate(ctx context.Context, memberID, tierID int64) (*Decision, error) {
	tier, err := l.lookup(ctx, tierID)
	if err != nil {
		return nil, err
	}
	if tier == nil {
		return decide(OutcomeUnknownTier, nil, 0, 0), nil
	}
	streak, err := l.streaks.Current(ctx, memberID)
	if err != nil {
		return nil, err
	}
	return l.evaluate(ctx, memberID, tier, streak)
}

// EvaluateTiers проверяет весь список с одним расчётом огонька.
func (l *Ledger) EvaluateTiers(ctx context.Context, memberID int64, tiers []*Tier) ([]*Decision, error) {
	streak, err := l.streaks.Current(ctx, memberID)
	if err != nil {
		return nil, err
	}
	out := make([]*Decision, 0, len(tiers))
	for _, t := range tiers {
		d, err := l.evaluate(ctx, memberID, t, streak)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (l *Ledger) evaluate(ctx context.Context, memberID int64, tier *Tier, streak int) (*Decision, error) {
	claimed, err := l.claims.HasClaim(ctx, memberID, tier.Kind, tier.Amount)
	if err != nil {
		return nil, err
	}
	if claimed {
		return decide(OutcomeDuplicate, tier, streak, 0), nil
	}
	if streak < tier.RequiredDays {
		return decide(OutcomeIneligible, tier, streak, tier.RequiredDays-streak), nil
	}
	return decide(OutcomeEligible, tier, streak, 0), nil
}

// Claim выдаёт награду. Проверка и запись выдачи — одна условная вставка,
// поэтому из N одновременных вызовов для одной награды выиграет ровно один.
// fulfil (может быть nil) выполняется в той же транзакции: если он упал,
// выдачи нет и начисления тоже.
func (l *Ledger) Claim(ctx context.Context, memberID, tierID int64, fulfil FulfilFunc) (*ClaimResult, error) {
	tier, err := l.lookup(ctx, tierID)
	if err != nil {
		return nil, err
	}
	if tier == nil {
		return &ClaimResult{Outcome: OutcomeUnknownTier, Reason: OutcomeUnknownTier.Reason()}, nil
	}

	res := &ClaimResult{Tier: tier, Disposition: DispositionFor(tier.Kind)}

	streak, err := l.streaks.Current(ctx, memberID)
	if err != nil {
		return nil, err
	}
	res.Streak = streak

	// Ранний отказ для уже выданной награды, чтобы не просить копить огонек заново.
	// Гонку по-прежнему решает условная вставка ниже.
	claimed, err := l.claims.HasClaim(ctx, memberID, tier.Kind, tier.Amount)
	if err != nil {
		return nil, err
	}
	if claimed {
		res.Outcome = OutcomeDuplicate
		res.Reason = OutcomeDuplicate.Reason()
		return res, nil
	}
	if streak < tier.RequiredDays {
		res.Outcome = OutcomeIneligible
		res.Reason = OutcomeIneligible.Reason()
		res.RemainingDays = tier.RequiredDays - streak
		return res, nil
	}

	claim := &Claim{
		MemberID:      memberID,
		Kind:          tier.Kind,
		Amount:        tier.Amount,
		RequiredDays:  tier.RequiredDays,
		StreakAtClaim: streak,
	}
	inserted, err := l.claims.InsertClaim(ctx, claim, func(ctx context.Context) error {
		if fulfil == nil {
			return nil
		}
		return fulfil(ctx, memberID, tier, res.Disposition)
	})
	if err != nil {
		return nil, err
	}
	if !inserted {
		res.Outcome = OutcomeDuplicate
		res.Reason = OutcomeDuplicate.Reason()
		return res, nil
	}

	res.Granted = true
	res.Outcome = OutcomeGranted
	res.Claim = claim
	return res, nil
}

// lookup возвращает (nil, nil), если награды нет: во время пересева каталог
// может быть пуст, и это обычный отказ, а не сбой.
func (l *Ledger) lookup(ctx context.Context, tierID int64) (*Tier, error) {
	tier, err := l.tiers.GetTier(ctx, tierID)
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return tier, nil
}

func decide(o Outcome, tier *Tier, streak, remaining int) *Decision {
	return &Decision{
		Outcome:       o,
		Eligible:      o == OutcomeEligible,
		Reason:        o.Reason(),
		RemainingDays: remaining,
		Streak:        streak,
		Tier:          tier,
	}
}
