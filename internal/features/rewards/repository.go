// Package rewards — repository.go работает с таблицами reward_tiers и reward_claims.
package rewards

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/rewards-bot/internal/common"
	"serotonyl.ru/rewards-bot/internal/db/postgres"
)

const tierColumns = `id, required_days, kind, amount::float8, description, created_at`

// Repository — каталог и журнал выдач в PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// ListTiers возвращает каталог по возрастанию порога.
func (r *Repository) ListTiers(ctx context.Context) ([]*Tier, error) {
	rows, err := postgres.Conn(ctx, r.db).Query(ctx,
		`SELECT `+tierColumns+` FROM reward_tiers ORDER BY required_days`)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения каталога: %w", err)
	}
	defer rows.Close()

	var tiers []*Tier
	for rows.Next() {
		t, err := scanTier(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования награды: %w", err)
		}
		tiers = append(tiers, t)
	}
	return tiers, rows.Err()
}

// GetTier возвращает награду по ID. Нет такой — common.ErrNotFound.
func (r *Repository) GetTier(ctx context.Context, id int64) (*Tier, error) {
	t, err := scanTier(postgres.Conn(ctx, r.db).QueryRow(ctx,
		`SELECT `+tierColumns+` FROM reward_tiers WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("награда %d: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("ошибка чтения награды: %w", err)
	}
	return t, nil
}

// ResetAndSeed заменяет каталог целиком в одной транзакции.
// Журнал выдач не трогается.
func (r *Repository) ResetAndSeed(ctx context.Context, tiers []Tier) ([]*Tier, error) {
	var seeded []*Tier
	err := postgres.InTx(ctx, r.db, func(ctx context.Context) error {
		conn := postgres.Conn(ctx, r.db)
		if _, err := conn.Exec(ctx, `DELETE FROM reward_tiers`); err != nil {
			return fmt.Errorf("ошибка очистки каталога: %w", err)
		}
		for _, t := range tiers {
			row := conn.QueryRow(ctx, `
				INSERT INTO reward_tiers (required_days, kind, amount, description)
				VALUES ($1, $2, $3, $4)
				RETURNING `+tierColumns,
				t.RequiredDays, string(t.Kind), t.Amount, t.Description)
			inserted, err := scanTier(row)
			if err != nil {
				return fmt.Errorf("ошибка записи награды (%d дней): %w", t.RequiredDays, err)
			}
			seeded = append(seeded, inserted)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return seeded, nil
}

// HasClaim — выдавалась ли участнику награда с таким видом и суммой.
func (r *Repository) HasClaim(ctx context.Context, memberID int64, kind Kind, amount float64) (bool, error) {
	var exists bool
	err := postgres.Conn(ctx, r.db).QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM reward_claims WHERE member_id = $1 AND kind = $2 AND amount = $3
		)`, memberID, string(kind), amount).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки выдачи: %w", err)
	}
	return exists, nil
}

// InsertClaim вставляет выдачу через ON CONFLICT DO NOTHING. Параллельная
// вставка того же ключа ждёт на уникальном индексе и после коммита первой
// получает конфликт. fulfil выполняется в той же транзакции.
func (r *Repository) InsertClaim(ctx context.Context, c *Claim, fulfil func(ctx context.Context) error) (bool, error) {
	inserted := false
	err := postgres.InTx(ctx, r.db, func(ctx context.Context) error {
		err := postgres.Conn(ctx, r.db).QueryRow(ctx, `
			INSERT INTO reward_claims (member_id, kind, amount, required_days, streak_at_claim)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (member_id, kind, amount) DO NOTHING
			RETURNING id, claimed_at
		`, c.MemberID, string(c.Kind), c.Amount, c.RequiredDays, c.StreakAtClaim).Scan(&c.ID, &c.ClaimedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("ошибка записи выдачи: %w", err)
		}
		if err := fulfil(ctx); err != nil {
			return err
		}
		inserted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return inserted, nil
}

func scanTier(row pgx.Row) (*Tier, error) {
	var t Tier
	var kind string
	if err := row.Scan(&t.ID, &t.RequiredDays, &kind, &t.Amount, &t.Description, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.Kind = Kind(kind)
	return &t, nil
}
