// Package postgres — migrations.go содержит схему БД и применяет её при старте.
// SQL встроен в код, чтобы деплой был одним бинарником.
//
// Инварианты уникальности (одна отметка на пользователя в день, одна
// выдача награды с данным видом и суммой) держит сама база через UNIQUE:
// вставки делаются с ON CONFLICT DO NOTHING, без проверки «прочитать, потом записать».
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type migration struct {
	version int
	sql     string
}

var migrations = []migration{
	{1, migration001Members},
	{2, migration002Economy},
	{3, migration003Activity},
	{4, migration004Rewards},
	{5, migration005Orders},
	{6, migration006Admin},
}

// Migrate создаёт таблицу schema_migrations и применяет недостающие миграции по порядку.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("ошибка создания таблицы миграций: %w", err)
	}

	for _, m := range migrations {
		applied, err := applyMigration(ctx, pool, m)
		if err != nil {
			return fmt.Errorf("миграция %d: %w", m.version, err)
		}
		if applied {
			log.Infof("Миграция %d применена", m.version)
		}
	}
	return nil
}

// applyMigration выполняет одну миграцию в транзакции вместе с записью версии.
func applyMigration(ctx context.Context, pool *pgxpool.Pool, m migration) (bool, error) {
	applied := false
	err := InTx(ctx, pool, func(ctx context.Context) error {
		tx := Conn(ctx, pool)

		// Блокировка не даёт двум экземплярам бота накатывать схему одновременно.
		if _, err := tx.Exec(ctx, "LOCK TABLE schema_migrations IN EXCLUSIVE MODE"); err != nil {
			return fmt.Errorf("ошибка блокировки: %w", err)
		}

		var exists bool
		err := tx.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)", m.version,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("ошибка проверки миграции: %w", err)
		}
		if exists {
			return nil
		}

		if _, err := tx.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("ошибка выполнения: %w", err)
		}
		if _, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", m.version); err != nil {
			return fmt.Errorf("ошибка записи версии: %w", err)
		}
		applied = true
		return nil
	})
	return applied, err
}

var migration001Members = `
CREATE TABLE IF NOT EXISTS members (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT UNIQUE NOT NULL,
    username VARCHAR(255),
    display_name VARCHAR(255) NOT NULL,
    is_admin BOOLEAN DEFAULT FALSE,
    is_banned BOOLEAN DEFAULT FALSE,
    joined_at DATE NOT NULL DEFAULT CURRENT_DATE,
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_members_username ON members(username);
`

var migration002Economy = `
CREATE TABLE IF NOT EXISTS balances (
    id BIGSERIAL PRIMARY KEY,
    member_id BIGINT UNIQUE NOT NULL REFERENCES members(id),
    balance BIGINT DEFAULT 0,
    total_earned BIGINT DEFAULT 0,
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS transactions (
    id BIGSERIAL PRIMARY KEY,
    member_id BIGINT NOT NULL REFERENCES members(id),
    amount BIGINT NOT NULL,
    transaction_type VARCHAR(50) NOT NULL,
    description TEXT,
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_transactions_member ON transactions(member_id, created_at DESC);
`

var migration003Activity = `
CREATE TABLE IF NOT EXISTS activity_records (
    id BIGSERIAL PRIMARY KEY,
    member_id BIGINT NOT NULL REFERENCES members(id),
    activity_date DATE NOT NULL,
    kind VARCHAR(32) NOT NULL DEFAULT 'daily',
    created_at TIMESTAMP DEFAULT NOW(),
    CONSTRAINT uq_activity_member_date UNIQUE (member_id, activity_date)
);
CREATE INDEX IF NOT EXISTS idx_activity_date ON activity_records(activity_date);
`

var migration004Rewards = `
CREATE TABLE IF NOT EXISTS reward_tiers (
    id BIGSERIAL PRIMARY KEY,
    required_days INTEGER NOT NULL UNIQUE CHECK (required_days > 0),
    kind VARCHAR(32) NOT NULL,
    amount NUMERIC(20,6) NOT NULL CHECK (amount >= 0),
    description TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS reward_claims (
    id BIGSERIAL PRIMARY KEY,
    member_id BIGINT NOT NULL REFERENCES members(id),
    kind VARCHAR(32) NOT NULL,
    amount NUMERIC(20,6) NOT NULL,
    required_days INTEGER NOT NULL,
    streak_at_claim INTEGER NOT NULL,
    claimed_at TIMESTAMP DEFAULT NOW(),
    CONSTRAINT uq_reward_claim UNIQUE (member_id, kind, amount)
);
`

var migration005Orders = `
CREATE TABLE IF NOT EXISTS orders (
    id BIGSERIAL PRIMARY KEY,
    ref VARCHAR(36) UNIQUE NOT NULL,
    member_id BIGINT NOT NULL REFERENCES members(id),
    order_type VARCHAR(32) NOT NULL,
    amount NUMERIC(20,6) NOT NULL,
    status VARCHAR(16) NOT NULL DEFAULT 'pending',
    note TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP DEFAULT NOW(),
    reviewed_at TIMESTAMP,
    reviewed_by BIGINT
);
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status, created_at);
`

var migration006Admin = `
CREATE TABLE IF NOT EXISTS admin_sessions (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    session_token VARCHAR(255) UNIQUE,
    authenticated_at TIMESTAMP DEFAULT NOW(),
    expires_at TIMESTAMP,
    last_activity TIMESTAMP DEFAULT NOW(),
    is_active BOOLEAN DEFAULT TRUE
);
CREATE INDEX IF NOT EXISTS idx_admin_sessions_user_id ON admin_sessions(user_id);
CREATE TABLE IF NOT EXISTS admin_login_attempts (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT,
    attempt_time TIMESTAMP DEFAULT NOW(),
    success BOOLEAN DEFAULT FALSE
);
`
