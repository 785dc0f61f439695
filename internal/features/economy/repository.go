// Package economy — repository.go выполняет операции с таблицами balances и transactions.
package economy

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/rewards-bot/internal/db/postgres"
)

// Repository предоставляет методы для работы с балансами и транзакциями.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий экономики.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// EnsureBalance создаёт нулевой баланс, если его ещё нет.
func (r *Repository) EnsureBalance(ctx context.Context, memberID int64) error {
	query := `
		INSERT INTO balances (member_id, balance, total_earned)
		VALUES ($1, 0, 0)
		ON CONFLICT (member_id) DO NOTHING
	`
	if _, err := postgres.Conn(ctx, r.db).Exec(ctx, query, memberID); err != nil {
		return fmt.Errorf("ошибка создания баланса: %w", err)
	}
	return nil
}

// GetBalance возвращает баланс участника. Нет записи — ноль.
func (r *Repository) GetBalance(ctx context.Context, memberID int64) (*Balance, error) {
	query := `
		SELECT id, member_id, balance, total_earned, created_at, updated_at
		FROM balances
		WHERE member_id = $1
	`
	var b Balance
	err := postgres.Conn(ctx, r.db).QueryRow(ctx, query, memberID).Scan(
		&b.ID, &b.MemberID, &b.Balance, &b.TotalEarned, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &Balance{MemberID: memberID}, nil
		}
		return nil, fmt.Errorf("ошибка получения баланса: %w", err)
	}
	return &b, nil
}

// Credit начисляет пленки и пишет транзакцию в историю.
// Если в ctx уже открыта транзакция (например, выдача награды), начисление
// становится её частью через savepoint и откатится вместе с ней.
func (r *Repository) Credit(ctx context.Context, memberID, amount int64, txType, description string) error {
	tx, err := postgres.Conn(ctx, r.db).Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx, `
		INSERT INTO balances (member_id, balance, total_earned)
		VALUES ($1, $2, $2)
		ON CONFLICT (member_id) DO UPDATE
		SET balance = balances.balance + EXCLUDED.balance,
		    total_earned = balances.total_earned + EXCLUDED.total_earned,
		    updated_at = NOW()
	`, memberID, amount)
	if err != nil {
		return fmt.Errorf("ошибка начисления: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (member_id, amount, transaction_type, description)
		VALUES ($1, $2, $3, $4)
	`, memberID, amount, txType, description)
	if err != nil {
		return fmt.Errorf("ошибка записи транзакции: %w", err)
	}

	return tx.Commit(ctx)
}

// GetTransactions возвращает последние limit транзакций участника, новые сверху.
func (r *Repository) GetTransactions(ctx context.Context, memberID int64, limit int) ([]*Transaction, error) {
	query := `
		SELECT id, member_id, amount, transaction_type, COALESCE(description, ''), created_at
		FROM transactions
		WHERE member_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	rows, err := postgres.Conn(ctx, r.db).Query(ctx, query, memberID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения транзакций: %w", err)
	}
	defer rows.Close()

	var transactions []*Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.MemberID, &t.Amount, &t.TransactionType, &t.Description, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования транзакции: %w", err)
		}
		transactions = append(transactions, &t)
	}
	return transactions, rows.Err()
}
