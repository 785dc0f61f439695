// Package orders — repository.go работает с таблицей orders.
package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/rewards-bot/internal/common"
	"serotonyl.ru/rewards-bot/internal/db/postgres"
)

const orderColumns = `o.id, o.ref, o.member_id, o.order_type, o.amount::float8, o.status, o.note,
	o.created_at, o.reviewed_at, o.reviewed_by, m.user_id, m.display_name`

// Repository — заявки в PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create добавляет заявку в статусе pending. Работает внутри транзакции из ctx,
// если она есть: так заявка создаётся атомарно с записью о выдаче награды.
func (r *Repository) Create(ctx context.Context, memberID int64, orderType string, amount float64, note string) (*Order, error) {
	ref := uuid.NewString()
	var id int64
	err := postgres.Conn(ctx, r.db).QueryRow(ctx, `
		INSERT INTO orders (ref, member_id, order_type, amount, status, note)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, ref, memberID, orderType, amount, string(StatusPending), note).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания заявки: %w", err)
	}
	return r.GetByID(ctx, id)
}

// GetByID возвращает заявку. Нет такой — common.ErrNotFound.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o JOIN members m ON m.id = o.member_id WHERE o.id = $1`
	o, err := scanOrder(postgres.Conn(ctx, r.db).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("заявка %d: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("ошибка чтения заявки: %w", err)
	}
	return o, nil
}

// ListPending возвращает ожидающие заявки, старые первыми.
func (r *Repository) ListPending(ctx context.Context, limit int) ([]*Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders o JOIN members m ON m.id = o.member_id
		WHERE o.status = $1
		ORDER BY o.created_at, o.id
		LIMIT $2`
	rows, err := postgres.Conn(ctx, r.db).Query(ctx, query, string(StatusPending), limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения заявок: %w", err)
	}
	defer rows.Close()

	var out []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования заявки: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// CountPending — сколько заявок ждут решения.
func (r *Repository) CountPending(ctx context.Context) (int, error) {
	var n int
	err := postgres.Conn(ctx, r.db).QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE status = $1`, string(StatusPending),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта заявок: %w", err)
	}
	return n, nil
}

// Resolve переводит заявку из pending в status. Условие в WHERE не даёт
// двум операторам рассмотреть одну заявку: второй получит common.ErrOrderNotPending.
func (r *Repository) Resolve(ctx context.Context, id int64, status Status, reviewerID int64) (*Order, error) {
	tag, err := postgres.Conn(ctx, r.db).Exec(ctx, `
		UPDATE orders
		SET status = $2, reviewed_at = NOW(), reviewed_by = $3
		WHERE id = $1 AND status = $4
	`, id, string(status), reviewerID, string(StatusPending))
	if err != nil {
		return nil, fmt.Errorf("ошибка обновления заявки: %w", err)
	}

	o, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return o, common.ErrOrderNotPending
	}
	return o, nil
}

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var status string
	err := row.Scan(
		&o.ID, &o.Ref, &o.MemberID, &o.Type, &o.Amount, &status, &o.Note,
		&o.CreatedAt, &o.ReviewedAt, &o.ReviewedBy, &o.MemberUserID, &o.MemberName,
	)
	if err != nil {
		return nil, err
	}
	o.Status = Status(status)
	return &o, nil
}
