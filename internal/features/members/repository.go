// Package members — repository.go отвечает за операции с таблицей members.
package members

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/rewards-bot/internal/common"
	"serotonyl.ru/rewards-bot/internal/db/postgres"
)

const memberColumns = `id, user_id, COALESCE(username, ''), display_name, is_admin, is_banned,
	joined_at, created_at, updated_at`

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Upsert создаёт участника или обновляет имя/username существующего.
// Один запрос: два параллельных апдейта от нового пользователя не создадут дубль.
// joined_at, is_admin и is_banned при конфликте не трогаются.
func (r *Repository) Upsert(ctx context.Context, userID int64, displayName, username string, joined time.Time) (*Member, error) {
	query := `
		INSERT INTO members (user_id, username, display_name, joined_at)
		VALUES ($1, NULLIF($2, ''), $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET username = EXCLUDED.username,
		    display_name = EXCLUDED.display_name,
		    updated_at = NOW()
		RETURNING ` + memberColumns
	m, err := scanMember(postgres.Conn(ctx, r.db).QueryRow(ctx, query, userID, username, displayName, joined))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания/обновления участника (user_id=%d): %w", userID, err)
	}
	return m, nil
}

// GetByUserID ищет участника по Telegram ID. Не найден — common.ErrNotFound.
func (r *Repository) GetByUserID(ctx context.Context, userID int64) (*Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE user_id = $1`
	m, err := scanMember(postgres.Conn(ctx, r.db).QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("участник user_id=%d: %w", userID, common.ErrNotFound)
		}
		return nil, fmt.Errorf("ошибка чтения участника (user_id=%d): %w", userID, err)
	}
	return m, nil
}

// SetAdmin выставляет флаг администратора. Вызывается при старте для ADMIN_IDS.
func (r *Repository) SetAdmin(ctx context.Context, userID int64, isAdmin bool) error {
	query := `UPDATE members SET is_admin = $2, updated_at = NOW() WHERE user_id = $1`
	if _, err := postgres.Conn(ctx, r.db).Exec(ctx, query, userID, isAdmin); err != nil {
		return fmt.Errorf("ошибка обновления флага админа: %w", err)
	}
	return nil
}

func scanMember(row pgx.Row) (*Member, error) {
	var m Member
	err := row.Scan(
		&m.ID, &m.UserID, &m.Username, &m.DisplayName,
		&m.IsAdmin, &m.IsBanned,
		&m.JoinedAt, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
