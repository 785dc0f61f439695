// Package activity — repository.go работает с таблицей activity_records.
package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/rewards-bot/internal/common"
	"serotonyl.ru/rewards-bot/internal/db/postgres"
)

// Repository — хранилище отметок в PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// PutCheckin пишет отметку за день. Если отметка уже есть, ничего не делает
// и возвращает created=false. Уникальность держит constraint uq_activity_member_date,
// поэтому два параллельных вызова оставят ровно одну запись.
func (r *Repository) PutCheckin(ctx context.Context, memberID int64, day time.Time, kind Kind) (bool, error) {
	query := `
		INSERT INTO activity_records (member_id, activity_date, kind)
		VALUES ($1, $2, $3)
		ON CONFLICT (member_id, activity_date) DO NOTHING
	`
	tag, err := postgres.Conn(ctx, r.db).Exec(ctx, query, memberID, day, string(kind))
	if err != nil {
		return false, fmt.Errorf("ошибка записи отметки (member_id=%d): %w", memberID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// Exists проверяет, есть ли отметка за конкретный день.
func (r *Repository) Exists(ctx context.Context, memberID int64, day time.Time) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM activity_records WHERE member_id = $1 AND activity_date = $2)`
	var exists bool
	if err := postgres.Conn(ctx, r.db).QueryRow(ctx, query, memberID, day).Scan(&exists); err != nil {
		return false, fmt.Errorf("ошибка проверки отметки (member_id=%d): %w", memberID, err)
	}
	return exists, nil
}

// ListForUser возвращает все отметки участника по возрастанию даты.
func (r *Repository) ListForUser(ctx context.Context, memberID int64) ([]*Record, error) {
	query := `
		SELECT id, member_id, activity_date, kind, created_at
		FROM activity_records
		WHERE member_id = $1
		ORDER BY activity_date
	`
	rows, err := postgres.Conn(ctx, r.db).Query(ctx, query, memberID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения отметок: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var rec Record
		var kind string
		if err := rows.Scan(&rec.ID, &rec.MemberID, &rec.Day, &kind, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования отметки: %w", err)
		}
		rec.Kind = Kind(kind)
		rec.Day = common.Day(rec.Day.Date())
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// ListDaysInRange возвращает дни с отметками в [from, to] одним запросом.
func (r *Repository) ListDaysInRange(ctx context.Context, memberID int64, from, to time.Time) ([]time.Time, error) {
	query := `
		SELECT activity_date
		FROM activity_records
		WHERE member_id = $1 AND activity_date BETWEEN $2 AND $3
		ORDER BY activity_date
	`
	rows, err := postgres.Conn(ctx, r.db).Query(ctx, query, memberID, from, to)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения дней: %w", err)
	}
	defer rows.Close()

	var days []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("ошибка сканирования дня: %w", err)
		}
		days = append(days, common.Day(d.Date()))
	}
	return days, rows.Err()
}

// UsersToRemind — участники, отметившиеся вчера, но ещё не сегодня.
// Забаненным не пишем.
func (r *Repository) UsersToRemind(ctx context.Context, yesterday, today time.Time) ([]Reminder, error) {
	query := `
		SELECT m.id, m.user_id, m.display_name
		FROM activity_records a
		JOIN members m ON m.id = a.member_id
		WHERE a.activity_date = $1
		  AND NOT m.is_banned
		  AND NOT EXISTS (
		      SELECT 1 FROM activity_records t
		      WHERE t.member_id = a.member_id AND t.activity_date = $2
		  )
		ORDER BY m.id
	`
	rows, err := postgres.Conn(ctx, r.db).Query(ctx, query, yesterday, today)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки для напоминаний: %w", err)
	}
	defer rows.Close()

	var out []Reminder
	for rows.Next() {
		var rm Reminder
		if err := rows.Scan(&rm.MemberID, &rm.UserID, &rm.DisplayName); err != nil {
			return nil, fmt.Errorf("ошибка сканирования: %w", err)
		}
		out = append(out, rm)
	}
	return out, rows.Err()
}
