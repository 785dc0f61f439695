// Package members отвечает за соответствие Telegram ID и внутреннего ID участника.
// models.go описывает структуру участника.
package members

import "time"

// Member — участник бота.
// Все таблицы ядра ссылаются на внутренний ID, а не на Telegram user ID.
type Member struct {
	ID          int64     `db:"id"`           // Внутренний суррогатный ID
	UserID      int64     `db:"user_id"`      // Telegram user ID (уникальный)
	Username    string    `db:"username"`     // @username (может быть пустым)
	DisplayName string    `db:"display_name"` // Имя для отображения
	IsAdmin     bool      `db:"is_admin"`
	IsBanned    bool      `db:"is_banned"`
	JoinedAt    time.Time `db:"joined_at"` // День первого обращения к боту
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Mention возвращает @username, а если его нет — имя.
func (m *Member) Mention() string {
	if m.Username != "" {
		return "@" + m.Username
	}
	return m.DisplayName
}
