// Package admin — панель оператора в личных сообщениях: вход по паролю
// и разбор заявок на выплату отложенных наград.
// models.go описывает сессии, попытки входа и состояние диалога.
package admin

import "time"

// Session — активная сессия оператора.
type Session struct {
	ID              int64     `db:"id"`
	UserID          int64     `db:"user_id"`
	SessionToken    string    `db:"session_token"`
	AuthenticatedAt time.Time `db:"authenticated_at"`
	ExpiresAt       time.Time `db:"expires_at"`
	LastActivity    time.Time `db:"last_activity"`
	IsActive        bool      `db:"is_active"`
}

// DialogState — шаг пошагового диалога с оператором.
type DialogState struct {
	State     string
	Data      any // []*orders.Order на шаге выбора, *orders.Order на шаге решения
	ExpiresAt time.Time
}

// Шаги диалога
const (
	StateNone             = ""
	StateAwaitingPassword = "awaiting_password"
	StateOrderSelect      = "order_select"   // Ждём номер заявки из списка
	StateOrderDecision    = "order_decision" // Ждём «Одобрить» или «Отклонить»
)

// Кнопки панели
const (
	ButtonOrders  = "Заявки"
	ButtonApprove = "Одобрить"
	ButtonReject  = "Отклонить"
	ButtonBack    = "Назад"
	ButtonLogout  = "Выйти"
)

const (
	sessionTTL      = 24 * time.Hour
	stateTTL        = 5 * time.Minute
	maxFailedLogins = 3
	loginWindow     = time.Hour
	ordersPageSize  = 20
)
