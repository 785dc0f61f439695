// Package economy управляет внутренней валютой «пленки»: балансами и историей начислений.
// Пленки приходят мгновенными наградами за стрик и выдачей админом.
// models.go описывает структуры для балансов и транзакций.
package economy

import "time"

// Balance — баланс участника. У каждого участника не больше одной записи.
type Balance struct {
	ID          int64     `db:"id"`
	MemberID    int64     `db:"member_id"`    // Внутренний ID участника
	Balance     int64     `db:"balance"`      // Текущий баланс
	TotalEarned int64     `db:"total_earned"` // Сколько всего начислено
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Transaction — одно начисление пленок.
type Transaction struct {
	ID              int64     `db:"id"`
	MemberID        int64     `db:"member_id"`
	Amount          int64     `db:"amount"`           // Всегда положительная
	TransactionType string    `db:"transaction_type"` // См. TxType*
	Description     string    `db:"description"`
	CreatedAt       time.Time `db:"created_at"`
}

// Типы транзакций.
const (
	TxTypeRewardClaim = "reward_claim" // Мгновенная награда за стрик
	TxTypeAdminGive   = "admin_give"   // Выдача админом
)
