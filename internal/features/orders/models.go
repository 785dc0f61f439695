// Package orders — очередь заявок на ручную выплату.
// Отложенные награды (звёзды, TON) не начисляются сразу, а попадают сюда
// и ждут решения оператора.
package orders

import "time"

// Status — состояние заявки.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Order — заявка на выплату.
type Order struct {
	ID         int64      `db:"id"`
	Ref        string     `db:"ref"` // Публичный номер (UUID), его видит участник
	MemberID   int64      `db:"member_id"`
	Type       string     `db:"order_type"` // Вид награды: stars, ton
	Amount     float64    `db:"amount"`
	Status     Status     `db:"status"`
	Note       string     `db:"note"`
	CreatedAt  time.Time  `db:"created_at"`
	ReviewedAt *time.Time `db:"reviewed_at"`
	ReviewedBy *int64     `db:"reviewed_by"`

	// Из members, для панели оператора.
	MemberUserID int64  `db:"-"`
	MemberName   string `db:"-"`
}

// ShortRef — первые 8 символов номера, для сообщений.
func (o *Order) ShortRef() string {
	if len(o.Ref) > 8 {
		return o.Ref[:8]
	}
	return o.Ref
}
