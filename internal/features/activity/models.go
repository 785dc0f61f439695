// Package activity хранит ежедневные отметки участников.
// Одна запись на (участник, календарный день); записи не меняются и не удаляются.
package activity

import "time"

// Kind — вид активности.
type Kind string

// KindDaily — ежедневная отметка командой !отметиться.
const KindDaily Kind = "daily"

// Record — «участник отметился в день Day».
type Record struct {
	ID        int64     `db:"id"`
	MemberID  int64     `db:"member_id"`
	Day       time.Time `db:"activity_date"` // Полночь UTC, см. common.Day
	Kind      Kind      `db:"kind"`
	CreatedAt time.Time `db:"created_at"`
}

// CheckinResult — итог отметки.
type CheckinResult struct {
	Day     time.Time
	Created bool // false — сегодня уже отмечались
}

// Reminder — кому напомнить об огоньке вечером.
type Reminder struct {
	MemberID    int64
	UserID      int64 // Telegram ID, сюда шлём сообщение
	DisplayName string
}
