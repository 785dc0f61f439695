// Package rewards — каталог наград за огонек и журнал их выдачи.
//
// Награда выдаётся участнику не больше одного раза. Выдача определяется
// содержимым награды (вид и сумма), а не ID строки каталога: после
// пересева каталога с теми же порогами забрать награду повторно нельзя.
package rewards

import "time"

// Kind — вид награды.
type Kind string

const (
	KindCoins Kind = "coins" // Пленки, начисляются сразу
	KindStars Kind = "stars" // Telegram Stars, выплачивает оператор
	KindTon   Kind = "ton"   // TON, выплачивает оператор
)

// Valid — известен ли вид награды.
func (k Kind) Valid() bool {
	switch k {
	case KindCoins, KindStars, KindTon:
		return true
	}
	return false
}

// Title — название вида для сообщений.
func (k Kind) Title() string {
	switch k {
	case KindCoins:
		return "пленки"
	case KindStars:
		return "⭐ звёзды"
	case KindTon:
		return "TON"
	}
	return string(k)
}

// Disposition — что вызывающему делать с выданной наградой.
type Disposition string

const (
	DispositionInstant  Disposition = "instant"  // Начислить сразу
	DispositionDeferred Disposition = "deferred" // Поставить заявку оператору
)

// DispositionFor классифицирует вид награды. Всё, кроме пленок, выплачивается вручную.
func DispositionFor(k Kind) Disposition {
	if k == KindCoins {
		return DispositionInstant
	}
	return DispositionDeferred
}

// Tier — строка каталога.
type Tier struct {
	ID           int64     `db:"id"`
	RequiredDays int       `db:"required_days"`
	Kind         Kind      `db:"kind"`
	Amount       float64   `db:"amount"`
	Description  string    `db:"description"`
	CreatedAt    time.Time `db:"created_at"`
}

// Claim — факт выдачи награды участнику.
type Claim struct {
	ID            int64     `db:"id"`
	MemberID      int64     `db:"member_id"`
	Kind          Kind      `db:"kind"`
	Amount        float64   `db:"amount"`
	RequiredDays  int       `db:"required_days"`
	StreakAtClaim int       `db:"streak_at_claim"`
	ClaimedAt     time.Time `db:"claimed_at"`
}

// Outcome — исход проверки или выдачи. Это не ошибки: ошибкой бывает только сбой хранилища.
type Outcome string

const (
	OutcomeEligible    Outcome = "eligible"
	OutcomeGranted     Outcome = "granted"
	OutcomeIneligible  Outcome = "ineligible"
	OutcomeDuplicate   Outcome = "duplicate"
	OutcomeUnknownTier Outcome = "unknown_tier"
)

// Reason — текст причины для исхода.
func (o Outcome) Reason() string {
	switch o {
	case OutcomeUnknownTier:
		return "unknown tier"
	case OutcomeDuplicate:
		return "duplicate claim"
	case OutcomeIneligible:
		return "insufficient streak"
	}
	return ""
}

// Decision — результат Evaluate.
type Decision struct {
	Outcome       Outcome
	Eligible      bool
	Reason        string
	RemainingDays int // Сколько дней не хватает, для OutcomeIneligible
	Streak        int
	Tier          *Tier // nil для OutcomeUnknownTier
}

// ClaimResult — результат Claim.
type ClaimResult struct {
	Granted       bool
	Outcome       Outcome
	Reason        string
	Disposition   Disposition // Заполнено, если Tier известен
	RemainingDays int
	Streak        int
	Tier          *Tier
	Claim         *Claim // Только при Granted
}
