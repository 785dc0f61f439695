package rewards

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"serotonyl.ru/rewards-bot/internal/common"
	"serotonyl.ru/rewards-bot/internal/config"
)

// TiersFromConfig переводит REWARD_TIERS в строки каталога, без ID.
func TiersFromConfig(specs config.TierSpecs) []Tier {
	tiers := make([]Tier, 0, len(specs))
	for _, s := range specs {
		tiers = append(tiers, Tier{
			RequiredDays: s.RequiredDays,
			Kind:         Kind(s.Kind),
			Amount:       s.Amount,
			Description:  s.Description,
		})
	}
	return tiers
}

// amountScale — точность колонки amount, NUMERIC(20,6).
const amountScale = 1e6

// ValidateTiers проверяет каталог перед пересевом:
// пороги положительные и не повторяются, вид известен, сумма не отрицательная
// и не длиннее шести знаков после запятой, пленки только целые,
// и две награды не совпадают по (вид, сумма).
func ValidateTiers(tiers []Tier) error {
	days := make(map[int]bool, len(tiers))
	content := make(map[claimKey]int, len(tiers))
	for _, t := range tiers {
		if t.RequiredDays <= 0 {
			return fmt.Errorf("%w: порог %d дней", common.ErrInvalidTier, t.RequiredDays)
		}
		if days[t.RequiredDays] {
			return fmt.Errorf("%w: порог %d дней повторяется", common.ErrInvalidTier, t.RequiredDays)
		}
		days[t.RequiredDays] = true

		if !t.Kind.Valid() {
			return fmt.Errorf("%w: неизвестный вид %q", common.ErrInvalidTier, t.Kind)
		}
		if t.Amount < 0 || math.IsNaN(t.Amount) || math.IsInf(t.Amount, 0) {
			return fmt.Errorf("%w: сумма %v", common.ErrInvalidTier, t.Amount)
		}
		if !fitsScale(t.Amount) {
			return fmt.Errorf("%w: сумма %s не помещается в NUMERIC(20,6)", common.ErrInvalidTier, common.FormatDecimal(t.Amount))
		}
		if t.Kind == KindCoins && t.Amount != math.Trunc(t.Amount) {
			return fmt.Errorf("%w: пленки только целые, а не %s", common.ErrInvalidTier, common.FormatDecimal(t.Amount))
		}

		k := claimKey{t.Kind, math.Round(t.Amount * amountScale)}
		if prev, ok := content[k]; ok {
			return fmt.Errorf("%w: %s %s уже выдаётся за %d дней", common.ErrInvalidTier,
				common.FormatDecimal(t.Amount), t.Kind, prev)
		}
		content[k] = t.RequiredDays
	}
	return nil
}

// SortTiers упорядочивает каталог по порогу.
func SortTiers(tiers []*Tier) {
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].RequiredDays < tiers[j].RequiredDays })
}

// fitsScale — сумма ложится в NUMERIC(20,6) без округления:
// не больше 14 цифр до запятой и 6 после.
func fitsScale(v float64) bool {
	intPart, frac, _ := strings.Cut(strconv.FormatFloat(v, 'f', -1, 64), ".")
	return len(intPart) <= 14 && len(frac) <= 6
}

// claimKey — то, по чему определяется повторная выдача. amount в миллионных долях,
// как его видит база.
type claimKey struct {
	kind   Kind
	amount float64
}
