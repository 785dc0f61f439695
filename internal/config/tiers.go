// Package config — tiers.go разбирает каталог наград из REWARD_TIERS.
//
// Формат: записи через ";", поля через "|":
//
//	дни|вид|сумма|описание
//	3|coins|15|Три дня подряд;28|ton|0.5|Месяц с огоньком
package config

import (
	"fmt"
	"strconv"
	"strings"
)

// TierSpec — одна строка каталога в том виде, как она пришла из окружения.
// Проверка вида награды и сумм делается в rewards.ValidateTiers.
type TierSpec struct {
	RequiredDays int
	Kind         string
	Amount       float64
	Description  string
}

// TierSpecs реализует envconfig.Decoder.
type TierSpecs []TierSpec

// Decode вызывается envconfig при разборе REWARD_TIERS.
func (t *TierSpecs) Decode(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		*t = nil
		return nil
	}

	var out TierSpecs
	for i, entry := range strings.Split(value, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		fields := strings.SplitN(entry, "|", 4)
		if len(fields) < 3 {
			return fmt.Errorf("REWARD_TIERS[%d] %q: ожидается дни|вид|сумма|описание", i, entry)
		}

		days, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil {
			return fmt.Errorf("REWARD_TIERS[%d]: дни %q: %w", i, fields[0], err)
		}
		amount, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
		if err != nil {
			return fmt.Errorf("REWARD_TIERS[%d]: сумма %q: %w", i, fields[2], err)
		}

		spec := TierSpec{
			RequiredDays: days,
			Kind:         strings.ToLower(strings.TrimSpace(fields[1])),
			Amount:       amount,
		}
		if len(fields) == 4 {
			spec.Description = strings.TrimSpace(fields[3])
		}
		out = append(out, spec)
	}

	*t = out
	return nil
}
