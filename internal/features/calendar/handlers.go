// Package calendar — handlers.go: команда !календарь [ГГГГ-ММ].
package calendar

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/rewards-bot/internal/common"
)

var monthNames = [...]string{
	"Январь", "Февраль", "Март", "Апрель", "Май", "Июнь",
	"Июль", "Август", "Сентябрь", "Октябрь", "Ноябрь", "Декабрь",
}

// Handler обрабатывает команду календаря.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
}

func NewHandler(service *Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandleCalendar — !календарь или !календарь 2024-02.
func (h *Handler) HandleCalendar(ctx context.Context, chatID, memberID int64, args []string) {
	year, month := h.service.CurrentMonth()
	if len(args) > 0 {
		var err error
		year, month, err = ParseMonthArg(args[0])
		if err != nil {
			h.sendMessage(chatID, "❌ Формат: !календарь ГГГГ-ММ, например !календарь 2024-02")
			return
		}
	}

	m, err := h.service.GetMonthActivity(ctx, memberID, year, month)
	if err != nil {
		if errors.Is(err, common.ErrInvalidMonth) {
			h.sendMessage(chatID, "❌ Такого месяца нет")
			return
		}
		log.WithError(err).Error("Ошибка построения календаря")
		h.sendMessage(chatID, "❌ Ошибка построения календаря")
		return
	}

	msg := tgbotapi.NewMessage(chatID, "<pre>"+Render(m)+"</pre>")
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки календаря")
	}
}

// ParseMonthArg разбирает "ГГГГ-ММ". Диапазон месяца проверяет ValidateMonth.
func ParseMonthArg(s string) (int, int, error) {
	parts := strings.SplitN(strings.TrimSpace(s), "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", common.ErrInvalidMonth, s)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: год %q", common.ErrInvalidMonth, parts[0])
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: месяц %q", common.ErrInvalidMonth, parts[1])
	}
	if err := common.ValidateMonth(year, month); err != nil {
		return 0, 0, err
	}
	return year, month, nil
}

// Render рисует сетку месяца, неделя начинается с понедельника.
// Дни с отметкой помечены «*».
func Render(m *Month) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s %d\n", monthNames[m.Month-1], m.Year))
	sb.WriteString(" Пн  Вт  Ср  Чт  Пт  Сб  Вс\n")

	first := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(first.Weekday()) + 6) % 7 // Пн=0 … Вс=6
	sb.WriteString(strings.Repeat("    ", offset))

	last := common.DaysInMonth(m.Year, m.Month)
	col := offset
	for d := 1; d <= last; d++ {
		mark := " "
		if m.Days[d] {
			mark = "*"
		}
		sb.WriteString(fmt.Sprintf("%3d%s", d, mark))
		col++
		if col == 7 && d != last {
			sb.WriteString("\n")
			col = 0
		}
	}
	sb.WriteString(fmt.Sprintf("\n\n🔥 Дней с отметкой: %d из %d", m.Active, last))
	return sb.String()
}

func (h *Handler) sendMessage(chatID int64, text string) {
	if _, err := h.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
