// Package streak — handlers.go обрабатывает команду !огонек.
package streak

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/rewards-bot/internal/common"
)

// GoalFinder находит ближайшую награду, которую участник ещё не забрал.
// nil без ошибки — забирать больше нечего.
type GoalFinder interface {
	NextGoal(ctx context.Context, memberID int64, current int) (*Goal, error)
}

// Handler обрабатывает команды огонька.
type Handler struct {
	calc  *Calculator
	goals GoalFinder
	bot   *tgbotapi.BotAPI
}

func NewHandler(calc *Calculator, goals GoalFinder, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{calc: calc, goals: goals, bot: bot}
}

// HandleOgonek — !огонек.
//
//	🔥 Твой огонек: 5 дней
//	Сегодня: ✅ отметка есть
//	🎯 До «Неделя без пропусков»: 2 дня
func (h *Handler) HandleOgonek(ctx context.Context, chatID, memberID int64) {
	current, err := h.calc.Current(ctx, memberID)
	if err != nil {
		log.WithError(err).Error("Ошибка расчёта стрика")
		h.sendMessage(chatID, "❌ Ошибка получения данных огонька")
		return
	}

	goal, err := h.goals.NextGoal(ctx, memberID, current)
	if err != nil {
		log.WithError(err).Warn("Не удалось найти следующую награду")
	}
	h.sendMessage(chatID, renderOgonek(current, goal))
}

func renderOgonek(current int, goal *Goal) string {
	text := fmt.Sprintf("🔥 Твой огонек: %d %s\n", current, common.PluralizeDays(current))
	if current == 0 {
		text += "Сегодня отметки нет. Напиши !отметиться\n"
	} else {
		text += "Сегодня: ✅ отметка есть\n"
	}

	switch {
	case goal == nil:
		text += "\n🏆 Все награды уже забраны"
	case goal.RequiredDays <= current:
		text += fmt.Sprintf("\n🎁 «%s» можно забрать: !награды", goal.Title)
	default:
		left := goal.RequiredDays - current
		text += fmt.Sprintf("\n🎯 До «%s»: %d %s", goal.Title, left, common.PluralizeDays(left))
	}
	return text
}

func (h *Handler) sendMessage(chatID int64, text string) {
	if _, err := h.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
