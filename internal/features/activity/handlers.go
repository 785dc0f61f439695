// Package activity — handlers.go обрабатывает команду !отметиться.
package activity

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/rewards-bot/internal/common"
)

// StreakReader отдаёт текущий стрик участника.
type StreakReader interface {
	Current(ctx context.Context, memberID int64) (int, error)
}

// Handler обрабатывает отметки из чата.
type Handler struct {
	service *Service
	streaks StreakReader
	bot     *tgbotapi.BotAPI
}

func NewHandler(service *Service, streaks StreakReader, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, streaks: streaks, bot: bot}
}

// HandleCheckin — !отметиться.
//
//	✅ Отметка за 05.01.2025 принята
//	🔥 Огонек: 2 дня
func (h *Handler) HandleCheckin(ctx context.Context, chatID, memberID int64) {
	res, err := h.service.Checkin(ctx, memberID)
	if err != nil {
		log.WithError(err).Error("Ошибка отметки")
		h.sendMessage(chatID, "❌ Не удалось отметиться, попробуй позже")
		return
	}

	header := fmt.Sprintf("✅ Отметка за %s принята", common.FormatDay(res.Day))
	if !res.Created {
		header = fmt.Sprintf("👌 Ты уже отметился за %s", common.FormatDay(res.Day))
	}

	streak, err := h.streaks.Current(ctx, memberID)
	if err != nil {
		log.WithError(err).Error("Ошибка расчёта стрика")
		h.sendMessage(chatID, header)
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("%s\n🔥 Огонек: %d %s", header, streak, common.PluralizeDays(streak)))
}

func (h *Handler) sendMessage(chatID int64, text string) {
	if _, err := h.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
