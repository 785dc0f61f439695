// Package rewards — handlers.go обрабатывает !награды, !забрать <id>
// и нажатия инлайн-кнопок "claim:<id>".
package rewards

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/rewards-bot/internal/common"
	"serotonyl.ru/rewards-bot/internal/features/members"
)

// CallbackPrefix — префикс callback data кнопки «Забрать».
const CallbackPrefix = "claim:"

// Handler обрабатывает команды наград.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
}

func NewHandler(service *Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandleList — !награды: каталог со статусом и кнопками для доступных наград.
func (h *Handler) HandleList(ctx context.Context, chatID, memberID int64) {
	decisions, err := h.service.Overview(ctx, memberID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения наград")
		h.sendMessage(chatID, "❌ Ошибка получения списка наград")
		return
	}
	if len(decisions) == 0 {
		h.sendMessage(chatID, "🎁 Каталог наград пока пуст")
		return
	}

	msg := tgbotapi.NewMessage(chatID, renderOverview(decisions))
	if kb, ok := claimKeyboard(decisions); ok {
		msg.ReplyMarkup = kb
	}
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки списка наград")
	}
}

// HandleClaimCommand — !забрать <id>.
func (h *Handler) HandleClaimCommand(ctx context.Context, chatID int64, m *members.Member, args []string) {
	tierID, ok := h.tierArg(chatID, "!забрать", args)
	if !ok {
		return
	}
	h.sendMessage(chatID, h.claim(ctx, m, tierID))
}

// HandleEvaluate — !награда <id>: можно ли забрать, без выдачи.
func (h *Handler) HandleEvaluate(ctx context.Context, chatID, memberID int64, args []string) {
	tierID, ok := h.tierArg(chatID, "!награда", args)
	if !ok {
		return
	}
	d, err := h.service.EvaluateTier(ctx, memberID, tierID)
	if err != nil {
		log.WithError(err).WithField("tier_id", tierID).Error("Ошибка проверки награды")
		h.sendMessage(chatID, "❌ Не получилось проверить награду, попробуй позже")
		return
	}

	msg := tgbotapi.NewMessage(chatID, renderDecision(d))
	if kb, ok := claimKeyboard([]*Decision{d}); ok {
		msg.ReplyMarkup = kb
	}
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}

func (h *Handler) tierArg(chatID int64, command string, args []string) (int64, bool) {
	if len(args) < 1 {
		h.sendMessage(chatID, fmt.Sprintf("❌ Формат: %s <номер награды>. Номера есть в !награды", command))
		return 0, false
	}
	tierID, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
	if err != nil || tierID <= 0 {
		h.sendMessage(chatID, "❌ Номер награды должен быть положительным числом")
		return 0, false
	}
	return tierID, true
}

// HandleClaimCallback — нажатие кнопки «Забрать».
func (h *Handler) HandleClaimCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, m *members.Member) {
	tierID, ok := ParseCallback(cb.Data)
	if !ok {
		h.answer(cb.ID, "Неизвестная кнопка")
		return
	}
	text := h.claim(ctx, m, tierID)
	h.answer(cb.ID, "")
	if cb.Message != nil {
		h.sendMessage(cb.Message.Chat.ID, text)
	}
}

func (h *Handler) claim(ctx context.Context, m *members.Member, tierID int64) string {
	res, err := h.service.ClaimTier(ctx, m, tierID)
	if err != nil {
		log.WithError(err).WithField("tier_id", tierID).Error("Ошибка выдачи награды")
		return "❌ Не получилось выдать награду, попробуй ещё раз чуть позже"
	}
	return renderClaim(res)
}

// ParseCallback достаёт ID награды из callback data.
func ParseCallback(data string) (int64, bool) {
	if !strings.HasPrefix(data, CallbackPrefix) {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(data, CallbackPrefix), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// FormatReward печатает награду: "15 пленок", "25 ⭐", "0.5 TON".
func FormatReward(t *Tier) string {
	switch t.Kind {
	case KindCoins:
		return common.FormatBalance(int64(math.Round(t.Amount)))
	case KindStars:
		return common.FormatDecimal(t.Amount) + " ⭐"
	case KindTon:
		return common.FormatDecimal(t.Amount) + " TON"
	}
	return common.FormatDecimal(t.Amount) + " " + string(t.Kind)
}

func renderOverview(decisions []*Decision) string {
	var sb strings.Builder
	streak := decisions[0].Streak
	sb.WriteString(fmt.Sprintf("🎁 Награды за огонек (сейчас %d %s)\n\n", streak, common.PluralizeDays(streak)))
	for _, d := range decisions {
		t := d.Tier
		var status string
		switch d.Outcome {
		case OutcomeEligible:
			status = "можно забрать"
		case OutcomeDuplicate:
			status = "✅ получено"
		case OutcomeIneligible:
			status = fmt.Sprintf("ещё %d %s", d.RemainingDays, common.PluralizeDays(d.RemainingDays))
		}
		sb.WriteString(fmt.Sprintf("#%d · %d %s · %s · %s\n   %s\n",
			t.ID, t.RequiredDays, common.PluralizeDays(t.RequiredDays), FormatReward(t), status, t.Description))
	}
	return sb.String()
}

func claimKeyboard(decisions []*Decision) (tgbotapi.InlineKeyboardMarkup, bool) {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, d := range decisions {
		if d.Outcome != OutcomeEligible {
			continue
		}
		label := fmt.Sprintf("Забрать: %s", FormatReward(d.Tier))
		data := CallbackPrefix + strconv.FormatInt(d.Tier.ID, 10)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(label, data)))
	}
	if len(rows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}

func renderDecision(d *Decision) string {
	if d.Tier == nil {
		return "❓ Такой награды нет. Актуальный список: !награды"
	}
	head := fmt.Sprintf("#%d · %s за %d %s", d.Tier.ID, FormatReward(d.Tier), d.Tier.RequiredDays, common.PluralizeDays(d.Tier.RequiredDays))
	switch d.Outcome {
	case OutcomeEligible:
		return head + "\n✅ Можно забрать"
	case OutcomeDuplicate:
		return head + "\n👌 Уже получено"
	default:
		return fmt.Sprintf("%s\n⏳ Огонек %d %s, осталось %d %s", head,
			d.Streak, common.PluralizeDays(d.Streak),
			d.RemainingDays, common.PluralizeDays(d.RemainingDays))
	}
}

func renderClaim(res *ClaimResult) string {
	switch res.Outcome {
	case OutcomeGranted:
		if res.Disposition == DispositionInstant {
			return fmt.Sprintf("🎉 Награда получена: +%s", FormatReward(res.Tier))
		}
		return fmt.Sprintf("🎉 Награда %s твоя! Заявка передана операторам, выплата придёт после проверки", FormatReward(res.Tier))
	case OutcomeDuplicate:
		return "👌 Эту награду ты уже получал"
	case OutcomeIneligible:
		return fmt.Sprintf("⏳ Рано: огонек %d %s, нужно ещё %d %s",
			res.Streak, common.PluralizeDays(res.Streak),
			res.RemainingDays, common.PluralizeDays(res.RemainingDays))
	default:
		return "❓ Такой награды нет. Актуальный список: !награды"
	}
}

func (h *Handler) answer(callbackID, text string) {
	if _, err := h.bot.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		log.WithError(err).Debug("Ошибка ответа на callback")
	}
}

func (h *Handler) sendMessage(chatID int64, text string) {
	if _, err := h.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
