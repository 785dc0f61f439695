// Package admin — handlers.go обрабатывает панель оператора.
// Панель работает через Reply Keyboard в личных сообщениях.
// Поток: пароль → клавиатура → «Заявки» → номер → «Одобрить»/«Отклонить».
package admin

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
	"serotonyl.ru/rewards-bot/internal/features/members"
	"serotonyl.ru/rewards-bot/internal/features/orders"
)

// Handler обрабатывает сообщения операторов.
type Handler struct {
	service       *Service
	memberService *members.Service
	bot           *tgbotapi.BotAPI
	loc           *time.Location
}

func NewHandler(service *Service, memberService *members.Service, bot *tgbotapi.BotAPI, loc *time.Location) *Handler {
	return &Handler{service: service, memberService: memberService, bot: bot, loc: loc}
}

// IsEntry — открывает ли текст панель.
func IsEntry(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "!админ", "/admin", "админ", "панель":
		return true
	}
	return false
}

// HandleAdminMessage обрабатывает сообщение в личке. false — сообщение не для панели
// (пишет не оператор, или панель не открыта и текст её не открывает).
func (h *Handler) HandleAdminMessage(ctx context.Context, chatID, userID int64, text string) bool {
	isAdmin, err := h.memberService.IsAdmin(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка проверки прав оператора")
		return false
	}
	if !isAdmin {
		return false
	}

	state := h.service.GetState(userID)
	if state != nil && state.State == StateAwaitingPassword {
		h.handlePasswordInput(ctx, chatID, userID, text)
		return true
	}

	active, err := h.service.HasActiveSession(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Ошибка проверки сессии")
		h.sendMessage(chatID, "❌ Ошибка проверки сессии")
		return true
	}
	if !active {
		if !IsEntry(text) {
			return false
		}
		h.sendMessage(chatID, "🔐 Введите пароль для доступа к админ-панели:")
		h.service.SetState(userID, StateAwaitingPassword, nil)
		return true
	}

	if text == ButtonBack {
		h.service.ClearState(userID)
		h.showKeyboard(chatID, "Главное меню")
		return true
	}

	if state != nil {
		switch state.State {
		case StateOrderSelect:
			h.handleOrderSelect(chatID, userID, text, state)
			return true
		case StateOrderDecision:
			h.handleOrderDecision(ctx, chatID, userID, text, state)
			return true
		}
	}

	switch text {
	case ButtonOrders:
		h.startOrderReview(ctx, chatID, userID)
		return true
	case ButtonLogout:
		if err := h.service.Logout(ctx, userID); err != nil {
			log.WithError(err).Error("Ошибка выхода из админки")
		}
		msg := tgbotapi.NewMessage(chatID, "👋 Сессия закрыта")
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
		h.send(msg)
		return true
	}
	if IsEntry(text) {
		h.showKeyboard(chatID, "✅ Админ-панель открыта")
		return true
	}
	return false
}

func (h *Handler) handlePasswordInput(ctx context.Context, chatID, userID int64, password string) {
	h.service.ClearState(userID)
	if err := h.service.Login(ctx, userID, password); err != nil {
		switch {
		case errors.Is(err, common.ErrWrongPassword), errors.Is(err, common.ErrTooManyAttempts):
			h.sendMessage(chatID, fmt.Sprintf("❌ %s", err.Error()))
		default:
			log.WithError(err).Error("Ошибка входа в админку")
			h.sendMessage(chatID, "❌ Ошибка входа")
		}
		return
	}
	h.showKeyboard(chatID, "✅ Аутентификация успешна!")
}

func (h *Handler) showKeyboard(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(ButtonOrders)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(ButtonLogout)),
	)
	h.send(msg)
}

// startOrderReview — шаг 1: список ожидающих заявок.
func (h *Handler) startOrderReview(ctx context.Context, chatID, userID int64) {
	pending, err := h.service.PendingOrders(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка получения заявок")
		h.sendMessage(chatID, "❌ Ошибка получения заявок")
		return
	}
	if len(pending) == 0 {
		h.sendMessage(chatID, "📭 Заявок нет")
		return
	}

	var sb strings.Builder
	sb.WriteString("Выберите заявку (отправьте номер):\n\n")
	for i, o := range pending {
		sb.WriteString(orders.FormatLine(i+1, o, h.loc))
		sb.WriteString("\n")
	}
	h.sendMessage(chatID, sb.String())
	h.service.SetState(userID, StateOrderSelect, pending)
}

// handleOrderSelect — шаг 2: оператор прислал номер.
func (h *Handler) handleOrderSelect(chatID, userID int64, text string, state *DialogState) {
	pending, _ := state.Data.([]*orders.Order)
	num, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || num < 1 || num > len(pending) {
		h.sendMessage(chatID, "❌ Неверный номер. Попробуйте ещё раз.")
		return
	}

	o := pending[num-1]
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(
		"Заявка #%s\nУчастник: %s (id %d)\nНаграда: %s %s\n%s\nСоздана: %s",
		o.ShortRef(), o.MemberName, o.MemberUserID,
		common.FormatDecimal(o.Amount), o.Type, o.Note,
		common.FormatDateTime(o.CreatedAt, h.loc),
	))
	msg.ReplyMarkup = tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonApprove),
			tgbotapi.NewKeyboardButton(ButtonReject),
		),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(ButtonBack)),
	)
	h.send(msg)
	h.service.SetState(userID, StateOrderDecision, o)
}

// handleOrderDecision — шаг 3: решение по заявке.
func (h *Handler) handleOrderDecision(ctx context.Context, chatID, userID int64, text string, state *DialogState) {
	o, _ := state.Data.(*orders.Order)
	if o == nil || (text != ButtonApprove && text != ButtonReject) {
		h.sendMessage(chatID, "Нажмите «Одобрить», «Отклонить» или «Назад»")
		return
	}
	h.service.ClearState(userID)

	approve := text == ButtonApprove
	resolved, err := h.service.Decide(ctx, o.ID, userID, approve)
	switch {
	case errors.Is(err, common.ErrOrderNotPending):
		h.showKeyboard(chatID, "⚠️ Заявку уже рассмотрел другой оператор")
		return
	case err != nil:
		log.WithError(err).WithField("order_id", o.ID).Error("Ошибка рассмотрения заявки")
		h.showKeyboard(chatID, "❌ Ошибка рассмотрения заявки")
		return
	}

	verdict := "одобрена ✅"
	userText := fmt.Sprintf("🎉 Заявка #%s одобрена, выплата %s %s отправлена",
		resolved.ShortRef(), common.FormatDecimal(resolved.Amount), resolved.Type)
	if !approve {
		verdict = "отклонена ❌"
		userText = fmt.Sprintf("😔 Заявка #%s отклонена. Если это ошибка, напиши администратору",
			resolved.ShortRef())
	}
	h.showKeyboard(chatID, fmt.Sprintf("Заявка #%s %s", resolved.ShortRef(), verdict))
	h.sendMessage(resolved.MemberUserID, userText)
}

func (h *Handler) send(msg tgbotapi.MessageConfig) {
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}

func (h *Handler) sendMessage(chatID int64, text string) {
	h.send(tgbotapi.NewMessage(chatID, text))
}
