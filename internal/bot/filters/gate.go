// Package filters решает, пускать ли апдейт к обработчикам.
package filters

import (
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// positiveTTL — сколько помним, что пользователь подписан.
// Отрицательный ответ не кэшируется: подписавшийся должен пройти сразу.
const positiveTTL = 10 * time.Minute

// MemberChecker — часть *tgbotapi.BotAPI для проверки подписки.
type MemberChecker interface {
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
}

// Gate пускает к боту только подписчиков канала REQUIRED_CHANNEL_ID.
type Gate struct {
	api       MemberChecker
	channelID int64

	mu      sync.Mutex
	allowed map[int64]time.Time
	now     func() time.Time
}

// NewGate создаёт фильтр. channelID == 0 выключает проверку.
func NewGate(api MemberChecker, channelID int64) *Gate {
	return &Gate{
		api:       api,
		channelID: channelID,
		allowed:   make(map[int64]time.Time),
		now:       time.Now,
	}
}

// IsSubscribed сообщает, подписан ли пользователь на обязательный канал.
// Ошибка Telegram API возвращается как есть, решение остаётся за вызывающим.
func (g *Gate) IsSubscribed(userID int64) (bool, error) {
	if g.channelID == 0 {
		return true, nil
	}

	g.mu.Lock()
	until, ok := g.allowed[userID]
	g.mu.Unlock()
	if ok && g.now().Before(until) {
		return true, nil
	}

	cm, err := g.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: g.channelID,
			UserID: userID,
		},
	})
	if err != nil {
		return false, fmt.Errorf("GetChatMember(channel=%d, user=%d): %w", g.channelID, userID, err)
	}

	logger := log.WithFields(log.Fields{
		"component": "Gate",
		"user_id":   userID,
		"tg_status": cm.Status,
	})

	switch cm.Status {
	case "creator", "administrator", "member", "restricted":
		g.mu.Lock()
		g.allowed[userID] = g.now().Add(positiveTTL)
		g.mu.Unlock()
		logger.Debug("allow: subscribed")
		return true, nil
	default:
		g.mu.Lock()
		delete(g.allowed, userID)
		g.mu.Unlock()
		logger.Debug("deny: not subscribed")
		return false, nil
	}
}
