// Package economy — service.go содержит бизнес-логику экономики:
// валидацию начислений, баланс и историю транзакций.
package economy

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/rewards-bot/internal/common"
)

// historyLimit — сколько транзакций показывает !транзакции.
const historyLimit = 10

// spoilerAfter — строки после этой прячутся под спойлер.
const spoilerAfter = 5

// Service управляет экономикой бота.
type Service struct {
	repo *Repository
	loc  *time.Location
}

// NewService создаёт новый сервис экономики.
func NewService(repo *Repository, loc *time.Location) *Service {
	return &Service{repo: repo, loc: loc}
}

// GetBalance возвращает текущий баланс участника.
func (s *Service) GetBalance(ctx context.Context, memberID int64) (int64, error) {
	b, err := s.repo.GetBalance(ctx, memberID)
	if err != nil {
		return 0, err
	}
	return b.Balance, nil
}

// Credit начисляет пленки участнику. Сумма должна быть положительной.
func (s *Service) Credit(ctx context.Context, memberID, amount int64, txType, description string) error {
	if amount <= 0 {
		return common.ErrInvalidAmount
	}
	if err := s.repo.Credit(ctx, memberID, amount, txType, description); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"member_id": memberID,
		"amount":    amount,
		"type":      txType,
	}).Info("Пленки начислены")
	return nil
}

// EnsureBalance создаёт нулевой баланс новому участнику.
func (s *Service) EnsureBalance(ctx context.Context, memberID int64) error {
	return s.repo.EnsureBalance(ctx, memberID)
}

// GetTransactionHistory возвращает отформатированную историю последних транзакций.
func (s *Service) GetTransactionHistory(ctx context.Context, memberID int64) (string, error) {
	transactions, err := s.repo.GetTransactions(ctx, memberID, historyLimit)
	if err != nil {
		return "", err
	}
	return formatHistory(transactions, s.loc), nil
}

// formatHistory собирает текст для MarkdownV2. Больше spoilerAfter строк —
// хвост уходит под спойлер ||…||.
func formatHistory(transactions []*Transaction, loc *time.Location) string {
	if len(transactions) == 0 {
		return "📋 У вас пока нет транзакций"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 Последние %d транзакций:\n\n", len(transactions)))

	lines := make([]string, 0, len(transactions))
	for i, tx := range transactions {
		lines = append(lines, fmt.Sprintf("%d. %s | +%d %s | %s",
			i+1,
			common.FormatDateTime(tx.CreatedAt, loc),
			tx.Amount,
			common.PluralizeFilms(tx.Amount),
			tx.Description,
		))
	}

	if len(lines) <= spoilerAfter {
		for _, line := range lines {
			sb.WriteString(line + "\n")
		}
		return sb.String()
	}

	for _, line := range lines[:spoilerAfter] {
		sb.WriteString(line + "\n")
	}
	sb.WriteString("\n||")
	for _, line := range lines[spoilerAfter:] {
		sb.WriteString(line + "\n")
	}
	sb.WriteString("||")
	return sb.String()
}
