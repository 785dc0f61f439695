// Package orders — service.go: создание и рассмотрение заявок.
package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/rewards-bot/internal/common"
)

// Store — хранилище заявок.
type Store interface {
	Create(ctx context.Context, memberID int64, orderType string, amount float64, note string) (*Order, error)
	GetByID(ctx context.Context, id int64) (*Order, error)
	ListPending(ctx context.Context, limit int) ([]*Order, error)
	CountPending(ctx context.Context) (int, error)
	Resolve(ctx context.Context, id int64, status Status, reviewerID int64) (*Order, error)
}

// Service управляет заявками.
type Service struct {
	store Store
	loc   *time.Location
}

func NewService(store Store, loc *time.Location) *Service {
	return &Service{store: store, loc: loc}
}

// Create ставит заявку в очередь. Сумма должна быть положительной.
func (s *Service) Create(ctx context.Context, memberID int64, orderType string, amount float64, note string) (*Order, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: %s", common.ErrInvalidAmount, common.FormatDecimal(amount))
	}
	o, err := s.store.Create(ctx, memberID, orderType, amount, note)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"order_id":  o.ID,
		"ref":       o.Ref,
		"member_id": memberID,
		"type":      orderType,
	}).Info("Заявка создана")
	return o, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Order, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Service) ListPending(ctx context.Context, limit int) ([]*Order, error) {
	return s.store.ListPending(ctx, limit)
}

func (s *Service) CountPending(ctx context.Context) (int, error) {
	return s.store.CountPending(ctx)
}

// Approve и Reject закрывают заявку от имени оператора reviewerID.
func (s *Service) Approve(ctx context.Context, id, reviewerID int64) (*Order, error) {
	return s.resolve(ctx, id, StatusApproved, reviewerID)
}

func (s *Service) Reject(ctx context.Context, id, reviewerID int64) (*Order, error) {
	return s.resolve(ctx, id, StatusRejected, reviewerID)
}

func (s *Service) resolve(ctx context.Context, id int64, status Status, reviewerID int64) (*Order, error) {
	o, err := s.store.Resolve(ctx, id, status, reviewerID)
	if err != nil {
		return o, err
	}
	log.WithFields(log.Fields{
		"order_id": id,
		"status":   status,
		"reviewer": reviewerID,
	}).Info("Заявка рассмотрена")
	return o, nil
}

// Digest — текст утренней сводки для операторов. Пустая очередь — пустая строка.
func (s *Service) Digest(ctx context.Context, limit int) (string, error) {
	total, err := s.store.CountPending(ctx)
	if err != nil {
		return "", err
	}
	if total == 0 {
		return "", nil
	}
	pending, err := s.store.ListPending(ctx, limit)
	if err != nil {
		return "", err
	}
	return FormatDigest(pending, total, s.loc), nil
}

// FormatDigest печатает список заявок. total может быть больше len(pending).
func FormatDigest(pending []*Order, total int, loc *time.Location) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📬 Заявок на выплату: %d\n\n", total))
	for i, o := range pending {
		sb.WriteString(FormatLine(i+1, o, loc))
		sb.WriteString("\n")
	}
	if rest := total - len(pending); rest > 0 {
		sb.WriteString(fmt.Sprintf("…и ещё %d\n", rest))
	}
	return sb.String()
}

// FormatLine — одна строка списка заявок.
func FormatLine(n int, o *Order, loc *time.Location) string {
	return fmt.Sprintf("%d. #%s | %s | %s %s | %s",
		n, o.ShortRef(), o.MemberName,
		common.FormatDecimal(o.Amount), o.Type,
		common.FormatDateTime(o.CreatedAt, loc),
	)
}
