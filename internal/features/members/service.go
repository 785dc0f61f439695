// Package members — service.go: поиск и регистрация участников.
package members

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/rewards-bot/internal/common"
)

// Service управляет участниками.
type Service struct {
	repo     *Repository
	adminIDs []int64
}

// NewService создаёт новый сервис участников. adminIDs — Telegram ID операторов.
func NewService(repo *Repository, adminIDs []int64) *Service {
	return &Service{repo: repo, adminIDs: adminIDs}
}

// GetOrCreate возвращает участника по Telegram ID, создавая его при первом обращении.
// Имя и username обновляются при каждом вызове, день вступления — только при создании.
func (s *Service) GetOrCreate(ctx context.Context, externalID int64, displayName, handle string, joined time.Time) (*Member, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = handle
	}
	m, err := s.repo.Upsert(ctx, externalID, displayName, strings.TrimPrefix(handle, "@"), joined)
	if err != nil {
		return nil, err
	}
	if !m.IsAdmin && slices.Contains(s.adminIDs, externalID) {
		if err := s.repo.SetAdmin(ctx, externalID, true); err != nil {
			return nil, err
		}
		m.IsAdmin = true
	}

	log.WithFields(log.Fields{
		"user_id":   externalID,
		"member_id": m.ID,
	}).Debug("Участник найден/создан")
	return m, nil
}

// IsAdmin проверяет флаг оператора. Незнакомый боту пользователь — не оператор.
func (s *Service) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	m, err := s.repo.GetByUserID(ctx, userID)
	if errors.Is(err, common.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return m.IsAdmin, nil
}

// PromoteAdmins выставляет флаг администратора уже известным операторам.
// Новые получат флаг в GetOrCreate при первом обращении.
func (s *Service) PromoteAdmins(ctx context.Context) error {
	for _, id := range s.adminIDs {
		if err := s.repo.SetAdmin(ctx, id, true); err != nil {
			return err
		}
	}
	return nil
}
