// Package admin — service.go: вход оператора, сессии и state-машина диалога.
package admin

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/rewards-bot/internal/common"
	"serotonyl.ru/rewards-bot/internal/features/orders"
)

// SessionStore — хранилище сессий и попыток входа.
type SessionStore interface {
	CreateSession(ctx context.Context, s *Session) error
	GetActiveSession(ctx context.Context, userID int64) (*Session, error)
	DeactivateSessions(ctx context.Context, userID int64) error
	UpdateActivity(ctx context.Context, userID int64) error
	LogAttempt(ctx context.Context, userID int64, success bool) error
	CountFailedAttempts(ctx context.Context, userID int64, period time.Duration) (int, error)
}

// OrderReviewer — то, что панели нужно от очереди заявок.
type OrderReviewer interface {
	ListPending(ctx context.Context, limit int) ([]*orders.Order, error)
	Approve(ctx context.Context, id, reviewerID int64) (*orders.Order, error)
	Reject(ctx context.Context, id, reviewerID int64) (*orders.Order, error)
}

// Service управляет админ-панелью.
type Service struct {
	store        SessionStore
	orders       OrderReviewer
	passwordHash string

	states   map[int64]*DialogState // Состояния диалогов (в памяти)
	statesMu sync.RWMutex
	now      func() time.Time
}

func NewService(store SessionStore, reviewer OrderReviewer, passwordHash string) *Service {
	return &Service{
		store:        store,
		orders:       reviewer,
		passwordHash: passwordHash,
		states:       make(map[int64]*DialogState),
		now:          time.Now,
	}
}

// Login проверяет пароль и открывает сессию на сутки.
// После maxFailedLogins неудач за час — common.ErrTooManyAttempts.
func (s *Service) Login(ctx context.Context, userID int64, password string) error {
	failed, err := s.store.CountFailedAttempts(ctx, userID, loginWindow)
	if err != nil {
		return err
	}
	if failed >= maxFailedLogins {
		return common.ErrTooManyAttempts
	}

	match, err := verifyArgon2id(password, s.passwordHash)
	if err != nil {
		log.WithError(err).Error("ADMIN_PASSWORD_HASH не разбирается")
	}
	if err := s.store.LogAttempt(ctx, userID, match); err != nil {
		log.WithError(err).Warn("Не удалось записать попытку входа")
	}
	if !match {
		log.WithField("user_id", userID).Warn("Неудачный вход в админку")
		return common.ErrWrongPassword
	}

	token, err := generateSessionToken()
	if err != nil {
		return err
	}
	return s.store.CreateSession(ctx, &Session{
		UserID:       userID,
		SessionToken: token,
		ExpiresAt:    s.now().Add(sessionTTL),
	})
}

// HasActiveSession — есть ли у оператора действующая сессия.
// Заодно продлевает last_activity.
func (s *Service) HasActiveSession(ctx context.Context, userID int64) (bool, error) {
	_, err := s.store.GetActiveSession(ctx, userID)
	if errors.Is(err, common.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := s.store.UpdateActivity(ctx, userID); err != nil {
		log.WithError(err).Debug("Не удалось обновить активность сессии")
	}
	return true, nil
}

// Logout закрывает сессии и сбрасывает диалог.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	s.ClearState(userID)
	return s.store.DeactivateSessions(ctx, userID)
}

// PendingOrders — заявки для выбора в панели.
func (s *Service) PendingOrders(ctx context.Context) ([]*orders.Order, error) {
	return s.orders.ListPending(ctx, ordersPageSize)
}

// Decide одобряет или отклоняет заявку.
func (s *Service) Decide(ctx context.Context, orderID, reviewerID int64, approve bool) (*orders.Order, error) {
	if approve {
		return s.orders.Approve(ctx, orderID, reviewerID)
	}
	return s.orders.Reject(ctx, orderID, reviewerID)
}

// GetState возвращает текущий шаг диалога или nil, если он истёк.
func (s *Service) GetState(userID int64) *DialogState {
	s.statesMu.RLock()
	defer s.statesMu.RUnlock()

	state, ok := s.states[userID]
	if !ok || s.now().After(state.ExpiresAt) {
		return nil
	}
	return state
}

// SetState запоминает шаг диалога на stateTTL.
func (s *Service) SetState(userID int64, name string, data any) {
	s.statesMu.Lock()
	defer s.statesMu.Unlock()
	s.states[userID] = &DialogState{State: name, Data: data, ExpiresAt: s.now().Add(stateTTL)}
}

func (s *Service) ClearState(userID int64) {
	s.statesMu.Lock()
	defer s.statesMu.Unlock()
	delete(s.states, userID)
}
