package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	"serotonyl.ru/rewards-bot/internal/common"
	"serotonyl.ru/rewards-bot/internal/features/orders"
)

type memSessions struct {
	sessions map[int64]*Session
	attempts []bool
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: make(map[int64]*Session)}
}

func (m *memSessions) CreateSession(_ context.Context, s *Session) error {
	s.IsActive = true
	m.sessions[s.UserID] = s
	return nil
}

func (m *memSessions) GetActiveSession(_ context.Context, userID int64) (*Session, error) {
	s, ok := m.sessions[userID]
	if !ok || !s.IsActive || time.Now().After(s.ExpiresAt) {
		return nil, common.ErrNotFound
	}
	return s, nil
}

func (m *memSessions) DeactivateSessions(_ context.Context, userID int64) error {
	if s, ok := m.sessions[userID]; ok {
		s.IsActive = false
	}
	return nil
}

func (m *memSessions) UpdateActivity(context.Context, int64) error { return nil }

func (m *memSessions) LogAttempt(_ context.Context, _ int64, success bool) error {
	m.attempts = append(m.attempts, success)
	return nil
}

func (m *memSessions) CountFailedAttempts(context.Context, int64, time.Duration) (int, error) {
	n := 0
	for _, ok := range m.attempts {
		if !ok {
			n++
		}
	}
	return n, nil
}

type noOrders struct{}

func (noOrders) ListPending(context.Context, int) ([]*orders.Order, error) { return nil, nil }
func (noOrders) Approve(context.Context, int64, int64) (*orders.Order, error) {
	return nil, common.ErrNotFound
}
func (noOrders) Reject(context.Context, int64, int64) (*orders.Order, error) {
	return nil, common.ErrNotFound
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	h, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	return h
}

func TestHashPasswordVerifies(t *testing.T) {
	h := mustHash(t, "огонек-2025")

	ok, err := verifyArgon2id("огонек-2025", h)
	if err != nil || !ok {
		t.Fatalf("verify correct password = %v, %v", ok, err)
	}
	ok, err = verifyArgon2id("огонек-2024", h)
	if err != nil || ok {
		t.Fatalf("verify wrong password = %v, %v", ok, err)
	}
	if h2 := mustHash(t, "огонек-2025"); h2 == h {
		t.Fatal("two hashes of one password are equal, salt not random")
	}
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	for _, h := range []string{"", "plain", "$argon2i$v=19$m=1,t=1,p=1$AAAA$AAAA", "$argon2id$v=19$bad$AAAA$AAAA"} {
		if ok, err := verifyArgon2id("x", h); err == nil || ok {
			t.Errorf("verifyArgon2id(%q) = %v, %v", h, ok, err)
		}
	}
}

func TestLoginOpensSession(t *testing.T) {
	store := newMemSessions()
	svc := NewService(store, noOrders{}, mustHash(t, "secret"))
	ctx := context.Background()

	if active, _ := svc.HasActiveSession(ctx, 1); active {
		t.Fatal("session before login")
	}
	if err := svc.Login(ctx, 1, "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if active, err := svc.HasActiveSession(ctx, 1); err != nil || !active {
		t.Fatalf("HasActiveSession = %v, %v", active, err)
	}
	if err := svc.Logout(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if active, _ := svc.HasActiveSession(ctx, 1); active {
		t.Fatal("session after logout")
	}
}

func TestLoginLocksAfterFailedAttempts(t *testing.T) {
	store := newMemSessions()
	svc := NewService(store, noOrders{}, mustHash(t, "secret"))
	ctx := context.Background()

	for i := 0; i < maxFailedLogins; i++ {
		if err := svc.Login(ctx, 1, "guess"); !errors.Is(err, common.ErrWrongPassword) {
			t.Fatalf("attempt %d: %v", i, err)
		}
	}
	if err := svc.Login(ctx, 1, "secret"); !errors.Is(err, common.ErrTooManyAttempts) {
		t.Fatalf("after lockout: %v", err)
	}
}

func TestDialogStateExpires(t *testing.T) {
	svc := NewService(newMemSessions(), noOrders{}, "")
	now := time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	svc.SetState(1, StateOrderSelect, []*orders.Order{{ID: 7}})
	if st := svc.GetState(1); st == nil || st.State != StateOrderSelect {
		t.Fatalf("state = %+v", st)
	}

	now = now.Add(stateTTL + time.Second)
	if st := svc.GetState(1); st != nil {
		t.Fatalf("expired state returned: %+v", st)
	}
}

func TestIsEntry(t *testing.T) {
	for _, s := range []string{"!админ", "/admin", "Админ", " панель "} {
		if !IsEntry(s) {
			t.Errorf("IsEntry(%q) = false", s)
		}
	}
	if IsEntry("!награды") {
		t.Error("IsEntry(!награды) = true")
	}
}
