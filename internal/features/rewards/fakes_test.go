package rewards

import (
	"context"
	"sync"
	"time"

	"serotonyl.ru/rewards-bot/internal/common"
	"serotonyl.ru/rewards-bot/internal/features/activity/activitytest"
	"serotonyl.ru/rewards-bot/internal/features/members"
	"serotonyl.ru/rewards-bot/internal/features/orders"
	"serotonyl.ru/rewards-bot/internal/features/streak"
)

// memCatalog — каталог в памяти. ID растут и после пересева, как у BIGSERIAL.
type memCatalog struct {
	mu     sync.Mutex
	nextID int64
	tiers  []*Tier
}

func (c *memCatalog) GetTier(_ context.Context, id int64) (*Tier, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.tiers {
		if t.ID == id {
			cp := *t
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (c *memCatalog) ListTiers(context.Context) ([]*Tier, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Tier, 0, len(c.tiers))
	for _, t := range c.tiers {
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (c *memCatalog) ResetAndSeed(_ context.Context, tiers []Tier) ([]*Tier, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tiers = nil
	for _, t := range tiers {
		c.nextID++
		t.ID = c.nextID
		cp := t
		c.tiers = append(c.tiers, &cp)
	}
	out := make([]*Tier, len(c.tiers))
	copy(out, c.tiers)
	return out, nil
}

type memberKey struct {
	memberID int64
	key      claimKey
}

// memClaims повторяет InsertClaim репозитория: уникальность по (участник, вид, сумма),
// ошибка fulfil отменяет вставку.
type memClaims struct {
	mu     sync.Mutex
	claims map[memberKey]*Claim
}

func newMemClaims() *memClaims {
	return &memClaims{claims: make(map[memberKey]*Claim)}
}

func (m *memClaims) HasClaim(_ context.Context, memberID int64, kind Kind, amount float64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.claims[memberKey{memberID, claimKey{kind, amount}}]
	return ok, nil
}

func (m *memClaims) InsertClaim(ctx context.Context, c *Claim, fulfil func(ctx context.Context) error) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := memberKey{c.MemberID, claimKey{c.Kind, c.Amount}}
	if _, ok := m.claims[k]; ok {
		return false, nil
	}
	if err := fulfil(ctx); err != nil {
		return false, err
	}
	c.ID = int64(len(m.claims) + 1)
	c.ClaimedAt = time.Now()
	m.claims[k] = c
	return true, nil
}

func (m *memClaims) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.claims)
}

type fakeCredit struct {
	mu    sync.Mutex
	total map[int64]int64
	calls int
	err   error
}

func (f *fakeCredit) Credit(_ context.Context, memberID, amount int64, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.total == nil {
		f.total = make(map[int64]int64)
	}
	f.total[memberID] += amount
	f.calls++
	return nil
}

type fakeQueue struct {
	mu     sync.Mutex
	orders []*orders.Order
}

func (q *fakeQueue) Create(_ context.Context, memberID int64, orderType string, amount float64, note string) (*orders.Order, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	o := &orders.Order{
		ID: int64(len(q.orders) + 1), Ref: "9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d",
		MemberID: memberID, Type: orderType, Amount: amount, Status: orders.StatusPending, Note: note,
	}
	q.orders = append(q.orders, o)
	return o, nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (n *fakeNotifier) Notify(text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.texts = append(n.texts, text)
	return n.err
}

// fixture собирает сервис на фейках и настоящем калькуляторе огонька.
type fixture struct {
	days     *activitytest.Store
	catalog  *memCatalog
	claims   *memClaims
	credit   *fakeCredit
	queue    *fakeQueue
	notifier *fakeNotifier
	ledger   *Ledger
	svc      *Service
	member   *members.Member
}

func newFixture(tiers ...Tier) *fixture {
	f := &fixture{
		days:     activitytest.NewStore(),
		catalog:  &memCatalog{},
		claims:   newMemClaims(),
		credit:   &fakeCredit{},
		queue:    &fakeQueue{},
		notifier: &fakeNotifier{},
		member:   &members.Member{ID: 1, UserID: 100500, DisplayName: "Аня", Username: "anya"},
	}
	calc := streak.NewCalculator(f.days, time.UTC, 0)
	f.ledger = NewLedger(f.catalog, calc, f.claims)
	f.svc = NewService(f.catalog, f.ledger, f.credit, f.queue, f.notifier)
	if len(tiers) > 0 {
		if _, err := f.svc.Seed(context.Background(), tiers); err != nil {
			panic(err)
		}
	}
	return f
}

// giveStreak отмечает участника n дней подряд по сегодня включительно.
func (f *fixture) giveStreak(memberID int64, n int) {
	today := common.Today(time.UTC)
	for i := 0; i < n; i++ {
		f.days.Add(memberID, today.AddDate(0, 0, -i))
	}
}

func (f *fixture) tierID(requiredDays int) int64 {
	tiers, _ := f.catalog.ListTiers(context.Background())
	for _, t := range tiers {
		if t.RequiredDays == requiredDays {
			return t.ID
		}
	}
	return -1
}
