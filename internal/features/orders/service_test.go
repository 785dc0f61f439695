package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"serotonyl.ru/rewards-bot/internal/common"
)

// memStore ведёт себя как Repository, включая условный Resolve.
type memStore struct {
	mu     sync.Mutex
	nextID int64
	orders map[int64]*Order
}

func newMemStore() *memStore {
	return &memStore{orders: make(map[int64]*Order)}
}

func (m *memStore) Create(_ context.Context, memberID int64, orderType string, amount float64, note string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	o := &Order{
		ID: m.nextID, Ref: fmt.Sprintf("%08d-0000-4000-8000-000000000000", m.nextID),
		MemberID: memberID, Type: orderType, Amount: amount, Status: StatusPending,
		Note: note, CreatedAt: time.Now(), MemberName: "Аня",
	}
	m.orders[o.ID] = o
	cp := *o
	return &cp, nil
}

func (m *memStore) GetByID(_ context.Context, id int64) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memStore) ListPending(_ context.Context, limit int) ([]*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Order
	for id := int64(1); id <= m.nextID && len(out) < limit; id++ {
		if o, ok := m.orders[id]; ok && o.Status == StatusPending {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) CountPending(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, o := range m.orders {
		if o.Status == StatusPending {
			n++
		}
	}
	return n, nil
}

func (m *memStore) Resolve(_ context.Context, id int64, status Status, reviewerID int64) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	if o.Status != StatusPending {
		cp := *o
		return &cp, common.ErrOrderNotPending
	}
	o.Status = status
	o.ReviewedBy = &reviewerID
	cp := *o
	return &cp, nil
}

func TestCreateRejectsNonPositiveAmount(t *testing.T) {
	svc := NewService(newMemStore(), time.UTC)
	for _, amount := range []float64{0, -1} {
		if _, err := svc.Create(context.Background(), 1, "ton", amount, ""); !errors.Is(err, common.ErrInvalidAmount) {
			t.Fatalf("Create(%v) err = %v, want ErrInvalidAmount", amount, err)
		}
	}
}

func TestCreateIsPending(t *testing.T) {
	svc := NewService(newMemStore(), time.UTC)
	o, err := svc.Create(context.Background(), 1, "ton", 0.5, "Месяц с огоньком")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if o.Status != StatusPending || o.Amount != 0.5 {
		t.Fatalf("order = %+v", o)
	}
}

func TestResolveOnlyOnce(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, time.UTC)
	ctx := context.Background()
	o, _ := svc.Create(ctx, 1, "stars", 25, "")

	const admins = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	won, lost := 0, 0
	for i := 0; i < admins; i++ {
		wg.Add(1)
		go func(reviewer int64) {
			defer wg.Done()
			var err error
			if reviewer%2 == 0 {
				_, err = svc.Approve(ctx, o.ID, reviewer)
			} else {
				_, err = svc.Reject(ctx, o.ID, reviewer)
			}
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				won++
			case errors.Is(err, common.ErrOrderNotPending):
				lost++
			default:
				t.Errorf("resolve: %v", err)
			}
		}(int64(i + 100))
	}
	wg.Wait()

	if won != 1 || lost != admins-1 {
		t.Fatalf("won=%d lost=%d", won, lost)
	}
	if n, _ := svc.CountPending(ctx); n != 0 {
		t.Fatalf("pending = %d, want 0", n)
	}
}

func TestResolveUnknownOrder(t *testing.T) {
	svc := NewService(newMemStore(), time.UTC)
	if _, err := svc.Approve(context.Background(), 42, 1); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDigest(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, time.UTC)
	ctx := context.Background()

	text, err := svc.Digest(ctx, 10)
	if err != nil || text != "" {
		t.Fatalf("empty digest = %q, %v", text, err)
	}

	for i := 0; i < 3; i++ {
		if _, err := svc.Create(ctx, 1, "ton", 0.5, ""); err != nil {
			t.Fatal(err)
		}
	}
	text, err = svc.Digest(ctx, 2)
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	for _, want := range []string{"Заявок на выплату: 3", "1. #", "2. #", "0.5 ton", "и ещё 1"} {
		if !strings.Contains(text, want) {
			t.Errorf("digest missing %q:\n%s", want, text)
		}
	}
}

func TestShortRef(t *testing.T) {
	o := &Order{Ref: "3f2a9c1e-0000-4000-8000-000000000000"}
	if got := o.ShortRef(); got != "3f2a9c1e" {
		t.Fatalf("ShortRef = %q", got)
	}
}
