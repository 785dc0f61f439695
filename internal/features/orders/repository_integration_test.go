//go:build integration

package orders_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"serotonyl.ru/rewards-bot/internal/common"
	"serotonyl.ru/rewards-bot/internal/db/postgres/pgtest"
	"serotonyl.ru/rewards-bot/internal/features/orders"
)

func TestResolveOnlyOnce(t *testing.T) {
	pool := pgtest.NewPool(t)
	svc := orders.NewService(orders.NewRepository(pool), time.UTC)
	ctx := context.Background()
	member := pgtest.Member(t, pool, 100)

	o, err := svc.Create(ctx, member, "ton", 0.5, "Месяц с огоньком")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if o.Status != orders.StatusPending || o.Ref == "" || o.MemberUserID != 100 {
		t.Fatalf("created order = %+v", o)
	}

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Approve(ctx, o.ID, int64(900+i))
		}(i)
	}
	wg.Wait()

	ok, stale := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, common.ErrOrderNotPending):
			stale++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || stale != 4 {
		t.Fatalf("approved=%d stale=%d, want 1 and 4", ok, stale)
	}

	n, err := svc.CountPending(ctx)
	if err != nil || n != 0 {
		t.Fatalf("CountPending = %d, %v; want 0", n, err)
	}
}

func TestDigestListsPendingOnly(t *testing.T) {
	pool := pgtest.NewPool(t)
	svc := orders.NewService(orders.NewRepository(pool), time.UTC)
	ctx := context.Background()
	member := pgtest.Member(t, pool, 100)

	text, err := svc.Digest(ctx, 10)
	if err != nil || text != "" {
		t.Fatalf("empty Digest = %q, %v", text, err)
	}

	first, err := svc.Create(ctx, member, "stars", 25, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, member, "ton", 0.5, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Reject(ctx, first.ID, 900); err != nil {
		t.Fatal(err)
	}

	pending, err := svc.ListPending(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].Type != "ton" {
		t.Fatalf("pending = %+v, want only ton order", pending)
	}

	if _, err := svc.GetByID(ctx, 9999); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("GetByID(missing) error = %v, want ErrNotFound", err)
	}
}
