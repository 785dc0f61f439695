//go:build integration

package activity_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"serotonyl.ru/rewards-bot/internal/common"
	"serotonyl.ru/rewards-bot/internal/db/postgres/pgtest"
	"serotonyl.ru/rewards-bot/internal/features/activity"
)

func TestPutCheckinIsIdempotent(t *testing.T) {
	pool := pgtest.NewPool(t)
	repo := activity.NewRepository(pool)
	ctx := context.Background()
	member := pgtest.Member(t, pool, 100)
	day := common.Day(2025, 1, 5)

	var created atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.PutCheckin(ctx, member, day, activity.KindDaily)
			if err != nil {
				t.Errorf("PutCheckin: %v", err)
				return
			}
			if ok {
				created.Add(1)
			}
		}()
	}
	wg.Wait()

	if created.Load() != 1 {
		t.Fatalf("created = %d, want 1", created.Load())
	}
	records, err := repo.ListForUser(ctx, member)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || !records[0].Day.Equal(day) {
		t.Fatalf("records = %+v, want one on %s", records, common.FormatDay(day))
	}
}

func TestListDaysInRangeAndExists(t *testing.T) {
	pool := pgtest.NewPool(t)
	repo := activity.NewRepository(pool)
	ctx := context.Background()
	member := pgtest.Member(t, pool, 100)

	for _, d := range []int{1, 2, 4, 5} {
		if _, err := repo.PutCheckin(ctx, member, common.Day(2025, 1, d), activity.KindDaily); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := repo.PutCheckin(ctx, member, common.Day(2025, 2, 1), activity.KindDaily); err != nil {
		t.Fatal(err)
	}

	days, err := repo.ListDaysInRange(ctx, member, common.Day(2025, 1, 1), common.Day(2025, 1, 31))
	if err != nil {
		t.Fatal(err)
	}
	if len(days) != 4 {
		t.Fatalf("days in January = %d, want 4", len(days))
	}

	ok, err := repo.Exists(ctx, member, common.Day(2025, 1, 3))
	if err != nil || ok {
		t.Fatalf("Exists(03.01) = %v, %v; want false", ok, err)
	}
	ok, err = repo.Exists(ctx, member, common.Day(2025, 1, 4))
	if err != nil || !ok {
		t.Fatalf("Exists(04.01) = %v, %v; want true", ok, err)
	}
}

func TestUsersToRemind(t *testing.T) {
	pool := pgtest.NewPool(t)
	repo := activity.NewRepository(pool)
	ctx := context.Background()
	yesterday, today := common.Day(2025, 1, 4), common.Day(2025, 1, 5)

	lapsing := pgtest.Member(t, pool, 100)
	done := pgtest.Member(t, pool, 200)
	pgtest.Member(t, pool, 300)

	mustPut := func(member int64, days ...int) {
		for _, d := range days {
			if _, err := repo.PutCheckin(ctx, member, common.Day(2025, 1, d), activity.KindDaily); err != nil {
				t.Fatal(err)
			}
		}
	}
	mustPut(lapsing, 4)
	mustPut(done, 4, 5)

	list, err := repo.UsersToRemind(ctx, yesterday, today)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].MemberID != lapsing || list[0].UserID != 100 {
		t.Fatalf("UsersToRemind = %+v, want only member %d", list, lapsing)
	}
}
