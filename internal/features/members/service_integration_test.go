//go:build integration

package members_test

import (
	"context"
	"testing"

	"serotonyl.ru/rewards-bot/internal/common"
	"serotonyl.ru/rewards-bot/internal/db/postgres/pgtest"
	"serotonyl.ru/rewards-bot/internal/features/members"
)

func TestGetOrCreateKeepsSurrogateID(t *testing.T) {
	pool := pgtest.NewPool(t)
	svc := members.NewService(members.NewRepository(pool), nil)
	ctx := context.Background()

	first, err := svc.GetOrCreate(ctx, 100, "Аня", "@anya", common.Day(2025, 1, 1))
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.GetOrCreate(ctx, 100, "Анна", "anna", common.Day(2025, 2, 1))
	if err != nil {
		t.Fatal(err)
	}

	if first.ID != second.ID {
		t.Fatalf("surrogate id changed: %d -> %d", first.ID, second.ID)
	}
	if second.DisplayName != "Анна" || second.Username != "anna" {
		t.Fatalf("names not refreshed: %+v", second)
	}
	if !second.JoinedAt.Equal(common.Day(2025, 1, 1)) {
		t.Fatalf("joined_at = %v, want first contact day", second.JoinedAt)
	}
}

func TestOperatorsBecomeAdmins(t *testing.T) {
	pool := pgtest.NewPool(t)
	svc := members.NewService(members.NewRepository(pool), []int64{100, 200})
	ctx := context.Background()

	if ok, err := svc.IsAdmin(ctx, 100); err != nil || ok {
		t.Fatalf("unknown user IsAdmin = %v, %v; want false", ok, err)
	}

	m, err := svc.GetOrCreate(ctx, 100, "Оператор", "", common.Day(2025, 1, 1))
	if err != nil {
		t.Fatal(err)
	}
	if !m.IsAdmin {
		t.Fatal("configured operator must be admin on first contact")
	}

	if _, err := svc.GetOrCreate(ctx, 300, "Участник", "", common.Day(2025, 1, 1)); err != nil {
		t.Fatal(err)
	}
	if err := svc.PromoteAdmins(ctx); err != nil {
		t.Fatal(err)
	}
	if ok, err := svc.IsAdmin(ctx, 300); err != nil || ok {
		t.Fatalf("IsAdmin(300) = %v, %v; want false", ok, err)
	}
	if ok, err := svc.IsAdmin(ctx, 100); err != nil || !ok {
		t.Fatalf("IsAdmin(100) = %v, %v; want true", ok, err)
	}
}
