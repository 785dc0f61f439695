package calendar

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"serotonyl.ru/rewards-bot/internal/common"
	"serotonyl.ru/rewards-bot/internal/features/activity/activitytest"
)

// rangeStore добавляет к activitytest.Store выборку по периоду.
type rangeStore struct {
	*activitytest.Store
	rangeCalls int
}

func (r *rangeStore) ListDaysInRange(ctx context.Context, memberID int64, from, to time.Time) ([]time.Time, error) {
	r.rangeCalls++
	recs, err := r.ListForUser(ctx, memberID)
	if err != nil {
		return nil, err
	}
	var out []time.Time
	for _, rec := range recs {
		if !rec.Day.Before(from) && !rec.Day.After(to) {
			out = append(out, rec.Day)
		}
	}
	return out, nil
}

func TestProjectMonthSizes(t *testing.T) {
	tests := []struct {
		year, month int
		want        int
	}{
		{2024, 2, 29},
		{2025, 2, 28},
		{2000, 2, 29},
		{1900, 2, 28},
		{2025, 1, 31},
		{2025, 4, 30},
		{2025, 12, 31},
	}
	for _, tt := range tests {
		store := activitytest.NewStore()
		got, err := NewProjector(store).ProjectMonth(context.Background(), 1, tt.year, tt.month)
		if err != nil {
			t.Fatalf("%d-%02d: %v", tt.year, tt.month, err)
		}
		if len(got) != tt.want {
			t.Errorf("%d-%02d: %d keys, want %d", tt.year, tt.month, len(got), tt.want)
		}
		for d := 1; d <= tt.want; d++ {
			if _, ok := got[d]; !ok {
				t.Errorf("%d-%02d: missing key %d", tt.year, tt.month, d)
			}
		}
		if store.Lookups != tt.want {
			t.Errorf("%d-%02d: %d lookups, want %d", tt.year, tt.month, store.Lookups, tt.want)
		}
	}
}

func TestProjectMonthMarksActiveDays(t *testing.T) {
	store := activitytest.NewStore()
	store.Add(1, common.Day(2024, 2, 1), common.Day(2024, 2, 29), common.Day(2024, 3, 1))
	store.Add(2, common.Day(2024, 2, 10))

	got, err := NewProjector(store).ProjectMonth(context.Background(), 1, 2024, 2)
	if err != nil {
		t.Fatal(err)
	}
	for d, active := range got {
		want := d == 1 || d == 29
		if active != want {
			t.Errorf("day %d: %v, want %v", d, active, want)
		}
	}
}

func TestProjectMonthUsesRangeQuery(t *testing.T) {
	store := &rangeStore{Store: activitytest.NewStore()}
	store.Add(1, common.Day(2025, 1, 31), common.Day(2025, 2, 1), common.Day(2025, 2, 28))

	got, err := NewProjector(store).ProjectMonth(context.Background(), 1, 2025, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 28 || !got[1] || !got[28] || got[2] {
		t.Fatalf("got = %v", got)
	}
	if store.rangeCalls != 1 || store.Lookups != 0 {
		t.Fatalf("rangeCalls=%d lookups=%d", store.rangeCalls, store.Lookups)
	}
}

func TestProjectMonthRejectsInvalidMonth(t *testing.T) {
	store := activitytest.NewStore()
	p := NewProjector(store)
	for _, tt := range []struct{ year, month int }{{2025, 0}, {2025, 13}, {2025, -1}, {0, 5}, {10000, 1}} {
		_, err := p.ProjectMonth(context.Background(), 1, tt.year, tt.month)
		if !errors.Is(err, common.ErrInvalidMonth) {
			t.Errorf("%d-%d: err = %v, want ErrInvalidMonth", tt.year, tt.month, err)
		}
	}
	if store.Lookups != 0 {
		t.Fatalf("invalid month touched storage: %d lookups", store.Lookups)
	}
}

func TestProjectMonthPropagatesStoreError(t *testing.T) {
	store := activitytest.NewStore()
	store.Err = errors.New("connection refused")
	if _, err := NewProjector(store).ProjectMonth(context.Background(), 1, 2025, 1); !errors.Is(err, store.Err) {
		t.Fatalf("err = %v", err)
	}
}

func TestGetMonthActivityCountsActive(t *testing.T) {
	store := activitytest.NewStore()
	store.Add(1, common.Day(2025, 1, 1), common.Day(2025, 1, 2), common.Day(2025, 1, 4))
	svc := NewService(NewProjector(store), time.UTC)

	m, err := svc.GetMonthActivity(context.Background(), 1, 2025, 1)
	if err != nil {
		t.Fatal(err)
	}
	if m.Active != 3 || m.Month != time.January {
		t.Fatalf("month = %+v", m)
	}
}

func TestParseMonthArg(t *testing.T) {
	tests := []struct {
		in        string
		wantYear  int
		wantMonth int
		wantErr   bool
	}{
		{"2024-02", 2024, 2, false},
		{"2025-12", 2025, 12, false},
		{"2025-13", 0, 0, true},
		{"2025-00", 0, 0, true},
		{"2025", 0, 0, true},
		{"февраль", 0, 0, true},
	}
	for _, tt := range tests {
		y, m, err := ParseMonthArg(tt.in)
		if (err != nil) != tt.wantErr || y != tt.wantYear || m != tt.wantMonth {
			t.Errorf("ParseMonthArg(%q) = %d, %d, %v", tt.in, y, m, err)
		}
		if err != nil && !errors.Is(err, common.ErrInvalidMonth) {
			t.Errorf("ParseMonthArg(%q) err = %v, want ErrInvalidMonth", tt.in, err)
		}
	}
}

func TestRenderStartsOnMonday(t *testing.T) {
	// 1 января 2025 — среда: два пустых столбца перед первым днём.
	days := make(map[int]bool, 31)
	for d := 1; d <= 31; d++ {
		days[d] = d == 5
	}
	out := Render(&Month{Year: 2025, Month: time.January, Days: days, Active: 1})

	lines := strings.Split(out, "\n")
	if lines[0] != "Январь 2025" {
		t.Fatalf("title = %q", lines[0])
	}
	if !strings.HasPrefix(lines[2], strings.Repeat("    ", 2)+"  1 ") {
		t.Fatalf("first week = %q", lines[2])
	}
	if !strings.Contains(lines[2], "  5*") {
		t.Fatalf("day 5 not marked: %q", lines[2])
	}
	if !strings.Contains(out, "1 из 31") {
		t.Fatalf("footer missing: %q", out)
	}
}
