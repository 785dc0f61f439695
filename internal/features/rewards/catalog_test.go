package rewards

import (
	"context"
	"errors"
	"strings"
	"testing"

	"serotonyl.ru/rewards-bot/internal/common"
	"serotonyl.ru/rewards-bot/internal/config"
)

func TestValidateTiers(t *testing.T) {
	tests := []struct {
		name    string
		tiers   []Tier
		wantErr bool
	}{
		{"default catalog", defaultTiers, false},
		{"empty", nil, false},
		{"zero amount allowed", []Tier{{RequiredDays: 1, Kind: KindStars, Amount: 0}}, false},
		{"zero days", []Tier{{RequiredDays: 0, Kind: KindCoins, Amount: 1}}, true},
		{"negative days", []Tier{{RequiredDays: -3, Kind: KindCoins, Amount: 1}}, true},
		{"duplicate days", []Tier{
			{RequiredDays: 3, Kind: KindCoins, Amount: 1},
			{RequiredDays: 3, Kind: KindStars, Amount: 2},
		}, true},
		{"unknown kind", []Tier{{RequiredDays: 3, Kind: "gold", Amount: 1}}, true},
		{"negative amount", []Tier{{RequiredDays: 3, Kind: KindTon, Amount: -0.1}}, true},
		{"fractional coins", []Tier{{RequiredDays: 3, Kind: KindCoins, Amount: 1.5}}, true},
		{"fractional ton", []Tier{{RequiredDays: 3, Kind: KindTon, Amount: 0.25}}, false},
		{"six decimals", []Tier{{RequiredDays: 3, Kind: KindTon, Amount: 0.123456}}, false},
		{"seven decimals", []Tier{{RequiredDays: 3, Kind: KindTon, Amount: 0.1234561}}, true},
		{"collide after storage rounding", []Tier{
			{RequiredDays: 3, Kind: KindTon, Amount: 0.1234561},
			{RequiredDays: 5, Kind: KindTon, Amount: 0.1234562},
		}, true},
		{"above column range", []Tier{{RequiredDays: 3, Kind: KindStars, Amount: 1e14}}, true},
		{"same content twice", []Tier{
			{RequiredDays: 3, Kind: KindCoins, Amount: 10},
			{RequiredDays: 5, Kind: KindCoins, Amount: 10},
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTiers(tt.tiers)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateTiers err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, common.ErrInvalidTier) {
				t.Fatalf("err = %v, want ErrInvalidTier", err)
			}
		})
	}
}

func TestSeedRejectsInvalidCatalogAndKeepsOld(t *testing.T) {
	f := newFixture(defaultTiers...)
	ctx := context.Background()

	_, err := f.svc.Seed(ctx, []Tier{{RequiredDays: 0, Kind: KindCoins, Amount: 1}})
	if !errors.Is(err, common.ErrInvalidTier) {
		t.Fatalf("Seed err = %v", err)
	}
	tiers, _ := f.svc.ListTiers(ctx)
	if len(tiers) != len(defaultTiers) {
		t.Fatalf("catalog changed: %d tiers", len(tiers))
	}
}

func TestListTiersOrderedByThreshold(t *testing.T) {
	f := newFixture(
		Tier{RequiredDays: 28, Kind: KindTon, Amount: 0.5},
		Tier{RequiredDays: 3, Kind: KindCoins, Amount: 15},
		Tier{RequiredDays: 7, Kind: KindCoins, Amount: 50},
	)
	tiers, err := f.svc.ListTiers(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(tiers); i++ {
		if tiers[i-1].RequiredDays >= tiers[i].RequiredDays {
			t.Fatalf("not ordered: %d before %d", tiers[i-1].RequiredDays, tiers[i].RequiredDays)
		}
	}
}

func TestTiersFromConfig(t *testing.T) {
	var specs config.TierSpecs
	if err := specs.Decode("3|coins|15|Три дня;28|ton|0.5|Месяц"); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	tiers := TiersFromConfig(specs)
	if len(tiers) != 2 {
		t.Fatalf("tiers = %d", len(tiers))
	}
	if tiers[1].Kind != KindTon || tiers[1].Amount != 0.5 || tiers[1].RequiredDays != 28 {
		t.Fatalf("tier = %+v", tiers[1])
	}
	if err := ValidateTiers(tiers); err != nil {
		t.Fatalf("ValidateTiers: %v", err)
	}
}

func TestParseCallback(t *testing.T) {
	tests := []struct {
		data   string
		wantID int64
		wantOK bool
	}{
		{"claim:12", 12, true},
		{"claim:0", 0, false},
		{"claim:abc", 0, false},
		{"other:12", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		id, ok := ParseCallback(tt.data)
		if id != tt.wantID || ok != tt.wantOK {
			t.Errorf("ParseCallback(%q) = %d, %v", tt.data, id, ok)
		}
	}
}

func TestRenderClaim(t *testing.T) {
	tier := &Tier{ID: 1, RequiredDays: 3, Kind: KindCoins, Amount: 15}
	tests := []struct {
		res  *ClaimResult
		want string
	}{
		{&ClaimResult{Outcome: OutcomeGranted, Disposition: DispositionInstant, Tier: tier}, "+15 пленок"},
		{&ClaimResult{Outcome: OutcomeGranted, Disposition: DispositionDeferred, Tier: &Tier{Kind: KindTon, Amount: 0.5}}, "0.5 TON"},
		{&ClaimResult{Outcome: OutcomeDuplicate, Tier: tier}, "уже получал"},
		{&ClaimResult{Outcome: OutcomeIneligible, Tier: tier, Streak: 1, RemainingDays: 2}, "нужно ещё 2 дня"},
		{&ClaimResult{Outcome: OutcomeUnknownTier}, "Такой награды нет"},
	}
	for _, tt := range tests {
		if got := renderClaim(tt.res); !strings.Contains(got, tt.want) {
			t.Errorf("renderClaim(%s) = %q, want %q", tt.res.Outcome, got, tt.want)
		}
	}
}

func TestRenderDecision(t *testing.T) {
	tier := &Tier{ID: 4, RequiredDays: 28, Kind: KindTon, Amount: 0.5}
	tests := []struct {
		d    *Decision
		want string
	}{
		{&Decision{Outcome: OutcomeIneligible, Tier: tier, Streak: 20, RemainingDays: 8}, "осталось 8 дней"},
		{&Decision{Outcome: OutcomeEligible, Eligible: true, Tier: tier, Streak: 28}, "Можно забрать"},
		{&Decision{Outcome: OutcomeDuplicate, Tier: tier}, "Уже получено"},
		{&Decision{Outcome: OutcomeUnknownTier}, "Такой награды нет"},
	}
	for _, tt := range tests {
		if got := renderDecision(tt.d); !strings.Contains(got, tt.want) {
			t.Errorf("renderDecision(%s) = %q, want %q", tt.d.Outcome, got, tt.want)
		}
	}
}
