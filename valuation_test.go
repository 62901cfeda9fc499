package cryptofolio

import (
	"testing"

	"github.com/etnz/cryptofolio/date"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

func mustReplay(t *testing.T, events ...Event) *Balances {
	t.Helper()
	b, err := Replay(events)
	if err != nil {
		t.Fatalf("Replay() error = %v", err)
	}
	return b
}

func TestValuer_ClampThenSum(t *testing.T) {
	b := mustReplay(t,
		ev("2024-01-01 10:00:00", "primary", "Withdraw", "BTC", "-5"),
		ev("2024-01-01 11:00:00", "lead", "Deposit", "BTC", "5"),
	)
	v, warnings := Valuer{Oracle: flatOracle(100, "2024-01-01", "2024-01-01")}.Value(b)
	if v.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", v.Len())
	}
	if got := v.Days[0].Value; got != 500 {
		t.Errorf("Value = %v, want 5*100 (clamp then sum)", got)
	}
	if !v.Days[0].Quantities["BTC"].Equal(dec("5")) {
		t.Errorf("Quantities[BTC] = %v, want 5", v.Days[0].Quantities["BTC"])
	}
	if len(warnings) != 1 || warnings[0].Kind != NegativeBalance || warnings[0].Scope != "primary" {
		t.Errorf("warnings = %v, want one negative-balance on primary", warnings)
	}
}

func TestValuer_DenseGrid(t *testing.T) {
	b := mustReplay(t,
		ev("2024-01-01 10:00:00", "primary", "Deposit", "USDT", "1000"),
		ev("2024-01-01 12:00:00", "primary", "Transaction Buy", "BTC", "0.01"),
		ev("2024-01-01 12:00:00", "primary", "Transaction Spend", "USDT", "-300"),
		ev("2024-01-03 23:59:59", "primary", "Deposit", "USDT", "100"),
	)
	oracle := NewOracle(NewPriceSeries().
		Set(day("2024-01-01"), 30000).
		Set(day("2024-01-02"), 31000).
		Set(day("2024-01-03"), 32000))
	v, _ := Valuer{Oracle: oracle}.Value(b)

	want := []float64{700 + 300, 700 + 310, 800 + 320}
	if got := v.Values(); !cmp.Equal(got, want, cmp.Comparer(near)) {
		t.Errorf("Values() = %v, want %v", got, want)
	}
	d := v.Days[1]
	if d.Date != day("2024-01-02") || d.ReferencePrice != 31000 || d.PriceSource != SourceExact {
		t.Errorf("Days[1] = %v at %v (%v)", d.Date, d.ReferencePrice, d.PriceSource)
	}
	if !near(d.Contributions["BTC"], 310) || !near(d.Contributions["USDT"], 700) {
		t.Errorf("Days[1].Contributions = %v", d.Contributions)
	}
	if v.Mode != ModeSeries {
		t.Errorf("Mode = %v, want series", v.Mode)
	}
}

func TestValuer_OtherAssets(t *testing.T) {
	events := []Event{
		ev("2024-01-01 10:00:00", "primary", "Deposit", "ETH", "2"),
		ev("2024-01-01 10:00:00", "primary", "Deposit", "XYZ", "10"),
	}
	testCases := []struct {
		name   string
		policy UnpricedPolicy
		want   float64
	}{
		{"unpriced at par", UnpricedAtPar, 6000 + 10},
		{"unpriced as zero", UnpricedAsZero, 6000},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Unpriced = tc.policy
			v, warnings := Valuer{Oracle: flatOracle(1, "2024-01-01", "2024-01-01"), Options: opts}.Value(mustReplay(t, events...))
			if got := v.Days[0].Value; got != tc.want {
				t.Errorf("Value = %v, want %v", got, tc.want)
			}
			if len(warnings) != 1 || warnings[0].Kind != UnpricedAsset || warnings[0].Asset != "XYZ" {
				t.Errorf("warnings = %v, want one unpriced-asset on XYZ", warnings)
			}
		})
	}
}

func TestValuer_Idempotent(t *testing.T) {
	b := mustReplay(t,
		ev("2024-01-01 10:00:00", "primary", "Deposit", "USDT", "1000.123"),
		ev("2024-01-02 10:00:00", "primary", "Deposit", "BTC", "0.333"),
		ev("2024-01-02 10:00:00", "lead", "Deposit", "ETH", "0.7"),
		ev("2024-01-09 10:00:00", "lead", "Deposit", "SOL", "3.3"),
	)
	valuer := Valuer{Oracle: NewOracle(nil)}
	v1, _ := valuer.Value(b)
	v2, _ := valuer.Value(b)
	opts := []cmp.Option{
		cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) }),
		cmp.Comparer(func(a, b date.Date) bool { return a == b }),
	}
	if diff := cmp.Diff(v1, v2, opts...); diff != "" {
		t.Errorf("Value() is not idempotent (-first +second):\n%s", diff)
	}
	if v1.Len() != 9 {
		t.Errorf("Len() = %d, want 9 days", v1.Len())
	}
	if v1.Mode != ModeEstimate || v1.Days[0].PriceSource != SourceEstimate {
		t.Errorf("valuation without series should be in estimate mode")
	}
}

func TestValuer_Empty(t *testing.T) {
	v, warnings := Valuer{}.Value(mustReplay(t))
	if v.Len() != 0 || len(warnings) != 0 {
		t.Errorf("Value(no events) = %d days, %v warnings, want none", v.Len(), warnings)
	}
}

func TestValuer_WarningOrder(t *testing.T) {
	b := mustReplay(t,
		ev("2024-01-01 10:00:00", "primary", "Withdraw", "SOL", "-1"),
		ev("2024-01-01 10:00:00", "primary", "Withdraw", "BTC", "-1"),
		ev("2024-01-01 10:00:00", "primary", "Withdraw", "ETH", "-1"),
		ev("2024-01-01 10:00:00", "primary", "Withdraw", "ADA", "-1"),
	)
	for range 5 {
		_, warnings := Valuer{Oracle: flatOracle(100, "2024-01-01", "2024-01-01")}.Value(b)
		var got []string
		for _, w := range warnings {
			got = append(got, w.Asset)
		}
		if diff := cmp.Diff([]string{"ADA", "BTC", "ETH", "SOL"}, got); diff != "" {
			t.Fatalf("negative-balance warning assets mismatch (-want +got):\n%s", diff)
		}
	}
}
