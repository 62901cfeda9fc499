package cryptofolio

import (
	"bytes"
	"testing"

	"github.com/etnz/cryptofolio/date"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var tableOpts = []cmp.Option{
	cmp.Comparer(func(a, b date.Date) bool { return a == b }),
	cmpopts.EquateApprox(0, 1e-9),
	cmpopts.EquateEmpty(),
}

func TestExporter_Transactions(t *testing.T) {
	testCases := []struct {
		name         string
		events       []Event
		wantRows     []Row
		wantWarnings int
	}{
		{
			name: "buy",
			events: []Event{
				ev("2024-01-01 10:00:00", "primary", "Transaction Spend", "USDT", "-1000"),
				ev("2024-01-01 10:00:00", "primary", "Transaction Buy", "BTC", "0.01"),
			},
			wantRows: []Row{{day("2024-01-01"), []float64{1000, 0.01}}},
		},
		{
			name: "sell",
			events: []Event{
				ev("2024-01-01 10:00:00", "primary", "Transaction Sold", "BTC", "-0.01"),
				ev("2024-01-01 10:00:00", "primary", "Transaction Revenue", "USDT", "1100"),
			},
			wantRows: []Row{{day("2024-01-01"), []float64{-1100, -0.01}}},
		},
		{
			name: "sell reported as a positive quantity",
			events: []Event{
				ev("2024-01-01 10:00:00", "primary", "Transaction Sold", "BTC", "0.01"),
				ev("2024-01-01 10:00:00", "primary", "Transaction Revenue", "USDT", "1100"),
			},
			wantRows: []Row{{day("2024-01-01"), []float64{-1100, -0.01}}},
		},
		{
			name: "same day trades are matched in order and summed",
			events: []Event{
				ev("2024-01-01 10:00:00", "primary", "Transaction Buy", "BTC", "0.001"),
				ev("2024-01-01 10:00:00", "primary", "Transaction Spend", "USDT", "-100"),
				ev("2024-01-01 11:00:00", "primary", "Transaction Buy", "BTC", "0.002"),
				ev("2024-01-01 11:00:00", "primary", "Transaction Spend", "USDT", "-200"),
				ev("2024-01-02 11:00:00", "primary", "Transaction Buy", "BTC", "0.003"),
				ev("2024-01-02 11:00:00", "primary", "Transaction Spend", "USDT", "-310"),
			},
			wantRows: []Row{
				{day("2024-01-01"), []float64{300, 0.003}},
				{day("2024-01-02"), []float64{310, 0.003}},
			},
		},
		{
			name: "missing leg is backfilled from the price",
			events: []Event{
				ev("2024-01-01 10:00:00", "primary", "Transaction Buy", "BTC", "0.01"),
				ev("2024-01-02 10:00:00", "primary", "Transaction Spend", "USDT", "-500"),
			},
			wantRows:     []Row{{day("2024-01-01"), []float64{500, 0.01}}},
			wantWarnings: 1,
		},
		{
			name: "round trip nets to zero and is dropped",
			events: []Event{
				ev("2024-01-01 10:00:00", "primary", "Transaction Buy", "BTC", "0.01"),
				ev("2024-01-01 10:00:00", "primary", "Transaction Spend", "USDT", "-500"),
				ev("2024-01-01 12:00:00", "primary", "Transaction Sold", "BTC", "-0.01"),
				ev("2024-01-01 12:00:00", "primary", "Transaction Revenue", "USDT", "510"),
			},
			wantRows: nil,
		},
		{
			name: "leg of another asset trade is not used",
			events: []Event{
				ev("2024-01-01 09:00:00", "primary", "Transaction Buy", "ETH", "1"),
				ev("2024-01-01 09:00:00", "primary", "Transaction Spend", "USDT", "-3000"),
				ev("2024-01-01 11:00:00", "primary", "Transaction Buy", "BTC", "0.01"),
				ev("2024-01-01 11:00:00", "primary", "Transaction Spend", "USDT", "-1000"),
			},
			wantRows: []Row{{day("2024-01-01"), []float64{1000, 0.01}}},
		},
		{
			name: "only leg belongs to another asset trade",
			events: []Event{
				ev("2024-01-01 09:00:00", "primary", "Transaction Buy", "ETH", "1"),
				ev("2024-01-01 09:00:00", "primary", "Transaction Spend", "USDT", "-3000"),
				ev("2024-01-01 11:00:00", "primary", "Transaction Buy", "BTC", "0.01"),
			},
			wantRows:     []Row{{day("2024-01-01"), []float64{500, 0.01}}},
			wantWarnings: 1,
		},
		{
			name: "same instant leg wins over event order",
			events: []Event{
				ev("2024-01-01 09:00:00", "primary", "Transaction Spend", "USDT", "-700"),
				ev("2024-01-01 10:00:00", "primary", "Transaction Buy", "BTC", "0.02"),
				ev("2024-01-01 10:00:00", "primary", "Transaction Spend", "USDT", "-1000"),
				ev("2024-01-01 12:00:00", "primary", "Transaction Buy", "BTC", "0.01"),
			},
			wantRows: []Row{{day("2024-01-01"), []float64{1700, 0.03}}},
		},
		{
			name: "other assets are ignored",
			events: []Event{
				ev("2024-01-01 10:00:00", "primary", "Transaction Buy", "ETH", "1"),
				ev("2024-01-01 10:00:00", "primary", "Transaction Spend", "USDT", "-3000"),
			},
			wantRows: nil,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			x := Exporter{Oracle: flatOracle(50000, "2024-01-01", "2024-01-02")}
			got, warnings := x.Transactions(NewJournal(tc.events))
			if diff := cmp.Diff(tc.wantRows, got.Rows, tableOpts...); diff != "" {
				t.Errorf("Transactions() rows mismatch (-want +got):\n%s", diff)
			}
			if len(warnings) != tc.wantWarnings {
				t.Errorf("Transactions() warnings = %v, want %d", warnings, tc.wantWarnings)
			}
			for _, w := range warnings {
				if w.Kind != MatchingLegNotFound {
					t.Errorf("warning kind = %v, want %v", w.Kind, MatchingLegNotFound)
				}
			}
			if want := []string{ColTxnVolume, ColTxnShares}; !cmp.Equal(got.Columns, want) {
				t.Errorf("Columns = %v, want %v", got.Columns, want)
			}
		})
	}
}

func TestExporter_TransactionScopes(t *testing.T) {
	events := []Event{
		ev("2024-01-01 10:00:00", "primary", "Transaction Buy", "BTC", "0.01"),
		ev("2024-01-01 10:00:00", "primary", "Transaction Spend", "USDT", "-400"),
		ev("2024-01-01 10:00:00", "lead", "Transaction Buy", "BTC", "0.02"),
		ev("2024-01-01 10:00:00", "lead", "Transaction Spend", "USDT", "-800"),
	}
	opts := DefaultOptions()
	opts.TransactionScopes = []string{"primary"}
	got, _ := Exporter{Oracle: NewOracle(nil), Options: opts}.Transactions(NewJournal(events))
	want := []Row{{day("2024-01-01"), []float64{400, 0.01}}}
	if diff := cmp.Diff(want, got.Rows, tableOpts...); diff != "" {
		t.Errorf("Transactions(primary) mismatch (-want +got):\n%s", diff)
	}

	// the lead spend must not be used for the primary buy.
	all, _ := Exporter{Oracle: NewOracle(nil)}.Transactions(NewJournal(events))
	want = []Row{{day("2024-01-01"), []float64{1200, 0.03}}}
	if diff := cmp.Diff(want, all.Rows, tableOpts...); diff != "" {
		t.Errorf("Transactions(all) mismatch (-want +got):\n%s", diff)
	}
}

func TestExporter_PositionsAndReturns(t *testing.T) {
	b := mustReplay(t,
		ev("2024-01-01 10:00:00", "primary", "Deposit", "USDT", "1000"),
		ev("2024-01-01 10:00:00", "lead", "Deposit", "BUSD", "100"),
		ev("2024-01-02 10:00:00", "primary", "Deposit", "BTC", "0.01"),
		ev("2024-01-02 10:00:00", "primary", "Deposit", "ETH", "0.1"),
		ev("2024-01-03 10:00:00", "primary", "Withdraw", "USDT", "-2000"),
	)
	oracle := flatOracle(30000, "2024-01-01", "2024-01-03")
	v, _ := Valuer{Oracle: oracle}.Value(b)
	x := Exporter{Oracle: oracle}

	positions := x.Positions(v)
	if want := []string{"BTC", ColCash, "ETH"}; !cmp.Equal(positions.Columns, want) {
		t.Errorf("positions columns = %v, want %v", positions.Columns, want)
	}
	wantPositions := []Row{
		{day("2024-01-01"), []float64{0, 1100, 0}},
		{day("2024-01-02"), []float64{300, 1100, 300}},
		{day("2024-01-03"), []float64{300, 100, 300}},
	}
	if diff := cmp.Diff(wantPositions, positions.Rows, tableOpts...); diff != "" {
		t.Errorf("positions mismatch (-want +got):\n%s", diff)
	}

	returns := x.Returns(NewPerformance(v))
	wantReturns := []Row{
		{day("2024-01-02"), []float64{1700.0/1100 - 1}},
		{day("2024-01-03"), []float64{700.0/1700 - 1}},
	}
	if diff := cmp.Diff(wantReturns, returns.Rows, tableOpts...); diff != "" {
		t.Errorf("returns mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteCSV(t *testing.T) {
	transactions, positions, returns := Exporter{}.EmptyTables()
	testCases := []struct {
		table *Table
		want  string
	}{
		{transactions, "date,txn_volume,txn_shares\n"},
		{positions, "date,BTC,cash\n"},
		{returns, "date,returns\n"},
		{
			&Table{Name: ReturnsTable, Columns: []string{ColReturns}, Rows: []Row{{day("2024-01-02"), []float64{0.1}}}},
			"date,returns\n2024-01-02,0.1\n",
		},
	}
	for _, tc := range testCases {
		var b bytes.Buffer
		if err := WriteCSV(&b, tc.table); err != nil {
			t.Fatalf("WriteCSV(%s) error = %v", tc.table.Name, err)
		}
		if got := b.String(); got != tc.want {
			t.Errorf("WriteCSV(%s) = %q, want %q", tc.table.Name, got, tc.want)
		}
	}
}
