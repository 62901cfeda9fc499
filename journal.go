package cryptofolio

import (
	"fmt"
	"iter"
	"sort"
	"strings"
	"time"

	"github.com/etnz/cryptofolio/date"
	"github.com/shopspring/decimal"
)

// OperationKind is the category of a ledger event.
type OperationKind int

const (
	KindUnknown OperationKind = iota
	KindBuy
	KindSell
	KindSpend
	KindRevenue
	KindDeposit
	KindWithdraw
	KindTransferIn
	KindTransferOut
	KindProfitShare
	KindFee
	KindRealizedPnL
)

var kindNames = [...]string{
	KindUnknown:     "unknown",
	KindBuy:         "buy",
	KindSell:        "sell",
	KindSpend:       "spend",
	KindRevenue:     "revenue",
	KindDeposit:     "deposit",
	KindWithdraw:    "withdraw",
	KindTransferIn:  "transfer-in",
	KindTransferOut: "transfer-out",
	KindProfitShare: "profit-share",
	KindFee:         "fee",
	KindRealizedPnL: "realized-pnl",
}

func (k OperationKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("OperationKind(%d)", int(k))
	}
	return kindNames[k]
}

// exchangeOperations maps exchange statement labels to kinds.
var exchangeOperations = map[string]OperationKind{
	"transaction buy":          KindBuy,
	"transaction sold":         KindSell,
	"transaction spend":        KindSpend,
	"transaction revenue":      KindRevenue,
	"transaction fee":          KindFee,
	"deposit":                  KindDeposit,
	"withdraw":                 KindWithdraw,
	"send":                     KindTransferOut,
	"funding fee":              KindFee,
	"fee":                      KindFee,
	"commission history":       KindFee,
	"realized profit and loss": KindRealizedPnL,
	"realize profit and loss":  KindRealizedPnL,
}

// accountOperations maps the labels of moves between accounts and of copy
// trading to kinds.
//
// A KindTransferIn entry is a direction-less transfer: its final kind depends
// on the sign of the change.
var accountOperations = map[string]OperationKind{
	"copy portfolio (spot) - profit sharing with leader":       KindProfitShare,
	"lead portfolio (spot) - profit sharing":                   KindProfitShare,
	"lead portfolio (spot) - create":                           KindTransferIn,
	"lead portfolio (spot) - deposit":                          KindTransferIn,
	"lead portfolio (spot) - withdraw":                         KindTransferIn,
	"transfer between main and funding wallet":                 KindTransferIn,
	"transfer between spot and strategy account":               KindTransferIn,
	"transfer between main account/futures and margin account": KindTransferIn,
}

// ClassifyOperation returns the kind of an operation label.
//
// Both exchange statement labels ("Transaction Buy") and canonical kind names
// ("buy", "transfer-in") are recognized, case insensitive. Transfer labels
// without a direction resolve to KindTransferIn or KindTransferOut from the
// sign of change. Unrecognized labels return KindUnknown.
func ClassifyOperation(label string, change decimal.Decimal) OperationKind {
	key := strings.ToLower(strings.TrimSpace(label))
	kind, ok := exchangeOperations[key]
	if !ok {
		kind, ok = accountOperations[key]
	}
	if !ok {
		for k, name := range kindNames {
			if name == key {
				return OperationKind(k)
			}
		}
		if strings.HasPrefix(key, "transfer") {
			kind, ok = KindTransferIn, true
		}
	}
	if !ok {
		return KindUnknown
	}
	if kind == KindTransferIn && change.IsNegative() {
		return KindTransferOut
	}
	return kind
}

// Event is one immutable ledger entry.
type Event struct {
	Time      time.Time       // UTC instant.
	Account   string          // exchange account name.
	Scope     string          // account scope the event belongs to.
	Kind      OperationKind   // normalized category.
	Operation string          // original operation label.
	Asset     string          // asset symbol, upper case.
	Delta     decimal.Decimal // signed change applied to the asset balance.
	Memo      string
	Seq       int // position in the source, used as tie-breaker.
}

// Day returns the UTC day of the event.
func (e Event) Day() date.Date { return date.Of(e.Time) }

func (e Event) String() string {
	return fmt.Sprintf("%s %s %s %s %s", e.Time.Format(time.DateTime), e.Scope, e.Kind, e.Delta, e.Asset)
}

// Journal holds a chronologically sorted list of events.
type Journal struct {
	events []Event
}

// NewJournal sorts the events by time and returns them as a Journal.
//
// The sort is stable: events sharing an instant keep their source order.
func NewJournal(events []Event) *Journal {
	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })
	return &Journal{events: sorted}
}

// Len returns the number of events.
func (j *Journal) Len() int { return len(j.events) }

// Events returns an iterator over the events in chronological order.
func (j *Journal) Events() iter.Seq2[int, Event] {
	return func(yield func(int, Event) bool) {
		for i, e := range j.events {
			if !yield(i, e) {
				return
			}
		}
	}
}

// Slice returns a copy of the events.
func (j *Journal) Slice() []Event {
	return append([]Event(nil), j.events...)
}

// Span returns the range of days covered by the journal, empty if there are no events.
func (j *Journal) Span() date.Range {
	if len(j.events) == 0 {
		return date.Range{}
	}
	return date.Range{From: j.events[0].Day(), To: j.events[len(j.events)-1].Day()}
}
