package cryptofolio

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
	"time"

	"github.com/etnz/cryptofolio/date"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ErrUnsorted is returned when events are replayed out of chronological order.
var ErrUnsorted = errors.New("events are not in chronological order")

// OrderError locates the first out of order event.
type OrderError struct {
	Index      int
	Prev, Next time.Time
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("event %d at %s is before its predecessor at %s", e.Index, e.Next.Format(time.DateTime), e.Prev.Format(time.DateTime))
}

func (e *OrderError) Unwrap() error { return ErrUnsorted }

// Holdings maps asset symbols to balances.
//
// Holdings returned by Balances are copies, callers may modify them.
type Holdings map[string]decimal.Decimal

// Get returns the balance of asset, zero if absent.
func (h Holdings) Get(asset string) decimal.Decimal { return h[asset] }

func (h Holdings) clone() Holdings { return maps.Clone(h) }

// BalanceSnapshot is the state of one scope right after an event.
type BalanceSnapshot struct {
	Event    Event
	holdings Holdings
}

// Time returns the instant of the triggering event.
func (s BalanceSnapshot) Time() time.Time { return s.Event.Time }

// Holdings returns a copy of the balances.
func (s BalanceSnapshot) Holdings() Holdings { return s.holdings.clone() }

// Balance returns the balance of a single asset.
func (s BalanceSnapshot) Balance(asset string) decimal.Decimal { return s.holdings[asset] }

// Balances is the replayed balance history of every account scope.
//
// It is immutable once returned by Replay.
type Balances struct {
	assets  []string                     // tracked assets, in order of first sight.
	scopes  []string                     // scopes, in order of first sight.
	history map[string][]BalanceSnapshot // append-only, sorted by time.
	ignored map[string]int               // unknown operation label -> count.
	span    date.Range
	events  int
}

// Replayer folds events into per scope balances.
type Replayer struct {
	// Tracked are assets present at zero in every scope from its creation.
	Tracked []string
	Logger  logrus.FieldLogger
}

// Replay folds events with the default tracked assets.
func Replay(events []Event) (*Balances, error) {
	return Replayer{Tracked: DefaultOptions().TrackedAssets}.Replay(events)
}

// Replay applies every event to the balance of its scope, in order.
//
// Events must be sorted by time, an *OrderError is returned otherwise.
// Events of unknown kind are ignored and reported by Ignored.
func (r Replayer) Replay(events []Event) (*Balances, error) {
	log := r.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	b := &Balances{
		history: make(map[string][]BalanceSnapshot),
		ignored: make(map[string]int),
		events:  len(events),
	}
	for _, a := range r.Tracked {
		b.track(a)
	}

	for i, e := range events {
		if i > 0 && e.Time.Before(events[i-1].Time) {
			return nil, &OrderError{Index: i, Prev: events[i-1].Time, Next: e.Time}
		}
		b.extendSpan(e.Day())
		if e.Kind == KindUnknown {
			if b.ignored[e.Operation] == 0 {
				log.WithFields(logrus.Fields{"operation": e.Operation, "asset": e.Asset}).Warn("ignoring unknown operation")
			}
			b.ignored[e.Operation]++
			continue
		}
		b.track(e.Asset)
		state := b.current(e.Scope)
		b.history[e.Scope] = append(b.history[e.Scope], BalanceSnapshot{Event: e, holdings: apply(state, e)})
	}
	return b, nil
}

// apply returns a new state with the event delta added. state is not modified.
func apply(state Holdings, e Event) Holdings {
	next := state.clone()
	next[e.Asset] = next[e.Asset].Add(e.Delta)
	return next
}

func (b *Balances) track(asset string) {
	if asset != "" && !slices.Contains(b.assets, asset) {
		b.assets = append(b.assets, asset)
	}
}

func (b *Balances) extendSpan(d date.Date) {
	if b.span.From.IsZero() || d.Before(b.span.From) {
		b.span.From = d
	}
	if d.After(b.span.To) {
		b.span.To = d
	}
}

// current returns the latest state of scope, creating the scope if needed.
func (b *Balances) current(scope string) Holdings {
	h, ok := b.history[scope]
	if !ok {
		b.scopes = append(b.scopes, scope)
		b.history[scope] = nil
	}
	if len(h) == 0 {
		return b.zero()
	}
	state := h[len(h)-1].holdings
	// assets discovered after the last snapshot start at zero.
	if len(state) < len(b.assets) {
		state = state.clone()
		for _, a := range b.assets {
			if _, ok := state[a]; !ok {
				state[a] = decimal.Zero
			}
		}
	}
	return state
}

func (b *Balances) zero() Holdings {
	h := make(Holdings, len(b.assets))
	for _, a := range b.assets {
		h[a] = decimal.Zero
	}
	return h
}

// Scopes returns the account scopes in order of first appearance.
func (b *Balances) Scopes() []string { return slices.Clone(b.scopes) }

// Assets returns every tracked asset in order of first appearance.
func (b *Balances) Assets() []string { return slices.Clone(b.assets) }

// Span returns the range of days covered by the replayed events.
func (b *Balances) Span() date.Range { return b.span }

// Ignored returns the count of ignored events per unknown operation label.
func (b *Balances) Ignored() map[string]int { return maps.Clone(b.ignored) }

// History returns the snapshots of a scope in chronological order.
func (b *Balances) History(scope string) []BalanceSnapshot { return slices.Clone(b.history[scope]) }

// StateAsOf returns the balances of scope after the last event at or before t.
//
// It returns all tracked assets at zero if the scope has no event yet.
func (b *Balances) StateAsOf(scope string, t time.Time) Holdings {
	h := b.history[scope]
	// first snapshot strictly after t.
	i := sort.Search(len(h), func(i int) bool { return h[i].Event.Time.After(t) })
	state := b.zero()
	if i > 0 {
		maps.Copy(state, h[i-1].holdings)
	}
	return state
}

// Final returns the balances of scope after the last event.
func (b *Balances) Final(scope string) Holdings {
	state := b.zero()
	if h := b.history[scope]; len(h) > 0 {
		maps.Copy(state, h[len(h)-1].holdings)
	}
	return state
}
