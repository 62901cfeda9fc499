package cryptofolio

import (
	"fmt"

	"github.com/etnz/cryptofolio/date"
	"github.com/sirupsen/logrus"
)

// WarningKind classifies recoverable conditions met during a run.
type WarningKind int

const (
	// PriceUnavailable means the reference price series could not answer and
	// estimate mode is in use.
	PriceUnavailable WarningKind = iota
	// MatchingLegNotFound means a trade had no same-day currency leg and its
	// volume was backfilled from the price.
	MatchingLegNotFound
	// UnpricedAsset means an asset was valued by the unpriced policy.
	UnpricedAsset
	// NegativeBalance means a scope held a negative balance that was clamped.
	NegativeBalance
	// UnknownOperation means an event was ignored by the replay.
	UnknownOperation
	// InvalidRow means a source row was dropped by the loader.
	InvalidRow
)

func (k WarningKind) String() string {
	switch k {
	case PriceUnavailable:
		return "price-unavailable"
	case MatchingLegNotFound:
		return "matching-leg-not-found"
	case UnpricedAsset:
		return "unpriced-asset"
	case NegativeBalance:
		return "negative-balance"
	case UnknownOperation:
		return "unknown-operation"
	case InvalidRow:
		return "invalid-row"
	default:
		return fmt.Sprintf("WarningKind(%d)", int(k))
	}
}

// Warning is a recoverable condition with the fallback that was applied.
type Warning struct {
	Kind    WarningKind
	Day     date.Date
	Scope   string
	Asset   string
	Message string
}

func (w Warning) String() string {
	s := w.Kind.String()
	if !w.Day.IsZero() {
		s += " " + w.Day.String()
	}
	if w.Scope != "" {
		s += " [" + w.Scope + "]"
	}
	if w.Asset != "" {
		s += " " + w.Asset
	}
	return s + ": " + w.Message
}

// warnings collects and logs warnings, optionally only once per key.
type warnings struct {
	log  logrus.FieldLogger
	list []Warning
	seen map[string]bool
}

func newWarnings(log logrus.FieldLogger) *warnings {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &warnings{log: log, seen: make(map[string]bool)}
}

func (ws *warnings) add(w Warning) {
	ws.list = append(ws.list, w)
	fields := logrus.Fields{"kind": w.Kind.String()}
	if !w.Day.IsZero() {
		fields["date"] = w.Day.String()
	}
	if w.Scope != "" {
		fields["scope"] = w.Scope
	}
	if w.Asset != "" {
		fields["asset"] = w.Asset
	}
	ws.log.WithFields(fields).Warn(w.Message)
}

// once adds w unless a warning with the same key was already added.
func (ws *warnings) once(key string, w Warning) {
	if ws.seen[key] {
		return
	}
	ws.seen[key] = true
	ws.add(w)
}

// Warnings returns the collected warnings.
func (ws *warnings) Warnings() []Warning { return ws.list }
