package cryptofolio

import (
	"slices"
	"strings"

	"github.com/sirupsen/logrus"
)

// Default asset symbols.
const (
	DefaultValuationCurrency = "USDT"
	DefaultReferenceAsset    = "BTC"
)

// UnpricedPolicy decides the value of assets that have neither a price series
// nor an entry in the estimate table.
type UnpricedPolicy int

const (
	// UnpricedAtPar values an unknown asset at 1.0 valuation unit, treating it as a
	// stable coin. This is an approximation and each such asset is reported.
	UnpricedAtPar UnpricedPolicy = iota
	// UnpricedAsZero values an unknown asset at zero.
	UnpricedAsZero
)

func (p UnpricedPolicy) String() string {
	if p == UnpricedAsZero {
		return "zero"
	}
	return "par"
}

// ParseUnpricedPolicy parses "par" or "zero".
func ParseUnpricedPolicy(s string) (UnpricedPolicy, bool) {
	switch strings.ToLower(s) {
	case "par", "":
		return UnpricedAtPar, true
	case "zero":
		return UnpricedAsZero, true
	}
	return UnpricedAtPar, false
}

// Options drives a pipeline run.
//
// Start from DefaultOptions. Empty fields fall back to their defaults, except
// RiskFree where zero is a valid rate.
type Options struct {
	ValuationCurrency string
	ReferenceAsset    string
	// TrackedAssets are present in every scope from its creation, at zero.
	TrackedAssets []string
	// CashAssets are summed into the positions "cash" column.
	CashAssets []string
	Estimates  Estimates
	Unpriced   UnpricedPolicy
	// RiskFree is the annual risk-free rate used by the Sharpe ratio.
	RiskFree float64
	// AnomalyThreshold flags daily returns whose absolute value exceeds it.
	AnomalyThreshold float64
	// TransactionScopes restricts the transactions table, empty means all scopes.
	TransactionScopes []string
	// FeeAccount restricts the funding fee total to one account, empty means all.
	FeeAccount string

	Logger logrus.FieldLogger
}

// DefaultOptions returns the options of a BTC/USDT portfolio.
func DefaultOptions() Options {
	return Options{
		ValuationCurrency: DefaultValuationCurrency,
		ReferenceAsset:    DefaultReferenceAsset,
		TrackedAssets:     []string{"USDT", "BTC", "BNB", "ETH", "SOL", "BUSD", "USD"},
		CashAssets:        []string{"USDT", "BUSD", "USD", "USDC", "FDUSD"},
		Estimates:         DefaultEstimates(),
		Unpriced:          UnpricedAtPar,
		RiskFree:          0.02,
		AnomalyThreshold:  1.0,
	}
}

// withDefaults fills the zero fields of o.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.ValuationCurrency == "" {
		o.ValuationCurrency = d.ValuationCurrency
	}
	if o.ReferenceAsset == "" {
		o.ReferenceAsset = d.ReferenceAsset
	}
	if o.TrackedAssets == nil {
		o.TrackedAssets = d.TrackedAssets
	}
	if o.CashAssets == nil {
		o.CashAssets = d.CashAssets
	}
	if o.Estimates == nil {
		o.Estimates = d.Estimates
	}
	if o.AnomalyThreshold == 0 {
		o.AnomalyThreshold = d.AnomalyThreshold
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	o.ValuationCurrency = strings.ToUpper(o.ValuationCurrency)
	o.ReferenceAsset = strings.ToUpper(o.ReferenceAsset)
	return o
}

// isCash reports whether asset is a cash equivalent.
func (o Options) isCash(asset string) bool {
	return asset == o.ValuationCurrency || slices.Contains(o.CashAssets, asset)
}

// inScope reports whether scope is selected by the transaction scope filter.
func (o Options) inScope(scope string) bool {
	return len(o.TransactionScopes) == 0 || slices.Contains(o.TransactionScopes, scope)
}
