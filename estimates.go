package cryptofolio

import "strings"

// Estimates is a table of constant prices, in valuation currency, for assets
// other than the reference asset.
type Estimates map[string]float64

// DefaultEstimates returns rough constant prices for common assets.
//
// These are not market data. They only keep small side holdings from
// vanishing in the valuation.
func DefaultEstimates() Estimates {
	return Estimates{
		"USDT": 1.0, "BUSD": 1.0, "USD": 1.0, "USDC": 1.0, "FDUSD": 1.0,
		"ETH":   3000,
		"BNB":   300,
		"SOL":   100,
		"ADA":   0.5,
		"DOT":   10,
		"LINK":  15,
		"AVAX":  30,
		"UNI":   6,
		"ATOM":  10,
		"MATIC": 0.5,
		"XRP":   0.5,
		"LTC":   70,
		"BCH":   250,
		"DOGE":  0.08,
	}
}

// Lookup returns the estimated price of asset and whether it is known.
func (e Estimates) Lookup(asset string) (float64, bool) {
	p, ok := e[strings.ToUpper(asset)]
	return p, ok
}

// Price returns the estimated price of asset, falling back on policy for unknown assets.
func (e Estimates) Price(asset string, policy UnpricedPolicy) (price float64, known bool) {
	if p, ok := e.Lookup(asset); ok {
		return p, true
	}
	if policy == UnpricedAsZero {
		return 0, false
	}
	return 1.0, false
}
