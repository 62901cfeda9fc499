// Package cryptofolio turns the account statement of a crypto exchange into
// standardized portfolio tables. It is local-first and deterministic: the same
// statement and prices always give the same tables.
//
// The pipeline stages are:
//   - Loader: parses the statement CSV into a time ordered Journal of events,
//     each mapped to an account scope.
//   - Oracle: answers the reference asset price of any day from a daily price
//     series, with a nearest day fallback and a growth model estimate.
//   - Replay: folds the journal into per scope balance snapshots.
//   - Valuer: values every scope at the end of every day of the span.
//   - Analytics: daily returns, period returns, summary statistics and anomalies.
//   - Exporter: the transactions, positions and returns tables, written as CSV.
//
// NewReport runs all the stages and is the foundation of the `folio`
// command-line tool.
package cryptofolio
