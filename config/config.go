// Package config loads the settings of a folio run.
//
// Settings come from a YAML (or JSON) file, then from the environment,
// including a .env file in the working directory. Command line flags are
// applied last by the caller.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/etnz/cryptofolio"
	"github.com/etnz/cryptofolio/date"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FOLIO_"

// Config is the complete configuration of a run.
type Config struct {
	Ledger    string          `json:"ledger" yaml:"ledger"`
	Prices    PricesConfig    `json:"prices" yaml:"prices"`
	Output    OutputConfig    `json:"output" yaml:"output"`
	Valuation ValuationConfig `json:"valuation" yaml:"valuation"`
	Analytics AnalyticsConfig `json:"analytics" yaml:"analytics"`
	Accounts  AccountsConfig  `json:"accounts" yaml:"accounts"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
	Assist    AssistConfig    `json:"assist" yaml:"assist"`
}

// PricesConfig locates the reference asset price series.
type PricesConfig struct {
	Path string `json:"path" yaml:"path"`
	// Format is "csv", "json" or "klines". Empty guesses from the extension.
	Format    string `json:"format,omitempty" yaml:"format,omitempty"`
	DatePath  string `json:"date_path,omitempty" yaml:"date_path,omitempty"`
	ClosePath string `json:"close_path,omitempty" yaml:"close_path,omitempty"`
}

// OutputConfig tells where the tables go.
type OutputConfig struct {
	Dir      string `json:"dir" yaml:"dir"`
	Database string `json:"database,omitempty" yaml:"database,omitempty"`
}

// ValuationConfig holds the pricing settings.
type ValuationConfig struct {
	Currency  string             `json:"currency" yaml:"currency"`
	Reference string             `json:"reference" yaml:"reference"`
	Tracked   []string           `json:"tracked" yaml:"tracked"`
	Cash      []string           `json:"cash" yaml:"cash"`
	Estimates map[string]float64 `json:"estimates,omitempty" yaml:"estimates,omitempty"`
	Unpriced  string             `json:"unpriced" yaml:"unpriced"`
	// Tie is "earlier" or "later": the side picked when two prices are equally near.
	Tie       string          `json:"tie" yaml:"tie"`
	Estimator EstimatorConfig `json:"estimator" yaml:"estimator"`
}

// EstimatorConfig describes the fallback price model.
type EstimatorConfig struct {
	Kind  string  `json:"kind" yaml:"kind"` // "growth" or "constant"
	Base  float64 `json:"base" yaml:"base"`
	Rate  float64 `json:"rate,omitempty" yaml:"rate,omitempty"`
	Epoch string  `json:"epoch,omitempty" yaml:"epoch,omitempty"`
}

// AnalyticsConfig holds the return analytics settings.
type AnalyticsConfig struct {
	RiskFree         float64 `json:"risk_free" yaml:"risk_free"`
	AnomalyThreshold float64 `json:"anomaly_threshold" yaml:"anomaly_threshold"`
}

// AccountsConfig maps exchange accounts to scopes.
type AccountsConfig struct {
	Scopes            map[string]string `json:"scopes" yaml:"scopes"`
	DefaultScope      string            `json:"default_scope" yaml:"default_scope"`
	TransactionScopes []string          `json:"transaction_scopes,omitempty" yaml:"transaction_scopes,omitempty"`
	FeeAccount        string            `json:"fee_account,omitempty" yaml:"fee_account,omitempty"`
}

// LoggingConfig sets the log output.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // "text" or "json"
}

// AssistConfig configures the commentary model.
type AssistConfig struct {
	Model string `json:"model" yaml:"model"`
}

// Default returns the configuration of a BTC/USDT statement.
func Default() *Config {
	opts := cryptofolio.DefaultOptions()
	g := cryptofolio.DefaultGrowthEstimator()
	scopes := cryptofolio.DefaultScopes()
	return &Config{
		Ledger: "statement.csv",
		Output: OutputConfig{Dir: "."},
		Valuation: ValuationConfig{
			Currency:  opts.ValuationCurrency,
			Reference: opts.ReferenceAsset,
			Tracked:   opts.TrackedAssets,
			Cash:      opts.CashAssets,
			Unpriced:  opts.Unpriced.String(),
			Tie:       date.TieEarlier.String(),
			Estimator: EstimatorConfig{Kind: "growth", Base: g.Base, Rate: g.Rate, Epoch: g.Epoch.String()},
		},
		Analytics: AnalyticsConfig{RiskFree: opts.RiskFree, AnomalyThreshold: opts.AnomalyThreshold},
		Accounts:  AccountsConfig{Scopes: scopes.Accounts, DefaultScope: scopes.Default},
		Logging:   LoggingConfig{Level: "info", Format: "text"},
		Assist:    AssistConfig{Model: "gemini-2.5-flash"},
	}
}

// LoadFromFile reads a configuration file over the defaults.
//
// The file is parsed as YAML first, then as JSON.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		cfg = Default()
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", errors.Join(err, jerr))
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Load builds the configuration of a run.
//
// It loads the .env file if present, reads path if not empty, and applies
// the FOLIO_ environment variables.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = LoadFromFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration, as YAML if the extension says so and JSON otherwise.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from FOLIO_ variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	list := func(name string, dst *[]string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = splitList(v)
		}
	}
	num := func(name string, dst *float64) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = f
		return nil
	}

	str("LEDGER", &c.Ledger)
	str("PRICES", &c.Prices.Path)
	str("PRICES_FORMAT", &c.Prices.Format)
	str("OUTPUT_DIR", &c.Output.Dir)
	str("DATABASE", &c.Output.Database)
	str("VALUATION_CURRENCY", &c.Valuation.Currency)
	str("REFERENCE_ASSET", &c.Valuation.Reference)
	str("UNPRICED", &c.Valuation.Unpriced)
	str("TIE", &c.Valuation.Tie)
	str("ESTIMATOR", &c.Valuation.Estimator.Kind)
	str("FEE_ACCOUNT", &c.Accounts.FeeAccount)
	str("LOG_LEVEL", &c.Logging.Level)
	str("LOG_FORMAT", &c.Logging.Format)
	str("ASSIST_MODEL", &c.Assist.Model)
	list("TRACKED_ASSETS", &c.Valuation.Tracked)
	list("CASH_ASSETS", &c.Valuation.Cash)
	list("TRANSACTION_SCOPES", &c.Accounts.TransactionScopes)

	return errors.Join(
		num("ESTIMATOR_BASE", &c.Valuation.Estimator.Base),
		num("RISK_FREE", &c.Analytics.RiskFree),
		num("ANOMALY_THRESHOLD", &c.Analytics.AnomalyThreshold),
	)
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	var errs []error
	if c.Ledger == "" {
		errs = append(errs, errors.New("ledger is required"))
	}
	if c.Valuation.Currency == "" {
		errs = append(errs, errors.New("valuation.currency is required"))
	}
	if c.Valuation.Reference == "" {
		errs = append(errs, errors.New("valuation.reference is required"))
	}
	if strings.EqualFold(c.Valuation.Currency, c.Valuation.Reference) && c.Valuation.Currency != "" {
		errs = append(errs, errors.New("valuation.reference must differ from valuation.currency"))
	}
	if _, ok := cryptofolio.ParseUnpricedPolicy(c.Valuation.Unpriced); !ok {
		errs = append(errs, fmt.Errorf("valuation.unpriced: unknown policy %q", c.Valuation.Unpriced))
	}
	if _, err := parseTie(c.Valuation.Tie); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Valuation.Estimator.Estimator(); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Prices.Format) {
	case "", "csv", "json", "klines":
	default:
		errs = append(errs, fmt.Errorf("prices.format: unknown format %q", c.Prices.Format))
	}
	if strings.EqualFold(c.Prices.Format, "json") && (c.Prices.DatePath == "" || c.Prices.ClosePath == "") {
		errs = append(errs, errors.New("prices.date_path and prices.close_path are required for json prices"))
	}
	if c.Analytics.AnomalyThreshold < 0 {
		errs = append(errs, errors.New("analytics.anomaly_threshold must not be negative"))
	}
	for code, p := range c.Valuation.Estimates {
		if p < 0 {
			errs = append(errs, fmt.Errorf("valuation.estimates.%s must not be negative", code))
		}
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format: unknown format %q", c.Logging.Format))
	}
	return errors.Join(errs...)
}

func parseTie(s string) (date.Tie, error) {
	switch strings.ToLower(s) {
	case "", "earlier":
		return date.TieEarlier, nil
	case "later":
		return date.TieLater, nil
	}
	return date.TieEarlier, fmt.Errorf("valuation.tie: unknown tie %q", s)
}

// Estimator returns the configured fallback price model.
func (e EstimatorConfig) Estimator() (cryptofolio.Estimator, error) {
	switch strings.ToLower(e.Kind) {
	case "", "growth":
		g := cryptofolio.DefaultGrowthEstimator()
		if e.Base > 0 {
			g.Base = e.Base
		}
		if e.Rate > 0 {
			g.Rate = e.Rate
		}
		if e.Epoch != "" {
			epoch, err := date.Parse(e.Epoch)
			if err != nil {
				return nil, fmt.Errorf("valuation.estimator.epoch: %w", err)
			}
			g.Epoch = epoch
		}
		return g, nil
	case "constant":
		if e.Base <= 0 {
			return nil, errors.New("valuation.estimator.base must be positive for a constant estimator")
		}
		return cryptofolio.ConstantEstimator(e.Base), nil
	}
	return nil, fmt.Errorf("valuation.estimator.kind: unknown estimator %q", e.Kind)
}

// Options returns the pipeline options.
func (c *Config) Options() cryptofolio.Options {
	opts := cryptofolio.DefaultOptions()
	opts.ValuationCurrency = strings.ToUpper(c.Valuation.Currency)
	opts.ReferenceAsset = strings.ToUpper(c.Valuation.Reference)
	if len(c.Valuation.Tracked) > 0 {
		opts.TrackedAssets = upper(c.Valuation.Tracked)
	}
	if len(c.Valuation.Cash) > 0 {
		opts.CashAssets = upper(c.Valuation.Cash)
	}
	for code, p := range c.Valuation.Estimates {
		opts.Estimates[strings.ToUpper(code)] = p
	}
	opts.Unpriced, _ = cryptofolio.ParseUnpricedPolicy(c.Valuation.Unpriced)
	opts.RiskFree = c.Analytics.RiskFree
	if c.Analytics.AnomalyThreshold > 0 {
		opts.AnomalyThreshold = c.Analytics.AnomalyThreshold
	}
	opts.TransactionScopes = c.Accounts.TransactionScopes
	opts.FeeAccount = c.Accounts.FeeAccount
	return opts
}

func upper(list []string) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = strings.ToUpper(s)
	}
	return out
}

// Scopes returns the account to scope mapping.
func (c *Config) Scopes() cryptofolio.Scopes {
	if len(c.Accounts.Scopes) == 0 && c.Accounts.DefaultScope == "" {
		return cryptofolio.DefaultScopes()
	}
	return cryptofolio.Scopes{Accounts: c.Accounts.Scopes, Default: c.Accounts.DefaultScope}
}

// OracleOptions returns the options of the reference price oracle.
func (c *Config) OracleOptions() ([]cryptofolio.OracleOption, error) {
	tie, err := parseTie(c.Valuation.Tie)
	if err != nil {
		return nil, err
	}
	est, err := c.Valuation.Estimator.Estimator()
	if err != nil {
		return nil, err
	}
	return []cryptofolio.OracleOption{cryptofolio.WithTie(tie), cryptofolio.WithEstimator(est)}, nil
}

// LoadPrices reads the configured price series.
//
// It returns a nil series without error when no price file is configured,
// which puts the oracle in estimate mode.
func (c *Config) LoadPrices() (*cryptofolio.PriceSeries, error) {
	if c.Prices.Path == "" {
		return nil, nil
	}
	f, err := os.Open(c.Prices.Path)
	if err != nil {
		return nil, fmt.Errorf("open prices: %w", err)
	}
	defer f.Close()

	format := strings.ToLower(c.Prices.Format)
	if format == "" {
		format = "csv"
		if strings.EqualFold(filepath.Ext(c.Prices.Path), ".json") {
			format = "klines"
		}
	}
	switch format {
	case "json":
		return cryptofolio.DecodePricesJSON(f, c.Prices.DatePath, c.Prices.ClosePath)
	case "klines":
		return cryptofolio.DecodeKlines(f)
	default:
		return cryptofolio.DecodePricesCSV(f)
	}
}

// Oracle builds the reference price oracle from the configured series.
func (c *Config) Oracle() (*cryptofolio.Oracle, error) {
	series, err := c.LoadPrices()
	if err != nil {
		return nil, err
	}
	opts, err := c.OracleOptions()
	if err != nil {
		return nil, err
	}
	return cryptofolio.NewOracle(series, opts...), nil
}

// OutputPath joins name to the output directory.
func (c *Config) OutputPath(name string) string {
	return filepath.Join(c.Output.Dir, name)
}
