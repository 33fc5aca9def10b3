package config

import (
	"barsim/internal/engine"
	"barsim/types"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid config")

const dateLayout = "2006-01-02"

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration of a backtest invocation.
type Config struct {
	Data      Data      `yaml:"data"`
	Portfolio Portfolio `yaml:"portfolio"`
	Reporting Reporting `yaml:"reporting"`
	Strategy  Strategy  `yaml:"strategy"`
	Sweep     Sweep     `yaml:"sweep"`
	Logging   Logging   `yaml:"logging"`
	Results   Results   `yaml:"results"`
}

// Data selects where bars come from.
type Data struct {
	Source   string `yaml:"source"` // csv, parquet or postgres
	Path     string `yaml:"path"`
	DBURL    string `yaml:"db_url"`
	Ticker   string `yaml:"ticker"`
	Interval string `yaml:"interval"`
	Start    string `yaml:"start"`
	End      string `yaml:"end"`
}

type Portfolio struct {
	InitialCapital    float64 `yaml:"initial_capital"`
	AllowShortSelling *bool   `yaml:"allow_short_selling"`
	AllowNegativeCash *bool   `yaml:"allow_negative_cash"`
}

type Reporting struct {
	AnnualizationFactor int     `yaml:"annualization_factor"`
	RiskFreeRate        float64 `yaml:"risk_free_rate"`
	TradesCSV           string  `yaml:"trades_csv"`
	EquityCSV           string  `yaml:"equity_csv"`
	Print               *bool   `yaml:"print"`
	Progress            bool    `yaml:"progress"`
}

type Strategy struct {
	Name   string         `yaml:"name"`
	Params map[string]any `yaml:"params"`
}

// Sweep lists candidate values per parameter. When non-empty, every
// combination is run on top of Strategy.Params.
type Sweep struct {
	Params      map[string][]any `yaml:"params"`
	Parallelism int              `yaml:"parallelism"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Results struct {
	SQLitePath string `yaml:"sqlite_path"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads .env (if present) into the environment, parses the YAML file at
// path, applies environment overrides, fills defaults and validates. An empty
// path skips the file and relies on defaults and the environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BARSIM_DB_URL"); v != "" {
		cfg.Data.DBURL = v
	}
	if v := os.Getenv("BARSIM_DATA_PATH"); v != "" {
		cfg.Data.Path = v
	}
	if v := os.Getenv("BARSIM_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("BARSIM_RESULTS_DB"); v != "" {
		cfg.Results.SQLitePath = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Data.Source == "" {
		cfg.Data.Source = "csv"
	}
	if cfg.Data.Interval == "" {
		cfg.Data.Interval = string(types.Day)
	}
	if cfg.Portfolio.InitialCapital == 0 {
		cfg.Portfolio.InitialCapital = 100000
	}
	if cfg.Reporting.AnnualizationFactor == 0 {
		cfg.Reporting.AnnualizationFactor = 252
	}
	if cfg.Reporting.Print == nil {
		on := true
		cfg.Reporting.Print = &on
	}
	if cfg.Sweep.Parallelism == 0 {
		cfg.Sweep.Parallelism = 4
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}

// Validate reports the first problem found. It does not check that the
// strategy exists; the registry does that.
func (c *Config) Validate() error {
	switch c.Data.Source {
	case "csv", "parquet":
		if c.Data.Path == "" {
			return fmt.Errorf("%w: data.path is required for source %q", ErrInvalidConfig, c.Data.Source)
		}
	case "postgres":
		if c.Data.DBURL == "" {
			return fmt.Errorf("%w: data.db_url is required for source postgres", ErrInvalidConfig)
		}
		if c.Data.Start == "" || c.Data.End == "" {
			return fmt.Errorf("%w: data.start and data.end are required for source postgres", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown data.source %q", ErrInvalidConfig, c.Data.Source)
	}
	if c.Data.Ticker == "" && c.Data.Source != "csv" {
		return fmt.Errorf("%w: data.ticker is required", ErrInvalidConfig)
	}
	if _, err := types.ParseInterval(c.Data.Interval); err != nil {
		return fmt.Errorf("%w: data.interval: %v", ErrInvalidConfig, err)
	}
	start, err := c.StartTime()
	if err != nil {
		return err
	}
	end, err := c.EndTime()
	if err != nil {
		return err
	}
	if !start.IsZero() && !end.IsZero() && !end.After(start) {
		return fmt.Errorf("%w: data.end must be after data.start", ErrInvalidConfig)
	}
	if c.Portfolio.InitialCapital <= 0 {
		return fmt.Errorf("%w: portfolio.initial_capital must be positive", ErrInvalidConfig)
	}
	if c.Reporting.AnnualizationFactor < 0 {
		return fmt.Errorf("%w: reporting.annualization_factor must be positive", ErrInvalidConfig)
	}
	if c.Strategy.Name == "" {
		return fmt.Errorf("%w: strategy.name is required", ErrInvalidConfig)
	}
	if c.Sweep.Parallelism < 0 {
		return fmt.Errorf("%w: sweep.parallelism must not be negative", ErrInvalidConfig)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("%w: logging.format must be console or json", ErrInvalidConfig)
	}
	return nil
}

func (c *Config) StartTime() (time.Time, error) {
	return parseDate("data.start", c.Data.Start)
}

func (c *Config) EndTime() (time.Time, error) {
	return parseDate("data.end", c.Data.End)
}

func parseDate(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s %q is neither %s nor RFC3339", ErrInvalidConfig, field, s, dateLayout)
	}
	return t, nil
}

func (c *Config) Interval() types.Interval {
	i, _ := types.ParseInterval(c.Data.Interval)
	return i
}

func (c *Config) Capital() decimal.Decimal {
	return decimal.NewFromFloat(c.Portfolio.InitialCapital)
}

// PortfolioConfig maps the ledger policy; unset flags stay permissive.
func (c *Config) PortfolioConfig() engine.PortfolioConfig {
	allowShort, allowNegative := true, true
	if c.Portfolio.AllowShortSelling != nil {
		allowShort = *c.Portfolio.AllowShortSelling
	}
	if c.Portfolio.AllowNegativeCash != nil {
		allowNegative = *c.Portfolio.AllowNegativeCash
	}
	return engine.NewPortfolioConfig(allowShort, allowNegative)
}

func (c *Config) ReportingConfig() engine.ReportingConfig {
	return engine.NewReportingConfig(c.Reporting.AnnualizationFactor, decimal.NewFromFloat(c.Reporting.RiskFreeRate))
}

// PrintReport reports whether the text report should be written to stdout.
func (c *Config) PrintReport() bool {
	return c.Reporting.Print == nil || *c.Reporting.Print
}
