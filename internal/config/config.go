package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dkronst/israel-crypto-tax/internal/engine"
)

// Config represents the top-level cryptotax.yaml configuration.
type Config struct {
	// TaxRate is the capital-gains rate. Zero falls back to the engine
	// default (0.25).
	TaxRate float64 `yaml:"tax_rate"`
	// InitialLosses seeds the loss carry.
	InitialLosses float64 `yaml:"initial_losses"`
	// YearStart is the fiscal window start date, "2006-01-02" in UTC.
	// Empty means the first full year after the default epoch.
	YearStart string `yaml:"year_start"`
	// PriceHistoryDir holds per-asset <asset>-history.csv files.
	PriceHistoryDir string `yaml:"price_history_dir"`
	// PriceDatabase, when set, selects the SQLite price store instead of
	// the CSV directory.
	PriceDatabase string `yaml:"price_database,omitempty"`
	LogLevel      string `yaml:"log_level"`
	// Sources lists the exchange exports to compute over.
	Sources []Source `yaml:"sources,omitempty"`
}

// Source names one exchange export file and its parser format.
type Source struct {
	Format string `yaml:"format"`
	Path   string `yaml:"path"`
}

// dateFormat is the YearStart layout.
const dateFormat = "2006-01-02"

// Load reads a cryptotax.yaml file from disk and applies environment
// overrides. A .env file next to the working directory is honored.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyEnv()
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default() *Config {
	return &Config{
		TaxRate:         0.25,
		YearStart:       time.Unix(engine.DefaultEpoch+engine.YearSeconds, 0).UTC().Format(dateFormat),
		PriceHistoryDir: "prices",
		LogLevel:        "info",
	}
}

// WindowStart resolves YearStart to unix seconds. Empty defers to the
// engine default.
func (c *Config) WindowStart() (int64, error) {
	if c.YearStart == "" {
		return 0, nil
	}
	t, err := time.Parse(dateFormat, c.YearStart)
	if err != nil {
		return 0, fmt.Errorf("parsing year_start %q: %w", c.YearStart, err)
	}
	return t.Unix(), nil
}

// applyEnv overlays CRYPTOTAX_* environment variables, loading a .env
// file first if one exists.
func (c *Config) applyEnv() {
	_ = godotenv.Load()

	if v := os.Getenv("CRYPTOTAX_PRICE_DIR"); v != "" {
		c.PriceHistoryDir = v
	}
	if v := os.Getenv("CRYPTOTAX_PRICE_DB"); v != "" {
		c.PriceDatabase = v
	}
	if v := os.Getenv("CRYPTOTAX_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("CRYPTOTAX_TAX_RATE"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil {
			c.TaxRate = rate
		}
	}
}
