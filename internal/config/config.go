// Package config loads rizq.yaml and overlays RIZQ_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/myrizq/rizq/internal/importer"
	"github.com/myrizq/rizq/internal/logging"
	"github.com/myrizq/rizq/internal/model"
)

// FileName is the config file created by `rizq init`.
const FileName = "rizq.yaml"

// Config represents the top-level rizq.yaml configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Rates    RatesConfig    `yaml:"rates"`
	Cache    CacheConfig    `yaml:"cache"`
	Events   EventsConfig   `yaml:"events"`
	Activity ActivityConfig `yaml:"activity"`
	Import   ImportConfig   `yaml:"import"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// StorageConfig selects the event log backend.
type StorageConfig struct {
	Path   string `yaml:"path"`             // sqlite database file
	Memory bool   `yaml:"memory,omitempty"` // keep events in process only
}

// LedgerConfig holds per-ledger defaults.
type LedgerConfig struct {
	BaseCurrency   string `yaml:"base_currency"`
	AlertThreshold int    `yaml:"alert_threshold"` // percent
	CategoriesFile string `yaml:"categories_file,omitempty"`
}

// RatesConfig is a static exchange-rate table: units of Base per one unit
// of each listed currency.
type RatesConfig struct {
	Base    string            `yaml:"base"`
	Table   map[string]string `yaml:"table,omitempty"`
	Timeout time.Duration     `yaml:"timeout"`
}

// CacheConfig sizes the dashboard summary cache.
type CacheConfig struct {
	Size int           `yaml:"size"`
	TTL  time.Duration `yaml:"ttl"`
}

// EventsConfig points at the AMQP broker alerts are published to. An empty
// URL logs alerts instead.
type EventsConfig struct {
	AMQPURL  string `yaml:"amqp_url,omitempty"`
	Exchange string `yaml:"exchange"`
}

// ActivityConfig locates the CSV activity log. Empty disables it.
type ActivityConfig struct {
	Path string `yaml:"path,omitempty"`
}

// ImportConfig controls bank statement imports.
type ImportConfig struct {
	Dir     string            `yaml:"dir"`
	Rules   []importer.Rule   `yaml:"rules,omitempty"`
	Layouts []importer.Layout `yaml:"layouts,omitempty"`
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads a rizq.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default("")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
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

// Default returns a Config with sensible defaults for a new project. An
// empty baseCurrency means USD.
func Default(baseCurrency string) *Config {
	if baseCurrency == "" {
		baseCurrency = "USD"
	}
	return &Config{
		Server:  ServerConfig{Addr: ":8080"},
		Storage: StorageConfig{Path: filepath.Join("data", "rizq.db")},
		Ledger: LedgerConfig{
			BaseCurrency:   baseCurrency,
			AlertThreshold: 80,
			CategoriesFile: "categories.csv",
		},
		Rates:    RatesConfig{Base: baseCurrency, Timeout: 2 * time.Second},
		Cache:    CacheConfig{Size: 256, TTL: time.Minute},
		Events:   EventsConfig{Exchange: "rizq.alerts"},
		Activity: ActivityConfig{Path: filepath.Join("data", "activity.csv")},
		Import:   ImportConfig{Dir: "data"},
		Log:      LogConfig{Level: "info"},
	}
}

// Resolve builds the effective configuration: the file at path when it
// exists (defaults otherwise), then envFile's variables, then the process
// environment. Relative paths are anchored at the config file's directory.
func Resolve(path, envFile string) (*Config, error) {
	cfg, err := Load(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		cfg = Default("")
	case err != nil:
		return nil, err
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	cfg.Rebase(filepath.Dir(path))
	return cfg, nil
}

// ApplyEnv overlays RIZQ_* environment variables.
func (c *Config) ApplyEnv() error {
	var errs []string

	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString("RIZQ_SERVER_ADDR", &c.Server.Addr)
	setString("RIZQ_STORAGE_PATH", &c.Storage.Path)
	setString("RIZQ_BASE_CURRENCY", &c.Ledger.BaseCurrency)
	setString("RIZQ_CATEGORIES_FILE", &c.Ledger.CategoriesFile)
	setString("RIZQ_AMQP_URL", &c.Events.AMQPURL)
	setString("RIZQ_AMQP_EXCHANGE", &c.Events.Exchange)
	setString("RIZQ_ACTIVITY_PATH", &c.Activity.Path)
	setString("RIZQ_IMPORT_DIR", &c.Import.Dir)
	setString("RIZQ_LOG_LEVEL", &c.Log.Level)

	if v := os.Getenv("RIZQ_STORAGE_MEMORY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("RIZQ_STORAGE_MEMORY=%q: must be a boolean", v))
		}
		c.Storage.Memory = b
	}
	if v := os.Getenv("RIZQ_CACHE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("RIZQ_CACHE_SIZE=%q: must be a number", v))
		}
		c.Cache.Size = n
	}
	setDuration := func(key string, dst *time.Duration) {
		v := os.Getenv(key)
		if v == "" {
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s=%q: %v", key, v, err))
			return
		}
		*dst = d
	}
	setDuration("RIZQ_CACHE_TTL", &c.Cache.TTL)
	setDuration("RIZQ_RATES_TIMEOUT", &c.Rates.Timeout)

	if len(errs) > 0 {
		return fmt.Errorf("environment overrides:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// Rebase makes relative file paths absolute under dir.
func (c *Config) Rebase(dir string) {
	for _, p := range []*string{&c.Storage.Path, &c.Ledger.CategoriesFile, &c.Activity.Path, &c.Import.Dir} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}

// RateTable parses the static rate table.
func (c *Config) RateTable() (map[string]decimal.Decimal, error) {
	table := make(map[string]decimal.Decimal, len(c.Rates.Table))
	for code, s := range c.Rates.Table {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("rate for %s: %w", code, err)
		}
		table[strings.ToUpper(code)] = d
	}
	return table, nil
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Addr == "" {
		errs = append(errs, "server.addr cannot be empty")
	}
	if !c.Storage.Memory && c.Storage.Path == "" {
		errs = append(errs, "storage.path cannot be empty unless storage.memory is set")
	}

	if !model.ValidCurrency(c.Ledger.BaseCurrency) {
		errs = append(errs, fmt.Sprintf("invalid ledger.base_currency %q: must be a 3-letter ISO code", c.Ledger.BaseCurrency))
	}
	if c.Ledger.AlertThreshold < 1 || c.Ledger.AlertThreshold > 100 {
		errs = append(errs, fmt.Sprintf("invalid ledger.alert_threshold %d: must be between 1 and 100", c.Ledger.AlertThreshold))
	}

	if c.Rates.Base != "" && !model.ValidCurrency(c.Rates.Base) {
		errs = append(errs, fmt.Sprintf("invalid rates.base %q", c.Rates.Base))
	}
	for code, s := range c.Rates.Table {
		if !model.ValidCurrency(strings.ToUpper(code)) {
			errs = append(errs, fmt.Sprintf("invalid currency %q in rates.table", code))
		}
		if d, err := decimal.NewFromString(s); err != nil || !d.IsPositive() {
			errs = append(errs, fmt.Sprintf("invalid rate %q for %s: must be a positive number", s, code))
		}
	}
	if c.Rates.Timeout <= 0 {
		errs = append(errs, fmt.Sprintf("invalid rates.timeout %v: must be positive", c.Rates.Timeout))
	}

	if c.Cache.Size < 0 {
		errs = append(errs, fmt.Sprintf("invalid cache.size %d: must not be negative", c.Cache.Size))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, fmt.Sprintf("invalid cache.ttl %v: must not be negative", c.Cache.TTL))
	}

	if c.Events.AMQPURL != "" {
		if u, err := url.Parse(c.Events.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid events.amqp_url: %v", err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid events.amqp_url scheme %q: must be amqp or amqps", u.Scheme))
		}
		if c.Events.Exchange == "" {
			errs = append(errs, "events.exchange cannot be empty when events.amqp_url is set")
		}
	}

	for i, l := range c.Import.Layouts {
		if err := l.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("invalid import.layouts[%d]: %v", i, err))
		}
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Sprintf("invalid log.level: %v", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
