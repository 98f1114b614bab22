package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"github.com/jwtly10/sniper/internal/indicators"
	"github.com/jwtly10/sniper/internal/logging"
	"github.com/jwtly10/sniper/internal/market"
	"github.com/jwtly10/sniper/internal/strategy"
)

const (
	symbolENV    = "SNIPER_SYMBOL"
	startENV     = "SNIPER_START"
	capitalENV   = "SNIPER_CAPITAL"
	variantENV   = "SNIPER_VARIANT"
	sourceENV    = "SNIPER_SOURCE"
	csvENV       = "SNIPER_CSV"
	dbENV        = "SNIPER_DB"
	oandaAccENV  = "OANDA_ACCOUNT_ID"
	oandaKeyENV  = "OANDA_API_KEY"
	oandaURLENV  = "OANDA_API_URL"
	debugENV     = "DEBUG_TOPICS"
	defaultStart = "2023-01-01"
)

// envFiles are loaded in order. Variables already in the environment win.
var envFiles = []string{".env"}

type Config struct {
	Symbol   string  `yaml:"symbol"`
	Suffix   string  `yaml:"suffix"`
	Start    string  `yaml:"start"`
	Capital  float64 `yaml:"capital"`
	Currency string  `yaml:"currency"`
	Variant  string  `yaml:"variant"`
	Source   string  `yaml:"source"`
	CSVPath  string  `yaml:"csv_path"`
	DBPath   string  `yaml:"db_path"`

	DebugTopics string `yaml:"debug_topics"`

	Oanda struct {
		AccountID string `yaml:"account_id"`
		APIKey    string `yaml:"api_key"`
		URL       string `yaml:"url"`
	} `yaml:"oanda"`

	Strategy   strategy.Params `yaml:"strategy"`
	Indicators indicators.Spec `yaml:"indicators"`
}

func Default() *Config {
	return &Config{
		Symbol:     "AKFYE",
		Suffix:     ".IS",
		Start:      defaultStart,
		Capital:    10000,
		Currency:   "TL",
		Variant:    strategy.Sniper,
		Source:     market.SourceYahoo,
		DBPath:     "data/sniper.db",
		Strategy:   strategy.DefaultParams(),
		Indicators: indicators.DefaultSpec(),
	}
}

// Load builds the configuration from defaults, then the optional YAML file at path,
// then .env and the process environment. It does not validate: callers apply their own
// overrides first and then call Validate once.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
		}
	}

	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if cfg.DebugTopics != "" {
		logging.Configure(cfg.DebugTopics)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Symbol, symbolENV)
	setString(&c.Start, startENV)
	setString(&c.Variant, variantENV)
	setString(&c.Source, sourceENV)
	setString(&c.CSVPath, csvENV)
	setString(&c.DBPath, dbENV)
	setString(&c.Oanda.AccountID, oandaAccENV)
	setString(&c.Oanda.APIKey, oandaKeyENV)
	setString(&c.Oanda.URL, oandaURLENV)
	setString(&c.DebugTopics, debugENV)

	if v := os.Getenv(capitalENV); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", capitalENV, v, err)
		}
		c.Capital = f
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Symbol) == "" {
		return fmt.Errorf("symbol is required")
	}
	if !(c.Capital > 0) {
		return fmt.Errorf("capital must be positive, got %v", c.Capital)
	}
	if _, err := c.StartTime(); err != nil {
		return err
	}
	switch strings.ToLower(c.Source) {
	case market.SourceYahoo, market.SourceCSV, market.SourceOanda:
	default:
		return fmt.Errorf("unknown source %q", c.Source)
	}
	if err := c.Strategy.Validate(); err != nil {
		return err
	}
	return c.Indicators.Validate()
}

func (c *Config) StartTime() (time.Time, error) {
	t, err := time.Parse(time.DateOnly, c.Start)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start date %q, want YYYY-MM-DD", c.Start)
	}
	return t, nil
}

func (c *Config) MarketOptions() market.Options {
	return market.Options{
		Name:           c.Source,
		Suffix:         c.Suffix,
		CSVPath:        c.CSVPath,
		OandaAccountID: c.Oanda.AccountID,
		OandaAPIKey:    c.Oanda.APIKey,
		OandaURL:       c.Oanda.URL,
	}
}
