package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"GemSentinel/internal/model"
	"GemSentinel/internal/strategy"
)

const dateLayout = "2006-01-02"

// InstrumentConfig describes one entry of the instrument dictionary.
type InstrumentConfig struct {
	DisplayName string     `yaml:"display_name"`
	Role        model.Role `yaml:"role"`
	Color       string     `yaml:"color"`
}

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider          string        `yaml:"provider"` // "yahoo" or "csv"
		CSVDir            string        `yaml:"csv_dir"`
		RequestsPerSecond float64       `yaml:"requests_per_second"`
		CacheTTL          time.Duration `yaml:"cache_ttl"`
	} `yaml:"data_source"`
	Instruments map[string]InstrumentConfig `yaml:"instruments"`
	Strategy    struct {
		WindowMonths  int     `yaml:"window_months"`
		Rule          string  `yaml:"rule"`
		Benchmark     string  `yaml:"benchmark"`
		StartDate     string  `yaml:"start_date"`
		InitialEquity float64 `yaml:"initial_equity"`
		MaxFillMonths int     `yaml:"max_fill_months"`
		DisplayMonths int     `yaml:"display_months"`
		RankMonths    int     `yaml:"rank_months"`
	} `yaml:"strategy"`
	Schedule struct {
		MonthlyCron string `yaml:"monthly_cron"`
		WeeklyCron  string `yaml:"weekly_cron"`
	} `yaml:"schedule"`
	Watchlist struct {
		StateFile string `yaml:"state_file"`
		// UseForSignal makes scheduled and chat analyses take their risky
		// instruments from the watchlist once it holds more than one.
		UseForSignal bool `yaml:"use_for_signal"`
	} `yaml:"watchlist"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	API struct {
		Port           int      `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"api"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}
	if v := os.Getenv("CRON_MONTHLY"); v != "" {
		cfg.Schedule.MonthlyCron = v
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "yahoo"
	}
	if c.DataSource.RequestsPerSecond == 0 {
		c.DataSource.RequestsPerSecond = 2
	}
	if c.DataSource.CacheTTL == 0 {
		c.DataSource.CacheTTL = time.Hour
	}
	if c.Strategy.WindowMonths == 0 {
		c.Strategy.WindowMonths = 12
	}
	if c.Strategy.Rule == "" {
		c.Strategy.Rule = string(strategy.RuleDual)
	}
	if c.Strategy.StartDate == "" {
		c.Strategy.StartDate = "2015-01-01"
	}
	if c.Strategy.InitialEquity == 0 {
		c.Strategy.InitialEquity = 1000
	}
	if c.Strategy.MaxFillMonths == 0 {
		c.Strategy.MaxFillMonths = 2
	}
	if c.Strategy.DisplayMonths == 0 {
		c.Strategy.DisplayMonths = 36
	}
	if c.Strategy.RankMonths == 0 {
		c.Strategy.RankMonths = 6
	}
	// Six-field cron expressions with seconds, as accepted by the scheduler.
	if c.Schedule.MonthlyCron == "" {
		c.Schedule.MonthlyCron = "0 0 9 1 * *"
	}
	if c.Schedule.WeeklyCron == "" {
		c.Schedule.WeeklyCron = "0 0 8 * * 1"
	}
	if c.Watchlist.StateFile == "" {
		c.Watchlist.StateFile = "data/watchlist.json"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/gem_sentinel.db"
	}
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if len(c.API.AllowedOrigins) == 0 {
		c.API.AllowedOrigins = []string{"*"}
	}
}

// Validate checks the instrument dictionary and strategy settings.
func (c *Config) Validate() error {
	if len(c.Instruments) == 0 {
		return errors.New("instruments: at least one entry is required")
	}
	safe := 0
	for id, inst := range c.Instruments {
		switch inst.Role {
		case model.RoleRisky:
		case model.RoleSafe:
			safe++
		default:
			return fmt.Errorf("instruments.%s: role must be %q or %q", id, model.RoleRisky, model.RoleSafe)
		}
	}
	if safe != 1 {
		return fmt.Errorf("instruments: exactly one safe instrument is required, got %d", safe)
	}
	if err := c.InstrumentSet().Validate(); err != nil {
		return fmt.Errorf("instruments: %w", err)
	}
	if c.Strategy.WindowMonths <= 0 {
		return errors.New("strategy.window_months must be positive")
	}
	if _, err := strategy.ParseRule(c.Strategy.Rule); err != nil {
		return fmt.Errorf("strategy.rule: %w", err)
	}
	if _, err := c.Start(); err != nil {
		return err
	}
	switch c.DataSource.Provider {
	case "yahoo":
	case "csv":
		if c.DataSource.CSVDir == "" {
			return errors.New("data_source.csv_dir is required for the csv provider")
		}
	default:
		return fmt.Errorf("data_source.provider: unknown provider %q", c.DataSource.Provider)
	}
	return nil
}

// ValidateBot additionally checks the settings the Telegram bot needs.
func (c *Config) ValidateBot() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	return nil
}

// Start parses strategy.start_date.
func (c *Config) Start() (time.Time, error) {
	t, err := time.Parse(dateLayout, c.Strategy.StartDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("strategy.start_date: %w", err)
	}
	return t, nil
}

// InstrumentSet splits the dictionary into risky contestants and the safe
// instrument.
func (c *Config) InstrumentSet() model.InstrumentSet {
	var risky []string
	safe := ""
	for _, id := range c.instrumentIDs() {
		switch c.Instruments[id].Role {
		case model.RoleRisky:
			risky = append(risky, id)
		case model.RoleSafe:
			if safe == "" {
				safe = id
			}
		}
	}
	return model.NewInstrumentSet(risky, safe)
}

// InstrumentList returns the dictionary as a slice sorted by ID. Unknown
// display names default to the ID.
func (c *Config) InstrumentList() []model.Instrument {
	out := make([]model.Instrument, 0, len(c.Instruments))
	for _, id := range c.instrumentIDs() {
		inst := c.Instruments[id]
		name := inst.DisplayName
		if name == "" {
			name = id
		}
		out = append(out, model.Instrument{ID: id, DisplayName: name, Role: inst.Role, Color: inst.Color})
	}
	return out
}

// DisplayName returns the configured name for id, or id itself.
func (c *Config) DisplayName(id string) string {
	if inst, ok := c.Instruments[id]; ok && inst.DisplayName != "" {
		return inst.DisplayName
	}
	return id
}

func (c *Config) instrumentIDs() []string {
	ids := make([]string, 0, len(c.Instruments))
	for id := range c.Instruments {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
