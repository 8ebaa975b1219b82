package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"CryptoGraph/internal/advisor"
	"CryptoGraph/internal/logger"
	"CryptoGraph/internal/notifier"
	"CryptoGraph/internal/series"
)

const (
	DriverFile   = "file"
	DriverBadger = "badger"
)

// DefaultPath is used when CONFIG_PATH is unset.
const DefaultPath = "configs/config.yaml"

// Source is one upstream market API.
type Source struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// Config holds all application configuration.
type Config struct {
	Log           logger.Config  `yaml:"log"`
	CoinGecko     Source         `yaml:"coingecko"`
	CryptoCompare Source         `yaml:"cryptocompare"`
	LLM           advisor.Config `yaml:"llm"`
	Refresh       struct {
		PriceCron  string `yaml:"price_cron"`
		CoinsCron  string `yaml:"coins_cron"`
		ReportCron string `yaml:"report_cron"`
	} `yaml:"refresh"`
	Series struct {
		Capacity int      `yaml:"capacity"`
		Epsilon  *float64 `yaml:"epsilon"` // nil means series.DefaultEpsilon; 0 disables wicks
	} `yaml:"series"`
	Storage struct {
		Driver string `yaml:"driver"`
		Path   string `yaml:"path"`
	} `yaml:"storage"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Telegram notifier.Config `yaml:"telegram"`
	Proxy    string          `yaml:"proxy"`
}

// PathFromEnv returns $CONFIG_PATH or DefaultPath.
func PathFromEnv() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads config from a YAML file, then applies .env and environment variable overrides.
// A missing file is not an error.
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

	// .env never overrides variables already set in the process environment
	_ = godotenv.Load()

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}

	setString("COINGECKO_API_KEY", &c.CoinGecko.APIKey)
	setString("CRYPTOCOMPARE_API_KEY", &c.CryptoCompare.APIKey)
	setString("LLM_PROVIDER", &c.LLM.Provider)
	setString("PRICE_CRON", &c.Refresh.PriceCron)
	setString("STORAGE_DRIVER", &c.Storage.Driver)
	setString("STORAGE_PATH", &c.Storage.Path)
	setString("SQLITE_PATH", &c.Database.SQLitePath)
	setString("SERVER_ADDR", &c.Server.Addr)
	setString("TELEGRAM_BOT_TOKEN", &c.Telegram.BotToken)
	setString("TELEGRAM_CHAT_ID", &c.Telegram.ChatID)
	setString("HTTPS_PROXY", &c.Proxy)
	setString("LOG_LEVEL", &c.Log.Level)
	c.LLM.Provider = strings.ToLower(c.LLM.Provider)

	// The key variable matching the provider wins; otherwise the first key found picks the provider.
	openaiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	geminiKey := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	switch {
	case c.LLM.Provider == advisor.ProviderGemini && geminiKey != "":
		c.LLM.APIKey = geminiKey
	case c.LLM.Provider == advisor.ProviderOpenAI && openaiKey != "":
		c.LLM.APIKey = openaiKey
	case c.LLM.Provider == "" && openaiKey != "":
		c.LLM.Provider = advisor.ProviderOpenAI
		c.LLM.APIKey = openaiKey
	case c.LLM.Provider == "" && geminiKey != "":
		c.LLM.Provider = advisor.ProviderGemini
		c.LLM.APIKey = geminiKey
	}
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Refresh.PriceCron == "" {
		c.Refresh.PriceCron = "@every 1m"
	}
	if c.Refresh.CoinsCron == "" {
		c.Refresh.CoinsCron = "0 0 * * * *"
	}
	if c.Series.Capacity == 0 {
		c.Series.Capacity = series.DefaultCapacity
	}
	if c.Series.Epsilon == nil {
		eps := series.DefaultEpsilon
		c.Series.Epsilon = &eps
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverFile
	}
	c.Storage.Driver = strings.ToLower(c.Storage.Driver)
	if c.Storage.Path == "" {
		c.Storage.Path = "data/state"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/cryptograph.db"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = advisor.ProviderOpenAI
	}
}

// Validate checks values that would otherwise fail later at startup.
func (c *Config) Validate() error {
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	crons := []struct{ name, spec string }{
		{"refresh.price_cron", c.Refresh.PriceCron},
		{"refresh.coins_cron", c.Refresh.CoinsCron},
		{"refresh.report_cron", c.Refresh.ReportCron},
	}
	for _, cr := range crons {
		if cr.spec == "" {
			continue
		}
		if _, err := parser.Parse(cr.spec); err != nil {
			return fmt.Errorf("%s: %w", cr.name, err)
		}
	}
	if c.Series.Capacity < 1 {
		return fmt.Errorf("series.capacity must be positive")
	}
	if eps := c.Series.Epsilon; eps == nil || *eps < 0 || *eps >= 1 {
		return fmt.Errorf("series.epsilon must be in [0, 1)")
	}
	switch c.Storage.Driver {
	case DriverFile, DriverBadger:
	default:
		return fmt.Errorf("storage.driver must be %q or %q, got %q", DriverFile, DriverBadger, c.Storage.Driver)
	}
	switch c.LLM.Provider {
	case advisor.ProviderOpenAI, advisor.ProviderGemini:
	default:
		return fmt.Errorf("llm.provider must be %q or %q, got %q", advisor.ProviderOpenAI, advisor.ProviderGemini, c.LLM.Provider)
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required when telegram.bot_token is set")
	}
	return nil
}
