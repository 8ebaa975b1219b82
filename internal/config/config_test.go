package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CryptoGraph/internal/advisor"
	"CryptoGraph/internal/series"
)

var envKeys = []string{
	"COINGECKO_API_KEY", "CRYPTOCOMPARE_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY",
	"LLM_PROVIDER", "PRICE_CRON", "STORAGE_DRIVER", "STORAGE_PATH", "SQLITE_PATH",
	"SERVER_ADDR", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "HTTPS_PROXY", "LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "@every 1m", cfg.Refresh.PriceCron)
	assert.Equal(t, series.DefaultCapacity, cfg.Series.Capacity)
	require.NotNil(t, cfg.Series.Epsilon)
	assert.Equal(t, series.DefaultEpsilon, *cfg.Series.Epsilon)
	assert.Equal(t, DriverFile, cfg.Storage.Driver)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, advisor.ProviderOpenAI, cfg.LLM.Provider)
	assert.Empty(t, cfg.LLM.APIKey)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
log:
  level: debug
coingecko:
  api_key: from-file
refresh:
  price_cron: "*/30 * * * * *"
  report_cron: "0 0 9 * * *"
series:
  capacity: 10
storage:
  driver: BADGER
  path: /tmp/state
telegram:
  bot_token: token
  chat_id: "42"
`)
	t.Setenv("COINGECKO_API_KEY", "from-env")
	t.Setenv("SERVER_ADDR", "127.0.0.1:9000")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "from-env", cfg.CoinGecko.APIKey)
	assert.Equal(t, "*/30 * * * * *", cfg.Refresh.PriceCron)
	assert.Equal(t, "0 0 9 * * *", cfg.Refresh.ReportCron)
	assert.Equal(t, 10, cfg.Series.Capacity)
	assert.Equal(t, DriverBadger, cfg.Storage.Driver)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, "42", cfg.Telegram.ChatID)
	require.NoError(t, cfg.Validate())
}

func TestLoad_ProviderKeys(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "g-key")
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, advisor.ProviderGemini, cfg.LLM.Provider)
	assert.Equal(t, "g-key", cfg.LLM.APIKey)

	t.Setenv("OPENAI_API_KEY", "o-key")
	t.Setenv("LLM_PROVIDER", "Gemini")
	cfg, err = Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, advisor.ProviderGemini, cfg.LLM.Provider)
	assert.Equal(t, "g-key", cfg.LLM.APIKey)
}

func TestLoad_ZeroEpsilonIsKept(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeConfig(t, "series:\n  epsilon: 0\n"))
	require.NoError(t, err)
	require.NotNil(t, cfg.Series.Epsilon)
	assert.Equal(t, 0.0, *cfg.Series.Epsilon)
	require.NoError(t, cfg.Validate())
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeConfig(t, "log: [unclosed"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	base := func() *Config {
		cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		return cfg
	}

	cfg := base()
	cfg.Refresh.PriceCron = "every minute"
	assert.ErrorContains(t, cfg.Validate(), "refresh.price_cron")

	cfg = base()
	cfg.Refresh.PriceCron = "* * * * *"
	assert.Error(t, cfg.Validate(), "five-field specs lack the seconds field")

	cfg = base()
	cfg.Series.Capacity = -1
	assert.ErrorContains(t, cfg.Validate(), "series.capacity")

	cfg = base()
	tooWide := 1.5
	cfg.Series.Epsilon = &tooWide
	assert.ErrorContains(t, cfg.Validate(), "series.epsilon")

	cfg = base()
	cfg.Storage.Driver = "redis"
	assert.ErrorContains(t, cfg.Validate(), "storage.driver")

	cfg = base()
	cfg.LLM.Provider = "claude"
	assert.ErrorContains(t, cfg.Validate(), "llm.provider")

	cfg = base()
	cfg.Telegram.BotToken = "token"
	assert.ErrorContains(t, cfg.Validate(), "telegram.chat_id")
}

func TestPathFromEnv(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	assert.Equal(t, DefaultPath, PathFromEnv())
	t.Setenv("CONFIG_PATH", "/etc/cryptograph.yaml")
	assert.Equal(t, "/etc/cryptograph.yaml", PathFromEnv())
}
