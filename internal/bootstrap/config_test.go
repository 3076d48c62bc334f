package bootstrap

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testContract = "0x5FbDB2315678afecb367f032d93F642f64180aa3"

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("REDIS_ADDR", "127.0.0.1:6379")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("OPERATOR_PASSWORD_HASH", "$2a$10$abcdefghijklmnopqrstuu")
	t.Setenv("CONTRACT_ADDRESS", testContract)
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "pe:", cfg.KeyPrefix)
	assert.Equal(t, "0.001", cfg.PurchasePrice)
	assert.Equal(t, "@every 10s", cfg.RefreshSchedule)
	assert.Equal(t, 100, cfg.RateLimitMax)
	assert.Equal(t, time.Second, cfg.RateLimitWindow)
	assert.Equal(t, 24, cfg.JWTExpiry)
	assert.Empty(t, cfg.WalletKey, "私钥是可选的")
}

func TestLoadConfig_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("RATE_LIMIT_MAX", "5")
	t.Setenv("PURCHASE_PRICE", "0.01")
	t.Setenv("LOG_LEVEL", "loud")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.AppEnv)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, 5, cfg.RateLimitMax)
	assert.Equal(t, "0.01", cfg.PurchasePrice)
	assert.Equal(t, "info", cfg.LogLevel, "非法日志级别回退为 info")
}

func TestLoadConfig_Errors(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"missing redis", "REDIS_ADDR", ""},
		{"missing jwt secret", "JWT_SECRET", ""},
		{"missing password hash", "OPERATOR_PASSWORD_HASH", ""},
		{"bad contract", "CONTRACT_ADDRESS", "not-an-address"},
		{"unknown env", "APP_ENV", "staging"},
		{"bad redis db", "REDIS_DB", "one"},
		{"zero rate limit", "RATE_LIMIT_MAX", "0"},
		{"negative rate limit", "RATE_LIMIT_MAX", "-1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tc.key, tc.value)
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	log := NewLogger(&Config{AppEnv: "production", LogLevel: "debug"})
	assert.Equal(t, logrus.DebugLevel, log.Level)
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter, "生产环境输出 JSON")

	log = NewLogger(&Config{AppEnv: "development", LogLevel: "info"})
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
}
