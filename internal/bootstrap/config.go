package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"pixel-earth/internal/infra/setup"
)

// Config 结构体用于存储从环境变量或文件加载的配置
type Config struct {
	AppEnv       string // development / production，同时决定连接哪条链
	ServerPort   string
	LogLevel     string
	KeyPrefix    string // Redis Key 前缀
	CORSOrigin   string
	DB           setup.DBConfig
	Redis        setup.RedisConfig
	JWTSecret    string
	JWTExpiry    int // 小时
	PasswordHash string

	ContractAddress string
	RPCURL          string // 为空时使用网络表中的默认地址
	WalletKey       string // 为空时钱包无法连接
	PurchasePrice   string // ether
	RefreshSchedule string
	SnapshotTTL     time.Duration

	RateLimitMax    int
	RateLimitWindow time.Duration
}

// LoadConfig 从环境变量加载配置
func LoadConfig() (*Config, error) {
	// 优先加载 .env 文件 (如果存在)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:          envOr("APP_ENV", "development"),
		ServerPort:      envOr("SERVER_PORT", "8080"),
		LogLevel:        envOr("LOG_LEVEL", "info"),
		KeyPrefix:       envOr("REDIS_KEY_PREFIX", "pe:"),
		CORSOrigin:      envOr("CORS_ALLOWED_ORIGIN", "http://localhost:3000"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		PasswordHash:    os.Getenv("OPERATOR_PASSWORD_HASH"),
		ContractAddress: os.Getenv("CONTRACT_ADDRESS"),
		RPCURL:          os.Getenv("RPC_URL"),
		WalletKey:       os.Getenv("WALLET_PRIVATE_KEY"),
		PurchasePrice:   envOr("PURCHASE_PRICE", "0.001"),
		RefreshSchedule: envOr("BOARD_REFRESH_SCHEDULE", "@every 10s"),
		SnapshotTTL:     10 * time.Minute,
		RateLimitWindow: 1 * time.Second,
		DB: setup.DBConfig{
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Host:     envOr("DB_HOST", "127.0.0.1"),
			Port:     envOr("DB_PORT", "3306"),
			Name:     os.Getenv("DB_NAME"),
		},
		Redis: setup.RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
	}

	var err error
	if cfg.Redis.DB, err = intEnv("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.JWTExpiry, err = intEnv("JWT_EXPIRY_HOURS", 24); err != nil {
		return nil, err
	}
	if cfg.RateLimitMax, err = intEnv("RATE_LIMIT_MAX", 100); err != nil {
		return nil, err
	}
	// 限流中间件要求正数上限
	if cfg.RateLimitMax <= 0 {
		return nil, fmt.Errorf("environment variable RATE_LIMIT_MAX must be positive, got %d", cfg.RateLimitMax)
	}

	if cfg.AppEnv != "development" && cfg.AppEnv != "production" {
		return nil, fmt.Errorf("APP_ENV must be development or production, got %q", cfg.AppEnv)
	}
	if cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("environment variable REDIS_ADDR must be set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("environment variable JWT_SECRET must be set")
	}
	if cfg.PasswordHash == "" {
		return nil, fmt.Errorf("environment variable OPERATOR_PASSWORD_HASH must be set")
	}
	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("environment variable CONTRACT_ADDRESS must be a hex address, got %q", cfg.ContractAddress)
	}

	// 验证日志级别
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		logrus.Warnf("Invalid LOG_LEVEL '%s', using default 'info'", cfg.LogLevel)
		cfg.LogLevel = "info"
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("environment variable %s must be an integer: %w", key, err)
	}
	return n, nil
}
