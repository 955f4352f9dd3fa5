package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Service Node
	ServiceNodeAPIURL string

	// Wallet Generator
	WalletGeneratorAPIURL      string
	WalletGeneratorAPIUsername string
	WalletGeneratorAPIPassword string

	// Auth
	JWTSecret string
	JWTTTL    time.Duration

	// System
	SystemWallet string

	// Remote
	RemoteTimeout time.Duration

	// Rate Limit
	RateLimitGeneral  int
	RateLimitWithdraw int

	// Server
	ServerPort string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.ServiceNodeAPIURL = os.Getenv("SERVICE_NODE_API_URL")
	if cfg.ServiceNodeAPIURL == "" {
		missing = append(missing, "SERVICE_NODE_API_URL")
	}

	cfg.WalletGeneratorAPIURL = os.Getenv("WALLET_GENERATOR_API_URL")
	if cfg.WalletGeneratorAPIURL == "" {
		missing = append(missing, "WALLET_GENERATOR_API_URL")
	}

	cfg.WalletGeneratorAPIUsername = os.Getenv("WALLET_GENERATOR_API_USERNAME")
	if cfg.WalletGeneratorAPIUsername == "" {
		missing = append(missing, "WALLET_GENERATOR_API_USERNAME")
	}

	cfg.WalletGeneratorAPIPassword = os.Getenv("WALLET_GENERATOR_API_PASSWORD")
	if cfg.WalletGeneratorAPIPassword == "" {
		missing = append(missing, "WALLET_GENERATOR_API_PASSWORD")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	cfg.SystemWallet = os.Getenv("SYSTEM_WALLET")
	if cfg.SystemWallet == "" {
		missing = append(missing, "SYSTEM_WALLET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.JWTTTL = getEnvDuration("JWT_TTL", 24*time.Hour)
	cfg.RemoteTimeout = getEnvDuration("REMOTE_TIMEOUT", 10*time.Second)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitWithdraw = getEnvInt("RATE_LIMIT_WITHDRAW", 10)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
