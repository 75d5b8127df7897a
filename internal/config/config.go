// Package config は環境変数からのアプリケーション設定の読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Local store (匿名ユーザー用の組み込みKVストア)
	LocalStorePath string

	// Generator (LLMバックエンド)
	GeneratorAPIKey      string
	GeneratorBaseURL     string
	GeneratorModel       string
	GeneratorTemperature float32
	GeneratorMaxRetries  int
	GeneratorRetryWait   time.Duration

	// Auth
	GoogleClientID string

	// Session
	SessionMaxAge int

	// Rate Limit (リクエスト/分)
	RateLimitGeneral int
	RateLimitChat    int

	// Locale
	DefaultLocale string

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
// 生成器のAPIキーは必須ではない（未設定時はフォールバック文のみで動作する）。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.GoogleClientID = os.Getenv("GOOGLE_CLIENT_ID")
	if cfg.GoogleClientID == "" {
		missing = append(missing, "GOOGLE_CLIENT_ID")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.LocalStorePath = getEnvString("LOCAL_STORE_PATH", "./data/localstore")
	cfg.GeneratorAPIKey = os.Getenv("GENERATOR_API_KEY")
	cfg.GeneratorBaseURL = os.Getenv("GENERATOR_BASE_URL")
	cfg.GeneratorModel = getEnvString("GENERATOR_MODEL", "gpt-4o-mini")
	cfg.GeneratorTemperature = getEnvFloat32("GENERATOR_TEMPERATURE", 0.7)
	cfg.GeneratorMaxRetries = getEnvInt("GENERATOR_MAX_RETRIES", 3)
	cfg.GeneratorRetryWait = getEnvDuration("GENERATOR_RETRY_WAIT", time.Second)
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 86400)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitChat = getEnvInt("RATE_LIMIT_CHAT", 20)
	cfg.DefaultLocale = getEnvString("DEFAULT_LOCALE", "en")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.BaseURL = getEnvString("BASE_URL", "http://localhost:8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:5173")

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

func getEnvFloat32(key string, defaultVal float32) float32 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return defaultVal
	}
	return float32(f)
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
