// Package config は環境変数からアプリケーション設定を読み込む。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ストアのドライバ名
const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Store
	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`
	DatabaseURL string `env:"DATABASE_URL"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"sessionbridge.db"`

	// LINE Login
	LineChannelID     string `env:"LINE_CHANNEL_ID"`
	LineChannelSecret string `env:"LINE_CHANNEL_SECRET"`
	LineAuthURL       string `env:"LINE_AUTH_URL"`
	LineTokenURL      string `env:"LINE_TOKEN_URL"`
	LineProfileURL    string `env:"LINE_PROFILE_URL"`

	// Google OAuth（両方設定された場合のみ有効）
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`

	// Session
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"720h"`
	PostLoginPath string        `env:"POST_LOGIN_PATH" envDefault:"/booking"`

	// Server
	ServerPort string `env:"SERVER_PORT" envDefault:"8080"`
	// BaseURLが空の場合はリクエストのOriginヘッダーからredirect_uriを組み立てる
	BaseURL string `env:"BASE_URL"`

	// Cookie
	CookieDomain string `env:"COOKIE_DOMAIN"`

	// CORS（カンマ区切りで複数指定可）
	CORSAllowedOrigin string `env:"CORS_ALLOWED_ORIGIN" envDefault:"http://localhost:3000"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// GoogleEnabled はGoogleログインが設定されているかを返す。
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// Load は環境変数からConfigを読み込む。
// カレントディレクトリに.envがあれば先に読み込む（既存の環境変数は上書きしない）。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	// Required fields
	var missing []string

	if cfg.LineChannelID == "" {
		missing = append(missing, "LINE_CHANNEL_ID")
	}
	if cfg.LineChannelSecret == "" {
		missing = append(missing, "LINE_CHANNEL_SECRET")
	}

	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if cfg.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case StoreDriverSQLite:
		if cfg.SQLitePath == "" {
			missing = append(missing, "SQLITE_PATH")
		}
	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER: %q", cfg.StoreDriver)
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive: %v", cfg.SessionTTL)
	}
	if !strings.HasPrefix(cfg.PostLoginPath, "/") {
		return nil, fmt.Errorf("POST_LOGIN_PATH must start with '/': %q", cfg.PostLoginPath)
	}

	return cfg, nil
}
