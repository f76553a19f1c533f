package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// 環境変数のprefix（FLOWERS_POSTGRES__HOST → postgres.host）
const EnvPrefix = "FLOWERS_"

// Configはアプリ全体の設定
type Config struct {
	App      App      `koanf:"app"`
	Postgres Postgres `koanf:"postgres"`
	JWT      JWT      `koanf:"jwt"`
	Redis    Redis    `koanf:"redis"`
	Kafka    Kafka    `koanf:"kafka"`
	Telegram Telegram `koanf:"telegram"`
}

type App struct {
	Name     string `koanf:"name"`
	HTTPAddr string `koanf:"http_addr"` // サーバーアドレス（:8080）
	Env      string `koanf:"env"`       // dev/prod
	LogFile  string `koanf:"log_file"`

	// 通知ボタンのリンク先（https://shop.example.com）
	PublicURL string `koanf:"public_url"`
	// 未ログインのブラウザをここへリダイレクト
	LoginURL string `koanf:"login_url"`
}

type Postgres struct {
	DSN      string `koanf:"dsn"` // あれば最優先
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	DB       string `koanf:"db"`
	SSLMode  string `koanf:"sslmode"`
}

type JWT struct {
	Secret    string        `koanf:"secret"` // JWT署名シークレット
	AccessTTL time.Duration `koanf:"access_ttl"`
}

// 空なら注文ステータスのキャッシュは使わない
type Redis struct {
	URL       string        `koanf:"url"`
	StatusTTL time.Duration `koanf:"status_ttl"`
}

// Brokersが空ならイベント配信は無効
type Kafka struct {
	Brokers []string `koanf:"brokers"`
	Topic   string   `koanf:"topic"`
}

type Telegram struct {
	Token       string `koanf:"token"`
	AdminChatID int64  `koanf:"admin_chat_id"`
	Debug       bool   `koanf:"debug"`
}

// Loadは設定を読み込む。
// 優先順位: 環境変数 > path の yaml > デフォルト値。path は空でもよい。
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Config{}, fmt.Errorf("load %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "flowershop"
	}
	if c.App.HTTPAddr == "" {
		c.App.HTTPAddr = ":8080"
	}
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.LogFile == "" {
		c.App.LogFile = "./logs/app.log"
	}
	if c.App.LoginURL == "" {
		c.App.LoginURL = "/login"
	}
	c.App.PublicURL = strings.TrimRight(c.App.PublicURL, "/")

	if c.Postgres.Port == 0 {
		c.Postgres.Port = 5432
	}
	if c.Postgres.SSLMode == "" {
		c.Postgres.SSLMode = "disable"
	}
	if c.JWT.AccessTTL <= 0 {
		c.JWT.AccessTTL = 15 * time.Minute
	}
	if c.Redis.StatusTTL <= 0 {
		c.Redis.StatusTTL = 10 * time.Minute
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "orders.events"
	}
}

// Validateは必須項目をチェックする
func (c Config) Validate() error {
	var errs []error
	if c.Postgres.DSN == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, errors.New("postgres.host is required"))
		}
		if c.Postgres.User == "" {
			errs = append(errs, errors.New("postgres.user is required"))
		}
		if c.Postgres.DB == "" {
			errs = append(errs, errors.New("postgres.db is required"))
		}
	}
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("jwt.secret is required"))
	}
	if c.App.PublicURL == "" {
		errs = append(errs, errors.New("app.public_url is required"))
	}
	return errors.Join(errs...)
}

// ValidateBotはbotプロセスだけが使う項目をチェックする
func (c Config) ValidateBot() error {
	if c.Telegram.Token == "" {
		return errors.New("telegram.token is required")
	}
	return nil
}

// ConnStringはpostgres接続文字列を返す（DSN優先）
func (p Postgres) ConnString() string {
	if p.DSN != "" {
		return p.DSN
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DB, p.SSLMode,
	)
}
