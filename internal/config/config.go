// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

// GatewayConfig holds the Przelewy24 merchant credentials.
type GatewayConfig struct {
	Mode       string        `yaml:"mode"` // p24 | noop
	MerchantID int64         `yaml:"merchant_id"`
	PosID      int64         `yaml:"pos_id"` // defaults to merchant_id
	User       string        `yaml:"user"`   // defaults to merchant_id
	SecretID   string        `yaml:"secret_id"`
	CRC        string        `yaml:"crc"`
	BaseURL    string        `yaml:"base_url"`
	Timeout    time.Duration `yaml:"timeout"`
	Encoding   string        `yaml:"encoding"`
	Debug      bool          `yaml:"debug"`
	Country    string        `yaml:"country"`
	Language   string        `yaml:"language"`
	TimeLimit  int64         `yaml:"time_limit"`  // minutes
	PendingTTL time.Duration `yaml:"pending_ttl"` // fail pending payments older than this; 0 disables
}

type HTTPConfig struct {
	Port       int    `yaml:"port"`
	NotifyPath string `yaml:"notify_path"`
	ReturnURL  string `yaml:"return_url"`
	StatusURL  string `yaml:"status_url"`
	RateLimit  int    `yaml:"rate_limit"` // register calls per client per minute; 0 disables
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"` // how long a handled notification is remembered
}

type TelegramConfig struct {
	Token    string  `yaml:"token"`
	AdminIDs []int64 `yaml:"admin_ids"`
}

type Config struct {
	Gateway  GatewayConfig  `yaml:"gateway"`
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Telegram TelegramConfig `yaml:"telegram"`

	Runtime RuntimeConfig `yaml:"-"`
}

const (
	GatewayModeP24  = "p24"
	GatewayModeNoop = "noop"
)

// LoadConfig reads the YAML file at path, applies env overrides and defaults,
// and validates what the service cannot start without.
func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b, dev)
}

func Parse(b []byte, dev bool) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	cfg.Runtime.Dev = dev
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	for env, dst := range map[string]*string{
		"P24_SECRET_ID":  &cfg.Gateway.SecretID,
		"P24_CRC":        &cfg.Gateway.CRC,
		"DATABASE_URL":   &cfg.Database.URL,
		"TELEGRAM_TOKEN": &cfg.Telegram.Token,
	} {
		if v, ok := os.LookupEnv(env); ok && v != "" {
			*dst = v
		}
	}
}

func applyDefaults(cfg *Config) {
	g := &cfg.Gateway
	g.Mode = strings.ToLower(strings.TrimSpace(g.Mode))
	if g.Mode == "" {
		g.Mode = GatewayModeP24
	}
	if g.PosID == 0 {
		g.PosID = g.MerchantID
	}
	if g.User == "" && g.MerchantID != 0 {
		g.User = fmt.Sprint(g.MerchantID)
	}
	if g.BaseURL == "" {
		g.BaseURL = "https://sandbox.przelewy24.pl/api/v1"
	}
	if g.Timeout <= 0 {
		g.Timeout = 30 * time.Second
	}
	if g.Encoding == "" {
		g.Encoding = "UTF-8"
	}
	if g.Country == "" {
		g.Country = "PL"
	}
	if g.Language == "" {
		g.Language = "pl"
	}

	if cfg.HTTP.Port <= 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.HTTP.NotifyPath == "" {
		cfg.HTTP.NotifyPath = "/api/p24/notify"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)
}

func (cfg *Config) validate() error {
	g := cfg.Gateway
	switch g.Mode {
	case GatewayModeNoop:
	case GatewayModeP24:
		if g.MerchantID == 0 {
			return errors.New("gateway.merchant_id is required")
		}
		if g.SecretID == "" {
			return errors.New("gateway.secret_id is required")
		}
		if cfg.HTTP.ReturnURL == "" {
			return errors.New("http.return_url is required")
		}
	default:
		return fmt.Errorf("gateway.mode %q is not one of p24|noop", g.Mode)
	}
	if g.CRC == "" {
		return errors.New("gateway.crc is required")
	}
	if !strings.HasPrefix(cfg.HTTP.NotifyPath, "/") {
		return errors.New("http.notify_path must start with /")
	}
	return nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return 72 * time.Hour
	}
	return d
}
