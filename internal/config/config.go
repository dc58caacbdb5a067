package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// placeholderPrefix marks credentials that were never provisioned.
const placeholderPrefix = "CHANGE_ME"

type Config struct {
	// App
	AppEnv    string `env:"APP_ENV" env-default:"development" env-description:"development | staging | production"`
	HTTPAddr  string `env:"HTTP_ADDR" env-default:":8080"`
	LogLevel  string `env:"LOG_LEVEL" env-default:"info" env-description:"debug | info | warn | error"`
	LogFormat string `env:"LOG_FORMAT" env-default:"text" env-description:"text | json"`
	Debug     bool   `env:"DEBUG" env-default:"false"`

	// Instagram / Meta
	VerifyToken  string `env:"IG_VERIFY_TOKEN" env-default:"CHANGE_ME_VERIFY_TOKEN" env-description:"webhook handshake secret"`
	AccessToken  string `env:"IG_ACCESS_TOKEN" env-default:"CHANGE_ME_ACCESS_TOKEN" env-description:"messaging API token"`
	BusinessID   string `env:"IG_BUSINESS_ID" env-default:"CHANGE_ME_IG_BUSINESS_ID"`
	GraphAPIBase string `env:"GRAPH_API_BASE" env-default:"https://graph.facebook.com/v19.0"`
	AppSecret    string `env:"IG_APP_SECRET" env-description:"verifies X-Hub-Signature-256 when set"`

	// Redis (dedup/rate-limit), optional
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" env-default:"0"`
	DedupTTL      time.Duration `env:"DEDUP_TTL" env-default:"168h"`

	DMMaxPerHour int `env:"DM_MAX_PER_HOUR" env-default:"0" env-description:"0 = unlimited"`
	DMMaxPerDay  int `env:"DM_MAX_PER_DAY" env-default:"0" env-description:"0 = unlimited"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	// Normalize
	cfg.AppEnv = strings.ToLower(strings.TrimSpace(cfg.AppEnv))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	cfg.GraphAPIBase = strings.TrimRight(strings.TrimSpace(cfg.GraphAPIBase), "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var missing []string

	if c.HTTPAddr == "" {
		missing = append(missing, "HTTP_ADDR")
	}
	if c.GraphAPIBase == "" {
		missing = append(missing, "GRAPH_API_BASE")
	}

	if c.IsProd() {
		// Access token may stay unset in prod: sends are skipped until provisioned.
		if IsPlaceholder(c.VerifyToken) {
			missing = append(missing, "IG_VERIFY_TOKEN")
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required env: %s", strings.Join(missing, ", "))
	}
	if c.DMMaxPerHour < 0 || c.DMMaxPerDay < 0 {
		return fmt.Errorf("DM_MAX_PER_HOUR and DM_MAX_PER_DAY must be >= 0")
	}
	return nil
}

func (c *Config) IsProd() bool {
	return c.AppEnv == "production"
}

// MessagingConfigured reports whether real DMs can be sent.
func (c *Config) MessagingConfigured() bool {
	return !IsPlaceholder(c.AccessToken)
}

// RedisEnabled reports whether dedup and rate limiting are backed by Redis.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// IsPlaceholder reports whether v is empty or still carries the CHANGE_ME default.
func IsPlaceholder(v string) bool {
	return v == "" || strings.HasPrefix(v, placeholderPrefix)
}
