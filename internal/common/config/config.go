package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`
	// console or json
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"*"`
	}

	Storage struct {
		// memory or redis
		Driver string `env:"STORAGE_DRIVER" envDefault:"memory"`
		// How long a generated contest ID stays reserved before publication must consume it
		ReservationTTL time.Duration `env:"ID_RESERVATION_TTL" envDefault:"10m"`
	}

	Redis struct {
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
		// TTL of cached chat resolutions (@username -> chat)
		ChatCacheTTL time.Duration `env:"CHAT_CACHE_TTL" envDefault:"10m"`
	}

	Telegram struct {
		BotToken    string        `env:"BOT_TOKEN,required"`
		APIURL      string        `env:"TELEGRAM_API_URL" envDefault:"https://api.telegram.org"`
		BotUsername string        `env:"BOT_USERNAME" envDefault:"contestbot"`
		AdminIDs    []int64       `env:"ADMIN_IDS" envSeparator:","`
		PollTimeout time.Duration `env:"POLL_TIMEOUT" envDefault:"30s"`
		HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"40s"`
		InitDataTTL time.Duration `env:"INIT_DATA_TTL" envDefault:"24h"`
	}

	Session struct {
		TTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	}
}

// Load reads the optional .env file and then the process environment.
func Load() (*Config, error) {
	// .env is optional; in production variables come from the environment
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	switch cfg.Storage.Driver {
	case StorageMemory, StorageRedis:
	default:
		return nil, fmt.Errorf("invalid STORAGE_DRIVER %q (expected %s or %s)", cfg.Storage.Driver, StorageMemory, StorageRedis)
	}

	switch cfg.LogFormat {
	case "console", "json":
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT %q (expected console or json)", cfg.LogFormat)
	}

	if cfg.Telegram.PollTimeout >= cfg.Telegram.HTTPTimeout {
		return nil, fmt.Errorf("HTTP_TIMEOUT (%s) must exceed POLL_TIMEOUT (%s)", cfg.Telegram.HTTPTimeout, cfg.Telegram.PollTimeout)
	}

	return cfg, nil
}

// RedisAddr returns host:port of the redis server.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
