package config

import (
	"errors"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	Server   Server   `mapstructure:"server"`
	Database Database `mapstructure:"database"`
	JWT      JWT      `mapstructure:"jwt"`
	Cache    Cache    `mapstructure:"cache"`
	NATS     NATS     `mapstructure:"nats"`
	Fanout   Fanout   `mapstructure:"fanout"`
	Logger   Logger   `mapstructure:"logger"`
}

type Server struct {
	Port         string `mapstructure:"port"`
	Environment  string `mapstructure:"environment"`
	AllowOrigins string `mapstructure:"allow_origins"`
}

type Database struct {
	Driver      string `mapstructure:"driver"`
	URL         string `mapstructure:"url"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

type JWT struct {
	Secret string `mapstructure:"secret"`
}

// Cache configures the friends-list cache. An empty RedisAddr selects the
// in-process LRU.
type Cache struct {
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	Size          int           `mapstructure:"size"`
	TTL           time.Duration `mapstructure:"ttl"`
}

// NATS configures the optional notification mirror. Disabled when URL is empty.
type NATS struct {
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

type Fanout struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type Logger struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// keys maps config keys to the environment variables they are read from,
// with their defaults.
var keys = []struct {
	key, env string
	def      any
}{
	{"server.port", "PORT", "8080"},
	{"server.environment", "APP_ENV", "development"},
	{"server.allow_origins", "ALLOW_ORIGINS", "http://localhost:3000"},
	{"database.driver", "STORE_DRIVER", StoreDriverPostgres},
	{"database.url", "DATABASE_URL", ""},
	{"database.auto_migrate", "DATABASE_AUTO_MIGRATE", true},
	{"jwt.secret", "JWT_SECRET", ""},
	{"cache.redis_addr", "REDIS_ADDR", ""},
	{"cache.redis_password", "REDIS_PASSWORD", ""},
	{"cache.redis_db", "REDIS_DB", 0},
	{"cache.size", "FRIENDS_CACHE_SIZE", 10000},
	{"cache.ttl", "FRIENDS_CACHE_TTL", "10m"},
	{"nats.url", "NATS_URL", ""},
	{"nats.subject_prefix", "NATS_SUBJECT_PREFIX", "chat.notify"},
	{"fanout.timeout", "FANOUT_TIMEOUT", "5s"},
	{"logger.development", "LOG_DEVELOPMENT", false},
	{"logger.level", "LOG_LEVEL", "info"},
}

// Load reads .env (if present) and the process environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	v := viper.New()
	for _, k := range keys {
		v.SetDefault(k.key, k.def)
		if err := v.BindEnv(k.key, k.env); err != nil {
			return nil, err
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case StoreDriverPostgres:
		if c.Database.URL == "" {
			return errors.New("DATABASE_URL environment variable is not set")
		}
	case StoreDriverMemory:
	default:
		return errors.New("STORE_DRIVER must be postgres or memory")
	}
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET environment variable is not set")
	}
	if c.Fanout.Timeout <= 0 {
		return errors.New("FANOUT_TIMEOUT must be positive")
	}
	return nil
}
