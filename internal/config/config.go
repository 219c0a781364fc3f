package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver      string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBDSN         string `env:"DB_DSN" envDefault:"file:retail-audit.db"`
	ServerPort    string `env:"SERVER_PORT" envDefault:"8080"`
	SessionSecret string `env:"SESSION_SECRET"`

	AdminUsername string `env:"ADMIN_USERNAME" envDefault:"admin@retail.local"`
	AdminPassword string `env:"ADMIN_PASSWORD" envDefault:"Admin123!"`

	CategoriesFile string `env:"CATEGORIES_FILE"`

	Photos PhotoConfig
}

// PhotoConfig — хранилище фотографий и параметры сжатия
type PhotoConfig struct {
	Backend       string `env:"PHOTO_BACKEND" envDefault:"sqlite"`
	SQLitePath    string `env:"PHOTO_SQLITE_PATH" envDefault:"photos.db"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	MongoURI      string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"retail_audit"`

	TargetBytes  int `env:"PHOTO_TARGET_BYTES" envDefault:"307200"`
	MaxDimension int `env:"PHOTO_MAX_DIMENSION" envDefault:"1600"`
	Retention    int `env:"PHOTO_RETENTION" envDefault:"1"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.DBDSN == "" {
		return errors.New("DB_DSN is not set")
	}
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET is not set")
	}
	switch c.Photos.Backend {
	case "sqlite", "redis", "mongo":
	default:
		return fmt.Errorf("unsupported PHOTO_BACKEND: %s", c.Photos.Backend)
	}
	if c.Photos.TargetBytes <= 0 {
		return errors.New("PHOTO_TARGET_BYTES must be positive")
	}
	if c.Photos.Retention < 1 {
		return errors.New("PHOTO_RETENTION must be at least 1")
	}
	return nil
}
