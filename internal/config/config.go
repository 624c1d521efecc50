package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
)

type Config struct {
	Env        string     `yaml:"env" env:"ENV" env-default:"local"`
	Storage    Storage    `yaml:"storage"`
	HTTPServer HTTPServer `yaml:"http_server"`
	Bus        Bus        `yaml:"bus"`
	Session    Session    `yaml:"session"`
	Slug       Slug       `yaml:"slug"`
}

type Storage struct {
	Driver   string   `yaml:"driver" env:"STORAGE_DRIVER" env-default:"postgres"`
	Postgres Database `yaml:"postgres"`
	SQLite   SQLite   `yaml:"sqlite"`
	Mongo    Mongo    `yaml:"mongo"`
}

type Database struct {
	Host     string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"DB_USER" env-default:"postgres"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	DBName   string `yaml:"dbname" env:"DB_NAME" env-default:"eventrea"`
	SSLMode  string `yaml:"sslmode" env:"DB_SSLMODE" env-default:"disable"`
}

type SQLite struct {
	Path string `yaml:"path" env:"SQLITE_PATH" env-default:"./storage/eventrea.db"`
}

type Mongo struct {
	URI      string `yaml:"uri" env:"MONGODB_URI" env-default:"mongodb://localhost:27017"`
	Database string `yaml:"database" env:"MONGODB_DATABASE" env-default:"eventrea"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:3000"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// Bus configures both ends of the gateway <-> events service link. The events
// service listens on Address and serves Path; the gateway dials URL.
type Bus struct {
	Address        string        `yaml:"address" env:"BUS_ADDRESS" env-default:"localhost:6000"`
	Path           string        `yaml:"path" env-default:"/bus"`
	URL            string        `yaml:"url" env:"BUS_URL" env-default:"ws://localhost:6000/bus"`
	RequestTimeout time.Duration `yaml:"request_timeout" env-default:"5s"`
}

type Session struct {
	Secret     string        `yaml:"secret" env:"SESSION_SECRET"`
	CookieName string        `yaml:"cookie_name" env-default:"eventrea_session"`
	TTL        time.Duration `yaml:"ttl" env-default:"168h"`
}

type Slug struct {
	MaxAttempts int `yaml:"max_attempts" env:"SLUG_MAX_ATTEMPTS" env-default:"16"`
}

func MustLoad() *Config {
	// .env is optional; real deployments set the variables directly
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("failed to load .env: %v", err)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	return cfg
}

func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}

	switch cfg.Storage.Driver {
	case DriverPostgres, DriverSQLite, DriverMongo:
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	return &cfg, nil
}
