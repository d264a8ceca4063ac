// Package config собирает конфигурацию приложения из .env, переменных окружения и флагов.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageBadger   = "badger"
)

type Config struct {
	App      AppConfig
	Server   ServerConfig
	Storage  string
	Database DatabaseConfig
	Badger   BadgerConfig
	Auth     AuthConfig
	Events   EventsConfig
}

type AppConfig struct {
	Environment string
	LogLevel    string
}

type ServerConfig struct {
	Addr        string
	CORSOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type BadgerConfig struct {
	Dir      string
	InMemory bool
}

type AuthConfig struct {
	JWTSecret     string
	TokenTTL      time.Duration // 0 - токен без срока действия
	LoginPassword string
	LoginRate     float64 // попыток входа в секунду на один username
	LoginBurst    int
}

type EventsConfig struct {
	Buffer int
	Policy string
}

// DSN - строка подключения к PostgreSQL.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

// LoadEnv загружает .env в окружение процесса, если файл есть.
func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Println(".env file not found")
	}
}

// SetDefaults регистрирует значения по умолчанию и привязку к окружению.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("cors_origins", "*")
	v.SetDefault("storage", StorageMemory)

	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_user", "postgres")
	v.SetDefault("db_password", "")
	v.SetDefault("db_name", "bookery")
	v.SetDefault("db_sslmode", "disable")

	v.SetDefault("badger_dir", "./data/badger")
	v.SetDefault("badger_in_memory", false)

	v.SetDefault("jwt_secret", "")
	v.SetDefault("token_ttl", "0s")
	v.SetDefault("login_password", "password123")
	v.SetDefault("login_rate", 1.0)
	v.SetDefault("login_burst", 5)

	v.SetDefault("event_buffer", 16)
	v.SetDefault("event_policy", "drop-newest")

	v.AutomaticEnv()
}

// Load читает .env и окружение через v; флаги командной строки должны быть привязаны к v заранее.
func Load(v *viper.Viper) (*Config, error) {
	LoadEnv()
	SetDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Environment: v.GetString("app_env"),
			LogLevel:    v.GetString("log_level"),
		},
		Server: ServerConfig{
			Addr:        v.GetString("http_addr"),
			CORSOrigins: splitList(v.GetString("cors_origins")),
		},
		Storage: strings.ToLower(v.GetString("storage")),
		Database: DatabaseConfig{
			Host:     v.GetString("db_host"),
			Port:     v.GetString("db_port"),
			User:     v.GetString("db_user"),
			Password: v.GetString("db_password"),
			Name:     v.GetString("db_name"),
			SSLMode:  v.GetString("db_sslmode"),
		},
		Badger: BadgerConfig{
			Dir:      v.GetString("badger_dir"),
			InMemory: v.GetBool("badger_in_memory"),
		},
		Auth: AuthConfig{
			JWTSecret:     v.GetString("jwt_secret"),
			TokenTTL:      v.GetDuration("token_ttl"),
			LoginPassword: v.GetString("login_password"),
			LoginRate:     v.GetFloat64("login_rate"),
			LoginBurst:    v.GetInt("login_burst"),
		},
		Events: EventsConfig{
			Buffer: v.GetInt("event_buffer"),
			Policy: v.GetString("event_policy"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Storage {
	case StorageMemory, StoragePostgres, StorageBadger:
	default:
		return fmt.Errorf("unknown storage type: %s", c.Storage)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("environment variable JWT_SECRET is not set")
	}
	if c.Auth.LoginPassword == "" {
		return errors.New("login password must not be empty")
	}
	if c.Events.Buffer < 1 {
		return fmt.Errorf("event buffer must be positive, got %d", c.Events.Buffer)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
