package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	SMTP     SMTPConfig
	PayPal   PayPalConfig
	Sweep    SweepConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type PostgresConfig struct {
	User     string
	Password string
	Name     string
	Host     string
	Port     int
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type PayPalConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

type SweepConfig struct {
	Interval time.Duration
}

func New() (*Config, error) {
	const op = "config.New"

	_ = godotenv.Load()

	serverPort, err := envInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pgPort, err := envInt("POSTGRES_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	pgUser, err := envRequired("POSTGRES_USER")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	pgPassword, err := envRequired("POSTGRES_PASSWORD")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	pgDB, err := envRequired("POSTGRES_DB")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	redisDB, err := envInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	smtpPort, err := envInt("SMTP_PORT", 587)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	paypalTimeout, err := envDuration("PAYPAL_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sweepInterval, err := envDuration("SWEEP_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Config{
		Server: ServerConfig{
			Host: envStr("SERVER_HOST", "localhost"),
			Port: serverPort,
		},
		Postgres: PostgresConfig{
			User:     pgUser,
			Password: pgPassword,
			Name:     pgDB,
			Host:     envStr("POSTGRES_HOST", "localhost"),
			Port:     pgPort,
			SSLMode:  envStr("POSTGRES_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     envStr("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     smtpPort,
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     envStr("SMTP_FROM", "tickets@kinogo.example"),
		},
		PayPal: PayPalConfig{
			BaseURL:      envStr("PAYPAL_BASE_URL", "https://api-m.sandbox.paypal.com"),
			ClientID:     os.Getenv("PAYPAL_CLIENT_ID"),
			ClientSecret: os.Getenv("PAYPAL_CLIENT_SECRET"),
			Timeout:      paypalTimeout,
		},
		Sweep: SweepConfig{
			Interval: sweepInterval,
		},
	}, nil
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envRequired(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", fmt.Errorf("missing %s", key)
	}
	return v, nil
}

func envInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
