package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken    string `mapstructure:"TELEGRAM_TOKEN"`
	DBDSN            string `mapstructure:"DB_DSN"`
	Environment      string `mapstructure:"ENV"`
	SchedulingAPIURL string `mapstructure:"SCHEDULING_API_URL"`
	APITimeout       time.Duration
	ReconcileDelay   time.Duration
	SessionTTL       time.Duration
	MigrationsPath   string `mapstructure:"MIGRATIONS_PATH"`
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	// Читаем напрямую из переменных окружения (после godotenv.Load они там)
	cfg := &Config{
		DBDSN:            os.Getenv("DB_DSN"),
		TelegramToken:    os.Getenv("TELEGRAM_TOKEN"),
		Environment:      os.Getenv("ENV"),
		SchedulingAPIURL: os.Getenv("SCHEDULING_API_URL"),
		MigrationsPath:   os.Getenv("MIGRATIONS_PATH"),
	}

	// Устанавливаем дефолтные значения
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.MigrationsPath == "" {
		cfg.MigrationsPath = "migrations"
	}

	cfg.APITimeout = durationFromEnv("SCHEDULING_API_TIMEOUT_MS", 15*time.Second)
	cfg.ReconcileDelay = durationFromEnv("RECONCILE_DELAY_MS", 100*time.Millisecond)
	cfg.SessionTTL = durationFromEnv("SESSION_TTL_MS", 30*time.Minute)

	// Проверяем обязательные поля
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is required but not set")
	}
	if cfg.SchedulingAPIURL == "" {
		return nil, fmt.Errorf("SCHEDULING_API_URL is required but not set")
	}

	log.Println("Config loaded")

	return cfg, nil
}

// durationFromEnv читает длительность в миллисекундах из переменной окружения
func durationFromEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	ms, err := strconv.Atoi(raw)
	if err != nil || ms <= 0 {
		log.Printf("⚠️  Invalid %s=%q, using default %s\n", key, raw, fallback)
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

func (c *Config) GetDBDSN() string {
	return c.DBDSN
}
