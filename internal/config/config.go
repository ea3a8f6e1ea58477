package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig
	Redis  RedisConfig
	Cache  CacheConfig
	Log    LogConfig
	EFA    EFAConfig
	Worker WorkerConfig
}

type ServerConfig struct {
	Host string
	Port int
	Env  string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CacheConfig struct {
	SuggestCacheTTL time.Duration
	// ContextTTL - сколько помнить использованные токены продолжения
	ContextTTL time.Duration
}

type LogConfig struct {
	Level string
}

// EFAConfig - выбор провайдера и параметры HTTP-клиента движка
type EFAConfig struct {
	Provider string
	// BaseURL переопределяет адрес сервера провайдера из реестра
	BaseURL string
	Timeout time.Duration
	// BoardTimeout - таймаут одного табло при параллельной выборке
	BoardTimeout time.Duration
	// BoardConcurrency - сколько табло запрашивать одновременно
	BoardConcurrency int
}

type WorkerConfig struct {
	Enabled           bool
	ConsumerGroup     string
	RequestStream     string
	ResultStream      string
	BatchSize         int64
	StreamReadTimeout time.Duration
	MaxRetries        int
}

func Load() (*Config, error) {
	viper.AutomaticEnv()
	if _, err := os.Stat(".env"); err == nil {
		viper.SetConfigFile(".env")
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	setDefaults()

	cfg := &Config{
		Server: ServerConfig{
			Host: viper.GetString("API_HOST"),
			Port: viper.GetInt("API_PORT"),
			Env:  viper.GetString("API_ENV"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetInt("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Cache: CacheConfig{
			SuggestCacheTTL: time.Duration(viper.GetInt("SUGGEST_CACHE_TTL")) * time.Second,
			ContextTTL:      time.Duration(viper.GetInt("CONTEXT_TTL")) * time.Second,
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
		EFA: EFAConfig{
			Provider:         strings.ToLower(strings.TrimSpace(viper.GetString("EFA_PROVIDER"))),
			BaseURL:          viper.GetString("EFA_BASE_URL"),
			Timeout:          time.Duration(viper.GetInt("EFA_TIMEOUT")) * time.Second,
			BoardTimeout:     time.Duration(viper.GetInt("EFA_BOARD_TIMEOUT")) * time.Second,
			BoardConcurrency: viper.GetInt("EFA_BOARD_CONCURRENCY"),
		},
		Worker: WorkerConfig{
			Enabled:           viper.GetBool("WORKER_ENABLED"),
			ConsumerGroup:     viper.GetString("WORKER_CONSUMER_GROUP"),
			RequestStream:     viper.GetString("WORKER_REQUEST_STREAM"),
			ResultStream:      viper.GetString("WORKER_RESULT_STREAM"),
			BatchSize:         viper.GetInt64("WORKER_BATCH_SIZE"),
			StreamReadTimeout: time.Duration(viper.GetInt("WORKER_STREAM_READ_TIMEOUT")) * time.Millisecond,
			MaxRetries:        viper.GetInt("WORKER_MAX_RETRIES"),
		},
	}

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("API_HOST", "0.0.0.0")
	viper.SetDefault("API_PORT", 8080)
	viper.SetDefault("API_ENV", "development")

	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", 6379)

	viper.SetDefault("SUGGEST_CACHE_TTL", 3600)
	viper.SetDefault("CONTEXT_TTL", 1800)

	viper.SetDefault("LOG_LEVEL", "info")

	viper.SetDefault("EFA_PROVIDER", "vrr")
	viper.SetDefault("EFA_TIMEOUT", 30)
	viper.SetDefault("EFA_BOARD_TIMEOUT", 10)
	viper.SetDefault("EFA_BOARD_CONCURRENCY", 4)

	viper.SetDefault("WORKER_CONSUMER_GROUP", "departure-board-workers")
	viper.SetDefault("WORKER_REQUEST_STREAM", "stream:departures:request")
	viper.SetDefault("WORKER_RESULT_STREAM", "stream:departures:done")
	viper.SetDefault("WORKER_BATCH_SIZE", 10)
	viper.SetDefault("WORKER_STREAM_READ_TIMEOUT", 5000)
	viper.SetDefault("WORKER_MAX_RETRIES", 3)
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
