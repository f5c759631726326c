package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

type Config struct {
	Server    ServerConfig
	GRPC      GRPCConfig
	Worker    WorkerConfig
	Sources   SourcesConfig
	DB        DatabaseConfig
	Logging   LoggingConfig
	Feed      FeedConfig
	Synthetic SyntheticConfig
	Geocode   GeocodeConfig
	Kafka     KafkaConfig
	Telegram  TelegramConfig
	Admin     AdminConfig
	Schedule  ScheduleConfig
}

type GRPCConfig struct {
	Port int
}

type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins  []string
	RateLimitRPS    int
	ShutdownTimeout time.Duration
}

type WorkerConfig struct {
	Count      int
	BufferSize int
}

type SourcesConfig struct {
	USGSEnabled       bool
	USGSURL           string
	USGSPollInterval  time.Duration
	GDACSEnabled      bool
	GDACSURL          string
	GDACSPollInterval time.Duration
}

type DatabaseConfig struct {
	Path string
}

type LoggingConfig struct {
	Level  string
	Format string // json or text
}

type FeedConfig struct {
	Interval       time.Duration
	MutationChance float64
	AppendChance   float64
	MaxReports     int
	Seed           uint64 // 0 picks a time-based seed
}

type SyntheticConfig struct {
	Seed      uint64
	BatchSize int
	RadiusKm  float64
}

type GeocodeConfig struct {
	Enabled   bool
	BaseURL   string
	UserAgent string
	RPS       float64
	CacheSize int
	Timeout   time.Duration
}

// KafkaConfig publishing is off when Brokers is empty.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

// TelegramConfig alerts are off unless both fields are set.
type TelegramConfig struct {
	BotToken string
	ChatID   int64
}

func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != 0
}

// AdminConfig holds the bcrypt hash of the admin API key. Admin routes are
// unavailable without it.
type AdminConfig struct {
	APIKeyHash string
}

type ScheduleConfig struct {
	Synthetic   string
	HotspotScan string
}

func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "localhost"),
			Port:            getEnvInt("SERVER_PORT", 8080),
			AllowedOrigins:  getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
			RateLimitRPS:    getEnvInt("RATE_LIMIT_RPS", 20),
			ShutdownTimeout: shutdownTimeout,
		},
		GRPC: GRPCConfig{
			Port: getEnvInt("GRPC_PORT", 50051),
		},
		Worker: WorkerConfig{
			Count:      getEnvInt("WORKER_COUNT", 2),
			BufferSize: getEnvInt("WORKER_BUFFER_SIZE", 20),
		},
		Sources: SourcesConfig{
			USGSEnabled:       getEnvBool("USGS_ENABLED", true),
			USGSURL:           getEnv("USGS_URL", "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/4.5_day.geojson"),
			USGSPollInterval:  getEnvDuration("USGS_POLL_INTERVAL", 5*time.Minute),
			GDACSEnabled:      getEnvBool("GDACS_ENABLED", true),
			GDACSURL:          getEnv("GDACS_URL", "https://www.gdacs.org/xml/rss.xml"),
			GDACSPollInterval: getEnvDuration("GDACS_POLL_INTERVAL", 10*time.Minute),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/ocean-hazards.db"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Feed: FeedConfig{
			Interval:       getEnvDuration("FEED_INTERVAL", 30*time.Second),
			MutationChance: getEnvFloat("FEED_MUTATION_CHANCE", 0.1),
			AppendChance:   getEnvFloat("FEED_APPEND_CHANCE", 0.2),
			MaxReports:     getEnvInt("FEED_MAX_REPORTS", 200),
			Seed:           getEnvUint("FEED_SEED", 0),
		},
		Synthetic: SyntheticConfig{
			Seed:      getEnvUint("SYNTHETIC_SEED", 0),
			BatchSize: getEnvInt("SYNTHETIC_BATCH_SIZE", 25),
			RadiusKm:  getEnvFloat("SYNTHETIC_RADIUS_KM", 25),
		},
		Geocode: GeocodeConfig{
			Enabled:   getEnvBool("GEOCODE_ENABLED", true),
			BaseURL:   getEnv("GEOCODE_URL", "https://nominatim.openstreetmap.org"),
			UserAgent: getEnv("GEOCODE_USER_AGENT", "go-ocean-hazards/1.0"),
			RPS:       getEnvFloat("GEOCODE_RPS", 1),
			CacheSize: getEnvInt("GEOCODE_CACHE_SIZE", 1000),
			Timeout:   getEnvDuration("GEOCODE_TIMEOUT", 10*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:      getEnvList("KAFKA_BROKERS", nil),
			Topic:        getEnv("KAFKA_TOPIC", "hazard-report-events"),
			WriteTimeout: getEnvDuration("KAFKA_WRITE_TIMEOUT", 5*time.Second),
		},
		Telegram: TelegramConfig{
			BotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChatID:   int64(getEnvInt("TELEGRAM_CHAT_ID", 0)),
		},
		Admin: AdminConfig{
			APIKeyHash: getEnv("ADMIN_API_KEY_HASH", ""),
		},
		Schedule: ScheduleConfig{
			Synthetic:   getEnv("SYNTHETIC_SCHEDULE", "@every 1h"),
			HotspotScan: getEnv("HOTSPOT_SCAN_SCHEDULE", "@every 5m"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.GRPC.Port < 1 || c.GRPC.Port > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPC.Port)
	}
	if c.Server.RateLimitRPS < 1 {
		return fmt.Errorf("rate limit must be at least 1 req/s")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if c.Worker.Count < 1 {
		return fmt.Errorf("worker count must be positive: %d", c.Worker.Count)
	}

	if c.Sources.USGSPollInterval < time.Minute {
		return fmt.Errorf("USGS poll interval must be at least 1 minute")
	}
	if c.Sources.GDACSPollInterval < time.Minute {
		return fmt.Errorf("GDACS poll interval must be at least 1 minute")
	}

	if c.Feed.Interval < time.Second {
		return fmt.Errorf("feed interval must be at least 1 second")
	}
	if !isChance(c.Feed.MutationChance) || !isChance(c.Feed.AppendChance) {
		return fmt.Errorf("feed chances must be between 0 and 1")
	}

	if c.Synthetic.BatchSize < 1 || c.Synthetic.BatchSize > 500 {
		return fmt.Errorf("synthetic batch size must be between 1 and 500: %d", c.Synthetic.BatchSize)
	}

	return nil
}

func isChance(p float64) bool {
	return p >= 0 && p <= 1
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvUint(key string, fallback uint64) uint64 {
	if val := os.Getenv(key); val != "" {
		if u, err := strconv.ParseUint(val, 10, 64); err == nil {
			return u
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList splits a comma-separated value, dropping blanks.
func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
