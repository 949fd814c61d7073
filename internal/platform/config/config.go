package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	pstrings "watchlist/pkg/platform/strings"
)

// Server captures process level configuration.
type Server struct {
	Addr           string
	LogLevel       string
	LogFormat      string
	AllowedOrigins []string
	AutoMigrate    bool

	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Auth      AuthConfig
	Screening ScreeningConfig
}

// DatabaseConfig configures the Postgres pool. An empty URL selects the
// in-memory stores.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig configures the candidate cache. An empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CacheTTL     time.Duration
}

// KafkaConfig configures the screening event sink. No brokers disables it.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type AuthConfig struct {
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string
}

type ScreeningConfig struct {
	WeightsFile     string
	ThresholdMode   string
	SubjectsFixture string
}

// LoadDotEnv loads a .env file when present. Variables already set in the
// environment win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	var err error
	cfg := Server{
		Addr:           getenv("WATCHLIST_ADDR", ":8080"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		LogFormat:      getenv("LOG_FORMAT", "json"),
		AllowedOrigins: pstrings.SplitList(os.Getenv("CORS_ALLOWED_ORIGINS"), ","),
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
		},
		Kafka: KafkaConfig{
			Brokers: pstrings.SplitList(os.Getenv("KAFKA_BROKERS"), ","),
			Topic:   getenv("KAFKA_SCREENING_TOPIC", "watchlist.screenings"),
		},
		Auth: AuthConfig{
			// Use a default for development - should be overridden in production
			JWTSigningKey: getenv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			JWTIssuer:     getenv("JWT_ISSUER", "watchlist"),
			JWTAudience:   getenv("JWT_AUDIENCE", "watchlist-api"),
		},
		Screening: ScreeningConfig{
			WeightsFile:     os.Getenv("SCREENING_WEIGHTS_FILE"),
			ThresholdMode:   strings.ToLower(getenv("SCREENING_THRESHOLD_MODE", "ceiling")),
			SubjectsFixture: os.Getenv("SUBJECTS_FIXTURE"),
		},
	}

	if cfg.Database.MaxOpenConns, err = intEnv("DB_MAX_OPEN_CONNS", 20); err != nil {
		return Server{}, err
	}
	if cfg.Redis.CacheTTL, err = durationEnv("CANDIDATE_CACHE_TTL", 5*time.Minute); err != nil {
		return Server{}, err
	}
	if cfg.AutoMigrate, err = boolEnv("AUTO_MIGRATE", false); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, v)
	}
	return n, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, v)
	}
	return d, nil
}

func boolEnv(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, v)
	}
	return b, nil
}
