package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process-wide settings. It is loaded once at startup and
// treated as immutable afterwards.
type Config struct {
	// Server
	Port string

	// Database
	DatabaseURL   string
	RunMigrations bool

	// Tokens
	JWTSecret          []byte
	JWTSecretGenerated bool
	TokenTTL           time.Duration

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// MinIO
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool
	MinioBucket    string
	MinioRegion    string
	QRLinkTTL      time.Duration

	// Bootstrap
	OwnerUsername string
	OwnerPassword string
	SeedDemo      bool

	// Throttling
	LoginMaxAttempts int
	LoginWindow      time.Duration
	RateLimitRPS     float64
	RateLimitBurst   int

	// Jobs
	SummaryRefreshInterval time.Duration
	StaleEntryAfter        time.Duration

	// Telemetry
	ServiceName  string
	OTLPEndpoint string
	OTLPInsecure bool
	LogLevel     string
}

// Load reads the configuration from the environment, after applying an
// optional .env file. Missing required variables are reported together.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWTSecret = []byte(secret)
	} else {
		generated, err := randomSecret()
		if err != nil {
			return nil, fmt.Errorf("failed to generate JWT secret: %w", err)
		}
		cfg.JWTSecret = generated
		cfg.JWTSecretGenerated = true
	}

	cfg.Port = getEnvString("PORT", "8080")
	cfg.RunMigrations = getEnvBool("RUN_MIGRATIONS", true)
	cfg.TokenTTL = getEnvDuration("TOKEN_TTL", 24*time.Hour)

	cfg.RedisAddr = strings.TrimPrefix(strings.TrimPrefix(getEnvString("REDIS_ADDR", "localhost:6379"), "redis://"), "rediss://")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.RedisDB = getEnvInt("REDIS_DB", 0)

	cfg.MinioEndpoint = getEnvString("MINIO_ENDPOINT", "localhost:9000")
	cfg.MinioAccessKey = getEnvString("MINIO_ACCESS_KEY", "minioadmin")
	cfg.MinioSecretKey = getEnvString("MINIO_SECRET_KEY", "minioadmin")
	cfg.MinioUseSSL = getEnvBool("MINIO_USE_SSL", false)
	cfg.MinioBucket = getEnvString("MINIO_BUCKET", "employee-codes")
	cfg.MinioRegion = getEnvString("MINIO_REGION", "us-east-1")
	cfg.QRLinkTTL = getEnvDuration("QR_LINK_TTL", time.Hour)

	cfg.OwnerUsername = getEnvString("OWNER_USERNAME", "owner")
	cfg.OwnerPassword = getEnvString("OWNER_PASSWORD", "owner123")
	cfg.SeedDemo = getEnvBool("SEED_DEMO", false)

	cfg.LoginMaxAttempts = getEnvInt("LOGIN_MAX_ATTEMPTS", 10)
	cfg.LoginWindow = getEnvDuration("LOGIN_WINDOW", 15*time.Minute)
	cfg.RateLimitRPS = getEnvFloat("RATE_LIMIT_RPS", 20)
	cfg.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", 40)

	cfg.SummaryRefreshInterval = getEnvDuration("SUMMARY_REFRESH_INTERVAL", 5*time.Minute)
	cfg.StaleEntryAfter = getEnvDuration("STALE_ENTRY_AFTER", 16*time.Hour)

	cfg.ServiceName = getEnvString("OTEL_SERVICE_NAME", "timetracker")
	cfg.OTLPEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	cfg.OTLPInsecure = getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", false)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")

	return cfg, nil
}

func randomSecret() ([]byte, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return []byte(hex.EncodeToString(b)), nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
