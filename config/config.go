package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	Env      string
	Port     string
	LogLevel string

	MongoURI string
	DBName   string

	JWTKey     string
	TokenTTL   time.Duration
	BcryptCost int

	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration

	RateLimitCapacity       int
	RateLimitRefillInterval time.Duration

	// TrustProxy honours X-Forwarded-For for client addresses.
	TrustProxy bool

	UploadDir      string
	MaxUploadBytes int64

	CORSOrigins []string
}

// Load reads the process environment once at startup. A .env file in the
// working directory is merged in when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("APP_ENV", "development"),
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		MongoURI: os.Getenv("MONGOURI"),
		DBName:   getEnv("DB", "realestate"),

		JWTKey:     os.Getenv("JWT_KEY"),
		TokenTTL:   getEnvAsDuration("TOKEN_TTL", 30*24*time.Hour),
		BcryptCost: getEnvAsInt("BCRYPT_COST", 10),

		RedisAddr:     os.Getenv("REDIS_ADD"),
		RedisPassword: os.Getenv("REDIS_PASS"),
		CacheTTL:      getEnvAsDuration("CACHE_TTL", 10*time.Minute),

		RateLimitCapacity:       getEnvAsInt("RATE_LIMIT_CAPACITY", 20),
		RateLimitRefillInterval: getEnvAsDuration("RATE_LIMIT_REFILL_INTERVAL", 3*time.Second),
		TrustProxy:              getEnvAsBool("TRUST_PROXY", false),

		UploadDir:      getEnv("UPLOAD_DIR", "uploads"),
		MaxUploadBytes: int64(getEnvAsInt("MAX_UPLOAD_BYTES", 5<<20)),

		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),
	}

	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGOURI not set in environment")
	}
	if cfg.JWTKey == "" {
		return nil, fmt.Errorf("JWT_KEY not set in environment")
	}
	if cfg.RateLimitCapacity < 1 {
		cfg.RateLimitCapacity = 1
	}
	if cfg.RateLimitRefillInterval <= 0 {
		cfg.RateLimitRefillInterval = time.Second
	}
	return cfg, nil
}

// Fields returns the non-secret settings for the startup log line.
func (c *Config) Fields() []zap.Field {
	return []zap.Field{
		zap.String("environment", c.Env),
		zap.String("port", c.Port),
		zap.String("db", c.DBName),
		zap.Bool("redis", c.RedisAddr != ""),
		zap.Bool("trust_proxy", c.TrustProxy),
		zap.Duration("token_ttl", c.TokenTTL),
		zap.String("upload_dir", c.UploadDir),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
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
