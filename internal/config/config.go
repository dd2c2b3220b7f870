// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Stock lot policies. See StockConfig.LotPolicy.
const (
	LotPolicyMerge        = "merge"
	LotPolicySeparateLots = "separate_lots"
)

type Config struct {
	Environment    string
	Server         ServerConfig
	Database       DatabaseConfig
	JWT            JWTConfig
	Log            LogConfig
	CORS           CORSConfig
	AWS            AWSConfig
	OpenFoodFacts  OpenFoodFactsConfig
	PriceEstimator PriceEstimatorConfig
	Stock          StockConfig
	I18n           I18nConfig
	RateLimit      RateLimitConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type DatabaseConfig struct {
	URL          string
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

type JWTConfig struct {
	SecretKey       string
	AccessTokenTTL  int // in hours
	RefreshTokenTTL int // in hours
}

type LogConfig struct {
	Level  string
	Format string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// AWSConfig drives product image mirroring. An empty access key keeps images
// pointing at their source URL.
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	CloudFrontURL   string
}

type OpenFoodFactsConfig struct {
	BaseURL       string
	UserAgent     string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
}

type PriceEstimatorConfig struct {
	URL           string
	Timeout       time.Duration
	FallbackPrice string
}

type StockConfig struct {
	// LotPolicy decides what AddStock does when the caller already holds the
	// product: "merge" always folds into the existing entry, "separate_lots"
	// opens a new entry when the expiration date differs.
	LotPolicy        string
	ExpiringSoonDays int
}

type I18nConfig struct {
	DefaultLocale string
}

// RateLimitRule allows one request per Interval per client IP, with Burst
// requests of headroom.
type RateLimitRule struct {
	Interval time.Duration
	Burst    int
}

// RateLimitConfig holds the per-IP limits. A client unseen for VisitorTTL
// loses its bucket.
type RateLimitConfig struct {
	General    RateLimitRule
	Auth       RateLimitRule
	Scan       RateLimitRule
	VisitorTTL time.Duration
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 60),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			URL:          getEnv("DATABASE_URL", ""),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "ustock"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "warn"),
		},
		JWT: JWTConfig{
			SecretKey:       getEnv("JWT_SECRET", defaultJWTSecret),
			AccessTokenTTL:  getEnvAsInt("JWT_ACCESS_TTL", 1),
			RefreshTokenTTL: getEnvAsInt("JWT_REFRESH_TTL", 168),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", ""),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "eu-west-3"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        getEnv("AWS_S3_BUCKET", "ustock-product-images"),
			CloudFrontURL:   getEnv("AWS_CLOUDFRONT_URL", ""),
		},
		OpenFoodFacts: OpenFoodFactsConfig{
			BaseURL:       getEnv("OFF_BASE_URL", "https://world.openfoodfacts.org"),
			UserAgent:     getEnv("OFF_USER_AGENT", "UStock/1.0 (contact@ustock.pro)"),
			Timeout:       getEnvAsDuration("OFF_TIMEOUT", 10*time.Second),
			RatePerSecond: getEnvAsFloat("OFF_RATE_PER_SECOND", 1.5),
			Burst:         getEnvAsInt("OFF_RATE_BURST", 5),
		},
		PriceEstimator: PriceEstimatorConfig{
			URL:           getEnv("PRICE_ESTIMATOR_URL", "http://localhost:5050/api/estimate_price"),
			Timeout:       getEnvAsDuration("PRICE_ESTIMATOR_TIMEOUT", 45*time.Second),
			FallbackPrice: getEnv("PRICE_ESTIMATOR_FALLBACK", "3.00"),
		},
		Stock: StockConfig{
			LotPolicy:        getEnv("STOCK_LOT_POLICY", LotPolicyMerge),
			ExpiringSoonDays: getEnvAsInt("STOCK_EXPIRING_SOON_DAYS", 3),
		},
		I18n: I18nConfig{
			DefaultLocale: getEnv("DEFAULT_LOCALE", "en"),
		},
		RateLimit: RateLimitConfig{
			General: RateLimitRule{
				Interval: getEnvAsDuration("RATE_LIMIT_GENERAL_INTERVAL", 100*time.Millisecond),
				Burst:    getEnvAsInt("RATE_LIMIT_GENERAL_BURST", 20),
			},
			Auth: RateLimitRule{
				Interval: getEnvAsDuration("RATE_LIMIT_AUTH_INTERVAL", 12*time.Second),
				Burst:    getEnvAsInt("RATE_LIMIT_AUTH_BURST", 5),
			},
			Scan: RateLimitRule{
				Interval: getEnvAsDuration("RATE_LIMIT_SCAN_INTERVAL", time.Second),
				Burst:    getEnvAsInt("RATE_LIMIT_SCAN_BURST", 10),
			},
			VisitorTTL: getEnvAsDuration("RATE_LIMIT_VISITOR_TTL", 3*time.Minute),
		},
	}

	if config.Log.Format == "" {
		config.Log.Format = "text"
		if config.Environment == "production" {
			config.Log.Format = "json"
		}
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == defaultJWTSecret && c.Environment == "production" {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if c.Database.URL == "" && c.Database.Password == "" && c.Environment == "production" {
		return fmt.Errorf("database password is required in production")
	}

	switch c.Stock.LotPolicy {
	case LotPolicyMerge, LotPolicySeparateLots:
	default:
		return fmt.Errorf("unknown stock lot policy %q", c.Stock.LotPolicy)
	}

	if c.Stock.ExpiringSoonDays < 0 {
		return fmt.Errorf("STOCK_EXPIRING_SOON_DAYS must not be negative")
	}

	if c.RateLimit.VisitorTTL < 0 {
		return fmt.Errorf("RATE_LIMIT_VISITOR_TTL must not be negative")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		// bare numbers are seconds
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// IsDevelopment reports whether the service runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return getEnvAsBool("FORCE_DEVELOPMENT", false) || c.Environment == "development"
}
