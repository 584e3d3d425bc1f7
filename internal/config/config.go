package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	AppMode  string
	Port     string
	Database DatabaseConfig
	JWT      JWTConfig
	SMTP     SMTPConfig
	Redis    RedisConfig
	Otp      OtpConfig
	Cookie   CookieConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	RefreshSecret    string
	AccessTokenMins  int
	RefreshTokenDays int
}

// SMTPConfig holds the OTP mail delivery configuration
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
}

// RedisConfig holds the optional OTP rate limiter backend.
// Leave Addr empty to disable distributed rate limiting.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// OtpConfig holds OTP issuance parameters
type OtpConfig struct {
	ValiditySeconds int // code validity window
	InitiatePerHour int // max initiations per user per hour
}

// CookieConfig holds auth cookie configuration
type CookieConfig struct {
	Domain   string
	Secure   bool
	SameSite string
}

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// Get APP_MODE (default to "dev") - trim spaces for Windows compatibility
	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	config := &Config{
		AppMode:  appMode,
		Port:     getEnv("PORT", "3000"),
		Database: loadDatabaseConfig(appMode),
		JWT:      loadJWTConfig(appMode),
		SMTP:     loadSMTPConfig(),
		Redis:    loadRedisConfig(),
		Otp:      loadOtpConfig(),
		Cookie:   loadCookieConfig(appMode),
	}

	// Set global config
	AppConfig = config

	log.Printf("✅ Configuration loaded successfully [MODE: %s]", appMode)
	return config, nil
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	return DatabaseConfig{
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", "3306"),
		User:     getEnv(prefix+"DB_USER", "root"),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", "nexbank"),
	}
}

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	accessMins, _ := strconv.Atoi(getEnv("ACCESS_TOKEN_MINUTES", "15"))
	refreshDays, _ := strconv.Atoi(getEnv("REFRESH_TOKEN_DAYS", "7"))

	return JWTConfig{
		Secret:           getEnv(prefix+"JWT_SECRET", "default_secret"),
		RefreshSecret:    getEnv(prefix+"JWT_REFRESH_SECRET", "default_refresh_secret"),
		AccessTokenMins:  accessMins,
		RefreshTokenDays: refreshDays,
	}
}

// loadSMTPConfig loads OTP mail delivery config
func loadSMTPConfig() SMTPConfig {
	return SMTPConfig{
		Host:     getEnv("SMTP_HOST", ""),
		Port:     getEnv("SMTP_PORT", "465"),
		Username: getEnv("SMTP_USERNAME", ""),
		Password: getEnv("SMTP_PASSWORD", ""),
	}
}

// loadRedisConfig loads the optional rate limiter backend config
func loadRedisConfig() RedisConfig {
	db, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	return RedisConfig{
		Addr:     getEnv("REDIS_ADDR", ""),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       db,
	}
}

// loadOtpConfig loads OTP issuance parameters
func loadOtpConfig() OtpConfig {
	validity, _ := strconv.Atoi(getEnv("OTP_VALIDITY_SECONDS", "180"))
	perHour, _ := strconv.Atoi(getEnv("OTP_INITIATE_PER_HOUR", "10"))
	return OtpConfig{
		ValiditySeconds: validity,
		InitiatePerHour: perHour,
	}
}

// loadCookieConfig loads auth cookie config based on mode
func loadCookieConfig(mode string) CookieConfig {
	secure := mode == "prod"
	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		secure = v == "true"
	}
	return CookieConfig{
		Domain:   getEnv("COOKIE_DOMAIN", ""),
		Secure:   secure,
		SameSite: getEnv("COOKIE_SAMESITE", "Lax"),
	}
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		// Default production origins
		return "https://app.nexbank.dev"
	}
	return origins
}
