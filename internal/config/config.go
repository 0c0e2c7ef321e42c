package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for our application
type Config struct {
	Port                      string
	Origin                    string
	Environment               string
	AppName                   string
	LogLevel                  string
	JWTSecret                 string
	JWTRefreshSecret          string
	JWTExpirationMinutes      int
	JWTRefreshExpirationHours int
	Database                  DatabaseConfig
	Mailer                    MailerConfig
	Otp                       OtpConfig
	RateLimit                 RateLimitConfig
}

// DatabaseConfig holds database connection details
type DatabaseConfig struct {
	Host         string
	Port         string
	Username     string
	Password     string
	Name         string
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// MailerConfig holds email service configuration.
// Transport is "log" (development) or "sendgrid".
type MailerConfig struct {
	Transport      string
	DefaultFrom    string
	SendGridAPIKey string
}

// OtpConfig holds one-time code limits.
type OtpConfig struct {
	Length             int
	Expiry             time.Duration
	MaxRequestsPerHour int
	MaxAttempts        int
	PurgeSchedule      string
}

// RateLimitConfig throttles the public auth endpoints per client IP.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

var defaults = map[string]string{
	"PORT":                         "3001",
	"ORIGIN":                       "http://localhost:5173",
	"NODE_ENV":                     "development",
	"APP_NAME":                     "Healthcare Portal",
	"LOG_LEVEL":                    "info",
	"JWT_SECRET":                   "default_jwt_secret",
	"JWT_REFRESH_SECRET":           "default_refresh_secret",
	"JWT_EXPIRATION_MINUTES":       "15",
	"JWT_REFRESH_EXPIRATION_HOURS": "168", // 7 days
	"DB_HOST":                      "localhost",
	"DB_PORT":                      "3306",
	"DB_USERNAME":                  "root",
	"DB_PASSWORD":                  "",
	"DB_NAME":                      "healthcare_portal",
	"DB_MAX_OPEN_CONNS":            "25",
	"DB_MAX_IDLE_CONNS":            "5",
	"MAILER_TRANSPORT":             "log",
	"MAILER_DEFAULT_FROM":          "no-reply@healthcare-portal.local",
	"SENDGRID_API_KEY":             "",
	"OTP_LENGTH":                   "6",
	"OTP_EXPIRY_MINUTES":           "10",
	"OTP_MAX_REQUESTS_PER_HOUR":    "3",
	"OTP_MAX_ATTEMPTS":             "3",
	"OTP_PURGE_CRON":               "@hourly",
	"AUTH_RATE_LIMIT_RPS":          "5",
	"AUTH_RATE_LIMIT_BURST":        "10",
}

// LoadConfig loads configuration from environment variables.
// Callers load .env into the environment first (godotenv).
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	ints := map[string]*int{}
	cfg := &Config{
		Port:             v.GetString("PORT"),
		Origin:           v.GetString("ORIGIN"),
		Environment:      v.GetString("NODE_ENV"),
		AppName:          v.GetString("APP_NAME"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		JWTRefreshSecret: v.GetString("JWT_REFRESH_SECRET"),
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Username: v.GetString("DB_USERNAME"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
		},
		Mailer: MailerConfig{
			Transport:      strings.ToLower(v.GetString("MAILER_TRANSPORT")),
			DefaultFrom:    v.GetString("MAILER_DEFAULT_FROM"),
			SendGridAPIKey: v.GetString("SENDGRID_API_KEY"),
		},
		Otp: OtpConfig{
			PurgeSchedule: v.GetString("OTP_PURGE_CRON"),
		},
	}

	var otpExpiryMinutes int
	ints["JWT_EXPIRATION_MINUTES"] = &cfg.JWTExpirationMinutes
	ints["JWT_REFRESH_EXPIRATION_HOURS"] = &cfg.JWTRefreshExpirationHours
	ints["DB_MAX_OPEN_CONNS"] = &cfg.Database.MaxOpenConns
	ints["DB_MAX_IDLE_CONNS"] = &cfg.Database.MaxIdleConns
	ints["OTP_LENGTH"] = &cfg.Otp.Length
	ints["OTP_EXPIRY_MINUTES"] = &otpExpiryMinutes
	ints["OTP_MAX_REQUESTS_PER_HOUR"] = &cfg.Otp.MaxRequestsPerHour
	ints["OTP_MAX_ATTEMPTS"] = &cfg.Otp.MaxAttempts
	ints["AUTH_RATE_LIMIT_BURST"] = &cfg.RateLimit.Burst

	for key, dst := range ints {
		n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = n
	}
	cfg.Otp.Expiry = time.Duration(otpExpiryMinutes) * time.Minute

	rps, err := strconv.ParseFloat(strings.TrimSpace(v.GetString("AUTH_RATE_LIMIT_RPS")), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid AUTH_RATE_LIMIT_RPS: %w", err)
	}
	cfg.RateLimit.RPS = rps

	if cfg.Otp.Length < 4 || cfg.Otp.Length > 10 {
		return nil, fmt.Errorf("invalid OTP_LENGTH: %d (expected 4-10)", cfg.Otp.Length)
	}
	switch cfg.Mailer.Transport {
	case "log", "sendgrid":
	default:
		return nil, fmt.Errorf("invalid MAILER_TRANSPORT: %q", cfg.Mailer.Transport)
	}

	// Build DSN (Data Source Name) for MySQL connection
	cfg.Database.DSN = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.Database.Username, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)

	return cfg, nil
}

// IsProduction reports whether secure cookies and strict settings apply.
func (c *Config) IsProduction() bool {
	return c.Environment != "development" && c.Environment != "test"
}
