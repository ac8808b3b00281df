package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	LogLevel            string
	DatabaseURL         string
	RedisURL            string
	SendinblueAPIKey    string // SENDINBLUE_API_KEY for transfer notification emails (Brevo)
	MailFrom            string // MAIL_FROM sender email (default noreply@orgchart.app)
	AppBaseURL          string // Base URL used for links inside emails
	CORSAllowedSuffix   string // CORS_ALLOWED_SUFFIX, e.g. ".orgchart.app"
	TransferExpiryHours int
	SweepLockTTLSeconds int
	SweepConcurrency    int
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("TRANSFER_EXPIRY_HOURS", 7*24)
	viper.SetDefault("SWEEP_LOCK_TTL_SECONDS", 300)
	viper.SetDefault("SWEEP_CONCURRENCY", 4)
	viper.SetDefault("CORS_ALLOWED_SUFFIX", ".orgchart.app")

	env := viper.GetString("NODE_ENV")
	if env == "" {
		env = viper.GetString("APP_ENV")
	}
	if env == "" {
		env = "development"
	}

	dbURL := viper.GetString("DATABASE_URL_DEV")
	if env == "production" {
		dbURL = viper.GetString("DATABASE_URL_PROD")
	} else if env == "test" {
		dbURL = viper.GetString("DATABASE_URL_TEST")
	}
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL_DEV")
	}

	return &Config{
		Env:                 env,
		Port:                viper.GetString("PORT"),
		LogLevel:            viper.GetString("LOG_LEVEL"),
		DatabaseURL:         dbURL,
		RedisURL:            viper.GetString("REDIS_URL"),
		SendinblueAPIKey:    viper.GetString("SENDINBLUE_API_KEY"),
		MailFrom:            viper.GetString("MAIL_FROM"),
		AppBaseURL:          appBaseURL(viper.GetString("APP_BASE_URL")),
		CORSAllowedSuffix:   viper.GetString("CORS_ALLOWED_SUFFIX"),
		TransferExpiryHours: positive(viper.GetInt("TRANSFER_EXPIRY_HOURS"), 7*24),
		SweepLockTTLSeconds: positive(viper.GetInt("SWEEP_LOCK_TTL_SECONDS"), 300),
		SweepConcurrency:    positive(viper.GetInt("SWEEP_CONCURRENCY"), 4),
	}, nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// TransferExpiry is how long a pending ownership transfer stays answerable.
func (c *Config) TransferExpiry() time.Duration {
	return time.Duration(c.TransferExpiryHours) * time.Hour
}

func (c *Config) SweepLockTTL() time.Duration {
	return time.Duration(c.SweepLockTTLSeconds) * time.Second
}

func appBaseURL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "https://orgchart.app"
	}
	return strings.TrimSuffix(s, "/")
}

func positive(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}
