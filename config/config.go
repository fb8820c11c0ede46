package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds every recognized option. It is parsed once at startup and
// passed by value into the components that need it; there is no ambient
// global.
type Config struct {
	Env  string `env:"ENV" envDefault:"development"`
	Port string `env:"PORT" envDefault:"8080"`

	DBURL string `env:"DB_URL,required,notEmpty"`

	// BaseURL is used to build the confirmation and reset links mailed to
	// users.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	JWTIssuer   string `env:"JWT_ISSUER" envDefault:"mystorage"`
	JWTAudience string `env:"JWT_AUDIENCE" envDefault:"mystorage-api"`
	JWTSecret   string `env:"JWT_SECRET,required,notEmpty"`

	AccessExpiryMinutes     int `env:"ACCESS_TOKEN_EXPIRY_MINUTES" envDefault:"15"`
	RefreshExpiryDays       int `env:"REFRESH_TOKEN_EXPIRY_DAYS" envDefault:"7"`
	ConfirmTokenExpiryHours int `env:"CONFIRMATION_TOKEN_EXPIRY_HOURS" envDefault:"24"`
	ResetTokenExpiryMinutes int `env:"RESET_TOKEN_EXPIRY_MINUTES" envDefault:"60"`
	MaxRefreshTokensPerUser int `env:"MAX_REFRESH_TOKENS_PER_USER" envDefault:"5"`

	MailjetAPIKey    string `env:"MAILJET_API_KEY"`
	MailjetSecretKey string `env:"MAILJET_SECRET_KEY"`
	SenderEmail      string `env:"SENDER_EMAIL" envDefault:"no-reply@mystorage.app"`
	SenderName       string `env:"SENDER_NAME" envDefault:"MyStorage"`
}

// Load parses configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	return cfg, nil
}
