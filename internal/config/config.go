package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Port                             string  `mapstructure:"PORT"`
	GinMode                          string  `mapstructure:"GIN_MODE"`
	FirebaseProjectID                string  `mapstructure:"FIREBASE_PROJECT_ID"`
	GoogleApplicationCredentials     string  `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string  `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`
	ClientURL                        string  `mapstructure:"CLIENT_URL"`
	TokenSigningKey                  string  `mapstructure:"TOKEN_SIGNING_KEY"`
	BillingWebhookSecret             string  `mapstructure:"BILLING_WEBHOOK_SECRET"`
	SMTPHost                         string  `mapstructure:"SMTP_HOST"`
	SMTPPort                         string  `mapstructure:"SMTP_PORT"`
	SMTPUser                         string  `mapstructure:"SMTP_USER"`
	SMTPPass                         string  `mapstructure:"SMTP_PASS"`
	MailFrom                         string  `mapstructure:"MAIL_FROM"`
	CreditsRateLimit                 float64 `mapstructure:"CREDITS_RATE_LIMIT"`
	CreditsRateBurst                 int     `mapstructure:"CREDITS_RATE_BURST"`
}

// LoadConfig loads configuration from environment variables using Viper.
func LoadConfig() (*Config, error) {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("GIN_MODE", "debug")
	// Default rate limit for the public credits endpoint: 5 req/s with a
	// burst of 10 per client IP.
	viper.SetDefault("CREDITS_RATE_LIMIT", 5.0)
	viper.SetDefault("CREDITS_RATE_BURST", 10)
	viper.SetDefault("SMTP_PORT", "2525")

	viper.BindEnv("PORT")
	viper.BindEnv("GIN_MODE")
	viper.BindEnv("FIREBASE_PROJECT_ID")
	viper.BindEnv("GOOGLE_APPLICATION_CREDENTIALS")
	viper.BindEnv("FIREBASE_SERVICE_ACCOUNT_JSON_BASE64")
	viper.BindEnv("CLIENT_URL")
	viper.BindEnv("TOKEN_SIGNING_KEY")
	viper.BindEnv("BILLING_WEBHOOK_SECRET")
	viper.BindEnv("SMTP_HOST")
	viper.BindEnv("SMTP_PORT")
	viper.BindEnv("SMTP_USER")
	viper.BindEnv("SMTP_PASS")
	viper.BindEnv("MAIL_FROM")
	viper.BindEnv("CREDITS_RATE_LIMIT")
	viper.BindEnv("CREDITS_RATE_BURST")

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.New("failed to unmarshal config: " + err.Error())
	}

	// FIREBASE_PROJECT_ID is the only hard requirement. Credentials may come
	// from a file path, inline base64 JSON, or Application Default
	// Credentials in GCP environments.
	if cfg.FirebaseProjectID == "" {
		return nil, errors.New("FIREBASE_PROJECT_ID is required")
	}
	if cfg.ClientURL == "" {
		return nil, errors.New("CLIENT_URL is required")
	}
	if cfg.CreditsRateLimit <= 0 {
		return nil, errors.New("CREDITS_RATE_LIMIT must be positive")
	}
	if cfg.CreditsRateBurst <= 0 {
		return nil, errors.New("CREDITS_RATE_BURST must be positive")
	}

	return &cfg, nil
}

// MailEnabled reports whether enough SMTP settings are present to send
// notification email. When false the mailer is skipped entirely.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.SMTPUser != "" && c.SMTPPass != "" && c.MailFrom != ""
}
