package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// AuthConfiguration carries the credentials and token validation settings a
// host uses to authenticate channel traffic.
type AuthConfiguration struct {
	ClientID     string   `env:"CLIENT_ID"`
	TenantID     string   `env:"TENANT_ID"`
	ClientSecret string   `env:"CLIENT_SECRET"`
	Audience     string   `env:"TOKEN_AUDIENCE"`
	Issuers      []string `env:"TOKEN_ISSUERS" envSeparator:","`
	Environment  string   `env:"APP_ENV" envDefault:"development"`
}

// Production reports whether the configuration targets a production
// environment.
func (c *AuthConfiguration) Production() bool {
	return c.Environment == "production"
}

// Validate checks settings that are mandatory outside local development.
func (c *AuthConfiguration) Validate() error {
	if c.Production() && c.ClientID == "" {
		return fmt.Errorf("config: CLIENT_ID is required in production")
	}
	return nil
}

// LoadAuthFromEnv reads AuthConfiguration from the environment and validates
// it. When no issuers are configured and a tenant is known, the tenant's
// standard issuers are filled in.
func LoadAuthFromEnv() (*AuthConfiguration, error) {
	var cfg AuthConfiguration
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if len(cfg.Issuers) == 0 && cfg.TenantID != "" {
		cfg.Issuers = []string{
			"https://api.botframework.com",
			fmt.Sprintf("https://sts.windows.net/%s/", cfg.TenantID),
			fmt.Sprintf("https://login.microsoftonline.com/%s/v2.0", cfg.TenantID),
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
