package api

import (
	"os"
	"time"

	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/internal/logger"
	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/pkg/auth"
)

// EnvTokenSecret is the name of the environment variable for the bearer
// token signing secret.
const EnvTokenSecret = "EPMON_API_TOKEN_SECRET"

// Config configures the REST API HTTP server.
//
// The API server provides health check endpoints, authentication endpoints,
// scan ingestion, and user management APIs.
type Config struct {
	// Port is the HTTP port for the API endpoints.
	// Default: 8080
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body. A zero or negative value means there is no timeout.
	// Default: 10s
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the response.
	// A zero or negative value means there is no timeout.
	// Default: 10s
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled. If zero, the value of ReadTimeout is used.
	// Default: 60s
	IdleTimeout time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`

	// Token configures bearer token issuance and validation.
	// The secret can also be set via the EPMON_API_TOKEN_SECRET environment
	// variable, which takes precedence over the config file.
	Token auth.TokenConfig `mapstructure:"token" yaml:"token"`
}

// applyDefaults fills in zero values with sensible defaults.
func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.Token.TTLMinutes == 0 {
		c.Token.TTLMinutes = 60
	}
}

// GetTokenSecret returns the token signing secret, preferring the
// environment variable. Returns empty string if neither env var nor config
// secret is set. Logs a warning if the environment variable overrides a
// config file value.
func (c *Config) GetTokenSecret() string {
	envSecret := os.Getenv(EnvTokenSecret)
	if envSecret != "" {
		if c.Token.Secret != "" && c.Token.Secret != envSecret {
			logger.Warn("token secret from environment variable overrides config file value",
				"env_var", EnvTokenSecret)
		}
		return envSecret
	}
	return c.Token.Secret
}

// HasTokenSecret returns whether a token signing secret is configured.
func (c *Config) HasTokenSecret() bool {
	return c.GetTokenSecret() != ""
}
