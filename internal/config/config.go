// Package config manages environment variables.
//
// It reads variables from the `.env` file and the process environment,
// loads them into structured Go types, and validates that required values
// are present so they can be reused across the application runtime.
//
// Responsibilities:
//   - Load environment variables (optionally from a `.env` file).
//   - Map env vars into a structured Go config (structs).
//   - Validate required values so the app fails fast on bad/missing config.
//   - Provide sane defaults for optional blocks (observability, generator timeout).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	// Side-effect import: if a `.env` file exists it is loaded into the
	// process env before anything below reads it.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

/*
	Env vars are read with the ATTESTATION_ prefix. The prefix is removed,
	the rest is lowercased, and "." separates nested blocks:

		ATTESTATION_SERVER.PORT            -> server.port -> Config.Server.Port
		ATTESTATION_ATTESTATION.STORAGE_ROOT -> attestation.storage_root
*/

// EnvPrefix is the prefix every configuration variable carries.
const EnvPrefix = "ATTESTATION_"

// ServiceName identifies this service in logs, traces and APM dashboards.
const ServiceName = "attestation-plugin"

// DefaultGeneratorTimeout bounds a single generator invocation when
// attestation.generator_timeout is not set.
const DefaultGeneratorTimeout = 30 * time.Second

// Config is the root configuration object for the application.
//
// Observability is a pointer because it is optional. If not provided,
// defaults are injected in LoadConfig.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Redis         RedisConfig          `koanf:"redis" validate:"required"`
	Auth          AuthConfig           `koanf:"auth" validate:"required"`
	Integration   IntegrationConfig    `koanf:"integration" validate:"required"`
	Attestation   AttestationConfig    `koanf:"attestation" validate:"required"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig groups settings for the HTTP server runtime.
// Timeouts are expressed in seconds.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required"`
}

// DatabaseConfig contains PostgreSQL connection parameters and pool tuning.
type DatabaseConfig struct {
	Host            string `koanf:"host" validate:"required"`
	Port            int    `koanf:"port" validate:"required"`
	User            string `koanf:"user" validate:"required"`
	Password        string `koanf:"password" validate:"required"`
	Name            string `koanf:"name" validate:"required"`
	SSLMode         string `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int    `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int    `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime int    `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime int    `koanf:"conn_max_idle_time" validate:"required"`
}

// RedisConfig contains Redis connection details.
// Address is "host:port".
type RedisConfig struct {
	Address string `koanf:"address" validate:"required"`
}

// AuthConfig stores authentication-related secrets (Clerk secret key).
type AuthConfig struct {
	SecretKey string `koanf:"secret_key" validate:"required"`
}

// IntegrationConfig holds credentials for third-party integrations.
type IntegrationConfig struct {
	// ResendAPIKey authenticates outgoing email against the Resend API.
	ResendAPIKey string `koanf:"resend_api_key" validate:"required"`

	// EmailFrom is the sender identity, e.g. "Tickets <tickets@example.org>".
	EmailFrom string `koanf:"email_from" validate:"required"`
}

// AttestationConfig controls the external link generator and key-file storage.
type AttestationConfig struct {
	// GeneratorCommand is the command line used to invoke the generator,
	// without the per-position arguments. It is split with shell quoting
	// rules, e.g. `java -cp /opt/attestation/attestation-all.jar org.devcon.ticket.Issuer`.
	GeneratorCommand string `koanf:"generator_command" validate:"required"`

	// GeneratorTimeout bounds a single invocation. Zero means DefaultGeneratorTimeout.
	GeneratorTimeout time.Duration `koanf:"generator_timeout"`

	// StorageRoot is the directory uploaded key files are written under.
	StorageRoot string `koanf:"storage_root" validate:"required"`
}

// listKeys are comma-separated in the environment, e.g.
// ATTESTATION_SERVER.CORS_ALLOWED_ORIGINS=https://a.example,https://b.example
var listKeys = map[string]bool{
	"server.cors_allowed_origins": true,
}

// envKeyValue maps an env var to its koanf key and splits list values.
func envKeyValue(key, value string) (string, interface{}) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	if listKeys[key] {
		return key, splitList(value)
	}
	return key, value
}

// splitList returns nil for a blank value so that `required` rejects it.
func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// LoadConfig loads configuration from environment variables, unmarshals it
// into Config, validates it, applies defaults, and returns the result.
//
// Behavior summary:
//   - Loads env vars with prefix ATTESTATION_
//   - Unmarshals into Config and validates struct tags
//   - Sets default observability if missing, forces service name + environment
//   - Validates observability config with its own rules
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envKeyValue), nil)
	if err != nil {
		return nil, fmt.Errorf("could not load initial env variables: %w", err)
	}

	mainConfig := &Config{}
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal main config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if mainConfig.Attestation.GeneratorTimeout <= 0 {
		mainConfig.Attestation.GeneratorTimeout = DefaultGeneratorTimeout
	}

	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	}

	// Service name and environment always follow the primary block so that
	// logs and traces line up regardless of what was configured.
	mainConfig.Observability.ServiceName = ServiceName
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return mainConfig, nil
}

// IsLocal reports whether the process runs in the "local" environment,
// where SQL tracing is switched on.
func (c *Config) IsLocal() bool {
	return c.Primary.Env == "local"
}
