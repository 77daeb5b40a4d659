package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// StartupMode defines how the process handles a failed MongoDB bootstrap
type StartupMode string

const (
	// StartupModeStrict exits the process when the database is unreachable (default)
	StartupModeStrict StartupMode = "strict"
	// StartupModeGraceful keeps running with readiness reporting failed
	StartupModeGraceful StartupMode = "graceful"
)

// EnvPrefix is the prefix of every environment variable read by LoadConfig
const EnvPrefix = "STREAMINGAPP"

// Config holds all configuration for the streamingapp service
type Config struct {
	// StartupMode controls how a failed bootstrap is handled
	// "strict" (default): log and exit with status 1
	// "graceful": log and keep serving, readiness reports failed
	StartupMode StartupMode `mapstructure:"startup_mode" validate:"oneof=strict graceful"`

	MongoDB struct {
		// URI is the connection string. Empty means the built-in local default.
		// Also read from MONGO_URI.
		URI                    string        `mapstructure:"uri" validate:"omitempty,startswith=mongodb://|startswith=mongodb+srv://"`
		Database               string        `mapstructure:"database"` // overrides the database named in URI
		AppName                string        `mapstructure:"app_name"`
		ConnectTimeout         time.Duration `mapstructure:"connect_timeout"`
		ServerSelectionTimeout time.Duration `mapstructure:"server_selection_timeout"`
		MaxPoolSize            uint64        `mapstructure:"max_pool_size"`
	} `mapstructure:"mongodb"`

	Log struct {
		Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
		Format string `mapstructure:"format" validate:"oneof=console json"`
	} `mapstructure:"log"`

	// Server exposes health, readiness and metrics over HTTP
	Server struct {
		Enabled         bool          `mapstructure:"enabled"`
		Addr            string        `mapstructure:"addr"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	} `mapstructure:"server"`

	Secrets struct {
		Provider string `mapstructure:"provider" validate:"omitempty,oneof=env vault aws"`
		Vault    struct {
			Address string `mapstructure:"address"`
			Token   string `mapstructure:"token"`
			Path    string `mapstructure:"path"`
		} `mapstructure:"vault"`
		AWS struct {
			Region    string `mapstructure:"region"`
			AccessKey string `mapstructure:"access_key"`
			SecretKey string `mapstructure:"secret_key"`
			SecretID  string `mapstructure:"secret_id"`
			Endpoint  string `mapstructure:"endpoint"` // LocalStack and tests
		} `mapstructure:"aws"`
	} `mapstructure:"secrets"`
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("startup_mode", string(StartupModeStrict))

	// Empty URI falls back to the local default at connection time
	viper.SetDefault("mongodb.uri", "")
	viper.SetDefault("mongodb.database", "")
	viper.SetDefault("mongodb.app_name", "streamingapp")
	viper.SetDefault("mongodb.connect_timeout", 10*time.Second)
	viper.SetDefault("mongodb.server_selection_timeout", 5*time.Second)
	viper.SetDefault("mongodb.max_pool_size", 10)

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")

	viper.SetDefault("server.enabled", true)
	viper.SetDefault("server.addr", ":8081")
	viper.SetDefault("server.shutdown_timeout", 5*time.Second)

	viper.SetDefault("secrets.provider", "env")
	viper.SetDefault("secrets.vault.path", "secret/streamingapp")
	viper.SetDefault("secrets.aws.secret_id", "streamingapp/secrets")
}

// loadFromEnv sets up environment variable loading
func loadFromEnv() {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// MONGO_URI is the conventional variable deployments already set
	_ = viper.BindEnv("mongodb.uri", EnvPrefix+"_MONGODB_URI", "MONGO_URI")
	_ = viper.BindEnv("startup_mode", EnvPrefix+"_STARTUP_MODE")
	_ = viper.BindEnv("secrets.vault.token", EnvPrefix+"_SECRETS_VAULT_TOKEN", "VAULT_TOKEN")
}

// LoadConfig loads configuration from file and environment variables.
// configFile may be empty to search ./config.yaml and ./config/config.yaml.
func LoadConfig(configFile string) (*Config, error) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	setDefaults()
	loadFromEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file, defaults and env vars apply
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	config.MongoDB.URI = strings.TrimSpace(config.MongoDB.URI)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// IsGracefulMode returns true if the startup mode is graceful
func (c *Config) IsGracefulMode() bool {
	return c.StartupMode == StartupModeGraceful
}

// validateConfig validates the configuration for security and correctness
func validateConfig(config *Config) error {
	if err := validator.New().Struct(config); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("invalid %s: %q fails %q", fe.Namespace(), fmt.Sprint(fe.Value()), fe.Tag())
		}
		return err
	}

	if config.MongoDB.URI != "" && !hasHost(config.MongoDB.URI) {
		return fmt.Errorf("invalid MongoDB URI: missing host")
	}
	if config.MongoDB.ConnectTimeout <= 0 {
		return fmt.Errorf("mongodb.connect_timeout must be positive, got %v", config.MongoDB.ConnectTimeout)
	}
	if config.MongoDB.ServerSelectionTimeout < 0 {
		return fmt.Errorf("mongodb.server_selection_timeout cannot be negative, got %v", config.MongoDB.ServerSelectionTimeout)
	}
	if config.MongoDB.ServerSelectionTimeout > config.MongoDB.ConnectTimeout {
		return fmt.Errorf("mongodb.server_selection_timeout (%v) must not exceed mongodb.connect_timeout (%v)",
			config.MongoDB.ServerSelectionTimeout, config.MongoDB.ConnectTimeout)
	}

	if config.Server.Enabled && config.Server.Addr == "" {
		return fmt.Errorf("server.addr cannot be empty when the server is enabled")
	}

	switch config.Secrets.Provider {
	case "vault":
		if config.Secrets.Vault.Address == "" {
			return fmt.Errorf("secrets.vault.address is required for the vault provider")
		}
	case "aws":
		if config.Secrets.AWS.Region == "" {
			return fmt.Errorf("secrets.aws.region is required for the aws provider")
		}
	}

	return nil
}

// hasHost reports whether a mongodb connection string names at least one host
func hasHost(uri string) bool {
	_, rest, ok := strings.Cut(uri, "://")
	if !ok {
		return false
	}
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		rest = rest[at+1:]
	}
	if end := strings.IndexAny(rest, "/?"); end >= 0 {
		rest = rest[:end]
	}
	return strings.Trim(rest, ",") != ""
}

// Masked returns a copy with credentials removed, safe to log
func (c *Config) Masked() Config {
	masked := *c
	masked.MongoDB.URI = maskURI(c.MongoDB.URI)
	if masked.Secrets.Vault.Token != "" {
		masked.Secrets.Vault.Token = "********"
	}
	if masked.Secrets.AWS.SecretKey != "" {
		masked.Secrets.AWS.SecretKey = "********"
	}
	return masked
}

// maskURI hides the userinfo of a connection string entirely
func maskURI(uri string) string {
	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok {
		return uri
	}
	at := strings.LastIndex(rest, "@")
	if at < 0 {
		return uri
	}
	return scheme + "://********@" + rest[at+1:]
}
