package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load,
// e.g. VOCAB_SERVER_PORT for server.port.
const EnvPrefix = "VOCAB"

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return load(".")
}

func load(configPaths ...string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range configPaths {
		v.AddConfigPath(p)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.cors_allowed_origins", []string{"*"})

	v.SetDefault("store.driver", DriverPostgres)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 25)

	v.SetDefault("dynamodb.table_name", "")
	v.SetDefault("dynamodb.index_name", "user-due-index")
	v.SetDefault("dynamodb.created_index_name", "user-created-index")
	v.SetDefault("dynamodb.region", "us-east-1")
	v.SetDefault("dynamodb.endpoint", "")

	v.SetDefault("scoring.base_url", "http://localhost:6000")
	v.SetDefault("scoring.connect_timeout", 5*time.Second)
	v.SetDefault("scoring.read_timeout", 5*time.Second)

	v.SetDefault("review.session_limit", 20)
}

// Validate checks field constraints and the settings required by the selected store driver.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	switch c.Store.Driver {
	case DriverPostgres, DriverSQLite:
		if c.Database.URL == "" {
			return fmt.Errorf("config validation failed: database.url is required for the %s driver", c.Store.Driver)
		}
	case DriverDynamoDB:
		if c.DynamoDB.TableName == "" || c.DynamoDB.IndexName == "" || c.DynamoDB.CreatedIndexName == "" {
			return fmt.Errorf("config validation failed: dynamodb table and index names are required for the dynamodb driver")
		}
	}
	return nil
}
