package config

import "time"

// Store driver names accepted in store.driver.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverDynamoDB = "dynamodb"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Store    StoreConfig    `mapstructure:"store" validate:"required"`
	Database DatabaseConfig `mapstructure:"database"`
	DynamoDB DynamoDBConfig `mapstructure:"dynamodb"`
	Scoring  ScoringConfig  `mapstructure:"scoring" validate:"required"`
	Review   ReviewConfig   `mapstructure:"review" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port               int      `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel           string   `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins" validate:"min=1,dive,required"`
}

// StoreConfig selects the persistence backend for learning items.
type StoreConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=postgres sqlite dynamodb"`
}

// DatabaseConfig contains the SQL connection settings used by the postgres
// and sqlite drivers. For sqlite the URL is a go-sqlite3 DSN such as
// "file:vocab.db?_foreign_keys=on".
type DatabaseConfig struct {
	URL          string `mapstructure:"url"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=0"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"gte=0"`
}

// DynamoDBConfig contains the table settings used by the dynamodb driver.
// IndexName is the (user_id, due_key) index used for due selection and
// CreatedIndexName the (user_id, created_key) index used for listing.
// Endpoint is only set when talking to DynamoDB Local.
type DynamoDBConfig struct {
	TableName        string `mapstructure:"table_name"`
	IndexName        string `mapstructure:"index_name"`
	CreatedIndexName string `mapstructure:"created_index_name"`
	Region           string `mapstructure:"region"`
	Endpoint         string `mapstructure:"endpoint" validate:"omitempty,url"`
}

// ScoringConfig points at the external scoring service.
type ScoringConfig struct {
	BaseURL        string        `mapstructure:"base_url" validate:"required,url"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" validate:"gt=0"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
}

// ReviewConfig holds review session settings.
type ReviewConfig struct {
	SessionLimit int `mapstructure:"session_limit" validate:"gte=1,lte=200"`
}
