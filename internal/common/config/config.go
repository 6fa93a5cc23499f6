// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App         AppConfig               `mapstructure:"app"`
	Server      ServerConfig            `mapstructure:"server"`
	Camunda     CamundaConfig           `mapstructure:"camunda"`
	Database    DatabaseConfig          `mapstructure:"database"`
	Interpreter InterpreterConfig       `mapstructure:"interpreter"`
	History     HistoryConfig           `mapstructure:"history"`
	Workers     map[string]WorkerConfig `mapstructure:"workers"`
	Logging     LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Store    StoreConfig    `mapstructure:"store"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// StoreConfig selects the relational store the interpreter reads from.
// Driver is "postgres" or "sqlite3"; an empty DSN is derived from the matching block.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// GetDSN returns a read-only sqlite DSN with foreign keys enabled.
func (s SQLiteConfig) GetDSN() string {
	return fmt.Sprintf("file:%s?mode=ro&_foreign_keys=on", s.Path)
}

// ResolvedDSN returns the explicit DSN or derives it from the driver's block.
func (d DatabaseConfig) ResolvedDSN() string {
	if d.Store.DSN != "" {
		return d.Store.DSN
	}
	switch d.Store.Driver {
	case "postgres":
		return d.Postgres.GetDSN()
	case "sqlite3":
		return d.SQLite.GetDSN()
	}
	return ""
}

// ReaderConfig returns the driver and resolved DSN the interpreter opens per question.
func (d DatabaseConfig) ReaderConfig() StoreConfig {
	return StoreConfig{Driver: d.Store.Driver, DSN: d.ResolvedDSN()}
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// InterpreterConfig holds the overridable row limits and the per-question query timeout.
type InterpreterConfig struct {
	TopCustomersLimit int `mapstructure:"top_customers_limit"`
	TopProductsLimit  int `mapstructure:"top_products_limit"`
	MaxLimit          int `mapstructure:"max_limit"`
	QueryTimeout      int `mapstructure:"query_timeout"` // milliseconds
}

// QueryTimeoutDuration returns QueryTimeout as a time.Duration.
func (i InterpreterConfig) QueryTimeoutDuration() time.Duration {
	return GetDuration(i.QueryTimeout)
}

// HistoryConfig controls the Redis-backed list of recently asked questions.
type HistoryConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Key        string `mapstructure:"key"`
	MaxEntries int    `mapstructure:"max_entries"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
