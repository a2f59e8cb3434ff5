package pgvector

import (
	"fmt"
	"time"
)

// Config holds connection settings for a PostgreSQL server with the
// pgvector extension available.
//
// It can be filled from YAML, from environment variables through envconfig,
// or programmatically starting from DefaultConfig.
//
// The connection fields use the libpq variable names, so envconfig also
// picks up a plain PGHOST or PGPASSWORD when the prefixed key is unset.
type Config struct {
	Host     string `yaml:"host" envconfig:"PGHOST"`
	Port     string `yaml:"port" envconfig:"PGPORT"`
	User     string `yaml:"user" envconfig:"PGUSER"`
	Password string `yaml:"password" envconfig:"PGPASSWORD"`
	DbName   string `yaml:"db_name" envconfig:"PGDATABASE"`
	SSLMode  string `yaml:"ssl_mode" envconfig:"PGSSLMODE"`

	// Connection pool settings. Zero values fall back to package defaults.
	MaxOpenConns    int           `yaml:"max_open_conns" envconfig:"MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" envconfig:"MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" envconfig:"CONN_MAX_LIFETIME"`

	// Maximum duration of a single statement. Zero means no deadline.
	Timeout time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
}

// DefaultConfig returns settings for a local development database.
func DefaultConfig() *Config {
	return &Config{
		Host:    "localhost",
		Port:    "5432",
		User:    "postgres",
		DbName:  "postgres",
		SSLMode: "disable",
		Timeout: 10 * time.Second,
	}
}

// DSN renders the keyword/value connection string understood by pgx.
func (c *Config) DSN() string {
	port := c.Port
	if port == "" {
		port = "5432"
	}
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, port, c.User, c.Password, c.DbName, sslMode)
}
