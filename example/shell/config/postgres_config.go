package config

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
)

// PostgresConfig holds the connection settings for the events database,
// loaded from the environment with sensible local defaults.
type PostgresConfig struct {
	Host     string `env:"POSTGRES_HOST"     envDefault:"localhost"`
	Port     uint16 `env:"POSTGRES_PORT"     envDefault:"5432"`
	User     string `env:"POSTGRES_USER"     envDefault:"test"`
	Password string `env:"POSTGRES_PASSWORD" envDefault:"test"`
	Database string `env:"POSTGRES_DATABASE" envDefault:"eventstore"`
	SSLMode  string `env:"POSTGRES_SSLMODE"  envDefault:"disable"`

	MaxConnections  int32         `env:"POSTGRES_MAX_CONNECTIONS"    envDefault:"8"`
	MinConnections  int32         `env:"POSTGRES_MIN_CONNECTIONS"    envDefault:"2"`
	MaxConnLifetime time.Duration `env:"POSTGRES_MAX_CONN_LIFETIME"  envDefault:"1h"`
	MaxConnIdleTime time.Duration `env:"POSTGRES_MAX_CONN_IDLE_TIME" envDefault:"5m"`
	ConnectTimeout  time.Duration `env:"POSTGRES_CONNECT_TIMEOUT"    envDefault:"5s"`
}

// LoadPostgresConfig reads the configuration from the environment.
func LoadPostgresConfig() (PostgresConfig, error) {
	var cfg PostgresConfig
	if err := env.Parse(&cfg); err != nil {
		return PostgresConfig{}, fmt.Errorf("parse env: %w", err)
	}

	return cfg, nil
}

// DSN returns the connection string for this configuration.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

// PGXPoolConfig creates a pgxpool.Config with this configuration's pool
// settings applied.
func (c PostgresConfig) PGXPoolConfig() (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(c.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse pgx pool config: %w", err)
	}

	poolConfig.MaxConns = c.MaxConnections
	poolConfig.MinConns = c.MinConnections
	poolConfig.MaxConnLifetime = c.MaxConnLifetime
	poolConfig.MaxConnIdleTime = c.MaxConnIdleTime
	poolConfig.ConnConfig.ConnectTimeout = c.ConnectTimeout

	return poolConfig, nil
}

// OpenPGXPool opens a configured pgx connection pool and verifies the
// connection.
func (c PostgresConfig) OpenPGXPool(ctx context.Context) (*pgxpool.Pool, error) {
	poolConfig, err := c.PGXPoolConfig()
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	if pingErr := pool.Ping(ctx); pingErr != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", pingErr)
	}

	return pool, nil
}

// OpenSQLDB opens a configured *sql.DB and verifies the connection.
func (c PostgresConfig) OpenSQLDB(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("postgres", c.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database connection: %w", err)
	}

	c.applyPoolSettings(db)

	if pingErr := db.PingContext(ctx); pingErr != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", pingErr)
	}

	return db, nil
}

// OpenSQLX opens a configured *sqlx.DB and verifies the connection.
func (c PostgresConfig) OpenSQLX(ctx context.Context) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", c.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database connection: %w", err)
	}

	c.applyPoolSettings(db.DB)

	if pingErr := db.PingContext(ctx); pingErr != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", pingErr)
	}

	return db, nil
}

func (c PostgresConfig) applyPoolSettings(db *sql.DB) {
	db.SetMaxOpenConns(int(c.MaxConnections))
	db.SetMaxIdleConns(int(c.MinConnections))
	db.SetConnMaxLifetime(c.MaxConnLifetime)
	db.SetConnMaxIdleTime(c.MaxConnIdleTime)
}
