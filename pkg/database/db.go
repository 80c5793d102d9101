package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
)

// Config holds database configuration
type Config struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// ConnectionPool manages database connections
type ConnectionPool struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewConnectionPool creates a new database connection pool
func NewConnectionPool(ctx context.Context, config *Config, logger *slog.Logger) (*ConnectionPool, error) {
	if logger == nil {
		logger = slog.Default()
	}

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host,
		config.Port,
		config.User,
		config.Password,
		config.Database,
		config.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	} else {
		db.SetMaxOpenConns(25)
	}

	if config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(config.MaxIdleConns)
	} else {
		db.SetMaxIdleConns(5)
	}

	if config.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(config.ConnMaxLifetime)
	} else {
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	ctxTest, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctxTest); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connected successfully",
		slog.String("host", config.Host),
		slog.String("database", config.Database),
	)

	return &ConnectionPool{
		db:     db,
		logger: logger,
	}, nil
}

// GetDB returns the underlying sql.DB connection
func (cp *ConnectionPool) GetDB() *sql.DB {
	return cp.db
}

// Close closes the database connection
func (cp *ConnectionPool) Close() error {
	if cp.db != nil {
		return cp.db.Close()
	}
	return nil
}

// Health checks the database health
func (cp *ConnectionPool) Health(ctx context.Context) error {
	ctxTest, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return cp.db.PingContext(ctxTest)
}

// Migrate creates the users and applications tables if they do not exist.
// Schema changes here must stay backward compatible with existing rows.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	_, err := cp.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS users (
	id SERIAL PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS applications (
	id SERIAL PRIMARY KEY,
	user_id INTEGER NOT NULL REFERENCES users (id),
	company_name TEXT NOT NULL,
	job_title TEXT NOT NULL,
	status TEXT NOT NULL,
	date_applied TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_applications_user_id ON applications (user_id);
`)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	cp.logger.Info("database schema up to date")
	return nil
}

// DefaultConfig returns default database configuration for development
func DefaultConfig() *Config {
	return &Config{
		Host:            "localhost",
		Port:            5432,
		User:            "jobtrack",
		Password:        "dev",
		Database:        "jobtrack",
		SSLMode:         "disable",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}
