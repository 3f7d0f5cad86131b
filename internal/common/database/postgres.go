package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"credit-risk-console/internal/common/config"

	_ "github.com/lib/pq"
)

const (
	defaultMaxConnections = 5
	defaultMaxIdle        = 2
)

// PostgresClient holds the pool behind the postgres storage backend.
type PostgresClient struct {
	DB     *sql.DB
	target string
}

// NewPostgres opens a pool; it does not dial until Ping or the first query.
// Zero pool sizes fall back to small defaults.
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	if cfg.Host == "" || cfg.Database == "" {
		return nil, fmt.Errorf("postgres host and database are required")
	}

	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	maxOpen, maxIdle := cfg.MaxConnections, cfg.MaxIdle
	if maxOpen <= 0 {
		maxOpen = defaultMaxConnections
	}
	if maxIdle <= 0 || maxIdle > maxOpen {
		maxIdle = min(defaultMaxIdle, maxOpen)
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return newPostgresWith(db, fmt.Sprintf("%s:%d/%s", cfg.Host, cfg.Port, cfg.Database)), nil
}

func newPostgresWith(db *sql.DB, target string) *PostgresClient {
	return &PostgresClient{DB: db, target: target}
}

func (c *PostgresClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := c.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres ping %s failed: %w", c.target, err)
	}
	return nil
}

// Target is host:port/database, for logs.
func (c *PostgresClient) Target() string {
	return c.target
}

func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
