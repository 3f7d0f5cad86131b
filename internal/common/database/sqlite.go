package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"credit-risk-console/internal/common/config"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteClient holds the local database file behind the default backend.
type SQLiteClient struct {
	DB   *sql.DB
	path string
}

// NewSQLite opens path, creating its directory first.
func NewSQLite(cfg config.SQLiteConfig) (*SQLiteClient, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	// one writer; concurrent CLI runs wait on the busy timeout
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return &SQLiteClient{DB: db, path: cfg.Path}, nil
}

func (c *SQLiteClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := c.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite ping %s failed: %w", c.path, err)
	}
	return nil
}

// Target is the database file path.
func (c *SQLiteClient) Target() string {
	return c.path
}

func (c *SQLiteClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
