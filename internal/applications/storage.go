package applications

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// DefaultKey is the key the record set is stored under.
const DefaultKey = "cs_applications"

// ErrNotFound is returned by Storage.Get when nothing has been stored yet.
var ErrNotFound = errors.New("no stored applications")

// Storage persists one opaque payload under a fixed key. Writes are
// last-writer-wins with no cross-process locking.
type Storage interface {
	Get(ctx context.Context) ([]byte, error)
	Set(ctx context.Context, payload []byte) error
}

// ==========================
// Memory
// ==========================

type MemoryStorage struct {
	mu      sync.RWMutex
	payload []byte
	present bool
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) Get(_ context.Context) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.present {
		return nil, ErrNotFound
	}
	out := make([]byte, len(m.payload))
	copy(out, m.payload)
	return out, nil
}

func (m *MemoryStorage) Set(_ context.Context, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payload = append([]byte(nil), payload...)
	m.present = true
	return nil
}

// ==========================
// Redis
// ==========================

// RedisStorage keeps the payload in a single Redis string with no expiry.
type RedisStorage struct {
	client *redis.Client
	key    string
}

func NewRedisStorage(client *redis.Client, key string) *RedisStorage {
	if key == "" {
		key = DefaultKey
	}
	return &RedisStorage{client: client, key: key}
}

func (r *RedisStorage) Get(ctx context.Context) ([]byte, error) {
	val, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get %s: %w", r.key, err)
	}
	return val, nil
}

func (r *RedisStorage) Set(ctx context.Context, payload []byte) error {
	if err := r.client.Set(ctx, r.key, payload, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}

// ==========================
// Postgres
// ==========================

const (
	createKVTableSQL = `CREATE TABLE IF NOT EXISTS kv_store (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
	selectKVSQL = `SELECT value FROM kv_store WHERE key = $1`
	upsertKVSQL = `INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2, NOW())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`
)

// PostgresStorage keeps the payload in one row of the kv_store table.
type PostgresStorage struct {
	db  *sql.DB
	key string
}

func NewPostgresStorage(db *sql.DB, key string) *PostgresStorage {
	if key == "" {
		key = DefaultKey
	}
	return &PostgresStorage{db: db, key: key}
}

// EnsureSchema creates the kv_store table if it does not exist.
func (p *PostgresStorage) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, createKVTableSQL); err != nil {
		return fmt.Errorf("create kv_store: %w", err)
	}
	return nil
}

func (p *PostgresStorage) Get(ctx context.Context) ([]byte, error) {
	var value string
	err := p.db.QueryRowContext(ctx, selectKVSQL, p.key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("postgres get %s: %w", p.key, err)
	}
	return []byte(value), nil
}

func (p *PostgresStorage) Set(ctx context.Context, payload []byte) error {
	if _, err := p.db.ExecContext(ctx, upsertKVSQL, p.key, string(payload)); err != nil {
		return fmt.Errorf("postgres set %s: %w", p.key, err)
	}
	return nil
}

// ==========================
// SQLite
// ==========================

const (
	createSQLiteKVTableSQL = `CREATE TABLE IF NOT EXISTS kv_store (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`
	selectSQLiteKVSQL = `SELECT value FROM kv_store WHERE key = ?`
	upsertSQLiteKVSQL = `INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`
)

// SQLiteStorage keeps the payload in one row of a local kv_store table, so
// records survive between runs without a server.
type SQLiteStorage struct {
	db  *sql.DB
	key string
}

func NewSQLiteStorage(db *sql.DB, key string) *SQLiteStorage {
	if key == "" {
		key = DefaultKey
	}
	return &SQLiteStorage{db: db, key: key}
}

func (s *SQLiteStorage) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createSQLiteKVTableSQL); err != nil {
		return fmt.Errorf("create kv_store: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) Get(ctx context.Context) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx, selectSQLiteKVSQL, s.key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("sqlite get %s: %w", s.key, err)
	}
	return []byte(value), nil
}

func (s *SQLiteStorage) Set(ctx context.Context, payload []byte) error {
	if _, err := s.db.ExecContext(ctx, upsertSQLiteKVSQL, s.key, string(payload)); err != nil {
		return fmt.Errorf("sqlite set %s: %w", s.key, err)
	}
	return nil
}
