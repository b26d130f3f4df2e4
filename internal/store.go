package internal

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/mattn/go-sqlite3"
	"github.com/tavsec/gin-healthcheck/checks"

	"github.com/petrolscout/stations-api/internal/cache"
)

//go:embed sql/get_entry.sql
var getEntrySQL string

//go:embed sql/upsert_entry.sql
var upsertEntrySQL string

//go:embed sql/delete_entry.sql
var deleteEntrySQL string

//go:embed sql/sweep_entries.sql
var sweepEntriesSQL string

func Migrate(migrationsPath, dbPath string) error {
	m, err := migrate.New("file://"+migrationsPath, "sqlite3://"+dbPath)
	if err != nil {
		return err
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return err
	}

	return nil
}

func Connect(dbPath string) (*sql.DB, error) {
	dsn := dbPath
	if strings.Contains(dsn, "?") {
		dsn += "&"
	} else {
		dsn += "?"
	}
	queryParams := []string{"_busy_timeout=5000", "_journal_mode=WAL", "_loc=UTC", "_datetime_format=rfc3339"}
	dsn += strings.Join(queryParams, "&")
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Printf("connected to database: %s", dsn)
	return db, nil
}

// CacheStore is the sqlite-backed persistent tier of the station cache.
type CacheStore struct {
	db *sql.DB
}

func NewCacheStore(db *sql.DB) *CacheStore {
	return &CacheStore{
		db: db,
	}
}

func (s *CacheStore) GetEntry(ctx context.Context, key string) (*cache.StoredEntry, error) {
	entry := cache.StoredEntry{Key: key}
	var value string

	row := s.db.QueryRowContext(ctx, getEntrySQL, key)
	if err := row.Scan(&value, &entry.StoredAt, &entry.ExpiresAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}

	entry.Value = []byte(value)
	return &entry, nil
}

func (s *CacheStore) PutEntry(ctx context.Context, entry cache.StoredEntry) error {
	_, err := s.db.ExecContext(ctx, upsertEntrySQL, entry.Key, string(entry.Value), entry.StoredAt, entry.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

func (s *CacheStore) DeleteEntry(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, deleteEntrySQL, key)
	if err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

func (s *CacheStore) SweepEntries(ctx context.Context, now time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx, sweepEntriesSQL, now)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep cache entries: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count swept entries: %w", err)
	}
	return int(affected), nil
}

// Check exposes the underlying DB to gin-healthcheck.
func (s *CacheStore) Check() checks.Check {
	return checks.SqlCheck{Sql: s.db}
}

func (s *CacheStore) Close() error {
	return s.db.Close()
}
