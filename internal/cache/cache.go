// Package cache keeps the last known habit list per owner in a local sqlite file,
// so screens can render something while the store is unreachable.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/habitmate/habitmate/internal/db"
	"github.com/habitmate/habitmate/internal/model"
)

const habitsSlotPrefix = "habits_list:"

const schema = `
CREATE TABLE IF NOT EXISTS cache_entries (
    key        TEXT PRIMARY KEY,
    value      BLOB NOT NULL,
    updated_at TIMESTAMP NOT NULL
)`

type Cache struct {
	db *sqlx.DB
}

// Open connects to the sqlite file at dsn and creates the key/value table if needed.
func Open(ctx context.Context, dsn string) (*Cache, error) {
	database, err := db.Init("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	c, err := New(ctx, database)
	if err != nil {
		_ = database.Close()
		return nil, err
	}
	return c, nil
}

// New wraps an existing connection.
func New(ctx context.Context, database *sqlx.DB) (*Cache, error) {
	if _, err := database.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to create cache schema: %w", err)
	}
	return &Cache{db: database}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Habits returns the cached list for owner. An absent or unreadable slot yields an empty list.
func (c *Cache) Habits(ctx context.Context, ownerID string) []*model.Habit {
	raw, err := c.get(ctx, habitsSlotPrefix+ownerID)
	if err != nil {
		slog.Warn("cache read failed", "owner_id", ownerID, "error", err)
		return []*model.Habit{}
	}
	if raw == nil {
		return []*model.Habit{}
	}

	var habits []*model.Habit
	if err := json.Unmarshal(raw, &habits); err != nil {
		slog.Warn("cache slot corrupt, ignoring", "owner_id", ownerID, "error", err)
		return []*model.Habit{}
	}
	if habits == nil {
		habits = []*model.Habit{}
	}
	return habits
}

// SetHabits replaces the owner's slot in a single statement.
func (c *Cache) SetHabits(ctx context.Context, ownerID string, habits []*model.Habit) error {
	if habits == nil {
		habits = []*model.Habit{}
	}
	raw, err := json.Marshal(habits)
	if err != nil {
		return fmt.Errorf("failed to encode habits: %w", err)
	}
	return c.set(ctx, habitsSlotPrefix+ownerID, raw)
}

func (c *Cache) Clear(ctx context.Context, ownerID string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = $1`, habitsSlotPrefix+ownerID)
	return err
}

func (c *Cache) get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := c.db.GetContext(ctx, &value, `SELECT value FROM cache_entries WHERE key = $1`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (c *Cache) set(ctx context.Context, key string, value []byte) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO cache_entries (key, value, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now())
	return err
}
