package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// Preference keys.
const (
	PrefAutoLoadout = "auto_loadout"
)

const (
	getPreferenceSQL    = `SELECT value FROM preferences WHERE key = ?`
	upsertPreferenceSQL = `INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
)

type PreferenceRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewPreferenceRepository(sqlDB *sql.DB, logger zerolog.Logger) *PreferenceRepository {
	return &PreferenceRepository{
		db:     sqlDB,
		logger: logger,
	}
}

// Get returns the stored value and whether one exists.
func (r *PreferenceRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, getPreferenceSQL, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get preference %s: %w", key, err)
	}
	return value, true, nil
}

func (r *PreferenceRepository) Set(ctx context.Context, key, value string) error {
	if _, err := r.db.ExecContext(ctx, upsertPreferenceSQL, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to set preference %s: %w", key, err)
	}
	r.logger.Debug().Str("key", key).Str("value", value).Msg("preference saved")
	return nil
}

// GetBool falls back to def when the key is unset or unparsable.
func (r *PreferenceRepository) GetBool(ctx context.Context, key string, def bool) (bool, error) {
	raw, ok, err := r.Get(ctx, key)
	if err != nil || !ok {
		return def, err
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		r.logger.Warn().Str("key", key).Str("value", raw).Msg("ignoring malformed preference")
		return def, nil
	}
	return v, nil
}

func (r *PreferenceRepository) SetBool(ctx context.Context, key string, v bool) error {
	return r.Set(ctx, key, strconv.FormatBool(v))
}
