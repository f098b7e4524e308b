package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"lol-autopilot/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

const (
	insertHistorySQL = `INSERT INTO history (id, session_id, kind, champion_id, champion, outcome, reason, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	recentHistorySQL = `SELECT id, session_id, kind, champion_id, champion, outcome, reason, created_at
FROM history ORDER BY created_at DESC, rowid DESC LIMIT ?`
)

type HistoryRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewHistoryRepository(sqlDB *sql.DB, logger zerolog.Logger) *HistoryRepository {
	return &HistoryRepository{
		db:     sqlDB,
		logger: logger,
	}
}

// RecordBatch stores entries in one transaction, filling in missing ids and
// timestamps.
func (r *HistoryRepository) RecordBatch(ctx context.Context, entries []domain.HistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertHistorySQL)
	if err != nil {
		return fmt.Errorf("failed to prepare history insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		id := e.ID
		if id == "" {
			id, err = gonanoid.New()
			if err != nil {
				return fmt.Errorf("failed to generate nanoid: %w", err)
			}
		}
		createdAt := e.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}

		_, err := stmt.ExecContext(ctx, id, e.SessionID, string(e.Kind), e.ChampionID, e.Champion, e.Outcome, e.Reason, createdAt.UTC())
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("session_id", e.SessionID).
				Int("champ_id", e.ChampionID).
				Msg("failed to insert history entry")
			return fmt.Errorf("failed to insert history entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Debug().Int("count", len(entries)).Msg("history recorded")
	return nil
}

func (r *HistoryRepository) Recent(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, recentHistorySQL, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	entries := []domain.HistoryEntry{}
	for rows.Next() {
		var (
			e    domain.HistoryEntry
			kind string
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &kind, &e.ChampionID, &e.Champion, &e.Outcome, &e.Reason, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		e.Kind = domain.ActionKind(kind)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history rows: %w", err)
	}
	return entries, nil
}
