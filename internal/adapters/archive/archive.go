// Package archive stores graded picks in SQLite.
package archive

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/okian/pickgrader/internal/domain/model"
	"github.com/okian/pickgrader/internal/domain/scoring"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

//go:embed sql/*
var ddl embed.FS

// ErrEmptyPath is returned by Open when no database path is given.
var ErrEmptyPath = errors.New("archive path not specified")

// Archive persists graded picks.
type Archive interface {
	// Save inserts gp, replacing any earlier row for the same pick id.
	Save(ctx context.Context, gp model.GradedPick) error
	// Recent returns up to limit picks, most recently graded first.
	Recent(ctx context.Context, limit int) ([]model.GradedPick, error)
	Close() error
}

const (
	upsertSQL = `INSERT INTO graded_pick (
			pick_id, game_id, market, selection, odds, model_probability, confidence,
			factors, score, grade, source, result, submitted_at, graded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(pick_id) DO UPDATE SET
			game_id = excluded.game_id,
			market = excluded.market,
			selection = excluded.selection,
			odds = excluded.odds,
			model_probability = excluded.model_probability,
			confidence = excluded.confidence,
			factors = excluded.factors,
			score = excluded.score,
			grade = excluded.grade,
			source = excluded.source,
			result = excluded.result,
			submitted_at = excluded.submitted_at,
			graded_at = excluded.graded_at`

	selectRecentSQL = `SELECT
			pick_id, game_id, market, selection, odds, model_probability, confidence,
			factors, result, submitted_at, graded_at
		FROM graded_pick
		ORDER BY graded_at DESC, pick_id ASC
		LIMIT ?`

	countSQL = `SELECT COUNT(*) FROM graded_pick`
)

// SQLite implements Archive on a single SQLite file.
type SQLite struct {
	db *sql.DB
}

// Open opens (creating if needed) the archive at path and applies the schema.
func Open(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	// One writer at a time avoids SQLITE_BUSY from concurrent workers.
	db.SetMaxOpenConns(1)

	b, err := ddl.ReadFile("sql/ddl.sql")
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("read archive schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, string(b)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create archive schema in %s: %w", path, err)
	}
	return &SQLite{db: db}, nil
}

// Save implements Archive.
func (s *SQLite) Save(ctx context.Context, gp model.GradedPick) error {
	result, err := json.Marshal(gp.Result)
	if err != nil {
		return fmt.Errorf("encode result for %s: %w", gp.Pick.PickID, err)
	}
	var factors sql.NullString
	if gp.Pick.Factors != nil {
		b, err := json.Marshal(gp.Pick.Factors)
		if err != nil {
			return fmt.Errorf("encode factors for %s: %w", gp.Pick.PickID, err)
		}
		factors = sql.NullString{String: string(b), Valid: true}
	}

	p := gp.Pick
	if _, err := s.db.ExecContext(ctx, upsertSQL,
		p.PickID, p.GameID, p.Market, p.Selection, p.Odds, p.ModelProbability, p.Confidence,
		factors, gp.Result.Score, gp.Result.Grade.String(), string(gp.Result.Source), string(result),
		p.TS.UnixNano(), gp.GradedAt.UnixNano(),
	); err != nil {
		return fmt.Errorf("save pick %s: %w", p.PickID, err)
	}
	return nil
}

// Recent implements Archive.
func (s *SQLite) Recent(ctx context.Context, limit int) ([]model.GradedPick, error) {
	if limit < 1 {
		return nil, fmt.Errorf("invalid limit %d", limit)
	}
	rows, err := s.db.QueryContext(ctx, selectRecentSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent picks: %w", err)
	}
	defer rows.Close()

	out := make([]model.GradedPick, 0, limit)
	for rows.Next() {
		var (
			gp                  model.GradedPick
			factors             sql.NullString
			result              string
			submitted, gradedAt int64
		)
		p := &gp.Pick
		if err := rows.Scan(&p.PickID, &p.GameID, &p.Market, &p.Selection, &p.Odds, &p.ModelProbability,
			&p.Confidence, &factors, &result, &submitted, &gradedAt); err != nil {
			return nil, fmt.Errorf("scan recent pick: %w", err)
		}
		if factors.Valid {
			p.Factors = &scoring.FactorScores{}
			if err := json.Unmarshal([]byte(factors.String), p.Factors); err != nil {
				return nil, fmt.Errorf("decode factors for %s: %w", p.PickID, err)
			}
		}
		if err := json.Unmarshal([]byte(result), &gp.Result); err != nil {
			return nil, fmt.Errorf("decode result for %s: %w", p.PickID, err)
		}
		p.TS = time.Unix(0, submitted).UTC()
		gp.GradedAt = time.Unix(0, gradedAt).UTC()
		out = append(out, gp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent picks: %w", err)
	}
	return out, nil
}

// Count returns the number of archived picks.
func (s *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, countSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("count picks: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
