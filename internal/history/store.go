// Package history persists the append-only score history. Reads reconstruct
// a user's full trend; prior entries are never mutated, which is what makes
// re-audits and appeals reproducible.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/workscorehq/workscore/internal/errors"
	"github.com/workscorehq/workscore/internal/types"
)

// Run is one scoring run over a team.
type Run struct {
	RunID     string    `json:"run_id"`
	TeamID    string    `json:"team_id"`
	Period    string    `json:"period"`
	CreatedAt time.Time `json:"created_at"`
}

// Record is one member's history entry for one period. Besides the raw
// score it carries the friction and recognition counts the indicator engine
// needs for trend rules, plus the full breakdown for audits.
type Record struct {
	UserID             string               `json:"user_id"`
	Period             string               `json:"period"`
	RawScore           float64              `json:"raw_score"`
	PenaltyTotal       float64              `json:"penalty_total"`
	UnresolvedBlockers int                  `json:"unresolved_blockers"`
	KudosCount         int                  `json:"kudos_count"`
	Breakdown          types.ScoreBreakdown `json:"breakdown"`
	RunID              string               `json:"run_id"`
	CreatedAt          time.Time            `json:"created_at"`
}

// Store is the SQLite-backed history store.
type Store struct {
	db *sql.DB
}

// NewStore opens (and migrates) the history database under dataDir.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "workscore.db")
	connStr := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("History store initialized", "path", dbPath)
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			team_id TEXT NOT NULL,
			period TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS score_history (
			user_id TEXT NOT NULL,
			period TEXT NOT NULL,
			raw_score REAL NOT NULL,
			penalty_total REAL NOT NULL,
			unresolved_blockers INTEGER NOT NULL,
			kudos_count INTEGER NOT NULL,
			breakdown_json TEXT NOT NULL,
			run_id TEXT NOT NULL REFERENCES runs(run_id),
			created_at DATETIME NOT NULL,
			PRIMARY KEY (user_id, period)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_user ON score_history(user_id, period)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_team ON runs(team_id, period)`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// AppendRun records a run and its member entries in one transaction.
// Write-once per (user, period): the first write for a period wins and a
// later run over the same period leaves it untouched, so a re-run
// supersedes the visible result without rewriting the audit trail.
func (s *Store) AppendRun(ctx context.Context, run Run, records []Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.WrapError(err, "failed to begin history transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, team_id, period, created_at) VALUES (?, ?, ?, ?)`,
		run.RunID, run.TeamID, run.Period, run.CreatedAt,
	); err != nil {
		return errors.WrapError(err, "failed to insert run %s", run.RunID)
	}

	for _, r := range records {
		breakdown, err := json.Marshal(r.Breakdown)
		if err != nil {
			return errors.WrapError(err, "failed to encode breakdown for %s", r.UserID)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO score_history
				(user_id, period, raw_score, penalty_total, unresolved_blockers, kudos_count, breakdown_json, run_id, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(user_id, period) DO NOTHING`,
			r.UserID, r.Period, r.RawScore, r.PenaltyTotal, r.UnresolvedBlockers,
			r.KudosCount, string(breakdown), r.RunID, r.CreatedAt,
		); err != nil {
			return errors.WrapError(err, "failed to append history for %s", r.UserID)
		}
	}

	return tx.Commit()
}

// GetHistory returns a user's full history in chronological period order.
func (s *Store) GetHistory(ctx context.Context, userID string) ([]Record, error) {
	return s.query(ctx,
		`SELECT user_id, period, raw_score, penalty_total, unresolved_blockers, kudos_count, breakdown_json, run_id, created_at
		 FROM score_history WHERE user_id = ? ORDER BY period ASC`, userID)
}

// HistoryBefore returns a user's history strictly before the given period,
// chronological. This is the trend input for a run scoring that period.
func (s *Store) HistoryBefore(ctx context.Context, userID, period string) ([]Record, error) {
	return s.query(ctx,
		`SELECT user_id, period, raw_score, penalty_total, unresolved_blockers, kudos_count, breakdown_json, run_id, created_at
		 FROM score_history WHERE user_id = ? AND period < ? ORDER BY period ASC`, userID, period)
}

func (s *Store) query(ctx context.Context, q string, args ...interface{}) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.WrapError(err, "history query failed")
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var breakdownJSON string
		if err := rows.Scan(&r.UserID, &r.Period, &r.RawScore, &r.PenaltyTotal,
			&r.UnresolvedBlockers, &r.KudosCount, &breakdownJSON, &r.RunID, &r.CreatedAt); err != nil {
			return nil, errors.WrapError(err, "history scan failed")
		}
		if err := json.Unmarshal([]byte(breakdownJSON), &r.Breakdown); err != nil {
			return nil, errors.WrapError(err, "failed to decode breakdown for %s/%s", r.UserID, r.Period)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Points projects records to the {period, raw_score} pairs the result
// object exposes.
func Points(records []Record) []types.HistoryPoint {
	points := make([]types.HistoryPoint, len(records))
	for i, r := range records {
		points[i] = types.HistoryPoint{Period: r.Period, RawScore: r.RawScore}
	}
	return points
}
