// Package storage provides the SQLite-backed invocation history store.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Record is one persisted tool invocation.
type Record struct {
	ID        string
	Tool      string
	Target    string
	Word      string // fuzzing word, empty for plain invocations
	Status    string // ok or error
	Error     string
	ElapsedMS int64
	StartedAt time.Time
}

// Filter narrows a history query. Zero values match everything.
type Filter struct {
	Tool   string
	Status string
	Limit  int
}

// HistoryRepo persists invocation records in a local SQLite database.
type HistoryRepo struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS invocations (
	id TEXT PRIMARY KEY,
	tool TEXT NOT NULL,
	target TEXT NOT NULL,
	word TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	error TEXT NOT NULL DEFAULT '',
	elapsed_ms INTEGER NOT NULL,
	started_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_invocations_tool ON invocations(tool);
CREATE INDEX IF NOT EXISTS idx_invocations_started_at ON invocations(started_at);
`

// OpenHistory opens (or creates) the history database at dbPath.
func OpenHistory(dbPath string) (*HistoryRepo, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("could not create history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("could not open history database: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not ping history database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not initialize history schema: %w", err)
	}

	return &HistoryRepo{db: db}, nil
}

// Append stores one invocation record. A record without an ID gets a fresh
// UUID so it can never collide on the primary key; a zero StartedAt is
// stamped with the current time.
func (r *HistoryRepo) Append(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO invocations (id, tool, target, word, status, error, elapsed_ms, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Tool, rec.Target, rec.Word, rec.Status, rec.Error, rec.ElapsedMS, rec.StartedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("could not append history record: %w", err)
	}
	return nil
}

// Recent returns records matching the filter, newest first.
func (r *HistoryRepo) Recent(ctx context.Context, f Filter) ([]Record, error) {
	query := `SELECT id, tool, target, word, status, error, elapsed_ms, started_at FROM invocations`
	var conds []string
	var args []any
	if f.Tool != "" {
		conds = append(conds, "tool = ?")
		args = append(args, f.Tool)
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY started_at DESC, id DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("could not query history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Tool, &rec.Target, &rec.Word, &rec.Status, &rec.Error, &rec.ElapsedMS, &rec.StartedAt); err != nil {
			return nil, fmt.Errorf("could not scan history record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the underlying database.
func (r *HistoryRepo) Close() error {
	return r.db.Close()
}
