// Package ledger records issued IDs in a local SQLite database.
//
// Each row stores the ID together with its decoded fields and the run that
// minted it, so IDs can be audited later without knowing the generator's
// epoch. The ID column is the primary key: recording the same ID twice fails
// the whole batch, which turns a uniqueness violation into a hard error.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/sxyafiq/seqgen"
)

// ErrNotFound is returned by Lookup for an ID that was never recorded.
var ErrNotFound = errors.New("id not found in ledger")

const schema = `
CREATE TABLE IF NOT EXISTS ids (
	id      INTEGER PRIMARY KEY,
	run     TEXT    NOT NULL,
	ts_ms   INTEGER NOT NULL,
	node_id INTEGER NOT NULL,
	counter INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ids_run ON ids(run);
CREATE INDEX IF NOT EXISTS idx_ids_ts ON ids(ts_ms);
`

// Decomposer splits an ID into timestamp (Unix ms), node ID and counter.
// *seqgen.SequenceGenerator satisfies it.
type Decomposer interface {
	DecomposeID(id seqgen.ID) (timestamp, nodeID, counter int64)
}

// Entry is one recorded ID.
type Entry struct {
	ID      seqgen.ID
	Run     uuid.UUID
	Time    time.Time
	NodeID  int64
	Counter int64
}

// Ledger is a SQLite-backed ID log. It is safe for concurrent use.
type Ledger struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (creating if needed) the ledger at path. Use ":memory:" for a
// throwaway ledger.
func Open(path string, logger *zap.Logger) (*Ledger, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", path, err)
	}
	// A single connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create ledger schema: %w", err)
	}

	logger.Debug("ledger opened", zap.String("path", path))
	return &Ledger{db: db, logger: logger}, nil
}

// Record stores ids under run in one transaction, decoding each with d.
func (l *Ledger) Record(ctx context.Context, run uuid.UUID, d Decomposer, ids []seqgen.ID) (err error) {
	if len(ids) == 0 {
		return nil
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO ids (id, run, ts_ms, node_id, counter) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare ledger insert: %w", err)
	}
	defer stmt.Close()

	for _, id := range ids {
		ts, node, counter := d.DecomposeID(id)
		if _, err = stmt.ExecContext(ctx, id, run.String(), ts, node, counter); err != nil {
			return fmt.Errorf("record id %s: %w", id, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger transaction: %w", err)
	}

	l.logger.Debug("ids recorded", zap.Stringer("run", run), zap.Int("count", len(ids)))
	return nil
}

// Lookup returns the entry for id, or ErrNotFound.
func (l *Ledger) Lookup(ctx context.Context, id seqgen.ID) (Entry, error) {
	row := l.db.QueryRowContext(ctx,
		"SELECT id, run, ts_ms, node_id, counter FROM ids WHERE id = ?", id)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("lookup id %s: %w", id, err)
	}
	return e, nil
}

// Run returns the IDs recorded under run, in ascending order.
func (l *Ledger) Run(ctx context.Context, run uuid.UUID) ([]seqgen.ID, error) {
	rows, err := l.db.QueryContext(ctx, "SELECT id FROM ids WHERE run = ? ORDER BY id", run.String())
	if err != nil {
		return nil, fmt.Errorf("query run %s: %w", run, err)
	}
	defer rows.Close()

	var ids []seqgen.ID
	for rows.Next() {
		var id seqgen.ID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan run %s: %w", run, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Between returns entries whose timestamp lies in [start, end), oldest first.
func (l *Ledger) Between(ctx context.Context, start, end time.Time) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx,
		"SELECT id, run, ts_ms, node_id, counter FROM ids WHERE ts_ms >= ? AND ts_ms < ? ORDER BY id",
		start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("query time range: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan time range: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of recorded IDs.
func (l *Ledger) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := l.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM ids").Scan(&n); err != nil {
		return 0, fmt.Errorf("count ids: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (Entry, error) {
	var (
		e   Entry
		run string
		ts  int64
	)
	if err := s.Scan(&e.ID, &run, &ts, &e.NodeID, &e.Counter); err != nil {
		return Entry{}, err
	}

	parsed, err := uuid.Parse(run)
	if err != nil {
		return Entry{}, fmt.Errorf("parse run %q: %w", run, err)
	}
	e.Run = parsed
	e.Time = time.UnixMilli(ts)
	return e, nil
}
