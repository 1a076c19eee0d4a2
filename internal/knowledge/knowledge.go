// Package knowledge records step outcomes per operation type and serves a
// historical-reliability signal back to the confidence calculator. It sits
// off the execution path: recording failures are logged and ignored, and a
// missing history yields the neutral factor.
package knowledge

import (
	"database/sql"
	"fmt"
	"time"

	// SQLite driver for the outcomes database.
	_ "github.com/mattn/go-sqlite3"

	"github.com/praxis-ai/praxis/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS operation_outcomes (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	operation  TEXT    NOT NULL,
	success    INTEGER NOT NULL,
	recorded_at TEXT   NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_outcomes_operation ON operation_outcomes(operation);
`

// Store persists operation outcomes in SQLite and computes reliability
// factors from them.
type Store struct {
	db *sql.DB
}

// Open creates or opens the outcomes database at path. Use ":memory:" for
// an ephemeral store in tests.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, types.WrapError(types.KNOWLEDGE_OPEN_FAILED,
			fmt.Sprintf("failed to open knowledge store at %q", path), err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, types.WrapError(types.KNOWLEDGE_OPEN_FAILED, "failed to apply schema", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordOutcome appends one (operation, success) observation.
// Implements the engine's OutcomeRecorder.
func (s *Store) RecordOutcome(operation string, success bool) error {
	_, err := s.db.Exec(
		`INSERT INTO operation_outcomes (operation, success, recorded_at) VALUES (?, ?, ?)`,
		operation, boolToInt(success), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return types.WrapError(types.KNOWLEDGE_QUERY_FAILED,
			fmt.Sprintf("failed to record outcome for %q", operation), err)
	}
	return nil
}

// Reliability returns the Laplace-smoothed success rate for an operation:
// (successes + 1) / (total + 2). The boolean result is false when no
// history exists, letting the calculator fall back to neutral.
// Implements confidence.ReliabilitySource.
func (s *Store) Reliability(operation string) (float64, bool) {
	var total, successes int
	err := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(success), 0) FROM operation_outcomes WHERE operation = ?`,
		operation,
	).Scan(&total, &successes)
	if err != nil || total == 0 {
		return 0, false
	}

	return float64(successes+1) / float64(total+2), true
}

// OutcomeCount returns the number of recorded observations for an
// operation, mainly for status reporting.
func (s *Store) OutcomeCount(operation string) (int, error) {
	var total int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM operation_outcomes WHERE operation = ?`,
		operation,
	).Scan(&total)
	if err != nil {
		return 0, types.WrapError(types.KNOWLEDGE_QUERY_FAILED,
			fmt.Sprintf("failed to count outcomes for %q", operation), err)
	}
	return total, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
