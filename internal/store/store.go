// Package store persists evaluation runs and their per-cell scores in SQLite.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT PRIMARY KEY,
	model_dir   TEXT NOT NULL,
	weight_file TEXT NOT NULL,
	expt_date   TEXT NOT NULL,
	stim_type   TEXT NOT NULL,
	metric      TEXT NOT NULL,
	created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS scores (
	run_id    TEXT NOT NULL,
	position  INTEGER NOT NULL,
	cell      INTEGER NOT NULL,
	score     REAL,
	PRIMARY KEY (run_id, position),
	FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);
`

// ErrRunNotFound is returned by GetRun for unknown IDs.
var ErrRunNotFound = errors.New("run not found")

// Run is one evaluation of one model with one metric.
type Run struct {
	ID         string
	ModelDir   string
	WeightFile string
	ExptDate   string
	StimType   string
	Metric     string
	CreatedAt  time.Time
	Cells      []int
	Scores     []float64 // Scores[i] belongs to Cells[i]; NaN survives the round trip
}

// Store manages evaluation runs in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	for _, stmt := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON", schema} {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun stores run under a new ID and returns the ID. A zero CreatedAt is
// set to the current time.
func (s *Store) SaveRun(run Run) (string, error) {
	if len(run.Cells) != len(run.Scores) {
		return "", fmt.Errorf("run has %d cells but %d scores", len(run.Cells), len(run.Scores))
	}
	id := uuid.New().String()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.Exec(
		`INSERT INTO runs (run_id, model_dir, weight_file, expt_date, stim_type, metric, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, run.ModelDir, run.WeightFile, run.ExptDate, run.StimType, run.Metric,
		run.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for i, cell := range run.Cells {
		score := sql.NullFloat64{Float64: run.Scores[i], Valid: !math.IsNaN(run.Scores[i])}
		if _, err := tx.Exec(
			`INSERT INTO scores (run_id, position, cell, score) VALUES (?, ?, ?, ?)`,
			id, i, cell, score,
		); err != nil {
			return "", fmt.Errorf("insert score %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// GetRun returns one run with its scores.
func (s *Store) GetRun(id string) (Run, error) {
	row := s.db.QueryRow(
		`SELECT run_id, model_dir, weight_file, expt_date, stim_type, metric, created_at
		 FROM runs WHERE run_id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, err
	}
	if err := s.loadScores(&run); err != nil {
		return Run{}, err
	}
	return run, nil
}

// ListRuns returns all runs, oldest first.
func (s *Store) ListRuns() ([]Run, error) {
	rows, err := s.db.Query(
		`SELECT run_id, model_dir, weight_file, expt_date, stim_type, metric, created_at
		 FROM runs ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	rows.Close()

	for i := range runs {
		if err := s.loadScores(&runs[i]); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

// DeleteRun removes a run and its scores.
func (s *Store) DeleteRun(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(`DELETE FROM scores WHERE run_id = ?`, id); err != nil {
		return fmt.Errorf("delete scores: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM runs WHERE run_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run     Run
		created string
	)
	if err := sc.Scan(&run.ID, &run.ModelDir, &run.WeightFile, &run.ExptDate, &run.StimType, &run.Metric, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return Run{}, fmt.Errorf("parse created_at: %w", err)
	}
	run.CreatedAt = t
	return run, nil
}

func (s *Store) loadScores(run *Run) error {
	rows, err := s.db.Query(`SELECT cell, score FROM scores WHERE run_id = ? ORDER BY position`, run.ID)
	if err != nil {
		return fmt.Errorf("query scores: %w", err)
	}
	defer rows.Close()

	run.Cells, run.Scores = []int{}, []float64{}
	for rows.Next() {
		var (
			cell  int
			score sql.NullFloat64
		)
		if err := rows.Scan(&cell, &score); err != nil {
			return fmt.Errorf("scan score: %w", err)
		}
		run.Cells = append(run.Cells, cell)
		if score.Valid {
			run.Scores = append(run.Scores, score.Float64)
		} else {
			run.Scores = append(run.Scores, math.NaN())
		}
	}
	return rows.Err()
}
