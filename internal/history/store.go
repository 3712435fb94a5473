// Package history keeps ranked runs in a local SQLite database.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/spigell/resume-matcher/internal/ai"
	"github.com/spigell/resume-matcher/internal/matching"
	"github.com/spigell/resume-matcher/internal/utils"
)

const (
	excerptRunes = 120
	// timeLayout is fixed width so text ordering matches time ordering.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

var (
	ErrRunNotFound = errors.New("run not found")
	ErrAmbiguousID = errors.New("run id prefix matches several runs")
)

// Run is one stored matching run.
type Run struct {
	ID          string
	CreatedAt   time.Time
	JDExcerpt   string
	Table       *matching.Table
	Evaluations []EvaluationRecord
}

// EvaluationRecord is an AI evaluation attached to a resume of a run.
type EvaluationRecord struct {
	Resume string
	*ai.Evaluation
}

// Summary is a short listing entry.
type Summary struct {
	ID        string
	CreatedAt time.Time
	JDExcerpt string
	Resumes   int
	BestName  string
	BestScore float64
}

type Store struct {
	db *sql.DB
}

// Open opens (or creates) the history database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("history: mkdir %s: %w", dir, err)
		}
	}

	// Foreign keys are off by default in sqlite and are set per connection.
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: init schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id          TEXT PRIMARY KEY,
			created_at  TEXT NOT NULL,
			jd_excerpt  TEXT NOT NULL,
			resumes     INTEGER NOT NULL,
			best_name   TEXT,
			best_score  REAL
		)`,
		`CREATE TABLE IF NOT EXISTS results (
			run_id      TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position    INTEGER NOT NULL,
			name        TEXT NOT NULL,
			score       REAL NOT NULL,
			suggestions TEXT NOT NULL,
			PRIMARY KEY (run_id, position)
		)`,
		`CREATE TABLE IF NOT EXISTS evaluations (
			run_id         TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			resume         TEXT NOT NULL,
			kind           TEXT NOT NULL,
			score          INTEGER NOT NULL,
			summary        TEXT NOT NULL,
			keywords       TEXT NOT NULL,
			raw            TEXT NOT NULL,
			parsed_attempt TEXT NOT NULL DEFAULT '',
			created_at     TEXT NOT NULL,
			PRIMARY KEY (run_id, resume)
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Save stores run and its ranked rows. CreatedAt defaults to now.
func (s *Store) Save(ctx context.Context, run *Run) error {
	if run == nil || strings.TrimSpace(run.ID) == "" {
		return errors.New("history: run id is required")
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("history: begin: %w", err)
	}
	defer tx.Rollback()

	var bestName sql.NullString
	var bestScore sql.NullFloat64
	if best := run.Table.Best(); best != nil {
		bestName = sql.NullString{String: best.Name, Valid: true}
		bestScore = sql.NullFloat64{Float64: best.Score, Valid: true}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, jd_excerpt, resumes, best_name, best_score) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.UTC().Format(timeLayout), Excerpt(run.JDExcerpt), run.Table.Len(), bestName, bestScore,
	)
	if err != nil {
		return fmt.Errorf("history: insert run: %w", err)
	}

	if run.Table != nil {
		for i, row := range run.Table.Rows {
			suggestions, err := json.Marshal(nonNil(row.Suggestions))
			if err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO results (run_id, position, name, score, suggestions) VALUES (?, ?, ?, ?, ?)`,
				run.ID, i, row.Name, row.Score, string(suggestions),
			)
			if err != nil {
				return fmt.Errorf("history: insert result: %w", err)
			}
		}
	}

	return tx.Commit()
}

// SaveEvaluation attaches an AI evaluation of resume to a stored run,
// replacing an earlier one.
func (s *Store) SaveEvaluation(ctx context.Context, runID, resume string, e *ai.Evaluation) error {
	if e == nil {
		return errors.New("history: evaluation is required")
	}

	keywords, err := json.Marshal(nonNil(e.SuggestedKeywords))
	if err != nil {
		return err
	}

	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE id = ?`, runID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("history: evaluation for run %q: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return fmt.Errorf("history: check run: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO evaluations (run_id, resume, kind, score, summary, keywords, raw, parsed_attempt, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, resume, e.Kind.String(), e.Score, e.Summary, string(keywords), e.Raw, e.ParsedAttempt, time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("history: insert evaluation: %w", err)
	}
	return nil
}

// Delete removes a run, resolved like Get, together with its rows and
// evaluations. It returns the full id of the removed run.
func (s *Store) Delete(ctx context.Context, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrRunNotFound
	}

	fullID, err := s.resolveID(ctx, id)
	if err != nil {
		return "", err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, fullID); err != nil {
		return "", fmt.Errorf("history: delete run: %w", err)
	}
	return fullID, nil
}

// List returns the newest runs first. A non-positive limit returns all runs.
func (s *Store) List(ctx context.Context, limit int) ([]Summary, error) {
	query := `SELECT id, created_at, jd_excerpt, resumes, best_name, best_score FROM runs ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("history: list runs: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			summary   Summary
			createdAt string
			bestName  sql.NullString
			bestScore sql.NullFloat64
		)
		if err := rows.Scan(&summary.ID, &createdAt, &summary.JDExcerpt, &summary.Resumes, &bestName, &bestScore); err != nil {
			return nil, err
		}
		summary.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		summary.BestName = bestName.String
		summary.BestScore = bestScore.Float64
		out = append(out, summary)
	}
	return out, rows.Err()
}

// Get loads a run by its id or by an unambiguous id prefix.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrRunNotFound
	}

	fullID, err := s.resolveID(ctx, id)
	if err != nil {
		return nil, err
	}

	run := &Run{ID: fullID, Table: &matching.Table{Rows: []matching.Result{}}}
	var createdAt string
	err = s.db.QueryRowContext(ctx, `SELECT created_at, jd_excerpt FROM runs WHERE id = ?`, fullID).Scan(&createdAt, &run.JDExcerpt)
	if err != nil {
		return nil, fmt.Errorf("history: get run: %w", err)
	}
	run.CreatedAt, _ = time.Parse(timeLayout, createdAt)

	if err := s.loadResults(ctx, run); err != nil {
		return nil, err
	}
	if err := s.loadEvaluations(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

func (s *Store) resolveID(ctx context.Context, prefix string) (string, error) {
	pattern := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(prefix) + "%"
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM runs WHERE id LIKE ? ESCAPE '\' ORDER BY length(id), id LIMIT 2`, pattern)
	if err != nil {
		return "", fmt.Errorf("history: find run: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", err
		}
		if id == prefix {
			return id, nil
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrRunNotFound, prefix)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("%w: %s", ErrAmbiguousID, prefix)
	}
}

func (s *Store) loadResults(ctx context.Context, run *Run) error {
	rows, err := s.db.QueryContext(ctx, `SELECT name, score, suggestions FROM results WHERE run_id = ? ORDER BY position`, run.ID)
	if err != nil {
		return fmt.Errorf("history: load results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			result      matching.Result
			suggestions string
		)
		if err := rows.Scan(&result.Name, &result.Score, &suggestions); err != nil {
			return err
		}
		if err := json.Unmarshal([]byte(suggestions), &result.Suggestions); err != nil {
			return fmt.Errorf("history: decode suggestions of %q: %w", result.Name, err)
		}
		run.Table.Rows = append(run.Table.Rows, result)
	}
	return rows.Err()
}

func (s *Store) loadEvaluations(ctx context.Context, run *Run) error {
	rows, err := s.db.QueryContext(ctx, `SELECT resume, kind, score, summary, keywords, raw, parsed_attempt FROM evaluations WHERE run_id = ? ORDER BY resume`, run.ID)
	if err != nil {
		return fmt.Errorf("history: load evaluations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			record   EvaluationRecord
			kind     string
			keywords string
		)
		record.Evaluation = &ai.Evaluation{}
		if err := rows.Scan(&record.Resume, &kind, &record.Score, &record.Summary, &keywords, &record.Raw, &record.ParsedAttempt); err != nil {
			return err
		}
		if kind == ai.KindMalformed.String() {
			record.Kind = ai.KindMalformed
		}
		if err := json.Unmarshal([]byte(keywords), &record.SuggestedKeywords); err != nil {
			return fmt.Errorf("history: decode keywords of %q: %w", record.Resume, err)
		}
		run.Evaluations = append(run.Evaluations, record)
	}
	return rows.Err()
}

// Excerpt shortens a job description for listings.
func Excerpt(text string) string {
	return utils.TruncateForLog(text, excerptRunes)
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
