package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/ctt-evolver/internal/models"
)

const solverRunColumns = `id, instance, generations, best_penalty, best_fairness, generator_success, generator_failure, breeder_success, breeder_failure, eliminated, cancelled, duration_ms, started_at, created_at`

const solverRunSchema = `CREATE TABLE IF NOT EXISTS solver_runs (
	id TEXT PRIMARY KEY,
	instance TEXT NOT NULL,
	generations INTEGER NOT NULL,
	best_penalty INTEGER,
	best_fairness INTEGER,
	generator_success INTEGER NOT NULL DEFAULT 0,
	generator_failure INTEGER NOT NULL DEFAULT 0,
	breeder_success INTEGER NOT NULL DEFAULT 0,
	breeder_failure INTEGER NOT NULL DEFAULT 0,
	eliminated INTEGER NOT NULL DEFAULT 0,
	cancelled BOOLEAN NOT NULL DEFAULT FALSE,
	duration_ms BIGINT NOT NULL,
	started_at TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
)`

// RunRepository persists solver run history.
type RunRepository struct {
	db *sqlx.DB
}

// NewRunRepository constructs the repository.
func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{db: db}
}

// EnsureSchema creates the solver_runs table and its listing index when missing.
func (r *RunRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, solverRunSchema); err != nil {
		return fmt.Errorf("create solver_runs: %w", err)
	}
	const index = `CREATE INDEX IF NOT EXISTS solver_runs_instance_created_idx ON solver_runs (instance, created_at DESC)`
	if _, err := r.db.ExecContext(ctx, index); err != nil {
		return fmt.Errorf("create solver_runs index: %w", err)
	}
	return nil
}

// Create inserts a finished run with generated defaults.
func (r *RunRepository) Create(ctx context.Context, run *models.SolverRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO solver_runs (` + solverRunColumns + `)
VALUES (:id, :instance, :generations, :best_penalty, :best_fairness, :generator_success, :generator_failure, :breeder_success, :breeder_failure, :eliminated, :cancelled, :duration_ms, :started_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, run); err != nil {
		return fmt.Errorf("create solver run: %w", err)
	}
	return nil
}

// ListRecent returns the latest runs, newest first, optionally filtered by instance name.
func (r *RunRepository) ListRecent(ctx context.Context, instance string, limit int) ([]models.SolverRun, error) {
	if limit <= 0 {
		limit = 20
	}
	runs := make([]models.SolverRun, 0)
	if instance == "" {
		const query = `SELECT ` + solverRunColumns + ` FROM solver_runs ORDER BY created_at DESC LIMIT $1`
		if err := r.db.SelectContext(ctx, &runs, query, limit); err != nil {
			return nil, fmt.Errorf("list solver runs: %w", err)
		}
		return runs, nil
	}
	const query = `SELECT ` + solverRunColumns + ` FROM solver_runs WHERE instance = $1 ORDER BY created_at DESC LIMIT $2`
	if err := r.db.SelectContext(ctx, &runs, query, instance, limit); err != nil {
		return nil, fmt.Errorf("list solver runs: %w", err)
	}
	return runs, nil
}
