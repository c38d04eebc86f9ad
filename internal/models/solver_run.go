package models

import (
	"database/sql"
	"time"
)

// SolverRun is the persisted outcome of one solver run.
type SolverRun struct {
	ID               string        `db:"id" json:"id"`
	Instance         string        `db:"instance" json:"instance"`
	Generations      int           `db:"generations" json:"generations"`
	BestPenalty      sql.NullInt64 `db:"best_penalty" json:"-"`
	BestFairness     sql.NullInt64 `db:"best_fairness" json:"-"`
	GeneratorSuccess int           `db:"generator_success" json:"generator_success"`
	GeneratorFailure int           `db:"generator_failure" json:"generator_failure"`
	BreederSuccess   int           `db:"breeder_success" json:"breeder_success"`
	BreederFailure   int           `db:"breeder_failure" json:"breeder_failure"`
	Eliminated       int           `db:"eliminated" json:"eliminated"`
	Cancelled        bool          `db:"cancelled" json:"cancelled"`
	DurationMs       int64         `db:"duration_ms" json:"duration_ms"`
	StartedAt        time.Time     `db:"started_at" json:"started_at"`
	CreatedAt        time.Time     `db:"created_at" json:"created_at"`
}
