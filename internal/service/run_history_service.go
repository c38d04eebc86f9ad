package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/ctt-evolver/internal/dto"
	"github.com/noah-isme/ctt-evolver/internal/models"
	appErrors "github.com/noah-isme/ctt-evolver/pkg/errors"
)

// RunStore persists run summaries.
type RunStore interface {
	Create(ctx context.Context, run *models.SolverRun) error
	ListRecent(ctx context.Context, instance string, limit int) ([]models.SolverRun, error)
}

// SnapshotStore keeps the latest best timetable.
type SnapshotStore interface {
	SaveBest(ctx context.Context, key string, snapshot *dto.SolutionSnapshot, ttl time.Duration) error
	GetBest(ctx context.Context, key string) (*dto.SolutionSnapshot, error)
}

// RunHistoryConfig selects the snapshot key and lifetime.
type RunHistoryConfig struct {
	SnapshotKey string
	SnapshotTTL time.Duration
}

// RunHistoryService records finished runs and publishes the best timetable.
// Either store may be nil when the matching backend is disabled.
type RunHistoryService struct {
	runs      RunStore
	snapshots SnapshotStore
	cfg       RunHistoryConfig
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewRunHistoryService constructs the service.
func NewRunHistoryService(runs RunStore, snapshots SnapshotStore, cfg RunHistoryConfig, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *RunHistoryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SnapshotKey == "" {
		cfg.SnapshotKey = "ctt:best"
	}
	return &RunHistoryService{runs: runs, snapshots: snapshots, cfg: cfg, validator: validate, metrics: metrics, logger: logger}
}

// Record persists the run summary and, when a best solution exists, its snapshot.
func (s *RunHistoryService) Record(ctx context.Context, summary *dto.RunSummary, best *models.Solution) error {
	if s.runs != nil {
		start := time.Now()
		err := s.runs.Create(ctx, solverRunFromSummary(summary))
		s.metrics.ObserveDBQuery("solver_runs_insert", time.Since(start))
		if err != nil {
			return err
		}
	}
	if s.snapshots != nil && best != nil {
		start := time.Now()
		err := s.snapshots.SaveBest(ctx, s.cfg.SnapshotKey, NewSolutionSnapshot(summary, best), s.cfg.SnapshotTTL)
		s.metrics.ObserveCacheWrite(time.Since(start))
		if err != nil {
			return err
		}
	}
	s.logger.Sugar().Debugw("run recorded", "run_id", summary.RunID)
	return nil
}

// List returns recent runs matching query.
func (s *RunHistoryService) List(ctx context.Context, query dto.RunHistoryQuery) ([]models.SolverRun, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query")
	}
	if s.runs == nil {
		return []models.SolverRun{}, nil
	}
	start := time.Now()
	runs, err := s.runs.ListRecent(ctx, query.Instance, query.Limit)
	s.metrics.ObserveDBQuery("solver_runs_list", time.Since(start))
	return runs, err
}

// Best returns the last published snapshot.
func (s *RunHistoryService) Best(ctx context.Context) (*dto.SolutionSnapshot, error) {
	if s.snapshots == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "snapshot store disabled")
	}
	snapshot, err := s.snapshots.GetBest(ctx, s.cfg.SnapshotKey)
	if err != nil {
		if appErrors.FromError(err).Code == appErrors.ErrCacheMiss.Code {
			return nil, appErrors.Clone(appErrors.ErrNoBestYet, "")
		}
		return nil, err
	}
	return snapshot, nil
}

func solverRunFromSummary(summary *dto.RunSummary) *models.SolverRun {
	run := &models.SolverRun{
		ID:               summary.RunID,
		Instance:         summary.Instance,
		Generations:      summary.Generations,
		GeneratorSuccess: summary.GeneratorSuccess,
		GeneratorFailure: summary.GeneratorFailure,
		BreederSuccess:   summary.BreederSuccess,
		BreederFailure:   summary.BreederFailure,
		Eliminated:       summary.Eliminated,
		Cancelled:        summary.Cancelled,
		DurationMs:       summary.Duration.Milliseconds(),
		StartedAt:        summary.StartedAt,
	}
	if summary.BestPenalty != nil {
		run.BestPenalty = sql.NullInt64{Int64: int64(*summary.BestPenalty), Valid: true}
	}
	if summary.BestFairness != nil {
		run.BestFairness = sql.NullInt64{Int64: int64(*summary.BestFairness), Valid: true}
	}
	return run
}
