package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/ctt-evolver/internal/dto"
	"github.com/noah-isme/ctt-evolver/internal/models"
	appErrors "github.com/noah-isme/ctt-evolver/pkg/errors"
)

type solutionGenerator interface {
	FillSolutionTable(ctx context.Context, instance *models.ProblemInstance) (GeneratorStats, error)
}

type solutionEvaluator interface {
	EvaluateSolutions(ctx context.Context) (int, error)
}

type solutionBreeder interface {
	RecombineAndMutate(ctx context.Context, generation int) (BreederStats, error)
}

type solutionEliminator interface {
	EliminateSolutions(ctx context.Context, instance *models.ProblemInstance) (int, error)
}

type solutionPreloader interface {
	SeedInitialSolutions(ctx context.Context, instance *models.ProblemInstance) (int, error)
}

// engineTable is the part of the solution table the driver reads.
type engineTable interface {
	Clear()
	Summary() TableSummary
	BestSolution() *models.Solution
}

// EngineService drives the generation cycle: fill, evaluate, breed,
// evaluate, eliminate.
type EngineService struct {
	table      engineTable
	preloader  solutionPreloader
	generator  solutionGenerator
	evaluator  solutionEvaluator
	breeder    solutionBreeder
	eliminator solutionEliminator
	metrics    *MetricsService
	logger     *zap.Logger
	iterations int

	mu       sync.RWMutex
	progress dto.RunProgress
}

// EngineDeps groups the collaborators of the engine. Preloader is optional.
type EngineDeps struct {
	Table      engineTable
	Preloader  solutionPreloader
	Generator  solutionGenerator
	Evaluator  solutionEvaluator
	Breeder    solutionBreeder
	Eliminator solutionEliminator
	Metrics    *MetricsService
	Logger     *zap.Logger
}

// NewEngineService constructs the driver.
func NewEngineService(deps EngineDeps, iterations int) *EngineService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EngineService{
		table:      deps.Table,
		preloader:  deps.Preloader,
		generator:  deps.Generator,
		evaluator:  deps.Evaluator,
		breeder:    deps.Breeder,
		eliminator: deps.Eliminator,
		metrics:    deps.Metrics,
		logger:     logger,
		iterations: iterations,
	}
}

// Run executes the configured number of generations against instance. A
// cancelled context stops the run between phases; the summary still reports
// what was reached.
func (s *EngineService) Run(ctx context.Context, instance *models.ProblemInstance) (*dto.RunSummary, error) {
	if instance == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "problem instance is required")
	}
	summary := &dto.RunSummary{
		RunID:     uuid.NewString(),
		Instance:  instance.Name,
		StartedAt: time.Now().UTC(),
	}
	s.table.Clear()
	s.setProgress(dto.RunProgress{RunID: summary.RunID, Instance: instance.Name, Running: true, Iterations: s.iterations})
	defer s.finish(summary)

	log := s.logger.Sugar().With("run_id", summary.RunID, "instance", instance.Name)
	log.Infow("solver run started", "iterations", s.iterations)

	if s.preloader != nil {
		placed, err := s.preloader.SeedInitialSolutions(ctx, instance)
		summary.InitialSolutions = placed
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				summary.Cancelled = true
				log.Warnw("solver run cancelled while loading initial solutions")
				return summary, nil
			}
			log.Errorw("loading initial solutions failed", "error", err)
			return summary, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load initial solutions")
		}
	}

	for generation := 1; generation <= s.iterations; generation++ {
		eliminated, err := s.generation(ctx, instance, generation, summary)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				summary.Cancelled = true
				log.Warnw("solver run cancelled", "generation", generation)
				return summary, nil
			}
			log.Errorw("solver run failed", "generation", generation, "error", err)
			return summary, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "solver run failed")
		}
		summary.Generations = generation

		tableSummary := s.table.Summary()
		s.metrics.RecordGeneration(tableSummary, eliminated)
		s.updateProgress(generation, tableSummary)
		log.Infow("generation complete",
			"generation", generation,
			"best_penalty", tableSummary.BestPenalty,
			"best_fairness", tableSummary.BestFairness,
			"fairest_penalty", tableSummary.FairestPenalty,
			"fairest_fairness", tableSummary.FairestFairness,
			"worst_penalty", tableSummary.WorstPenalty,
			"unfairest_fairness", tableSummary.UnfairestFair,
		)
	}

	log.Infow("solver run finished", "generations", summary.Generations)
	return summary, nil
}

// generation runs one cycle and returns how many entries the eliminator replaced.
func (s *EngineService) generation(ctx context.Context, instance *models.ProblemInstance, generation int, summary *dto.RunSummary) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	start := time.Now()
	seeded, err := s.generator.FillSolutionTable(ctx, instance)
	summary.GeneratorSuccess += seeded.Success
	summary.GeneratorFailure += seeded.Failure
	s.metrics.RecordSeeding(seeded)
	s.metrics.ObservePhase("generate", time.Since(start))
	if err != nil {
		return 0, err
	}

	if err := s.evaluate(ctx); err != nil {
		return 0, err
	}

	start = time.Now()
	bred, err := s.breeder.RecombineAndMutate(ctx, generation)
	summary.BreederSuccess += bred.Success
	summary.BreederFailure += bred.Failure
	s.metrics.RecordBreeding(bred)
	s.metrics.ObservePhase("breed", time.Since(start))
	if err != nil {
		return 0, err
	}

	if err := s.evaluate(ctx); err != nil {
		return 0, err
	}

	start = time.Now()
	eliminated, err := s.eliminator.EliminateSolutions(ctx, instance)
	summary.Eliminated += eliminated
	s.metrics.ObservePhase("eliminate", time.Since(start))
	return eliminated, err
}

func (s *EngineService) evaluate(ctx context.Context) error {
	start := time.Now()
	_, err := s.evaluator.EvaluateSolutions(ctx)
	s.metrics.ObservePhase("evaluate", time.Since(start))
	return err
}

func (s *EngineService) finish(summary *dto.RunSummary) {
	summary.Duration = time.Since(summary.StartedAt)
	tableSummary := s.table.Summary()
	summary.BestPenalty = tableSummary.BestPenalty
	summary.BestFairness = tableSummary.BestFairness

	s.mu.Lock()
	s.progress.Running = false
	s.progress.BestPenalty = tableSummary.BestPenalty
	s.progress.BestFairness = tableSummary.BestFairness
	s.mu.Unlock()
}

func (s *EngineService) setProgress(progress dto.RunProgress) {
	s.mu.Lock()
	s.progress = progress
	s.mu.Unlock()
}

func (s *EngineService) updateProgress(generation int, summary TableSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress.Generation = generation
	s.progress.Occupied = summary.Occupied
	s.progress.Voted = summary.Voted
	s.progress.BestPenalty = summary.BestPenalty
	s.progress.BestFairness = summary.BestFairness
	s.progress.WorstPenalty = summary.WorstPenalty
	s.progress.FairestPenalty = summary.FairestPenalty
	s.progress.FairestFair = summary.FairestFairness
}

// Progress returns a copy of the live run status.
func (s *EngineService) Progress() dto.RunProgress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.progress
}

// TableSummary reports the scores held by the table of the current or last run.
func (s *EngineService) TableSummary() TableSummary {
	return s.table.Summary()
}

// BestSolution returns the best timetable of the current or last run.
func (s *EngineService) BestSolution() *models.Solution {
	return s.table.BestSolution()
}
