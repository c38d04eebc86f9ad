package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/ctt-evolver/internal/models"
	appErrors "github.com/noah-isme/ctt-evolver/pkg/errors"
)

type phaseRecorder struct {
	mu     sync.Mutex
	phases []string

	generateErr error
	breedErr    error
	onGenerate  func()
}

func (r *phaseRecorder) record(phase string) {
	r.mu.Lock()
	r.phases = append(r.phases, phase)
	r.mu.Unlock()
}

func (r *phaseRecorder) FillSolutionTable(context.Context, *models.ProblemInstance) (GeneratorStats, error) {
	r.record("generate")
	if r.onGenerate != nil {
		r.onGenerate()
	}
	return GeneratorStats{Success: 2, Failure: 1}, r.generateErr
}

func (r *phaseRecorder) EvaluateSolutions(context.Context) (int, error) {
	r.record("evaluate")
	return 0, nil
}

func (r *phaseRecorder) RecombineAndMutate(context.Context, int) (BreederStats, error) {
	r.record("breed")
	return BreederStats{Success: 3, Failure: 2}, r.breedErr
}

func (r *phaseRecorder) EliminateSolutions(context.Context, *models.ProblemInstance) (int, error) {
	r.record("eliminate")
	return 1, nil
}

func newRecordedEngine(recorder *phaseRecorder, metrics *MetricsService, iterations int) *EngineService {
	return NewEngineService(EngineDeps{
		Table:      NewSolutionTable(),
		Generator:  recorder,
		Evaluator:  recorder,
		Breeder:    recorder,
		Eliminator: recorder,
		Metrics:    metrics,
		Logger:     zap.NewNop(),
	}, iterations)
}

func TestEngineRunsPhasesInOrder(t *testing.T) {
	recorder := &phaseRecorder{}
	metrics := NewMetricsService()
	engine := newRecordedEngine(recorder, metrics, 2)

	summary, err := engine.Run(context.Background(), newTestInstance(t))
	require.NoError(t, err)

	cycle := []string{"generate", "evaluate", "breed", "evaluate", "eliminate"}
	assert.Equal(t, append(append([]string{}, cycle...), cycle...), recorder.phases)
	assert.Equal(t, 2, summary.Generations)
	assert.Equal(t, 4, summary.GeneratorSuccess)
	assert.Equal(t, 2, summary.GeneratorFailure)
	assert.Equal(t, 6, summary.BreederSuccess)
	assert.Equal(t, 4, summary.BreederFailure)
	assert.Equal(t, 2, summary.Eliminated)
	assert.False(t, summary.Cancelled)
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, "toy", summary.Instance)
	assert.Nil(t, summary.BestPenalty)

	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.generations))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.eliminated))

	progress := engine.Progress()
	assert.False(t, progress.Running)
	assert.Equal(t, 2, progress.Generation)
	assert.Equal(t, summary.RunID, progress.RunID)
}

func TestEngineRejectsNilInstance(t *testing.T) {
	engine := newRecordedEngine(&phaseRecorder{}, nil, 1)
	_, err := engine.Run(context.Background(), nil)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestEngineStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	recorder := &phaseRecorder{onGenerate: cancel, generateErr: context.Canceled}
	engine := newRecordedEngine(recorder, nil, 5)

	summary, err := engine.Run(ctx, newTestInstance(t))
	require.NoError(t, err)
	assert.True(t, summary.Cancelled)
	assert.Zero(t, summary.Generations)
	assert.Equal(t, []string{"generate"}, recorder.phases)
	assert.False(t, engine.Progress().Running)
}

func TestEngineSkipsGenerationWhenAlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	recorder := &phaseRecorder{}
	engine := newRecordedEngine(recorder, nil, 3)

	summary, err := engine.Run(ctx, newTestInstance(t))
	require.NoError(t, err)
	assert.True(t, summary.Cancelled)
	assert.Empty(t, recorder.phases)
}

func TestEngineWrapsPhaseFailures(t *testing.T) {
	recorder := &phaseRecorder{breedErr: errors.New("boom")}
	engine := newRecordedEngine(recorder, nil, 3)

	summary, err := engine.Run(context.Background(), newTestInstance(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInternal)
	assert.Zero(t, summary.Generations)
	assert.Equal(t, []string{"generate", "evaluate", "breed"}, recorder.phases)
}

func TestEngineSolvesToyInstance(t *testing.T) {
	instance := newTestInstance(t)
	table := NewSolutionTable()
	logger := zap.NewNop()
	engine := NewEngineService(EngineDeps{
		Table:      table,
		Generator:  NewGeneratorService(table, GeneratorConfig{Workers: 4, Seed: 17}, logger),
		Evaluator:  NewEvaluatorService(table, 4, logger),
		Breeder:    NewBreederService(table, nil, nil, BreederConfig{Offspring: 20, MutationRate: 0.3, Workers: 4, Seed: 17}, logger),
		Eliminator: NewEliminatorService(table, EliminatorConfig{Rate: 0.1, Seed: 17}, logger),
		Logger:     logger,
	}, 3)

	summary, err := engine.Run(context.Background(), instance)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Generations)
	assert.Equal(t, TableSize, summary.GeneratorSuccess)
	require.NotNil(t, summary.BestPenalty)
	require.NotNil(t, summary.BestFairness)

	best := engine.BestSolution()
	require.NotNil(t, best)
	assert.Empty(t, ValidateSolution(best))

	score := NewEvaluatorService(NewSolutionTable(), 1, logger).Score(best)
	assert.Equal(t, *summary.BestPenalty, score.Penalty)
}
