package service

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/ctt-evolver/internal/models"
	"github.com/noah-isme/ctt-evolver/pkg/ctt"
	"github.com/noah-isme/ctt-evolver/pkg/storage"
)

func writeSolutionFile(t *testing.T, dir, name string, solution *models.Solution) {
	t.Helper()
	buf := &bytes.Buffer{}
	require.NoError(t, ctt.WriteSolution(buf, solution))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644))
}

// initialSolutionDir holds one feasible timetable, one that uses an
// unavailable period, one with a missing lecture and one unparsable file.
func initialSolutionDir(t *testing.T, instance *models.ProblemInstance) (string, *models.Solution) {
	t.Helper()
	dir := t.TempDir()

	feasible := newFeasibleSolution(t, instance)
	writeSolutionFile(t, dir, "a_feasible.sol", feasible)

	unavailable := newFeasibleSolution(t, instance)
	unavailable.Set(3, 0, nil)
	unavailable.Set(2, 0, instance.CourseByID("math"))
	writeSolutionFile(t, dir, "b_unavailable.sol", unavailable)

	missing := newFeasibleSolution(t, instance)
	missing.Set(0, 1, nil)
	writeSolutionFile(t, dir, "c_missing.sol", missing)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "d_broken.sol"), []byte("math A\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))
	return dir, feasible
}

func TestSeedInitialSolutionsKeepsOnlyFeasibleFiles(t *testing.T) {
	instance := newTestInstance(t)
	dir, feasible := initialSolutionDir(t, instance)
	source, err := storage.OpenLocalStorage(dir)
	require.NoError(t, err)

	table := NewSolutionTable()
	loader := NewInitialSolutionService(source, table, zap.NewNop())

	placed, err := loader.SeedInitialSolutions(context.Background(), instance)
	require.NoError(t, err)
	assert.Equal(t, 1, placed)
	assert.Equal(t, 1, table.Count())

	loaded, err := table.GetSolution(0)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, feasible.Coding(), loaded.Coding())
	assert.Empty(t, ValidateSolution(loaded))
}

func TestSeedInitialSolutionsThenGeneratorFillsTheRest(t *testing.T) {
	instance := newTestInstance(t)
	dir, feasible := initialSolutionDir(t, instance)
	source, err := storage.OpenLocalStorage(dir)
	require.NoError(t, err)

	table := NewSolutionTable()
	placed, err := NewInitialSolutionService(source, table, nil).SeedInitialSolutions(context.Background(), instance)
	require.NoError(t, err)
	require.Equal(t, 1, placed)

	generator := NewGeneratorService(table, GeneratorConfig{Workers: 4, Seed: 5}, zap.NewNop())
	stats, err := generator.FillSolutionTable(context.Background(), instance)
	require.NoError(t, err)
	assert.Equal(t, TableSize-1, stats.Success)
	assert.Empty(t, table.EmptySlots())

	loaded, err := table.GetSolution(0)
	require.NoError(t, err)
	assert.Equal(t, feasible.Coding(), loaded.Coding())
}

func TestSeedInitialSolutionsStopsWhenTableIsFull(t *testing.T) {
	instance := newTestInstance(t)
	dir, _ := initialSolutionDir(t, instance)
	source, err := storage.OpenLocalStorage(dir)
	require.NoError(t, err)

	table := NewSolutionTable()
	for slot := 0; slot < TableSize; slot++ {
		require.NoError(t, table.PutSolution(slot, newFeasibleSolution(t, instance)))
	}

	placed, err := NewInitialSolutionService(source, table, nil).SeedInitialSolutions(context.Background(), instance)
	require.NoError(t, err)
	assert.Zero(t, placed)
}

func TestEnginePreloadsInitialSolutions(t *testing.T) {
	instance := newTestInstance(t)
	dir, _ := initialSolutionDir(t, instance)
	source, err := storage.OpenLocalStorage(dir)
	require.NoError(t, err)

	table := NewSolutionTable()
	recorder := &phaseRecorder{}
	engine := NewEngineService(EngineDeps{
		Table:      table,
		Preloader:  NewInitialSolutionService(source, table, nil),
		Generator:  recorder,
		Evaluator:  recorder,
		Breeder:    recorder,
		Eliminator: recorder,
		Logger:     zap.NewNop(),
	}, 1)

	summary, err := engine.Run(context.Background(), instance)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.InitialSolutions)
	assert.Equal(t, 1, table.Count())
}
