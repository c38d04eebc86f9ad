package service

import (
	"bytes"
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/ctt-evolver/internal/models"
	"github.com/noah-isme/ctt-evolver/pkg/ctt"
)

const solutionFileSuffix = ".sol"

// fileSource lists and reads files of one directory.
type fileSource interface {
	List(suffix string) ([]string, error)
	Read(filename string) ([]byte, error)
}

// InitialSolutionService preloads timetables from a directory of .sol files
// into empty table slots before the first generation.
type InitialSolutionService struct {
	source fileSource
	table  solutionSeeder
	logger *zap.Logger
}

// NewInitialSolutionService wires a solution directory to the table.
func NewInitialSolutionService(source fileSource, table solutionSeeder, logger *zap.Logger) *InitialSolutionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InitialSolutionService{source: source, table: table, logger: logger}
}

// SeedInitialSolutions places every readable, violation free solution of the
// directory into an empty slot and returns how many were placed. Unreadable
// or infeasible files are skipped.
func (s *InitialSolutionService) SeedInitialSolutions(ctx context.Context, instance *models.ProblemInstance) (int, error) {
	names, err := s.source.List(solutionFileSuffix)
	if err != nil {
		return 0, err
	}
	log := s.logger.Sugar().With("instance", instance.Name)

	slots := s.table.EmptySlots()
	placed := 0
	for i, name := range names {
		if err := ctx.Err(); err != nil {
			return placed, err
		}
		if placed == len(slots) {
			log.Warnw("solution table full, ignoring remaining initial solutions", "ignored", len(names)-i)
			break
		}
		data, err := s.source.Read(name)
		if err != nil {
			return placed, err
		}
		solution, err := ctt.ReadSolution(bytes.NewReader(data), instance)
		if err != nil {
			log.Warnw("skipping unreadable initial solution", "file", name, "error", err)
			continue
		}
		if violations := ValidateSolution(solution); len(violations) > 0 {
			log.Warnw("skipping infeasible initial solution", "file", name, "violations", len(violations), "first", violations[0].Message)
			continue
		}
		if err := s.table.PutSolution(slots[placed], solution); err != nil {
			return placed, err
		}
		placed++
	}

	log.Infow("initial solutions loaded", "placed", placed, "files", len(names))
	return placed, nil
}
