package service

import (
	"context"
	"math"
	"math/rand"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/noah-isme/ctt-evolver/internal/models"
)

// eliminationTable is the part of the solution table the eliminator rewrites.
type eliminationTable interface {
	Ranked() []RankedSolution
	PutSolution(slot int, solution *models.Solution) error
}

// EliminatorConfig tunes how much of the table is refreshed per generation.
type EliminatorConfig struct {
	Rate              float64
	PlacementAttempts int
	Seed              int64
}

// EliminatorService replaces the weakest scored solutions with fresh
// timetables so the population keeps some diversity.
type EliminatorService struct {
	table  eliminationTable
	cfg    EliminatorConfig
	logger *zap.Logger
	rounds atomic.Int64
}

// NewEliminatorService wires the eliminator to a solution table.
func NewEliminatorService(table eliminationTable, cfg EliminatorConfig, logger *zap.Logger) *EliminatorService {
	if cfg.PlacementAttempts <= 0 {
		cfg.PlacementAttempts = 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EliminatorService{table: table, cfg: cfg, logger: logger}
}

// EliminateSolutions overwrites the worst ceil(rate × voted) ranked slots and
// returns how many were replaced. The best ranked slot is never touched.
func (s *EliminatorService) EliminateSolutions(ctx context.Context, instance *models.ProblemInstance) (int, error) {
	ranked := s.table.Ranked()
	victims := eliminationCount(s.cfg.Rate, len(ranked))
	if victims == 0 {
		return 0, nil
	}
	round := s.rounds.Add(1)

	replaced := 0
	for i := len(ranked) - 1; i >= len(ranked)-victims; i-- {
		if err := ctx.Err(); err != nil {
			return replaced, err
		}
		slot := ranked[i].Slot
		rng := rand.New(rand.NewSource(seedFor(s.cfg.Seed, round, slot, 0)))
		solution, err := BuildSolution(rng, instance, s.cfg.PlacementAttempts)
		if err != nil {
			s.logger.Sugar().Debugw("eliminator could not rebuild slot", "slot", slot, "error", err)
			continue
		}
		if err := s.table.PutSolution(slot, solution); err != nil {
			return replaced, err
		}
		replaced++
	}
	return replaced, nil
}

// eliminationCount keeps at least the best entry alive.
func eliminationCount(rate float64, voted int) int {
	if rate <= 0 || voted < 2 {
		return 0
	}
	count := int(math.Ceil(rate * float64(voted)))
	if count > voted-1 {
		count = voted - 1
	}
	return count
}
