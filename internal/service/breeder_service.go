package service

import (
	"context"
	"math/rand"
	"sync/atomic"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/noah-isme/ctt-evolver/internal/models"
)

// breedingTable is the part of the solution table the breeder uses.
type breedingTable interface {
	Ranked() []RankedSolution
	ReplaceWorstSolution(solution *models.Solution) int
}

type recombiner interface {
	Recombine(rng *rand.Rand, parent1, parent2 *models.Solution) (*models.Solution, error)
}

type mutator interface {
	Mutate(rng *rand.Rand, solution *models.Solution) bool
}

// BreederConfig tunes offspring production.
type BreederConfig struct {
	Offspring      int
	MutationRate   float64
	TournamentSize int
	Workers        int
	Seed           int64
}

// BreederStats counts feasible and rejected offspring.
type BreederStats struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
}

// BreederService recombines and mutates tabled solutions and inserts the
// feasible offspring in place of the worst ones.
type BreederService struct {
	table      breedingTable
	recombiner recombiner
	mutator    mutator
	cfg        BreederConfig
	logger     *zap.Logger
}

// NewBreederService wires the breeding operators.
func NewBreederService(table breedingTable, recomb recombiner, mut mutator, cfg BreederConfig, logger *zap.Logger) *BreederService {
	if recomb == nil {
		recomb = NeighborhoodRecombination{}
	}
	if mut == nil {
		mut = RoomPeriodMutation{}
	}
	if cfg.TournamentSize <= 0 {
		cfg.TournamentSize = 2
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BreederService{table: table, recombiner: recomb, mutator: mut, cfg: cfg, logger: logger}
}

// RecombineAndMutate breeds one generation of offspring. Children are built in
// parallel from a ranking snapshot, each with its own random source, and
// inserted sequentially afterwards.
func (s *BreederService) RecombineAndMutate(ctx context.Context, generation int) (BreederStats, error) {
	ranked := s.table.Ranked()
	if len(ranked) < 2 || s.cfg.Offspring <= 0 {
		return BreederStats{}, nil
	}

	var failures atomic.Int64
	p := pool.NewWithResults[*models.Solution]().WithErrors().WithContext(ctx).WithMaxGoroutines(s.cfg.Workers)
	for i := 0; i < s.cfg.Offspring; i++ {
		index := i
		p.Go(func(ctx context.Context) (*models.Solution, error) {
			rng := rand.New(rand.NewSource(seedFor(s.cfg.Seed, int64(generation), index, 0)))
			child, err := s.breed(rng, ranked)
			if err != nil {
				return nil, err
			}
			if violations := ValidateSolution(child); len(violations) > 0 {
				failures.Add(1)
				s.logger.Sugar().Debugw("offspring rejected", "generation", generation, "violations", len(violations), "first", violations[0].Message)
				return nil, nil
			}
			return child, nil
		})
	}
	children, err := p.Wait()
	if err != nil {
		return BreederStats{}, err
	}

	stats := BreederStats{Failure: int(failures.Load())}
	for _, child := range children {
		if child == nil {
			continue
		}
		s.table.ReplaceWorstSolution(child)
		stats.Success++
	}
	return stats, nil
}

func (s *BreederService) breed(rng *rand.Rand, ranked []RankedSolution) (*models.Solution, error) {
	first := tournament(rng, ranked, s.cfg.TournamentSize)
	second := tournament(rng, ranked, s.cfg.TournamentSize)
	for attempts := 0; second == first && attempts < 4; attempts++ {
		second = tournament(rng, ranked, s.cfg.TournamentSize)
	}
	child, err := s.recombiner.Recombine(rng, ranked[first].Solution, ranked[second].Solution)
	if err != nil {
		return nil, err
	}
	if rng.Float64() < s.cfg.MutationRate {
		s.mutator.Mutate(rng, child)
	}
	return child, nil
}

// tournament samples size entries and returns the index of the best; ranked is ordered best first.
func tournament(rng *rand.Rand, ranked []RankedSolution, size int) int {
	best := rng.Intn(len(ranked))
	for i := 1; i < size; i++ {
		if candidate := rng.Intn(len(ranked)); candidate < best {
			best = candidate
		}
	}
	return best
}
