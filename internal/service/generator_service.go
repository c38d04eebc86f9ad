package service

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/ctt-evolver/internal/models"
	"github.com/noah-isme/ctt-evolver/pkg/jobs"
)

const seedJobType = "seed_solution"

// solutionSeeder is the part of the solution table the generator fills.
type solutionSeeder interface {
	EmptySlots() []int
	PutSolution(slot int, solution *models.Solution) error
}

// GeneratorConfig tunes the seeding pool.
type GeneratorConfig struct {
	Workers           int
	MaxRetries        int
	RetryDelay        time.Duration
	PlacementAttempts int
	Seed              int64
}

// GeneratorStats counts seeding outcomes.
type GeneratorStats struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
}

// GeneratorService seeds empty table slots with feasible timetables.
type GeneratorService struct {
	table  solutionSeeder
	cfg    GeneratorConfig
	logger *zap.Logger
	rounds atomic.Int64
}

// NewGeneratorService wires the generator to a solution table.
func NewGeneratorService(table solutionSeeder, cfg GeneratorConfig, logger *zap.Logger) *GeneratorService {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 10 * time.Millisecond
	}
	if cfg.PlacementAttempts <= 0 {
		cfg.PlacementAttempts = 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeneratorService{table: table, cfg: cfg, logger: logger}
}

type seedPayload struct {
	slot  int
	round int64
}

// FillSolutionTable seeds every empty slot on a worker pool and returns once
// each slot has either been filled or exhausted its retries.
func (s *GeneratorService) FillSolutionTable(ctx context.Context, instance *models.ProblemInstance) (GeneratorStats, error) {
	slots := s.table.EmptySlots()
	if len(slots) == 0 {
		return GeneratorStats{}, nil
	}
	round := s.rounds.Add(1)

	var (
		wg      sync.WaitGroup
		success atomic.Int64
		failure atomic.Int64
	)
	handler := func(_ context.Context, job jobs.Job) error {
		payload := job.Payload.(seedPayload)
		rng := rand.New(rand.NewSource(seedFor(s.cfg.Seed, payload.round, payload.slot, job.Attempt)))
		solution, err := BuildSolution(rng, instance, s.cfg.PlacementAttempts)
		if err != nil {
			return err
		}
		if err := s.table.PutSolution(payload.slot, solution); err != nil {
			return err
		}
		success.Add(1)
		wg.Done()
		return nil
	}
	queue := jobs.NewQueue("generator", handler, jobs.QueueConfig{
		Workers:    s.cfg.Workers,
		BufferSize: len(slots),
		MaxRetries: s.cfg.MaxRetries,
		RetryDelay: s.cfg.RetryDelay,
		Logger:     s.logger,
		OnDrop: func(jobs.Job, error) {
			failure.Add(1)
			wg.Done()
		},
	})
	queue.Start(ctx)
	defer queue.Stop()

	for _, slot := range slots {
		wg.Add(1)
		job := jobs.Job{ID: uuid.NewString(), Type: seedJobType, Payload: seedPayload{slot: slot, round: round}}
		if err := queue.Enqueue(job); err != nil {
			return GeneratorStats{Success: int(success.Load()), Failure: int(failure.Load())}, fmt.Errorf("enqueue seed job: %w", err)
		}
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
	if err := ctx.Err(); err != nil {
		return GeneratorStats{Success: int(success.Load()), Failure: int(failure.Load())}, err
	}

	stats := GeneratorStats{Success: int(success.Load()), Failure: int(failure.Load())}
	s.logger.Sugar().Debugw("generator filled table", "success", stats.Success, "failure", stats.Failure)
	return stats, nil
}

// BuildSolution constructs a feasible timetable by placing the lectures of
// the most constrained courses first, each in a random feasible free cell.
// It restarts from scratch up to attempts times.
func BuildSolution(rng *rand.Rand, instance *models.ProblemInstance, attempts int) (*models.Solution, error) {
	if attempts <= 0 {
		attempts = 1
	}
	courses := constrainedFirst(instance)

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		solution, err := models.NewSolution(models.EmptyCoding(instance), instance)
		if err != nil {
			return nil, err
		}
		lastErr = placeAll(rng, solution, courses)
		if lastErr == nil {
			return solution, nil
		}
	}
	return nil, fmt.Errorf("build solution after %d attempts: %w", attempts, lastErr)
}

func placeAll(rng *rand.Rand, solution *models.Solution, courses []*models.Course) error {
	for _, course := range courses {
		for lecture := 0; lecture < course.Lectures; lecture++ {
			free := make([]models.Position, 0)
			for period := 0; period < solution.Periods(); period++ {
				for room := 0; room < solution.Rooms(); room++ {
					if canPlace(solution, course, period, room, nil) {
						free = append(free, models.Position{Period: period, Room: room})
					}
				}
			}
			if len(free) == 0 {
				return fmt.Errorf("no feasible cell for lecture %d of course %s", lecture+1, course.ID)
			}
			cell := free[rng.Intn(len(free))]
			solution.Set(cell.Period, cell.Room, course)
		}
	}
	return nil
}

func constrainedFirst(instance *models.ProblemInstance) []*models.Course {
	blocked := make(map[string]int)
	for _, constraint := range instance.Unavailability {
		blocked[constraint.CourseID]++
	}
	courses := make([]*models.Course, len(instance.Courses))
	copy(courses, instance.Courses)
	sort.SliceStable(courses, func(i, j int) bool {
		wi := courses[i].Lectures + blocked[courses[i].ID] + len(courses[i].Curricula)
		wj := courses[j].Lectures + blocked[courses[j].ID] + len(courses[j].Curricula)
		if wi == wj {
			return courses[i].ID < courses[j].ID
		}
		return wi > wj
	})
	return courses
}

// seedFor derives an independent, reproducible seed per job.
func seedFor(base, round int64, slot, attempt int) int64 {
	if base == 0 {
		base = time.Now().UnixNano()
	}
	return base*1_000_003 + round*10_007 + int64(slot)*101 + int64(attempt)
}
