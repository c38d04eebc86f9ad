package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/noah-isme/ctt-evolver/internal/models"
)

const minWorkingDaysWeight = 5

// solutionVoter is the part of the solution table the evaluator writes to.
type solutionVoter interface {
	NotVotedSolutions() []*models.Solution
	AddPenaltyToSolution(solution *models.Solution, points int) error
	AddFairnessToSolution(solution *models.Solution, fairness int) error
}

// SolutionScore is the evaluation of one timetable.
type SolutionScore struct {
	Curricula []int
	Penalty   int
	Fairness  int
}

// EvaluatorService scores unvoted solutions on soft constraints and fairness.
type EvaluatorService struct {
	table   solutionVoter
	workers int
	logger  *zap.Logger
}

// NewEvaluatorService wires the evaluator to a solution table.
func NewEvaluatorService(table solutionVoter, workers int, logger *zap.Logger) *EvaluatorService {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EvaluatorService{table: table, workers: workers, logger: logger}
}

// EvaluateSolutions scores every solution the table reports as not voted and
// returns how many were scored. Each goroutine owns a single solution.
func (s *EvaluatorService) EvaluateSolutions(ctx context.Context) (int, error) {
	start := time.Now()
	pending := s.table.NotVotedSolutions()

	p := pool.New().WithErrors().WithMaxGoroutines(s.workers)
	for _, solution := range pending {
		solution := solution
		p.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return s.submit(solution, s.Score(solution))
		})
	}
	if err := p.Wait(); err != nil {
		return 0, fmt.Errorf("evaluate solutions: %w", err)
	}

	s.logger.Sugar().Debugw("evaluation pass finished", "scored", len(pending), "duration", time.Since(start))
	return len(pending), nil
}

func (s *EvaluatorService) submit(solution *models.Solution, score SolutionScore) error {
	for _, cost := range score.Curricula {
		if err := s.table.AddPenaltyToSolution(solution, cost); err != nil {
			return err
		}
	}
	return s.table.AddFairnessToSolution(solution, score.Fairness)
}

// Score evaluates a solution without touching the table.
func (s *EvaluatorService) Score(solution *models.Solution) SolutionScore {
	instance := solution.Instance()
	costs := make([]int, 0, instance.NumberOfCurricula())
	total := 0
	for _, curriculum := range instance.Curricula {
		cost := costsOnRoomCapacity(solution, curriculum) +
			costsOnMinWorkingDays(solution, curriculum) +
			costsOnCompactnessAndRoomStability(solution, curriculum)
		costs = append(costs, cost)
		total += cost
	}
	return SolutionScore{Curricula: costs, Penalty: total, Fairness: fairness(costs)}
}

// firstInPeriod returns the first room holding a course of the curriculum.
func firstInPeriod(row []*models.Course, curriculum *models.Curriculum) (int, *models.Course) {
	for room, course := range row {
		if course != nil && curriculum.Contains(course) {
			return room, course
		}
	}
	return -1, nil
}

// costsOnRoomCapacity charges one point per student above room capacity.
// At most one course of a curriculum sits in any period.
func costsOnRoomCapacity(solution *models.Solution, curriculum *models.Curriculum) int {
	instance := solution.Instance()
	cost := 0
	for _, row := range solution.Coding() {
		room, course := firstInPeriod(row, curriculum)
		if course == nil {
			continue
		}
		if over := course.Students - instance.RoomByIndex(room).Capacity; over > 0 {
			cost += over
		}
	}
	return cost
}

// costsOnMinWorkingDays charges five points per day below a course's minimum.
func costsOnMinWorkingDays(solution *models.Solution, curriculum *models.Curriculum) int {
	instance := solution.Instance()
	coding := solution.Coding()
	cost := 0
	for _, course := range curriculum.Courses {
		workingDays := 0
		for day := 0; day < instance.Days; day++ {
			if taughtOnDay(coding, course, day, instance.PeriodsPerDay) {
				workingDays++
			}
		}
		if workingDays < course.MinWorkingDays {
			cost += (course.MinWorkingDays - workingDays) * minWorkingDaysWeight
		}
	}
	return cost
}

func taughtOnDay(coding [][]*models.Course, course *models.Course, day, periodsPerDay int) bool {
	for period := day * periodsPerDay; period < (day+1)*periodsPerDay && period < len(coding); period++ {
		for _, cell := range coding[period] {
			if cell != nil && cell.Equal(course) {
				return true
			}
		}
	}
	return false
}

// costsOnCompactnessAndRoomStability walks each day: a follow-up lecture not
// adjacent to the previous one costs 2, a room change costs 1.
func costsOnCompactnessAndRoomStability(solution *models.Solution, curriculum *models.Curriculum) int {
	instance := solution.Instance()
	coding := solution.Coding()
	cost := 0
	for day := 0; day < instance.Days; day++ {
		previousPeriod, previousRoom := -1, -1
		for period := day * instance.PeriodsPerDay; period < (day+1)*instance.PeriodsPerDay; period++ {
			room, course := firstInPeriod(coding[period], curriculum)
			if course == nil {
				continue
			}
			if previousPeriod != -1 {
				if previousPeriod != period-1 {
					cost += 2
				}
				if room != previousRoom {
					cost++
				}
			}
			previousPeriod, previousRoom = period, room
		}
	}
	return cost
}

// fairness is |(max-avg) - (avg-min)| over per-curriculum penalties, with
// integer average.
func fairness(costs []int) int {
	if len(costs) == 0 {
		return 0
	}
	maxPenalty, minPenalty, sum := costs[0], costs[0], 0
	for _, cost := range costs {
		if cost > maxPenalty {
			maxPenalty = cost
		}
		if cost < minPenalty {
			minPenalty = cost
		}
		sum += cost
	}
	avg := sum / len(costs)
	spread := (maxPenalty - avg) - (avg - minPenalty)
	if spread < 0 {
		return -spread
	}
	return spread
}
