package service

import (
	"fmt"
	"sort"
	"sync"

	"github.com/noah-isme/ctt-evolver/internal/models"
	appErrors "github.com/noah-isme/ctt-evolver/pkg/errors"
)

// TableSize is the fixed number of slots in the solution table.
const TableSize = 100

// solutionVote tracks the scores of one tabled solution. Nil scores mean
// the evaluator has not visited the solution yet.
type solutionVote struct {
	mu       sync.Mutex
	solution *models.Solution
	penalty  *int
	fairness *int
}

func (v *solutionVote) scores() (penalty, fairness *int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return copyScore(v.penalty), copyScore(v.fairness)
}

// bestVote is an immutable snapshot; the best solution survives eviction of its slot.
type bestVote struct {
	solution *models.Solution
	penalty  int
	fairness int
}

// RankedSolution is a scored slot as returned by Ranked.
type RankedSolution struct {
	Slot     int
	Solution *models.Solution
	Penalty  int
	Fairness int
}

// TableSummary aggregates the table for reporting.
type TableSummary struct {
	Occupied         int  `json:"occupied"`
	Voted            int  `json:"voted"`
	BestPenalty      *int `json:"best_penalty,omitempty"`
	BestFairness     *int `json:"best_fairness,omitempty"`
	WorstPenalty     *int `json:"worst_penalty,omitempty"`
	WorstFairness    *int `json:"worst_fairness,omitempty"`
	FairestPenalty   *int `json:"fairest_penalty,omitempty"`
	FairestFairness  *int `json:"fairest_fairness,omitempty"`
	UnfairestPenalty *int `json:"unfairest_penalty,omitempty"`
	UnfairestFair    *int `json:"unfairest_fairness,omitempty"`
}

// SolutionTable is the bounded population of candidate timetables.
//
// Lock order: bestMu before any vote mutex; the slot lock is never held
// while waiting on bestMu.
type SolutionTable struct {
	mu    sync.RWMutex
	slots [TableSize]*solutionVote

	bestMu sync.Mutex
	best   *bestVote
}

// NewSolutionTable constructs an empty table.
func NewSolutionTable() *SolutionTable {
	return &SolutionTable{}
}

// CreateNewSolution validates the coding against the instance and wraps it.
func (t *SolutionTable) CreateNewSolution(coding [][]*models.Course, instance *models.ProblemInstance) (*models.Solution, error) {
	return models.NewSolution(coding, instance)
}

// GetSolution returns the solution in slot, or nil when the slot is empty.
func (t *SolutionTable) GetSolution(slot int) (*models.Solution, error) {
	if err := checkSlot(slot); err != nil {
		return nil, err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if vote := t.slots[slot]; vote != nil {
		return vote.solution, nil
	}
	return nil, nil
}

// PutSolution installs a solution in slot with unset scores.
func (t *SolutionTable) PutSolution(slot int, solution *models.Solution) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	t.mu.Lock()
	t.slots[slot] = &solutionVote{solution: solution}
	t.mu.Unlock()
	return nil
}

// AddPenaltyToSolution adds points to the solution's running penalty sum.
func (t *SolutionTable) AddPenaltyToSolution(solution *models.Solution, points int) error {
	vote, err := t.voteFor(solution)
	if err != nil {
		return err
	}
	vote.mu.Lock()
	defer vote.mu.Unlock()
	sum := points
	if vote.penalty != nil {
		sum += *vote.penalty
	}
	vote.penalty = &sum
	return nil
}

// AddPenaltyToSlot is AddPenaltyToSolution addressed by slot.
func (t *SolutionTable) AddPenaltyToSlot(slot int, points int) error {
	vote, err := t.voteAt(slot)
	if err != nil {
		return err
	}
	return t.AddPenaltyToSolution(vote.solution, points)
}

// AddFairnessToSolution overwrites the solution's fairness and re-evaluates
// the best solution: lower penalty wins, fairness breaks ties.
func (t *SolutionTable) AddFairnessToSolution(solution *models.Solution, fairness int) error {
	vote, err := t.voteFor(solution)
	if err != nil {
		return err
	}

	t.bestMu.Lock()
	defer t.bestMu.Unlock()

	vote.mu.Lock()
	value := fairness
	vote.fairness = &value
	if vote.penalty == nil {
		zero := 0
		vote.penalty = &zero
	}
	current := bestVote{solution: vote.solution, penalty: *vote.penalty, fairness: value}
	vote.mu.Unlock()

	if t.best == nil || better(current, *t.best) {
		t.best = &current
	}
	return nil
}

// AddFairnessToSlot is AddFairnessToSolution addressed by slot.
func (t *SolutionTable) AddFairnessToSlot(slot int, fairness int) error {
	vote, err := t.voteAt(slot)
	if err != nil {
		return err
	}
	return t.AddFairnessToSolution(vote.solution, fairness)
}

func better(candidate, incumbent bestVote) bool {
	if candidate.penalty != incumbent.penalty {
		return candidate.penalty < incumbent.penalty
	}
	return candidate.fairness < incumbent.fairness
}

// PenaltySum returns the accumulated penalty, or nil when not yet scored.
func (t *SolutionTable) PenaltySum(solution *models.Solution) (*int, error) {
	vote, err := t.voteFor(solution)
	if err != nil {
		return nil, err
	}
	penalty, _ := vote.scores()
	return penalty, nil
}

// Fairness returns the submitted fairness, or nil when not yet scored.
func (t *SolutionTable) Fairness(solution *models.Solution) (*int, error) {
	vote, err := t.voteFor(solution)
	if err != nil {
		return nil, err
	}
	_, fairness := vote.scores()
	return fairness, nil
}

// BestSolution returns the best solution seen so far, or nil.
func (t *SolutionTable) BestSolution() *models.Solution {
	t.bestMu.Lock()
	defer t.bestMu.Unlock()
	if t.best == nil {
		return nil
	}
	return t.best.solution
}

func (t *SolutionTable) BestPenalty() (int, error) {
	t.bestMu.Lock()
	defer t.bestMu.Unlock()
	if t.best == nil {
		return 0, appErrors.Clone(appErrors.ErrNoBestYet, "")
	}
	return t.best.penalty, nil
}

func (t *SolutionTable) BestFairness() (int, error) {
	t.bestMu.Lock()
	defer t.bestMu.Unlock()
	if t.best == nil {
		return 0, appErrors.Clone(appErrors.ErrNoBestYet, "")
	}
	return t.best.fairness, nil
}

// ReplaceWorstSolution overwrites the slot with the highest penalty (first
// slot wins ties, unscored slots never count as worse than scored ones) and
// returns it. An empty table receives the solution in slot 0.
func (t *SolutionTable) ReplaceWorstSolution(solution *models.Solution) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	worstSlot := -1
	worstPenalty := 0
	for slot, vote := range t.slots {
		if vote == nil {
			continue
		}
		penalty, _ := vote.scores()
		if worstSlot == -1 {
			worstSlot = slot
			worstPenalty = penaltyOrMinusOne(penalty)
			continue
		}
		if value := penaltyOrMinusOne(penalty); value > worstPenalty {
			worstSlot = slot
			worstPenalty = value
		}
	}
	if worstSlot == -1 {
		worstSlot = 0
	}
	t.slots[worstSlot] = &solutionVote{solution: solution}
	return worstSlot
}

// NotVotedSolutions lists solutions without a penalty, in slot order.
func (t *SolutionTable) NotVotedSolutions() []*models.Solution {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]*models.Solution, 0)
	for _, vote := range t.slots {
		if vote == nil {
			continue
		}
		if penalty, _ := vote.scores(); penalty == nil {
			result = append(result, vote.solution)
		}
	}
	return result
}

// EmptySlots lists the slots without a solution, in ascending order.
func (t *SolutionTable) EmptySlots() []int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]int, 0)
	for slot, vote := range t.slots {
		if vote == nil {
			result = append(result, slot)
		}
	}
	return result
}

// Count returns the number of occupied slots.
func (t *SolutionTable) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	count := 0
	for _, vote := range t.slots {
		if vote != nil {
			count++
		}
	}
	return count
}

// Ranked returns the fully scored slots ordered best first.
func (t *SolutionTable) Ranked() []RankedSolution {
	t.mu.RLock()
	ranked := make([]RankedSolution, 0, TableSize)
	for slot, vote := range t.slots {
		if vote == nil {
			continue
		}
		penalty, fairness := vote.scores()
		if penalty == nil || fairness == nil {
			continue
		}
		ranked = append(ranked, RankedSolution{Slot: slot, Solution: vote.solution, Penalty: *penalty, Fairness: *fairness})
	}
	t.mu.RUnlock()

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Penalty == ranked[j].Penalty {
			return ranked[i].Fairness < ranked[j].Fairness
		}
		return ranked[i].Penalty < ranked[j].Penalty
	})
	return ranked
}

// Summary reports best, worst, fairest and unfairest scores among tabled solutions.
// The best entry reflects the best solution ever seen, which may have been evicted.
func (t *SolutionTable) Summary() TableSummary {
	summary := TableSummary{Occupied: t.Count()}
	ranked := t.Ranked()
	summary.Voted = len(ranked)

	t.bestMu.Lock()
	if t.best != nil {
		summary.BestPenalty = intPtr(t.best.penalty)
		summary.BestFairness = intPtr(t.best.fairness)
	}
	t.bestMu.Unlock()

	if len(ranked) == 0 {
		return summary
	}
	worst := ranked[len(ranked)-1]
	summary.WorstPenalty = intPtr(worst.Penalty)
	summary.WorstFairness = intPtr(worst.Fairness)

	fairest, unfairest := ranked[0], ranked[0]
	for _, entry := range ranked[1:] {
		if entry.Fairness < fairest.Fairness || (entry.Fairness == fairest.Fairness && entry.Penalty < fairest.Penalty) {
			fairest = entry
		}
		if entry.Fairness > unfairest.Fairness || (entry.Fairness == unfairest.Fairness && entry.Penalty > unfairest.Penalty) {
			unfairest = entry
		}
	}
	summary.FairestPenalty = intPtr(fairest.Penalty)
	summary.FairestFairness = intPtr(fairest.Fairness)
	summary.UnfairestPenalty = intPtr(unfairest.Penalty)
	summary.UnfairestFair = intPtr(unfairest.Fairness)
	return summary
}

// Clear empties every slot and forgets the best solution.
func (t *SolutionTable) Clear() {
	t.bestMu.Lock()
	t.best = nil
	t.bestMu.Unlock()

	t.mu.Lock()
	t.slots = [TableSize]*solutionVote{}
	t.mu.Unlock()
}

// voteFor finds the vote holding exactly this solution pointer.
func (t *SolutionTable) voteFor(solution *models.Solution) (*solutionVote, error) {
	if solution != nil {
		t.mu.RLock()
		defer t.mu.RUnlock()
		for _, vote := range t.slots {
			if vote != nil && vote.solution == solution {
				return vote, nil
			}
		}
	}
	return nil, appErrors.Clone(appErrors.ErrCandidateNotTracked, "")
}

func (t *SolutionTable) voteAt(slot int) (*solutionVote, error) {
	if err := checkSlot(slot); err != nil {
		return nil, err
	}
	t.mu.RLock()
	vote := t.slots[slot]
	t.mu.RUnlock()
	if vote == nil {
		return nil, appErrors.Clone(appErrors.ErrCandidateNotTracked, fmt.Sprintf("slot %d holds no solution", slot))
	}
	return vote, nil
}

func checkSlot(slot int) error {
	if slot < 0 || slot >= TableSize {
		return appErrors.Clone(appErrors.ErrSlotOutOfRange,
			fmt.Sprintf("solution table slots only range from 0 to %d, got %d", TableSize-1, slot))
	}
	return nil
}

func penaltyOrMinusOne(penalty *int) int {
	if penalty == nil {
		return -1
	}
	return *penalty
}

func copyScore(value *int) *int {
	if value == nil {
		return nil
	}
	return intPtr(*value)
}

func intPtr(value int) *int {
	return &value
}
