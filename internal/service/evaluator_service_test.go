package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/ctt-evolver/internal/models"
)

// singleCurriculum builds a one-curriculum instance over the given grid.
func singleCurriculum(t *testing.T, days, periodsPerDay int, rooms []*models.Room, courses ...*models.Course) (*models.ProblemInstance, *models.Curriculum) {
	t.Helper()
	curriculum := &models.Curriculum{ID: "cur", Courses: courses}
	for _, course := range courses {
		course.Curricula = []string{"cur"}
	}
	instance := &models.ProblemInstance{
		Name:          "single",
		Days:          days,
		PeriodsPerDay: periodsPerDay,
		Rooms:         rooms,
		Courses:       courses,
		Curricula:     []*models.Curriculum{curriculum},
	}
	require.NoError(t, instance.Validate())
	return instance, curriculum
}

func TestFairness(t *testing.T) {
	cases := []struct {
		name  string
		costs []int
		want  int
	}{
		{name: "empty", costs: nil, want: 0},
		{name: "balanced", costs: []int{10, 20, 30}, want: 0},
		{name: "skewed high", costs: []int{0, 10, 50}, want: 10},
		{name: "single", costs: []int{7}, want: 0},
		{name: "skewed low", costs: []int{0, 40, 50}, want: 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, fairness(tc.costs))
		})
	}
}

func TestCostsOnRoomCapacity(t *testing.T) {
	big := &models.Course{ID: "big", TeacherID: "t1", Lectures: 1, Students: 35}
	instance, curriculum := singleCurriculum(t, 1, 2, []*models.Room{{ID: "A", Capacity: 30}, {ID: "B", Capacity: 50}}, big)

	solution := newEmptySolution(t, instance)
	solution.Set(0, 0, big)
	assert.Equal(t, 5, costsOnRoomCapacity(solution, curriculum))

	roomy := newEmptySolution(t, instance)
	roomy.Set(1, 1, big)
	assert.Equal(t, 0, costsOnRoomCapacity(roomy, curriculum))
}

func TestCostsOnMinWorkingDays(t *testing.T) {
	course := &models.Course{ID: "spread", TeacherID: "t1", Lectures: 3, MinWorkingDays: 3, Students: 1}
	instance, curriculum := singleCurriculum(t, 3, 2, []*models.Room{{ID: "A", Capacity: 10}}, course)

	solution := newEmptySolution(t, instance)
	solution.Set(0, 0, course)
	solution.Set(1, 0, course)
	solution.Set(2, 0, course)
	assert.Equal(t, 5, costsOnMinWorkingDays(solution, curriculum))

	solution.Set(1, 0, nil)
	solution.Set(4, 0, course)
	assert.Equal(t, 0, costsOnMinWorkingDays(solution, curriculum))
}

func TestCostsOnCompactnessAndRoomStability(t *testing.T) {
	course := &models.Course{ID: "c", TeacherID: "t1", Lectures: 3, Students: 1}
	instance, curriculum := singleCurriculum(t, 2, 4, []*models.Room{{ID: "A", Capacity: 10}, {ID: "B", Capacity: 10}}, course)

	sameRoom := newEmptySolution(t, instance)
	sameRoom.Set(0, 0, course)
	sameRoom.Set(1, 0, course)
	sameRoom.Set(3, 0, course)
	assert.Equal(t, 2, costsOnCompactnessAndRoomStability(sameRoom, curriculum))

	roomChange := newEmptySolution(t, instance)
	roomChange.Set(0, 0, course)
	roomChange.Set(1, 0, course)
	roomChange.Set(3, 1, course)
	assert.Equal(t, 3, costsOnCompactnessAndRoomStability(roomChange, curriculum))

	acrossDays := newEmptySolution(t, instance)
	acrossDays.Set(3, 0, course)
	acrossDays.Set(4, 1, course)
	assert.Equal(t, 0, costsOnCompactnessAndRoomStability(acrossDays, curriculum))

	lastDay := newEmptySolution(t, instance)
	lastDay.Set(4, 0, course)
	lastDay.Set(7, 0, course)
	assert.Equal(t, 2, costsOnCompactnessAndRoomStability(lastDay, curriculum))
}

func TestEvaluatorScoresNotVotedSolutions(t *testing.T) {
	instance := newTestInstance(t)
	table := NewSolutionTable()
	feasible := newFeasibleSolution(t, instance)
	empty := newEmptySolution(t, instance)
	require.NoError(t, table.PutSolution(0, feasible))
	require.NoError(t, table.PutSolution(1, empty))

	evaluator := NewEvaluatorService(table, 2, zap.NewNop())
	scored, err := evaluator.EvaluateSolutions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, scored)
	assert.Empty(t, table.NotVotedSolutions())

	for _, solution := range []*models.Solution{feasible, empty} {
		want := evaluator.Score(solution)
		assert.Len(t, want.Curricula, 2)
		penalty, err := table.PenaltySum(solution)
		require.NoError(t, err)
		assert.Equal(t, want.Penalty, *penalty)
		fair, err := table.Fairness(solution)
		require.NoError(t, err)
		assert.Equal(t, want.Fairness, *fair)
	}

	again, err := evaluator.EvaluateSolutions(context.Background())
	require.NoError(t, err)
	assert.Zero(t, again)
}

func TestEvaluatorScoreOfFeasibleFixture(t *testing.T) {
	instance := newTestInstance(t)
	score := NewEvaluatorService(NewSolutionTable(), 1, nil).Score(newFeasibleSolution(t, instance))

	// c1: math(0,A) physics(1,A) math(3,A): day 0 adjacent same room, day 1 single.
	// physics 20 students in A(30) fits, math 30 in A fits, min days met.
	// c2: art(0,B) physics(1,A): adjacent, room change +1; art 5 in B(10) fits.
	assert.Equal(t, []int{0, 1}, score.Curricula)
	assert.Equal(t, 1, score.Penalty)
	// integer average 0: |(1-0) - (0-0)|
	assert.Equal(t, 1, score.Fairness)
}

func TestEvaluatorHonoursCancelledContext(t *testing.T) {
	instance := newTestInstance(t)
	table := NewSolutionTable()
	require.NoError(t, table.PutSolution(0, newEmptySolution(t, instance)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEvaluatorService(table, 1, nil).EvaluateSolutions(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
