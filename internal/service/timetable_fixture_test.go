package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ctt-evolver/internal/models"
)

// newTestInstance is a 2 day x 2 period grid with rooms A(30) and B(10).
// math (t1, c1) has two lectures and is unavailable on day 1 period 0,
// physics (t2, c1+c2) and art (t3, c2) have one lecture each.
func newTestInstance(t *testing.T) *models.ProblemInstance {
	t.Helper()
	math := &models.Course{ID: "math", TeacherID: "t1", Lectures: 2, MinWorkingDays: 2, Students: 30, Curricula: []string{"c1"}}
	physics := &models.Course{ID: "physics", TeacherID: "t2", Lectures: 1, MinWorkingDays: 1, Students: 20, Curricula: []string{"c1", "c2"}}
	art := &models.Course{ID: "art", TeacherID: "t3", Lectures: 1, MinWorkingDays: 1, Students: 5, Curricula: []string{"c2"}}
	instance := &models.ProblemInstance{
		Name:          "toy",
		Days:          2,
		PeriodsPerDay: 2,
		Rooms:         []*models.Room{{ID: "A", Capacity: 30}, {ID: "B", Capacity: 10}},
		Courses:       []*models.Course{math, physics, art},
		Curricula: []*models.Curriculum{
			{ID: "c1", Courses: []*models.Course{math, physics}},
			{ID: "c2", Courses: []*models.Course{physics, art}},
		},
		Unavailability: []models.UnavailabilityConstraint{{CourseID: "math", Day: 1, Period: 0}},
	}
	require.NoError(t, instance.Validate())
	return instance
}

func newEmptySolution(t *testing.T, instance *models.ProblemInstance) *models.Solution {
	t.Helper()
	solution, err := models.NewSolution(models.EmptyCoding(instance), instance)
	require.NoError(t, err)
	return solution
}

// newFeasibleSolution hand-places a timetable that satisfies every hard constraint.
func newFeasibleSolution(t *testing.T, instance *models.ProblemInstance) *models.Solution {
	t.Helper()
	solution := newEmptySolution(t, instance)
	solution.Set(0, 0, instance.CourseByID("math"))
	solution.Set(0, 1, instance.CourseByID("art"))
	solution.Set(1, 0, instance.CourseByID("physics"))
	solution.Set(3, 0, instance.CourseByID("math"))
	return solution
}
