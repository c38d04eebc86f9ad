package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/ctt-evolver/internal/models"
)

func violationTypes(violations []Violation) []string {
	types := make([]string, 0, len(violations))
	for _, v := range violations {
		types = append(types, v.Type)
	}
	return types
}

func TestValidateSolutionFeasible(t *testing.T) {
	instance := newTestInstance(t)
	assert.Empty(t, ValidateSolution(newFeasibleSolution(t, instance)))
}

func TestValidateSolutionReportsViolations(t *testing.T) {
	instance := newTestInstance(t)
	math, physics, art := instance.CourseByID("math"), instance.CourseByID("physics"), instance.CourseByID("art")

	curriculumClash := newEmptySolution(t, instance)
	curriculumClash.Set(0, 0, math)
	curriculumClash.Set(0, 1, physics)
	curriculumClash.Set(1, 0, art)
	curriculumClash.Set(3, 0, math)
	assert.Equal(t, []string{ViolationCurriculum}, violationTypes(ValidateSolution(curriculumClash)))

	unavailable := newFeasibleSolution(t, instance)
	unavailable.Set(3, 0, nil)
	unavailable.Set(2, 0, math)
	assert.Equal(t, []string{ViolationUnavailability}, violationTypes(ValidateSolution(unavailable)))

	missing := newFeasibleSolution(t, instance)
	missing.Set(0, 1, nil)
	violations := ValidateSolution(missing)
	assert.Equal(t, []string{ViolationLectures}, violationTypes(violations))
	assert.Equal(t, "art", violations[0].CourseID)
}

func TestValidateSolutionTeacherClash(t *testing.T) {
	instance := newTestInstance(t)
	art := instance.CourseByID("art")
	art.TeacherID = "t1"

	solution := newFeasibleSolution(t, instance)
	assert.Equal(t, []string{ViolationTeacher}, violationTypes(ValidateSolution(solution)))
}

func TestCanPlace(t *testing.T) {
	instance := newTestInstance(t)
	solution := newFeasibleSolution(t, instance)
	math, art := instance.CourseByID("math"), instance.CourseByID("art")

	assert.False(t, canPlace(solution, art, 0, 1, nil), "occupied cell")
	assert.False(t, canPlace(solution, math, 2, 1, nil), "unavailable period")
	assert.False(t, canPlace(solution, art, 1, 1, nil), "shares c2 with physics")
	assert.True(t, canPlace(solution, art, 3, 1, nil))

	assert.False(t, canPlace(solution, math, 3, 1, nil), "math already taught in period 3")
	assert.True(t, canPlace(solution, math, 3, 1, &models.Position{Period: 3, Room: 0}))
}
