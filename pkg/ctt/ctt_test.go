package ctt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const toyCTT = `Name: Toy
Courses: 3
Rooms: 2
Days: 2
Periods_per_day: 2
Curricula: 2
Constraints: 2

COURSES:
math t1 2 2 30
physics t2 1 1 20
art t1 1 1 10

ROOMS:
A 30
B 10

CURRICULA:
c1 2 math physics
c2 2 physics art

UNAVAILABILITY_CONSTRAINTS:
math 1 0
art 0 1

END.
`

func TestReadInstance(t *testing.T) {
	instance, err := ReadInstance(strings.NewReader(toyCTT))
	require.NoError(t, err)

	assert.Equal(t, "Toy", instance.Name)
	assert.Equal(t, 2, instance.Days)
	assert.Equal(t, 2, instance.PeriodsPerDay)
	assert.Equal(t, 4, instance.NumberOfPeriods())
	require.Len(t, instance.Courses, 3)
	require.Len(t, instance.Rooms, 2)
	require.Len(t, instance.Curricula, 2)

	physics := instance.CourseByID("physics")
	require.NotNil(t, physics)
	assert.Equal(t, []string{"c1", "c2"}, physics.Curricula)
	assert.Same(t, physics, instance.Curricula[1].Courses[0])

	assert.True(t, instance.IsUnavailable("math", 2))
	assert.True(t, instance.IsUnavailable("art", 1))
	assert.False(t, instance.IsUnavailable("math", 0))
}

func TestReadInstanceRejectsMalformedInput(t *testing.T) {
	cases := map[string]string{
		"count mismatch":   strings.Replace(toyCTT, "Courses: 3", "Courses: 4", 1),
		"unknown course":   strings.Replace(toyCTT, "c2 2 physics art", "c2 2 physics music", 1),
		"bad number":       strings.Replace(toyCTT, "A 30", "A thirty", 1),
		"unknown header":   strings.Replace(toyCTT, "Days: 2", "Weeks: 2", 1),
		"curriculum size":  strings.Replace(toyCTT, "c1 2 math physics", "c1 3 math physics", 1),
		"constraint range": strings.Replace(toyCTT, "math 1 0", "math 5 0", 1),
		"repeated course":  strings.Replace(toyCTT, "c1 2 math physics", "c1 2 math math", 1),
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ReadInstance(strings.NewReader(input))
			assert.Error(t, err)
		})
	}
}

func TestWriteAndReadSolution(t *testing.T) {
	instance, err := ReadInstance(strings.NewReader(toyCTT))
	require.NoError(t, err)

	solution, err := ReadSolution(strings.NewReader("math A 0 0\nphysics B 0 1\nmath A 1 1\nart B 1 0\n"), instance)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteSolution(&buf, solution))
	assert.Equal(t, "math A 0 0\nphysics B 0 1\nart B 1 0\nmath A 1 1\n", buf.String())

	again, err := ReadSolution(&buf, instance)
	require.NoError(t, err)
	assert.Equal(t, solution.Occurrences(), again.Occurrences())
}

func TestReadSolutionRejectsConflicts(t *testing.T) {
	instance, err := ReadInstance(strings.NewReader(toyCTT))
	require.NoError(t, err)

	_, err = ReadSolution(strings.NewReader("math A 0 0\nart A 0 0\n"), instance)
	assert.Error(t, err)

	_, err = ReadSolution(strings.NewReader("math Z 0 0\n"), instance)
	assert.Error(t, err)

	_, err = ReadSolution(strings.NewReader("math A 3 0\n"), instance)
	assert.Error(t, err)
}
