package models

import (
	"fmt"

	appErrors "github.com/noah-isme/ctt-evolver/pkg/errors"
)

// Solution is a candidate timetable: a periods x rooms grid where each cell
// holds nil (empty) or the course taught there.
type Solution struct {
	instance *ProblemInstance
	coding   [][]*Course
}

// NewSolution validates the coding against the instance dimensions.
func NewSolution(coding [][]*Course, instance *ProblemInstance) (*Solution, error) {
	if instance == nil {
		return nil, appErrors.Clone(appErrors.ErrShapeMismatch, "problem instance is required")
	}
	periods := instance.NumberOfPeriods()
	if len(coding) != periods {
		return nil, appErrors.Clone(appErrors.ErrShapeMismatch,
			fmt.Sprintf("period dimension %d does not match %d periods of the problem instance", len(coding), periods))
	}
	rooms := instance.NumberOfRooms()
	for period, row := range coding {
		if len(row) != rooms {
			return nil, appErrors.Clone(appErrors.ErrShapeMismatch,
				fmt.Sprintf("room dimension %d does not match %d rooms of the problem instance in period %d", len(row), rooms, period))
		}
	}
	return &Solution{instance: instance, coding: coding}, nil
}

// EmptyCoding allocates a grid sized for the instance.
func EmptyCoding(instance *ProblemInstance) [][]*Course {
	coding := make([][]*Course, instance.NumberOfPeriods())
	for period := range coding {
		coding[period] = make([]*Course, instance.NumberOfRooms())
	}
	return coding
}

func (s *Solution) Instance() *ProblemInstance {
	return s.instance
}

// Coding exposes the underlying grid; callers owning the solution may mutate it.
func (s *Solution) Coding() [][]*Course {
	return s.coding
}

func (s *Solution) Periods() int {
	return len(s.coding)
}

func (s *Solution) Rooms() int {
	if len(s.coding) == 0 {
		return 0
	}
	return len(s.coding[0])
}

func (s *Solution) At(period, room int) *Course {
	return s.coding[period][room]
}

func (s *Solution) Set(period, room int, course *Course) {
	s.coding[period][room] = course
}

// SameShape reports whether both grids have identical dimensions.
func (s *Solution) SameShape(other *Solution) bool {
	if other == nil || len(s.coding) != len(other.coding) {
		return false
	}
	for period := range s.coding {
		if len(s.coding[period]) != len(other.coding[period]) {
			return false
		}
	}
	return true
}

// Clone deep-copies the grid; course pointers are shared.
func (s *Solution) Clone() *Solution {
	coding := make([][]*Course, len(s.coding))
	for period, row := range s.coding {
		coding[period] = make([]*Course, len(row))
		copy(coding[period], row)
	}
	return &Solution{instance: s.instance, coding: coding}
}

// Position addresses one grid cell.
type Position struct {
	Period int
	Room   int
}

// PositionsOf lists every cell holding the course, in scan order.
func (s *Solution) PositionsOf(course *Course) []Position {
	var positions []Position
	for period, row := range s.coding {
		for room, cell := range row {
			if cell != nil && cell.Equal(course) {
				positions = append(positions, Position{Period: period, Room: room})
			}
		}
	}
	return positions
}

// Occurrences counts cells per course ID.
func (s *Solution) Occurrences() map[string]int {
	counts := make(map[string]int)
	for _, row := range s.coding {
		for _, cell := range row {
			if cell != nil {
				counts[cell.ID]++
			}
		}
	}
	return counts
}
