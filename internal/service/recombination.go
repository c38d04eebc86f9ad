package service

import (
	"fmt"
	"math/rand"

	"github.com/noah-isme/ctt-evolver/internal/models"
	appErrors "github.com/noah-isme/ctt-evolver/pkg/errors"
)

// NeighborhoodRecombination merges two parents by filling the gaps of the
// first with lectures of the second, moving existing lectures rather than
// inventing new ones.
type NeighborhoodRecombination struct{}

// Recombine returns a child derived from parent1. Gaps of parent1 that
// parent2 fills with course X are handled as follows:
//   - no curriculum and no teacher clash in the period: a random existing
//     lecture of X moves into the gap;
//   - both clashes: the course Y in the period sharing X's teacher and
//     curricula moves to X's old cell, X takes the gap, Y's cell empties;
//   - only one clash: the gap stays empty.
func (NeighborhoodRecombination) Recombine(rng *rand.Rand, parent1, parent2 *models.Solution) (*models.Solution, error) {
	if parent1 == nil || parent2 == nil {
		return nil, appErrors.Clone(appErrors.ErrShapeMismatch, "both parents are required")
	}
	if !parent1.SameShape(parent2) {
		return nil, appErrors.Clone(appErrors.ErrShapeMismatch,
			fmt.Sprintf("parents differ in shape: %dx%d vs %dx%d", parent1.Periods(), parent1.Rooms(), parent2.Periods(), parent2.Rooms()))
	}

	child := parent1.Clone()
	coding := child.Coding()
	donor := parent2.Coding()

	for period := range coding {
		for room := range coding[period] {
			course := donor[period][room]
			if coding[period][room] != nil || course == nil {
				continue
			}

			sameCurriculum := curriculumClashInPeriod(coding[period], course)
			sameTeacher := teacherClashInPeriod(coding[period], course)

			switch {
			case !sameCurriculum && !sameTeacher:
				from, ok := pickPosition(rng, child.PositionsOf(course))
				if !ok {
					continue
				}
				coding[from.Period][from.Room] = nil
				coding[period][room] = course
			case sameCurriculum && sameTeacher:
				twin, ok := twinInPeriod(coding[period], course)
				if !ok {
					continue
				}
				from, ok := pickPosition(rng, child.PositionsOf(course))
				if !ok {
					continue
				}
				displaced := coding[period][twin]
				coding[from.Period][from.Room] = displaced
				coding[period][room] = course
				coding[period][twin] = nil
			}
		}
	}
	return child, nil
}

func curriculumClashInPeriod(row []*models.Course, course *models.Course) bool {
	for _, placed := range row {
		if placed != nil && placed.SharesCurriculum(course) {
			return true
		}
	}
	return false
}

func teacherClashInPeriod(row []*models.Course, course *models.Course) bool {
	for _, placed := range row {
		if placed != nil && placed.SameTeacher(course) {
			return true
		}
	}
	return false
}

// twinInPeriod finds the room of a course sharing the teacher and exactly the curricula of course.
func twinInPeriod(row []*models.Course, course *models.Course) (int, bool) {
	for room, placed := range row {
		if placed != nil && placed.SameTeacher(course) && placed.SameCurricula(course) {
			return room, true
		}
	}
	return -1, false
}

// pickPosition chooses uniformly; a single candidate is returned without consulting rng.
func pickPosition(rng *rand.Rand, positions []models.Position) (models.Position, bool) {
	switch len(positions) {
	case 0:
		return models.Position{}, false
	case 1:
		return positions[0], true
	}
	return positions[rng.Intn(len(positions))], true
}
