package service

import (
	"math/rand"

	"github.com/noah-isme/ctt-evolver/internal/models"
)

// RoomPeriodMutation moves one lecture to another free cell that keeps the
// timetable feasible.
type RoomPeriodMutation struct {
	Attempts int
}

// Mutate changes solution in place and reports whether a lecture moved.
func (m RoomPeriodMutation) Mutate(rng *rand.Rand, solution *models.Solution) bool {
	occupied := make([]models.Position, 0)
	for period, row := range solution.Coding() {
		for room, course := range row {
			if course != nil {
				occupied = append(occupied, models.Position{Period: period, Room: room})
			}
		}
	}
	if len(occupied) == 0 {
		return false
	}

	attempts := m.Attempts
	if attempts <= 0 {
		attempts = 20
	}
	from := occupied[rng.Intn(len(occupied))]
	course := solution.At(from.Period, from.Room)
	for i := 0; i < attempts; i++ {
		period := rng.Intn(solution.Periods())
		room := rng.Intn(solution.Rooms())
		if period == from.Period && room == from.Room {
			continue
		}
		if !canPlace(solution, course, period, room, &from) {
			continue
		}
		solution.Set(from.Period, from.Room, nil)
		solution.Set(period, room, course)
		return true
	}
	return false
}
