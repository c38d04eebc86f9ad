package ctt

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/noah-isme/ctt-evolver/internal/models"
)

// WriteSolution emits one "course room day period" line per scheduled lecture,
// in period then room order.
func WriteSolution(w io.Writer, solution *models.Solution) error {
	instance := solution.Instance()
	buf := bufio.NewWriter(w)
	for period, row := range solution.Coding() {
		day := instance.DayOf(period)
		slot := period % instance.PeriodsPerDay
		for room, course := range row {
			if course == nil {
				continue
			}
			if _, err := fmt.Fprintf(buf, "%s %s %d %d\n", course.ID, instance.Rooms[room].ID, day, slot); err != nil {
				return fmt.Errorf("write solution line: %w", err)
			}
		}
	}
	if err := buf.Flush(); err != nil {
		return fmt.Errorf("flush solution: %w", err)
	}
	return nil
}

// ReadSolution parses a solution file back into a timetable for instance.
func ReadSolution(r io.Reader, instance *models.ProblemInstance) (*models.Solution, error) {
	solution, err := models.NewSolution(models.EmptyCoding(instance), instance)
	if err != nil {
		return nil, err
	}
	roomIndex := make(map[string]int, len(instance.Rooms))
	for i, room := range instance.Rooms {
		roomIndex[room.ID] = i
	}

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 4 {
			return nil, fmt.Errorf("line %d: expected 4 fields, got %d", line, len(fields))
		}
		course := instance.CourseByID(fields[0])
		if course == nil {
			return nil, fmt.Errorf("line %d: unknown course %s", line, fields[0])
		}
		room, ok := roomIndex[fields[1]]
		if !ok {
			return nil, fmt.Errorf("line %d: unknown room %s", line, fields[1])
		}
		day, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: day: %w", line, err)
		}
		slot, err := strconv.Atoi(fields[3])
		if err != nil {
			return nil, fmt.Errorf("line %d: period: %w", line, err)
		}
		if day < 0 || day >= instance.Days || slot < 0 || slot >= instance.PeriodsPerDay {
			return nil, fmt.Errorf("line %d: day %d period %d outside of grid", line, day, slot)
		}
		period := day*instance.PeriodsPerDay + slot
		if solution.At(period, room) != nil {
			return nil, fmt.Errorf("line %d: room %s already taken in day %d period %d", line, fields[1], day, slot)
		}
		solution.Set(period, room, course)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan solution: %w", err)
	}
	return solution, nil
}
