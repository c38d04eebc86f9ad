// Package ctt reads ITC-2007 curriculum-based course timetabling instances
// and reads and writes their solution files.
package ctt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/noah-isme/ctt-evolver/internal/models"
)

type section int

const (
	sectionHeader section = iota
	sectionCourses
	sectionRooms
	sectionCurricula
	sectionUnavailability
	sectionEnd
)

var sectionMarkers = map[string]section{
	"COURSES:":                    sectionCourses,
	"ROOMS:":                      sectionRooms,
	"CURRICULA:":                  sectionCurricula,
	"UNAVAILABILITY_CONSTRAINTS:": sectionUnavailability,
	"END.":                        sectionEnd,
}

type header struct {
	courses, rooms, curricula, constraints int
}

// ReadInstanceFile opens path and parses it with ReadInstance.
func ReadInstanceFile(path string) (*models.ProblemInstance, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open instance: %w", err)
	}
	defer file.Close() //nolint:errcheck
	return ReadInstance(file)
}

// ReadInstance parses a .ctt document. The returned instance is validated and indexed.
func ReadInstance(r io.Reader) (*models.ProblemInstance, error) {
	instance := &models.ProblemInstance{}
	var (
		counts  header
		current = sectionHeader
		line    int
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if next, ok := sectionMarkers[text]; ok {
			current = next
			continue
		}
		if current == sectionEnd {
			break
		}

		var err error
		switch current {
		case sectionHeader:
			err = parseHeader(text, instance, &counts)
		case sectionCourses:
			err = parseCourse(text, instance)
		case sectionRooms:
			err = parseRoom(text, instance)
		case sectionCurricula:
			err = parseCurriculum(text, instance)
		case sectionUnavailability:
			err = parseUnavailability(text, instance)
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan instance: %w", err)
	}

	if err := checkCounts(instance, counts); err != nil {
		return nil, err
	}
	if err := instance.Validate(); err != nil {
		return nil, fmt.Errorf("invalid instance %s: %w", instance.Name, err)
	}
	return instance, nil
}

func parseHeader(text string, instance *models.ProblemInstance, counts *header) error {
	key, value, ok := strings.Cut(text, ":")
	if !ok {
		return fmt.Errorf("malformed header %q", text)
	}
	value = strings.TrimSpace(value)
	if key == "Name" {
		instance.Name = value
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("header %s: %w", key, err)
	}
	switch key {
	case "Courses":
		counts.courses = n
	case "Rooms":
		counts.rooms = n
	case "Days":
		instance.Days = n
	case "Periods_per_day":
		instance.PeriodsPerDay = n
	case "Curricula":
		counts.curricula = n
	case "Constraints":
		counts.constraints = n
	default:
		return fmt.Errorf("unknown header %q", key)
	}
	return nil
}

func parseCourse(text string, instance *models.ProblemInstance) error {
	fields := strings.Fields(text)
	if len(fields) != 5 {
		return fmt.Errorf("course needs 5 fields, got %d", len(fields))
	}
	numbers, err := atoiAll(fields[2:])
	if err != nil {
		return fmt.Errorf("course %s: %w", fields[0], err)
	}
	instance.Courses = append(instance.Courses, &models.Course{
		ID:             fields[0],
		TeacherID:      fields[1],
		Lectures:       numbers[0],
		MinWorkingDays: numbers[1],
		Students:       numbers[2],
	})
	return nil
}

func parseRoom(text string, instance *models.ProblemInstance) error {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return fmt.Errorf("room needs 2 fields, got %d", len(fields))
	}
	capacity, err := strconv.Atoi(fields[1])
	if err != nil {
		return fmt.Errorf("room %s: %w", fields[0], err)
	}
	instance.Rooms = append(instance.Rooms, &models.Room{ID: fields[0], Capacity: capacity})
	return nil
}

func parseCurriculum(text string, instance *models.ProblemInstance) error {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return fmt.Errorf("curriculum needs at least 2 fields, got %d", len(fields))
	}
	size, err := strconv.Atoi(fields[1])
	if err != nil {
		return fmt.Errorf("curriculum %s: %w", fields[0], err)
	}
	if len(fields) != size+2 {
		return fmt.Errorf("curriculum %s declares %d courses, lists %d", fields[0], size, len(fields)-2)
	}
	curriculum := &models.Curriculum{ID: fields[0]}
	for _, courseID := range fields[2:] {
		course := instance.CourseByID(courseID)
		if course == nil {
			return fmt.Errorf("curriculum %s references unknown course %s", curriculum.ID, courseID)
		}
		if curriculum.Contains(course) {
			return fmt.Errorf("curriculum %s lists course %s twice", curriculum.ID, courseID)
		}
		course.Curricula = append(course.Curricula, curriculum.ID)
		curriculum.Courses = append(curriculum.Courses, course)
	}
	instance.Curricula = append(instance.Curricula, curriculum)
	return nil
}

func parseUnavailability(text string, instance *models.ProblemInstance) error {
	fields := strings.Fields(text)
	if len(fields) != 3 {
		return fmt.Errorf("constraint needs 3 fields, got %d", len(fields))
	}
	numbers, err := atoiAll(fields[1:])
	if err != nil {
		return fmt.Errorf("constraint for %s: %w", fields[0], err)
	}
	instance.Unavailability = append(instance.Unavailability, models.UnavailabilityConstraint{
		CourseID: fields[0],
		Day:      numbers[0],
		Period:   numbers[1],
	})
	return nil
}

func checkCounts(instance *models.ProblemInstance, counts header) error {
	switch {
	case counts.courses != len(instance.Courses):
		return fmt.Errorf("header declares %d courses, found %d", counts.courses, len(instance.Courses))
	case counts.rooms != len(instance.Rooms):
		return fmt.Errorf("header declares %d rooms, found %d", counts.rooms, len(instance.Rooms))
	case counts.curricula != len(instance.Curricula):
		return fmt.Errorf("header declares %d curricula, found %d", counts.curricula, len(instance.Curricula))
	case counts.constraints != len(instance.Unavailability):
		return fmt.Errorf("header declares %d constraints, found %d", counts.constraints, len(instance.Unavailability))
	}
	return nil
}

func atoiAll(fields []string) ([]int, error) {
	numbers := make([]int, len(fields))
	for i, field := range fields {
		n, err := strconv.Atoi(field)
		if err != nil {
			return nil, err
		}
		numbers[i] = n
	}
	return numbers, nil
}
