package models

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// UnavailabilityConstraint forbids a course from being taught in one period.
type UnavailabilityConstraint struct {
	CourseID string `json:"course_id" validate:"required"`
	Day      int    `json:"day" validate:"gte=0"`
	Period   int    `json:"period" validate:"gte=0"`
}

// ProblemInstance is the read-only description of a timetabling problem.
type ProblemInstance struct {
	Name           string                     `json:"name"`
	Days           int                        `json:"days" validate:"gte=1"`
	PeriodsPerDay  int                        `json:"periods_per_day" validate:"gte=1"`
	Rooms          []*Room                    `json:"rooms" validate:"min=1,dive,required"`
	Courses        []*Course                  `json:"courses" validate:"dive,required"`
	Curricula      []*Curriculum              `json:"curricula" validate:"dive,required"`
	Unavailability []UnavailabilityConstraint `json:"unavailability" validate:"dive"`

	unavailable map[string]map[int]bool
}

// Validate checks structural invariants and builds the unavailability index.
func (p *ProblemInstance) Validate() error {
	if err := validator.New().Struct(p); err != nil {
		return err
	}
	courses := make(map[string]bool, len(p.Courses))
	for _, course := range p.Courses {
		if courses[course.ID] {
			return fmt.Errorf("duplicate course %s", course.ID)
		}
		courses[course.ID] = true
	}
	curricula := make(map[string]bool, len(p.Curricula))
	for _, curriculum := range p.Curricula {
		if curricula[curriculum.ID] {
			return fmt.Errorf("duplicate curriculum %s", curriculum.ID)
		}
		curricula[curriculum.ID] = true
	}
	for _, course := range p.Courses {
		seen := make(map[string]bool, len(course.Curricula))
		for _, id := range course.Curricula {
			if seen[id] {
				return fmt.Errorf("course %s lists curriculum %s twice", course.ID, id)
			}
			seen[id] = true
		}
	}
	for _, constraint := range p.Unavailability {
		if !courses[constraint.CourseID] {
			return fmt.Errorf("unavailability references unknown course %s", constraint.CourseID)
		}
		if constraint.Day >= p.Days || constraint.Period >= p.PeriodsPerDay {
			return fmt.Errorf("unavailability for %s outside of %dx%d grid", constraint.CourseID, p.Days, p.PeriodsPerDay)
		}
	}
	p.indexUnavailability()
	return nil
}

// NumberOfPeriods is Days * PeriodsPerDay.
func (p *ProblemInstance) NumberOfPeriods() int {
	return p.Days * p.PeriodsPerDay
}

func (p *ProblemInstance) NumberOfRooms() int {
	return len(p.Rooms)
}

func (p *ProblemInstance) NumberOfCurricula() int {
	return len(p.Curricula)
}

// DayOf maps an absolute period index to its day.
func (p *ProblemInstance) DayOf(period int) int {
	return period / p.PeriodsPerDay
}

// RoomByIndex returns the room for a grid column, or nil when out of range.
func (p *ProblemInstance) RoomByIndex(index int) *Room {
	if index < 0 || index >= len(p.Rooms) {
		return nil
	}
	return p.Rooms[index]
}

func (p *ProblemInstance) RoomByID(id string) *Room {
	for _, room := range p.Rooms {
		if room.ID == id {
			return room
		}
	}
	return nil
}

func (p *ProblemInstance) CourseByID(id string) *Course {
	for _, course := range p.Courses {
		if course.ID == id {
			return course
		}
	}
	return nil
}

// IsUnavailable reports whether the course may not be taught in the absolute period.
func (p *ProblemInstance) IsUnavailable(courseID string, period int) bool {
	if p.unavailable != nil {
		return p.unavailable[courseID][period]
	}
	for _, constraint := range p.Unavailability {
		if constraint.CourseID == courseID && constraint.Day*p.PeriodsPerDay+constraint.Period == period {
			return true
		}
	}
	return false
}

func (p *ProblemInstance) indexUnavailability() {
	index := make(map[string]map[int]bool, len(p.Unavailability))
	for _, constraint := range p.Unavailability {
		if index[constraint.CourseID] == nil {
			index[constraint.CourseID] = make(map[int]bool)
		}
		index[constraint.CourseID][constraint.Day*p.PeriodsPerDay+constraint.Period] = true
	}
	p.unavailable = index
}
