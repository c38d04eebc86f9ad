package service

import (
	"fmt"
	"sort"

	"github.com/noah-isme/ctt-evolver/internal/models"
)

// Violation describes a broken hard constraint.
type Violation struct {
	Type     string `json:"type"`
	Period   int    `json:"period"`
	CourseID string `json:"course_id"`
	Message  string `json:"message"`
}

const (
	ViolationCurriculum     = "CURRICULUM_CLASH"
	ViolationTeacher        = "TEACHER_CLASH"
	ViolationUnavailability = "UNAVAILABLE_PERIOD"
	ViolationLectures       = "LECTURE_COUNT"
)

// ValidateSolution lists hard constraint violations; an empty result means feasible.
func ValidateSolution(solution *models.Solution) []Violation {
	instance := solution.Instance()
	var violations []Violation

	for period, row := range solution.Coding() {
		for room, course := range row {
			if course == nil {
				continue
			}
			if instance.IsUnavailable(course.ID, period) {
				violations = append(violations, Violation{
					Type: ViolationUnavailability, Period: period, CourseID: course.ID,
					Message: fmt.Sprintf("course %s is unavailable in period %d", course.ID, period),
				})
			}
			for other := room + 1; other < len(row); other++ {
				peer := row[other]
				if peer == nil {
					continue
				}
				if course.SharesCurriculum(peer) {
					violations = append(violations, Violation{
						Type: ViolationCurriculum, Period: period, CourseID: course.ID,
						Message: fmt.Sprintf("courses %s and %s share a curriculum in period %d", course.ID, peer.ID, period),
					})
				}
				if course.SameTeacher(peer) {
					violations = append(violations, Violation{
						Type: ViolationTeacher, Period: period, CourseID: course.ID,
						Message: fmt.Sprintf("courses %s and %s share teacher %s in period %d", course.ID, peer.ID, course.TeacherID, period),
					})
				}
			}
		}
	}

	counts := solution.Occurrences()
	courses := make([]*models.Course, len(instance.Courses))
	copy(courses, instance.Courses)
	sort.Slice(courses, func(i, j int) bool { return courses[i].ID < courses[j].ID })
	for _, course := range courses {
		if counts[course.ID] != course.Lectures {
			violations = append(violations, Violation{
				Type: ViolationLectures, Period: -1, CourseID: course.ID,
				Message: fmt.Sprintf("course %s scheduled %d times, expected %d", course.ID, counts[course.ID], course.Lectures),
			})
		}
	}
	return violations
}

// canPlace reports whether course may occupy the empty cell without
// breaking a hard constraint. ignore is a cell treated as empty, or nil.
func canPlace(solution *models.Solution, course *models.Course, period, room int, ignore *models.Position) bool {
	if solution.At(period, room) != nil {
		return false
	}
	if solution.Instance().IsUnavailable(course.ID, period) {
		return false
	}
	for other, placed := range solution.Coding()[period] {
		if placed == nil || (ignore != nil && ignore.Period == period && ignore.Room == other) {
			continue
		}
		if placed.SharesCurriculum(course) || placed.SameTeacher(course) || placed.Equal(course) {
			return false
		}
	}
	return true
}
