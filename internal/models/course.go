package models

// Course is a lecture series taught by one teacher. Courses compare by ID only;
// clones of a timetable may carry distinct pointers to the same course.
type Course struct {
	ID             string   `json:"id" validate:"required"`
	TeacherID      string   `json:"teacher_id" validate:"required"`
	Lectures       int      `json:"lectures" validate:"gte=0"`
	MinWorkingDays int      `json:"min_working_days" validate:"gte=0"`
	Students       int      `json:"students" validate:"gte=0"`
	Curricula      []string `json:"curricula"`
}

// Equal reports whether both courses carry the same identifier.
func (c *Course) Equal(other *Course) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.ID == other.ID
}

// SameTeacher reports whether both courses are taught by the same teacher.
func (c *Course) SameTeacher(other *Course) bool {
	if c == nil || other == nil {
		return false
	}
	return c.TeacherID == other.TeacherID
}

// InCurriculum reports membership in the given curriculum.
func (c *Course) InCurriculum(curriculumID string) bool {
	for _, id := range c.Curricula {
		if id == curriculumID {
			return true
		}
	}
	return false
}

// SharesCurriculum reports whether the courses have at least one curriculum in common.
func (c *Course) SharesCurriculum(other *Course) bool {
	if c == nil || other == nil {
		return false
	}
	for _, id := range other.Curricula {
		if c.InCurriculum(id) {
			return true
		}
	}
	return false
}

// SameCurricula reports whether both courses belong to exactly the same set
// of curricula. Repeated IDs do not count twice.
func (c *Course) SameCurricula(other *Course) bool {
	if c == nil || other == nil {
		return false
	}
	mine, theirs := curriculumSet(c.Curricula), curriculumSet(other.Curricula)
	if len(mine) != len(theirs) {
		return false
	}
	for id := range theirs {
		if _, ok := mine[id]; !ok {
			return false
		}
	}
	return true
}

func curriculumSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Curriculum groups courses attended by the same students.
type Curriculum struct {
	ID      string    `json:"id" validate:"required"`
	Courses []*Course `json:"courses"`
}

// Contains reports whether a course with the same ID is part of the curriculum.
func (c *Curriculum) Contains(course *Course) bool {
	if course == nil {
		return false
	}
	for _, member := range c.Courses {
		if member.ID == course.ID {
			return true
		}
	}
	return false
}

// Room is a lecture hall.
type Room struct {
	ID       string `json:"id" validate:"required"`
	Capacity int    `json:"capacity" validate:"gte=0"`
}
