package dto

import "time"

// RunSummary is the outcome of one solver run.
type RunSummary struct {
	RunID            string        `json:"runId"`
	Instance         string        `json:"instance"`
	Generations      int           `json:"generations"`
	InitialSolutions int           `json:"initialSolutions"`
	BestPenalty      *int          `json:"bestPenalty,omitempty"`
	BestFairness     *int          `json:"bestFairness,omitempty"`
	GeneratorSuccess int           `json:"generatorSuccess"`
	GeneratorFailure int           `json:"generatorFailure"`
	BreederSuccess   int           `json:"breederSuccess"`
	BreederFailure   int           `json:"breederFailure"`
	Eliminated       int           `json:"eliminated"`
	StartedAt        time.Time     `json:"startedAt"`
	Duration         time.Duration `json:"duration"`
	Cancelled        bool          `json:"cancelled"`
}

// RunProgress is the live status of the current run.
type RunProgress struct {
	RunID          string `json:"runId"`
	Instance       string `json:"instance"`
	Running        bool   `json:"running"`
	Generation     int    `json:"generation"`
	Iterations     int    `json:"iterations"`
	Occupied       int    `json:"occupied"`
	Voted          int    `json:"voted"`
	BestPenalty    *int   `json:"bestPenalty,omitempty"`
	BestFairness   *int   `json:"bestFairness,omitempty"`
	WorstPenalty   *int   `json:"worstPenalty,omitempty"`
	FairestPenalty *int   `json:"fairestPenalty,omitempty"`
	FairestFair    *int   `json:"fairestFairness,omitempty"`
}

// TimetableSlot is one scheduled lecture of an exported timetable.
type TimetableSlot struct {
	CourseID  string `json:"courseId"`
	TeacherID string `json:"teacherId"`
	RoomID    string `json:"roomId"`
	Day       int    `json:"day"`
	Period    int    `json:"period"`
}

// SolutionSnapshot is the serialisable form of the best timetable.
type SolutionSnapshot struct {
	RunID     string          `json:"runId"`
	Instance  string          `json:"instance"`
	Penalty   int             `json:"penalty"`
	Fairness  int             `json:"fairness"`
	Slots     []TimetableSlot `json:"slots"`
	CreatedAt time.Time       `json:"createdAt"`
}

// RunHistoryQuery filters persisted runs.
type RunHistoryQuery struct {
	Instance string `form:"instance"`
	Limit    int    `form:"limit" validate:"omitempty,min=1,max=100"`
}
