package service

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/ctt-evolver/internal/dto"
	"github.com/noah-isme/ctt-evolver/internal/models"
	"github.com/noah-isme/ctt-evolver/pkg/ctt"
	"github.com/noah-isme/ctt-evolver/pkg/export"
)

// Supported output formats.
const (
	FormatSol = "sol"
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

var timetableHeaders = []string{"day", "period", "room", "course", "teacher", "students", "capacity"}

type fileStore interface {
	Save(filename string, data []byte) (string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(heading string, notes []string, pages []export.Page) ([]byte, error)
}

// ExportService writes the best timetable of a run to disk.
type ExportService struct {
	store   fileStore
	csv     csvRenderer
	pdf     pdfRenderer
	formats []string
	logger  *zap.Logger
}

// NewExportService constructs an exporter for the given formats.
func NewExportService(store fileStore, csv csvRenderer, pdf pdfRenderer, formats []string, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter(0)
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if len(formats) == 0 {
		formats = []string{FormatSol}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{store: store, csv: csv, pdf: pdf, formats: formats, logger: logger}
}

// Export renders solution in every configured format and returns the written paths.
func (s *ExportService) Export(summary *dto.RunSummary, solution *models.Solution) ([]string, error) {
	if solution == nil {
		return nil, fmt.Errorf("no solution to export for run %s", summary.RunID)
	}
	base := fmt.Sprintf("%s/%s", safeName(summary.Instance), summary.RunID)
	paths := make([]string, 0, len(s.formats))
	for _, format := range s.formats {
		data, err := s.render(format, summary, solution)
		if err != nil {
			return paths, err
		}
		path, err := s.store.Save(base+"."+format, data)
		if err != nil {
			return paths, fmt.Errorf("save %s export: %w", format, err)
		}
		paths = append(paths, path)
	}
	s.logger.Sugar().Infow("best solution exported", "run_id", summary.RunID, "files", paths)
	return paths, nil
}

func (s *ExportService) render(format string, summary *dto.RunSummary, solution *models.Solution) ([]byte, error) {
	switch format {
	case FormatSol:
		buf := &bytes.Buffer{}
		if err := ctt.WriteSolution(buf, solution); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatCSV:
		return s.csv.Render(TimetableDataset(solution))
	case FormatPDF:
		return s.pdf.Render(summary.Instance, pdfNotes(summary), dayPages(solution))
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

// TimetableDataset lists every scheduled lecture in period then room order.
func TimetableDataset(solution *models.Solution) export.Dataset {
	rows := make([]map[string]string, 0)
	for _, slot := range TimetableSlots(solution) {
		course := solution.Instance().CourseByID(slot.CourseID)
		room := solution.Instance().RoomByID(slot.RoomID)
		rows = append(rows, map[string]string{
			"day":      strconv.Itoa(slot.Day),
			"period":   strconv.Itoa(slot.Period),
			"room":     slot.RoomID,
			"course":   slot.CourseID,
			"teacher":  slot.TeacherID,
			"students": strconv.Itoa(course.Students),
			"capacity": strconv.Itoa(room.Capacity),
		})
	}
	return export.Dataset{Headers: timetableHeaders, Rows: rows}
}

// TimetableSlots flattens a solution into its scheduled lectures.
func TimetableSlots(solution *models.Solution) []dto.TimetableSlot {
	instance := solution.Instance()
	slots := make([]dto.TimetableSlot, 0)
	for period, row := range solution.Coding() {
		for room, course := range row {
			if course == nil {
				continue
			}
			slots = append(slots, dto.TimetableSlot{
				CourseID:  course.ID,
				TeacherID: course.TeacherID,
				RoomID:    instance.Rooms[room].ID,
				Day:       instance.DayOf(period),
				Period:    period % instance.PeriodsPerDay,
			})
		}
	}
	return slots
}

// NewSolutionSnapshot captures the best solution of a run for publishing.
func NewSolutionSnapshot(summary *dto.RunSummary, solution *models.Solution) *dto.SolutionSnapshot {
	snapshot := &dto.SolutionSnapshot{
		RunID:     summary.RunID,
		Instance:  summary.Instance,
		Slots:     TimetableSlots(solution),
		CreatedAt: time.Now().UTC(),
	}
	if summary.BestPenalty != nil {
		snapshot.Penalty = *summary.BestPenalty
	}
	if summary.BestFairness != nil {
		snapshot.Fairness = *summary.BestFairness
	}
	return snapshot
}

// dayPages renders one grid per day: periods down, rooms across.
func dayPages(solution *models.Solution) []export.Page {
	instance := solution.Instance()
	headers := make([]string, 0, len(instance.Rooms)+1)
	headers = append(headers, "period")
	for _, room := range instance.Rooms {
		headers = append(headers, room.ID)
	}

	pages := make([]export.Page, 0, instance.Days)
	for day := 0; day < instance.Days; day++ {
		rows := make([]map[string]string, 0, instance.PeriodsPerDay)
		for slot := 0; slot < instance.PeriodsPerDay; slot++ {
			row := map[string]string{"period": strconv.Itoa(slot)}
			for room, course := range solution.Coding()[day*instance.PeriodsPerDay+slot] {
				if course != nil {
					row[instance.Rooms[room].ID] = course.ID
				}
			}
			rows = append(rows, row)
		}
		pages = append(pages, export.Page{Title: fmt.Sprintf("Day %d", day), Data: export.Dataset{Headers: headers, Rows: rows}})
	}
	return pages
}

func pdfNotes(summary *dto.RunSummary) []string {
	notes := []string{fmt.Sprintf("Run %s, %d generations", summary.RunID, summary.Generations)}
	if summary.BestPenalty != nil && summary.BestFairness != nil {
		notes = append(notes, fmt.Sprintf("Penalty %d, fairness %d", *summary.BestPenalty, *summary.BestFairness))
	}
	return notes
}

func safeName(name string) string {
	if name == "" {
		return "instance"
	}
	out := []rune(name)
	for i, r := range out {
		if r == '/' || r == '\\' || r == ' ' || r == '.' {
			out[i] = '_'
		}
	}
	return string(out)
}
