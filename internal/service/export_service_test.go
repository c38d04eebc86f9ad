package service

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/ctt-evolver/internal/dto"
	"github.com/noah-isme/ctt-evolver/pkg/export"
	"github.com/noah-isme/ctt-evolver/pkg/storage"
)

func newExportServiceForTest(t *testing.T, formats ...string) (*ExportService, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	svc := NewExportService(store, export.NewCSVExporter(0), export.NewPDFExporter(), formats, zap.NewNop())
	return svc, dir
}

func exportSummary() *dto.RunSummary {
	penalty, fairness := 1, 1
	return &dto.RunSummary{RunID: "run-1", Instance: "toy", Generations: 4, BestPenalty: &penalty, BestFairness: &fairness}
}

func TestExportServiceWritesSolutionFile(t *testing.T) {
	svc, dir := newExportServiceForTest(t)
	instance := newTestInstance(t)

	paths, err := svc.Export(exportSummary(), newFeasibleSolution(t, instance))
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "toy", "run-1.sol")}, paths)

	content, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Equal(t, "math A 0 0\nart B 0 0\nphysics A 0 1\nmath A 1 1\n", string(content))
}

func TestExportServiceWritesCSV(t *testing.T) {
	svc, _ := newExportServiceForTest(t, FormatCSV)
	instance := newTestInstance(t)

	paths, err := svc.Export(exportSummary(), newFeasibleSolution(t, instance))
	require.NoError(t, err)
	require.Len(t, paths, 1)

	content, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(content)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, []string{"day", "period", "room", "course", "teacher", "students", "capacity"}, records[0])
	assert.Equal(t, []string{"0", "0", "B", "art", "t3", "5", "10"}, records[2])
}

func TestExportServiceWritesPDF(t *testing.T) {
	svc, _ := newExportServiceForTest(t, FormatPDF)
	instance := newTestInstance(t)

	paths, err := svc.Export(exportSummary(), newFeasibleSolution(t, instance))
	require.NoError(t, err)
	require.Len(t, paths, 1)

	content, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, []byte("%PDF")))
}

func TestExportServiceRejectsUnknownFormat(t *testing.T) {
	svc, _ := newExportServiceForTest(t, FormatSol, "xlsx")
	instance := newTestInstance(t)

	paths, err := svc.Export(exportSummary(), newFeasibleSolution(t, instance))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xlsx")
	assert.Len(t, paths, 1)
}

func TestExportServiceRequiresSolution(t *testing.T) {
	svc, _ := newExportServiceForTest(t)
	_, err := svc.Export(exportSummary(), nil)
	assert.Error(t, err)
}

func TestDayPagesLayout(t *testing.T) {
	instance := newTestInstance(t)
	pages := dayPages(newFeasibleSolution(t, instance))
	require.Len(t, pages, 2)
	assert.Equal(t, "Day 1", pages[1].Title)
	assert.Equal(t, []string{"period", "A", "B"}, pages[0].Data.Headers)
	assert.Equal(t, map[string]string{"period": "0", "A": "math", "B": "art"}, pages[0].Data.Rows[0])
	assert.Equal(t, map[string]string{"period": "0"}, pages[1].Data.Rows[0])
}

func TestNewSolutionSnapshot(t *testing.T) {
	instance := newTestInstance(t)
	snapshot := NewSolutionSnapshot(exportSummary(), newFeasibleSolution(t, instance))
	assert.Equal(t, "run-1", snapshot.RunID)
	assert.Equal(t, 1, snapshot.Penalty)
	require.Len(t, snapshot.Slots, 4)
	assert.Equal(t, dto.TimetableSlot{CourseID: "math", TeacherID: "t1", RoomID: "A", Day: 1, Period: 1}, snapshot.Slots[3])
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "instance", safeName(""))
	assert.Equal(t, "comp01_ctt", safeName("comp01.ctt"))
	assert.Equal(t, "a_b_c", safeName("a/b c"))
}
