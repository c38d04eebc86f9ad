package service

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/ctt-evolver/internal/dto"
	"github.com/noah-isme/ctt-evolver/internal/models"
	"github.com/noah-isme/ctt-evolver/pkg/ctt"
	appErrors "github.com/noah-isme/ctt-evolver/pkg/errors"
)

const (
	instanceFileSuffix = ".ctt"
	// BatchReportFile is the report written next to the exports in batch mode.
	BatchReportFile = "allinstances.log"
)

// instanceRunner is the part of the engine a batch drives.
type instanceRunner interface {
	Run(ctx context.Context, instance *models.ProblemInstance) (*dto.RunSummary, error)
	TableSummary() TableSummary
	BestSolution() *models.Solution
}

// RunHook is called after every finished instance, e.g. to export the best timetable.
type RunHook func(ctx context.Context, summary *dto.RunSummary, best *models.Solution) error

// BatchConfig describes the run parameters echoed in the report header.
type BatchConfig struct {
	Iterations int
	Now        func() time.Time
}

// BatchService solves every instance of a directory in turn and keeps a
// per-instance report.
type BatchService struct {
	source fileSource
	runner instanceRunner
	report fileStore
	onRun  RunHook
	cfg    BatchConfig
	logger *zap.Logger
}

// NewBatchService wires an instance directory, the engine and the report store.
func NewBatchService(source fileSource, runner instanceRunner, report fileStore, onRun RunHook, cfg BatchConfig, logger *zap.Logger) *BatchService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchService{source: source, runner: runner, report: report, onRun: onRun, cfg: cfg, logger: logger}
}

// RunAll solves each .ctt file in name order. The report is rewritten after
// every instance, so an interrupted batch still leaves the finished ones on
// disk. A cancelled run ends the batch.
func (s *BatchService) RunAll(ctx context.Context) ([]*dto.RunSummary, error) {
	names, err := s.source.List(instanceFileSuffix)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no .ctt instances found")
	}

	report := &bytes.Buffer{}
	s.writeHeader(report)

	summaries := make([]*dto.RunSummary, 0, len(names))
	for _, name := range names {
		if ctx.Err() != nil {
			break
		}
		log := s.logger.Sugar().With("file", name)

		instance, err := s.readInstance(name)
		if err != nil {
			log.Warnw("skipping unreadable instance", "error", err)
			fmt.Fprintf(report, "%s: skipped (%v)\n\n\n", name, err)
			if err := s.saveReport(report); err != nil {
				return summaries, err
			}
			continue
		}

		summary, err := s.runner.Run(ctx, instance)
		if err != nil {
			return summaries, fmt.Errorf("solve %s: %w", name, err)
		}
		summaries = append(summaries, summary)
		writeResult(report, name, summary, s.runner.TableSummary())
		if err := s.saveReport(report); err != nil {
			return summaries, err
		}

		if s.onRun != nil {
			if err := s.onRun(ctx, summary, s.runner.BestSolution()); err != nil {
				log.Errorw("post-run hook failed", "run_id", summary.RunID, "error", err)
			}
		}
		if summary.Cancelled {
			log.Warnw("batch interrupted", "run_id", summary.RunID)
			break
		}
	}

	s.logger.Sugar().Infow("batch finished", "instances", len(names), "solved", len(summaries))
	return summaries, nil
}

func (s *BatchService) readInstance(name string) (*models.ProblemInstance, error) {
	data, err := s.source.Read(name)
	if err != nil {
		return nil, err
	}
	return ctt.ReadInstance(bytes.NewReader(data))
}

func (s *BatchService) saveReport(report *bytes.Buffer) error {
	if _, err := s.report.Save(BatchReportFile, report.Bytes()); err != nil {
		return fmt.Errorf("save batch report: %w", err)
	}
	return nil
}

func (s *BatchService) writeHeader(report *bytes.Buffer) {
	fmt.Fprintf(report, "Log file created at %s\n", s.cfg.Now().Format(time.RFC1123))
	report.WriteString(strings.Repeat("-", 50) + "\n\n")
	fmt.Fprintf(report, "Table size: %d\n", TableSize)
	fmt.Fprintf(report, "Iterations: %d\n\n", s.cfg.Iterations)
}

func writeResult(report *bytes.Buffer, name string, summary *dto.RunSummary, table TableSummary) {
	fmt.Fprintf(report, "%s (Duration: %s):\n", name, formatDuration(summary.Duration))
	report.WriteString("--------------\n")
	lines := []struct {
		label string
		value *int
	}{
		{"Best penalty/penalty", table.BestPenalty},
		{"Best penalty/fairness", table.BestFairness},
		{"Best fairness/penalty", table.FairestPenalty},
		{"Best fairness/fairness", table.FairestFairness},
		{"Worst penalty/penalty", table.WorstPenalty},
		{"Worst penalty/fairness", table.WorstFairness},
		{"Worst fairness/penalty", table.UnfairestPenalty},
		{"Worst fairness/fairness", table.UnfairestFair},
	}
	for _, line := range lines {
		fmt.Fprintf(report, "%s: %s\n", line.label, scoreText(line.value))
	}
	fmt.Fprintf(report, "Generations: %d\n", summary.Generations)
	fmt.Fprintf(report, "Initial solutions: %d\n", summary.InitialSolutions)
	fmt.Fprintf(report, "Generator success: %d\n", summary.GeneratorSuccess)
	fmt.Fprintf(report, "Generator failure: %d\n", summary.GeneratorFailure)
	fmt.Fprintf(report, "Mutation/recombination success: %d\n", summary.BreederSuccess)
	fmt.Fprintf(report, "Mutation/recombination failure: %d\n", summary.BreederFailure)
	if summary.Cancelled {
		report.WriteString("Cancelled: true\n")
	}
	report.WriteString("\n\n")
}

func formatDuration(d time.Duration) string {
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second
	d -= seconds * time.Second
	return fmt.Sprintf("%d h, %d m, %d s, %d ms", hours, minutes, seconds, d/time.Millisecond)
}

func scoreText(value *int) string {
	if value == nil {
		return "n/a"
	}
	return strconv.Itoa(*value)
}
