package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/kirielllka/empl-reports/internal/dataprocessing"
	apperrors "github.com/kirielllka/empl-reports/internal/errors"
	"github.com/kirielllka/empl-reports/internal/exporter"
	"github.com/kirielllka/empl-reports/internal/infrastructure"
	"github.com/kirielllka/empl-reports/internal/validation"
)

// FileStatus classifies the outcome of one input file.
type FileStatus string

const (
	StatusOK       FileStatus = "ok"
	StatusEmpty    FileStatus = "empty"
	StatusNotFound FileStatus = "not_found"
	StatusInvalid  FileStatus = "invalid"
	StatusFailed   FileStatus = "failed"
)

// AllStatuses lists every FileStatus in reporting order.
var AllStatuses = []FileStatus{StatusOK, StatusEmpty, StatusNotFound, StatusInvalid, StatusFailed}

// FileResult is what happened to one input file.
type FileResult struct {
	Path     string
	Status   FileStatus
	TraceID  string
	Err      error
	Rendered int
	Failed   int
	Skipped  int
	Duration time.Duration
}

// Message returns the user-facing line for a file that produced no report.
// It is empty for StatusOK.
func (r FileResult) Message() string {
	switch r.Status {
	case StatusEmpty:
		return fmt.Sprintf("file %s is empty or contains no data", r.Path)
	case StatusNotFound:
		return fmt.Sprintf("error: file %s not found", r.Path)
	case StatusInvalid:
		return fmt.Sprintf("error in structure of file %s: %s", r.Path, describe(r.Err))
	case StatusFailed:
		return fmt.Sprintf("error while processing file %s: %s", r.Path, describe(r.Err))
	default:
		return ""
	}
}

func describe(err error) string {
	if err == nil {
		return "unknown error"
	}
	return apperrors.Describe(err)
}

// RunSummary aggregates the results of a batch.
type RunSummary struct {
	RunID    string
	Files    []FileResult
	Rendered int
	Failed   int
	Skipped  int
}

// Count returns the number of files that ended with status.
func (s *RunSummary) Count(status FileStatus) int {
	n := 0
	for _, f := range s.Files {
		if f.Status == status {
			n++
		}
	}
	return n
}

func (s *RunSummary) add(r FileResult) {
	s.Files = append(s.Files, r)
	s.Rendered += r.Rendered
	s.Failed += r.Failed
	s.Skipped += r.Skipped
}

// TableReader loads one input file.
type TableReader func(path, sheet string) (*dataprocessing.Table, error)

// Option configures a PayoutService.
type Option func(*PayoutService)

// WithTracer sets the tracer used for per-file spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *PayoutService) { s.tracer = tracer }
}

// WithMetrics sets the run counters.
func WithMetrics(metrics *infrastructure.PayoutMetrics) Option {
	return func(s *PayoutService) { s.metrics = metrics }
}

// WithSheet selects the worksheet read from .xlsx inputs.
func WithSheet(sheet string) Option {
	return func(s *PayoutService) { s.sheet = sheet }
}

// WithTableReader replaces the input reader.
func WithTableReader(read TableReader) Option {
	return func(s *PayoutService) { s.readTable = read }
}

// PayoutService produces payout reports for a batch of files. Every file is
// handled on its own; a failing file is reported and the batch goes on.
type PayoutService struct {
	out       io.Writer
	logger    *slog.Logger
	validator *validation.FileValidator
	tracer    trace.Tracer
	metrics   *infrastructure.PayoutMetrics
	readTable TableReader
	sheet     string
}

// NewPayoutService creates a service writing reports to out.
func NewPayoutService(out io.Writer, logger *slog.Logger, opts ...Option) *PayoutService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &PayoutService{
		out:       out,
		logger:    logger.With(slog.String("service", "payout")),
		tracer:    tracenoop.NewTracerProvider().Tracer(""),
		readTable: dataprocessing.ReadTable,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.validator = validation.NewFileValidator(s.logger)
	return s
}

// Run processes paths in order. Once ctx is done the remaining files are
// reported as failed without being read.
func (s *PayoutService) Run(ctx context.Context, paths []string) *RunSummary {
	summary := &RunSummary{RunID: uuid.NewString()}
	logger := s.logger.With(slog.String("run_id", summary.RunID))
	start := time.Now()

	logger.InfoContext(ctx, "Starting payout report run",
		slog.Int("files", len(paths)))

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			result := FileResult{
				Path:   path,
				Status: StatusFailed,
				Err:    apperrors.NewInternalError("run cancelled", err),
			}
			s.printMessage(result)
			s.recordFile(ctx, result)
			summary.add(result)
			continue
		}
		summary.add(s.ProcessFile(ctx, path))
	}

	attrs := []any{
		slog.Int("files", len(summary.Files)),
		slog.Int("records_rendered", summary.Rendered),
		slog.Int("records_failed", summary.Failed),
		slog.Int("rows_skipped", summary.Skipped),
		slog.Duration("duration", time.Since(start)),
	}
	for _, status := range AllStatuses {
		attrs = append(attrs, slog.Int("files_"+string(status), summary.Count(status)))
	}
	logger.InfoContext(ctx, "Payout report run completed", attrs...)

	return summary
}

// ProcessFile reads, maps and renders a single file. It never panics; a
// panic during processing is reported as StatusFailed.
func (s *PayoutService) ProcessFile(ctx context.Context, path string) (result FileResult) {
	traceID := uuid.NewString()
	ctx = infrastructure.WithTraceID(ctx, traceID)
	ctx, span := s.tracer.Start(ctx, "payout.process_file",
		trace.WithAttributes(
			attribute.String("file.path", path),
			attribute.String("payout.trace_id", traceID),
		))
	start := time.Now()

	result = FileResult{Path: path, TraceID: traceID}

	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "Recovered from panic while processing file",
				slog.String("file", path),
				slog.Any("panic", r))
			result.Status = StatusFailed
			result.Err = apperrors.NewInternalError(fmt.Sprintf("panic: %v", r), nil)
			s.printMessage(result)
		}
		result.Duration = time.Since(start)
		s.finishSpan(span, result)
		s.recordFile(ctx, result)
	}()

	s.logger.InfoContext(ctx, "Processing file", slog.String("file", path))

	if err := s.process(ctx, path, &result); err != nil {
		result.Err = err
		result.Status = classify(err)
		s.printMessage(result)
		s.logger.WarnContext(ctx, "File not reported",
			slog.String("file", path),
			slog.String("status", string(result.Status)),
			slog.String("error", err.Error()))
		return result
	}

	if result.Status == StatusEmpty {
		s.printMessage(result)
		s.logger.InfoContext(ctx, "File has no data", slog.String("file", path))
		return result
	}

	s.logger.InfoContext(ctx, "File reported",
		slog.String("file", path),
		slog.Int("records_rendered", result.Rendered),
		slog.Int("records_failed", result.Failed),
		slog.Int("rows_skipped", result.Skipped))
	return result
}

func (s *PayoutService) process(ctx context.Context, path string, result *FileResult) error {
	if err := s.validator.ValidateFile(path); err != nil {
		return err
	}

	table, err := s.readTable(path, s.sheet)
	if err != nil {
		return err
	}
	if table.Empty() {
		result.Status = StatusEmpty
		return nil
	}

	mapped, err := dataprocessing.MapRecords(table.Headers, table.Rows)
	if err != nil {
		return err
	}
	result.Skipped = mapped.Skipped
	if mapped.Skipped > 0 {
		s.logger.DebugContext(ctx, "Dropped short rows",
			slog.String("file", path),
			slog.Int("rows", mapped.Skipped),
			slog.Int("min_cells", mapped.Columns.Span()))
	}

	if _, err := fmt.Fprintf(s.out, "\nReport for file: %s\n", path); err != nil {
		return apperrors.NewInternalError("failed to write report", err)
	}
	report, err := exporter.OutputReport(s.out, mapped.Records)
	if err != nil {
		return apperrors.NewInternalError("failed to write report", err)
	}

	for _, row := range report.Rows {
		if row.Err != nil {
			s.logger.DebugContext(ctx, "Employee record not rendered",
				slog.String("file", path),
				slog.String("employee_id", row.ID),
				slog.String("error", row.Err.Error()))
		}
	}

	result.Status = StatusOK
	result.Rendered = report.Rendered()
	result.Failed = report.Failed()
	return nil
}

// classify maps a processing error onto the file status shown to the user.
func classify(err error) FileStatus {
	switch apperrors.TypeOf(err) {
	case apperrors.ErrTypeNotFound:
		return StatusNotFound
	case apperrors.ErrTypeValidation:
		return StatusInvalid
	default:
		return StatusFailed
	}
}

func (s *PayoutService) printMessage(result FileResult) {
	msg := result.Message()
	if msg == "" {
		return
	}
	if _, err := fmt.Fprintln(s.out, msg); err != nil {
		s.logger.Error("Failed to write message",
			slog.String("file", result.Path),
			slog.String("error", err.Error()))
	}
}

func (s *PayoutService) finishSpan(span trace.Span, result FileResult) {
	span.SetAttributes(
		attribute.String("payout.status", string(result.Status)),
		attribute.Int("payout.records_rendered", result.Rendered),
		attribute.Int("payout.records_failed", result.Failed),
		attribute.Int("payout.rows_skipped", result.Skipped),
	)
	if result.Err != nil {
		span.RecordError(result.Err)
		span.SetStatus(codes.Error, result.Err.Error())
	}
	span.End()
}

func (s *PayoutService) recordFile(ctx context.Context, result FileResult) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordFile(ctx, string(result.Status))
	s.metrics.RecordRecords(ctx, result.Rendered, result.Failed)
	s.metrics.RecordSkippedRows(ctx, result.Skipped)
}
