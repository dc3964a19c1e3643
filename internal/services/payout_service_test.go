package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kirielllka/empl-reports/internal/dataprocessing"
	apperrors "github.com/kirielllka/empl-reports/internal/errors"
	"github.com/kirielllka/empl-reports/internal/infrastructure"
)

const goodCSV = `id,email,name,department,hours_worked,rate
1,alice@example.com,Alice Johnson,Marketing,160,50
2,bob@example.com,Bob Smith,Design,150,40
`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestProcessFile_Statuses(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name         string
		path         string
		wantStatus   FileStatus
		wantOutput   []string
		wantNoOutput []string
		wantRendered int
		wantFailed   int
		wantSkipped  int
	}{
		{
			name:       "report rendered",
			path:       writeFile(t, dir, "good.csv", goodCSV),
			wantStatus: StatusOK,
			wantOutput: []string{
				"Report for file: " + filepath.Join(dir, "good.csv"),
				"$8000",
				"$6000",
			},
			wantRendered: 2,
		},
		{
			name:       "missing file",
			path:       filepath.Join(dir, "missing.csv"),
			wantStatus: StatusNotFound,
			wantOutput: []string{"error: file " + filepath.Join(dir, "missing.csv") + " not found"},
		},
		{
			name:       "empty file",
			path:       writeFile(t, dir, "empty.csv", "\n  \n\n"),
			wantStatus: StatusEmpty,
			wantOutput: []string{"file " + filepath.Join(dir, "empty.csv") + " is empty or contains no data"},
			wantNoOutput: []string{
				"Report for file",
				"error in structure",
			},
		},
		{
			name:       "missing rate column",
			path:       writeFile(t, dir, "norate.csv", "id,email,name,department,hours_worked\n1,a@x.com,Alice,Mktg,160\n"),
			wantStatus: StatusInvalid,
			wantOutput: []string{
				"error in structure of file " + filepath.Join(dir, "norate.csv") + `: missing required column "salary"`,
			},
			wantNoOutput: []string{"Report for file", "[VALIDATION]"},
		},
		{
			name:         "bad record is isolated",
			path:         writeFile(t, dir, "badrow.csv", goodCSV+"3,c@x.com,Carol,Ops,many,30\n"),
			wantStatus:   StatusOK,
			wantOutput:   []string{"$8000", "error processing employee 3:"},
			wantRendered: 2,
			wantFailed:   1,
		},
		{
			name:         "short rows dropped",
			path:         writeFile(t, dir, "short.csv", goodCSV+"4,d@x.com,Dan,Ops,120\n"),
			wantStatus:   StatusOK,
			wantNoOutput: []string{"Dan"},
			wantRendered: 2,
			wantSkipped:  1,
		},
		{
			name:       "directory",
			path:       dir,
			wantStatus: StatusFailed,
			wantOutput: []string{"error while processing file " + dir + ": " + dir + " is a directory, not a file"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			svc := NewPayoutService(&out, testLogger())

			result := svc.ProcessFile(context.Background(), tt.path)

			assert.Equal(t, tt.wantStatus, result.Status)
			assert.Equal(t, tt.wantRendered, result.Rendered)
			assert.Equal(t, tt.wantFailed, result.Failed)
			assert.Equal(t, tt.wantSkipped, result.Skipped)
			assert.NotEmpty(t, result.TraceID)
			if tt.wantStatus == StatusOK || tt.wantStatus == StatusEmpty {
				assert.NoError(t, result.Err)
			} else {
				assert.Error(t, result.Err)
			}
			for _, s := range tt.wantOutput {
				assert.Contains(t, out.String(), s)
			}
			for _, s := range tt.wantNoOutput {
				assert.NotContains(t, out.String(), s)
			}
		})
	}
}

func TestProcessFile_ReportPrecededByBlankLine(t *testing.T) {
	path := writeFile(t, t.TempDir(), "good.csv", goodCSV)

	var out bytes.Buffer
	NewPayoutService(&out, testLogger()).ProcessFile(context.Background(), path)

	assert.True(t, strings.HasPrefix(out.String(), "\nReport for file: "+path+"\n\nID "), out.String())
}

func TestRun_BatchContinuesPastFailures(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		filepath.Join(dir, "missing.csv"),
		writeFile(t, dir, "bad.csv", "ID,Name,Department\n1,Alice Johnson,Marketing\n"),
		writeFile(t, dir, "empty.csv", ""),
		writeFile(t, dir, "good.csv", goodCSV),
	}

	var out bytes.Buffer
	summary := NewPayoutService(&out, testLogger()).Run(context.Background(), paths)

	require.Len(t, summary.Files, 4)
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, StatusNotFound, summary.Files[0].Status)
	assert.Equal(t, StatusInvalid, summary.Files[1].Status)
	assert.Equal(t, StatusEmpty, summary.Files[2].Status)
	assert.Equal(t, StatusOK, summary.Files[3].Status)
	assert.Equal(t, 1, summary.Count(StatusOK))
	assert.Equal(t, 0, summary.Count(StatusFailed))
	assert.Equal(t, 2, summary.Rendered)

	output := out.String()
	notFound := strings.Index(output, "not found")
	structure := strings.Index(output, "error in structure")
	report := strings.Index(output, "Report for file: "+paths[3])
	require.True(t, notFound >= 0 && structure >= 0 && report >= 0, output)
	assert.Less(t, notFound, structure)
	assert.Less(t, structure, report)
}

func TestRun_DistinctTraceIDs(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.csv", goodCSV)
	b := writeFile(t, dir, "b.csv", goodCSV)

	summary := NewPayoutService(io.Discard, testLogger()).Run(context.Background(), []string{a, b})
	require.Len(t, summary.Files, 2)
	assert.NotEqual(t, summary.Files[0].TraceID, summary.Files[1].TraceID)
}

func TestRun_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	paths := []string{writeFile(t, dir, "a.csv", goodCSV), writeFile(t, dir, "b.csv", goodCSV)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	summary := NewPayoutService(&out, testLogger()).Run(ctx, paths)

	require.Len(t, summary.Files, 2)
	for _, f := range summary.Files {
		assert.Equal(t, StatusFailed, f.Status)
		assert.True(t, errors.Is(f.Err, context.Canceled))
	}
	assert.NotContains(t, out.String(), "Report for file")
	assert.Contains(t, out.String(), "error while processing file "+paths[1]+": run cancelled: context canceled")
}

func TestProcessFile_PanicRecovered(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.csv", goodCSV)
	panicky := func(string, string) (*dataprocessing.Table, error) {
		panic("reader exploded")
	}

	var out bytes.Buffer
	svc := NewPayoutService(&out, testLogger(), WithTableReader(panicky))

	var result FileResult
	require.NotPanics(t, func() {
		result = svc.ProcessFile(context.Background(), path)
	})
	assert.Equal(t, StatusFailed, result.Status)
	assert.True(t, apperrors.IsType(result.Err, apperrors.ErrTypeInternal))
	assert.Contains(t, out.String(), "error while processing file "+path+": panic: reader exploded")
}

func TestProcessFile_ReadErrorClassified(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.csv", goodCSV)
	failing := func(string, string) (*dataprocessing.Table, error) {
		return nil, apperrors.NewParsingError("broken workbook", errors.New("zip: not a valid zip file"))
	}

	var out bytes.Buffer
	result := NewPayoutService(&out, testLogger(), WithTableReader(failing)).ProcessFile(context.Background(), path)

	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, "error while processing file "+path+": broken workbook: zip: not a valid zip file\n", out.String())
}

func TestProcessFile_SheetPassedToReader(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.xlsx", "placeholder")
	var gotSheet string
	reader := func(_ string, sheet string) (*dataprocessing.Table, error) {
		gotSheet = sheet
		return &dataprocessing.Table{}, nil
	}

	result := NewPayoutService(io.Discard, testLogger(), WithSheet("Payroll"), WithTableReader(reader)).
		ProcessFile(context.Background(), path)

	assert.Equal(t, "Payroll", gotSheet)
	assert.Equal(t, StatusEmpty, result.Status)
}

func TestProcessFile_Spans(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.csv", goodCSV)
	missing := filepath.Join(dir, "missing.csv")

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	svc := NewPayoutService(io.Discard, testLogger(), WithTracer(tp.Tracer("test")))
	svc.Run(context.Background(), []string{good, missing})

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "payout.process_file", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String("payout.status", "ok"))
	assert.Contains(t, spans[0].Attributes(), attribute.Int("payout.records_rendered", 2))
	assert.Equal(t, codes.Unset, spans[0].Status().Code)

	assert.Contains(t, spans[1].Attributes(), attribute.String("payout.status", "not_found"))
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}

func TestRun_Metrics(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "good.csv", goodCSV+"3,c@x.com,Carol,Ops,x,1\n4,short\n"),
		filepath.Join(dir, "missing.csv"),
	}

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	metrics, err := infrastructure.NewPayoutMetrics(mp.Meter("test"))
	require.NoError(t, err)

	NewPayoutService(io.Discard, testLogger(), WithMetrics(metrics)).Run(context.Background(), paths)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	sums := map[string]int64{}
	byStatus := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			data, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, m.Name)
			for _, dp := range data.DataPoints {
				sums[m.Name] += dp.Value
				if status, ok := dp.Attributes.Value("status"); ok {
					byStatus[status.AsString()] += dp.Value
				}
			}
		}
	}

	assert.Equal(t, int64(2), sums["payout_files_processed"])
	assert.Equal(t, int64(2), sums["payout_records_rendered"])
	assert.Equal(t, int64(1), sums["payout_records_failed"])
	assert.Equal(t, int64(1), sums["payout_rows_skipped"])
	assert.Equal(t, map[string]int64{"ok": 1, "not_found": 1}, byStatus)
}

func TestFileResult_Message(t *testing.T) {
	tests := []struct {
		result FileResult
		want   string
	}{
		{FileResult{Path: "a.csv", Status: StatusOK}, ""},
		{FileResult{Path: "a.csv", Status: StatusEmpty}, "file a.csv is empty or contains no data"},
		{FileResult{Path: "a.csv", Status: StatusNotFound}, "error: file a.csv not found"},
		{
			FileResult{Path: "a.csv", Status: StatusInvalid, Err: apperrors.NewAppValidationError(`missing required column "id"`)},
			`error in structure of file a.csv: missing required column "id"`,
		},
		{
			FileResult{Path: "a.csv", Status: StatusFailed, Err: errors.New("disk on fire")},
			"error while processing file a.csv: disk on fire",
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.result.Status), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.result.Message())
		})
	}
}
