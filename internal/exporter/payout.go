package exporter

import (
	"fmt"
	"io"
	"strings"

	apperrors "github.com/kirielllka/empl-reports/internal/errors"
	"github.com/kirielllka/empl-reports/pkg/contracts/domain"
)

// PayoutRow is the rendering outcome of a single employee record.
type PayoutRow struct {
	ID     string
	Record domain.EmployeeRecord
	Gross  int64
	// Err is set when hours or rate could not be turned into gross pay.
	Err error
}

// Line returns the text printed for the row.
func (r PayoutRow) Line() string {
	if r.Err != nil {
		return fmt.Sprintf("error processing employee %s: %s", r.ID, apperrors.Describe(r.Err))
	}
	return strings.Join([]string{
		padRight(r.ID, widthID),
		padRight(r.Record.Name, widthName),
		padRight(r.Record.Email, widthEmail),
		padRight(r.Record.Department, widthDepartment),
		padRight(r.Record.Hours, widthHours),
		"$" + padRight(formatInt(r.Gross), widthSalary),
	}, " ")
}

// PayoutReport holds the computed rows of one payout report in record order.
type PayoutReport struct {
	Rows []PayoutRow
}

// BuildPayout computes gross pay (hours * rate) for every record. A record
// that fails does not stop the others.
func BuildPayout(records *domain.RecordSet) *PayoutReport {
	report := &PayoutReport{Rows: make([]PayoutRow, 0, records.Len())}
	for id, rec := range records.All() {
		report.Rows = append(report.Rows, buildRow(id, rec))
	}
	return report
}

func buildRow(id string, rec domain.EmployeeRecord) PayoutRow {
	row := PayoutRow{ID: id, Record: rec}

	hours, err := parseAmount("hours", rec.Hours)
	if err != nil {
		row.Err = err
		return row
	}
	rate, err := parseAmount("rate", rec.Rate)
	if err != nil {
		row.Err = err
		return row
	}
	row.Gross, row.Err = grossPay(hours, rate)
	return row
}

// Rendered returns the number of rows with a computed gross pay.
func (r *PayoutReport) Rendered() int {
	return len(r.Rows) - r.Failed()
}

// Failed returns the number of rows rendered as error lines.
func (r *PayoutReport) Failed() int {
	n := 0
	for _, row := range r.Rows {
		if row.Err != nil {
			n++
		}
	}
	return n
}

// HeaderLine returns the column header of the payout table.
func HeaderLine() string {
	return strings.Join([]string{
		padRight("ID", widthID),
		padRight("Name", widthName),
		padRight("Email", widthEmail),
		padRight("Department", widthDepartment),
		padRight("Hours", widthHours),
		padRight("Salary", widthSalary),
	}, " ")
}

// WriteText writes the report as a fixed-width table: a blank line, the
// header, a separator and one line per row.
func (r *PayoutReport) WriteText(w io.Writer) error {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(HeaderLine())
	b.WriteString("\n")
	b.WriteString(strings.Repeat("-", separatorWidth))
	b.WriteString("\n")
	for _, row := range r.Rows {
		b.WriteString(row.Line())
		b.WriteString("\n")
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to write payout report: %w", err)
	}
	return nil
}

// OutputReport builds the payout report for records and writes it to w.
func OutputReport(w io.Writer, records *domain.RecordSet) (*PayoutReport, error) {
	report := BuildPayout(records)
	if err := report.WriteText(w); err != nil {
		return nil, err
	}
	return report, nil
}
