package dataprocessing

import (
	"fmt"
	"slices"
	"strings"

	apperrors "github.com/kirielllka/empl-reports/internal/errors"
	"github.com/kirielllka/empl-reports/pkg/contracts/domain"
)

// Required header names. Matching is exact and case-sensitive.
const (
	ColumnID         = "id"
	ColumnEmail      = "email"
	ColumnName       = "name"
	ColumnDepartment = "department"
	ColumnHours      = "hours_worked"
)

// RateAliases lists the accepted pay-rate headers in priority order.
var RateAliases = []string{"hourly_rate", "rate", "salary"}

// ColumnIndex holds the resolved position of every required field.
type ColumnIndex struct {
	ID         int
	Email      int
	Name       int
	Department int
	Hours      int
	Rate       int
}

// Span is the minimum number of cells a row needs to cover every column.
func (c ColumnIndex) Span() int {
	return max(c.ID, c.Email, c.Name, c.Department, c.Hours, c.Rate) + 1
}

// Covers reports whether row is long enough to read every required field.
func (c ColumnIndex) Covers(row []string) bool {
	return len(row) >= c.Span()
}

// MapResult is the outcome of mapping one table.
type MapResult struct {
	Records *domain.RecordSet
	Columns ColumnIndex
	// Skipped counts rows dropped for being shorter than Columns.Span().
	Skipped int
}

// ResolveColumns locates the required fields in headers. Fields are looked
// up in the order id, email, name, department, hours_worked, then the rate
// aliases; the first one missing is reported as a VALIDATION error.
func ResolveColumns(headers []string) (ColumnIndex, error) {
	var idx ColumnIndex

	required := []struct {
		name string
		dst  *int
	}{
		{ColumnID, &idx.ID},
		{ColumnEmail, &idx.Email},
		{ColumnName, &idx.Name},
		{ColumnDepartment, &idx.Department},
		{ColumnHours, &idx.Hours},
	}

	for _, col := range required {
		pos, ok := lookupColumn(headers, col.name)
		if !ok {
			return ColumnIndex{}, missingColumnError(col.name)
		}
		*col.dst = pos
	}

	pos, ok := lookupColumn(headers, RateAliases...)
	if !ok {
		last := RateAliases[len(RateAliases)-1]
		err := apperrors.NewAppValidationError(fmt.Sprintf(
			"missing required column %q (accepted rate columns: %s)",
			last, strings.Join(RateAliases, ", ")))
		return ColumnIndex{}, err.WithContext("column", last).WithContext("aliases", RateAliases)
	}
	idx.Rate = pos

	return idx, nil
}

// lookupColumn returns the position of the first name found in headers,
// trying names in the given order. Duplicate headers resolve to the
// leftmost occurrence.
func lookupColumn(headers []string, names ...string) (int, bool) {
	for _, name := range names {
		if pos := slices.Index(headers, name); pos >= 0 {
			return pos, true
		}
	}
	return -1, false
}

func missingColumnError(name string) *apperrors.AppError {
	return apperrors.NewAppValidationError(fmt.Sprintf("missing required column %q", name)).
		WithContext("column", name)
}

// MapRecords resolves the columns of headers and turns every row that
// covers them into a normalized record keyed by its id cell. Short rows are
// skipped without error. A later row with an already seen id replaces the
// earlier record (see domain.RecordSet.Set).
func MapRecords(headers []string, rows [][]string) (*MapResult, error) {
	cols, err := ResolveColumns(headers)
	if err != nil {
		return nil, err
	}

	result := &MapResult{
		Records: domain.NewRecordSet(),
		Columns: cols,
	}

	for _, row := range rows {
		if !cols.Covers(row) {
			result.Skipped++
			continue
		}
		result.Records.Set(row[cols.ID], domain.EmployeeRecord{
			Email:      row[cols.Email],
			Name:       row[cols.Name],
			Department: row[cols.Department],
			Hours:      row[cols.Hours],
			Rate:       row[cols.Rate],
		})
	}

	return result, nil
}

// FormatData maps headers and rows to the normalized record set.
func FormatData(headers []string, rows [][]string) (*domain.RecordSet, error) {
	result, err := MapRecords(headers, rows)
	if err != nil {
		return nil, err
	}
	return result.Records, nil
}
