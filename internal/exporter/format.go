package exporter

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	apperrors "github.com/kirielllka/empl-reports/internal/errors"
)

// Column widths of the payout table.
const (
	widthID         = 5
	widthName       = 30
	widthEmail      = 20
	widthDepartment = 15
	widthHours      = 10
	widthSalary     = 10

	separatorWidth = 90
)

// formatInt formats an int64 value for report output
func formatInt(i int64) string {
	return fmt.Sprintf("%d", i)
}

// padRight left-aligns s in a column of the given width. Longer values are
// not truncated.
func padRight(s string, width int) string {
	return fmt.Sprintf("%-*s", width, s)
}

// parseAmount parses a base-10 integer field, ignoring surrounding whitespace.
func parseAmount(field, value string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, apperrors.NewParsingError(
			fmt.Sprintf("invalid %s value %q", field, value), err).
			WithContext("field", field)
	}
	return n, nil
}

// grossPay multiplies hours by rate, failing instead of wrapping on overflow.
func grossPay(hours, rate int64) (int64, error) {
	if hours == 0 || rate == 0 {
		return 0, nil
	}
	product := hours * rate
	if product/rate != hours || (hours == -1 && rate == math.MinInt64) || (rate == -1 && hours == math.MinInt64) {
		return 0, apperrors.NewParsingError(
			fmt.Sprintf("gross pay %d * %d overflows", hours, rate), nil)
	}
	return product, nil
}
