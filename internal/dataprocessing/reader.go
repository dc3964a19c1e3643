package dataprocessing

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/kirielllka/empl-reports/internal/errors"
)

// Separator splits header and data lines. Quoting is not supported, so a
// comma inside a value shifts every following cell of that row.
const Separator = ","

const utf8BOM = "\ufeff"

// Table holds the header row and data rows of one input file.
// Rows keep their own length; nothing is padded.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Empty reports whether the input had no non-blank line at all.
func (t *Table) Empty() bool {
	return t == nil || len(t.Headers) == 0
}

// ReadTable reads path with the reader matching its extension:
// .xlsx workbooks go through ReadXLSX, anything else is treated as CSV.
func ReadTable(path, sheet string) (*Table, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return ReadXLSX(path, sheet)
	}
	return ReadCSV(path)
}

// ReadCSV loads a comma-separated file. The file is fully read and closed
// before parsing starts. A missing path yields a NOT_FOUND AppError.
func ReadCSV(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("file %s", path), err)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ParseCSV(string(data)), nil
}

// ParseCSV splits content into a table. Every line is trimmed and blank
// lines are dropped wherever they appear; the first remaining line is the
// header. Content without any non-blank line gives an empty table.
func ParseCSV(content string) *Table {
	content = strings.TrimPrefix(content, utf8BOM)
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	table := &Table{}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		cells := strings.Split(line, Separator)
		if table.Headers == nil {
			table.Headers = cells
			continue
		}
		table.Rows = append(table.Rows, cells)
	}
	return table
}
