package dataprocessing

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/kirielllka/empl-reports/internal/errors"
)

// ReadXLSX loads one sheet of a workbook into a table. An empty sheet name
// selects the first sheet. Cells are trimmed and rows whose cells are all
// blank are dropped, mirroring the line rules of ParseCSV.
func ReadXLSX(path, sheet string) (*Table, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("file %s", path), err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to open workbook %s", path), err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return &Table{}, nil
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrTypeValidation,
			fmt.Sprintf("sheet %q cannot be read", sheet), err)
	}

	return tableFromCells(rows), nil
}

func tableFromCells(rows [][]string) *Table {
	table := &Table{}
	for _, row := range rows {
		cells := make([]string, len(row))
		blank := true
		for i, cell := range row {
			cells[i] = strings.TrimSpace(cell)
			if cells[i] != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		if table.Headers == nil {
			table.Headers = cells
			continue
		}
		table.Rows = append(table.Rows, cells)
	}
	return table
}
