package importer

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// parseExcel reads the first sheet of an .xlsx/.xls workbook into a
// header row and data records. Cell values arrive as formatted strings,
// so the same row pipeline handles both spreadsheet formats.
func parseExcel(path string) ([]string, [][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("file has no header row")
	}

	header := make([]string, len(rows[0]))
	for i, col := range rows[0] {
		header[i] = cleanFieldValue(col)
	}
	return header, rows[1:], nil
}
