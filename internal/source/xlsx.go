package source

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/dipsw/internal/dipsw"
	"github.com/xuri/excelize/v2"
)

// Workbook reads tables that were exported to an Excel workbook, one sheet
// per page. Blank rows separate tables within a sheet.
type Workbook struct {
	Path string

	// Sheets restricts reading to the named sheets, in the given order.
	// Empty means every sheet in workbook order.
	Sheets []string
}

// Pages opens the workbook and reads the selected sheets.
func (w *Workbook) Pages(ctx context.Context) ([]dipsw.Page, error) {
	f, err := excelize.OpenFile(w.Path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", w.Path, err)
	}
	defer f.Close()

	return ReadWorkbook(ctx, f, w.Sheets)
}

// ReadWorkbook converts sheets of an open workbook into pages.
func ReadWorkbook(ctx context.Context, f *excelize.File, sheets []string) ([]dipsw.Page, error) {
	if len(sheets) == 0 {
		sheets = f.GetSheetList()
	}

	pages := make([]dipsw.Page, 0, len(sheets))
	for i, name := range sheets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		pages = append(pages, dipsw.Page{
			Number: i + 1,
			Tables: splitTables(rows),
		})
	}
	return pages, nil
}

// splitTables groups rows into tables at blank rows.
//
// GetRows drops trailing empty cells, so every row of a table is padded to
// the table's widest row. Empty cells become nil.
func splitTables(rows [][]string) []dipsw.Table {
	var (
		tables  []dipsw.Table
		current [][]string
	)

	flush := func() {
		if len(current) == 0 {
			return
		}
		width := 0
		for _, r := range current {
			width = max(width, len(r))
		}
		table := make(dipsw.Table, len(current))
		for i, r := range current {
			row := make(dipsw.Row, width)
			for j, v := range r {
				if v != "" {
					row[j] = dipsw.Text(v)
				}
			}
			table[i] = row
		}
		tables = append(tables, table)
		current = nil
	}

	for _, r := range rows {
		if isBlank(r) {
			flush()
			continue
		}
		current = append(current, r)
	}
	flush()
	return tables
}

func isBlank(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}
