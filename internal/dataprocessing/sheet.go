package dataprocessing

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"ventaperdida/internal/config"
	apperrors "ventaperdida/internal/errors"
	"ventaperdida/pkg/contracts/domain"
)

// SheetStats counts the data rows of a spreadsheet and how many were kept.
type SheetStats struct {
	Rows    int
	Kept    int
	Dropped int
}

// sheetTable is the header-resolved body of the first sheet of a workbook.
type sheetTable struct {
	positions map[domain.Column]int
	rows      [][]string
}

func (t sheetTable) columns() map[domain.Column]bool {
	cols := make(map[domain.Column]bool, len(t.positions))
	for c := range t.positions {
		cols[c] = true
	}
	return cols
}

// readSheet opens the workbook and returns the first sheet with its header
// resolved. The header row is the first row with at least two non-empty cells,
// so title rows above the table are skipped.
func readSheet(name string, data []byte, tables *config.Tables) (sheetTable, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return sheetTable{}, apperrors.NewFileParseError(name, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return sheetTable{}, apperrors.NewFileParseError(name, fmt.Errorf("workbook has no sheets"))
	}

	// Raw values keep numeric codes and date serials unformatted.
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return sheetTable{}, apperrors.NewFileParseError(name, err)
	}

	headerAt := -1
	for i, row := range rows {
		if nonEmptyCells(row) >= 2 {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return sheetTable{positions: map[domain.Column]int{}}, nil
	}

	return sheetTable{
		positions: newHeaderResolver(tables).resolve(rows[headerAt]),
		rows:      rows[headerAt+1:],
	}, nil
}

func nonEmptyCells(row []string) int {
	n := 0
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			n++
		}
	}
	return n
}

// ParseNetSalesSheet reads a weekly net-sales workbook. A workbook without the
// net sales amount or article id columns yields an empty table and a
// SCHEMA_MISMATCH error; the run continues without net sales.
func ParseNetSalesSheet(name string, data []byte, tables *config.Tables) (domain.NetSalesTable, SheetStats, error) {
	var stats SheetStats

	sheet, err := readSheet(name, data, tables)
	if err != nil {
		return domain.NetSalesTable{}, stats, err
	}
	if missing := missingColumns(sheet.positions, domain.ColNetSales, domain.ColArticle); len(missing) > 0 {
		return domain.NetSalesTable{}, stats, apperrors.NewSchemaMismatchError(name, missing)
	}

	columns := sheet.columns()
	_, hasWeek := sheet.positions[domain.ColWeek]
	_, hasDay := sheet.positions[domain.ColDay]
	if hasDay {
		// The week is derived from the day when no explicit week column exists.
		columns[domain.ColWeek] = true
	}

	table := domain.NetSalesTable{Columns: columns}
	for _, row := range sheet.rows {
		if blankRow(row) {
			continue
		}
		stats.Rows++

		article := NormalizeCode(cell(row, sheet.positions, domain.ColArticle))
		if article == "" {
			stats.Dropped++
			continue
		}
		amount, err := parseAmount(cell(row, sheet.positions, domain.ColNetSales))
		if err != nil {
			stats.Dropped++
			continue
		}
		provider, keep := recodeProvider(cell(row, sheet.positions, domain.ColProvider), tables)
		if !keep {
			stats.Dropped++
			continue
		}

		rec := domain.NetSalesRecord{
			Plaza:       truncateCode(cell(row, sheet.positions, domain.ColPlaza), tables.CodeWidths.Plaza),
			Division:    truncateCode(cell(row, sheet.positions, domain.ColDivision), tables.CodeWidths.Division),
			Market:      truncateCode(cell(row, sheet.positions, domain.ColMarket), tables.CodeWidths.Market),
			Category:    NormalizeCode(cell(row, sheet.positions, domain.ColCategory)),
			ArticleID:   article,
			Provider:    provider,
			Family:      cell(row, sheet.positions, domain.ColFamily),
			Segment:     cell(row, sheet.positions, domain.ColSegment),
			Description: cell(row, sheet.positions, domain.ColDescription),
			NetSales:    amount.InexactFloat64(),
		}

		if hasDay {
			if day, ok := parseAccountingDay(cell(row, sheet.positions, domain.ColDay)); ok {
				rec.DayKey = DayKey(day)
				if !hasWeek {
					_, rec.WeekKey = WeekKey(day)
				}
			}
		}
		if hasWeek {
			if key, ok := NormalizeWeekKey(cell(row, sheet.positions, domain.ColWeek)); ok {
				rec.WeekKey = key
			}
		}

		table.Records = append(table.Records, rec)
		stats.Kept++
	}

	return table, stats, nil
}

// ParseCatalogSheet reads the master product catalog. Only the article id
// column is required.
func ParseCatalogSheet(name string, data []byte, tables *config.Tables) ([]domain.CatalogEntry, SheetStats, error) {
	var stats SheetStats

	sheet, err := readSheet(name, data, tables)
	if err != nil {
		return nil, stats, err
	}
	if missing := missingColumns(sheet.positions, domain.ColArticle); len(missing) > 0 {
		return nil, stats, apperrors.NewSchemaMismatchError(name, missing)
	}

	var entries []domain.CatalogEntry
	for _, row := range sheet.rows {
		if blankRow(row) {
			continue
		}
		stats.Rows++

		article := NormalizeCode(cell(row, sheet.positions, domain.ColArticle))
		if article == "" {
			stats.Dropped++
			continue
		}
		provider, keep := recodeProvider(cell(row, sheet.positions, domain.ColProvider), tables)
		if !keep {
			provider = ""
		}

		entries = append(entries, domain.CatalogEntry{
			ArticleID:   article,
			Provider:    provider,
			Family:      cell(row, sheet.positions, domain.ColFamily),
			Segment:     cell(row, sheet.positions, domain.ColSegment),
			Subcategory: cell(row, sheet.positions, domain.ColSubcategory),
			Description: cell(row, sheet.positions, domain.ColDescription),
		})
		stats.Kept++
	}

	return entries, stats, nil
}
