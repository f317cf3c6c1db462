package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"ventaperdida/internal/config"
	apperrors "ventaperdida/internal/errors"
	"ventaperdida/pkg/contracts/domain"
)

// requiredLossColumns must all be present in a loss extract header.
var requiredLossColumns = []domain.Column{
	domain.ColPlaza,
	domain.ColDivision,
	domain.ColCategory,
	domain.ColArticle,
	domain.ColProvider,
	domain.ColLossAmount,
}

// LossFileStats counts what happened to the rows of one loss extract.
type LossFileStats struct {
	Rows            int
	Kept            int
	RemovedProvider int
	EmptyArticle    int
	InvalidAmount   int
	Recategorized   int
	NegativeClamped int
}

// Dropped is the number of rows excluded from the result.
func (s LossFileStats) Dropped() int {
	return s.RemovedProvider + s.EmptyArticle + s.InvalidAmount
}

// ParseLossFile decodes one daily loss extract. name must carry the DDMMYYYY
// date; data is ISO-8859-1 CSV. Any failure to read the file as a whole is a
// FILE_PARSE error and the caller skips the file.
func ParseLossFile(name string, data []byte, tables *config.Tables) ([]domain.LossRecord, LossFileStats, error) {
	var stats LossFileStats

	date, err := ParseFileDate(name)
	if err != nil {
		return nil, stats, apperrors.NewFileParseError(name, err)
	}
	week, weekKey := WeekKey(date)
	monthKey := MonthKey(date)

	reader := csv.NewReader(charmap.ISO8859_1.NewDecoder().Reader(bytes.NewReader(data)))
	reader.Comma = detectDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, stats, apperrors.NewFileParseError(name, fmt.Errorf("file is empty"))
		}
		return nil, stats, apperrors.NewFileParseError(name, err)
	}

	positions := newHeaderResolver(tables).resolve(header)
	if missing := missingColumns(positions, requiredLossColumns...); len(missing) > 0 {
		return nil, stats, apperrors.NewFileParseError(name,
			fmt.Errorf("missing required columns: %s", strings.Join(missing, ", ")))
	}

	var records []domain.LossRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, stats, apperrors.NewFileParseError(name, err)
		}
		if blankRow(row) {
			continue
		}
		stats.Rows++

		provider, keep := recodeProvider(cell(row, positions, domain.ColProvider), tables)
		if !keep {
			stats.RemovedProvider++
			continue
		}

		article := NormalizeCode(cell(row, positions, domain.ColArticle))
		if article == "" {
			stats.EmptyArticle++
			continue
		}

		amount, err := parseAmount(cell(row, positions, domain.ColLossAmount))
		if err != nil {
			stats.InvalidAmount++
			continue
		}
		if amount.IsNegative() {
			stats.NegativeClamped++
		}

		description := cell(row, positions, domain.ColDescription)
		category := NormalizeCode(cell(row, positions, domain.ColCategory))
		if isBrand(description, tables.BrandToken) {
			category = tables.RRPCategory
			stats.Recategorized++
		}

		records = append(records, domain.LossRecord{
			Plaza:       truncateCode(cell(row, positions, domain.ColPlaza), tables.CodeWidths.Plaza),
			Division:    truncateCode(cell(row, positions, domain.ColDivision), tables.CodeWidths.Division),
			Market:      truncateCode(cell(row, positions, domain.ColMarket), tables.CodeWidths.Market),
			Category:    category,
			ArticleID:   article,
			Description: description,
			UPC:         cell(row, positions, domain.ColUPC),
			Provider:    provider,
			Store:       cell(row, positions, domain.ColStore),
			Family:      cell(row, positions, domain.ColFamily),
			Segment:     cell(row, positions, domain.ColSegment),
			Amount:      roundAmount(amount),
			Date:        date,
			Week:        week,
			WeekKey:     weekKey,
			MonthKey:    monthKey,
			SourceFile:  name,
		})
		stats.Kept++
	}

	return records, stats, nil
}

// detectDelimiter picks ';' when the first line has more semicolons than commas.
func detectDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	return ','
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
