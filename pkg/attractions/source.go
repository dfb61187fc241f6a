// Package attractions loads and writes the attraction source tables.
package attractions

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Column headers of the government attraction export. The ranked output
// appends the search_count column.
const (
	ColumnID          = "唯一識別碼"
	ColumnName        = "資料名稱"
	ColumnCity        = "縣市名稱"
	ColumnDistrict    = "行政區(鄉鎮區)名稱"
	ColumnDescription = "文字描述"
	ColumnSearchCount = "search_count"
)

// SearchCountUnset marks a record not yet ranked
const SearchCountUnset = int64(-1)

// Record is one attraction row. Immutable after load, except that the
// ranking stage fills in SearchCount.
type Record struct {
	ID          string
	Name        string
	City        string
	District    string
	Description string
	SearchCount int64
}

// LoadCSV reads attraction records from a CSV file. The byte order mark
// the spreadsheet exports carry is tolerated, and column order is taken
// from the header row. Rows without a name are skipped.
func LoadCSV(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("CSV file %s is empty", path)
	}

	header := rows[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	if _, ok := columns[ColumnName]; !ok {
		return nil, fmt.Errorf("CSV file %s has no %q column", path, ColumnName)
	}

	field := func(row []string, column string) string {
		idx, ok := columns[column]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var records []Record
	for _, row := range rows[1:] {
		name := field(row, ColumnName)
		if name == "" {
			continue
		}
		rec := Record{
			ID:          field(row, ColumnID),
			Name:        name,
			City:        field(row, ColumnCity),
			District:    field(row, ColumnDistrict),
			Description: field(row, ColumnDescription),
			SearchCount: SearchCountUnset,
		}
		if raw := field(row, ColumnSearchCount); raw != "" {
			if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
				rec.SearchCount = v
			}
		}
		records = append(records, rec)
	}

	return records, nil
}

// WriteCSV writes records, including the search_count column, with the
// BOM spreadsheet tools expect for UTF-8 content.
func WriteCSV(path string, records []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV: %w", err)
	}

	if _, err := f.WriteString("\uFEFF"); err != nil {
		f.Close()
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(f)
	header := []string{ColumnID, ColumnName, ColumnCity, ColumnDistrict, ColumnDescription, ColumnSearchCount}
	if err := writer.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, rec := range records {
		count := ""
		if rec.SearchCount != SearchCountUnset {
			count = strconv.FormatInt(rec.SearchCount, 10)
		}
		row := []string{rec.ID, rec.Name, rec.City, rec.District, rec.Description, count}
		if err := writer.Write(row); err != nil {
			f.Close()
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return f.Close()
}
