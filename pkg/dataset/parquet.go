package dataset

import (
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"
)

// ConvertJSONLToParquet reads every record from the JSONL file and
// writes them as a single Parquet file
func ConvertJSONLToParquet(jsonlPath, parquetPath string) (int, error) {
	records, err := ReadJSONL(jsonlPath)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, fmt.Errorf("no records found in %s", jsonlPath)
	}

	f, err := os.Create(parquetPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create parquet file: %w", err)
	}

	writer := parquet.NewGenericWriter[DescriptionRecord](f)
	if _, err := writer.Write(records); err != nil {
		f.Close()
		return 0, fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		f.Close()
		return 0, fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("failed to close parquet file: %w", err)
	}

	return len(records), nil
}

// ReadParquet loads every description record from a Parquet file
func ReadParquet(path string) ([]DescriptionRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat parquet file: %w", err)
	}

	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[DescriptionRecord](pf)
	defer reader.Close()

	var records []DescriptionRecord
	rows := make([]DescriptionRecord, 128)
	for {
		n, err := reader.Read(rows)
		if n > 0 {
			records = append(records, rows[:n]...)
		}
		if err != nil {
			break
		}
	}
	return records, nil
}
