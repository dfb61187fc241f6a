// Package dataset handles the description record store: JSONL during
// generation, Parquet for publishing.
package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// DescriptionRecord is one generated image description
type DescriptionRecord struct {
	AttractionName        string `json:"attraction_name" parquet:"attraction_name"`
	AttractionDescription string `json:"attraction_description" parquet:"attraction_description"`
	ImagePath             string `json:"image_path" parquet:"image_path"`
	ImageFilename         string `json:"image_filename" parquet:"image_filename"`
	Reasoning             string `json:"reasoning" parquet:"reasoning"`
}

// AppendJSONL appends one record to the JSONL file, creating it if
// needed. Each record is flushed immediately so an interrupted run
// loses at most the record in flight.
func AppendJSONL(path string, rec DescriptionRecord) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open JSONL file: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append record: %w", err)
	}
	return nil
}

// ReadJSONL loads every record from the JSONL file. A missing file
// yields an empty slice.
func ReadJSONL(path string) ([]DescriptionRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open JSONL file: %w", err)
	}
	defer f.Close()

	var records []DescriptionRecord
	scanner := bufio.NewScanner(f)

	// Descriptions can run long
	const maxCapacity = 1024 * 1024
	buf := make([]byte, maxCapacity)
	scanner.Buffer(buf, maxCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec DescriptionRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}
		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading JSONL: %w", err)
	}
	return records, nil
}

// ProcessedImagePaths returns the set of image paths already present in
// the JSONL file, used to make description generation resumable
func ProcessedImagePaths(path string) (map[string]bool, error) {
	records, err := ReadJSONL(path)
	if err != nil {
		return nil, err
	}

	processed := make(map[string]bool, len(records))
	for _, rec := range records {
		processed[rec.ImagePath] = true
	}
	return processed, nil
}
