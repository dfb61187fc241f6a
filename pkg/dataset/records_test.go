package dataset

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord(imagePath string) DescriptionRecord {
	return DescriptionRecord{
		AttractionName:        "九份老街",
		AttractionDescription: "依山而建的老街",
		ImagePath:             imagePath,
		ImageFilename:         filepath.Base(imagePath),
		Reasoning:             "紅燈籠與石階是九份的標誌性景觀。",
	}
}

func TestJSONLAppendAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.jsonl")

	require.NoError(t, AppendJSONL(path, sampleRecord("image_data/a/a_001.jpg")))
	require.NoError(t, AppendJSONL(path, sampleRecord("image_data/a/a_002.jpg")))

	records, err := ReadJSONL(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "image_data/a/a_001.jpg", records[0].ImagePath)
	assert.Equal(t, "九份老街", records[0].AttractionName)
}

func TestReadJSONLMissingFile(t *testing.T) {
	records, err := ReadJSONL(filepath.Join(t.TempDir(), "absent.jsonl"))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestProcessedImagePaths(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.jsonl")
	require.NoError(t, AppendJSONL(path, sampleRecord("a/a_001.jpg")))
	require.NoError(t, AppendJSONL(path, sampleRecord("b/b_001.jpg")))

	processed, err := ProcessedImagePaths(path)
	require.NoError(t, err)
	assert.True(t, processed["a/a_001.jpg"])
	assert.True(t, processed["b/b_001.jpg"])
	assert.False(t, processed["c/c_001.jpg"])
}

func TestConvertJSONLToParquet(t *testing.T) {
	dir := t.TempDir()
	jsonlPath := filepath.Join(dir, "result.jsonl")
	parquetPath := filepath.Join(dir, "result.parquet")

	for i := 1; i <= 5; i++ {
		rec := sampleRecord(filepath.Join("a", fmt.Sprintf("a_%03d.jpg", i)))
		require.NoError(t, AppendJSONL(jsonlPath, rec))
	}

	n, err := ConvertJSONLToParquet(jsonlPath, parquetPath)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	records, err := ReadParquet(parquetPath)
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, "九份老街", records[0].AttractionName)
	assert.Equal(t, "a_001.jpg", records[0].ImageFilename)
}

func TestConvertEmptyJSONLFails(t *testing.T) {
	dir := t.TempDir()
	_, err := ConvertJSONLToParquet(filepath.Join(dir, "absent.jsonl"), filepath.Join(dir, "out.parquet"))
	assert.Error(t, err)
}
