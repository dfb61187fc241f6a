package describe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treeleaves30760/tw-dataset-generation/pkg/attractions"
	"github.com/treeleaves30760/tw-dataset-generation/pkg/config"
	"github.com/treeleaves30760/tw-dataset-generation/pkg/dataset"
)

// stubModel records prompts and returns canned reasoning
type stubModel struct {
	calls   int
	prompts []string
	fail    bool
}

func (m *stubModel) Describe(ctx context.Context, imageData []byte, prompt string) (string, error) {
	m.calls++
	m.prompts = append(m.prompts, prompt)
	if m.fail {
		return "", fmt.Errorf("model unavailable")
	}
	return "generated reasoning", nil
}

func writeImages(t *testing.T, root, name string, count int) {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0755))
	for i := 1; i <= count; i++ {
		path := filepath.Join(dir, fmt.Sprintf("%s_%03d.jpg", name, i))
		require.NoError(t, os.WriteFile(path, []byte("jpegdata"), 0644))
	}
}

func newTestGenerator(t *testing.T, model Model, imageRoot string, perAttraction int) (*Generator, string) {
	t.Helper()
	dir := t.TempDir()
	templatePath := filepath.Join(dir, "prompt.md")
	template := "Describe <|attraction_name|>. Context: <|attraction_description|>"
	require.NoError(t, os.WriteFile(templatePath, []byte(template), 0644))

	jsonlPath := filepath.Join(dir, "result.jsonl")
	cfg := config.DatasetConfig{
		JSONLPath:           jsonlPath,
		PromptTemplate:      templatePath,
		ImagesPerAttraction: perAttraction,
	}

	gen, err := New(model, cfg, imageRoot, nil)
	require.NoError(t, err)
	return gen, jsonlPath
}

func TestGeneratorDescribesImages(t *testing.T) {
	root := t.TempDir()
	writeImages(t, root, "Jiufen", 3)

	model := &stubModel{}
	gen, jsonlPath := newTestGenerator(t, model, root, 2)

	recs := []attractions.Record{{ID: "1", Name: "Jiufen", Description: "old street"}}
	report, err := gen.Run(context.Background(), recs)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Described, "cap per attraction applies")
	assert.Equal(t, 2, model.calls)
	assert.Equal(t, "Describe Jiufen. Context: old street", model.prompts[0])

	records, err := dataset.ReadJSONL(jsonlPath)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Jiufen", records[0].AttractionName)
	assert.Equal(t, "Jiufen_001.jpg", records[0].ImageFilename)
	assert.Equal(t, "generated reasoning", records[0].Reasoning)
}

func TestGeneratorResumesFromJSONL(t *testing.T) {
	root := t.TempDir()
	writeImages(t, root, "Alishan", 2)

	model := &stubModel{}
	gen, _ := newTestGenerator(t, model, root, 2)

	recs := []attractions.Record{{ID: "1", Name: "Alishan", Description: "forest"}}
	_, err := gen.Run(context.Background(), recs)
	require.NoError(t, err)
	require.Equal(t, 2, model.calls)

	// second run over the same JSONL makes no model calls
	report, err := gen.Run(context.Background(), recs)
	require.NoError(t, err)
	assert.Equal(t, 2, model.calls)
	assert.Equal(t, 0, report.Described)
	assert.Equal(t, 2, report.Skipped)
}

func TestGeneratorCountsFailures(t *testing.T) {
	root := t.TempDir()
	writeImages(t, root, "Kenting", 2)

	model := &stubModel{fail: true}
	gen, jsonlPath := newTestGenerator(t, model, root, 2)

	recs := []attractions.Record{{ID: "1", Name: "Kenting", Description: "beach"}}
	report, err := gen.Run(context.Background(), recs)
	require.NoError(t, err, "model failures must not abort the run")

	assert.Equal(t, 2, report.Failed)
	records, err := dataset.ReadJSONL(jsonlPath)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestGeneratorSkipsMissingDirectories(t *testing.T) {
	root := t.TempDir()
	model := &stubModel{}
	gen, _ := newTestGenerator(t, model, root, 2)

	recs := []attractions.Record{{ID: "1", Name: "Nowhere", Description: "none"}}
	report, err := gen.Run(context.Background(), recs)
	require.NoError(t, err)
	assert.Equal(t, 0, model.calls)
	assert.Equal(t, 0, report.Described)
}

func TestGeneratorFindsUnderscoredDirectories(t *testing.T) {
	root := t.TempDir()
	writeImages(t, root, "Sun_Moon_Lake", 1)

	model := &stubModel{}
	gen, _ := newTestGenerator(t, model, root, 2)

	recs := []attractions.Record{{ID: "1", Name: "Sun Moon Lake", Description: "lake"}}
	report, err := gen.Run(context.Background(), recs)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Described)
}
