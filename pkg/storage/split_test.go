package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestSplitRatio(t *testing.T) {
	source := t.TempDir()
	train := filepath.Join(t.TempDir(), "train")
	val := filepath.Join(t.TempDir(), "val")

	names := make([]string, 0, 10)
	for i := 1; i <= 10; i++ {
		names = append(names, fmt.Sprintf("spot_%03d.jpg", i))
	}
	writeFiles(t, filepath.Join(source, "spot"), names...)

	report, err := Split(source, train, val, 0.9, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Attractions != 1 {
		t.Errorf("expected 1 attraction, got %d", report.Attractions)
	}
	if report.TrainImages != 9 || report.ValImages != 1 {
		t.Errorf("got train=%d val=%d, want 9/1", report.TrainImages, report.ValImages)
	}

	trainFiles := dirNames(t, filepath.Join(train, "spot"))
	if len(trainFiles) != 9 {
		t.Errorf("expected 9 train files, got %d", len(trainFiles))
	}
	valFiles := dirNames(t, filepath.Join(val, "spot"))
	if len(valFiles) != 1 || valFiles[0] != "spot_010.jpg" {
		t.Errorf("expected the last file in val, got %v", valFiles)
	}
}

func TestSplitLeavesSourceUntouched(t *testing.T) {
	source := t.TempDir()
	writeFiles(t, filepath.Join(source, "spot"), "spot_001.jpg", "spot_002.jpg")

	_, err := Split(source, filepath.Join(t.TempDir(), "train"), filepath.Join(t.TempDir(), "val"), 0.5, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := dirNames(t, filepath.Join(source, "spot")); len(got) != 2 {
		t.Errorf("source files changed: %v", got)
	}
}

func TestSplitSkipsEmptyDirectories(t *testing.T) {
	source := t.TempDir()
	if err := os.MkdirAll(filepath.Join(source, "empty"), 0755); err != nil {
		t.Fatal(err)
	}
	writeFiles(t, filepath.Join(source, "spot"), "spot_001.jpg")

	report, err := Split(source, filepath.Join(t.TempDir(), "train"), filepath.Join(t.TempDir(), "val"), 0.9, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Attractions != 1 {
		t.Errorf("expected 1 attraction, got %d", report.Attractions)
	}
}

func TestSplitSingleImageGoesToValidation(t *testing.T) {
	// floor(1 * 0.9) = 0 train images; the lone file lands in val
	source := t.TempDir()
	writeFiles(t, filepath.Join(source, "spot"), "spot_001.jpg")

	val := filepath.Join(t.TempDir(), "val")
	report, err := Split(source, filepath.Join(t.TempDir(), "train"), val, 0.9, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.TrainImages != 0 || report.ValImages != 1 {
		t.Errorf("got train=%d val=%d, want 0/1", report.TrainImages, report.ValImages)
	}
	if got := dirNames(t, filepath.Join(val, "spot")); len(got) != 1 {
		t.Errorf("expected 1 val file, got %v", got)
	}
}
