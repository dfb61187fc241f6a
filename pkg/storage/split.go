package storage

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/treeleaves30760/tw-dataset-generation/pkg/logger"
)

// SplitReport aggregates the outcome of a train/validation split
type SplitReport struct {
	Attractions int
	TrainImages int
	ValImages   int
}

// Split copies each attraction's images from sourceDir into trainDir
// and valDir: the first floor(n*ratio) files (sorted order) go to
// train, the remainder to validation.
func Split(sourceDir, trainDir, valDir string, ratio float64, log logger.Logger) (SplitReport, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	var report SplitReport

	if err := os.MkdirAll(trainDir, 0755); err != nil {
		return report, fmt.Errorf("failed to create train directory: %w", err)
	}
	if err := os.MkdirAll(valDir, 0755); err != nil {
		return report, fmt.Errorf("failed to create validation directory: %w", err)
	}

	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return report, fmt.Errorf("failed to read source directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()

		files, err := ListImages(filepath.Join(sourceDir, name))
		if err != nil {
			return report, err
		}
		if len(files) == 0 {
			log.WarnWithFields("no images to split", map[string]interface{}{
				"attraction": name,
			})
			continue
		}

		trainCount := int(math.Floor(float64(len(files)) * ratio))

		trainTarget := filepath.Join(trainDir, name)
		if err := os.MkdirAll(trainTarget, 0755); err != nil {
			return report, fmt.Errorf("failed to create %s: %w", trainTarget, err)
		}
		valTarget := filepath.Join(valDir, name)
		if trainCount < len(files) {
			if err := os.MkdirAll(valTarget, 0755); err != nil {
				return report, fmt.Errorf("failed to create %s: %w", valTarget, err)
			}
		}

		for i, src := range files {
			dstDir := trainTarget
			if i >= trainCount {
				dstDir = valTarget
			}
			if err := copyFile(src, filepath.Join(dstDir, filepath.Base(src))); err != nil {
				return report, fmt.Errorf("failed to copy %s: %w", src, err)
			}
		}

		report.Attractions++
		report.TrainImages += trainCount
		report.ValImages += len(files) - trainCount

		log.DebugWithFields("attraction split", map[string]interface{}{
			"attraction": name,
			"total":      len(files),
			"train":      trainCount,
			"val":        len(files) - trainCount,
		})
	}

	log.InfoWithFields("split completed", map[string]interface{}{
		"attractions":  report.Attractions,
		"train_images": report.TrainImages,
		"val_images":   report.ValImages,
	})
	return report, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	_, err = io.Copy(out, in)
	closeErr := out.Close()
	if err != nil {
		os.Remove(dst)
		return err
	}
	if closeErr != nil {
		os.Remove(dst)
		return closeErr
	}
	return nil
}
