package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/treeleaves30760/tw-dataset-generation/pkg/logger"
)

// RenumberReport aggregates the outcome of a renumbering pass
type RenumberReport struct {
	Found    int
	NotFound int
	Renamed  int
}

// RenumberDir renames every image in dir to <sanitized>_<NNN><ext>,
// contiguous from 1, in sorted filename order. Files already carrying
// their target name are left alone.
func RenumberDir(dir, attractionName string, log logger.Logger) (int, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	files, err := ListImages(dir)
	if err != nil {
		return 0, err
	}
	if len(files) == 0 {
		log.WarnWithFields("no image files found", map[string]interface{}{
			"dir": dir,
		})
		return 0, nil
	}

	san := SanitizeName(attractionName)
	renamed := 0
	for i, oldPath := range files {
		ext := strings.ToLower(filepath.Ext(oldPath))
		newName := fmt.Sprintf("%s_%03d%s", san, i+1, ext)
		newPath := filepath.Join(dir, newName)

		if newPath == oldPath {
			continue
		}
		if _, err := os.Stat(newPath); err == nil {
			log.WarnWithFields("target filename already exists, skipping", map[string]interface{}{
				"file": newName,
			})
			continue
		}
		if err := os.Rename(oldPath, newPath); err != nil {
			log.WithError(err).WithField("file", oldPath).Error("failed to rename file")
			continue
		}
		renamed++
	}
	return renamed, nil
}

// RenumberAll walks the attraction names, locates each directory under
// root and renumbers its images. Missing directories are counted, not
// fatal.
func RenumberAll(root string, names []string, log logger.Logger) (RenumberReport, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	var report RenumberReport
	for _, name := range names {
		dir, ok := FindAttractionDir(root, SanitizeName(name))
		if !ok {
			report.NotFound++
			log.WarnWithFields("attraction directory not found", map[string]interface{}{
				"attraction": name,
			})
			continue
		}
		report.Found++

		renamed, err := RenumberDir(dir, name, log)
		if err != nil {
			return report, fmt.Errorf("failed to renumber %s: %w", name, err)
		}
		report.Renamed += renamed
	}

	log.InfoWithFields("renumbering completed", map[string]interface{}{
		"attractions": len(names),
		"found":       report.Found,
		"not_found":   report.NotFound,
		"renamed":     report.Renamed,
	})
	return report, nil
}
