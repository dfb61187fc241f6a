package scraper

import (
	"github.com/treeleaves30760/tw-dataset-generation/pkg/storage"
)

// Tracker computes how many images an attraction still needs. The count
// on disk is the only state: it is recomputed by directory scan every
// time, so interrupted runs resume correctly with nothing persisted.
type Tracker struct {
	Target int
}

// Needed returns max(0, target - stored) for the attraction directory
func (t Tracker) Needed(dir string) (int, error) {
	existing, err := storage.CountImages(dir)
	if err != nil {
		return 0, err
	}
	needed := t.Target - existing
	if needed < 0 {
		needed = 0
	}
	return needed, nil
}
