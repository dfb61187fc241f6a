// Package metadata downloads the per-attraction JSON documents published
// by the Taiwan tourism portal.
package metadata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/treeleaves30760/tw-dataset-generation/pkg/attractions"
	"github.com/treeleaves30760/tw-dataset-generation/pkg/config"
	"github.com/treeleaves30760/tw-dataset-generation/pkg/errors"
	"github.com/treeleaves30760/tw-dataset-generation/pkg/logger"
)

// Fetcher downloads attraction metadata JSON, one file per attraction ID
type Fetcher struct {
	cfg    config.MetadataConfig
	client *http.Client
	log    logger.Logger
	sleep  func(time.Duration)
}

// New creates a metadata Fetcher
func New(cfg config.MetadataConfig, log logger.Logger) *Fetcher {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Fetcher{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log,
		sleep:  time.Sleep,
	}
}

// Report aggregates a metadata run
type Report struct {
	Downloaded int
	Skipped    int
	Failed     int
}

// FetchAll downloads the JSON document for every attraction that does
// not already have one on disk. Per-attraction failures are counted and
// the run continues.
func (f *Fetcher) FetchAll(ctx context.Context, records []attractions.Record) (*Report, error) {
	if err := os.MkdirAll(f.cfg.OutputDir, 0755); err != nil {
		return nil, errors.Wrap(errors.TypeStorage, err, "creating metadata directory failed")
	}

	report := &Report{}
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if rec.ID == "" {
			continue
		}

		destPath := filepath.Join(f.cfg.OutputDir, rec.ID+".json")
		if _, err := os.Stat(destPath); err == nil {
			report.Skipped++
			continue
		}

		if err := f.fetchOne(ctx, rec.ID, destPath); err != nil {
			if errors.IsFatal(err) {
				return report, err
			}
			f.log.WarnWithFields("metadata download failed", map[string]interface{}{
				"attraction_id": rec.ID,
				"error":         err.Error(),
			})
			report.Failed++
		} else {
			report.Downloaded++
		}

		f.sleep(f.cfg.RequestDelay)
	}

	f.log.InfoWithFields("metadata run finished", map[string]interface{}{
		"downloaded": report.Downloaded,
		"skipped":    report.Skipped,
		"failed":     report.Failed,
	})
	return report, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, id, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.cfg.BaseURL+id, nil)
	if err != nil {
		return err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return errors.Wrap(errors.TypeFetchTransient, err, "metadata request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Newf(errors.TypeFetchTransient, "metadata request returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(errors.TypeFetchTransient, err, "reading metadata response failed")
	}

	if err := os.WriteFile(destPath, body, 0644); err != nil {
		return errors.Wrap(errors.TypeStorage, err, fmt.Sprintf("writing %s failed", destPath))
	}
	return nil
}
