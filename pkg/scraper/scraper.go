// Package scraper orchestrates image acquisition: for each attraction it
// measures the shortfall on disk, asks a provider for candidates, and
// downloads until the target count is met.
package scraper

import (
	"context"
	"math/rand"
	"os"
	"time"

	"github.com/treeleaves30760/tw-dataset-generation/pkg/attractions"
	"github.com/treeleaves30760/tw-dataset-generation/pkg/config"
	"github.com/treeleaves30760/tw-dataset-generation/pkg/errors"
	"github.com/treeleaves30760/tw-dataset-generation/pkg/logger"
	"github.com/treeleaves30760/tw-dataset-generation/pkg/storage"
)

// Outcome is the terminal state of one attraction in a run
type Outcome string

const (
	// OutcomeSatisfied means the attraction already had enough images;
	// no provider call was made.
	OutcomeSatisfied Outcome = "satisfied"
	// OutcomeDone means at least one image was downloaded this run.
	OutcomeDone Outcome = "done"
	// OutcomeFailed means no candidates were found or none survived
	// validation.
	OutcomeFailed Outcome = "failed"
)

// Report aggregates per-attraction outcomes for a whole run
type Report struct {
	Satisfied  int
	Done       int
	Failed     int
	Downloaded int
}

// Scraper walks the attraction list and fills each directory up to the
// configured target count
type Scraper struct {
	provider ImageProvider
	fetcher  ImageFetcher
	tracker  Tracker
	cfg      config.ScrapeConfig
	log      logger.Logger

	// sleep is swappable so tests run without real delays
	sleep func(time.Duration)
}

// New creates a Scraper
func New(prov ImageProvider, fetcher ImageFetcher, cfg config.ScrapeConfig, log logger.Logger) *Scraper {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Scraper{
		provider: prov,
		fetcher:  fetcher,
		tracker:  Tracker{Target: cfg.TargetCount},
		cfg:      cfg,
		log:      log,
		sleep:    time.Sleep,
	}
}

// Run processes every attraction and returns aggregate counts. Failures
// local to one attraction never abort the run; only missing credentials
// and storage failures do.
func (s *Scraper) Run(ctx context.Context, records []attractions.Record) (*Report, error) {
	s.log.InfoWithFields("starting acquisition run", map[string]interface{}{
		"attractions": len(records),
		"target":      s.cfg.TargetCount,
		"provider":    s.provider.Name(),
		"workers":     s.cfg.Workers,
	})

	if s.cfg.Workers > 1 {
		return s.runConcurrent(ctx, records)
	}

	report := &Report{}
	for i, rec := range records {
		outcome, downloaded, err := s.ProcessAttraction(ctx, rec)
		if err != nil {
			return report, err
		}

		report.Downloaded += downloaded
		switch outcome {
		case OutcomeSatisfied:
			report.Satisfied++
		case OutcomeDone:
			report.Done++
		case OutcomeFailed:
			report.Failed++
		}

		if outcome != OutcomeSatisfied && i < len(records)-1 {
			s.sleep(s.cfg.InterAttractionDelay)
		}
	}

	s.log.InfoWithFields("acquisition run finished", map[string]interface{}{
		"satisfied":  report.Satisfied,
		"done":       report.Done,
		"failed":     report.Failed,
		"downloaded": report.Downloaded,
	})
	return report, nil
}

// ProcessAttraction runs the acquisition loop for a single attraction.
// The returned error is non-nil only for fatal conditions; everything
// else is folded into the outcome.
func (s *Scraper) ProcessAttraction(ctx context.Context, rec attractions.Record) (Outcome, int, error) {
	dir := storage.AttractionDir(s.cfg.OutputRoot, rec.Name)

	needed, err := s.tracker.Needed(dir)
	if err != nil {
		return OutcomeFailed, 0, errors.Wrap(errors.TypeStorage, err, "scanning attraction directory failed")
	}
	if needed == 0 {
		s.log.WithField("attraction", rec.Name).Debug("target already satisfied")
		return OutcomeSatisfied, 0, nil
	}

	existing := s.cfg.TargetCount - needed
	s.log.InfoWithFields("attraction started", map[string]interface{}{
		"attraction": rec.Name,
		"existing":   existing,
		"needed":     needed,
	})

	candidates, err := s.provider.Search(ctx, rec.Name, needed*s.cfg.SafetyMultiplier)
	if err != nil {
		if errors.IsFatal(err) {
			return OutcomeFailed, 0, err
		}
		s.log.WithError(err).WithField("attraction", rec.Name).Warn("provider search failed")
		return OutcomeFailed, 0, nil
	}
	if len(candidates) == 0 {
		s.log.WithField("attraction", rec.Name).Warn("no candidates found")
		return OutcomeFailed, 0, nil
	}

	downloaded := 0
	for _, candidate := range candidates {
		if downloaded >= needed {
			break
		}
		if err := ctx.Err(); err != nil {
			return OutcomeFailed, downloaded, err
		}

		destPath := storage.ImagePath(s.cfg.OutputRoot, rec.Name, existing+downloaded+1)
		if _, err := os.Stat(destPath); err == nil {
			// left behind by an interrupted run
			downloaded++
			continue
		}

		if err := s.fetcher.Fetch(ctx, candidate, destPath); err != nil {
			if errors.IsFatal(err) {
				return OutcomeFailed, downloaded, err
			}
			s.log.WarnWithFields("candidate rejected", map[string]interface{}{
				"attraction": rec.Name,
				"candidate":  candidate.Ref,
				"reason":     err.Error(),
			})
		} else {
			downloaded++
			s.log.DebugWithFields("file written", map[string]interface{}{
				"attraction": rec.Name,
				"path":       destPath,
			})
		}

		s.sleep(s.interRequestDelay())
	}

	s.log.InfoWithFields("attraction completed", map[string]interface{}{
		"attraction": rec.Name,
		"downloaded": downloaded,
		"needed":     needed,
	})

	if downloaded > 0 {
		return OutcomeDone, downloaded, nil
	}
	return OutcomeFailed, 0, nil
}

// interRequestDelay returns the base delay plus uniform jitter
func (s *Scraper) interRequestDelay() time.Duration {
	if s.cfg.InterRequestJitter <= 0 {
		return s.cfg.InterRequestDelay
	}
	return s.cfg.InterRequestDelay + time.Duration(rand.Int63n(int64(s.cfg.InterRequestJitter)))
}
