package scraper

import (
	"context"

	"github.com/treeleaves30760/tw-dataset-generation/internal/downloader"
	"github.com/treeleaves30760/tw-dataset-generation/pkg/attractions"
	"github.com/treeleaves30760/tw-dataset-generation/pkg/errors"
)

// poolProcessor adapts the scraper to the worker pool contract
type poolProcessor struct {
	s *Scraper
}

func (p poolProcessor) Process(ctx context.Context, rec attractions.Record) (string, int, error) {
	outcome, downloaded, err := p.s.ProcessAttraction(ctx, rec)
	if err == nil && outcome != OutcomeSatisfied {
		p.s.sleep(p.s.cfg.InterAttractionDelay)
	}
	return string(outcome), downloaded, err
}

// runConcurrent distributes attractions across the worker pool. Each
// attraction is still handled by exactly one worker, so the contiguous
// numbering contract inside each directory is preserved. Per-worker
// delays are unchanged, so the aggregate request rate scales with the
// worker count; that trade-off is the operator's, via the workers
// setting.
func (s *Scraper) runConcurrent(ctx context.Context, records []attractions.Record) (*Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool := downloader.NewWorkerPool(s.cfg.Workers, poolProcessor{s}, s.log)
	pool.Start(ctx)

	go func() {
		for _, rec := range records {
			if err := pool.Submit(ctx, rec); err != nil {
				break
			}
		}
		pool.Close()
	}()

	report := &Report{}
	var fatal error
	for result := range pool.Results() {
		if result.Err != nil {
			if fatal == nil && errors.IsFatal(result.Err) {
				fatal = result.Err
				cancel()
			}
			report.Failed++
			continue
		}

		report.Downloaded += result.Downloaded
		switch Outcome(result.Outcome) {
		case OutcomeSatisfied:
			report.Satisfied++
		case OutcomeDone:
			report.Done++
		case OutcomeFailed:
			report.Failed++
		}
	}

	s.log.InfoWithFields("acquisition run finished", map[string]interface{}{
		"satisfied":  report.Satisfied,
		"done":       report.Done,
		"failed":     report.Failed,
		"downloaded": report.Downloaded,
	})
	return report, fatal
}
