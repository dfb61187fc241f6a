// Package downloader runs the acquisition loop across a bounded pool of
// workers. The pool is partitioned by attraction: one worker owns an
// attraction from directory scan through the last download, so sequence
// numbering inside each attraction directory stays contiguous.
package downloader

import (
	"context"
	"sync"
	"time"

	"github.com/treeleaves30760/tw-dataset-generation/pkg/attractions"
	"github.com/treeleaves30760/tw-dataset-generation/pkg/logger"
)

// AttractionProcessor handles one attraction end-to-end
type AttractionProcessor interface {
	Process(ctx context.Context, rec attractions.Record) (outcome string, downloaded int, err error)
}

// Result is the per-attraction outcome produced by a worker
type Result struct {
	Record     attractions.Record
	Outcome    string
	Downloaded int
	Err        error
	Duration   time.Duration
}

// WorkerPool manages concurrent attraction workers
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan attractions.Record
	resultQueue chan Result
	wg          sync.WaitGroup
	processor   AttractionProcessor
	logger      logger.Logger
}

// NewWorkerPool creates a pool of attraction workers
func NewWorkerPool(numWorkers int, processor AttractionProcessor, log logger.Logger) *WorkerPool {
	if log == nil {
		log = logger.GetLogger()
	}
	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan attractions.Record, numWorkers*2),
		resultQueue: make(chan Result, numWorkers),
		processor:   processor,
		logger:      log,
	}
}

// Start launches all workers
func (wp *WorkerPool) Start(ctx context.Context) {
	wp.logger.InfoWithFields("starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

// Submit queues an attraction for processing
func (wp *WorkerPool) Submit(ctx context.Context, rec attractions.Record) error {
	select {
	case wp.jobQueue <- rec:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close signals that no more jobs will be submitted. Workers drain the
// queue, then the result channel closes.
func (wp *WorkerPool) Close() {
	close(wp.jobQueue)
	go func() {
		wp.wg.Wait()
		close(wp.resultQueue)
	}()
}

// Results returns the channel of per-attraction results
func (wp *WorkerPool) Results() <-chan Result {
	return wp.resultQueue
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()

	for rec := range wp.jobQueue {
		select {
		case <-ctx.Done():
			wp.logger.DebugWithFields("worker stopping, context cancelled", map[string]interface{}{
				"worker_id": id,
			})
			return
		default:
		}

		start := time.Now()
		outcome, downloaded, err := wp.processor.Process(ctx, rec)
		result := Result{
			Record:     rec,
			Outcome:    outcome,
			Downloaded: downloaded,
			Err:        err,
			Duration:   time.Since(start),
		}

		select {
		case wp.resultQueue <- result:
		case <-ctx.Done():
			return
		}
	}
}
