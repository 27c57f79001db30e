package downloader

import (
	"fmt"
	"sync"
	"time"

	"kvbackup/pkg/logger"
	"kvbackup/pkg/ratelimit"
	"kvbackup/pkg/retry"
)

// Status classifies the outcome of one work item
type Status string

const (
	StatusDownloaded Status = "downloaded"
	StatusSkipped    Status = "skipped"
	StatusFailed     Status = "failed"
)

// Result is the outcome of processing one key
type Result struct {
	Key      string
	Status   Status
	Error    error
	Size     int
	Duration time.Duration
}

// ValueFetcher downloads the raw value bytes for a key
type ValueFetcher interface {
	FetchValue(name string) ([]byte, error)
}

// ValueStore checks and writes destination files
type ValueStore interface {
	IsBackedUp(key string) bool
	Save(key string, data []byte) error
}

// Options configures the worker pool
type Options struct {
	// Workers is the fixed pool size
	Workers int
	// MaxRetries bounds the attempts per key on retryable failures
	MaxRetries int
	// InitialBackoff is the delay before the first retry; it doubles on
	// each subsequent retry
	InitialBackoff time.Duration
	// Pace is the minimum delay a worker sleeps after each completed
	// fetch, cooperating with the shared limiter
	Pace time.Duration
}

// WorkerPool runs a fixed number of workers that pull key names from a
// shared queue and download their values. Closing the queue (Stop) is the
// termination signal for the workers.
type WorkerPool struct {
	opts    Options
	jobs    chan string
	results chan Result
	wg      sync.WaitGroup
	fetcher ValueFetcher
	store   ValueStore
	limiter ratelimit.Limiter
	logger  logger.Logger
}

// NewWorkerPool creates a pool; the limiter is shared with the producer so
// the aggregate request rate stays bounded.
func NewWorkerPool(opts Options, fetcher ValueFetcher, store ValueStore, limiter ratelimit.Limiter, log logger.Logger) *WorkerPool {
	if log == nil {
		log = logger.GetLogger()
	}

	return &WorkerPool{
		opts:    opts,
		jobs:    make(chan string, opts.Workers*2),
		results: make(chan Result, opts.Workers*2),
		fetcher: fetcher,
		store:   store,
		limiter: limiter,
		logger:  log,
	}
}

// Start launches the workers
func (wp *WorkerPool) Start() {
	wp.logger.DebugWithFields("starting worker pool", map[string]interface{}{
		"workers": wp.opts.Workers,
	})

	for i := 0; i < wp.opts.Workers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Submit enqueues one key for download. Blocks when the queue is full,
// which lets the producer self-throttle against slow workers.
func (wp *WorkerPool) Submit(key string) {
	wp.jobs <- key
}

// Stop signals that no more keys will arrive, waits for the workers to
// drain the queue, then closes the results channel.
func (wp *WorkerPool) Stop() {
	close(wp.jobs)
	wp.wg.Wait()
	close(wp.results)
}

// Results returns the channel of per-key outcomes
func (wp *WorkerPool) Results() <-chan Result {
	return wp.results
}

// QueueDepth returns the number of keys waiting in the queue
func (wp *WorkerPool) QueueDepth() int {
	return len(wp.jobs)
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for key := range wp.jobs {
		result := wp.processKey(key, id)
		wp.results <- result

		// Skips made no network call, so they need no pacing
		if result.Status != StatusSkipped && wp.opts.Pace > 0 {
			time.Sleep(wp.opts.Pace)
		}
	}

	wp.logger.DebugWithFields("worker stopping, queue drained", map[string]interface{}{
		"worker_id": id,
	})
}

// processKey handles one key: skip if the destination file exists,
// otherwise fetch with bounded retry and write atomically.
func (wp *WorkerPool) processKey(key string, workerID int) Result {
	start := time.Now()

	if wp.store.IsBackedUp(key) {
		wp.logger.DebugWithFields("already exists, skipping", map[string]interface{}{
			"worker_id": workerID,
			"key":       key,
		})
		return Result{Key: key, Status: StatusSkipped, Duration: time.Since(start)}
	}

	data, err := retry.DoWithResult(func() ([]byte, error) {
		wp.limiter.Wait()
		return wp.fetcher.FetchValue(key)
	}, &retry.Config{
		MaxAttempts: wp.opts.MaxRetries,
		Backoff: &retry.ExponentialBackoff{
			BaseDelay:  wp.opts.InitialBackoff,
			Multiplier: 2.0,
		},
		RetryIf: retry.DefaultRetryIf,
		Logger:  wp.logger.WithField("key", key),
	})
	if err != nil {
		wp.logger.WarnWithFields("abandoning key", map[string]interface{}{
			"worker_id": workerID,
			"key":       key,
			"error":     err.Error(),
		})
		return Result{Key: key, Status: StatusFailed, Error: err, Duration: time.Since(start)}
	}

	if err := wp.store.Save(key, data); err != nil {
		wp.logger.ErrorWithFields("failed to write value", map[string]interface{}{
			"worker_id": workerID,
			"key":       key,
			"error":     err.Error(),
		})
		return Result{
			Key:      key,
			Status:   StatusFailed,
			Error:    fmt.Errorf("save failed: %w", err),
			Duration: time.Since(start),
		}
	}

	wp.logger.DebugWithFields("downloaded", map[string]interface{}{
		"worker_id": workerID,
		"key":       key,
		"size":      len(data),
	})

	return Result{Key: key, Status: StatusDownloaded, Size: len(data), Duration: time.Since(start)}
}
