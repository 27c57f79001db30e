package backup

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kvbackup/internal/downloader"
	"kvbackup/pkg/checkpoint"
	"kvbackup/pkg/cloudflare"
	"kvbackup/pkg/config"
	"kvbackup/pkg/logger"
	"kvbackup/pkg/ratelimit"
	"kvbackup/pkg/storage"
)

const clientTimeout = 60 * time.Second

// Summary reports what one run accomplished
type Summary struct {
	Pages      int
	Listed     int
	Downloaded int
	Skipped    int
	Failed     int
}

// Backup orchestrates one export run: a single key lister feeding a fixed
// pool of download workers through a shared queue, under one rate limiter,
// with a durable cursor checkpoint for resumption.
type Backup struct {
	client      KVClient
	store       *storage.Manager
	checkpoints *checkpoint.Store
	limiter     ratelimit.Limiter
	cfg         *config.Config
	logger      logger.Logger
	last        cursorCell
}

// New creates a Backup wired to the real Cloudflare API
func New(cfg *config.Config) (*Backup, error) {
	client := cloudflare.NewClient(
		cfg.Cloudflare.APIToken,
		cfg.Cloudflare.AccountID,
		cfg.Cloudflare.NamespaceID,
		clientTimeout,
		logger.GetLogger(),
	)
	return NewWithClient(cfg, client)
}

// NewWithClient creates a Backup with an injected API client
func NewWithClient(cfg *config.Config, client KVClient) (*Backup, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := storage.NewManager(cfg.Backup.Destination)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare destination: %w", err)
	}

	return &Backup{
		client:      client,
		store:       store,
		checkpoints: checkpoint.NewStore(cfg.Backup.CheckpointFile),
		limiter:     ratelimit.NewSlidingWindow(cfg.RateLimit.MaxRequests, cfg.RateLimit.TimeWindow),
		cfg:         cfg,
		logger:      logger.GetLogger(),
	}, nil
}

// ResetCheckpoint discards the stored cursor so the next run lists from
// the beginning.
func (b *Backup) ResetCheckpoint() error {
	return b.checkpoints.Delete()
}

// LastCursor returns the most recent cursor seen by the lister
func (b *Backup) LastCursor() string {
	return b.last.get()
}

// Run executes one backup pass: start the workers, walk the key listing,
// close the queue, wait for the drain, and report a summary. On SIGINT or
// SIGTERM the best-known cursor is persisted and the process exits
// immediately without draining in-flight work.
func (b *Backup) Run() (*Summary, error) {
	stopSignals := b.handleInterrupts()
	defer stopSignals()

	pool := downloader.NewWorkerPool(downloader.Options{
		Workers:        b.cfg.Backup.Workers,
		MaxRetries:     b.cfg.Backup.MaxRetries,
		InitialBackoff: b.cfg.Backup.InitialBackoff,
		Pace:           ratelimit.PaceInterval(b.cfg.RateLimit.MaxRequests, b.cfg.RateLimit.TimeWindow),
	}, b.client, b.store, b.limiter, b.logger)

	summary := &Summary{}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for result := range pool.Results() {
			switch result.Status {
			case downloader.StatusDownloaded:
				summary.Downloaded++
				b.logger.WithField("key", result.Key).Info("downloaded")
			case downloader.StatusSkipped:
				summary.Skipped++
			case downloader.StatusFailed:
				summary.Failed++
			}
		}
	}()

	pool.Start()
	b.listKeys(pool, summary)
	pool.Stop()
	<-done

	b.logger.InfoWithFields("backup finished", map[string]interface{}{
		"pages":      summary.Pages,
		"listed":     summary.Listed,
		"downloaded": summary.Downloaded,
		"skipped":    summary.Skipped,
		"failed":     summary.Failed,
	})

	return summary, nil
}

// listKeys is the producer: it walks the cursor-paginated key listing,
// enqueues every discovered key, and advances the durable checkpoint. The
// page cap bounds queue growth per invocation; it is not unlimited
// pagination. The cursor is persisted strictly after the page's keys have
// been enqueued.
func (b *Backup) listKeys(pool *downloader.WorkerPool, summary *Summary) {
	cursor := b.checkpoints.Load()
	b.last.set(cursor)

	b.logger.WithField("cursor", cursor).Debug("starting key listing")

	for page := 0; page < b.cfg.Backup.MaxPages; page++ {
		b.limiter.Wait()

		resp, err := b.client.ListKeys(cursor, b.cfg.Backup.BatchSize)
		if err != nil {
			// Listing failures are not retried; queued work still drains
			b.logger.WithError(err).Error("failed to list keys, stopping producer")
			return
		}

		summary.Pages++
		summary.Listed += len(resp.Result)

		b.logger.InfoWithFields("listed page", map[string]interface{}{
			"page": page + 1,
			"keys": len(resp.Result),
		})

		for _, key := range resp.Result {
			pool.Submit(key.Name)
		}

		if !resp.HasMorePages() {
			b.logger.Debug("key listing exhausted")
			return
		}

		cursor = resp.ResultInfo.Cursor
		b.last.set(cursor)
		if err := b.checkpoints.Save(cursor); err != nil {
			// Non-fatal: the in-memory cursor stays authoritative for the
			// shutdown-time save
			b.logger.WithError(err).Warn("failed to save checkpoint")
		}
	}

	b.logger.WithField("max_pages", b.cfg.Backup.MaxPages).
		Info("page cap reached for this invocation")
}

// handleInterrupts installs the fast-exit path: persist the last known
// cursor, then terminate without waiting for in-flight fetches. Partial
// downloads are harmless since value writes are whole-file.
func (b *Backup) handleInterrupts() func() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig, ok := <-sigCh
		if !ok {
			return
		}

		b.logger.WithField("signal", sig.String()).Warn("interrupted, saving cursor and exiting")
		if cursor := b.last.get(); cursor != "" {
			if err := b.checkpoints.Save(cursor); err != nil {
				b.logger.WithError(err).Error("failed to save cursor on shutdown")
			}
		}
		os.Exit(130)
	}()

	return func() {
		signal.Stop(sigCh)
		close(sigCh)
	}
}
