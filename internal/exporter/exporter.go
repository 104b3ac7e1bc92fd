// Package exporter delivers metric samples to a remote write endpoint in
// bounded batches, retrying transient failures with exponential backoff.
package exporter

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/suitepulse/suitepulse/internal/encoder"
)

// ErrFlushTimeout is returned when an explicit flush could not hand its
// request to the delivery worker before the timeout elapsed.
var ErrFlushTimeout = errors.New("flush timed out")

// Config controls batching, delivery and retry behaviour. Zero values fall
// back to the defaults noted per field.
type Config struct {
	// URL is the backend's import endpoint (required).
	URL string
	// AuthToken, when set, is sent as a bearer token.
	AuthToken string
	// BatchSize is the sample count that triggers a flush (default 200).
	BatchSize int
	// BatchInterval bounds how long queued samples wait before a flush is
	// triggered regardless of batch size (default 5s).
	BatchInterval time.Duration
	// MaxAttempts is the total delivery attempts per batch, the first try
	// included (default 4).
	MaxAttempts int
	// BackoffBase is the initial retry backoff interval (default 500ms).
	BackoffBase time.Duration
	// BackoffMax caps the retry backoff interval (default 10s).
	BackoffMax time.Duration
	// FlushTimeout bounds an explicit Flush when the caller's context has
	// no deadline of its own (default 30s).
	FlushTimeout time.Duration
	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

// FlushReport carries cumulative delivery statistics since Start. Delivery
// problems surface here and in logs only; they are never fatal to the test
// run that produced the samples.
type FlushReport struct {
	// SentCount is the number of samples delivered to the backend.
	SentCount int
	// FailedCount is the number of samples dropped after a non-retryable
	// response or exhausted retries.
	FailedCount int
	// DroppedCount is the number of samples abandoned because a flush
	// timeout or shutdown cut delivery short.
	DroppedCount int
	// Attempts is the total number of network writes performed.
	Attempts int
}

// Exporter buffers samples and ships them in batches on a background
// worker. Submit never blocks the calling test thread.
type Exporter interface {
	Start(ctx context.Context) error
	Stop() error
	Submit(samples []encoder.Sample)
	Flush(ctx context.Context) (*FlushReport, error)
}

type flushRequest struct {
	ctx   context.Context
	reply chan *FlushReport
}

type exporter struct {
	cfg    Config
	log    logrus.FieldLogger
	client *http.Client

	mu       sync.Mutex
	queue    []encoder.Sample
	sent     int
	failed   int
	dropped  int
	attempts int

	wake    chan struct{}
	flushCh chan *flushRequest
	cancel  context.CancelFunc
	ctx     context.Context
	done    chan struct{}
}

// Default configuration values, documented in Config.
const (
	DefaultBatchSize     = 200
	DefaultBatchInterval = 5 * time.Second
	DefaultMaxAttempts   = 4
	DefaultBackoffBase   = 500 * time.Millisecond
	DefaultBackoffMax    = 10 * time.Second
	DefaultFlushTimeout  = 30 * time.Second
)

// New creates an exporter.
func New(log logrus.FieldLogger, cfg Config) Exporter {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BatchInterval <= 0 {
		cfg.BatchInterval = DefaultBatchInterval
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = DefaultBackoffBase
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = DefaultBackoffMax
	}
	if cfg.FlushTimeout <= 0 {
		cfg.FlushTimeout = DefaultFlushTimeout
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	return &exporter{
		cfg:     cfg,
		log:     log.WithField("component", "batched_exporter"),
		client:  client,
		queue:   make([]encoder.Sample, 0, cfg.BatchSize),
		wake:    make(chan struct{}, 1),
		flushCh: make(chan *flushRequest),
		done:    make(chan struct{}),
	}
}

// Start launches the background delivery worker.
func (e *exporter) Start(ctx context.Context) error {
	e.ctx, e.cancel = context.WithCancel(ctx)

	go e.run()

	e.log.WithFields(logrus.Fields{
		"url":            e.cfg.URL,
		"batch_size":     e.cfg.BatchSize,
		"batch_interval": e.cfg.BatchInterval,
	}).Debug("batched exporter started")

	return nil
}

// Stop cancels the worker. An in-flight delivery is interrupted rather
// than waited for; unflushed samples are discarded.
func (e *exporter) Stop() error {
	if e.cancel == nil {
		return nil
	}

	e.cancel()
	<-e.done

	e.log.Debug("batched exporter stopped")

	return nil
}

// Submit enqueues samples for delivery. It never blocks: the worker is
// nudged with a non-blocking signal once the queue reaches the batch size.
func (e *exporter) Submit(samples []encoder.Sample) {
	if len(samples) == 0 {
		return
	}

	e.mu.Lock()
	e.queue = append(e.queue, samples...)
	pending := len(e.queue)
	e.mu.Unlock()

	if pending >= e.cfg.BatchSize {
		select {
		case e.wake <- struct{}{}:
		default:
		}
	}
}

// Flush synchronously drains the queue, bounded by ctx or the configured
// flush timeout. Samples still queued when the bound elapses are counted
// as dropped in the returned report.
func (e *exporter) Flush(ctx context.Context) (*FlushReport, error) {
	if e.ctx == nil {
		// Not started: no worker to hand off to, drain inline.
		return e.drain(ctx), nil
	}

	request := &flushRequest{ctx: ctx, reply: make(chan *FlushReport, 1)}

	select {
	case e.flushCh <- request:
	case <-e.ctx.Done():
		e.dropRemaining()
		return e.report(), nil
	case <-ctx.Done():
		return e.report(), ErrFlushTimeout
	}

	select {
	case report := <-request.reply:
		return report, nil
	case <-e.ctx.Done():
		e.dropRemaining()
		return e.report(), nil
	}
}

// run is the delivery worker: it flushes on batch-size wakeups, on the
// batch interval for low-volume periods, and on explicit flush requests.
func (e *exporter) run() {
	defer close(e.done)

	ticker := time.NewTicker(e.cfg.BatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-e.wake:
			for e.pending() >= e.cfg.BatchSize {
				e.deliver(e.ctx, e.takeBatch())
			}
		case <-ticker.C:
			for e.pending() > 0 {
				e.deliver(e.ctx, e.takeBatch())
			}
		case request := <-e.flushCh:
			request.reply <- e.drain(request.ctx)
		}
	}
}

// drain delivers everything queued until empty or the deadline passes.
func (e *exporter) drain(ctx context.Context) *FlushReport {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.FlushTimeout)
		defer cancel()
	}

	for {
		if ctx.Err() != nil {
			e.dropRemaining()
			break
		}

		batch := e.takeBatch()
		if len(batch) == 0 {
			break
		}

		e.deliver(ctx, batch)
	}

	return e.report()
}

// takeBatch removes up to BatchSize samples from the head of the queue,
// preserving submission order within the batch.
func (e *exporter) takeBatch() []encoder.Sample {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.queue) == 0 {
		return nil
	}

	size := e.cfg.BatchSize
	if size > len(e.queue) {
		size = len(e.queue)
	}

	batch := make([]encoder.Sample, size)
	copy(batch, e.queue[:size])
	e.queue = append(e.queue[:0], e.queue[size:]...)

	return batch
}

func (e *exporter) pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return len(e.queue)
}

func (e *exporter) dropRemaining() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.queue) == 0 {
		return
	}

	e.log.WithField("samples", len(e.queue)).Warn("discarding unflushed samples")
	e.dropped += len(e.queue)
	e.queue = e.queue[:0]
}

func (e *exporter) report() *FlushReport {
	e.mu.Lock()
	defer e.mu.Unlock()

	return &FlushReport{
		SentCount:    e.sent,
		FailedCount:  e.failed,
		DroppedCount: e.dropped,
		Attempts:     e.attempts,
	}
}

// deliver serializes one batch and posts it, retrying transient failures
// with exponential backoff. Samples stay owned by the batch until the
// attempt resolves; a fatal response or exhausted retries drops them with
// a logged error, never a raised one.
func (e *exporter) deliver(ctx context.Context, batch []encoder.Sample) {
	if len(batch) == 0 {
		return
	}

	payload := encoder.MarshalText(batch)

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = e.cfg.BackoffBase
	policy.MaxInterval = e.cfg.BackoffMax
	policy.MaxElapsedTime = 0

	operation := func() error {
		e.mu.Lock()
		e.attempts++
		e.mu.Unlock()

		if err := e.post(ctx, payload); err != nil {
			var status *statusError
			if errors.As(err, &status) && !status.retryable() {
				return backoff.Permanent(err)
			}

			e.log.WithError(err).Warn("delivery attempt failed, will retry")

			return err
		}

		return nil
	}

	retries := uint64(e.cfg.MaxAttempts - 1) //nolint:gosec // MaxAttempts is validated > 0
	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, retries), ctx))

	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case err == nil:
		e.sent += len(batch)
	case ctx.Err() != nil:
		e.dropped += len(batch)
		e.log.WithField("samples", len(batch)).Warn("delivery cut short by timeout or shutdown")
	default:
		e.failed += len(batch)
		e.log.WithError(err).WithField("samples", len(batch)).Error("batch dropped")
	}
}

// Compile-time interface compliance check
var _ Exporter = (*exporter)(nil)
