package analytics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/serroba/linkbot/internal/metrics"
	"github.com/serroba/linkbot/internal/shortener"
	"go.uber.org/zap"
)

// Tracker accepts clicks without making the caller wait for them.
type Tracker interface {
	Track(link *shortener.ShortLink, visit Visit)
}

// TrackFunc performs the actual work for one click.
type TrackFunc func(ctx context.Context, link *shortener.ShortLink, visit Visit) error

// AsyncTracker runs a TrackFunc in its own goroutine per click. The work is
// detached from the request context, bounded by a timeout and guarded by a
// recover, and failures are logged rather than returned.
type AsyncTracker struct {
	track   TrackFunc
	success string
	timeout time.Duration
	grace   time.Duration
	logger  *zap.Logger
	metrics *metrics.Metrics

	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

const (
	defaultTrackTimeout = 10 * time.Second
	defaultTrackGrace   = 5 * time.Second
)

// TrackerConfig bounds background tracking. Zero values fall back to defaults.
type TrackerConfig struct {
	// Timeout caps a single click.
	Timeout time.Duration
	// Grace is how long Shutdown waits for in-flight clicks before cancelling them.
	Grace time.Duration
}

// NewAsyncTracker creates a tracker. success is the metrics outcome recorded
// when track returns nil.
func NewAsyncTracker(
	track TrackFunc,
	success string,
	cfg TrackerConfig,
	logger *zap.Logger,
	m *metrics.Metrics,
) *AsyncTracker {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTrackTimeout
	}

	if cfg.Grace <= 0 {
		cfg.Grace = defaultTrackGrace
	}

	base, cancel := context.WithCancel(context.Background())

	return &AsyncTracker{
		track:   track,
		success: success,
		timeout: cfg.Timeout,
		grace:   cfg.Grace,
		logger:  logger,
		metrics: m,
		base:    base,
		cancel:  cancel,
	}
}

// Track schedules the click and returns immediately.
func (t *AsyncTracker) Track(link *shortener.ShortLink, visit Visit) {
	t.mu.RLock()
	if t.closed {
		t.mu.RUnlock()
		t.metrics.Click(metrics.ClickDropped)

		return
	}

	t.wg.Add(1)
	t.mu.RUnlock()

	go func() {
		defer t.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				t.metrics.Click(metrics.ClickFailed)
				t.logger.Error("click tracking panicked",
					zap.String("alias", string(link.Alias)),
					zap.Any("panic", rec),
				)
			}
		}()

		ctx, cancel := context.WithTimeout(t.base, t.timeout)
		defer cancel()

		if err := t.track(ctx, link, visit); err != nil {
			t.metrics.Click(metrics.ClickFailed)
			t.logger.Error("click tracking failed",
				zap.String("alias", string(link.Alias)),
				zap.Error(err),
			)

			return
		}

		t.metrics.Click(t.success)
	}()
}

// Wait blocks until every scheduled click has finished.
func (t *AsyncTracker) Wait() {
	t.wg.Wait()
}

// Shutdown stops accepting clicks, waits up to the grace period and then
// cancels whatever is still running.
func (t *AsyncTracker) Shutdown() error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()

	done := make(chan struct{})

	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(t.grace):
		t.logger.Warn("cancelling in-flight click tracking", zap.Duration("grace", t.grace))
	}

	t.cancel()

	return nil
}

// Compile-time check.
var _ Tracker = (*AsyncTracker)(nil)

// WithRecover is a helper for running tracking synchronously with the same
// error boundary, used by the stream consumer.
func WithRecover(fn TrackFunc) TrackFunc {
	return func(ctx context.Context, link *shortener.ShortLink, visit Visit) (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("%w: panic: %v", ErrTracking, rec)
			}
		}()

		return fn(ctx, link, visit)
	}
}
