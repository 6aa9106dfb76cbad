package usecase

import (
	"context"
	"errors"
	"time"

	"MarketCast/internal/domain/models"
	domrepo "MarketCast/internal/domain/repository"
	applogger "MarketCast/pkg/logger"
)

// Fetcher performs a rate-limited, retried provider request for one
// instrument. Every attempt, retries included, consumes a fresh rate-gate
// grant, so local retrying can never exceed the request budget.
type Fetcher struct {
	provider domrepo.Provider
	gate     domrepo.RateGate
	logger   *applogger.Logger

	maxAttempts      int
	backoff          time.Duration
	rateLimitBackoff time.Duration
	sleep            func(ctx context.Context, d time.Duration) error
}

// FetchOption configures Fetcher.
type FetchOption func(*Fetcher)

// WithMaxAttempts bounds retries; the total attempt count is n.
func WithMaxAttempts(n int) FetchOption {
	return func(f *Fetcher) { f.maxAttempts = n }
}

// WithBackoff sets the base delay doubled on each retry.
func WithBackoff(d time.Duration) FetchOption {
	return func(f *Fetcher) { f.backoff = d }
}

// WithRateLimitBackoff sets the extra delay applied when the provider
// itself reports throttling.
func WithRateLimitBackoff(d time.Duration) FetchOption {
	return func(f *Fetcher) { f.rateLimitBackoff = d }
}

// NewFetcher creates a Fetcher over provider, gated by gate.
func NewFetcher(provider domrepo.Provider, gate domrepo.RateGate, l *applogger.Logger, opts ...FetchOption) *Fetcher {
	f := &Fetcher{
		provider:         provider,
		gate:             gate,
		logger:           l,
		maxAttempts:      3,
		backoff:          2 * time.Second,
		rateLimitBackoff: 30 * time.Second,
		sleep:            sleepCtx,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves records newer than inst's watermark. Transient,
// throttling and unexpected-response failures retry with exponential
// backoff up to the attempt bound; unknown instruments fail immediately.
func (f *Fetcher) Fetch(ctx context.Context, inst models.Instrument) ([]models.OHLCVRecord, error) {
	var lastErr error
	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		if err := f.gate.Acquire(ctx); err != nil {
			return nil, err
		}

		records, err := f.provider.Fetch(ctx, inst.Symbol, inst.LastObservedAt, inst.HasObserved)
		if err == nil {
			return records, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err

		var fe *models.FetchError
		if errors.As(err, &fe) && !fe.Retryable() {
			return nil, err
		}
		if attempt == f.maxAttempts {
			break
		}

		wait := f.backoff << (attempt - 1)
		if models.KindOf(err) == models.ErrRateLimited {
			wait += f.rateLimitBackoff
		}
		f.logger.Warn("fetch retry",
			applogger.String("symbol", inst.Symbol),
			applogger.Int("attempt", attempt),
			applogger.Duration("wait", wait),
			applogger.Error(err))
		if err := f.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
