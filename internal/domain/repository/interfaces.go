package repository

import (
	"context"
	"time"

	"MarketCast/internal/domain/models"
)

// Provider fetches OHLCV rows for one instrument from the external data
// source. Implementations classify failures with models.FetchError so the
// fetcher can decide retry behavior. since is the exclusive lower bound;
// hasSince is false when the instrument has no watermark yet.
type Provider interface {
	Fetch(ctx context.Context, symbol string, since time.Time, hasSince bool) ([]models.OHLCVRecord, error)
}

// RecordPublisher hands a record off to the broadcast substrate. Delivery
// is fire-and-forget; the publisher's responsibility ends at hand-off.
type RecordPublisher interface {
	Publish(ctx context.Context, rec *models.OHLCVRecord) error
	Close() error
}

// RateGate admits outbound provider calls. Acquire blocks until a slot is
// available within the current window or ctx is done.
type RateGate interface {
	Acquire(ctx context.Context) error
}

// StateStore persists the collector state that must survive restarts:
// per-instrument watermarks and per-cadence last-fired trigger instants.
type StateStore interface {
	LastObserved(ctx context.Context, symbol string) (time.Time, bool, error)
	SetLastObserved(ctx context.Context, symbol string, ts time.Time) error
	LastFired(ctx context.Context, class models.CadenceClass) (time.Time, bool, error)
	SetLastFired(ctx context.Context, class models.CadenceClass, instant time.Time) error
	Close() error
}

// TradingCalendar answers whether a date is a trading day in the exchange's
// calendar. Injected so tests can run against synthetic calendars.
type TradingCalendar interface {
	IsTradingDay(date time.Time) bool
}

// Metrics records operational measurements.
type Metrics interface {
	RecordPass(duration time.Duration, attempted, failed int)
	RecordFetch(symbol, result string)
	RecordPublished(symbol string)
	RecordError(kind string)
	RecordWatermark(symbol string, ts time.Time)
}
