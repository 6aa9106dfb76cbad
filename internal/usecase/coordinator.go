package usecase

import (
	"context"
	"fmt"
	"time"

	"MarketCast/internal/domain/models"
	domrepo "MarketCast/internal/domain/repository"
	"MarketCast/internal/registry"
	"MarketCast/internal/service/schedule"
	applogger "MarketCast/pkg/logger"

	"github.com/google/uuid"
)

// Coordinator orchestrates one collection pass: asks the trigger which
// cadence classes are due, drives the fetcher over their instruments in
// registration order, forwards records to the publisher, and advances
// watermarks for instruments that succeeded. One instrument's failure
// never aborts the pass.
type Coordinator struct {
	trigger   *schedule.Trigger
	registry  *registry.Registry
	fetcher   *Fetcher
	publisher domrepo.RecordPublisher
	metrics   domrepo.Metrics
	logger    *applogger.Logger
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(
	trigger *schedule.Trigger,
	reg *registry.Registry,
	fetcher *Fetcher,
	publisher domrepo.RecordPublisher,
	metrics domrepo.Metrics,
	l *applogger.Logger,
) *Coordinator {
	return &Coordinator{
		trigger:   trigger,
		registry:  reg,
		fetcher:   fetcher,
		publisher: publisher,
		metrics:   metrics,
		logger:    l,
	}
}

// RunPass executes one pass as of now and returns its outcome. A pass with
// no due cadence classes is a no-op success. Cancelling ctx stops the pass
// after the instrument currently in flight, never mid-publish.
func (c *Coordinator) RunPass(ctx context.Context, now time.Time) (*models.RunOutcome, error) {
	outcome := models.NewRunOutcome(uuid.NewString(), now)

	due, err := c.trigger.DueClasses(ctx, now, c.registry.Classes())
	if err != nil {
		return nil, fmt.Errorf("due classes: %w", err)
	}
	if len(due) == 0 {
		outcome.FinishedAt = time.Now()
		return outcome, nil
	}

	classes := make([]models.CadenceClass, 0, len(due))
	for _, d := range due {
		classes = append(classes, d.Class)
	}
	instruments := c.registry.Members(classes...)

	c.logger.Info("pass started",
		applogger.String("run_id", outcome.RunID),
		applogger.Any("classes", classes),
		applogger.Int("instruments", len(instruments)))

	interrupted := false
	for _, inst := range instruments {
		if ctx.Err() != nil {
			interrupted = true
			break
		}
		c.processInstrument(ctx, inst, outcome)
	}

	// Mark due instants fired only when the pass ran to completion; an
	// interrupted pass re-fires on the next start and the watermarks keep
	// already-collected ranges from being re-published.
	if !interrupted {
		for _, d := range due {
			if err := c.trigger.MarkFired(ctx, d); err != nil {
				c.logger.Error("mark fired failed",
					applogger.String("class", string(d.Class)),
					applogger.Error(err))
			}
		}
	}

	outcome.FinishedAt = time.Now()
	c.metrics.RecordPass(outcome.FinishedAt.Sub(now), len(outcome.Attempted), len(outcome.Failed))
	c.logger.Info("pass complete",
		applogger.String("run_id", outcome.RunID),
		applogger.Int("attempted", len(outcome.Attempted)),
		applogger.Int("succeeded", len(outcome.Succeeded)),
		applogger.Int("failed", len(outcome.Failed)),
		applogger.Int("published", outcome.Published),
		applogger.Bool("interrupted", interrupted))
	return outcome, nil
}

func (c *Coordinator) processInstrument(ctx context.Context, inst models.Instrument, outcome *models.RunOutcome) {
	records, err := c.fetcher.Fetch(ctx, inst)
	if err != nil {
		if ctx.Err() != nil {
			return // shutdown, not an instrument failure
		}
		kind := models.KindOf(err)
		outcome.RecordFailure(inst.Symbol, kind)
		c.metrics.RecordFetch(inst.Symbol, string(kind))
		if kind == models.ErrNotFound {
			c.registry.Flag(inst.Symbol)
			c.logger.Warn("instrument flagged", applogger.String("symbol", inst.Symbol))
		}
		c.logger.Error("fetch failed",
			applogger.String("symbol", inst.Symbol),
			applogger.Error(err))
		return
	}
	c.metrics.RecordFetch(inst.Symbol, "ok")

	// On the very first fetch of an instrument only the latest bar is
	// published; the backlog before it was never part of the stream.
	if !inst.HasObserved && len(records) > 1 {
		records = records[len(records)-1:]
	}

	for i := range records {
		rec := &records[i]
		if err := c.publisher.Publish(ctx, rec); err != nil {
			// At-most-once: the record is dropped, the watermark still
			// advances below.
			outcome.PublishFailed++
			c.metrics.RecordError("publish")
			c.logger.Error("publish failed",
				applogger.String("symbol", rec.Symbol),
				applogger.Any("timestamp", rec.Timestamp),
				applogger.Error(err))
			continue
		}
		outcome.Published++
		c.metrics.RecordPublished(rec.Symbol)
	}

	if len(records) > 0 {
		mark := records[len(records)-1].Timestamp
		if err := c.registry.Advance(ctx, inst.Symbol, mark); err != nil {
			// The fetch and publish happened; the next pass re-fetches
			// from the stale watermark and consumers deduplicate by
			// (symbol, timestamp).
			c.logger.Error("watermark persist failed",
				applogger.String("symbol", inst.Symbol),
				applogger.Error(err))
		} else {
			c.metrics.RecordWatermark(inst.Symbol, mark)
		}
	}
	outcome.RecordSuccess(inst.Symbol)
}
