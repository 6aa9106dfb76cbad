package schedule

import (
	"context"
	"fmt"
	"time"

	"MarketCast/internal/domain/models"
	"MarketCast/internal/domain/repository"
)

// Config holds the wall-clock anchors for the cadence classes. All offsets
// are measured from midnight in Location except TriggerOffset, which delays
// every trigger instant so the provider has the data ready.
type Config struct {
	Location      *time.Location
	MarketClose   time.Duration // e.g. 16h for a 16:00 close
	TriggerOffset time.Duration // e.g. 5m, added to every instant
}

// Due is a cadence class that should run now, tagged with the trigger
// instant it fires for.
type Due struct {
	Class   models.CadenceClass
	Instant time.Time
}

// Trigger decides which cadence classes are due at a given wall-clock time.
// Firing is idempotent per instant: the last fired instant of each class is
// persisted, so a restart shortly after a fire does not fire again, and a
// long outage fires once for the most recent missed instant only.
type Trigger struct {
	cfg      Config
	calendar repository.TradingCalendar
	store    repository.StateStore
}

// NewTrigger creates a Trigger backed by the given calendar and state store.
func NewTrigger(cfg Config, calendar repository.TradingCalendar, store repository.StateStore) *Trigger {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Trigger{cfg: cfg, calendar: calendar, store: store}
}

// DueClasses returns, among classes, those whose most recent trigger
// instant has not fired yet as of now.
func (t *Trigger) DueClasses(ctx context.Context, now time.Time, classes []models.CadenceClass) ([]Due, error) {
	var due []Due
	for _, class := range classes {
		instant, ok := t.latestInstant(class, now)
		if !ok {
			continue
		}
		fired, has, err := t.store.LastFired(ctx, class)
		if err != nil {
			return nil, fmt.Errorf("last fired %s: %w", class, err)
		}
		if has && !fired.Before(instant) {
			continue
		}
		due = append(due, Due{Class: class, Instant: instant})
	}
	return due, nil
}

// MarkFired persists that d's instant has run, suppressing re-fires for the
// same instant.
func (t *Trigger) MarkFired(ctx context.Context, d Due) error {
	if err := t.store.SetLastFired(ctx, d.Class, d.Instant); err != nil {
		return fmt.Errorf("mark fired %s: %w", d.Class, err)
	}
	return nil
}

// latestInstant computes the most recent trigger instant of class at or
// before now. Missed instants further back are intentionally ignored.
func (t *Trigger) latestInstant(class models.CadenceClass, now time.Time) (time.Time, bool) {
	local := now.In(t.cfg.Location)
	switch class {
	case models.CadenceHourly:
		instant := local.Truncate(time.Hour).Add(t.cfg.TriggerOffset)
		if instant.After(now) {
			instant = instant.Add(-time.Hour)
		}
		return instant, true
	case models.CadenceCalendarDaily:
		instant := t.dailyInstant(local)
		if instant.After(now) {
			instant = t.dailyInstant(local.AddDate(0, 0, -1))
		}
		return instant, true
	case models.CadenceMarketDaily:
		// Walk back to the most recent trading day whose close instant
		// has passed. Two weeks covers any realistic holiday cluster.
		for d := local; local.Sub(d) < 14*24*time.Hour; d = d.AddDate(0, 0, -1) {
			if !t.calendar.IsTradingDay(d) {
				continue
			}
			instant := t.dailyInstant(d)
			if !instant.After(now) {
				return instant, true
			}
		}
		return time.Time{}, false
	}
	return time.Time{}, false
}

// dailyInstant is the close-anchored instant for d's date.
func (t *Trigger) dailyInstant(d time.Time) time.Time {
	midnight := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, t.cfg.Location)
	return midnight.Add(t.cfg.MarketClose + t.cfg.TriggerOffset)
}
