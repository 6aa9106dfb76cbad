package schedule

import (
	"context"
	"testing"
	"time"

	"MarketCast/internal/domain/models"
	internalrepo "MarketCast/internal/repository"
)

func newTestTrigger(t *testing.T) (*Trigger, *internalrepo.MemoryStateStore) {
	t.Helper()
	store := internalrepo.NewMemoryStateStore()
	cfg := Config{
		Location:      time.UTC,
		MarketClose:   16 * time.Hour,
		TriggerOffset: 5 * time.Minute,
	}
	cal := NewWeekdayCalendar(time.UTC, nil)
	return NewTrigger(cfg, cal, store), store
}

func TestMarketDailyDueAfterClose(t *testing.T) {
	trig, _ := newTestTrigger(t)

	// Tuesday 2024-06-04 16:10 UTC, ten minutes past close.
	now := time.Date(2024, 6, 4, 16, 10, 0, 0, time.UTC)
	due, err := trig.DueClasses(context.Background(), now, []models.CadenceClass{models.CadenceMarketDaily})
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 1 {
		t.Fatalf("due = %v, want one entry", due)
	}
	want := time.Date(2024, 6, 4, 16, 5, 0, 0, time.UTC)
	if !due[0].Instant.Equal(want) {
		t.Errorf("instant = %v, want %v", due[0].Instant, want)
	}
}

func TestMarketDailyBeforeCloseUsesPreviousTradingDay(t *testing.T) {
	trig, _ := newTestTrigger(t)

	// Tuesday 10:00, before close: most recent instant is Monday's close.
	now := time.Date(2024, 6, 4, 10, 0, 0, 0, time.UTC)
	due, err := trig.DueClasses(context.Background(), now, []models.CadenceClass{models.CadenceMarketDaily})
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2024, 6, 3, 16, 5, 0, 0, time.UTC)
	if len(due) != 1 || !due[0].Instant.Equal(want) {
		t.Fatalf("due = %v, want instant %v", due, want)
	}
}

func TestMarketDailySkipsWeekend(t *testing.T) {
	trig, _ := newTestTrigger(t)

	// Sunday: most recent trading-day close is Friday's.
	now := time.Date(2024, 6, 9, 12, 0, 0, 0, time.UTC)
	due, err := trig.DueClasses(context.Background(), now, []models.CadenceClass{models.CadenceMarketDaily})
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2024, 6, 7, 16, 5, 0, 0, time.UTC)
	if len(due) != 1 || !due[0].Instant.Equal(want) {
		t.Fatalf("due = %v, want instant %v", due, want)
	}
}

func TestFiringIsIdempotentPerInstant(t *testing.T) {
	trig, _ := newTestTrigger(t)
	ctx := context.Background()
	now := time.Date(2024, 6, 4, 16, 10, 0, 0, time.UTC)
	classes := []models.CadenceClass{models.CadenceMarketDaily}

	due, err := trig.DueClasses(ctx, now, classes)
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 1 {
		t.Fatalf("expected one due class, got %v", due)
	}
	if err := trig.MarkFired(ctx, due[0]); err != nil {
		t.Fatal(err)
	}

	// Same instant, later in the evening: nothing due.
	later := time.Date(2024, 6, 4, 22, 0, 0, 0, time.UTC)
	due, err = trig.DueClasses(ctx, later, classes)
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 0 {
		t.Errorf("already-fired instant re-fired: %v", due)
	}

	// Next trading day's close is due again.
	next := time.Date(2024, 6, 5, 16, 6, 0, 0, time.UTC)
	due, err = trig.DueClasses(ctx, next, classes)
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 1 {
		t.Errorf("next day's instant should be due, got %v", due)
	}
}

func TestRestartDoesNotRefire(t *testing.T) {
	store := internalrepo.NewMemoryStateStore()
	cfg := Config{Location: time.UTC, MarketClose: 16 * time.Hour, TriggerOffset: 5 * time.Minute}
	cal := NewWeekdayCalendar(time.UTC, nil)
	ctx := context.Background()
	now := time.Date(2024, 6, 4, 16, 10, 0, 0, time.UTC)
	classes := []models.CadenceClass{models.CadenceMarketDaily}

	trig := NewTrigger(cfg, cal, store)
	due, err := trig.DueClasses(ctx, now, classes)
	if err != nil {
		t.Fatal(err)
	}
	if err := trig.MarkFired(ctx, due[0]); err != nil {
		t.Fatal(err)
	}

	// New Trigger over the same store simulates a process restart.
	restarted := NewTrigger(cfg, cal, store)
	due, err = restarted.DueClasses(ctx, now.Add(2*time.Minute), classes)
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 0 {
		t.Errorf("restart re-fired an already-fired instant: %v", due)
	}
}

func TestLongOutageFiresOnceForLatestInstant(t *testing.T) {
	trig, _ := newTestTrigger(t)
	ctx := context.Background()
	classes := []models.CadenceClass{models.CadenceMarketDaily}

	// Fire Monday's close, then come back Thursday evening. Only
	// Thursday's instant fires; Tuesday's and Wednesday's are skipped.
	monday, err := trig.DueClasses(ctx, time.Date(2024, 6, 3, 16, 10, 0, 0, time.UTC), classes)
	if err != nil {
		t.Fatal(err)
	}
	if err := trig.MarkFired(ctx, monday[0]); err != nil {
		t.Fatal(err)
	}

	thursday := time.Date(2024, 6, 6, 20, 0, 0, 0, time.UTC)
	due, err := trig.DueClasses(ctx, thursday, classes)
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2024, 6, 6, 16, 5, 0, 0, time.UTC)
	if len(due) != 1 || !due[0].Instant.Equal(want) {
		t.Fatalf("due = %v, want single instant %v", due, want)
	}
}

func TestCalendarDailyDueEveryDay(t *testing.T) {
	trig, _ := newTestTrigger(t)
	ctx := context.Background()
	classes := []models.CadenceClass{models.CadenceCalendarDaily}

	// Saturday: calendar-daily still fires even though the market is shut.
	saturday := time.Date(2024, 6, 8, 17, 0, 0, 0, time.UTC)
	due, err := trig.DueClasses(ctx, saturday, classes)
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2024, 6, 8, 16, 5, 0, 0, time.UTC)
	if len(due) != 1 || !due[0].Instant.Equal(want) {
		t.Fatalf("due = %v, want instant %v", due, want)
	}
}

func TestHourlyInstant(t *testing.T) {
	trig, _ := newTestTrigger(t)
	ctx := context.Background()
	classes := []models.CadenceClass{models.CadenceHourly}

	now := time.Date(2024, 6, 4, 14, 30, 0, 0, time.UTC)
	due, err := trig.DueClasses(ctx, now, classes)
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2024, 6, 4, 14, 5, 0, 0, time.UTC)
	if len(due) != 1 || !due[0].Instant.Equal(want) {
		t.Fatalf("due = %v, want instant %v", due, want)
	}

	// Inside the offset gap the previous hour's instant is the latest.
	early := time.Date(2024, 6, 4, 14, 2, 0, 0, time.UTC)
	due, err = trig.DueClasses(ctx, early, classes)
	if err != nil {
		t.Fatal(err)
	}
	want = time.Date(2024, 6, 4, 13, 5, 0, 0, time.UTC)
	if len(due) != 1 || !due[0].Instant.Equal(want) {
		t.Fatalf("due = %v, want instant %v", due, want)
	}
}
