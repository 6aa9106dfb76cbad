package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"MarketCast/internal/domain/models"
	internalrepo "MarketCast/internal/repository"
)

func TestAddRestoresPersistedWatermark(t *testing.T) {
	ctx := context.Background()
	store := internalrepo.NewMemoryStateStore()
	mark := time.Date(2024, 6, 3, 16, 0, 0, 0, time.UTC)
	if err := store.SetLastObserved(ctx, "AAPL", mark); err != nil {
		t.Fatal(err)
	}

	r := New(store)
	if err := r.Add(ctx, "AAPL", models.CadenceMarketDaily); err != nil {
		t.Fatal(err)
	}

	inst, ok := r.Get("AAPL")
	if !ok {
		t.Fatal("instrument missing")
	}
	if !inst.HasObserved || !inst.LastObservedAt.Equal(mark) {
		t.Errorf("watermark not restored: %+v", inst)
	}
}

func TestAddRejectsDuplicatesAndBadCadence(t *testing.T) {
	ctx := context.Background()
	r := New(internalrepo.NewMemoryStateStore())

	if err := r.Add(ctx, "AAPL", models.CadenceMarketDaily); err != nil {
		t.Fatal(err)
	}
	if err := r.Add(ctx, "AAPL", models.CadenceMarketDaily); err == nil {
		t.Error("duplicate add should fail")
	}
	if err := r.Add(ctx, "MSFT", models.CadenceClass("weekly")); err == nil {
		t.Error("unknown cadence should fail")
	}
}

func TestMembersKeepsRegistrationOrder(t *testing.T) {
	ctx := context.Background()
	r := New(internalrepo.NewMemoryStateStore())
	for _, s := range []string{"MSFT", "AAPL", "GOOG"} {
		if err := r.Add(ctx, s, models.CadenceMarketDaily); err != nil {
			t.Fatal(err)
		}
	}
	if err := r.Add(ctx, "BTC-USD", models.CadenceCalendarDaily); err != nil {
		t.Fatal(err)
	}

	got := make([]string, 0, 3)
	for _, inst := range r.Members(models.CadenceMarketDaily) {
		got = append(got, inst.Symbol)
	}
	want := []string{"MSFT", "AAPL", "GOOG"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("members = %v, want %v", got, want)
	}
}

func TestAdvancePersists(t *testing.T) {
	ctx := context.Background()
	store := internalrepo.NewMemoryStateStore()
	r := New(store)
	if err := r.Add(ctx, "AAPL", models.CadenceMarketDaily); err != nil {
		t.Fatal(err)
	}

	mark := time.Date(2024, 6, 4, 16, 0, 0, 0, time.UTC)
	if err := r.Advance(ctx, "AAPL", mark); err != nil {
		t.Fatal(err)
	}

	ts, ok, err := store.LastObserved(ctx, "AAPL")
	if err != nil || !ok {
		t.Fatalf("watermark not persisted: ok=%v err=%v", ok, err)
	}
	if !ts.Equal(mark) {
		t.Errorf("persisted watermark = %v, want %v", ts, mark)
	}
}

func TestFlaggedInstrumentsLeaveMembers(t *testing.T) {
	ctx := context.Background()
	r := New(internalrepo.NewMemoryStateStore())
	for _, s := range []string{"AAPL", "BOGUS", "MSFT"} {
		if err := r.Add(ctx, s, models.CadenceMarketDaily); err != nil {
			t.Fatal(err)
		}
	}

	r.Flag("BOGUS")

	members := r.Members(models.CadenceMarketDaily)
	if len(members) != 2 {
		t.Fatalf("members = %v, want 2 entries", members)
	}
	for _, inst := range members {
		if inst.Symbol == "BOGUS" {
			t.Error("flagged instrument still enumerated")
		}
	}
	if r.Len() != 3 {
		t.Errorf("Len = %d, want 3", r.Len())
	}
}

func TestClasses(t *testing.T) {
	ctx := context.Background()
	r := New(internalrepo.NewMemoryStateStore())
	_ = r.Add(ctx, "AAPL", models.CadenceMarketDaily)
	_ = r.Add(ctx, "BTC-USD", models.CadenceCalendarDaily)
	_ = r.Add(ctx, "MSFT", models.CadenceMarketDaily)

	want := []models.CadenceClass{models.CadenceMarketDaily, models.CadenceCalendarDaily}
	if got := r.Classes(); !reflect.DeepEqual(got, want) {
		t.Errorf("Classes = %v, want %v", got, want)
	}
}

func TestLoadSymbolsInlineKeepsOrder(t *testing.T) {
	got, err := LoadSymbols(context.Background(), nil, []string{"MSFT", "AAPL"}, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"MSFT", "AAPL"}) {
		t.Errorf("inline symbols = %v", got)
	}
}

func TestLoadSymbolsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickers.txt")
	if err := os.WriteFile(path, []byte("MSFT\nAAPL\n\nMSFT\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadSymbols(context.Background(), nil, nil, path, "")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"AAPL", "MSFT"}) {
		t.Errorf("file symbols = %v, want deduplicated sorted list", got)
	}
}

func TestLoadSymbolsFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("GOOG\nAAPL\n"))
	}))
	defer srv.Close()

	got, err := LoadSymbols(context.Background(), srv.Client(), nil, "", srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"AAPL", "GOOG"}) {
		t.Errorf("url symbols = %v", got)
	}
}
