package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"MarketCast/internal/domain/models"
	domrepo "MarketCast/internal/domain/repository"
)

// Registry holds the configured universe of tracked instruments and their
// collection watermarks. Iteration order is registration order so passes
// are deterministic. Watermarks are loaded from the state store on Add and
// written back through Advance; the run coordinator is the only caller of
// Advance.
type Registry struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]*models.Instrument
	store domrepo.StateStore
}

// New creates an empty registry backed by store.
func New(store domrepo.StateStore) *Registry {
	return &Registry{
		byID:  make(map[string]*models.Instrument),
		store: store,
	}
}

// Add registers symbol under the given cadence class, restoring any
// persisted watermark. Duplicate symbols are rejected.
func (r *Registry) Add(ctx context.Context, symbol string, class models.CadenceClass) error {
	if symbol == "" {
		return fmt.Errorf("empty symbol")
	}
	if !class.Valid() {
		return fmt.Errorf("unknown cadence class %q for %s", class, symbol)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[symbol]; exists {
		return fmt.Errorf("duplicate instrument %s", symbol)
	}

	inst := &models.Instrument{Symbol: symbol, Cadence: class}
	ts, ok, err := r.store.LastObserved(ctx, symbol)
	if err != nil {
		return fmt.Errorf("restore watermark %s: %w", symbol, err)
	}
	if ok {
		inst.LastObservedAt = ts
		inst.HasObserved = true
	}

	r.byID[symbol] = inst
	r.order = append(r.order, symbol)
	return nil
}

// Members returns copies of the unflagged instruments belonging to any of
// the given classes, in registration order.
func (r *Registry) Members(classes ...models.CadenceClass) []models.Instrument {
	want := make(map[models.CadenceClass]struct{}, len(classes))
	for _, c := range classes {
		want[c] = struct{}{}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Instrument
	for _, symbol := range r.order {
		inst := r.byID[symbol]
		if inst.Flagged {
			continue
		}
		if _, ok := want[inst.Cadence]; ok {
			out = append(out, *inst)
		}
	}
	return out
}

// Classes returns the distinct cadence classes present, in first
// registration order.
func (r *Registry) Classes() []models.CadenceClass {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[models.CadenceClass]struct{})
	var out []models.CadenceClass
	for _, symbol := range r.order {
		c := r.byID[symbol].Cadence
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// Advance moves symbol's watermark to ts, persisting it first so a crash
// between persist and the in-memory update re-persists rather than loses
// the advance.
func (r *Registry) Advance(ctx context.Context, symbol string, ts time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.byID[symbol]
	if !ok {
		return fmt.Errorf("unknown instrument %s", symbol)
	}
	if err := r.store.SetLastObserved(ctx, symbol, ts); err != nil {
		return fmt.Errorf("persist watermark %s: %w", symbol, err)
	}
	inst.LastObservedAt = ts
	inst.HasObserved = true
	return nil
}

// Flag marks symbol as rejected by the provider; flagged instruments are
// excluded from future passes until the process restarts.
func (r *Registry) Flag(symbol string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if inst, ok := r.byID[symbol]; ok {
		inst.Flagged = true
	}
}

// Get returns a copy of the instrument, if registered.
func (r *Registry) Get(symbol string) (models.Instrument, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.byID[symbol]
	if !ok {
		return models.Instrument{}, false
	}
	return *inst, true
}

// Len returns the number of registered instruments, flagged included.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
