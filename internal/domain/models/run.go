package models

import "time"

// RunOutcome records what one collection pass attempted and how each
// instrument fared. Created when the pass starts, finalized when the
// coordinator returns, never mutated afterwards.
type RunOutcome struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Attempted  []string
	Succeeded  []string
	Failed     map[string]FetchErrorKind
	// Published counts records handed off to the broadcast substrate;
	// PublishFailed counts records whose hand-off failed. A failed
	// hand-off never rolls back a watermark advance.
	Published     int
	PublishFailed int
}

// NewRunOutcome creates an empty outcome for a pass starting at startedAt.
func NewRunOutcome(runID string, startedAt time.Time) *RunOutcome {
	return &RunOutcome{
		RunID:     runID,
		StartedAt: startedAt,
		Failed:    make(map[string]FetchErrorKind),
	}
}

// RecordSuccess marks symbol as attempted and succeeded.
func (o *RunOutcome) RecordSuccess(symbol string) {
	o.Attempted = append(o.Attempted, symbol)
	o.Succeeded = append(o.Succeeded, symbol)
}

// RecordFailure marks symbol as attempted and failed with the given reason.
func (o *RunOutcome) RecordFailure(symbol string, kind FetchErrorKind) {
	o.Attempted = append(o.Attempted, symbol)
	o.Failed[symbol] = kind
}

// NoOp reports whether the pass had nothing to do.
func (o *RunOutcome) NoOp() bool {
	return len(o.Attempted) == 0
}
