package models

import "time"

// SchemaVersion tags the broadcast payload format so consumers can detect
// format changes.
const SchemaVersion = 1

// CadenceClass names a schedule policy governing how often a group of
// instruments is collected.
type CadenceClass string

const (
	// CadenceMarketDaily collects once per trading day, after market close.
	CadenceMarketDaily CadenceClass = "market-daily"
	// CadenceCalendarDaily collects once per calendar day regardless of
	// whether the market is open (crypto-style instruments).
	CadenceCalendarDaily CadenceClass = "calendar-daily"
	// CadenceHourly collects at the top of every hour.
	CadenceHourly CadenceClass = "hourly"
)

// Valid reports whether c is a known cadence class.
func (c CadenceClass) Valid() bool {
	switch c {
	case CadenceMarketDaily, CadenceCalendarDaily, CadenceHourly:
		return true
	}
	return false
}

// Instrument is a tracked security. LastObservedAt is the watermark of the
// most recent successfully collected and published observation; HasObserved
// is false until the first successful fetch. The watermark is written only
// by the run coordinator.
type Instrument struct {
	Symbol         string
	Cadence        CadenceClass
	LastObservedAt time.Time
	HasObserved    bool
	Flagged        bool // provider reported the symbol unknown
}

// OHLCVRecord is one observation for one instrument. Immutable once
// produced; uniquely identified by (Symbol, Timestamp).
type OHLCVRecord struct {
	Schema    int       `json:"schema"`
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
}
