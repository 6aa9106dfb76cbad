package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const minimalYAML = `
kafka:
  brokers: ["localhost:9092"]
universe:
  instruments:
    - symbol: AAPL
      cadence: market-daily
    - symbol: BTC-USD
      cadence: calendar-daily
`

func TestParseAppliesDefaults(t *testing.T) {
	c, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatal(err)
	}

	if c.Environment != "development" {
		t.Errorf("environment = %q", c.Environment)
	}
	if c.RateLimit.Capacity != 1800 || c.RateLimit.Window != time.Hour {
		t.Errorf("rate limit defaults = %d/%v", c.RateLimit.Capacity, c.RateLimit.Window)
	}
	if c.Schedule.PollInterval != time.Minute {
		t.Errorf("poll interval = %v", c.Schedule.PollInterval)
	}
	if c.Schedule.MarketClose != 16*time.Hour {
		t.Errorf("market close = %v", c.Schedule.MarketClose)
	}
	if c.State.Backend != "sqlite" {
		t.Errorf("state backend = %q", c.State.Backend)
	}
	if c.Kafka.TopicPrefix != "ohlcv" {
		t.Errorf("topic prefix = %q", c.Kafka.TopicPrefix)
	}
	if c.Provider.Interval != "1d" {
		t.Errorf("provider interval = %q", c.Provider.Interval)
	}
}

func TestParseOverrides(t *testing.T) {
	c, err := Parse([]byte(`
environment: production
rate_limit:
  capacity: 100
  window: 10m
schedule:
  trigger_offset: 30s
kafka:
  brokers: ["broker-1:9092", "broker-2:9092"]
universe:
  instruments:
    - symbol: MSFT
      cadence: hourly
`))
	if err != nil {
		t.Fatal(err)
	}
	if c.RateLimit.Capacity != 100 || c.RateLimit.Window != 10*time.Minute {
		t.Errorf("rate limit = %d/%v", c.RateLimit.Capacity, c.RateLimit.Window)
	}
	if c.Schedule.TriggerOffset != 30*time.Second {
		t.Errorf("trigger offset = %v", c.Schedule.TriggerOffset)
	}
	if len(c.Kafka.Brokers) != 2 {
		t.Errorf("brokers = %v", c.Kafka.Brokers)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no brokers", `
universe:
  instruments:
    - {symbol: AAPL, cadence: market-daily}
`},
		{"empty universe", `
kafka:
  brokers: ["localhost:9092"]
`},
		{"bad cadence", `
kafka:
  brokers: ["localhost:9092"]
universe:
  instruments:
    - {symbol: AAPL, cadence: weekly}
`},
		{"duplicate symbol", `
kafka:
  brokers: ["localhost:9092"]
universe:
  instruments:
    - {symbol: AAPL, cadence: market-daily}
    - {symbol: AAPL, cadence: calendar-daily}
`},
		{"bad holiday", `
kafka:
  brokers: ["localhost:9092"]
schedule:
  holidays: ["July 4th"]
universe:
  instruments:
    - {symbol: AAPL, cadence: market-daily}
`},
		{"bad state backend", `
kafka:
  brokers: ["localhost:9092"]
state:
  backend: dynamo
universe:
  instruments:
    - {symbol: AAPL, cadence: market-daily}
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(minimalYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("KAFKA_BROKERS", "other:9092,another:9092")
	t.Setenv("STATE_BACKEND", "memory")

	c, err := LoadWithEnv(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Kafka.Brokers) != 2 || c.Kafka.Brokers[0] != "other:9092" {
		t.Errorf("brokers = %v", c.Kafka.Brokers)
	}
	if c.State.Backend != "memory" {
		t.Errorf("state backend = %q", c.State.Backend)
	}
}
