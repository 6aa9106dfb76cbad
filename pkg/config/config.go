package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// InstrumentConfig assigns one tracked symbol to a cadence class.
type InstrumentConfig struct {
	Symbol  string `yaml:"symbol" validate:"required"`
	Cadence string `yaml:"cadence" validate:"required,oneof=market-daily calendar-daily hourly"`
}

// SymbolSource loads a newline-delimited symbol list from a file or URL.
type SymbolSource struct {
	File string `yaml:"file"`
	URL  string `yaml:"url"`
}

// Config is the full collector configuration.
type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Log         struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Server struct {
		Port            int           `yaml:"port" default:"8080" validate:"gt=0,lt=65536"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`
	Provider struct {
		BaseURL   string        `yaml:"base_url" default:"https://query1.finance.yahoo.com"`
		Interval  string        `yaml:"interval" default:"1d" validate:"oneof=1m 2m 5m 15m 30m 60m 90m 1d"`
		Timeout   time.Duration `yaml:"timeout" default:"30s"`
		Lookback  time.Duration `yaml:"lookback" default:"120h"`
		UserAgent string        `yaml:"user_agent" default:"Mozilla/5.0"`
	} `yaml:"provider"`
	RateLimit struct {
		// Keep capacity strictly below the provider's hard quota.
		Capacity int           `yaml:"capacity" default:"1800" validate:"gt=0"`
		Window   time.Duration `yaml:"window" default:"1h"`
	} `yaml:"rate_limit"`
	Fetch struct {
		MaxAttempts      int           `yaml:"max_attempts" default:"3" validate:"gt=0"`
		Backoff          time.Duration `yaml:"backoff" default:"2s"`
		RateLimitBackoff time.Duration `yaml:"rate_limit_backoff" default:"30s"`
	} `yaml:"fetch"`
	Schedule struct {
		PollInterval  time.Duration `yaml:"poll_interval" default:"1m"`
		Timezone      string        `yaml:"timezone" default:"America/New_York"`
		MarketClose   time.Duration `yaml:"market_close" default:"16h"`
		TriggerOffset time.Duration `yaml:"trigger_offset" default:"5m"`
		Holidays      []string      `yaml:"holidays"`
	} `yaml:"schedule"`
	State struct {
		Backend    string `yaml:"backend" default:"sqlite" validate:"oneof=sqlite redis memory"`
		SQLitePath string `yaml:"sqlite_path" default:"marketcast.db"`
		Redis      struct {
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix" default:"marketcast:state"`
		} `yaml:"redis"`
	} `yaml:"state"`
	Kafka struct {
		Brokers      []string `yaml:"brokers" validate:"required,min=1"`
		TopicPrefix  string   `yaml:"topic_prefix" default:"ohlcv"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"1s"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	Universe struct {
		Instruments []InstrumentConfig `yaml:"instruments" validate:"dive"`
		Market      SymbolSource       `yaml:"market"` // loaded as market-daily
		Daily       SymbolSource       `yaml:"daily"`  // loaded as calendar-daily
	} `yaml:"universe"`
}

// Load reads, defaults, parses and validates a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes raw YAML into a validated Config.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment
// variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC_PREFIX"); v != "" {
		c.Kafka.TopicPrefix = v
	}
	if v := os.Getenv("STATE_BACKEND"); v != "" {
		c.State.Backend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.State.Redis.Addr = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.State.SQLitePath = v
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if !c.hasUniverse() {
		return fmt.Errorf("universe is empty: configure instruments or a symbol source")
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("schedule.timezone: %w", err)
	}
	for _, d := range c.Schedule.Holidays {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return fmt.Errorf("schedule.holidays entry %q: %w", d, err)
		}
	}
	seen := make(map[string]struct{}, len(c.Universe.Instruments))
	for _, inst := range c.Universe.Instruments {
		if _, dup := seen[inst.Symbol]; dup {
			return fmt.Errorf("universe.instruments: duplicate symbol %s", inst.Symbol)
		}
		seen[inst.Symbol] = struct{}{}
	}
	return nil
}

// Location returns the schedule timezone. Validate must have succeeded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) hasUniverse() bool {
	return len(c.Universe.Instruments) > 0 ||
		c.Universe.Market.File != "" || c.Universe.Market.URL != "" ||
		c.Universe.Daily.File != "" || c.Universe.Daily.URL != ""
}
