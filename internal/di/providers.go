package di

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"MarketCast/internal/domain/models"
	domrepo "MarketCast/internal/domain/repository"
	"MarketCast/internal/registry"
	internalrepo "MarketCast/internal/repository"
	"MarketCast/internal/service/ratelimit"
	"MarketCast/internal/service/schedule"
	"MarketCast/internal/service/yahoo"
	"MarketCast/internal/usecase"
	"MarketCast/pkg/config"
	pkgkafka "MarketCast/pkg/kafka"
	applogger "MarketCast/pkg/logger"
	"MarketCast/pkg/metrics"
	"MarketCast/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideStateStore creates the configured state backend.
func ProvideStateStore(cfg *config.Config) (domrepo.StateStore, error) {
	switch cfg.State.Backend {
	case "sqlite":
		store, err := internalrepo.NewSQLiteStateStore(cfg.State.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite state: %w", err)
		}
		return store, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.State.Redis.Addr,
			Password: cfg.State.Redis.Password,
			DB:       cfg.State.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		store, err := internalrepo.NewRedisStateStore(ctx, client,
			internalrepo.WithStatePrefix(cfg.State.Redis.Prefix))
		if err != nil {
			return nil, fmt.Errorf("redis state: %w", err)
		}
		return store, nil
	case "memory":
		return internalrepo.NewMemoryStateStore(), nil
	default:
		return nil, fmt.Errorf("unknown state backend %q", cfg.State.Backend)
	}
}

// ProvideCalendar creates the trading calendar.
func ProvideCalendar(cfg *config.Config) domrepo.TradingCalendar {
	return schedule.NewWeekdayCalendar(cfg.Location(), cfg.Schedule.Holidays)
}

// ProvideTrigger creates the schedule trigger.
func ProvideTrigger(cfg *config.Config, calendar domrepo.TradingCalendar, store domrepo.StateStore) *schedule.Trigger {
	return schedule.NewTrigger(schedule.Config{
		Location:      cfg.Location(),
		MarketClose:   cfg.Schedule.MarketClose,
		TriggerOffset: cfg.Schedule.TriggerOffset,
	}, calendar, store)
}

// ProvideRegistry builds the instrument registry from the configured
// universe: inline instruments plus the market and daily symbol sources.
func ProvideRegistry(cfg *config.Config, store domrepo.StateStore) (*registry.Registry, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	reg := registry.New(store)
	client := &http.Client{Timeout: cfg.Provider.Timeout}

	for _, inst := range cfg.Universe.Instruments {
		if err := reg.Add(ctx, inst.Symbol, models.CadenceClass(inst.Cadence)); err != nil {
			return nil, fmt.Errorf("register %s: %w", inst.Symbol, err)
		}
	}

	sources := []struct {
		src   config.SymbolSource
		class models.CadenceClass
	}{
		{cfg.Universe.Market, models.CadenceMarketDaily},
		{cfg.Universe.Daily, models.CadenceCalendarDaily},
	}
	for _, s := range sources {
		if s.src.File == "" && s.src.URL == "" {
			continue
		}
		symbols, err := registry.LoadSymbols(ctx, client, nil, s.src.File, s.src.URL)
		if err != nil {
			return nil, fmt.Errorf("load %s universe: %w", s.class, err)
		}
		for _, sym := range symbols {
			if err := reg.Add(ctx, sym, s.class); err != nil {
				return nil, fmt.Errorf("register %s: %w", sym, err)
			}
		}
	}

	if reg.Len() == 0 {
		return nil, fmt.Errorf("instrument universe is empty")
	}
	return reg, nil
}

// ProvideRateGate creates the request budget limiter.
func ProvideRateGate(cfg *config.Config) domrepo.RateGate {
	return ratelimit.New(cfg.RateLimit.Capacity, cfg.RateLimit.Window)
}

// ProvideProvider creates the chart API client.
func ProvideProvider(cfg *config.Config) domrepo.Provider {
	return yahoo.New(
		yahoo.WithBaseURL(cfg.Provider.BaseURL),
		yahoo.WithInterval(cfg.Provider.Interval),
		yahoo.WithLookback(cfg.Provider.Lookback),
		yahoo.WithHTTPClient(&http.Client{Timeout: cfg.Provider.Timeout}),
	)
}

// ProvideKafkaProducer creates a Kafka producer and verifies broker
// reachability so a misconfigured broker list fails at startup.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := pkgkafka.Ping(ctx, cfg.Kafka.Brokers); err != nil {
		return nil, fmt.Errorf("kafka ping: %w", err)
	}

	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvidePublisher creates the per-symbol topic publisher.
func ProvidePublisher(producer *pkgkafka.Producer, cfg *config.Config) domrepo.RecordPublisher {
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.TopicPrefix)
}

// ProvideFetcher creates the rate-gated fetcher.
func ProvideFetcher(provider domrepo.Provider, gate domrepo.RateGate, l *applogger.Logger, cfg *config.Config) *usecase.Fetcher {
	return usecase.NewFetcher(provider, gate, l,
		usecase.WithMaxAttempts(cfg.Fetch.MaxAttempts),
		usecase.WithBackoff(cfg.Fetch.Backoff),
		usecase.WithRateLimitBackoff(cfg.Fetch.RateLimitBackoff),
	)
}

// ProvideCoordinator creates the pass coordinator.
func ProvideCoordinator(
	trigger *schedule.Trigger,
	reg *registry.Registry,
	fetcher *usecase.Fetcher,
	publisher domrepo.RecordPublisher,
	m domrepo.Metrics,
	l *applogger.Logger,
) *usecase.Coordinator {
	return usecase.NewCoordinator(trigger, reg, fetcher, publisher, m, l)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	coordinator *usecase.Coordinator,
	reg *registry.Registry,
	publisher domrepo.RecordPublisher,
	store domrepo.StateStore,
) *server.App {
	return server.New(cfg, l, coordinator, reg, publisher, store)
}
