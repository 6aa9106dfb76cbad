//go:build wireinject
// +build wireinject

package di

import (
	"MarketCast/pkg/config"
	"MarketCast/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// State and scheduling
		ProvideStateStore,
		ProvideCalendar,
		ProvideTrigger,
		ProvideRegistry,

		// Provider side
		ProvideRateGate,
		ProvideProvider,
		ProvideFetcher,

		// Publish side
		ProvideKafkaProducer,
		ProvidePublisher,

		// Orchestration
		ProvideCoordinator,
		ProvideApp,
	)
	return &server.App{}, nil
}
