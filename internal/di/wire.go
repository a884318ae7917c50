//go:build wireinject
// +build wireinject

package di

import (
	"ChartSentry/pkg/config"
	"ChartSentry/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Intake
		ProvideDedupCache,
		ProvideWebhookHandler,

		// Pipeline stages
		ProvideCapturer,
		ProvideAnalyzer,
		ProvideVerifier,
		ProvideNotifier,

		// Stores and side channels
		ProvideLedger,
		ProvideJournal,
		ProvideEventPublisher,
		ProvidePriceFeed,
		ProvidePriceSource,

		// Use cases
		ProvidePipeline,
		ProvideSignalJob,
		ProvideQueue,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
