package di

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"ChartSentry/internal/domain/repository"
	"ChartSentry/internal/handler/api"
	internalrepo "ChartSentry/internal/repository"
	"ChartSentry/internal/service/analysis"
	"ChartSentry/internal/service/capture"
	"ChartSentry/internal/service/dedup"
	"ChartSentry/internal/service/notify"
	"ChartSentry/internal/service/pricefeed"
	"ChartSentry/internal/service/verify"
	"ChartSentry/internal/usecase"
	"ChartSentry/pkg/config"
	"ChartSentry/pkg/logger"
	"ChartSentry/pkg/metrics"
	"ChartSentry/pkg/queue"
	"ChartSentry/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideDedupCache creates the signal suppression cache.
func ProvideDedupCache(cfg *config.Config) *dedup.Cache {
	return dedup.New(cfg.Dedup.Window)
}

// ProvideCapturer creates the chart capture orchestrator.
func ProvideCapturer(cfg *config.Config, l *logger.Logger) repository.Capturer {
	client := capture.NewClient(cfg.Capture.ServiceURL, l,
		capture.WithTimeout(cfg.Capture.Timeout),
	)

	opts := []capture.OrchestratorOption{}
	if cfg.Capture.AuditDir != "" {
		opts = append(opts, capture.WithAuditDir(cfg.Capture.AuditDir))
	}
	return capture.NewOrchestrator(client, l, opts...)
}

// ProvideAnalyzer creates the two-stage analysis coordinator.
func ProvideAnalyzer(cfg *config.Config, l *logger.Logger) usecase.Analyzer {
	client := analysis.NewClient(
		cfg.Analysis.BaseURL,
		cfg.Analysis.APIKey,
		cfg.Analysis.VisionModel,
		cfg.Analysis.ReasoningModel,
	)
	return analysis.NewCoordinator(client, client, l)
}

// ProvideVerifier creates the verification engine.
func ProvideVerifier() *verify.Engine {
	return verify.NewEngine()
}

// ProvideNotifier creates the WeCom webhook notifier.
func ProvideNotifier(cfg *config.Config, l *logger.Logger) repository.Notifier {
	return notify.NewWeComNotifier(cfg.Notify.WebhookURL, l,
		notify.WithTimeout(cfg.Notify.Timeout),
		notify.WithMaxTextLen(cfg.Notify.MaxTextLen),
	)
}

// ProvideLedger creates the single-slot prediction ledger.
func ProvideLedger(cfg *config.Config) (repository.Ledger, error) {
	return internalrepo.NewFileLedger(cfg.Ledger.Path)
}

// ProvideJournal creates the SQLite cycle journal, or nil when disabled.
func ProvideJournal(cfg *config.Config) (repository.Journal, error) {
	if !cfg.Journal.Enabled {
		return nil, nil
	}
	return internalrepo.NewSQLiteJournal(cfg.Journal.Path)
}

// ProvideEventPublisher creates the Kafka decision publisher, or nil when
// disabled.
func ProvideEventPublisher(cfg *config.Config) (repository.EventPublisher, error) {
	if !cfg.Events.Enabled {
		return nil, nil
	}
	return internalrepo.NewKafkaEventPublisher(cfg.Events.Brokers, cfg.Events.Topic)
}

// ProvidePriceFeed creates the WebSocket price feed client, or nil when
// disabled.
func ProvidePriceFeed(cfg *config.Config, l *logger.Logger) *pricefeed.Client {
	if !cfg.PriceFeed.Enabled {
		return nil
	}
	return pricefeed.New(
		cfg.PriceFeed.APIKey,
		cfg.PriceFeed.WebSocketURL,
		cfg.PriceFeed.Symbols,
		cfg.PriceFeed.ReconnectDelay,
		cfg.PriceFeed.PingInterval,
		l,
	)
}

// ProvidePriceSource exposes the feed as a PriceSource, keeping the
// interface nil when the feed is off so callers can skip it.
func ProvidePriceSource(feed *pricefeed.Client) repository.PriceSource {
	if feed == nil {
		return nil
	}
	return feed
}

// ProvidePipeline creates the signal processing pipeline.
func ProvidePipeline(
	capturer repository.Capturer,
	analyzer usecase.Analyzer,
	verifier *verify.Engine,
	notifier repository.Notifier,
	ledger repository.Ledger,
	journal repository.Journal,
	events repository.EventPublisher,
	prices repository.PriceSource,
	m repository.Metrics,
	l *logger.Logger,
	cfg *config.Config,
) *usecase.Pipeline {
	return usecase.NewPipeline(usecase.PipelineDeps{
		Capturer: capturer,
		Analyzer: analyzer,
		Verifier: verifier,
		Notifier: notifier,
		Ledger:   ledger,
		Journal:  journal,
		Events:   events,
		Prices:   prices,
		Metrics:  m,
		Logger:   l,
	}, usecase.PipelineConfig{
		CaptureTimeout:  cfg.Capture.Timeout,
		AnalysisTimeout: cfg.Analysis.Timeout,
		FallbackChart:   cfg.Capture.FallbackURL,
	})
}

// ProvideSignalJob creates the queue job for signal processing.
func ProvideSignalJob(p *usecase.Pipeline) *usecase.SignalJob {
	return usecase.NewSignalJob(p)
}

// ProvideQueue creates the configured queue backend with the signal job
// registered.
func ProvideQueue(cfg *config.Config, l *logger.Logger, job *usecase.SignalJob) (queue.Queue, error) {
	qc := &queue.QueueConfig{
		Workers:    cfg.Queue.Workers,
		QueueSize:  cfg.Queue.Size,
		RetryLimit: cfg.Queue.RetryLimit,
		RetryDelay: cfg.Queue.RetryDelay,
	}
	jobs := []queue.Job{job}

	switch cfg.Queue.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Queue.Redis.Addr,
			Password: cfg.Queue.Redis.Password,
			DB:       cfg.Queue.Redis.DB,
		})
		return queue.NewRedisQueue(l, qc, client, jobs), nil
	case "", "memory":
		return queue.NewMemoryQueue(l, qc, jobs), nil
	default:
		return nil, fmt.Errorf("unknown queue backend %q", cfg.Queue.Backend)
	}
}

// ProvideWebhookHandler creates the intake HTTP handler.
func ProvideWebhookHandler(
	q queue.Queue,
	cache *dedup.Cache,
	m repository.Metrics,
	l *logger.Logger,
	cfg *config.Config,
) *api.WebhookHandler {
	return api.NewWebhookHandler(q, cache, m, l, cfg.Intake.MaxPerTickerPerMin)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	q queue.Queue,
	handler *api.WebhookHandler,
	feed *pricefeed.Client,
	journal repository.Journal,
	events repository.EventPublisher,
) *server.App {
	return server.New(cfg, l, q, handler, feed, journal, events)
}
