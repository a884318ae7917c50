// Package usecase wires the signal pipeline: capture, analysis,
// verification, ledger update and notification for one accepted signal.
package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"ChartSentry/internal/domain/models"
	"ChartSentry/internal/domain/repository"
	"ChartSentry/internal/service/capture"
	"ChartSentry/internal/service/verify"
	"ChartSentry/pkg/logger"
)

// Analyzer produces a decision from a signal and its chart frames.
type Analyzer interface {
	Analyze(ctx context.Context, sig models.Signal, images []models.ChartImage) models.Decision
}

// PipelineDeps bundles the pipeline's collaborators. Journal, Events and
// Prices are optional and may be nil.
type PipelineDeps struct {
	Capturer repository.Capturer
	Analyzer Analyzer
	Verifier *verify.Engine
	Notifier repository.Notifier
	Ledger   repository.Ledger
	Journal  repository.Journal
	Events   repository.EventPublisher
	Prices   repository.PriceSource
	Metrics  repository.Metrics
	Logger   *logger.Logger
}

// PipelineConfig carries the tunables for one pipeline run.
type PipelineConfig struct {
	CaptureTimeout  time.Duration
	AnalysisTimeout time.Duration
	FallbackChart   string
}

// Pipeline processes accepted signals end to end. The ledger section runs
// under a mutex so concurrent signals observe load-verify-save atomically.
type Pipeline struct {
	deps PipelineDeps
	cfg  PipelineConfig

	ledgerMu sync.Mutex
	now      func() time.Time
}

// NewPipeline creates a pipeline.
func NewPipeline(deps PipelineDeps, cfg PipelineConfig) *Pipeline {
	if cfg.CaptureTimeout <= 0 {
		cfg.CaptureTimeout = 60 * time.Second
	}
	if cfg.AnalysisTimeout <= 0 {
		cfg.AnalysisTimeout = 120 * time.Second
	}
	return &Pipeline{deps: deps, cfg: cfg, now: time.Now}
}

// Process runs the full cycle for one signal. It returns an error only for
// failures worth a queue retry; analysis degradation is absorbed as a
// fallback decision.
func (p *Pipeline) Process(ctx context.Context, sig models.Signal) error {
	start := p.now()
	log := p.deps.Logger.With(
		logger.String("ticker", sig.Ticker),
		logger.String("level", sig.Level),
		logger.String("label", sig.Label),
	)
	log.Info("signal accepted", logger.Float64("price", sig.Price))

	// Receipt goes out before the slow stages so the channel sees the
	// trigger within seconds even when capture or analysis crawls.
	receipt := p.receiptText(sig)
	if err := p.deps.Notifier.Notify(ctx, receipt, nil); err != nil {
		log.Warn("receipt notify failed", logger.Error(err))
	}

	images, err := p.captureFrames(ctx, sig)
	p.deps.Metrics.RecordCapture(len(images), err)
	if err != nil {
		log.Error("capture failed, aborting cycle", logger.Error(err))
		return fmt.Errorf("capture: %w", err)
	}

	analysisCtx, cancel := context.WithTimeout(ctx, p.cfg.AnalysisTimeout)
	decision := p.deps.Analyzer.Analyze(analysisCtx, sig, images)
	cancel()
	p.deps.Metrics.RecordAnalysis(decision.Fallback, nil)

	price, hasPrice := p.resolvePrice(sig, decision)

	verification, err := p.settleLedger(decision, price, hasPrice)
	if err != nil {
		log.Error("ledger update failed", logger.Error(err))
		return fmt.Errorf("ledger: %w", err)
	}
	if verification != nil {
		p.deps.Metrics.RecordVerification(verification.Correct, verification.Unverifiable)
	}

	if p.deps.Journal != nil {
		if err := p.deps.Journal.Record(ctx, sig, decision, verification); err != nil {
			log.Warn("journal write failed", logger.Error(err))
		}
	}
	if p.deps.Events != nil {
		if err := p.deps.Events.PublishDecision(ctx, sig, decision, verification); err != nil {
			log.Warn("event publish failed", logger.Error(err))
		}
	}

	report := p.reportText(sig, decision, verification, price, hasPrice)
	notifyErr := p.deps.Notifier.Notify(ctx, report, images)
	p.deps.Metrics.RecordNotify(notifyErr)
	if notifyErr != nil {
		log.Warn("report notify failed", logger.Error(notifyErr))
	}

	p.deps.Metrics.RecordPipelineDuration(p.now().Sub(start).Seconds())
	log.Info("cycle complete",
		logger.String("verdict", decision.Verdict),
		logger.Bool("fallback", decision.Fallback),
		logger.Duration("elapsed", p.now().Sub(start)))
	return nil
}

func (p *Pipeline) captureFrames(ctx context.Context, sig models.Signal) ([]models.ChartImage, error) {
	chartURL := sig.ChartURL
	if chartURL == "" {
		chartURL = p.cfg.FallbackChart
	}

	captureCtx, cancel := context.WithTimeout(ctx, p.cfg.CaptureTimeout)
	defer cancel()

	return p.deps.Capturer.Capture(captureCtx, models.CaptureJob{
		BaseURL:    chartURL,
		Symbol:     sig.Ticker,
		Timeframes: capture.Plan(sig.Level),
	})
}

// resolvePrice picks the price anchoring this cycle's prediction: the
// alert's own price first, then the model's entry price, then the live
// feed. A cycle can legitimately end with no price at all.
func (p *Pipeline) resolvePrice(sig models.Signal, d models.Decision) (float64, bool) {
	if sig.HasPrice() {
		return sig.Price, true
	}
	if d.EntryPrice != nil {
		return *d.EntryPrice, true
	}
	if p.deps.Prices != nil {
		if last, ok := p.deps.Prices.LastPrice(sig.Ticker); ok && last > 0 {
			return last, true
		}
	}
	return 0, false
}

func (p *Pipeline) settleLedger(d models.Decision, price float64, hasPrice bool) (*models.VerificationResult, error) {
	p.ledgerMu.Lock()
	defer p.ledgerMu.Unlock()

	prev, err := p.deps.Ledger.Load()
	if err != nil {
		return nil, err
	}

	verification := p.deps.Verifier.Check(prev, price)

	rec := models.NewPredictionRecord(d, price, hasPrice, p.now())
	if err := p.deps.Ledger.Save(rec); err != nil {
		return verification, err
	}
	return verification, nil
}

func (p *Pipeline) receiptText(sig models.Signal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "signal triggered: %s %s (%s)", sig.Ticker, sig.Label, sig.Level)
	if sig.HasPrice() {
		fmt.Fprintf(&b, " @ %.2f", sig.Price)
	}
	b.WriteString("\nanalyzing charts...")
	return b.String()
}

func (p *Pipeline) reportText(sig models.Signal, d models.Decision, v *models.VerificationResult, price float64, hasPrice bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s (%s)\n", sig.Ticker, sig.Label, sig.Level)
	if hasPrice {
		fmt.Fprintf(&b, "price: %.2f\n", price)
	}
	if v != nil {
		b.WriteString(v.Summary())
		b.WriteString("\n")
	}
	if d.Verdict != "" {
		fmt.Fprintf(&b, "verdict: %s (%s)\n", d.Verdict, d.Direction)
	}
	b.WriteString(d.Raw)
	return b.String()
}
