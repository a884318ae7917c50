// Package repository defines the collaborator contracts consumed by the
// signal pipeline. Implementations live under internal/service and
// internal/repository.
package repository

import (
	"context"

	"ChartSentry/internal/domain/models"
)

// Capturer renders chart frames for the requested timeframes, in order.
type Capturer interface {
	Capture(ctx context.Context, job models.CaptureJob) ([]models.ChartImage, error)
}

// VisionAnalyzer reads one chart image and returns the model's textual read.
type VisionAnalyzer interface {
	AnalyzeImage(ctx context.Context, image models.ChartImage, prompt string) (string, error)
}

// Reasoner produces the joint synthesis over per-timeframe reads.
type Reasoner interface {
	Reason(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Notifier delivers a text report plus chart images to the chat channel.
type Notifier interface {
	Notify(ctx context.Context, text string, images []models.ChartImage) error
}

// Ledger is the single-slot durable store for the latest prediction.
// Load returns (nil, nil) when no record has ever been saved.
type Ledger interface {
	Load() (*models.PredictionRecord, error)
	Save(rec models.PredictionRecord) error
}

// Journal appends completed cycles to the local audit trail.
type Journal interface {
	Record(ctx context.Context, sig models.Signal, d models.Decision, v *models.VerificationResult) error
	Close() error
}

// EventPublisher fans processed decisions out to downstream consumers.
type EventPublisher interface {
	PublishDecision(ctx context.Context, sig models.Signal, d models.Decision, v *models.VerificationResult) error
	Close() error
}

// PriceSource supplies a last-traded price when the signal carries none.
type PriceSource interface {
	LastPrice(symbol string) (float64, bool)
}

// Metrics records pipeline health counters.
type Metrics interface {
	RecordSignal(outcome string)
	RecordCapture(timeframes int, err error)
	RecordAnalysis(fallback bool, err error)
	RecordVerification(correct, unverifiable bool)
	RecordNotify(err error)
	RecordPipelineDuration(seconds float64)
}
