package analysis

import (
	"context"

	"ChartSentry/internal/domain/models"
	"ChartSentry/internal/domain/repository"
	"ChartSentry/pkg/logger"
)

const fallbackText = `{"verdict": "no position", "direction": "flat", "entry_price": null, "reason": "analysis unavailable, standing aside"}`

// FallbackDecision is returned whenever analysis cannot produce a usable
// decision. Standing aside is always a safe answer.
func FallbackDecision() models.Decision {
	return models.Decision{
		Verdict:   "no position",
		Direction: models.DirectionFlat,
		Raw:       fallbackText,
		Fallback:  true,
	}
}

// Coordinator runs the two-stage analysis: one vision read per chart frame,
// then a synthesis pass over all readings. It never returns an error; any
// failure degrades to the neutral fallback decision.
type Coordinator struct {
	vision   repository.VisionAnalyzer
	reasoner repository.Reasoner
	logger   *logger.Logger
}

// NewCoordinator creates an analysis coordinator.
func NewCoordinator(vision repository.VisionAnalyzer, reasoner repository.Reasoner, log *logger.Logger) *Coordinator {
	return &Coordinator{
		vision:   vision,
		reasoner: reasoner,
		logger:   log,
	}
}

// Analyze produces a decision for the signal from its captured frames.
func (c *Coordinator) Analyze(ctx context.Context, sig models.Signal, images []models.ChartImage) models.Decision {
	if len(images) == 0 {
		return FallbackDecision()
	}

	readings := make(map[string]string, len(images))
	order := make([]string, 0, len(images))

	for _, img := range images {
		reading, err := c.vision.AnalyzeImage(ctx, img, VisionPrompt(sig.Ticker, img.Timeframe))
		if err != nil {
			c.logger.Warn("vision read failed",
				logger.String("ticker", sig.Ticker),
				logger.String("timeframe", img.Timeframe),
				logger.Error(err))
			continue
		}
		readings[img.Timeframe] = reading
		order = append(order, img.Timeframe)
	}

	if len(readings) == 0 {
		c.logger.Warn("no vision readings, falling back", logger.String("ticker", sig.Ticker))
		return FallbackDecision()
	}

	reply, err := c.reasoner.Reason(ctx, reasoningSystemPrompt, ReasoningPrompt(sig, readings, order))
	if err != nil {
		c.logger.Warn("reasoning failed, falling back",
			logger.String("ticker", sig.Ticker),
			logger.Error(err))
		return FallbackDecision()
	}

	d := ParseDecision(reply)
	c.logger.Info("analysis complete",
		logger.String("ticker", sig.Ticker),
		logger.String("verdict", d.Verdict),
		logger.String("direction", d.Direction),
		logger.Int("readings", len(readings)))
	return d
}
