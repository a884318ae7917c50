// Package verify scores the previous prediction against the price observed
// in the current cycle.
package verify

import (
	"math"

	"ChartSentry/internal/domain/models"
	"ChartSentry/internal/service/analysis"
)

// Engine compares ledger records with fresh prices.
type Engine struct{}

// NewEngine creates a verification engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Check scores prev against currentPrice. It returns nil when prev is nil,
// because a first-ever signal has nothing to verify. A prior record without
// a usable price yields an unverifiable result instead of being skipped, so
// the miss is still visible downstream.
func (e *Engine) Check(prev *models.PredictionRecord, currentPrice float64) *models.VerificationResult {
	if prev == nil {
		return nil
	}

	res := &models.VerificationResult{
		PrevDecision:  prev.Decision,
		PrevDirection: analysis.ExtractDirection(prev.Decision),
		CurrentPrice:  currentPrice,
	}

	if prev.Price == nil || *prev.Price <= 0 || currentPrice <= 0 {
		if prev.Price != nil {
			res.PrevPrice = *prev.Price
		}
		res.Unverifiable = true
		return res
	}

	res.PrevPrice = *prev.Price
	res.Delta = currentPrice - res.PrevPrice
	res.DeltaPct = math.Round(res.Delta/res.PrevPrice*10000) / 100

	switch {
	case res.Delta > 0:
		res.Direction = models.DirectionUp
	case res.Delta < 0:
		res.Direction = models.DirectionDown
	default:
		res.Direction = models.DirectionFlat
	}

	// An unknown prior direction can never match the observed move, so it
	// scores as a miss rather than being silently dropped.
	res.Correct = res.PrevDirection == res.Direction

	return res
}
