package models

import "fmt"

// VerificationResult compares the prior prediction against a freshly
// observed price. Computed fresh each cycle and never persisted on its own.
type VerificationResult struct {
	PrevPrice     float64 `json:"prev_price"`
	PrevDirection string  `json:"prev_direction"`
	PrevDecision  string  `json:"prev_decision"`
	CurrentPrice  float64 `json:"current_price"`
	Delta         float64 `json:"delta"`
	DeltaPct      float64 `json:"delta_pct"`
	Direction     string  `json:"direction"`
	Correct       bool    `json:"correct"`
	Unverifiable  bool    `json:"unverifiable"`
}

// Summary renders the human-readable line appended to notifications.
func (v VerificationResult) Summary() string {
	if v.Unverifiable {
		return fmt.Sprintf("previous forecast unverifiable (prior price %.2f)", v.PrevPrice)
	}
	outcome := "incorrect"
	if v.Correct {
		outcome = "correct"
	}
	return fmt.Sprintf("previous forecast %s: predicted %s, price went %s (%.2f -> %.2f, %+.2f, %+.2f%%)",
		outcome, v.PrevDirection, v.Direction, v.PrevPrice, v.CurrentPrice, v.Delta, v.DeltaPct)
}
