package models

import "time"

// Direction labels used by decisions and verification.
const (
	DirectionUp      = "up"
	DirectionDown    = "down"
	DirectionFlat    = "flat"
	DirectionUnknown = "unknown"
)

// Decision is the normalized output of the analysis coordinator.
// EntryPrice is a pointer because absence and zero are distinct: a decision
// without a parseable entry price skips verification for the cycle.
type Decision struct {
	Verdict    string   `json:"verdict"`
	Direction  string   `json:"direction"`
	EntryPrice *float64 `json:"entry_price,omitempty"`
	Raw        string   `json:"raw"`
	Fallback   bool     `json:"fallback"`
}

// PredictionRecord is the single most recent decision kept for later
// verification. Price is nullable: a decision without a price still
// overwrites the slot but cannot anchor the next comparison.
type PredictionRecord struct {
	Timestamp int64    `json:"timestamp"`
	Price     *float64 `json:"price"`
	Decision  string   `json:"decision"`
}

// NewPredictionRecord builds the ledger slot for a decision observed at the
// given price. Pass hasPrice=false when no usable price exists this cycle.
func NewPredictionRecord(d Decision, price float64, hasPrice bool, now time.Time) PredictionRecord {
	decision := d.Verdict
	if decision == "" {
		decision = d.Raw
	}
	rec := PredictionRecord{
		Timestamp: now.Unix(),
		Decision:  decision,
	}
	if hasPrice {
		p := price
		rec.Price = &p
	}
	return rec
}
