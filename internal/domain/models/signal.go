package models

import (
	"fmt"
	"time"
)

// Signal is one inbound alert from the charting platform. Signals are
// immutable once built and travel through the pipeline by value.
type Signal struct {
	Ticker   string  `json:"ticker"`
	Level    string  `json:"level"`
	Label    string  `json:"signal"`
	Price    float64 `json:"price"`
	ChartURL string  `json:"chart_url"`

	ReceivedAt time.Time `json:"received_at"`
}

// DefaultLevel is assumed when an alert carries no timeframe code.
const DefaultLevel = "1m"

// DedupKey builds the suppression identity for a signal. The price is
// truncated to an integer so sub-unit noise maps to the same key.
func (s Signal) DedupKey() string {
	return fmt.Sprintf("%s|%s|%s|%d", s.Ticker, s.Level, s.Label, int64(s.Price))
}

// HasPrice reports whether the alert carried a usable price.
func (s Signal) HasPrice() bool {
	return s.Price > 0
}
