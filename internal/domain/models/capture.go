package models

// CaptureJob asks the capture service for one or more rendered chart frames.
type CaptureJob struct {
	BaseURL    string   `json:"base_url"`
	Symbol     string   `json:"symbol"`
	Timeframes []string `json:"timeframes"`
}

// ChartImage is one rendered frame. Name encodes symbol, timeframe and the
// capture timestamp so downstream stages can recover timeframe identity
// without asking the capture service again.
type ChartImage struct {
	Timeframe string `json:"timeframe"`
	Name      string `json:"name"`
	Data      []byte `json:"data"`
}
