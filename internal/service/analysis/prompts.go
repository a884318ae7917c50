package analysis

import (
	"fmt"
	"strings"

	"ChartSentry/internal/domain/models"
)

const visionPromptTemplate = `You are a professional technical analyst. Study this %s chart for %s.
Describe the trend structure, key support and resistance levels, candle patterns
and momentum. Finish with a one line bias: bullish, bearish or neutral.`

const reasoningSystemPrompt = `You are a disciplined trading strategist. You receive technical readings
of the same instrument across several timeframes. Weigh them together, favoring
alignment between timeframes over any single reading. Respond with a JSON object:
{"verdict": "buy" | "sell" | "no position", "direction": "up" | "down" | "flat",
"entry_price": <number or null>, "reason": "<short explanation>"}`

// VisionPrompt builds the per-image prompt for a chart frame.
func VisionPrompt(symbol, timeframe string) string {
	return fmt.Sprintf(visionPromptTemplate, timeframe+"m", symbol)
}

// ReasoningPrompt assembles the synthesis prompt from per-timeframe readings.
func ReasoningPrompt(sig models.Signal, readings map[string]string, order []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Signal: %s triggered %q at level %s", sig.Ticker, sig.Label, sig.Level)
	if sig.HasPrice() {
		fmt.Fprintf(&b, ", price %.2f", sig.Price)
	}
	b.WriteString("\n\n")
	for _, tf := range order {
		reading, ok := readings[tf]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "[%sm reading]\n%s\n\n", tf, reading)
	}
	b.WriteString("Give your final decision for the next move.")
	return b.String()
}
