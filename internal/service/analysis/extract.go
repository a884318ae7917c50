package analysis

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"ChartSentry/internal/domain/models"
)

// verdictKeys and priceKeys cover both the English schema the reasoning
// prompt asks for and the Chinese labels some upstream models emit anyway.
var (
	verdictKeys = []string{"verdict", "decision", "决策"}
	priceKeys   = []string{"entry_price", "entry", "price", "入场价格", "价格"}

	upLabels   = []string{"buy", "long", "bullish", "做多", "买入", "买"}
	downLabels = []string{"sell", "short", "bearish", "做空", "卖出", "卖"}
	flatLabels = []string{"no position", "hold", "wait", "neutral", "flat", "观望"}
)

// ExtractJSON returns the first balanced top-level JSON object embedded in
// text. Model output routinely wraps the object in prose or code fences, so
// a plain Unmarshal of the whole reply is not enough.
func ExtractJSON(text string) (string, bool) {
	for start := 0; start < len(text); start++ {
		if text[start] != '{' {
			continue
		}
		depth := 0
		inString := false
		escaped := false
		for i := start; i < len(text); i++ {
			ch := text[i]
			if inString {
				switch {
				case escaped:
					escaped = false
				case ch == '\\':
					escaped = true
				case ch == '"':
					inString = false
				}
				continue
			}
			switch ch {
			case '"':
				inString = true
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					candidate := text[start : i+1]
					if json.Valid([]byte(candidate)) {
						return candidate, true
					}
					i = len(text)
				}
			}
		}
	}
	return "", false
}

// ExtractDirection maps a free-form decision label to a direction constant.
func ExtractDirection(text string) string {
	lower := strings.ToLower(text)
	for _, l := range upLabels {
		if strings.Contains(lower, l) {
			return models.DirectionUp
		}
	}
	for _, l := range downLabels {
		if strings.Contains(lower, l) {
			return models.DirectionDown
		}
	}
	for _, l := range flatLabels {
		if strings.Contains(lower, l) {
			return models.DirectionFlat
		}
	}
	return models.DirectionUnknown
}

// ParseDecision normalizes a raw model reply into a Decision. It never
// fails: a reply with no parseable JSON block degrades to the neutral
// no-position decision, with the full text preserved in Raw. Directional
// language in free prose is never trusted on its own.
func ParseDecision(text string) models.Decision {
	block, ok := ExtractJSON(text)
	if !ok {
		return parseFailedDecision(text)
	}

	var fields map[string]interface{}
	if err := json.Unmarshal([]byte(block), &fields); err != nil {
		return parseFailedDecision(text)
	}

	d := models.Decision{
		Raw:       text,
		Direction: models.DirectionUnknown,
	}

	for _, key := range verdictKeys {
		if v, ok := fields[key].(string); ok && v != "" {
			d.Verdict = v
			break
		}
	}

	if dir, ok := fields["direction"].(string); ok {
		switch strings.ToLower(strings.TrimSpace(dir)) {
		case models.DirectionUp:
			d.Direction = models.DirectionUp
		case models.DirectionDown:
			d.Direction = models.DirectionDown
		case models.DirectionFlat:
			d.Direction = models.DirectionFlat
		}
	}
	if d.Direction == models.DirectionUnknown {
		source := d.Verdict
		if source == "" {
			source = text
		}
		d.Direction = ExtractDirection(source)
	}

	d.EntryPrice = extractPrice(fields)
	return d
}

// parseFailedDecision is the neutral answer for replies with no usable
// JSON. The original text stays in Raw for the operator to read.
func parseFailedDecision(text string) models.Decision {
	return models.Decision{
		Verdict:   "no position",
		Direction: models.DirectionFlat,
		Raw:       text,
		Fallback:  true,
	}
}

// extractPrice pulls the first usable entry price out of the decoded
// decision fields. Models return prices as numbers or strings, sometimes
// with currency noise; only finite positive values count.
func extractPrice(fields map[string]interface{}) *float64 {
	for _, key := range priceKeys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var p float64
		switch v := raw.(type) {
		case float64:
			p = v
		case string:
			cleaned := strings.TrimFunc(v, func(r rune) bool {
				return (r < '0' || r > '9') && r != '.' && r != '-'
			})
			parsed, err := strconv.ParseFloat(cleaned, 64)
			if err != nil {
				continue
			}
			p = parsed
		default:
			continue
		}
		if p > 0 && !math.IsInf(p, 0) && !math.IsNaN(p) {
			return &p
		}
	}
	return nil
}
