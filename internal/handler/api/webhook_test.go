package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"ChartSentry/internal/domain/models"
	"ChartSentry/internal/service/dedup"
	"ChartSentry/pkg/logger"
)

type fakeQueue struct {
	published []models.Signal
	err       error
}

func (f *fakeQueue) PublishMessage(_ context.Context, _ string, payload interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, payload.(models.Signal))
	return nil
}

type nopMetrics struct{}

func (nopMetrics) RecordSignal(string)            {}
func (nopMetrics) RecordCapture(int, error)       {}
func (nopMetrics) RecordAnalysis(bool, error)     {}
func (nopMetrics) RecordVerification(bool, bool)  {}
func (nopMetrics) RecordNotify(error)             {}
func (nopMetrics) RecordPipelineDuration(float64) {}

func post(t *testing.T, h *WebhookHandler, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.Receive(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler: %v", err)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return rec, resp
}

func newHandler(q *fakeQueue) *WebhookHandler {
	return NewWebhookHandler(q, dedup.New(120*time.Second), nopMetrics{}, logger.Nop(), 0)
}

func TestReceiveAccepts(t *testing.T) {
	q := &fakeQueue{}
	h := newHandler(q)

	rec, resp := post(t, h, `{"ticker": "XAUUSD", "signal": "breakout", "level": "1m", "price": 2345.6}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if resp["status"] != "accepted" {
		t.Fatalf("status = %v", resp["status"])
	}
	if len(q.published) != 1 {
		t.Fatalf("published = %d", len(q.published))
	}
	sig := q.published[0]
	if sig.Ticker != "XAUUSD" || sig.Label != "breakout" || sig.Level != "1m" || sig.Price != 2345.6 {
		t.Errorf("signal = %+v", sig)
	}
}

func TestReceiveSymbolAlias(t *testing.T) {
	q := &fakeQueue{}
	h := newHandler(q)

	_, resp := post(t, h, `{"symbol": "BTCUSD", "signal": "cross"}`)
	if resp["status"] != "accepted" {
		t.Fatalf("status = %v", resp["status"])
	}
	if q.published[0].Ticker != "BTCUSD" {
		t.Errorf("ticker = %q", q.published[0].Ticker)
	}
}

func TestReceiveDefaultsLevel(t *testing.T) {
	q := &fakeQueue{}
	h := newHandler(q)

	post(t, h, `{"ticker": "EURUSD", "signal": "touch"}`)
	if q.published[0].Level != "1m" {
		t.Errorf("level = %q, want the 1m default", q.published[0].Level)
	}
}

func TestReceiveRejectsMissingFields(t *testing.T) {
	for name, body := range map[string]string{
		"no ticker or symbol": `{"signal": "breakout"}`,
		"no signal":           `{"ticker": "XAUUSD"}`,
		"malformed json":      `{"ticker": `,
	} {
		t.Run(name, func(t *testing.T) {
			q := &fakeQueue{}
			rec, resp := post(t, newHandler(q), body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("code = %d, want 400", rec.Code)
			}
			if resp["status"] != "error" {
				t.Errorf("status = %v", resp["status"])
			}
			if len(q.published) != 0 {
				t.Error("nothing should reach the queue")
			}
		})
	}
}

func TestReceiveSuppressesDuplicates(t *testing.T) {
	q := &fakeQueue{}
	h := newHandler(q)
	body := `{"ticker": "XAUUSD", "signal": "breakout", "level": "1m", "price": 2345.6}`

	_, first := post(t, h, body)
	_, second := post(t, h, body)

	if first["status"] != "accepted" {
		t.Fatalf("first status = %v", first["status"])
	}
	if second["status"] != "ignored" {
		t.Fatalf("second status = %v", second["status"])
	}
	if len(q.published) != 1 {
		t.Errorf("published = %d, want 1", len(q.published))
	}
}

func TestReceiveSubUnitPriceIsSameKey(t *testing.T) {
	q := &fakeQueue{}
	h := newHandler(q)

	post(t, h, `{"ticker": "XAUUSD", "signal": "breakout", "price": 2345.2}`)
	_, resp := post(t, h, `{"ticker": "XAUUSD", "signal": "breakout", "price": 2345.9}`)
	if resp["status"] != "ignored" {
		t.Errorf("status = %v, want ignored for same truncated price", resp["status"])
	}
}

func TestReceiveQueueFailure(t *testing.T) {
	h := newHandler(&fakeQueue{err: errors.New("full")})

	rec, resp := post(t, h, `{"ticker": "XAUUSD", "signal": "breakout"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("code = %d, want 503", rec.Code)
	}
	if resp["status"] != "error" {
		t.Errorf("status = %v", resp["status"])
	}
}

func TestReceiveRateLimit(t *testing.T) {
	q := &fakeQueue{}
	h := NewWebhookHandler(q, dedup.New(120*time.Second), nopMetrics{}, logger.Nop(), 2)

	post(t, h, `{"ticker": "XAUUSD", "signal": "a"}`)
	post(t, h, `{"ticker": "XAUUSD", "signal": "b"}`)
	_, resp := post(t, h, `{"ticker": "XAUUSD", "signal": "c"}`)
	if resp["status"] != "ignored" {
		t.Errorf("status = %v, want ignored once the bucket drains", resp["status"])
	}
	if len(q.published) != 2 {
		t.Errorf("published = %d, want 2", len(q.published))
	}
}

func TestHealth(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	if err := newHandler(&fakeQueue{}).Health(e.NewContext(req, rec)); err != nil {
		t.Fatalf("health: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"running"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}
