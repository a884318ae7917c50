package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"ChartSentry/internal/domain/models"
	"ChartSentry/internal/service/analysis"
	"ChartSentry/internal/service/verify"
	"ChartSentry/pkg/logger"
)

type fakeCapturer struct {
	err   error
	calls []models.CaptureJob
}

func (f *fakeCapturer) Capture(_ context.Context, job models.CaptureJob) ([]models.ChartImage, error) {
	f.calls = append(f.calls, job)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.ChartImage, len(job.Timeframes))
	for i, tf := range job.Timeframes {
		out[i] = models.ChartImage{Timeframe: tf, Name: job.Symbol + "_" + tf + ".png", Data: []byte{1}}
	}
	return out, nil
}

type fakeAnalyzer struct {
	decision models.Decision
	calls    int
	images   int
}

func (f *fakeAnalyzer) Analyze(_ context.Context, _ models.Signal, images []models.ChartImage) models.Decision {
	f.calls++
	f.images = len(images)
	return f.decision
}

type fakeNotifier struct {
	mu    sync.Mutex
	texts []string
	imgs  [][]models.ChartImage
	err   error
}

func (f *fakeNotifier) Notify(_ context.Context, text string, images []models.ChartImage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	f.imgs = append(f.imgs, images)
	return f.err
}

type memLedger struct {
	mu  sync.Mutex
	rec *models.PredictionRecord
}

func (m *memLedger) Load() (*models.PredictionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rec == nil {
		return nil, nil
	}
	cp := *m.rec
	return &cp, nil
}

func (m *memLedger) Save(rec models.PredictionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = &rec
	return nil
}

type fakePrices struct {
	price float64
	ok    bool
}

func (f *fakePrices) LastPrice(string) (float64, bool) { return f.price, f.ok }

type nopMetrics struct{}

func (nopMetrics) RecordSignal(string)            {}
func (nopMetrics) RecordCapture(int, error)       {}
func (nopMetrics) RecordAnalysis(bool, error)     {}
func (nopMetrics) RecordVerification(bool, bool)  {}
func (nopMetrics) RecordNotify(error)             {}
func (nopMetrics) RecordPipelineDuration(float64) {}

func decisionWithEntry(verdict, direction string, entry float64) models.Decision {
	return models.Decision{Verdict: verdict, Direction: direction, EntryPrice: &entry, Raw: `{"verdict": "` + verdict + `"}`}
}

func newTestPipeline(t *testing.T, deps PipelineDeps) *Pipeline {
	t.Helper()
	if deps.Verifier == nil {
		deps.Verifier = verify.NewEngine()
	}
	if deps.Metrics == nil {
		deps.Metrics = nopMetrics{}
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	return NewPipeline(deps, PipelineConfig{
		CaptureTimeout:  time.Second,
		AnalysisTimeout: time.Second,
	})
}

func TestProcessEndToEnd(t *testing.T) {
	capturer := &fakeCapturer{}
	analyzer := &fakeAnalyzer{decision: decisionWithEntry("buy", models.DirectionUp, 2346.0)}
	notifier := &fakeNotifier{}
	ledger := &memLedger{}

	p := newTestPipeline(t, PipelineDeps{
		Capturer: capturer,
		Analyzer: analyzer,
		Notifier: notifier,
		Ledger:   ledger,
	})

	sig := models.Signal{Ticker: "XAUUSD", Level: "1m", Label: "break", Price: 2345.6, ChartURL: "https://charts/x"}
	if err := p.Process(context.Background(), sig); err != nil {
		t.Fatalf("process: %v", err)
	}

	if len(capturer.calls) != 1 {
		t.Fatalf("capture calls = %d", len(capturer.calls))
	}
	if got := capturer.calls[0].Timeframes; len(got) != 3 || got[0] != "1" || got[1] != "5" || got[2] != "25" {
		t.Errorf("timeframes = %v", got)
	}
	if analyzer.calls != 1 || analyzer.images != 3 {
		t.Errorf("analyzer calls=%d images=%d", analyzer.calls, analyzer.images)
	}

	rec, _ := ledger.Load()
	if rec == nil {
		t.Fatal("ledger not written")
	}
	if rec.Price == nil || *rec.Price != 2345.6 {
		t.Errorf("ledger price = %v, want signal price", rec.Price)
	}
	if rec.Decision != "buy" {
		t.Errorf("ledger decision = %q", rec.Decision)
	}

	// receipt first, then the full report with images
	if len(notifier.texts) != 2 {
		t.Fatalf("notifications = %d, want 2", len(notifier.texts))
	}
	if !strings.Contains(notifier.texts[0], "signal triggered") {
		t.Errorf("receipt text = %q", notifier.texts[0])
	}
	if len(notifier.imgs[1]) != 3 {
		t.Errorf("report images = %d, want 3", len(notifier.imgs[1]))
	}
}

func TestProcessVerifiesPriorRecord(t *testing.T) {
	ledger := &memLedger{}
	prevPrice := 2300.0
	ledger.Save(models.PredictionRecord{Timestamp: 1, Price: &prevPrice, Decision: "buy"})

	notifier := &fakeNotifier{}
	p := newTestPipeline(t, PipelineDeps{
		Capturer: &fakeCapturer{},
		Analyzer: &fakeAnalyzer{decision: decisionWithEntry("sell", models.DirectionDown, 2345.0)},
		Notifier: notifier,
		Ledger:   ledger,
	})

	sig := models.Signal{Ticker: "XAUUSD", Level: "5m", Label: "cross", Price: 2345.6}
	if err := p.Process(context.Background(), sig); err != nil {
		t.Fatalf("process: %v", err)
	}

	report := notifier.texts[1]
	if !strings.Contains(report, "previous forecast correct") {
		t.Errorf("report missing verification line: %q", report)
	}

	rec, _ := ledger.Load()
	if rec.Decision != "sell" {
		t.Errorf("ledger not replaced: %q", rec.Decision)
	}
}

func TestProcessCaptureFailureAborts(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	notifier := &fakeNotifier{}
	ledger := &memLedger{}

	p := newTestPipeline(t, PipelineDeps{
		Capturer: &fakeCapturer{err: errors.New("renderer down")},
		Analyzer: analyzer,
		Notifier: notifier,
		Ledger:   ledger,
	})

	err := p.Process(context.Background(), models.Signal{Ticker: "BTCUSD", Level: "1m", Label: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
	if analyzer.calls != 0 {
		t.Error("analysis must not run after a failed capture")
	}
	if rec, _ := ledger.Load(); rec != nil {
		t.Error("ledger must stay untouched")
	}
	// only the receipt went out
	if len(notifier.texts) != 1 {
		t.Errorf("notifications = %d, want 1", len(notifier.texts))
	}
}

func TestProcessPriceFallsBackToEntryThenFeed(t *testing.T) {
	t.Run("entry price", func(t *testing.T) {
		ledger := &memLedger{}
		p := newTestPipeline(t, PipelineDeps{
			Capturer: &fakeCapturer{},
			Analyzer: &fakeAnalyzer{decision: decisionWithEntry("buy", models.DirectionUp, 101.5)},
			Notifier: &fakeNotifier{},
			Ledger:   ledger,
			Prices:   &fakePrices{price: 999, ok: true},
		})

		p.Process(context.Background(), models.Signal{Ticker: "EURUSD", Level: "5m", Label: "x"})
		rec, _ := ledger.Load()
		if rec.Price == nil || *rec.Price != 101.5 {
			t.Errorf("price = %v, want the decision entry price", rec.Price)
		}
	})

	t.Run("live feed", func(t *testing.T) {
		ledger := &memLedger{}
		p := newTestPipeline(t, PipelineDeps{
			Capturer: &fakeCapturer{},
			Analyzer: &fakeAnalyzer{decision: models.Decision{Verdict: "no position", Direction: models.DirectionFlat, Raw: "hold"}},
			Notifier: &fakeNotifier{},
			Ledger:   ledger,
			Prices:   &fakePrices{price: 1.0842, ok: true},
		})

		p.Process(context.Background(), models.Signal{Ticker: "EURUSD", Level: "5m", Label: "x"})
		rec, _ := ledger.Load()
		if rec.Price == nil || *rec.Price != 1.0842 {
			t.Errorf("price = %v, want the feed price", rec.Price)
		}
	})

	t.Run("no price anywhere", func(t *testing.T) {
		ledger := &memLedger{}
		p := newTestPipeline(t, PipelineDeps{
			Capturer: &fakeCapturer{},
			Analyzer: &fakeAnalyzer{decision: models.Decision{Verdict: "no position", Direction: models.DirectionFlat, Raw: "hold"}},
			Notifier: &fakeNotifier{},
			Ledger:   ledger,
		})

		p.Process(context.Background(), models.Signal{Ticker: "EURUSD", Level: "5m", Label: "x"})
		rec, _ := ledger.Load()
		if rec == nil {
			t.Fatal("slot must still be overwritten")
		}
		if rec.Price != nil {
			t.Errorf("price = %v, want null", *rec.Price)
		}
	})
}

func TestProcessFallbackDecisionStillCompletes(t *testing.T) {
	ledger := &memLedger{}
	notifier := &fakeNotifier{}
	p := newTestPipeline(t, PipelineDeps{
		Capturer: &fakeCapturer{},
		Analyzer: &fakeAnalyzer{decision: analysis.FallbackDecision()},
		Notifier: notifier,
		Ledger:   ledger,
	})

	if err := p.Process(context.Background(), models.Signal{Ticker: "XAUUSD", Level: "1m", Label: "x", Price: 10}); err != nil {
		t.Fatalf("process: %v", err)
	}
	rec, _ := ledger.Load()
	if rec == nil || rec.Decision != "no position" {
		t.Errorf("rec = %+v", rec)
	}
	if len(notifier.texts) != 2 {
		t.Errorf("notifications = %d, want 2", len(notifier.texts))
	}
}

func TestProcessNotifyFailureIsNotFatal(t *testing.T) {
	p := newTestPipeline(t, PipelineDeps{
		Capturer: &fakeCapturer{},
		Analyzer: &fakeAnalyzer{decision: decisionWithEntry("buy", models.DirectionUp, 100)},
		Notifier: &fakeNotifier{err: errors.New("webhook down")},
		Ledger:   &memLedger{},
	})

	if err := p.Process(context.Background(), models.Signal{Ticker: "XAUUSD", Level: "1m", Label: "x", Price: 10}); err != nil {
		t.Fatalf("notify failure must not fail the cycle: %v", err)
	}
}
