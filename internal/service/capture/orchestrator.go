package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ChartSentry/internal/domain/models"
	"ChartSentry/pkg/logger"
)

// resonanceTimeframes is the multi-timeframe set captured for 1m signals,
// ordered short to long.
var resonanceTimeframes = []string{"1", "5", "25"}

// Plan maps a signal level to the timeframes to capture. A 1m signal expands
// to the resonance set; any other level yields a single capture at its
// native timeframe.
func Plan(level string) []string {
	if level == models.DefaultLevel {
		out := make([]string, len(resonanceTimeframes))
		copy(out, resonanceTimeframes)
		return out
	}
	return []string{strings.TrimSuffix(level, "m")}
}

// Snapshotter renders a single chart frame.
type Snapshotter interface {
	Snapshot(ctx context.Context, chartURL, symbol, timeframe string) ([]byte, error)
}

// Orchestrator runs the capture plan for a signal and collects chart images.
type Orchestrator struct {
	snapshotter Snapshotter
	auditDir    string
	logger      *logger.Logger
	now         func() time.Time
}

// OrchestratorOption configures Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithAuditDir writes every captured frame to dir for later inspection.
func WithAuditDir(dir string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.auditDir = dir
	}
}

// WithClock overrides the timestamp source. Used by tests.
func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// NewOrchestrator creates a capture orchestrator.
func NewOrchestrator(s Snapshotter, log *logger.Logger, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		snapshotter: s,
		logger:      log,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Capture executes the job's timeframe plan in order. Individual frame
// failures are logged and skipped; an error is returned only when no frame
// could be captured at all.
func (o *Orchestrator) Capture(ctx context.Context, job models.CaptureJob) ([]models.ChartImage, error) {
	if len(job.Timeframes) == 0 {
		return nil, fmt.Errorf("capture %s: no timeframes in plan", job.Symbol)
	}

	stamp := o.now().Format("20060102150405")
	images := make([]models.ChartImage, 0, len(job.Timeframes))

	for _, tf := range job.Timeframes {
		data, err := o.snapshotter.Snapshot(ctx, job.BaseURL, job.Symbol, tf)
		if err != nil {
			o.logger.Warn("frame capture failed",
				logger.String("symbol", job.Symbol),
				logger.String("timeframe", tf),
				logger.Error(err))
			continue
		}

		img := models.ChartImage{
			Timeframe: tf,
			Name:      fmt.Sprintf("%s_%s_%s.png", job.Symbol, tf, stamp),
			Data:      data,
		}
		images = append(images, img)

		if o.auditDir != "" {
			o.audit(img)
		}
	}

	if len(images) == 0 {
		return nil, fmt.Errorf("capture %s: all %d frames failed", job.Symbol, len(job.Timeframes))
	}

	o.logger.Info("capture complete",
		logger.String("symbol", job.Symbol),
		logger.Int("frames", len(images)),
		logger.Int("planned", len(job.Timeframes)))

	return images, nil
}

func (o *Orchestrator) audit(img models.ChartImage) {
	if err := os.MkdirAll(o.auditDir, 0o755); err != nil {
		o.logger.Warn("audit dir", logger.Error(err))
		return
	}
	path := filepath.Join(o.auditDir, img.Name)
	if err := os.WriteFile(path, img.Data, 0o644); err != nil {
		o.logger.Warn("audit write", logger.String("path", path), logger.Error(err))
	}
}
