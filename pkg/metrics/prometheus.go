package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	signalsTotal       *prometheus.CounterVec
	capturesTotal      *prometheus.CounterVec
	captureFrames      prometheus.Histogram
	analysisTotal      *prometheus.CounterVec
	verificationsTotal *prometheus.CounterVec
	notifyTotal        *prometheus.CounterVec
	pipelineSeconds    prometheus.Histogram
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		signalsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chartsentry_signals_total",
				Help: "Inbound signals by intake outcome",
			},
			[]string{"outcome"},
		),
		capturesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chartsentry_captures_total",
				Help: "Chart capture requests by result",
			},
			[]string{"result"},
		),
		captureFrames: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "chartsentry_capture_frames",
				Help:    "Frames returned per capture request",
				Buckets: []float64{0, 1, 2, 3, 4},
			},
		),
		analysisTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chartsentry_analysis_total",
				Help: "Analysis runs by result",
			},
			[]string{"result"},
		),
		verificationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chartsentry_verifications_total",
				Help: "Forecast verifications by outcome",
			},
			[]string{"outcome"},
		),
		notifyTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chartsentry_notifications_total",
				Help: "Notification deliveries by result",
			},
			[]string{"result"},
		),
		pipelineSeconds: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "chartsentry_pipeline_duration_seconds",
				Help:    "End-to-end processing time per accepted signal",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
			},
		),
	}
}

// RecordSignal records an intake outcome (accepted, ignored, rejected).
func (r *Recorder) RecordSignal(outcome string) {
	r.signalsTotal.WithLabelValues(outcome).Inc()
}

// RecordCapture records a capture attempt and its frame count.
func (r *Recorder) RecordCapture(timeframes int, err error) {
	r.capturesTotal.WithLabelValues(resultLabel(err)).Inc()
	if err == nil {
		r.captureFrames.Observe(float64(timeframes))
	}
}

// RecordAnalysis records an analysis run; fallback marks a neutral default.
func (r *Recorder) RecordAnalysis(fallback bool, err error) {
	switch {
	case err != nil:
		r.analysisTotal.WithLabelValues("error").Inc()
	case fallback:
		r.analysisTotal.WithLabelValues("fallback").Inc()
	default:
		r.analysisTotal.WithLabelValues("ok").Inc()
	}
}

// RecordVerification records a verification outcome.
func (r *Recorder) RecordVerification(correct, unverifiable bool) {
	switch {
	case unverifiable:
		r.verificationsTotal.WithLabelValues("unverifiable").Inc()
	case correct:
		r.verificationsTotal.WithLabelValues("correct").Inc()
	default:
		r.verificationsTotal.WithLabelValues("incorrect").Inc()
	}
}

// RecordNotify records a notification delivery result.
func (r *Recorder) RecordNotify(err error) {
	r.notifyTotal.WithLabelValues(resultLabel(err)).Inc()
}

// RecordPipelineDuration records end-to-end processing time.
func (r *Recorder) RecordPipelineDuration(seconds float64) {
	r.pipelineSeconds.Observe(seconds)
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
