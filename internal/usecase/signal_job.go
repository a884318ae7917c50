package usecase

import (
	"context"
	"fmt"

	"ChartSentry/internal/domain/models"
	"ChartSentry/pkg/queue"
)

// SignalMessageType is the queue message type carrying accepted signals.
const SignalMessageType = "signal.process"

// SignalJob adapts the pipeline to the queue's job contract.
type SignalJob struct {
	pipeline *Pipeline
}

// NewSignalJob creates the queue job for signal processing.
func NewSignalJob(p *Pipeline) *SignalJob {
	return &SignalJob{pipeline: p}
}

// Name returns the unique identifier of the job.
func (j *SignalJob) Name() string { return "signal-pipeline" }

// Type returns the message type this job consumes.
func (j *SignalJob) Type() string { return SignalMessageType }

// Handle decodes the signal and runs the pipeline.
func (j *SignalJob) Handle(ctx context.Context, payload interface{}) error {
	sig, err := queue.ParsePayload[models.Signal](payload)
	if err != nil {
		return fmt.Errorf("decode signal payload: %w", err)
	}
	return j.pipeline.Process(ctx, *sig)
}
