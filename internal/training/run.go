package training

import (
	"context"
	"time"
)

// Run is the history record of one training sequence.
type Run struct {
	RunID           string
	RequestID       string
	Tag             string
	TagID           string
	TagCreated      bool
	TagDeleted      bool
	FramesExtracted int
	FramesUploaded  int
	ImagesAccepted  int
	IterationID     string
	IterationStatus string
	PublishName     string
	Outcome         string
	Message         string
	StatusCode      int
	StartedAt       time.Time
	FinishedAt      time.Time
}

// RunRecorder persists run history.
type RunRecorder interface {
	Record(ctx context.Context, run *Run) error
}

// NoopRecorder discards runs; used when history is disabled.
type NoopRecorder struct{}

func (NoopRecorder) Record(context.Context, *Run) error { return nil }
