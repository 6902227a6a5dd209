package database

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/wheelscan/go-wheel-trainer/internal/training"
)

// TrainingRun is the stored form of a training run.
type TrainingRun struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"-"`

	RunID     string `bson:"run_id" json:"run_id"`
	RequestID string `bson:"request_id,omitempty" json:"request_id,omitempty"`

	Tag        string `bson:"tag" json:"tag"`
	TagID      string `bson:"tag_id,omitempty" json:"tag_id,omitempty"`
	TagCreated bool   `bson:"tag_created" json:"tag_created"`
	TagDeleted bool   `bson:"tag_deleted" json:"tag_deleted"`

	FramesExtracted int `bson:"frames_extracted" json:"frames_extracted"`
	FramesUploaded  int `bson:"frames_uploaded" json:"frames_uploaded"`
	ImagesAccepted  int `bson:"images_accepted" json:"images_accepted"`

	IterationID     string `bson:"iteration_id,omitempty" json:"iteration_id,omitempty"`
	IterationStatus string `bson:"iteration_status,omitempty" json:"iteration_status,omitempty"`
	PublishName     string `bson:"publish_name,omitempty" json:"publish_name,omitempty"`

	Outcome    string `bson:"outcome" json:"outcome"`
	Message    string `bson:"message" json:"message"`
	StatusCode int    `bson:"status_code" json:"status_code"`

	StartedAt   time.Time `bson:"started_at" json:"started_at"`
	FinishedAt  time.Time `bson:"finished_at" json:"finished_at"`
	DurationMs  int64     `bson:"duration_ms" json:"duration_ms"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	Environment string    `bson:"environment,omitempty" json:"environment,omitempty"`
}

// NewTrainingRun converts a run for storage.
func NewTrainingRun(run *training.Run, environment string, now time.Time) *TrainingRun {
	return &TrainingRun{
		RunID:           run.RunID,
		RequestID:       run.RequestID,
		Tag:             run.Tag,
		TagID:           run.TagID,
		TagCreated:      run.TagCreated,
		TagDeleted:      run.TagDeleted,
		FramesExtracted: run.FramesExtracted,
		FramesUploaded:  run.FramesUploaded,
		ImagesAccepted:  run.ImagesAccepted,
		IterationID:     run.IterationID,
		IterationStatus: run.IterationStatus,
		PublishName:     run.PublishName,
		Outcome:         run.Outcome,
		Message:         run.Message,
		StatusCode:      run.StatusCode,
		StartedAt:       run.StartedAt.UTC(),
		FinishedAt:      run.FinishedAt.UTC(),
		DurationMs:      run.FinishedAt.Sub(run.StartedAt).Milliseconds(),
		CreatedAt:       now.UTC(),
		Environment:     environment,
	}
}
