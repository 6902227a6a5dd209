// Package training runs the wheel training sequence: frames, upload, tag
// reconciliation, image submission, training, polling and publishing.
package training

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/wheelscan/go-wheel-trainer/internal/customvision"
	"github.com/wheelscan/go-wheel-trainer/internal/logger"
	"github.com/wheelscan/go-wheel-trainer/internal/storage"
	"github.com/wheelscan/go-wheel-trainer/internal/utils"
)

// rollbackTimeout bounds cleanup calls made after the caller has gone away.
const rollbackTimeout = 30 * time.Second

// VisionClient is the part of the Custom Vision API the trainer drives.
type VisionClient interface {
	GetTags(ctx context.Context) ([]customvision.Tag, error)
	CreateTag(ctx context.Context, name string) (*customvision.Tag, error)
	DeleteTag(ctx context.Context, tagID string) error
	CreateImagesFromURLs(ctx context.Context, batch customvision.ImageURLBatch) (*customvision.ImageCreateSummary, error)
	GetTaggedImages(ctx context.Context, tagID string, take int) ([]customvision.Image, error)
	TrainProject(ctx context.Context) (*customvision.Iteration, error)
	GetIteration(ctx context.Context, iterationID string) (*customvision.Iteration, error)
	PublishIteration(ctx context.Context, iterationID, publishName, predictionResourceID string) error
}

// FrameExtractor splits a video into image files.
type FrameExtractor interface {
	Extract(ctx context.Context, videoPath, outDir string) ([]string, error)
}

// Config holds the tunables of the training sequence.
type Config struct {
	MinImages            int
	PollInterval         time.Duration
	Timeout              time.Duration
	UploadConcurrency    int
	ImageBatchSize       int
	TaggedImageTake      int
	KeyPrefix            string
	WorkDir              string
	PredictionResourceID string
}

// Input is one training request.
type Input struct {
	VideoPath string
	Tag       string
	RequestID string
}

// Result describes a successfully published run.
type Result struct {
	RunID           string `json:"run_id"`
	Tag             string `json:"tag"`
	TagID           string `json:"tag_id"`
	TagCreated      bool   `json:"tag_created"`
	FramesExtracted int    `json:"frames_extracted"`
	ImagesAccepted  int    `json:"images_accepted"`
	IterationID     string `json:"iteration_id"`
	PublishName     string `json:"publish_name"`
	Message         string `json:"message"`
}

// Trainer orchestrates one training run per call. It is safe for concurrent use.
type Trainer struct {
	cfg       Config
	extractor FrameExtractor
	store     storage.ObjectStore
	vision    VisionClient
	recorder  RunRecorder
	now       func() time.Time
	newRunID  func() string
}

// NewTrainer wires a Trainer. A nil recorder disables run history.
func NewTrainer(cfg Config, extractor FrameExtractor, store storage.ObjectStore, vision VisionClient, recorder RunRecorder) *Trainer {
	if recorder == nil {
		recorder = NoopRecorder{}
	}
	if cfg.MinImages < 1 {
		cfg.MinImages = 5
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.ImageBatchSize < 1 || cfg.ImageBatchSize > customvision.MaxImagesPerBatch {
		cfg.ImageBatchSize = customvision.MaxImagesPerBatch
	}
	if cfg.TaggedImageTake < 1 || cfg.TaggedImageTake > customvision.MaxTake {
		cfg.TaggedImageTake = customvision.MaxTake
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "frames"
	}
	return &Trainer{
		cfg:       cfg,
		extractor: extractor,
		store:     store,
		vision:    vision,
		recorder:  recorder,
		now:       time.Now,
		newRunID:  utils.GenerateRunID,
	}
}

// NormalizeTag trims and upper-cases a tag value.
func NormalizeTag(tag string) string {
	return strings.ToUpper(strings.TrimSpace(tag))
}

// PublishName builds the iteration publish name for t.
func PublishName(t time.Time) string {
	return "Iteration" + strings.ReplaceAll(t.UTC().Format(time.RFC3339), ":", "-")
}

// Train runs the full sequence for in. Failures are returned as *OutcomeError.
func (t *Trainer) Train(ctx context.Context, in Input) (*Result, error) {
	run := &Run{
		RunID:     t.newRunID(),
		RequestID: in.RequestID,
		Tag:       NormalizeTag(in.Tag),
		StartedAt: t.now(),
	}
	ctx = logger.WithComponent(logger.WithRunID(ctx, run.RunID), logger.ComponentNames.Trainer)

	result, err := t.train(ctx, in.VideoPath, run)

	run.FinishedAt = t.now()
	var outcomeErr *OutcomeError
	switch {
	case err == nil:
		run.Outcome, run.StatusCode, run.Message = OutcomePublished, http.StatusOK, result.Message
	case errors.As(err, &outcomeErr):
		run.Outcome, run.StatusCode, run.Message = outcomeErr.Outcome, outcomeErr.StatusCode, outcomeErr.Message
	default:
		outcomeErr = newOutcomeError(OutcomeVisionError, http.StatusInternalServerError, MsgProcessingFailed, err)
		run.Outcome, run.StatusCode, run.Message = outcomeErr.Outcome, outcomeErr.StatusCode, outcomeErr.Message
		err = outcomeErr
	}

	if recErr := t.recorder.Record(context.WithoutCancel(ctx), run); recErr != nil {
		logger.WarnCtx(ctx, "Failed to record training run", "error", recErr)
	}

	logger.InfoCtx(ctx, "Training run finished",
		"tag", run.Tag,
		"outcome", run.Outcome,
		"status_code", run.StatusCode,
		"duration_ms", run.FinishedAt.Sub(run.StartedAt).Milliseconds())
	return result, err
}

func (t *Trainer) train(ctx context.Context, videoPath string, run *Run) (*Result, error) {
	if run.Tag == "" {
		return nil, newOutcomeError(OutcomeInvalidInput, http.StatusBadRequest, "tagValue is required", nil)
	}

	urls, err := t.extractAndUpload(ctx, videoPath, run)
	if err != nil {
		return nil, err
	}

	tags, err := t.vision.GetTags(ctx)
	if err != nil {
		return nil, newOutcomeError(OutcomeVisionError, http.StatusInternalServerError, MsgTagsFailed, err)
	}
	otherTags, err := t.reconcileTag(ctx, tags, run)
	if err != nil {
		return nil, err
	}

	if len(urls) < t.cfg.MinImages {
		t.rollbackIf(ctx, run, run.TagCreated)
		return nil, insufficientFrames(len(urls), t.cfg.MinImages)
	}

	t.submitImages(ctx, run.TagID, urls)

	countCtx := logger.WithStage(ctx, logger.LogStages.ImageCount)
	images, err := t.vision.GetTaggedImages(countCtx, run.TagID, t.cfg.TaggedImageTake)
	if err != nil {
		t.rollbackIf(ctx, run, run.TagCreated)
		return nil, newOutcomeError(OutcomeVisionError, http.StatusInternalServerError, MsgTaggedFailed, err)
	}
	run.ImagesAccepted = len(images)
	logger.InfoCtx(countCtx, "Tagged images counted", "tag_id", run.TagID, "accepted", run.ImagesAccepted)

	if run.ImagesAccepted < t.cfg.MinImages {
		t.rollbackIf(ctx, run, run.TagCreated)
		return nil, insufficientImages(len(urls), run.ImagesAccepted)
	}

	iteration, err := t.trainAndWait(ctx, run)
	if err != nil {
		t.rollbackIf(ctx, run, otherTags > 0)
		message := MsgTrainingKept
		if run.TagDeleted {
			message = MsgTrainingDeleted
		}
		return nil, newOutcomeError(OutcomeTrainingFailed, http.StatusBadRequest, message, err)
	}

	if err := t.publish(ctx, iteration, run); err != nil {
		return nil, newOutcomeError(OutcomePublishFailed, http.StatusBadGateway, MsgPublishFailed, err)
	}

	return &Result{
		RunID:           run.RunID,
		Tag:             run.Tag,
		TagID:           run.TagID,
		TagCreated:      run.TagCreated,
		FramesExtracted: run.FramesExtracted,
		ImagesAccepted:  run.ImagesAccepted,
		IterationID:     run.IterationID,
		PublishName:     run.PublishName,
		Message:         MsgPublished,
	}, nil
}

// extractAndUpload works in a per-run directory that is always removed.
func (t *Trainer) extractAndUpload(ctx context.Context, videoPath string, run *Run) ([]string, error) {
	workDir, err := os.MkdirTemp(t.cfg.WorkDir, "run-"+run.RunID+"-")
	if err != nil {
		return nil, newOutcomeError(OutcomeExtractionFailed, http.StatusInternalServerError, MsgProcessingFailed, err)
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			logger.WarnCtx(ctx, "Failed to remove work directory", "dir", workDir, "error", err)
		}
	}()

	frames, err := t.extractor.Extract(ctx, videoPath, filepath.Join(workDir, "frames"))
	if err != nil {
		logger.ErrorCtx(ctx, "Frame extraction failed", "error", err)
		return nil, newOutcomeError(OutcomeExtractionFailed, http.StatusInternalServerError, MsgProcessingFailed, err)
	}
	run.FramesExtracted = len(frames)

	prefix := path.Join(t.cfg.KeyPrefix, run.Tag, run.RunID)
	urls, err := storage.UploadFrames(ctx, t.store, prefix, frames, t.cfg.UploadConcurrency)
	if err != nil {
		logger.ErrorCtx(ctx, "Frame upload failed", "error", err)
		return nil, newOutcomeError(OutcomeUploadFailed, http.StatusInternalServerError, MsgUploadFailed, err)
	}
	run.FramesUploaded = len(urls)
	return urls, nil
}

// reconcileTag reuses the tag named run.Tag or creates it, and returns how
// many other tags the project has.
func (t *Trainer) reconcileTag(ctx context.Context, tags []customvision.Tag, run *Run) (int, error) {
	ctx = logger.WithStage(ctx, logger.LogStages.TagReconcile)

	for _, tag := range tags {
		if tag.Name == run.Tag {
			run.TagID = tag.ID
			logger.InfoCtx(ctx, "Reusing existing tag", "tag", run.Tag, "tag_id", tag.ID)
			return len(tags) - 1, nil
		}
	}

	created, err := t.vision.CreateTag(ctx, run.Tag)
	if err != nil {
		return 0, newOutcomeError(OutcomeVisionError, http.StatusInternalServerError, MsgTagCreateFailed, err)
	}
	run.TagID = created.ID
	run.TagCreated = true
	logger.InfoCtx(ctx, "Created tag", "tag", run.Tag, "tag_id", created.ID)
	return len(tags), nil
}

// submitImages sends the URLs in service-sized batches. A failed batch is
// logged; the tagged image count decides whether the run can continue.
func (t *Trainer) submitImages(ctx context.Context, tagID string, urls []string) {
	ctx = logger.WithStage(ctx, logger.LogStages.ImageSubmission)
	size := t.cfg.ImageBatchSize

	for start := 0; start < len(urls); start += size {
		end := min(start+size, len(urls))
		batch := customvision.ImageURLBatch{
			Images: make([]customvision.ImageURLEntry, 0, end-start),
			TagIDs: []string{tagID},
		}
		for _, u := range urls[start:end] {
			batch.Images = append(batch.Images, customvision.ImageURLEntry{URL: u, TagIDs: []string{tagID}})
		}

		summary, err := t.vision.CreateImagesFromURLs(ctx, batch)
		if err != nil {
			logger.WarnCtx(ctx, "Image batch rejected", "batch_start", start, "batch_size", end-start, "error", err)
			continue
		}
		logger.DebugCtx(ctx, "Image batch submitted",
			"batch_start", start,
			"batch_size", end-start,
			"accepted", summary.Accepted(),
			"batch_successful", summary.IsBatchSuccessful)
	}
}

// trainAndWait triggers training and polls until the iteration leaves the
// training states or the timeout elapses.
func (t *Trainer) trainAndWait(ctx context.Context, run *Run) (*customvision.Iteration, error) {
	ctx = logger.WithStage(ctx, logger.LogStages.Training)

	iteration, err := t.vision.TrainProject(ctx)
	if err != nil {
		return nil, fmt.Errorf("train project: %w", err)
	}
	run.IterationID = iteration.ID
	run.IterationStatus = iteration.Status
	logger.InfoCtx(ctx, "Training started", "iteration_id", iteration.ID, "status", iteration.Status)

	pollCtx := ctx
	if t.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		pollCtx, cancel = context.WithTimeout(ctx, t.cfg.Timeout)
		defer cancel()
	}
	pollCtx = logger.WithStage(pollCtx, logger.LogStages.Polling)

	ticker := time.NewTicker(t.cfg.PollInterval)
	defer ticker.Stop()

	for !iteration.Finished() {
		select {
		case <-pollCtx.Done():
			return nil, fmt.Errorf("iteration %s still %s: %w", iteration.ID, iteration.Status, pollCtx.Err())
		case <-ticker.C:
		}

		iteration, err = t.vision.GetIteration(pollCtx, run.IterationID)
		if err != nil {
			return nil, fmt.Errorf("get iteration: %w", err)
		}
		run.IterationStatus = iteration.Status
		logger.DebugCtx(pollCtx, "Iteration status", "iteration_id", iteration.ID, "status", iteration.Status)
	}

	if iteration.Status != customvision.StatusCompleted {
		return nil, fmt.Errorf("iteration %s finished with status %s", iteration.ID, iteration.Status)
	}
	return iteration, nil
}

func (t *Trainer) publish(ctx context.Context, iteration *customvision.Iteration, run *Run) error {
	ctx = logger.WithStage(ctx, logger.LogStages.Publishing)
	if t.cfg.PredictionResourceID == "" {
		logger.ErrorCtx(ctx, "Prediction resource is not configured", "iteration_id", iteration.ID)
		return errors.New("PREDICTION_RESOURCE_ID is not set")
	}

	run.PublishName = PublishName(t.now())
	if err := t.vision.PublishIteration(ctx, iteration.ID, run.PublishName, t.cfg.PredictionResourceID); err != nil {
		logger.ErrorCtx(ctx, "Publishing failed", "iteration_id", iteration.ID, "error", err)
		return err
	}
	logger.InfoCtx(ctx, "Iteration published", "iteration_id", iteration.ID, "publish_name", run.PublishName)
	return nil
}

// rollbackIf deletes the run's tag when cond holds. It runs detached from the
// caller's cancellation so an aborted request still cleans up.
func (t *Trainer) rollbackIf(ctx context.Context, run *Run, cond bool) {
	ctx = logger.WithStage(ctx, logger.LogStages.Rollback)
	if !cond || run.TagID == "" {
		logger.InfoCtx(ctx, "Keeping tag", "tag", run.Tag, "tag_id", run.TagID)
		return
	}

	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()

	if err := t.vision.DeleteTag(rctx, run.TagID); err != nil {
		logger.ErrorCtx(ctx, "Failed to delete tag during rollback", "tag_id", run.TagID, "error", err)
		return
	}
	run.TagDeleted = true
	logger.InfoCtx(ctx, "Tag deleted", "tag", run.Tag, "tag_id", run.TagID)
}

// ListTags returns the project's tags.
func (t *Trainer) ListTags(ctx context.Context) ([]customvision.Tag, error) {
	return t.vision.GetTags(ctx)
}
