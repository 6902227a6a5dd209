package training

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wheelscan/go-wheel-trainer/internal/customvision"
)

type harness struct {
	trainer   *Trainer
	extractor *fakeExtractor
	store     *fakeStore
	vision    *fakeVision
	recorder  *memoryRecorder
	workDir   string
}

func newHarness(t *testing.T, frames int, vision *fakeVision) *harness {
	t.Helper()
	h := &harness{
		extractor: &fakeExtractor{frames: frames},
		store:     &fakeStore{},
		vision:    vision,
		recorder:  &memoryRecorder{},
		workDir:   t.TempDir(),
	}
	h.trainer = NewTrainer(Config{
		MinImages:            5,
		PollInterval:         time.Millisecond,
		Timeout:              time.Second,
		UploadConcurrency:    4,
		ImageBatchSize:       64,
		TaggedImageTake:      256,
		KeyPrefix:            "frames",
		WorkDir:              h.workDir,
		PredictionResourceID: "/subscriptions/s/prediction",
	}, h.extractor, h.store, h.vision, h.recorder)
	h.trainer.newRunID = func() string { return "run-1" }
	h.trainer.now = func() time.Time { return time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC) }
	return h
}

func (h *harness) train(t *testing.T, tag string) (*Result, *OutcomeError) {
	t.Helper()
	result, err := h.trainer.Train(context.Background(), Input{VideoPath: "video.webm", Tag: tag, RequestID: "req-1"})
	if err == nil {
		return result, nil
	}
	var outcomeErr *OutcomeError
	require.True(t, errors.As(err, &outcomeErr), "unexpected error type %T", err)
	return nil, outcomeErr
}

func (h *harness) lastRun(t *testing.T) *Run {
	t.Helper()
	require.NotEmpty(t, h.recorder.runs)
	return h.recorder.runs[len(h.recorder.runs)-1]
}

func TestTrainPublishesWithNewTag(t *testing.T) {
	h := newHarness(t, 70, newFakeVision(customvision.Tag{ID: "other", Name: "WHEEL-B"}))
	h.vision.statuses = []string{customvision.StatusInProgress, customvision.StatusTraining, customvision.StatusCompleted}

	result, outcomeErr := h.train(t, "  wheel-a ")
	require.Nil(t, outcomeErr)

	assert.Equal(t, MsgPublished, result.Message)
	assert.Equal(t, "WHEEL-A", result.Tag)
	assert.Equal(t, "new-WHEEL-A", result.TagID)
	assert.True(t, result.TagCreated)
	assert.Equal(t, 70, result.FramesExtracted)
	assert.Equal(t, 70, result.ImagesAccepted)
	assert.Equal(t, "Iteration2025-03-04T05-06-07Z", result.PublishName)

	require.Len(t, h.vision.batches, 2)
	assert.Len(t, h.vision.batches[0], 64)
	assert.Len(t, h.vision.batches[1], 6)
	assert.Equal(t, []string{"new-WHEEL-A"}, h.vision.batches[0][0].TagIDs)
	assert.True(t, strings.HasPrefix(h.vision.batches[0][0].URL, "https://bucket.s3.test/frames/WHEEL-A/run-1/"))
	assert.Equal(t, 3, h.vision.polls)
	assert.Equal(t, []string{"it-1|Iteration2025-03-04T05-06-07Z|/subscriptions/s/prediction"}, h.vision.published)
	assert.Empty(t, h.vision.deletedTags)

	run := h.lastRun(t)
	assert.Equal(t, OutcomePublished, run.Outcome)
	assert.Equal(t, http.StatusOK, run.StatusCode)
	assert.Equal(t, "req-1", run.RequestID)

	entries, err := os.ReadDir(h.workDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "work directory must be cleaned up")
}

func TestTrainReusesExistingTag(t *testing.T) {
	h := newHarness(t, 5, newFakeVision(customvision.Tag{ID: "t-a", Name: "WHEEL-A"}))

	result, outcomeErr := h.train(t, "wheel-a")
	require.Nil(t, outcomeErr)
	assert.Equal(t, "t-a", result.TagID)
	assert.False(t, result.TagCreated)
}

func TestTrainRejectsEmptyTag(t *testing.T) {
	h := newHarness(t, 10, newFakeVision())

	_, outcomeErr := h.train(t, "   ")
	require.NotNil(t, outcomeErr)
	assert.Equal(t, http.StatusBadRequest, outcomeErr.StatusCode)
	assert.Equal(t, OutcomeInvalidInput, outcomeErr.Outcome)
}

func TestTrainExtractionFailure(t *testing.T) {
	h := newHarness(t, 0, newFakeVision())
	h.extractor.err = errors.New("ffmpeg failed")

	_, outcomeErr := h.train(t, "WHEEL-A")
	require.NotNil(t, outcomeErr)
	assert.Equal(t, http.StatusInternalServerError, outcomeErr.StatusCode)
	assert.Equal(t, MsgProcessingFailed, outcomeErr.Message)
	assert.Equal(t, OutcomeExtractionFailed, h.lastRun(t).Outcome)
}

func TestTrainUploadFailure(t *testing.T) {
	h := newHarness(t, 10, newFakeVision())
	h.store.err = errors.New("access denied")

	_, outcomeErr := h.train(t, "WHEEL-A")
	require.NotNil(t, outcomeErr)
	assert.Equal(t, http.StatusInternalServerError, outcomeErr.StatusCode)
	assert.Equal(t, MsgUploadFailed, outcomeErr.Message)
}

func TestTrainTagListingFailure(t *testing.T) {
	vision := newFakeVision()
	vision.getTagErr = errVendor
	h := newHarness(t, 10, vision)

	_, outcomeErr := h.train(t, "WHEEL-A")
	require.NotNil(t, outcomeErr)
	assert.Equal(t, MsgTagsFailed, outcomeErr.Message)
	assert.ErrorIs(t, outcomeErr, errVendor)
}

func TestTrainNotEnoughFrames(t *testing.T) {
	tests := []struct {
		name        string
		existing    []customvision.Tag
		wantDeleted []string
	}{
		{
			name:        "created tag is rolled back",
			existing:    []customvision.Tag{{ID: "other", Name: "WHEEL-B"}},
			wantDeleted: []string{"new-WHEEL-A"},
		},
		{
			name:     "existing tag is kept",
			existing: []customvision.Tag{{ID: "t-a", Name: "WHEEL-A"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, 4, newFakeVision(tt.existing...))

			_, outcomeErr := h.train(t, "WHEEL-A")
			require.NotNil(t, outcomeErr)
			assert.Equal(t, http.StatusBadRequest, outcomeErr.StatusCode)
			assert.Equal(t, "Not enough images for training. You uploaded 4, but at least 5 images are required.", outcomeErr.Message)
			assert.Equal(t, tt.wantDeleted, h.vision.deletedTags)
			assert.Empty(t, h.vision.batches)
		})
	}
}

func TestTrainNotEnoughAcceptedImages(t *testing.T) {
	vision := newFakeVision()
	vision.acceptedLimit = 3
	h := newHarness(t, 12, vision)

	_, outcomeErr := h.train(t, "WHEEL-A")
	require.NotNil(t, outcomeErr)
	assert.Equal(t, http.StatusBadRequest, outcomeErr.StatusCode)
	assert.Equal(t, "Not enough valid images uploaded. You uploaded 12, but only 3 images were accepted.", outcomeErr.Message)
	assert.Equal(t, []string{"new-WHEEL-A"}, h.vision.deletedTags)

	run := h.lastRun(t)
	assert.Equal(t, OutcomeInsufficientImages, run.Outcome)
	assert.True(t, run.TagDeleted)
	assert.Equal(t, 3, run.ImagesAccepted)
}

func TestTrainBatchErrorsAreNotFatal(t *testing.T) {
	vision := newFakeVision(customvision.Tag{ID: "t-a", Name: "WHEEL-A", ImageCount: 40})
	vision.batchErr = errVendor
	h := newHarness(t, 8, vision)

	// The fake counts submitted URLs even when the batch call fails.
	result, outcomeErr := h.train(t, "WHEEL-A")
	require.Nil(t, outcomeErr)
	assert.Equal(t, MsgPublished, result.Message)
}

func TestTrainFailureRollback(t *testing.T) {
	tests := []struct {
		name        string
		existing    []customvision.Tag
		setup       func(*fakeVision)
		wantMessage string
		wantDeleted []string
	}{
		{
			name:        "failed status with other tags deletes",
			existing:    []customvision.Tag{{ID: "other", Name: "WHEEL-B"}},
			setup:       func(v *fakeVision) { v.statuses = []string{customvision.StatusTraining, customvision.StatusFailed} },
			wantMessage: MsgTrainingDeleted,
			wantDeleted: []string{"new-WHEEL-A"},
		},
		{
			name:        "train error on lone tag keeps it",
			setup:       func(v *fakeVision) { v.trainErr = errors.New("BadRequestTrainingValidationFailed") },
			wantMessage: MsgTrainingKept,
		},
		{
			name:        "polling error deletes existing tag when others exist",
			existing:    []customvision.Tag{{ID: "t-a", Name: "WHEEL-A"}, {ID: "other", Name: "WHEEL-B"}},
			setup:       func(v *fakeVision) { v.iterationErr = errVendor },
			wantMessage: MsgTrainingDeleted,
			wantDeleted: []string{"t-a"},
		},
		{
			name:        "rollback delete failure reports kept",
			existing:    []customvision.Tag{{ID: "other", Name: "WHEEL-B"}},
			setup: func(v *fakeVision) {
				v.trainErr = errVendor
				v.deleteErr["new-WHEEL-A"] = errVendor
			},
			wantMessage: MsgTrainingKept,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vision := newFakeVision(tt.existing...)
			tt.setup(vision)
			h := newHarness(t, 10, vision)

			_, outcomeErr := h.train(t, "WHEEL-A")
			require.NotNil(t, outcomeErr)
			assert.Equal(t, http.StatusBadRequest, outcomeErr.StatusCode)
			assert.Equal(t, OutcomeTrainingFailed, outcomeErr.Outcome)
			assert.Equal(t, tt.wantMessage, outcomeErr.Message)
			assert.Equal(t, tt.wantDeleted, h.vision.deletedTags)
			assert.Empty(t, h.vision.published)
		})
	}
}

func TestTrainTimeout(t *testing.T) {
	vision := newFakeVision(customvision.Tag{ID: "other", Name: "WHEEL-B"})
	vision.statuses = []string{customvision.StatusQueued}
	h := newHarness(t, 10, vision)
	h.trainer.cfg.Timeout = 20 * time.Millisecond

	_, outcomeErr := h.train(t, "WHEEL-A")
	require.NotNil(t, outcomeErr)
	assert.Equal(t, MsgTrainingDeleted, outcomeErr.Message)
	assert.ErrorIs(t, outcomeErr, context.DeadlineExceeded)
	assert.Equal(t, customvision.StatusQueued, h.lastRun(t).IterationStatus)
}

func TestTrainRollbackSurvivesCancellation(t *testing.T) {
	vision := newFakeVision(customvision.Tag{ID: "other", Name: "WHEEL-B"})
	vision.statuses = []string{customvision.StatusTraining}
	h := newHarness(t, 10, vision)
	h.trainer.cfg.Timeout = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := h.trainer.Train(ctx, Input{VideoPath: "video.webm", Tag: "WHEEL-A"})
	require.Error(t, err)
	assert.Equal(t, []string{"new-WHEEL-A"}, h.vision.deletedTags)
}

func TestTrainPublishFailure(t *testing.T) {
	vision := newFakeVision(customvision.Tag{ID: "other", Name: "WHEEL-B"})
	vision.publishErr = errVendor
	h := newHarness(t, 10, vision)

	_, outcomeErr := h.train(t, "WHEEL-A")
	require.NotNil(t, outcomeErr)
	assert.Equal(t, http.StatusBadGateway, outcomeErr.StatusCode)
	assert.Equal(t, MsgPublishFailed, outcomeErr.Message)
	assert.Empty(t, h.vision.deletedTags)
}

func TestTrainPublishRequiresPredictionResource(t *testing.T) {
	h := newHarness(t, 10, newFakeVision())
	h.trainer.cfg.PredictionResourceID = ""

	_, outcomeErr := h.train(t, "WHEEL-A")
	require.NotNil(t, outcomeErr)
	assert.Equal(t, OutcomePublishFailed, outcomeErr.Outcome)
	assert.Empty(t, h.vision.published)
}

func TestRecorderFailureDoesNotFailRun(t *testing.T) {
	h := newHarness(t, 10, newFakeVision())
	h.recorder.err = errors.New("mongo down")

	result, outcomeErr := h.train(t, "WHEEL-A")
	require.Nil(t, outcomeErr)
	assert.Equal(t, MsgPublished, result.Message)
}

func TestPublishName(t *testing.T) {
	ts := time.Date(2024, 12, 31, 23, 59, 1, 0, time.FixedZone("X", 3600))
	assert.Equal(t, "Iteration2024-12-31T22-59-01Z", PublishName(ts))
}

func TestNormalizeTag(t *testing.T) {
	assert.Equal(t, "RIM-17", NormalizeTag("  rim-17\n"))
}
