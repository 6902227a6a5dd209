package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wheelscan/go-wheel-trainer/internal/customvision"
	"github.com/wheelscan/go-wheel-trainer/internal/database"
	"github.com/wheelscan/go-wheel-trainer/internal/training"
)

type fakeService struct {
	input    training.Input
	trainErr error
	tags     []customvision.Tag
	runs     []database.TrainingRun
	limit    int
	runsTag  string
	closed   bool
}

func (f *fakeService) Train(ctx context.Context, in training.Input) (*training.Result, error) {
	f.input = in
	if f.trainErr != nil {
		return nil, f.trainErr
	}
	return &training.Result{Message: training.MsgPublished, Tag: in.Tag}, nil
}

func (f *fakeService) ClearTags(ctx context.Context) (*training.ClearResult, error) {
	return &training.ClearResult{Message: training.MsgTagsCleared, Deleted: len(f.tags)}, nil
}

func (f *fakeService) ListTags(ctx context.Context) ([]customvision.Tag, error) {
	return f.tags, nil
}

func (f *fakeService) ListRuns(ctx context.Context, tag string, limit int) ([]database.TrainingRun, error) {
	f.limit = limit
	f.runsTag = tag
	return f.runs, nil
}

func (f *fakeService) Close(ctx context.Context) error {
	f.closed = true
	return nil
}

func execute(t *testing.T, svc *fakeService, args ...string) (string, error) {
	t.Helper()
	orig := newService
	newService = func(ctx context.Context) (service, error) { return svc, nil }
	t.Cleanup(func() {
		newService = orig
		trainVideo, trainTag, runsTag, runsLimit = "", "", "", 20
	})

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestTrainCommand(t *testing.T) {
	video := filepath.Join(t.TempDir(), "wheel.webm")
	require.NoError(t, os.WriteFile(video, []byte("v"), 0o600))

	svc := &fakeService{}
	out, err := execute(t, svc, "train", "--video", video, "--tag", " wheel-a ")

	require.NoError(t, err)
	assert.Equal(t, "WHEEL-A", svc.input.Tag)
	assert.Equal(t, video, svc.input.VideoPath)
	assert.Contains(t, out, training.MsgPublished)
	assert.True(t, svc.closed)
}

func TestTrainCommand_OutcomeError(t *testing.T) {
	video := filepath.Join(t.TempDir(), "wheel.webm")
	require.NoError(t, os.WriteFile(video, []byte("v"), 0o600))

	svc := &fakeService{trainErr: &training.OutcomeError{
		Outcome: training.OutcomeTrainingFailed, StatusCode: 400, Message: training.MsgTrainingDeleted,
	}}
	_, err := execute(t, svc, "train", "--video", video, "--tag", "WHEEL-A")

	require.Error(t, err)
	assert.Contains(t, err.Error(), training.MsgTrainingDeleted)
	assert.Contains(t, err.Error(), training.OutcomeTrainingFailed)
}

func TestTrainCommand_MissingVideo(t *testing.T) {
	_, err := execute(t, &fakeService{}, "train", "--video", filepath.Join(t.TempDir(), "missing.webm"), "--tag", "A")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "video not readable")
}

func TestTagsCommand(t *testing.T) {
	svc := &fakeService{tags: []customvision.Tag{{ID: "t1", Name: "WHEEL-A", ImageCount: 12}}}
	out, err := execute(t, svc, "tags")

	require.NoError(t, err)
	assert.Contains(t, out, "WHEEL-A")
	assert.Contains(t, out, "12")

	out, err = execute(t, &fakeService{}, "tags")
	require.NoError(t, err)
	assert.Contains(t, out, training.MsgNoTags)
}

func TestClearTagsCommand(t *testing.T) {
	out, err := execute(t, &fakeService{}, "clear-tags")
	require.NoError(t, err)
	assert.Contains(t, out, training.MsgTagsCleared)
}

func TestRunsCommand(t *testing.T) {
	svc := &fakeService{runs: []database.TrainingRun{{RunID: "r1", Outcome: training.OutcomePublished}}}
	out, err := execute(t, svc, "runs", "--limit", "5", "--tag", "wheel-a")

	require.NoError(t, err)
	assert.Equal(t, 5, svc.limit)
	assert.Equal(t, "WHEEL-A", svc.runsTag)
	assert.Contains(t, out, `"run_id": "r1"`)

	_, err = execute(t, &fakeService{}, "runs", "--limit", "0")
	require.Error(t, err)
}
