package training

import (
	"context"
	"net/http"
	"strings"

	"github.com/wheelscan/go-wheel-trainer/internal/logger"
)

// ClearResult reports a successful tag purge.
type ClearResult struct {
	Message string `json:"message"`
	Deleted int    `json:"deleted,omitempty"`
}

// ClearTags deletes every tag in the project. Every tag is attempted even
// after a failure; the failed ids are listed in the returned *OutcomeError.
func (t *Trainer) ClearTags(ctx context.Context) (*ClearResult, error) {
	ctx = logger.WithComponent(logger.WithStage(ctx, logger.LogStages.TagClearing), logger.ComponentNames.Trainer)

	tags, err := t.vision.GetTags(ctx)
	if err != nil {
		logger.ErrorCtx(ctx, "Failed to list tags", "error", err)
		return nil, newOutcomeError(OutcomeVisionError, http.StatusInternalServerError, MsgTagsFailed, err)
	}
	if len(tags) == 0 {
		return &ClearResult{Message: MsgNoTags}, nil
	}

	var (
		failed  []string
		lastErr error
		deleted int
	)
	for _, tag := range tags {
		if err := t.vision.DeleteTag(ctx, tag.ID); err != nil {
			logger.ErrorCtx(ctx, "Failed to delete tag", "tag", tag.Name, "tag_id", tag.ID, "error", err)
			failed = append(failed, tag.ID)
			lastErr = err
			continue
		}
		deleted++
		logger.DebugCtx(ctx, "Tag deleted", "tag", tag.Name, "tag_id", tag.ID)
	}

	if len(failed) > 0 {
		return nil, newOutcomeError(OutcomeVisionError, http.StatusInternalServerError,
			"Error deleting tag "+strings.Join(failed, ", "), lastErr)
	}

	logger.InfoCtx(ctx, "All tags cleared", "deleted", deleted)
	return &ClearResult{Message: MsgTagsCleared, Deleted: deleted}, nil
}
