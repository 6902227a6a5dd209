package training

import (
	"fmt"
	"net/http"
)

// Outcomes recorded for a run.
const (
	OutcomePublished          = "published"
	OutcomeInvalidInput       = "invalid_input"
	OutcomeExtractionFailed   = "extraction_failed"
	OutcomeUploadFailed       = "upload_failed"
	OutcomeVisionError        = "vision_error"
	OutcomeInsufficientFrames = "insufficient_frames"
	OutcomeInsufficientImages = "insufficient_images"
	OutcomeTrainingFailed     = "training_failed"
	OutcomePublishFailed      = "publish_failed"
)

// Response messages returned to callers.
const (
	MsgPublished        = "Video processed, images trained successfully, and model published."
	MsgProcessingFailed = "Error processing video"
	MsgUploadFailed     = "Error uploading video"
	MsgTagsFailed       = "Error retrieving tags"
	MsgTagCreateFailed  = "Error creating tag"
	MsgTaggedFailed     = "Error retrieving tagged images"
	MsgTrainingDeleted  = "Training Not Completed. Tag Deleted"
	MsgTrainingKept     = "Training Not Completed. Tag Kept"
	MsgPublishFailed    = "Training completed but publishing failed"
	MsgNoTags           = "No tags found in the project."
	MsgTagsCleared      = "All tags have been cleared from the project."
)

// OutcomeError is a failed run together with the HTTP status it maps to.
type OutcomeError struct {
	Outcome    string
	StatusCode int
	Message    string
	Err        error
}

func (e *OutcomeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *OutcomeError) Unwrap() error { return e.Err }

func newOutcomeError(outcome string, status int, message string, err error) *OutcomeError {
	return &OutcomeError{Outcome: outcome, StatusCode: status, Message: message, Err: err}
}

func insufficientFrames(uploaded, min int) *OutcomeError {
	return newOutcomeError(OutcomeInsufficientFrames, http.StatusBadRequest,
		fmt.Sprintf("Not enough images for training. You uploaded %d, but at least %d images are required.", uploaded, min), nil)
}

func insufficientImages(uploaded, accepted int) *OutcomeError {
	return newOutcomeError(OutcomeInsufficientImages, http.StatusBadRequest,
		fmt.Sprintf("Not enough valid images uploaded. You uploaded %d, but only %d images were accepted.", uploaded, accepted), nil)
}
