package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/wheelscan/go-wheel-trainer/internal/customvision"
	"github.com/wheelscan/go-wheel-trainer/internal/database"
	"github.com/wheelscan/go-wheel-trainer/internal/errors"
	"github.com/wheelscan/go-wheel-trainer/internal/logger"
	"github.com/wheelscan/go-wheel-trainer/internal/monitoring"
	"github.com/wheelscan/go-wheel-trainer/internal/training"
	"github.com/wheelscan/go-wheel-trainer/internal/utils"
	"github.com/wheelscan/go-wheel-trainer/internal/validator"
)

// Trainer is the training service the handlers drive.
type Trainer interface {
	Train(ctx context.Context, in training.Input) (*training.Result, error)
	ClearTags(ctx context.Context) (*training.ClearResult, error)
	ListTags(ctx context.Context) ([]customvision.Tag, error)
}

// RunLister reads run history.
type RunLister interface {
	ListRecent(ctx context.Context, limit int) ([]database.TrainingRun, error)
	ListByTag(ctx context.Context, tag string, limit int) ([]database.TrainingRun, error)
	FindByRunID(ctx context.Context, runID string) (*database.TrainingRun, error)
}

// APIHandlers contains the dependencies needed for API handlers
type APIHandlers struct {
	Trainer Trainer
	// Runs is nil when run history is disabled.
	Runs           RunLister
	Metrics        *monitoring.Metrics
	MaxUploadBytes int64
	WorkDir        string
}

// NewAPIHandlers creates a new APIHandlers instance
func NewAPIHandlers(trainer Trainer, runs RunLister, metrics *monitoring.Metrics, maxUploadBytes int64, workDir string) *APIHandlers {
	if metrics == nil {
		metrics = monitoring.GetMetrics()
	}
	return &APIHandlers{
		Trainer:        trainer,
		Runs:           runs,
		Metrics:        metrics,
		MaxUploadBytes: maxUploadBytes,
		WorkDir:        workDir,
	}
}

// MessageResponse is the body of simple replies.
type MessageResponse struct {
	Message string `json:"message" example:"Video processed, images trained successfully, and model published."`
}

// TrainRequest holds the non-file fields of a training upload.
type TrainRequest struct {
	TagValue string `form:"tagValue" validate:"required,max=256"`
}

// TagsResponse lists project tags.
type TagsResponse struct {
	Tags  []customvision.Tag `json:"tags"`
	Count int                `json:"count"`
}

// RunsQuery holds the query parameters of the runs listing.
type RunsQuery struct {
	Limit int    `form:"limit" validate:"gte=0,lte=200"`
	Tag   string `form:"tag" validate:"max=256"`
}

// RunsResponse lists recent training runs.
type RunsResponse struct {
	Runs  []database.TrainingRun `json:"runs"`
	Count int                    `json:"count"`
}

// TrainHandler handles video uploads and runs the training sequence
// @Summary      Train the model on a wheel video
// @Description  Extracts frames from the uploaded video, uploads them to object storage, tags them in Custom Vision, trains the project and publishes the new iteration. Failed runs roll back the tag.
// @Tags         training
// @Accept       multipart/form-data
// @Produce      json
// @Param        video     formData  file    true  "Video of the wheel"
// @Param        tagValue  formData  string  true  "Wheel identifier, upper-cased before use"
// @Success      200  {object}  training.Result        "Iteration trained and published"
// @Failure      400  {object}  errors.ErrorResponse   "Not enough images, invalid input or training not completed"
// @Failure      413  {object}  errors.ErrorResponse   "Video exceeds the upload limit"
// @Failure      500  {object}  errors.ErrorResponse   "Video could not be processed or uploaded"
// @Failure      502  {object}  errors.ErrorResponse   "Training completed but publishing failed"
// @Router       /train [post]
// @Router       /v1/train [post]
func (h *APIHandlers) TrainHandler(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithComponent(r.Context(), logger.ComponentNames.Handler)
	logger.InfoCtx(logger.WithStage(ctx, logger.LogStages.RequestReceived), "Training request received",
		"content_length", r.ContentLength)

	upload, err := h.receiveUpload(w, r)
	if upload != nil {
		defer upload.Cleanup(ctx)
	}
	if err != nil {
		h.writeUploadError(ctx, w, err)
		return
	}

	req := TrainRequest{TagValue: training.NormalizeTag(upload.Fields["tagValue"])}
	if err := validator.ValidateRequest(req); err != nil {
		h.Metrics.RecordTrainingOutcome(training.OutcomeInvalidInput)
		errors.HandleError(w, err, http.StatusBadRequest)
		return
	}

	result, err := h.Trainer.Train(ctx, training.Input{
		VideoPath: upload.VideoPath,
		Tag:       req.TagValue,
		RequestID: logger.RequestIDFromContext(ctx),
	})
	if err != nil {
		var outcomeErr *training.OutcomeError
		if stderrors.As(err, &outcomeErr) {
			h.Metrics.RecordTrainingOutcome(outcomeErr.Outcome)
		}
		writeOutcomeError(w, err)
		return
	}

	h.Metrics.RecordTrainingOutcome(training.OutcomePublished)
	writeJSON(ctx, w, http.StatusOK, result)
}

// ClearHandler deletes every tag in the project
// @Summary      Clear all tags
// @Description  Deletes every tag of the Custom Vision project. All tags are attempted even when some deletions fail.
// @Tags         tags
// @Produce      json
// @Success      200  {object}  training.ClearResult   "Tags cleared or none found"
// @Failure      500  {object}  errors.ErrorResponse   "Tags could not be listed or deleted"
// @Router       /clear [post]
// @Router       /v1/tags/clear [post]
func (h *APIHandlers) ClearHandler(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithComponent(r.Context(), logger.ComponentNames.Handler)

	result, err := h.Trainer.ClearTags(ctx)
	if err != nil {
		writeOutcomeError(w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, result)
}

// TagsHandler lists project tags with their image counts
// @Summary      List tags
// @Description  Returns the Custom Vision tags of the project with their image counts.
// @Tags         tags
// @Produce      json
// @Success      200  {object}  handlers.TagsResponse
// @Failure      502  {object}  errors.ErrorResponse  "Custom Vision request failed"
// @Router       /v1/tags [get]
func (h *APIHandlers) TagsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithComponent(r.Context(), logger.ComponentNames.Handler)

	tags, err := h.Trainer.ListTags(ctx)
	if err != nil {
		logger.ErrorCtx(ctx, "Failed to list tags", "error", err)
		errors.HandleError(w, errors.NewAPIErrorWithDetails(errors.ErrorTypeExternal, training.MsgTagsFailed, err.Error()), http.StatusBadGateway)
		return
	}
	if tags == nil {
		tags = []customvision.Tag{}
	}
	writeJSON(ctx, w, http.StatusOK, TagsResponse{Tags: tags, Count: len(tags)})
}

// RunsHandler lists recent training runs
// @Summary      List training runs
// @Description  Returns the most recent training runs, newest first. Requires run history to be enabled.
// @Tags         training
// @Produce      json
// @Param        limit  query     int     false  "Maximum number of runs (1-200, default 20)"
// @Param        tag    query     string  false  "Only runs for this tag"
// @Success      200  {object}  handlers.RunsResponse
// @Failure      400  {object}  errors.ErrorResponse  "Invalid limit"
// @Failure      503  {object}  errors.ErrorResponse  "Run history is disabled"
// @Router       /v1/runs [get]
func (h *APIHandlers) RunsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithComponent(r.Context(), logger.ComponentNames.Handler)

	if h.Runs == nil {
		errors.HandleError(w, errors.NewUnavailableError("Run history is disabled"), http.StatusServiceUnavailable)
		return
	}

	query := RunsQuery{Tag: training.NormalizeTag(r.URL.Query().Get("tag"))}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			errors.HandleError(w, errors.NewValidationError("limit must be an integer"), http.StatusBadRequest)
			return
		}
		query.Limit = limit
	}
	if err := validator.ValidateRequest(query); err != nil {
		errors.HandleError(w, err, http.StatusBadRequest)
		return
	}

	var runs []database.TrainingRun
	var err error
	if query.Tag != "" {
		runs, err = h.Runs.ListByTag(ctx, query.Tag, query.Limit)
	} else {
		runs, err = h.Runs.ListRecent(ctx, query.Limit)
	}
	if err != nil {
		logger.ErrorCtx(ctx, "Failed to list training runs", "error", err)
		errors.HandleError(w, errors.NewInternalError("Error retrieving training runs"), http.StatusInternalServerError)
		return
	}
	writeJSON(ctx, w, http.StatusOK, RunsResponse{Runs: runs, Count: len(runs)})
}

// RunHandler returns one training run
// @Summary      Get a training run
// @Description  Returns the stored record of a single training run by its run id.
// @Tags         training
// @Produce      json
// @Param        id   path      string  true  "Run id"
// @Success      200  {object}  database.TrainingRun
// @Failure      404  {object}  errors.ErrorResponse  "Unknown run id"
// @Failure      503  {object}  errors.ErrorResponse  "Run history is disabled"
// @Router       /v1/runs/{id} [get]
func (h *APIHandlers) RunHandler(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithComponent(r.Context(), logger.ComponentNames.Handler)

	if h.Runs == nil {
		errors.HandleError(w, errors.NewUnavailableError("Run history is disabled"), http.StatusServiceUnavailable)
		return
	}

	runID := strings.TrimSpace(r.PathValue("id"))
	run, err := h.Runs.FindByRunID(ctx, runID)
	if stderrors.Is(err, database.ErrRunNotFound) {
		errors.HandleError(w, errors.NewNotFoundError("Training run not found"), http.StatusNotFound)
		return
	}
	if err != nil {
		logger.ErrorCtx(ctx, "Failed to load training run", "run_id", runID, "error", err)
		errors.HandleError(w, errors.NewInternalError("Error retrieving training run"), http.StatusInternalServerError)
		return
	}
	writeJSON(ctx, w, http.StatusOK, run)
}

// writeOutcomeError maps a *training.OutcomeError onto the error body. The
// top-level message is the text the capture UI shows.
func writeOutcomeError(w http.ResponseWriter, err error) {
	var outcomeErr *training.OutcomeError
	if !stderrors.As(err, &outcomeErr) {
		errors.HandleError(w, errors.NewInternalError(training.MsgProcessingFailed), http.StatusInternalServerError)
		return
	}

	apiErr := errors.NewAPIErrorWithCode(errorTypeFor(outcomeErr.StatusCode), outcomeErr.Message, outcomeErr.Outcome)
	if outcomeErr.Err != nil {
		apiErr.Details = outcomeErr.Err.Error()
	}
	errors.HandleError(w, apiErr, outcomeErr.StatusCode)
}

func errorTypeFor(status int) errors.ErrorType {
	switch {
	case status == http.StatusBadGateway:
		return errors.ErrorTypeExternal
	case status >= 500:
		return errors.ErrorTypeInternal
	default:
		return errors.ErrorTypeValidation
	}
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set(utils.HeaderContentType, utils.ContentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.ErrorCtx(ctx, "Failed to write response", "error", err)
	}
}
