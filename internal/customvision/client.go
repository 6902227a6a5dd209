// Package customvision is a client for the Custom Vision Training REST API (v3.3).
package customvision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wheelscan/go-wheel-trainer/internal/httpclient"
	"github.com/wheelscan/go-wheel-trainer/internal/logger"
	"github.com/wheelscan/go-wheel-trainer/internal/reliability"
	"github.com/wheelscan/go-wheel-trainer/internal/utils"
)

const (
	apiPath = "/customvision/v3.3/training"

	// MaxImagesPerBatch is the service limit for one create-images call.
	MaxImagesPerBatch = 64
	// MaxTake is the largest page size of the tagged images listing.
	MaxTake = 256

	breakerName = "custom-vision"
)

// Options configures a Client.
type Options struct {
	Endpoint    string
	TrainingKey string
	ProjectID   string
	Timeout     time.Duration
	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
	Retry      *reliability.RetryConfig
	// BreakerName selects the shared circuit breaker; defaults to "custom-vision".
	BreakerName string
}

// Client talks to one Custom Vision project.
type Client struct {
	baseURL     string
	projectID   string
	trainingKey string
	http        *http.Client
	retry       *reliability.RetryExecutor
	// resend retries calls that create state only when the request was never handled.
	resend      *reliability.RetryExecutor
	breaker     *reliability.CircuitBreaker
}

// New validates opts and returns a client.
func New(opts Options) (*Client, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(opts.Endpoint), "/")
	if _, err := url.ParseRequestURI(endpoint); err != nil || endpoint == "" {
		return nil, fmt.Errorf("invalid custom vision endpoint %q", opts.Endpoint)
	}
	if opts.TrainingKey == "" || opts.ProjectID == "" {
		return nil, errors.New("custom vision training key and project id are required")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = httpclient.NewFactory(httpclient.Options{}).CreateClient(httpclient.Options{Timeout: opts.Timeout})
	}
	retryConfig := reliability.VendorRetryConfig()
	if opts.Retry != nil {
		retryConfig = *opts.Retry
	}
	resendConfig := retryConfig
	resendConfig.IsRetryable = notHandled

	name := opts.BreakerName
	if name == "" {
		name = breakerName
	}
	breakerConfig := reliability.DefaultCircuitBreakerConfig(name)
	breakerConfig.IsFailure = reliability.IsRetryableError

	return &Client{
		baseURL:     endpoint + apiPath + "/projects/" + url.PathEscape(opts.ProjectID),
		projectID:   opts.ProjectID,
		trainingKey: opts.TrainingKey,
		http:        httpClient,
		retry:       reliability.NewRetryExecutor(retryConfig),
		resend:      reliability.NewRetryExecutor(resendConfig),
		breaker:     reliability.GetCircuitBreakerWithConfig(name, breakerConfig),
	}, nil
}

// ProjectID returns the project the client operates on.
func (c *Client) ProjectID() string { return c.projectID }

// GetTags lists every tag in the project.
func (c *Client) GetTags(ctx context.Context) ([]Tag, error) {
	var tags []Tag
	if err := c.do(ctx, http.MethodGet, "/tags", nil, nil, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// CreateTag creates a tag with the given name.
func (c *Client) CreateTag(ctx context.Context, name string) (*Tag, error) {
	var tag Tag
	query := url.Values{"name": {name}}
	if err := c.doOnce(ctx, http.MethodPost, "/tags", query, nil, &tag); err != nil {
		return nil, err
	}
	return &tag, nil
}

// DeleteTag deletes a tag and its associations.
func (c *Client) DeleteTag(ctx context.Context, tagID string) error {
	return c.do(ctx, http.MethodDelete, "/tags/"+url.PathEscape(tagID), nil, nil, nil)
}

// CreateImagesFromURLs submits up to MaxImagesPerBatch image URLs.
func (c *Client) CreateImagesFromURLs(ctx context.Context, batch ImageURLBatch) (*ImageCreateSummary, error) {
	if len(batch.Images) > MaxImagesPerBatch {
		return nil, fmt.Errorf("batch of %d images exceeds the limit of %d", len(batch.Images), MaxImagesPerBatch)
	}
	var summary ImageCreateSummary
	if err := c.do(ctx, http.MethodPost, "/images/urls", nil, batch, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// GetTaggedImages returns up to take images carrying tagID.
func (c *Client) GetTaggedImages(ctx context.Context, tagID string, take int) ([]Image, error) {
	if take <= 0 || take > MaxTake {
		take = MaxTake
	}
	query := url.Values{
		"tagIds": {tagID},
		"take":   {strconv.Itoa(take)},
		"skip":   {"0"},
	}
	var images []Image
	if err := c.do(ctx, http.MethodGet, "/images/tagged", query, nil, &images); err != nil {
		return nil, err
	}
	return images, nil
}

// GetTaggedImageCount counts images carrying tagID.
func (c *Client) GetTaggedImageCount(ctx context.Context, tagID string) (int, error) {
	var count int
	query := url.Values{"tagIds": {tagID}}
	if err := c.do(ctx, http.MethodGet, "/images/tagged/count", query, nil, &count); err != nil {
		return 0, err
	}
	return count, nil
}

// TrainProject queues a new training iteration.
func (c *Client) TrainProject(ctx context.Context) (*Iteration, error) {
	var it Iteration
	if err := c.doOnce(ctx, http.MethodPost, "/train", nil, nil, &it); err != nil {
		return nil, err
	}
	return &it, nil
}

// GetIteration fetches the current state of an iteration.
func (c *Client) GetIteration(ctx context.Context, iterationID string) (*Iteration, error) {
	var it Iteration
	if err := c.do(ctx, http.MethodGet, "/iterations/"+url.PathEscape(iterationID), nil, nil, &it); err != nil {
		return nil, err
	}
	return &it, nil
}

// PublishIteration exposes an iteration on the prediction resource.
func (c *Client) PublishIteration(ctx context.Context, iterationID, publishName, predictionResourceID string) error {
	query := url.Values{
		"publishName":  {publishName},
		"predictionId": {predictionResourceID},
	}
	var published bool
	if err := c.doOnce(ctx, http.MethodPost, "/iterations/"+url.PathEscape(iterationID)+"/publish", query, nil, &published); err != nil {
		return err
	}
	if !published {
		return &Error{StatusCode: http.StatusOK, Message: "publish was not accepted"}
	}
	return nil
}

// do sends one logical call through the breaker and retry policy and decodes
// a JSON response into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	return c.call(ctx, c.retry, method, path, query, body, out)
}

// doOnce is do for calls that create a tag, an iteration or a publication. A
// 5xx may come after the service acted, so only throttled or refused requests
// are sent again.
func (c *Client) doOnce(ctx context.Context, method, path string, query url.Values, body, out any) error {
	return c.call(ctx, c.resend, method, path, query, body, out)
}

func (c *Client) call(ctx context.Context, retry *reliability.RetryExecutor, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to encode %s %s body: %w", method, path, err)
		}
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	ctx = logger.WithComponent(ctx, logger.ComponentNames.CustomVision)

	return c.breaker.Execute(ctx, func(ctx context.Context) error {
		return retry.ExecuteWithRetry(ctx, func(ctx context.Context) error {
			return c.send(ctx, method, path, target, payload, out)
		})
	})
}

func (c *Client) send(ctx context.Context, method, path, target string, payload []byte, out any) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return reliability.Permanent(fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set(utils.HeaderTrainingKey, c.trainingKey)
	req.Header.Set("Accept", utils.ContentTypeJSON)
	if payload != nil {
		req.Header.Set(utils.HeaderContentType, utils.ContentTypeJSON)
	}

	start := time.Now()
	logger.DebugCtx(logger.WithStage(ctx, logger.LogStages.VendorRequest), "Sending Custom Vision request",
		"method", method,
		"path", path)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	logger.DebugCtx(logger.WithStage(ctx, logger.LogStages.VendorResponse), "Custom Vision response",
		"method", method,
		"path", path,
		"status_code", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return reliability.Permanent(fmt.Errorf("failed to decode %s %s response: %w", method, path, err))
	}
	return nil
}
