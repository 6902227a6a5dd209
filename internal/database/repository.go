package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wheelscan/go-wheel-trainer/internal/logger"
	"github.com/wheelscan/go-wheel-trainer/internal/training"
)

const (
	insertTimeout   = 5 * time.Second
	defaultPageSize = 20
	maxPageSize     = 200
)

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("training run not found")

// RunRepository stores and queries training runs.
type RunRepository struct {
	collection  *mongo.Collection
	environment string
	now         func() time.Time
}

// NewRunRepository creates a repository on the runs collection of conn.
func NewRunRepository(conn *Connection) *RunRepository {
	return NewRunRepositoryWithCollection(conn.Collection(RunsCollection), conn.Config.Environment)
}

// NewRunRepositoryWithCollection creates a repository on an explicit collection.
func NewRunRepositoryWithCollection(collection *mongo.Collection, environment string) *RunRepository {
	return &RunRepository{collection: collection, environment: environment, now: time.Now}
}

// Record inserts run. It satisfies training.RunRecorder.
func (r *RunRepository) Record(ctx context.Context, run *training.Run) error {
	ctx, cancel := context.WithTimeout(ctx, insertTimeout)
	defer cancel()

	doc := NewTrainingRun(run, r.environment, r.now())
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert training run: %w", err)
	}

	logger.DebugCtx(logger.WithStage(ctx, logger.LogStages.DatabaseOperation), "Training run recorded",
		"run_id", run.RunID,
		"outcome", run.Outcome)
	return nil
}

// ListRecent returns the newest runs first.
func (r *RunRepository) ListRecent(ctx context.Context, limit int) ([]TrainingRun, error) {
	return r.find(ctx, bson.M{}, limit)
}

// ListByTag returns the newest runs for one tag first.
func (r *RunRepository) ListByTag(ctx context.Context, tag string, limit int) ([]TrainingRun, error) {
	return r.find(ctx, bson.M{"tag": tag}, limit)
}

// FindByRunID returns a single run.
func (r *RunRepository) FindByRunID(ctx context.Context, runID string) (*TrainingRun, error) {
	var run TrainingRun
	err := r.collection.FindOne(ctx, bson.M{"run_id": runID}).Decode(&run)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get training run: %w", err)
	}
	return &run, nil
}

func (r *RunRepository) find(ctx context.Context, filter bson.M, limit int) ([]TrainingRun, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(ClampLimit(limit)))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query training runs: %w", err)
	}
	defer cursor.Close(ctx)

	runs := []TrainingRun{}
	if err := cursor.All(ctx, &runs); err != nil {
		return nil, fmt.Errorf("failed to decode training runs: %w", err)
	}
	return runs, nil
}

// ClampLimit bounds a page size to 1..200, defaulting to 20.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultPageSize
	case limit > maxPageSize:
		return maxPageSize
	default:
		return limit
	}
}
