package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/wheelscan/go-wheel-trainer/internal/logger"
)

// RunsCollection stores one document per training run.
const RunsCollection = "training-runs"

// Connection holds the MongoDB client and database handle
type Connection struct {
	Client   *mongo.Client
	Database *mongo.Database
	Config   *DatabaseConfig
}

// Connect dials MongoDB, verifies the connection and ensures indexes.
func Connect(ctx context.Context, config *DatabaseConfig) (*Connection, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	ctx = logger.WithComponent(logger.WithStage(ctx, logger.LogStages.DatabaseOperation), logger.ComponentNames.Database)

	clientOptions := options.Client().ApplyURI(config.URI)
	if config.AppName != "" {
		clientOptions.SetAppName(config.AppName)
	}

	masked := config.MaskSensitiveData()
	logger.InfoCtx(ctx, "Connecting to MongoDB", "database", masked.DatabaseName, "uri", masked.URI)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	conn := &Connection{
		Client:   client,
		Database: client.Database(config.DatabaseName),
		Config:   config,
	}

	// Index creation failure degrades queries but does not block startup.
	if err := conn.createIndexes(ctx); err != nil {
		logger.WarnCtx(ctx, "Failed to create database indexes", "error", err)
	}

	logger.InfoCtx(ctx, "Connected to MongoDB", "database", config.DatabaseName)
	return conn, nil
}

// Disconnect closes the MongoDB connection
func (c *Connection) Disconnect(ctx context.Context) error {
	if c == nil || c.Client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return c.Client.Disconnect(ctx)
}

// Collection returns a collection of the service database
func (c *Connection) Collection(name string) *mongo.Collection {
	return c.Database.Collection(name)
}

// HealthCheck pings the primary.
func (c *Connection) HealthCheck(ctx context.Context) error {
	if c == nil || c.Client == nil {
		return fmt.Errorf("MongoDB client is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.Client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("MongoDB ping failed: %w", err)
	}
	return nil
}

func (c *Connection) createIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("created_at_desc"),
		},
		{
			Keys:    bson.D{{Key: "tag", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("tag_created_at_desc"),
		},
		{
			Keys:    bson.D{{Key: "run_id", Value: 1}},
			Options: options.Index().SetName("run_id_unique").SetUnique(true),
		},
	}

	if _, err := c.Collection(RunsCollection).Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create %s indexes: %w", RunsCollection, err)
	}
	return nil
}
