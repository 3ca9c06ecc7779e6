package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jghidalgo/AWS-SQS-Queue-Types-Visualizer/internal/storage"
)

// AuditRepository implements storage.AuditRepository using MongoDB
type AuditRepository struct {
	client     *mongo.Client
	database   string
	collection string
}

// NewAuditRepository creates a new MongoDB-backed audit repository
func NewAuditRepository(mongoURI, database, collection string) (*AuditRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(mongoURI).
		SetServerSelectionTimeout(5 * time.Second)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	repo := &AuditRepository{
		client:     client,
		database:   database,
		collection: collection,
	}

	if err := repo.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return repo, nil
}

func (r *AuditRepository) coll() *mongo.Collection {
	return r.client.Database(r.database).Collection(r.collection)
}

func (r *AuditRepository) ensureIndexes(ctx context.Context) error {
	_, err := r.coll().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "recorded_at", Value: -1}}},
		{Keys: bson.D{{Key: "engine_id", Value: 1}, {Key: "outcome", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create audit indexes: %w", err)
	}
	return nil
}

// Store upserts a record by its ID
func (r *AuditRepository) Store(ctx context.Context, record storage.AuditRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	opts := options.Replace().SetUpsert(true)
	_, err := r.coll().ReplaceOne(ctx, bson.M{"_id": record.ID}, record, opts)
	if err != nil {
		return fmt.Errorf("failed to store audit record: %w", err)
	}

	return nil
}

// List returns matching records sorted by recorded_at descending
func (r *AuditRepository) List(ctx context.Context, filter storage.AuditFilter) ([]storage.AuditRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "recorded_at", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := r.coll().Find(ctx, buildFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit records: %w", err)
	}
	defer cursor.Close(ctx)

	results := []storage.AuditRecord{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode audit records: %w", err)
	}

	return results, nil
}

// Count returns the total number of audit records
func (r *AuditRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.coll().CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count audit records: %w", err)
	}
	return count, nil
}

// Close closes the MongoDB connection
func (r *AuditRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func buildFilter(f storage.AuditFilter) bson.M {
	filter := bson.M{}
	if f.EngineID != "" {
		filter["engine_id"] = f.EngineID
	}
	if f.Outcome != "" {
		filter["outcome"] = f.Outcome
	}
	if f.QueueKind != "" {
		filter["queue_kind"] = f.QueueKind
	}

	if f.StartTime != nil || f.EndTime != nil {
		timeFilter := bson.M{}
		if f.StartTime != nil {
			timeFilter["$gte"] = *f.StartTime
		}
		if f.EndTime != nil {
			timeFilter["$lte"] = *f.EndTime
		}
		filter["recorded_at"] = timeFilter
	}

	return filter
}
