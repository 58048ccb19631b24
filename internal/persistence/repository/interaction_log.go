package repository

import (
	"context"
	"time"

	"github.com/stagelink/backend/internal/domain"
	"github.com/stagelink/backend/internal/persistence/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type interactionLogRepository struct {
	db *mongo.Database
}

func NewInteractionLogRepository(db *mongo.Database) domain.InteractionLogRepository {
	return &interactionLogRepository{
		db: db,
	}
}

func (r *interactionLogRepository) Log(ctx context.Context, log *domain.InteractionLog) error {
	collection := r.db.Collection(db.InteractionLogsCollection)

	_, err := collection.InsertOne(ctx, log)
	return err
}

func (r *interactionLogRepository) GetByLiveEventID(ctx context.Context, liveEventID string, limit int) ([]domain.InteractionLog, error) {
	collection := r.db.Collection(db.InteractionLogsCollection)

	filter := bson.M{"live_event_id": liveEventID}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var logs []domain.InteractionLog
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, err
	}

	return logs, nil
}

func (r *interactionLogRepository) DeleteOlderThan(ctx context.Context, before time.Time) error {
	collection := r.db.Collection(db.InteractionLogsCollection)

	filter := bson.M{
		"timestamp": bson.M{
			"$lt": before,
		},
	}

	_, err := collection.DeleteMany(ctx, filter)
	return err
}

func (r *interactionLogRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(db.InteractionLogsCollection)

	// Retention is handled by the analytics sweep, so timestamp only needs
	// a plain index for range deletes and sorted reads.
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "live_event_id", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
		{
			Keys: bson.D{{Key: "timestamp", Value: 1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
