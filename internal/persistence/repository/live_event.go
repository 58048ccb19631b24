package repository

import (
	"context"
	"errors"

	"github.com/stagelink/backend/internal/domain"
	"github.com/stagelink/backend/internal/persistence/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type liveEventRepository struct {
	db *mongo.Database
}

func NewLiveEventRepository(db *mongo.Database) domain.LiveEventRepository {
	return &liveEventRepository{
		db: db,
	}
}

func (r *liveEventRepository) Create(ctx context.Context, event *domain.LiveEvent) error {
	collection := r.db.Collection(db.LiveEventsCollection)

	_, err := collection.InsertOne(ctx, event)
	return err
}

func (r *liveEventRepository) GetByID(ctx context.Context, id string) (*domain.LiveEvent, error) {
	collection := r.db.Collection(db.LiveEventsCollection)

	var event domain.LiveEvent
	err := collection.FindOne(ctx, bson.M{"_id": id}).Decode(&event)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrLiveEventNotFound
		}
		return nil, err
	}

	return &event, nil
}

func (r *liveEventRepository) GetByEventID(ctx context.Context, eventID string) (*domain.LiveEvent, error) {
	collection := r.db.Collection(db.LiveEventsCollection)

	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})

	var event domain.LiveEvent
	err := collection.FindOne(ctx, bson.M{"event_id": eventID}, opts).Decode(&event)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrLiveEventNotFound
		}
		return nil, err
	}

	return &event, nil
}

func (r *liveEventRepository) ListLive(ctx context.Context) ([]domain.LiveEvent, error) {
	collection := r.db.Collection(db.LiveEventsCollection)

	cursor, err := collection.Find(ctx, bson.M{"status": domain.LiveEventLive})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []domain.LiveEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}

	return events, nil
}

func (r *liveEventRepository) Update(ctx context.Context, event *domain.LiveEvent) error {
	collection := r.db.Collection(db.LiveEventsCollection)

	result, err := collection.ReplaceOne(ctx, bson.M{"_id": event.ID}, event)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrLiveEventNotFound
	}

	return nil
}

func (r *liveEventRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(db.LiveEventsCollection)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "event_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
