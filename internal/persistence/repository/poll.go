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

type pollRepository struct {
	db *mongo.Database
}

func NewPollRepository(db *mongo.Database) domain.PollRepository {
	return &pollRepository{
		db: db,
	}
}

func (r *pollRepository) Create(ctx context.Context, poll *domain.Poll) error {
	collection := r.db.Collection(db.PollsCollection)

	_, err := collection.InsertOne(ctx, poll)
	return err
}

func (r *pollRepository) GetByID(ctx context.Context, id string) (*domain.Poll, error) {
	collection := r.db.Collection(db.PollsCollection)

	var poll domain.Poll
	err := collection.FindOne(ctx, bson.M{"_id": id}).Decode(&poll)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPollNotFound
		}
		return nil, err
	}

	return &poll, nil
}

func (r *pollRepository) ListByLiveEvent(ctx context.Context, liveEventID string) ([]domain.Poll, error) {
	collection := r.db.Collection(db.PollsCollection)

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := collection.Find(ctx, bson.M{"live_event_id": liveEventID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var polls []domain.Poll
	if err := cursor.All(ctx, &polls); err != nil {
		return nil, err
	}

	return polls, nil
}

func (r *pollRepository) Update(ctx context.Context, poll *domain.Poll) error {
	collection := r.db.Collection(db.PollsCollection)

	result, err := collection.ReplaceOne(ctx, bson.M{"_id": poll.ID}, poll)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrPollNotFound
	}

	return nil
}

// TotalVotes sums recorded votes across every poll of the live event.
func (r *pollRepository) TotalVotes(ctx context.Context, liveEventID string) (int64, error) {
	collection := r.db.Collection(db.PollsCollection)

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"live_event_id": liveEventID}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$total_votes"},
		}}},
	}

	cursor, err := collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var results []struct {
		Total int64 `bson:"total"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, nil
	}

	return results[0].Total, nil
}

func (r *pollRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(db.PollsCollection)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "live_event_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
