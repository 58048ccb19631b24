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

type icebreakerRepository struct {
	db *mongo.Database
}

func NewIcebreakerRepository(db *mongo.Database) domain.IcebreakerRepository {
	return &icebreakerRepository{
		db: db,
	}
}

func (r *icebreakerRepository) Create(ctx context.Context, icebreaker *domain.Icebreaker) error {
	collection := r.db.Collection(db.IcebreakersCollection)

	_, err := collection.InsertOne(ctx, icebreaker)
	return err
}

func (r *icebreakerRepository) GetByID(ctx context.Context, id string) (*domain.Icebreaker, error) {
	collection := r.db.Collection(db.IcebreakersCollection)

	var icebreaker domain.Icebreaker
	err := collection.FindOne(ctx, bson.M{"_id": id}).Decode(&icebreaker)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrIcebreakerNotFound
		}
		return nil, err
	}

	return &icebreaker, nil
}

func (r *icebreakerRepository) ListByLiveEvent(ctx context.Context, liveEventID string) ([]domain.Icebreaker, error) {
	collection := r.db.Collection(db.IcebreakersCollection)

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := collection.Find(ctx, bson.M{"live_event_id": liveEventID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var icebreakers []domain.Icebreaker
	if err := cursor.All(ctx, &icebreakers); err != nil {
		return nil, err
	}

	return icebreakers, nil
}

func (r *icebreakerRepository) Update(ctx context.Context, icebreaker *domain.Icebreaker) error {
	collection := r.db.Collection(db.IcebreakersCollection)

	result, err := collection.ReplaceOne(ctx, bson.M{"_id": icebreaker.ID}, icebreaker)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrIcebreakerNotFound
	}

	return nil
}

func (r *icebreakerRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(db.IcebreakersCollection)

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
