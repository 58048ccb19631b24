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

type photoRepository struct {
	db *mongo.Database
}

func NewPhotoRepository(db *mongo.Database) domain.PhotoRepository {
	return &photoRepository{
		db: db,
	}
}

func (r *photoRepository) Create(ctx context.Context, photo *domain.LivePhoto) error {
	collection := r.db.Collection(db.LivePhotosCollection)

	_, err := collection.InsertOne(ctx, photo)
	return err
}

func (r *photoRepository) GetByID(ctx context.Context, id string) (*domain.LivePhoto, error) {
	collection := r.db.Collection(db.LivePhotosCollection)

	var photo domain.LivePhoto
	err := collection.FindOne(ctx, bson.M{"_id": id}).Decode(&photo)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPhotoNotFound
		}
		return nil, err
	}

	return &photo, nil
}

func (r *photoRepository) ListApproved(ctx context.Context, liveEventID string) ([]domain.LivePhoto, error) {
	return r.listByStatus(ctx, liveEventID, domain.PhotoApproved)
}

func (r *photoRepository) ListPending(ctx context.Context, liveEventID string) ([]domain.LivePhoto, error) {
	return r.listByStatus(ctx, liveEventID, domain.PhotoPending)
}

func (r *photoRepository) listByStatus(ctx context.Context, liveEventID string, status domain.PhotoStatus) ([]domain.LivePhoto, error) {
	collection := r.db.Collection(db.LivePhotosCollection)

	filter := bson.M{
		"live_event_id": liveEventID,
		"status":        status,
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var photos []domain.LivePhoto
	if err := cursor.All(ctx, &photos); err != nil {
		return nil, err
	}

	return photos, nil
}

func (r *photoRepository) Update(ctx context.Context, photo *domain.LivePhoto) error {
	collection := r.db.Collection(db.LivePhotosCollection)

	result, err := collection.ReplaceOne(ctx, bson.M{"_id": photo.ID}, photo)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrPhotoNotFound
	}

	return nil
}

func (r *photoRepository) CountByLiveEvent(ctx context.Context, liveEventID string) (int64, error) {
	collection := r.db.Collection(db.LivePhotosCollection)

	return collection.CountDocuments(ctx, bson.M{"live_event_id": liveEventID})
}

func (r *photoRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(db.LivePhotosCollection)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "live_event_id", Value: 1},
				{Key: "status", Value: 1},
				{Key: "created_at", Value: -1},
			},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
