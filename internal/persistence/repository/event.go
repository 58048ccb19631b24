package repository

import (
	"context"
	"errors"

	"github.com/stagelink/backend/internal/domain"
	"github.com/stagelink/backend/internal/persistence/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type eventRepository struct {
	db *mongo.Database
}

func NewEventRepository(db *mongo.Database) domain.EventRepository {
	return &eventRepository{
		db: db,
	}
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	collection := r.db.Collection(db.EventsCollection)

	var event domain.Event
	err := collection.FindOne(ctx, bson.M{"_id": id}).Decode(&event)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrEventNotFound
		}
		return nil, err
	}

	return &event, nil
}

func (r *eventRepository) IsOrganizer(ctx context.Context, eventID, userID string) (bool, error) {
	collection := r.db.Collection(db.EventsCollection)

	filter := bson.M{
		"_id":          eventID,
		"organizer_id": userID,
	}

	count, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}
