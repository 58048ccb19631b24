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

type chatMessageRepository struct {
	db *mongo.Database
}

func NewChatMessageRepository(db *mongo.Database) domain.ChatMessageRepository {
	return &chatMessageRepository{
		db: db,
	}
}

func (r *chatMessageRepository) Create(ctx context.Context, message *domain.ChatMessage) error {
	collection := r.db.Collection(db.ChatMessagesCollection)

	_, err := collection.InsertOne(ctx, message)
	return err
}

func (r *chatMessageRepository) GetByID(ctx context.Context, id string) (*domain.ChatMessage, error) {
	collection := r.db.Collection(db.ChatMessagesCollection)

	var message domain.ChatMessage
	err := collection.FindOne(ctx, bson.M{"_id": id}).Decode(&message)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, err
	}

	return &message, nil
}

// ListVisible returns the latest visible messages, oldest first so clients
// can append in order.
func (r *chatMessageRepository) ListVisible(ctx context.Context, liveEventID string, limit int) ([]domain.ChatMessage, error) {
	collection := r.db.Collection(db.ChatMessagesCollection)

	filter := bson.M{
		"live_event_id": liveEventID,
		"is_visible":    true,
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []domain.ChatMessage
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

func (r *chatMessageRepository) Update(ctx context.Context, message *domain.ChatMessage) error {
	collection := r.db.Collection(db.ChatMessagesCollection)

	result, err := collection.ReplaceOne(ctx, bson.M{"_id": message.ID}, message)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrMessageNotFound
	}

	return nil
}

func (r *chatMessageRepository) CountByLiveEvent(ctx context.Context, liveEventID string) (int64, error) {
	collection := r.db.Collection(db.ChatMessagesCollection)

	return collection.CountDocuments(ctx, bson.M{"live_event_id": liveEventID})
}

func (r *chatMessageRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(db.ChatMessagesCollection)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "live_event_id", Value: 1},
				{Key: "is_visible", Value: 1},
				{Key: "created_at", Value: -1},
			},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
