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

type questionRepository struct {
	db *mongo.Database
}

func NewQuestionRepository(db *mongo.Database) domain.QuestionRepository {
	return &questionRepository{
		db: db,
	}
}

func (r *questionRepository) Create(ctx context.Context, question *domain.Question) error {
	collection := r.db.Collection(db.QAQuestionsCollection)

	_, err := collection.InsertOne(ctx, question)
	return err
}

func (r *questionRepository) GetByID(ctx context.Context, id string) (*domain.Question, error) {
	collection := r.db.Collection(db.QAQuestionsCollection)

	var question domain.Question
	err := collection.FindOne(ctx, bson.M{"_id": id}).Decode(&question)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrQuestionNotFound
		}
		return nil, err
	}

	return &question, nil
}

func (r *questionRepository) ListByLiveEvent(ctx context.Context, liveEventID string) ([]domain.Question, error) {
	collection := r.db.Collection(db.QAQuestionsCollection)

	// Most upvoted first, ties broken by recency
	opts := options.Find().SetSort(bson.D{
		{Key: "upvote_count", Value: -1},
		{Key: "created_at", Value: -1},
	})

	cursor, err := collection.Find(ctx, bson.M{"live_event_id": liveEventID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var questions []domain.Question
	if err := cursor.All(ctx, &questions); err != nil {
		return nil, err
	}

	return questions, nil
}

func (r *questionRepository) Update(ctx context.Context, question *domain.Question) error {
	collection := r.db.Collection(db.QAQuestionsCollection)

	result, err := collection.ReplaceOne(ctx, bson.M{"_id": question.ID}, question)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrQuestionNotFound
	}

	return nil
}

func (r *questionRepository) CountByLiveEvent(ctx context.Context, liveEventID string) (int64, error) {
	collection := r.db.Collection(db.QAQuestionsCollection)

	return collection.CountDocuments(ctx, bson.M{"live_event_id": liveEventID})
}

func (r *questionRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(db.QAQuestionsCollection)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "live_event_id", Value: 1},
				{Key: "upvote_count", Value: -1},
			},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
