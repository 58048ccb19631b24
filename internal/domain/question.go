package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrQuestionNotFound = errors.New("question not found")

type QuestionStatus string

const (
	QuestionPending   QuestionStatus = "pending"
	QuestionAnswered  QuestionStatus = "answered"
	QuestionDismissed QuestionStatus = "dismissed"
)

type QuestionAnswer struct {
	Text       string    `bson:"text" json:"text"`
	AnsweredBy string    `bson:"answered_by" json:"answeredBy"`
	AnsweredAt time.Time `bson:"answered_at" json:"answeredAt"`
}

// Question is an audience Q&A entry. Upvotes have set semantics: a user id
// appears at most once, and UpvoteCount always equals len(Upvotes).
type Question struct {
	ID          string          `bson:"_id" json:"id"`
	LiveEventID string          `bson:"live_event_id" json:"liveEventId"`
	Question    string          `bson:"question" json:"question"`
	AskedBy     string          `bson:"asked_by" json:"askedBy"`
	AskedByName string          `bson:"asked_by_name" json:"askedByName"`
	Upvotes     []string        `bson:"upvotes" json:"upvotes"`
	UpvoteCount int             `bson:"upvote_count" json:"upvoteCount"`
	Status      QuestionStatus  `bson:"status" json:"status"`
	Answer      *QuestionAnswer `bson:"answer,omitempty" json:"answer,omitempty"`
	CreatedAt   time.Time       `bson:"created_at" json:"createdAt"`
}

type QuestionRepository interface {
	Create(ctx context.Context, question *Question) error
	GetByID(ctx context.Context, id string) (*Question, error)
	ListByLiveEvent(ctx context.Context, liveEventID string) ([]Question, error)
	Update(ctx context.Context, question *Question) error
	CountByLiveEvent(ctx context.Context, liveEventID string) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

func NewQuestion(liveEventID, text, askedBy, askedByName string) *Question {
	return &Question{
		ID:          uuid.NewString(),
		LiveEventID: liveEventID,
		Question:    text,
		AskedBy:     askedBy,
		AskedByName: askedByName,
		Upvotes:     []string{},
		Status:      QuestionPending,
		CreatedAt:   time.Now(),
	}
}

// ToggleUpvote flips the user's membership in the upvote set and reports
// whether the upvote is now present. Two calls by the same user cancel out.
func (q *Question) ToggleUpvote(userID string) bool {
	for i, id := range q.Upvotes {
		if id == userID {
			q.Upvotes = append(q.Upvotes[:i], q.Upvotes[i+1:]...)
			q.UpvoteCount = len(q.Upvotes)
			return false
		}
	}
	q.Upvotes = append(q.Upvotes, userID)
	q.UpvoteCount = len(q.Upvotes)
	return true
}

// SetAnswer records the organizer's answer. Re-answering overwrites the
// previous answer (last write wins).
func (q *Question) SetAnswer(text, answeredBy string, now time.Time) {
	q.Answer = &QuestionAnswer{
		Text:       text,
		AnsweredBy: answeredBy,
		AnsweredAt: now,
	}
	q.Status = QuestionAnswered
}

func (q *Question) Dismiss() {
	q.Status = QuestionDismissed
}
