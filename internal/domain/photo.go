package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPhotoNotFound       = errors.New("photo not found")
	ErrPhotoAlreadyHandled = errors.New("photo was already moderated")
)

type PhotoStatus string

const (
	PhotoPending  PhotoStatus = "pending"
	PhotoApproved PhotoStatus = "approved"
	PhotoRejected PhotoStatus = "rejected"
)

// LivePhoto is an attendee-shared photo. Only approved photos ever reach the
// broadcast path; pending and rejected ones stay out of room payloads.
type LivePhoto struct {
	ID             string      `bson:"_id" json:"id"`
	LiveEventID    string      `bson:"live_event_id" json:"liveEventId"`
	ImageURL       string      `bson:"image_url" json:"imageUrl"`
	Caption        string      `bson:"caption" json:"caption"`
	Tags           []string    `bson:"tags,omitempty" json:"tags,omitempty"`
	UploadedBy     string      `bson:"uploaded_by" json:"uploadedBy"`
	UploadedByName string      `bson:"uploaded_by_name" json:"uploadedByName"`
	Status         PhotoStatus `bson:"status" json:"status"`
	Likes          []string    `bson:"likes" json:"likes"`
	LikeCount      int         `bson:"like_count" json:"likeCount"`
	ModeratedBy    string      `bson:"moderated_by,omitempty" json:"-"`
	ModeratedAt    *time.Time  `bson:"moderated_at,omitempty" json:"-"`
	CreatedAt      time.Time   `bson:"created_at" json:"createdAt"`
}

type PhotoRepository interface {
	Create(ctx context.Context, photo *LivePhoto) error
	GetByID(ctx context.Context, id string) (*LivePhoto, error)
	ListApproved(ctx context.Context, liveEventID string) ([]LivePhoto, error)
	ListPending(ctx context.Context, liveEventID string) ([]LivePhoto, error)
	Update(ctx context.Context, photo *LivePhoto) error
	CountByLiveEvent(ctx context.Context, liveEventID string) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

// NewLivePhoto starts the photo in pending when the room requires
// moderation, approved otherwise.
func NewLivePhoto(liveEventID, imageURL, caption string, tags []string, uploadedBy, uploadedByName string, moderationRequired bool) *LivePhoto {
	status := PhotoApproved
	if moderationRequired {
		status = PhotoPending
	}
	return &LivePhoto{
		ID:             uuid.NewString(),
		LiveEventID:    liveEventID,
		ImageURL:       imageURL,
		Caption:        caption,
		Tags:           tags,
		UploadedBy:     uploadedBy,
		UploadedByName: uploadedByName,
		Status:         status,
		Likes:          []string{},
		CreatedAt:      time.Now(),
	}
}

// ToggleLike flips the user's membership in the like set and reports whether
// the like is now present.
func (p *LivePhoto) ToggleLike(userID string) bool {
	for i, id := range p.Likes {
		if id == userID {
			p.Likes = append(p.Likes[:i], p.Likes[i+1:]...)
			p.LikeCount = len(p.Likes)
			return false
		}
	}
	p.Likes = append(p.Likes, userID)
	p.LikeCount = len(p.Likes)
	return true
}

func (p *LivePhoto) Moderate(approve bool, moderatedBy string, now time.Time) error {
	if p.Status != PhotoPending {
		return ErrPhotoAlreadyHandled
	}
	if approve {
		p.Status = PhotoApproved
	} else {
		p.Status = PhotoRejected
	}
	p.ModeratedBy = moderatedBy
	p.ModeratedAt = &now
	return nil
}
