package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrEventNotFound = errors.New("event not found")
	ErrNotOrganizer  = errors.New("caller is not the event organizer")
)

// Event is the scheduled event owned by the wider platform. The engagement
// engine only reads it, for existence and organizer checks.
type Event struct {
	ID          string    `bson:"_id" json:"id"`
	Title       string    `bson:"title" json:"title"`
	OrganizerID string    `bson:"organizer_id" json:"organizerId"`
	StartsAt    time.Time `bson:"starts_at" json:"startsAt"`
	CreatedAt   time.Time `bson:"created_at" json:"createdAt"`
}

type EventRepository interface {
	GetByID(ctx context.Context, id string) (*Event, error)
	IsOrganizer(ctx context.Context, eventID, userID string) (bool, error)
}
