package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrLiveEventNotFound = errors.New("live event not found")
	ErrAlreadyLive       = errors.New("live event already started")
	ErrEventEnded        = errors.New("live event has ended")
	ErrEventNotLive      = errors.New("live event is not live")
	ErrFeatureDisabled   = errors.New("feature is disabled for this live event")
)

type LiveEventStatus string

const (
	LiveEventScheduled LiveEventStatus = "scheduled"
	LiveEventLive      LiveEventStatus = "live"
	LiveEventEnded     LiveEventStatus = "ended"
)

// LiveEventSettings are the per-room feature toggles, chosen by the
// organizer when the live event is started.
type LiveEventSettings struct {
	ChatEnabled         bool `bson:"chat_enabled" json:"chatEnabled"`
	PollsEnabled        bool `bson:"polls_enabled" json:"pollsEnabled"`
	QAEnabled           bool `bson:"qa_enabled" json:"qaEnabled"`
	PhotoSharingEnabled bool `bson:"photo_sharing_enabled" json:"photoSharingEnabled"`
	ModerationRequired  bool `bson:"moderation_required" json:"moderationRequired"`
}

func DefaultLiveEventSettings() LiveEventSettings {
	return LiveEventSettings{
		ChatEnabled:         true,
		PollsEnabled:        true,
		QAEnabled:           true,
		PhotoSharingEnabled: true,
		ModerationRequired:  false,
	}
}

type LiveEventMetrics struct {
	ActiveUsers           int     `bson:"active_users" json:"activeUsers"`
	PeakAttendance        int     `bson:"peak_attendance" json:"peakAttendance"`
	TotalInteractions     int64   `bson:"total_interactions" json:"totalInteractions"`
	AverageEngagementTime float64 `bson:"average_engagement_time" json:"averageEngagementTime"`
}

// LiveEvent is the room document: one per scheduled event, created when the
// organizer starts the event and finalized when it ends.
type LiveEvent struct {
	ID        string            `bson:"_id" json:"id"`
	EventID   string            `bson:"event_id" json:"eventId"`
	Status    LiveEventStatus   `bson:"status" json:"status"`
	Settings  LiveEventSettings `bson:"settings" json:"settings"`
	Metrics   LiveEventMetrics  `bson:"metrics" json:"metrics"`
	StartedAt *time.Time        `bson:"started_at,omitempty" json:"startedAt,omitempty"`
	EndedAt   *time.Time        `bson:"ended_at,omitempty" json:"endedAt,omitempty"`
	CreatedAt time.Time         `bson:"created_at" json:"createdAt"`
}

type LiveEventRepository interface {
	Create(ctx context.Context, event *LiveEvent) error
	GetByID(ctx context.Context, id string) (*LiveEvent, error)
	GetByEventID(ctx context.Context, eventID string) (*LiveEvent, error)
	ListLive(ctx context.Context) ([]LiveEvent, error)
	Update(ctx context.Context, event *LiveEvent) error
	EnsureIndexes(ctx context.Context) error
}

func NewLiveEvent(eventID string, settings LiveEventSettings) *LiveEvent {
	return &LiveEvent{
		ID:        uuid.NewString(),
		EventID:   eventID,
		Status:    LiveEventScheduled,
		Settings:  settings,
		CreatedAt: time.Now(),
	}
}

func (e *LiveEvent) Start(now time.Time) error {
	switch e.Status {
	case LiveEventLive:
		return ErrAlreadyLive
	case LiveEventEnded:
		return ErrEventEnded
	}
	e.Status = LiveEventLive
	e.StartedAt = &now
	return nil
}

// End transitions to the terminal state and freezes the final metrics
// snapshot. No interaction is accepted afterwards.
func (e *LiveEvent) End(now time.Time) error {
	if e.Status == LiveEventEnded {
		return ErrEventEnded
	}
	if e.Status != LiveEventLive {
		return ErrEventNotLive
	}
	e.Status = LiveEventEnded
	e.EndedAt = &now
	if e.StartedAt != nil {
		e.Metrics.AverageEngagementTime = now.Sub(*e.StartedAt).Seconds()
	}
	e.Metrics.ActiveUsers = 0
	return nil
}

func (e *LiveEvent) IsLive() bool {
	return e.Status == LiveEventLive
}

// ObserveAttendance records the current member count and keeps the peak as a
// running maximum. Reports whether either value changed.
func (e *LiveEvent) ObserveAttendance(active int) bool {
	changed := e.Metrics.ActiveUsers != active
	e.Metrics.ActiveUsers = active
	if active > e.Metrics.PeakAttendance {
		e.Metrics.PeakAttendance = active
		changed = true
	}
	return changed
}
