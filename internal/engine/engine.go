package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/stagelink/backend/internal/domain"
	"github.com/stagelink/backend/internal/infrastructure/logging"
	"github.com/stagelink/backend/internal/infrastructure/metrics"
	"github.com/stagelink/backend/internal/infrastructure/profanity"
	"github.com/stagelink/backend/internal/infrastructure/ws"
)

// ErrValidation wraps malformed input. It maps to a validation error code on
// the wire, distinct from the domain conflict sentinels.
var ErrValidation = errors.New("validation failed")

// ErrStoreUnavailable wraps persistence failures. The mutation did not
// happen; the caller may retry.
var ErrStoreUnavailable = errors.New("store unavailable")

// AnalyticsSink receives interaction records. Implementations must not
// block; the RabbitMQ publisher hands off to a goroutine.
type AnalyticsSink interface {
	Record(liveEventID, userID string, action domain.InteractionAction, metadata map[string]any)
}

// Repositories bundles every store the engine writes through.
type Repositories struct {
	LiveEvents  domain.LiveEventRepository
	Polls       domain.PollRepository
	Questions   domain.QuestionRepository
	Icebreakers domain.IcebreakerRepository
	Photos      domain.PhotoRepository
	Chat        domain.ChatMessageRepository
	Events      domain.EventRepository

	// InteractionLogs is read-only here; writes go through the analytics
	// sink and its consumer.
	InteractionLogs domain.InteractionLogRepository
}

// Engine is the interaction engine: every inbound operation, websocket or
// REST, flows through one of its methods. Each mutation is serialized per
// entity, persisted write-through, then broadcast.
type Engine struct {
	repos    Repositories
	registry *ws.Registry
	router   *ws.Router
	sink     AnalyticsSink
	filter   *profanity.Filter
	metrics  *metrics.Metrics
	logger   logging.Logger
	locks    *entityLocks

	chatHistorySize int
}

type Options struct {
	Repositories    Repositories
	Registry        *ws.Registry
	Router          *ws.Router
	Sink            AnalyticsSink
	Filter          *profanity.Filter
	Metrics         *metrics.Metrics
	Logger          logging.Logger
	ChatHistorySize int
}

func New(opts Options) *Engine {
	if opts.ChatHistorySize <= 0 {
		opts.ChatHistorySize = 50
	}
	return &Engine{
		repos:           opts.Repositories,
		registry:        opts.Registry,
		router:          opts.Router,
		sink:            opts.Sink,
		filter:          opts.Filter,
		metrics:         opts.Metrics,
		logger:          opts.Logger,
		locks:           newEntityLocks(),
		chatHistorySize: opts.ChatHistorySize,
	}
}

// liveRoom loads the live event and rejects interactions on rooms that are
// not currently live.
func (e *Engine) liveRoom(ctx context.Context, roomID string) (*domain.LiveEvent, error) {
	event, err := e.repos.LiveEvents.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, domain.ErrLiveEventNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if event.Status == domain.LiveEventEnded {
		return nil, domain.ErrEventEnded
	}
	if !event.IsLive() {
		return nil, domain.ErrEventNotLive
	}
	return event, nil
}

// requireOrganizer checks the caller against the scheduled event backing
// the room.
func (e *Engine) requireOrganizer(ctx context.Context, event *domain.LiveEvent, userID string) error {
	ok, err := e.repos.Events.IsOrganizer(ctx, event.EventID, userID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !ok {
		return domain.ErrNotOrganizer
	}
	return nil
}

func (e *Engine) record(roomID, userID string, action domain.InteractionAction, metadata map[string]any) {
	if e.sink != nil {
		e.sink.Record(roomID, userID, action, metadata)
	}
	e.metrics.ObserveInteraction(string(action))
}
