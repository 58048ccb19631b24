package analytics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/stagelink/backend/internal/domain"
	"github.com/stagelink/backend/internal/infrastructure/contracts"
	"github.com/stagelink/backend/internal/infrastructure/logging"
	"github.com/stagelink/backend/internal/infrastructure/messaging"
)

const publishTimeout = 5 * time.Second

// Publisher emits interaction records to the analytics exchange. Records are
// fire and forget: a publish failure is logged and never surfaces to the
// interaction that produced it.
type Publisher struct {
	rabbitmq *messaging.RabbitMQ
	logger   logging.Logger
}

func NewPublisher(rabbitmq *messaging.RabbitMQ, logger logging.Logger) *Publisher {
	return &Publisher{
		rabbitmq: rabbitmq,
		logger:   logger,
	}
}

// Record implements the engine's analytics sink.
func (p *Publisher) Record(liveEventID, userID string, action domain.InteractionAction, metadata map[string]any) {
	record := domain.NewInteractionLog(liveEventID, userID, action, metadata)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		recordJSON, err := json.Marshal(record)
		if err != nil {
			p.logger.Error(logging.RabbitMQ, logging.Analytics, "failed to marshal interaction record", map[logging.ExtraKey]any{
				logging.ErrorMessage: err.Error(),
			})
			return
		}

		err = p.rabbitmq.PublishMessage(ctx, contracts.InteractionRecorded, contracts.AmqpMessage{
			LiveEventID: liveEventID,
			UserID:      userID,
			Data:        recordJSON,
		})
		if err != nil {
			p.logger.Warn(logging.RabbitMQ, logging.Analytics, "failed to publish interaction record", map[logging.ExtraKey]any{
				logging.RoomID:       liveEventID,
				logging.ErrorMessage: err.Error(),
			})
		}
	}()
}
