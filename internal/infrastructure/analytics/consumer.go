package analytics

import (
	"context"
	"encoding/json"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stagelink/backend/internal/domain"
	"github.com/stagelink/backend/internal/infrastructure/contracts"
	"github.com/stagelink/backend/internal/infrastructure/logging"
	"github.com/stagelink/backend/internal/infrastructure/messaging"
)

// Consumer drains the interactions queue and persists records so the wider
// platform's aggregation pipelines can read them later.
type Consumer struct {
	rabbitmq *messaging.RabbitMQ
	logs     domain.InteractionLogRepository
	logger   logging.Logger
}

func NewConsumer(rabbitmq *messaging.RabbitMQ, logs domain.InteractionLogRepository, logger logging.Logger) *Consumer {
	return &Consumer{
		rabbitmq: rabbitmq,
		logs:     logs,
		logger:   logger,
	}
}

func (c *Consumer) Listen() error {
	return c.rabbitmq.ConsumeMessages(messaging.InteractionsQueue, func(ctx context.Context, msg amqp091.Delivery) error {
		var message contracts.AmqpMessage
		if err := json.Unmarshal(msg.Body, &message); err != nil {
			c.logger.Warn(logging.RabbitMQ, logging.Analytics, "failed to unmarshal analytics message", map[logging.ExtraKey]any{
				logging.ErrorMessage: err.Error(),
			})
			return err
		}

		var record domain.InteractionLog
		if err := json.Unmarshal(message.Data, &record); err != nil {
			c.logger.Warn(logging.RabbitMQ, logging.Analytics, "failed to unmarshal interaction record", map[logging.ExtraKey]any{
				logging.ErrorMessage: err.Error(),
			})
			return err
		}

		return c.logs.Log(ctx, &record)
	})
}
