package contracts

// AmqpMessage is the message structure for AMQP.
type AmqpMessage struct {
	LiveEventID string `json:"liveEventId"`
	UserID      string `json:"userId"`
	Data        []byte `json:"data"`
}

// Routing keys.
const (
	InteractionRecorded = "interaction.recorded"
)
