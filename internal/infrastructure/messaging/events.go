package messaging

const (
	InteractionsQueue = "interactions"
	DeadLetterQueue   = "dead_letter_queue"
)
