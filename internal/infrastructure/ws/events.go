package ws

// Outbound event names. These are a stable contract with clients.
const (
	ActiveUsersUpdate = "active_users_update"
	MetricsUpdate     = "metrics_update"

	NewPoll    = "new_poll"
	PollVote   = "poll_vote"
	PollClosed = "poll_closed"

	NewQAQuestion = "new_qa_question"
	QAUpvote      = "qa_upvote"
	QAAnswered    = "qa_answered"
	QADismissed   = "qa_dismissed"

	NewIcebreaker      = "new_icebreaker"
	IcebreakerResponse = "icebreaker_response"

	NewPhoto  = "new_photo"
	PhotoLike = "photo_like"

	ChatMessage       = "chat_message"
	ChatMessageHidden = "chat_message_hidden"

	TypingUpdate = "typing_update"

	EventStarted = "event_started"
	EventEnded   = "event_ended"

	JoinConfirmed = "join_confirmed"
	ErrorEvent    = "error"
)

// Inbound actions carried in the client command envelope.
const (
	ActionJoinRoom          = "join_room"
	ActionLeaveRoom         = "leave_room"
	ActionVotePoll          = "vote_poll"
	ActionUpvoteQuestion    = "upvote_question"
	ActionAskQuestion       = "ask_question"
	ActionAnswerQuestion    = "answer_question"
	ActionRespondIcebreaker = "respond_icebreaker"
	ActionSharePhoto        = "share_photo"
	ActionLikePhoto         = "like_photo"
	ActionSendChat          = "send_chat"
	ActionTypingStart       = "typing_start"
	ActionTypingStop        = "typing_stop"
)

// Error codes reported to the caller, never broadcast.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeConflict     = "CONFLICT"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeNotFound     = "NOT_FOUND"
	CodeStoreFailed  = "STORE_UNAVAILABLE"
)
