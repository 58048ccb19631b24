package logging

type Category string
type SubCategory string
type ExtraKey string

const (
	General         Category = "General"
	Mongo           Category = "Mongo"
	RabbitMQ        Category = "RabbitMQ"
	WebSocket       Category = "WebSocket"
	Engine          Category = "Engine"
	Validation      Category = "Validation"
	RequestResponse Category = "RequestResponse"
)

const (
	Startup         SubCategory = "Startup"
	Shutdown        SubCategory = "Shutdown"
	Broadcast       SubCategory = "Broadcast"
	Session         SubCategory = "Session"
	Reconciliation  SubCategory = "Reconciliation"
	Analytics       SubCategory = "Analytics"
	Moderation      SubCategory = "Moderation"
	RateLimiting    SubCategory = "RateLimiting"
	ExternalService SubCategory = "ExternalService"
)

const (
	AppName      ExtraKey = "AppName"
	LoggerName   ExtraKey = "Logger"
	RoomID       ExtraKey = "RoomId"
	UserID       ExtraKey = "UserId"
	ConnectionID ExtraKey = "ConnectionId"
	EventName    ExtraKey = "EventName"
	Method       ExtraKey = "Method"
	StatusCode   ExtraKey = "StatusCode"
	Path         ExtraKey = "Path"
	Latency      ExtraKey = "Latency"
	ErrorMessage ExtraKey = "ErrorMessage"
)
