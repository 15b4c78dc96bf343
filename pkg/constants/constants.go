package constants

type contextKey string

const (
	TxKey        contextKey = "tx"
	PoolKey      contextKey = "pool"
	LoggerKey    contextKey = "logger"
	RequestStart contextKey = "requestStart"
	RequestIDKey contextKey = "requestID"
	ActorIDKey   contextKey = "actorID"
)

// ActorHeader carries the id of the acting staff member on API requests.
const ActorHeader = "X-Actor-ID"
