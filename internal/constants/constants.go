package constants

const (
	// ContextKeyUserID is the session and gin context key for the authenticated user ID
	ContextKeyUserID = "user_id"
	// ContextKeyRequestID is the gin context key for the request ID
	ContextKeyRequestID = "request_id"
	// ContextKeyProject holds the project loaded by RequireProjectAccess
	ContextKeyProject = "project"
	// ContextKeyTask holds the task loaded by RequireTaskAccess
	ContextKeyTask = "task"

	SessionCookieName = "task_session"
	HeaderRequestID   = "X-Request-ID"
)

const (
	MinPasswordLength = 8

	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100

	MaxAIGeneratedTasks = 20
)
