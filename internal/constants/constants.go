package constants

// Session / context keys
const (
	SessionCookieName = "order_session"
	ContextKeyUserID  = "user_id"
	ContextKeyUser    = "current_user"
	HeaderRequestID   = "X-Request-ID"
	ContextKeyRequest = "request_id"
)

// Auth
const (
	MinPasswordLength = 8
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Rate limiting (advisory, single instance only)
const (
	RateLimitPerSecond = 20
	RateLimitBurst     = 40
)
