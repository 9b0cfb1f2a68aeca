package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/orderdesk/order-management-api/internal/constants"
)

// RequestID attaches a request id to every request for log correlation,
// honoring an id supplied by the caller.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(constants.HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(constants.ContextKeyRequest, id)
		c.Writer.Header().Set(constants.HeaderRequestID, id)
		c.Next()
	}
}
